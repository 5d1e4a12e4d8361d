package domain

// Upload is a resume file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StoredFile is where an upload ended up. URL is empty when the backend
// cannot serve it back.
type StoredFile struct {
	Key string
	URL string
}
