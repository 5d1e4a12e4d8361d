package domain

import (
	"context"
	"io"
	"time"
)

// Repository methods take an owner. An empty owner means the deployment runs
// without authentication and no ownership filter is applied.

type JobRepository interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, owner, id string) (Job, error)
	FindJobByTitle(ctx context.Context, owner, title string) (Job, error)
	ListJobs(ctx context.Context, owner string) ([]Job, error)
	UpdateJob(ctx context.Context, owner, id string, patch JobPatch) (Job, error)
	// DeleteJob removes the job and every scan that references it.
	DeleteJob(ctx context.Context, owner, id string) error
}

type ScanRepository interface {
	CreateScan(ctx context.Context, scan *Scan) error
	GetScan(ctx context.Context, owner, id string) (Scan, error)
	// ListScans returns scans newest first; limit <= 0 means no limit.
	ListScans(ctx context.Context, owner string, limit int) ([]Scan, error)
	ListScansByJob(ctx context.Context, owner, jobID string) ([]Scan, error)
	ListScansForJobs(ctx context.Context, jobIDs []string) ([]Scan, error)
	// FindScanByFile returns the scan whose stored upload has the given key.
	FindScanByFile(ctx context.Context, owner, fileKey string) (Scan, error)
	UpdateScanStatus(ctx context.Context, owner, id string, status ScanStatus) (Scan, error)
	DeleteScan(ctx context.Context, owner, id string) error
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	SaveProfile(ctx context.Context, id string, patch ProfilePatch) (User, error)
	SaveSettings(ctx context.Context, id string, patch SettingsPatch) (User, error)
}

// Store is a Candidate Store backend.
type Store interface {
	JobRepository
	ScanRepository
	UserRepository
	Close() error
}

type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (StoredFile, error)
}

type GenerateRequest struct {
	Prompt      string
	APIKey      string
	Model       string
	Temperature float64
}

// Generator sends one prompt to a language model and returns its raw text.
type Generator interface {
	Name() string
	// RequiresAPIKey is false for providers that authenticate from the environment.
	RequiresAPIKey() bool
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}

const (
	EventScanCreated       = "created"
	EventScanStatusChanged = "status_changed"
	EventScanDeleted       = "deleted"
)

type ScanEvent struct {
	Type      string     `json:"type"`
	ScanID    string     `json:"scan_id"`
	JobID     string     `json:"job_id"`
	Owner     string     `json:"owner,omitempty"`
	Status    ScanStatus `json:"status,omitempty"`
	Score     int        `json:"score"`
	Timestamp time.Time  `json:"timestamp"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event ScanEvent) error
}
