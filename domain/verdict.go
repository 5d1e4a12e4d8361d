package domain

const (
	PassThreshold    = 60
	UnknownCandidate = "Unknown"
	FallbackSummary  = "failed to parse ai response"
)

// Verdict is the structured answer the scoring model must return.
type Verdict struct {
	Score         int        `json:"score"`
	Status        ScanStatus `json:"status"`
	CandidateName string     `json:"candidateName"`
	Summary       string     `json:"summary"`
}

// FallbackVerdict is stored when the model answered but the answer could not be used.
func FallbackVerdict() Verdict {
	return Verdict{
		Score:         0,
		Status:        ScanFail,
		CandidateName: UnknownCandidate,
		Summary:       FallbackSummary,
	}
}

func StatusForScore(score int) ScanStatus {
	if score >= PassThreshold {
		return ScanPass
	}
	return ScanFail
}
