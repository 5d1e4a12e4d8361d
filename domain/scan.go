package domain

import (
	"fmt"
	"strings"
	"time"
)

type ScanStatus string

const (
	ScanPending  ScanStatus = "Pending"
	ScanAccepted ScanStatus = "Accepted"
	ScanRejected ScanStatus = "Rejected"
	ScanPass     ScanStatus = "Pass"
	ScanFail     ScanStatus = "Fail"
)

// ScanStatuses lists every accepted status. Pass/Fail come from the instant
// flow and stay valid so older records keep working.
var ScanStatuses = []ScanStatus{ScanPending, ScanAccepted, ScanRejected, ScanPass, ScanFail}

func ParseScanStatus(raw string) (ScanStatus, error) {
	status := ScanStatus(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", Invalid("status", fmt.Sprintf("invalid status %q", raw))
	}
	return status, nil
}

func (s ScanStatus) Valid() bool {
	for _, v := range ScanStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsShortlisted reports a positive hiring outcome in either vocabulary.
func (s ScanStatus) IsShortlisted() bool {
	return s == ScanPass || s == ScanAccepted
}

// IsRejected reports a negative hiring outcome in either vocabulary.
func (s ScanStatus) IsRejected() bool {
	return s == ScanFail || s == ScanRejected
}

func (s ScanStatus) IsPending() bool {
	return s == ScanPending
}

// Scan is one scoring result for a resume submitted against a job.
type Scan struct {
	ID            string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	JobID         string     `gorm:"size:36;not null;index" bson:"jobId" json:"jobId"`
	Owner         string     `gorm:"size:255;index:idx_scans_owner_created" bson:"owner" json:"owner,omitempty"`
	Filename      string     `gorm:"size:512;not null" bson:"filename" json:"filename"`
	FileURL       string     `gorm:"size:1024" bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	FileKey       string     `gorm:"size:512;index" bson:"fileKey,omitempty" json:"-"`
	CandidateName string     `gorm:"size:255;not null;default:Unknown" bson:"candidateName" json:"candidateName"`
	Score         int        `gorm:"not null" bson:"score" json:"score"`
	Status        ScanStatus `gorm:"size:16;not null;index" bson:"status" json:"status"`
	Summary       string     `gorm:"type:text" bson:"summary" json:"summary"`
	Category      string     `gorm:"size:255" bson:"category" json:"category"`
	CreatedAt     time.Time  `gorm:"index:idx_scans_owner_created" bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// ScanFlow decides the status a freshly scored scan starts in.
type ScanFlow string

const (
	// FlowReview stores new scans as Pending until a manager accepts or rejects them.
	FlowReview ScanFlow = "review"
	// FlowInstant stores the model's Pass/Fail verdict directly.
	FlowInstant ScanFlow = "instant"
)

func ParseScanFlow(raw string) (ScanFlow, error) {
	switch flow := ScanFlow(strings.ToLower(strings.TrimSpace(raw))); flow {
	case FlowReview, FlowInstant:
		return flow, nil
	case "":
		return FlowReview, nil
	default:
		return "", fmt.Errorf("unknown scan flow %q", raw)
	}
}

func (f ScanFlow) InitialStatus(v Verdict) ScanStatus {
	if f == FlowInstant {
		return v.Status
	}
	return ScanPending
}
