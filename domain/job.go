package domain

import (
	"time"

	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobActive JobStatus = "Active"
	JobClosed JobStatus = "Closed"
)

func (s JobStatus) Valid() bool {
	return s == JobActive || s == JobClosed
}

// Job is a posting that resumes are scored against. Title is unique per owner
// so a scan can resolve its job from (title, owner).
type Job struct {
	ID          string                      `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Owner       string                      `gorm:"size:255;uniqueIndex:idx_jobs_owner_title" bson:"owner" json:"owner,omitempty"`
	Title       string                      `gorm:"size:255;not null;uniqueIndex:idx_jobs_owner_title" bson:"title" json:"title"`
	Department  string                      `gorm:"size:255" bson:"department" json:"department"`
	Description string                      `gorm:"type:text" bson:"description" json:"description"`
	Status      JobStatus                   `gorm:"size:16;not null;default:Active" bson:"status" json:"status"`
	Skills      datatypes.JSONSlice[string] `bson:"skills" json:"skills"`
	CreatedAt   time.Time                   `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time                   `bson:"updatedAt" json:"updatedAt"`
}

// JobPatch is used for partial updates. Nil fields are left untouched.
type JobPatch struct {
	Title       *string
	Department  *string
	Description *string
	Status      *JobStatus
	Skills      *[]string
}

func (p JobPatch) Empty() bool {
	return p.Title == nil && p.Department == nil && p.Description == nil && p.Status == nil && p.Skills == nil
}
