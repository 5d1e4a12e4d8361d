package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resume-screener/domain"
)

type JobInput struct {
	Title       string
	Department  string
	Description string
	Status      domain.JobStatus
	Skills      []string
}

type JobService struct {
	jobs  domain.JobRepository
	scans domain.ScanRepository
	log   *logrus.Logger
}

func NewJobService(jobs domain.JobRepository, scans domain.ScanRepository, log *logrus.Logger) *JobService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &JobService{jobs: jobs, scans: scans, log: log}
}

// List returns the owner's jobs newest first with counts recomputed from scans.
func (s *JobService) List(ctx context.Context, owner string) ([]domain.JobSummary, error) {
	jobs, err := s.jobs.ListJobs(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return []domain.JobSummary{}, nil
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	scans, err := s.scans.ListScansForJobs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return domain.Aggregate(jobs, scans), nil
}

func (s *JobService) Get(ctx context.Context, owner, id string) (domain.JobSummary, error) {
	job, err := s.jobs.GetJob(ctx, owner, id)
	if err != nil {
		return domain.JobSummary{}, err
	}
	scans, err := s.scans.ListScansForJobs(ctx, []string{job.ID})
	if err != nil {
		return domain.JobSummary{}, err
	}
	return domain.Aggregate([]domain.Job{job}, scans)[0], nil
}

func (s *JobService) Create(ctx context.Context, owner string, in JobInput) (domain.Job, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Job{}, domain.MissingFields("title")
	}

	status := in.Status
	if status == "" {
		status = domain.JobActive
	}
	if !status.Valid() {
		return domain.Job{}, domain.Invalid("status", fmt.Sprintf("invalid job status %q", in.Status))
	}

	if err := s.ensureTitleFree(ctx, owner, title, ""); err != nil {
		return domain.Job{}, err
	}

	now := time.Now().UTC()
	job := domain.Job{
		ID:          uuid.NewString(),
		Owner:       owner,
		Title:       title,
		Department:  strings.TrimSpace(in.Department),
		Description: in.Description,
		Status:      status,
		Skills:      cleanSkills(in.Skills),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.jobs.CreateJob(ctx, &job); err != nil {
		return domain.Job{}, err
	}

	s.log.WithFields(logrus.Fields{"job_id": job.ID, "owner": owner, "title": title}).Info("job created")
	return job, nil
}

func (s *JobService) Update(ctx context.Context, owner, id string, patch domain.JobPatch) (domain.Job, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return domain.Job{}, domain.Invalid("title", "title cannot be empty")
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Job{}, domain.Invalid("status", fmt.Sprintf("invalid job status %q", *patch.Status))
	}
	if patch.Skills != nil {
		skills := []string(cleanSkills(*patch.Skills))
		patch.Skills = &skills
	}

	if patch.Empty() {
		return s.jobs.GetJob(ctx, owner, id)
	}
	if patch.Title != nil {
		if err := s.ensureTitleFree(ctx, owner, *patch.Title, id); err != nil {
			return domain.Job{}, err
		}
	}
	return s.jobs.UpdateJob(ctx, owner, id, patch)
}

// Delete removes the job together with its scans.
func (s *JobService) Delete(ctx context.Context, owner, id string) error {
	if err := s.jobs.DeleteJob(ctx, owner, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"job_id": id, "owner": owner}).Info("job deleted with its scans")
	return nil
}

func (s *JobService) ensureTitleFree(ctx context.Context, owner, title, exceptID string) error {
	existing, err := s.jobs.FindJobByTitle(ctx, owner, title)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == exceptID:
		return nil
	default:
		return fmt.Errorf("job titled %q %w", title, domain.ErrConflict)
	}
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		if trimmed := strings.TrimSpace(skill); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
