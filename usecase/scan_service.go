package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"resume-screener/domain"
)

// RecentScansLimit caps the dashboard listing. Callers that need every scan of
// a job use ListByJob.
const RecentScansLimit = 50

type ScanExporter interface {
	Export(w io.Writer, scans []domain.Scan) error
}

type ScanDeps struct {
	Jobs      domain.JobRepository
	Scans     domain.ScanRepository
	Users     domain.UserRepository
	Files     domain.FileStorage
	Scorer    Scorer
	Extractor domain.TextExtractor
	Events    domain.EventPublisher
	Exporter  ScanExporter
	Flow      domain.ScanFlow
	// DefaultStrictness applies when neither the request nor the user's settings carry one.
	DefaultStrictness int
	Log               *logrus.Logger
}

// ScanService runs the upload → score → persist workflow and later status changes.
type ScanService struct {
	deps ScanDeps
}

func NewScanService(deps ScanDeps) *ScanService {
	if deps.Flow == "" {
		deps.Flow = domain.FlowReview
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	return &ScanService{deps: deps}
}

type SubmitInput struct {
	Owner      string
	File       *domain.Upload
	ResumeText string
	JobTitle   string
	// Strictness and APIKey are per-request overrides.
	Strictness *int
	APIKey     string
}

// Submit stores the file, scores the resume and persists a scan. Nothing is
// persisted unless scoring reached the model; the uploaded file may remain.
func (s *ScanService) Submit(ctx context.Context, in SubmitInput) (domain.Scan, error) {
	var missing []string
	if in.File == nil || in.File.Filename == "" || len(in.File.Content) == 0 {
		missing = append(missing, "file")
	}
	if strings.TrimSpace(in.ResumeText) == "" {
		missing = append(missing, "text")
	}
	if strings.TrimSpace(in.JobTitle) == "" {
		missing = append(missing, "jobTitle")
	}
	if len(missing) > 0 {
		return domain.Scan{}, domain.MissingFields(missing...)
	}

	job, err := s.deps.Jobs.FindJobByTitle(ctx, in.Owner, strings.TrimSpace(in.JobTitle))
	if err != nil {
		return domain.Scan{}, err
	}

	strictness, apiKey, model := s.resolveSettings(ctx, in)

	stored, err := s.deps.Files.Save(ctx, in.File.Filename, bytes.NewReader(in.File.Content), in.File.ContentType)
	if err != nil {
		return domain.Scan{}, fmt.Errorf("store upload: %w", err)
	}

	verdict, err := s.deps.Scorer.Score(ctx, ScoreRequest{
		ResumeText:     in.ResumeText,
		JobTitle:       job.Title,
		JobDescription: job.Description,
		Strictness:     strictness,
		APIKey:         apiKey,
		Model:          model,
	})
	if err != nil {
		return domain.Scan{}, err
	}

	now := time.Now().UTC()
	scan := domain.Scan{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		Owner:         in.Owner,
		Filename:      in.File.Filename,
		FileURL:       stored.URL,
		FileKey:       stored.Key,
		CandidateName: verdict.CandidateName,
		Score:         verdict.Score,
		Status:        s.deps.Flow.InitialStatus(verdict),
		Summary:       verdict.Summary,
		Category:      job.Title,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.deps.Scans.CreateScan(ctx, &scan); err != nil {
		return domain.Scan{}, fmt.Errorf("persist scan: %w", err)
	}

	s.deps.Log.WithFields(logrus.Fields{
		"scan_id": scan.ID,
		"job_id":  job.ID,
		"owner":   in.Owner,
		"score":   scan.Score,
		"status":  scan.Status,
	}).Info("scan created")
	s.publish(ctx, domain.EventScanCreated, scan)

	return scan, nil
}

// resolveSettings picks strictness, key and model: request first, then the
// user's saved settings, then process defaults.
func (s *ScanService) resolveSettings(ctx context.Context, in SubmitInput) (int, string, string) {
	strictness := s.deps.DefaultStrictness
	apiKey := in.APIKey
	var model string

	if in.Owner != "" && s.deps.Users != nil {
		user, err := s.deps.Users.GetUser(ctx, in.Owner)
		switch {
		case err == nil:
			if user.Strictness != nil {
				strictness = *user.Strictness
			}
			if apiKey == "" {
				apiKey = user.APIKey
			}
			model = user.Model
		case !errors.Is(err, domain.ErrNotFound):
			s.deps.Log.WithError(err).WithField("owner", in.Owner).Warn("could not load user settings")
		}
	}

	if in.Strictness != nil {
		strictness = *in.Strictness
	}
	return strictness, apiKey, model
}

func (s *ScanService) Get(ctx context.Context, owner, id string) (domain.Scan, error) {
	return s.deps.Scans.GetScan(ctx, owner, id)
}

// GetByFile resolves a stored upload to the scan that owns it. Uploads that no
// visible scan references are reported as not found.
func (s *ScanService) GetByFile(ctx context.Context, owner, fileKey string) (domain.Scan, error) {
	return s.deps.Scans.FindScanByFile(ctx, owner, fileKey)
}

// List returns the newest scans, capped at RecentScansLimit.
func (s *ScanService) List(ctx context.Context, owner string) ([]domain.Scan, error) {
	return s.deps.Scans.ListScans(ctx, owner, RecentScansLimit)
}

// ListByJob returns every scan of a job the owner can see.
func (s *ScanService) ListByJob(ctx context.Context, owner, jobID string) ([]domain.Scan, error) {
	if _, err := s.deps.Jobs.GetJob(ctx, owner, jobID); err != nil {
		return nil, err
	}
	return s.deps.Scans.ListScansByJob(ctx, owner, jobID)
}

// ListAll is the uncapped listing used by exports. An empty jobID means every job.
func (s *ScanService) ListAll(ctx context.Context, owner, jobID string) ([]domain.Scan, error) {
	if jobID != "" {
		return s.ListByJob(ctx, owner, jobID)
	}
	return s.deps.Scans.ListScans(ctx, owner, 0)
}

// Export writes every matching scan to w in the exporter's format.
func (s *ScanService) Export(ctx context.Context, owner, jobID string, w io.Writer) (int, error) {
	if s.deps.Exporter == nil {
		return 0, fmt.Errorf("%w: export disabled", domain.ErrConfiguration)
	}
	scans, err := s.ListAll(ctx, owner, jobID)
	if err != nil {
		return 0, err
	}
	if err := s.deps.Exporter.Export(w, scans); err != nil {
		return 0, fmt.Errorf("export scans: %w", err)
	}
	return len(scans), nil
}

// UpdateStatus sets a scan's status. Setting the current value again is a no-op.
func (s *ScanService) UpdateStatus(ctx context.Context, owner, id, raw string) (domain.Scan, error) {
	status, err := domain.ParseScanStatus(raw)
	if err != nil {
		return domain.Scan{}, err
	}

	current, err := s.deps.Scans.GetScan(ctx, owner, id)
	if err != nil {
		return domain.Scan{}, err
	}
	if current.Status == status {
		return current, nil
	}

	updated, err := s.deps.Scans.UpdateScanStatus(ctx, owner, id, status)
	if err != nil {
		return domain.Scan{}, err
	}

	s.deps.Log.WithFields(logrus.Fields{
		"scan_id": id,
		"from":    current.Status,
		"to":      status,
	}).Info("scan status changed")
	s.publish(ctx, domain.EventScanStatusChanged, updated)

	return updated, nil
}

func (s *ScanService) Delete(ctx context.Context, owner, id string) error {
	scan, err := s.deps.Scans.GetScan(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.deps.Scans.DeleteScan(ctx, owner, id); err != nil {
		return err
	}
	s.publish(ctx, domain.EventScanDeleted, scan)
	return nil
}

// ExtractText turns an uploaded document into plain text for clients that
// cannot do it themselves.
func (s *ScanService) ExtractText(_ context.Context, upload domain.Upload) (string, error) {
	if upload.Filename == "" || len(upload.Content) == 0 {
		return "", domain.MissingFields("file")
	}
	if s.deps.Extractor == nil {
		return "", fmt.Errorf("%w: text extraction disabled", domain.ErrConfiguration)
	}
	return s.deps.Extractor.Extract(upload.Filename, upload.Content)
}

func (s *ScanService) publish(ctx context.Context, eventType string, scan domain.Scan) {
	if s.deps.Events == nil {
		return
	}
	event := domain.ScanEvent{
		Type:      eventType,
		ScanID:    scan.ID,
		JobID:     scan.JobID,
		Owner:     scan.Owner,
		Status:    scan.Status,
		Score:     scan.Score,
		Timestamp: time.Now().UTC(),
	}
	if err := s.deps.Events.Publish(ctx, event); err != nil {
		s.deps.Log.WithError(err).WithFields(logrus.Fields{
			"event":   eventType,
			"scan_id": scan.ID,
		}).Warn("failed to publish scan event")
	}
}
