package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"resume-screener/domain"
)

type memoryStore struct {
	mu    sync.Mutex
	jobs  map[string]domain.Job
	scans map[string]domain.Scan
	users map[string]domain.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:  map[string]domain.Job{},
		scans: map[string]domain.Scan{},
		users: map[string]domain.User{},
	}
}

func visible(recordOwner, owner string) bool {
	return owner == "" || recordOwner == owner
}

func (m *memoryStore) CreateJob(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryStore) GetJob(_ context.Context, owner, id string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || !visible(job.Owner, owner) {
		return domain.Job{}, fmt.Errorf("job %w", domain.ErrNotFound)
	}
	return job, nil
}

func (m *memoryStore) FindJobByTitle(_ context.Context, owner, title string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.Title == title && visible(job.Owner, owner) {
			return job, nil
		}
	}
	return domain.Job{}, fmt.Errorf("job %w", domain.ErrNotFound)
}

func (m *memoryStore) ListJobs(_ context.Context, owner string) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Job
	for _, job := range m.jobs {
		if visible(job.Owner, owner) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) UpdateJob(_ context.Context, owner, id string, patch domain.JobPatch) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || !visible(job.Owner, owner) {
		return domain.Job{}, fmt.Errorf("job %w", domain.ErrNotFound)
	}
	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Department != nil {
		job.Department = *patch.Department
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.Skills != nil {
		job.Skills = *patch.Skills
	}
	m.jobs[id] = job
	return job, nil
}

func (m *memoryStore) DeleteJob(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || !visible(job.Owner, owner) {
		return fmt.Errorf("job %w", domain.ErrNotFound)
	}
	delete(m.jobs, id)
	for sid, scan := range m.scans {
		if scan.JobID == id {
			delete(m.scans, sid)
		}
	}
	return nil
}

func (m *memoryStore) CreateScan(_ context.Context, scan *domain.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans[scan.ID] = *scan
	return nil
}

func (m *memoryStore) GetScan(_ context.Context, owner, id string) (domain.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[id]
	if !ok || !visible(scan.Owner, owner) {
		return domain.Scan{}, fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	return scan, nil
}

func (m *memoryStore) filterScans(keep func(domain.Scan) bool, limit int) []domain.Scan {
	var out []domain.Scan
	for _, scan := range m.scans {
		if keep(scan) {
			out = append(out, scan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memoryStore) ListScans(_ context.Context, owner string, limit int) ([]domain.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterScans(func(s domain.Scan) bool { return visible(s.Owner, owner) }, limit), nil
}

func (m *memoryStore) ListScansByJob(_ context.Context, owner, jobID string) ([]domain.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterScans(func(s domain.Scan) bool { return s.JobID == jobID && visible(s.Owner, owner) }, 0), nil
}

func (m *memoryStore) ListScansForJobs(_ context.Context, jobIDs []string) ([]domain.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range jobIDs {
		wanted[id] = true
	}
	return m.filterScans(func(s domain.Scan) bool { return wanted[s.JobID] }, 0), nil
}

func (m *memoryStore) FindScanByFile(_ context.Context, owner, fileKey string) (domain.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, scan := range m.scans {
		if fileKey != "" && scan.FileKey == fileKey && visible(scan.Owner, owner) {
			return scan, nil
		}
	}
	return domain.Scan{}, fmt.Errorf("scan %w", domain.ErrNotFound)
}

func (m *memoryStore) UpdateScanStatus(_ context.Context, owner, id string, status domain.ScanStatus) (domain.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[id]
	if !ok || !visible(scan.Owner, owner) {
		return domain.Scan{}, fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	scan.Status = status
	m.scans[id] = scan
	return scan, nil
}

func (m *memoryStore) DeleteScan(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[id]
	if !ok || !visible(scan.Owner, owner) {
		return fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	delete(m.scans, id)
	return nil
}

func (m *memoryStore) GetUser(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return user, nil
}

func (m *memoryStore) SaveProfile(_ context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.users[id]
	user.ID = id
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.JobTitle != nil {
		user.JobTitle = *patch.JobTitle
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}
	m.users[id] = user
	return user, nil
}

func (m *memoryStore) SaveSettings(_ context.Context, id string, patch domain.SettingsPatch) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.users[id]
	user.ID = id
	if patch.APIKey != nil {
		user.APIKey = *patch.APIKey
	}
	if patch.Model != nil {
		user.Model = *patch.Model
	}
	if patch.Strictness != nil {
		v := *patch.Strictness
		user.Strictness = &v
	}
	m.users[id] = user
	return user, nil
}

func (m *memoryStore) scanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scans)
}

// stubGenerator returns a canned reply and records what it was asked.
type stubGenerator struct {
	mu        sync.Mutex
	reply     string
	err       error
	needsKey  bool
	calls     int
	lastReq   domain.GenerateRequest
	blockTill <-chan struct{}
}

func (g *stubGenerator) Name() string         { return "stub" }
func (g *stubGenerator) RequiresAPIKey() bool { return g.needsKey }

func (g *stubGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	g.lastReq = req
	g.mu.Unlock()

	if g.blockTill != nil {
		select {
		case <-g.blockTill:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

type memoryFiles struct {
	saved []string
	err   error
}

func (f *memoryFiles) Save(_ context.Context, name string, r io.Reader, _ string) (domain.StoredFile, error) {
	if f.err != nil {
		return domain.StoredFile{}, f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return domain.StoredFile{}, err
	}
	f.saved = append(f.saved, name)
	return domain.StoredFile{Key: name, URL: "/uploads/" + name}, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.ScanEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type stubExtractor struct {
	text string
	err  error
}

func (e stubExtractor) Extract(string, []byte) (string, error) {
	return e.text, e.err
}

type recordingExporter struct {
	scans []domain.Scan
}

func (e *recordingExporter) Export(w io.Writer, scans []domain.Scan) error {
	e.scans = scans
	_, err := io.WriteString(w, "xlsx")
	return err
}
