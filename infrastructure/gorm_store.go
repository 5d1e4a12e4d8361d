package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resume-screener/domain"
)

// GormStore keeps jobs, scans and user profiles in a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ownedBy restricts a query to one owner. Without an owner nothing is filtered.
func ownedBy(owner string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner == "" {
			return db
		}
		return db.Where("owner = ?", owner)
	}
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %w", what, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func (s *GormStore) CreateJob(ctx context.Context, job *domain.Job) error {
	return translate(s.db.WithContext(ctx).Create(job).Error, "job")
}

func (s *GormStore) GetJob(ctx context.Context, owner, id string) (domain.Job, error) {
	var job domain.Job
	err := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Where("id = ?", id).First(&job).Error
	return job, translate(err, "job")
}

func (s *GormStore) FindJobByTitle(ctx context.Context, owner, title string) (domain.Job, error) {
	var job domain.Job
	err := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Where("title = ?", title).First(&job).Error
	return job, translate(err, "job")
}

func (s *GormStore) ListJobs(ctx context.Context, owner string) ([]domain.Job, error) {
	var jobs []domain.Job
	err := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Order("created_at DESC").Find(&jobs).Error
	if err != nil {
		return nil, translate(err, "jobs")
	}
	return jobs, nil
}

func (s *GormStore) UpdateJob(ctx context.Context, owner, id string, patch domain.JobPatch) (domain.Job, error) {
	var job domain.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(ownedBy(owner)).Where("id = ?", id).First(&job).Error; err != nil {
			return err
		}

		updates := map[string]any{"updated_at": time.Now().UTC()}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Department != nil {
			updates["department"] = *patch.Department
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Status != nil {
			updates["status"] = *patch.Status
		}
		if patch.Skills != nil {
			updates["skills"] = datatypes.JSONSlice[string](*patch.Skills)
		}

		if err := tx.Model(&domain.Job{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", job.ID).First(&job).Error
	})
	if err != nil {
		return domain.Job{}, translate(err, "job")
	}
	return job, nil
}

// DeleteJob removes the job and its scans in one transaction.
func (s *GormStore) DeleteJob(ctx context.Context, owner, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		if err := tx.Scopes(ownedBy(owner)).Where("id = ?", id).First(&job).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", job.ID).Delete(&domain.Scan{}).Error; err != nil {
			return err
		}
		return tx.Delete(&job).Error
	})
	return translate(err, "job")
}

func (s *GormStore) CreateScan(ctx context.Context, scan *domain.Scan) error {
	return translate(s.db.WithContext(ctx).Create(scan).Error, "scan")
}

func (s *GormStore) GetScan(ctx context.Context, owner, id string) (domain.Scan, error) {
	var scan domain.Scan
	err := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Where("id = ?", id).First(&scan).Error
	return scan, translate(err, "scan")
}

func (s *GormStore) ListScans(ctx context.Context, owner string, limit int) ([]domain.Scan, error) {
	query := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var scans []domain.Scan
	if err := query.Find(&scans).Error; err != nil {
		return nil, translate(err, "scans")
	}
	return scans, nil
}

func (s *GormStore) ListScansByJob(ctx context.Context, owner, jobID string) ([]domain.Scan, error) {
	var scans []domain.Scan
	err := s.db.WithContext(ctx).Scopes(ownedBy(owner)).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&scans).Error
	if err != nil {
		return nil, translate(err, "scans")
	}
	return scans, nil
}

func (s *GormStore) ListScansForJobs(ctx context.Context, jobIDs []string) ([]domain.Scan, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	var scans []domain.Scan
	if err := s.db.WithContext(ctx).Where("job_id IN ?", jobIDs).Find(&scans).Error; err != nil {
		return nil, translate(err, "scans")
	}
	return scans, nil
}

func (s *GormStore) FindScanByFile(ctx context.Context, owner, fileKey string) (domain.Scan, error) {
	var scan domain.Scan
	if fileKey == "" {
		return scan, fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	err := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Where("file_key = ?", fileKey).First(&scan).Error
	return scan, translate(err, "scan")
}

func (s *GormStore) UpdateScanStatus(ctx context.Context, owner, id string, status domain.ScanStatus) (domain.Scan, error) {
	var scan domain.Scan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(ownedBy(owner)).Where("id = ?", id).First(&scan).Error; err != nil {
			return err
		}
		scan.Status = status
		scan.UpdatedAt = time.Now().UTC()
		return tx.Model(&domain.Scan{}).Where("id = ?", scan.ID).Updates(map[string]any{
			"status":     scan.Status,
			"updated_at": scan.UpdatedAt,
		}).Error
	})
	if err != nil {
		return domain.Scan{}, translate(err, "scan")
	}
	return scan, nil
}

func (s *GormStore) DeleteScan(ctx context.Context, owner, id string) error {
	res := s.db.WithContext(ctx).Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&domain.Scan{})
	if res.Error != nil {
		return translate(res.Error, "scan")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, translate(err, "user")
}

func (s *GormStore) SaveProfile(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	return s.upsertUser(ctx, id, func(u *domain.User) {
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.JobTitle != nil {
			u.JobTitle = *patch.JobTitle
		}
		if patch.AvatarURL != nil {
			u.AvatarURL = *patch.AvatarURL
		}
	})
}

func (s *GormStore) SaveSettings(ctx context.Context, id string, patch domain.SettingsPatch) (domain.User, error) {
	return s.upsertUser(ctx, id, func(u *domain.User) {
		if patch.APIKey != nil {
			u.APIKey = *patch.APIKey
		}
		if patch.Model != nil {
			u.Model = *patch.Model
		}
		if patch.Strictness != nil {
			strictness := *patch.Strictness
			u.Strictness = &strictness
		}
	})
}

func (s *GormStore) upsertUser(ctx context.Context, id string, apply func(*domain.User)) (domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = domain.User{ID: id, CreatedAt: time.Now().UTC()}
		case err != nil:
			return err
		}
		apply(&user)
		user.UpdatedAt = time.Now().UTC()
		return tx.Save(&user).Error
	})
	if err != nil {
		return domain.User{}, translate(err, "user")
	}
	return user, nil
}
