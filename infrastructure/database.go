package infrastructure

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resume-screener/domain"
)

// OpenDatabase connects to the relational backend named by cfg.DBDriver,
// migrates the schema and optionally seeds demo jobs. The returned pool is
// shared by every request.
func OpenDatabase(cfg Config, log *logrus.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DBDSN)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DBDSN)
	case DriverPostgres:
		conn, err := sql.Open("postgres", cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		dialector = postgres.New(postgres.Config{Conn: conn})
	default:
		return nil, fmt.Errorf("%w: %q is not a relational driver", domain.ErrConfiguration, cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == DriverSQLite {
		// sqlite allows a single writer; one connection also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.DBSeed {
		if err := seedJobs(db, cfg.DBSeedOwner, log); err != nil {
			return nil, err
		}
	}

	log.WithField("driver", cfg.DBDriver).Info("database connected and migrated")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Job{}, &domain.Scan{}, &domain.User{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// seedJobs inserts demo postings for owner when it has none yet.
func seedJobs(db *gorm.DB, owner string, log *logrus.Logger) error {
	var count int64
	if err := db.Model(&domain.Job{}).Where("owner = ?", owner).Count(&count).Error; err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	jobs := []domain.Job{
		{
			ID:         uuid.NewString(),
			Owner:      owner,
			Title:      "Backend Engineer",
			Department: "Engineering",
			Description: "Product engineer focused on Go, relational databases, message queues and " +
				"LLM integration. Experience with RESTful APIs, cloud deployments and building " +
				"scalable backend systems is required.",
			Status:    domain.JobActive,
			Skills:    []string{"Go", "MySQL", "RabbitMQ", "REST"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.NewString(),
			Owner:       owner,
			Title:       "Product Designer",
			Department:  "Design",
			Description: "Designer owning end-to-end flows for a hiring dashboard, from research to high fidelity prototypes.",
			Status:      domain.JobActive,
			Skills:      []string{"Figma", "User Research", "Prototyping"},
			CreatedAt:   now.Add(time.Second),
			UpdatedAt:   now.Add(time.Second),
		},
	}

	if err := db.Create(&jobs).Error; err != nil {
		return fmt.Errorf("seed jobs: %w", err)
	}
	log.WithFields(logrus.Fields{"owner": owner, "count": len(jobs)}).Info("seeded demo jobs")
	return nil
}
