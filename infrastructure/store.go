package infrastructure

import (
	"context"

	"github.com/sirupsen/logrus"

	"resume-screener/domain"
)

var (
	_ domain.Store = (*GormStore)(nil)
	_ domain.Store = (*MongoStore)(nil)
)

// OpenStore opens the Candidate Store backend named by DB_DRIVER.
func OpenStore(ctx context.Context, cfg Config, log *logrus.Logger) (domain.Store, error) {
	if cfg.DBDriver == DriverMongo {
		store, err := OpenMongoStore(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db), nil
}
