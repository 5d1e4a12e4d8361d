package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resume-screener/domain"
)

const (
	jobsCollection  = "jobs"
	scansCollection = "scans"
	usersCollection = "users"
)

// MongoStore keeps jobs, scans and user profiles in MongoDB collections.
type MongoStore struct {
	client *mongo.Client
	jobs   *mongo.Collection
	scans  *mongo.Collection
	users  *mongo.Collection
}

func OpenMongoStore(ctx context.Context, cfg Config, log *logrus.Logger) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.DBDSN).
		SetMaxPoolSize(25).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	store := &MongoStore{
		client: client,
		jobs:   db.Collection(jobsCollection),
		scans:  db.Collection(scansCollection),
		users:  db.Collection(usersCollection),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.WithField("database", cfg.MongoDatabase).Info("mongo connected")
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create job indexes: %w", err)
	}
	_, err = s.scans.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "jobId", Value: 1}}},
		{Keys: bson.D{{Key: "fileKey", Value: 1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create scan indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func ownerFilter(owner string, extra bson.D) bson.D {
	if owner == "" {
		return extra
	}
	return append(bson.D{{Key: "owner", Value: owner}}, extra...)
}

func mongoErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s %w", what, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func (s *MongoStore) CreateJob(ctx context.Context, job *domain.Job) error {
	_, err := s.jobs.InsertOne(ctx, job)
	return mongoErr(err, "job")
}

func (s *MongoStore) GetJob(ctx context.Context, owner, id string) (domain.Job, error) {
	var job domain.Job
	err := s.jobs.FindOne(ctx, ownerFilter(owner, bson.D{{Key: "_id", Value: id}})).Decode(&job)
	return job, mongoErr(err, "job")
}

func (s *MongoStore) FindJobByTitle(ctx context.Context, owner, title string) (domain.Job, error) {
	var job domain.Job
	err := s.jobs.FindOne(ctx, ownerFilter(owner, bson.D{{Key: "title", Value: title}})).Decode(&job)
	return job, mongoErr(err, "job")
}

func (s *MongoStore) ListJobs(ctx context.Context, owner string) ([]domain.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.jobs.Find(ctx, ownerFilter(owner, bson.D{}), opts)
	if err != nil {
		return nil, mongoErr(err, "jobs")
	}
	jobs := []domain.Job{}
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, mongoErr(err, "jobs")
	}
	return jobs, nil
}

func (s *MongoStore) UpdateJob(ctx context.Context, owner, id string, patch domain.JobPatch) (domain.Job, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Department != nil {
		set = append(set, bson.E{Key: "department", Value: *patch.Department})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *patch.Status})
	}
	if patch.Skills != nil {
		set = append(set, bson.E{Key: "skills", Value: *patch.Skills})
	}

	var job domain.Job
	err := s.jobs.FindOneAndUpdate(ctx,
		ownerFilter(owner, bson.D{{Key: "_id", Value: id}}),
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&job)
	return job, mongoErr(err, "job")
}

// DeleteJob removes the job and then its scans. Without a replica set there is
// no transaction, so scans are removed only after the job is gone.
func (s *MongoStore) DeleteJob(ctx context.Context, owner, id string) error {
	res, err := s.jobs.DeleteOne(ctx, ownerFilter(owner, bson.D{{Key: "_id", Value: id}}))
	if err != nil {
		return mongoErr(err, "job")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("job %w", domain.ErrNotFound)
	}
	if _, err := s.scans.DeleteMany(ctx, bson.D{{Key: "jobId", Value: id}}); err != nil {
		return mongoErr(err, "scans")
	}
	return nil
}

func (s *MongoStore) CreateScan(ctx context.Context, scan *domain.Scan) error {
	_, err := s.scans.InsertOne(ctx, scan)
	return mongoErr(err, "scan")
}

func (s *MongoStore) GetScan(ctx context.Context, owner, id string) (domain.Scan, error) {
	var scan domain.Scan
	err := s.scans.FindOne(ctx, ownerFilter(owner, bson.D{{Key: "_id", Value: id}})).Decode(&scan)
	return scan, mongoErr(err, "scan")
}

func (s *MongoStore) FindScanByFile(ctx context.Context, owner, fileKey string) (domain.Scan, error) {
	var scan domain.Scan
	if fileKey == "" {
		return scan, fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	err := s.scans.FindOne(ctx, ownerFilter(owner, bson.D{{Key: "fileKey", Value: fileKey}})).Decode(&scan)
	return scan, mongoErr(err, "scan")
}

func (s *MongoStore) findScans(ctx context.Context, filter bson.D, limit int) ([]domain.Scan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.scans.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoErr(err, "scans")
	}
	scans := []domain.Scan{}
	if err := cur.All(ctx, &scans); err != nil {
		return nil, mongoErr(err, "scans")
	}
	return scans, nil
}

func (s *MongoStore) ListScans(ctx context.Context, owner string, limit int) ([]domain.Scan, error) {
	return s.findScans(ctx, ownerFilter(owner, bson.D{}), limit)
}

func (s *MongoStore) ListScansByJob(ctx context.Context, owner, jobID string) ([]domain.Scan, error) {
	return s.findScans(ctx, ownerFilter(owner, bson.D{{Key: "jobId", Value: jobID}}), 0)
}

func (s *MongoStore) ListScansForJobs(ctx context.Context, jobIDs []string) ([]domain.Scan, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	return s.findScans(ctx, bson.D{{Key: "jobId", Value: bson.D{{Key: "$in", Value: jobIDs}}}}, 0)
}

func (s *MongoStore) UpdateScanStatus(ctx context.Context, owner, id string, status domain.ScanStatus) (domain.Scan, error) {
	var scan domain.Scan
	err := s.scans.FindOneAndUpdate(ctx,
		ownerFilter(owner, bson.D{{Key: "_id", Value: id}}),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&scan)
	return scan, mongoErr(err, "scan")
}

func (s *MongoStore) DeleteScan(ctx context.Context, owner, id string) error {
	res, err := s.scans.DeleteOne(ctx, ownerFilter(owner, bson.D{{Key: "_id", Value: id}}))
	if err != nil {
		return mongoErr(err, "scan")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("scan %w", domain.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	return user, mongoErr(err, "user")
}

func (s *MongoStore) SaveProfile(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.JobTitle != nil {
		set = append(set, bson.E{Key: "jobTitle", Value: *patch.JobTitle})
	}
	if patch.AvatarURL != nil {
		set = append(set, bson.E{Key: "avatarUrl", Value: *patch.AvatarURL})
	}
	return s.upsertUser(ctx, id, set)
}

func (s *MongoStore) SaveSettings(ctx context.Context, id string, patch domain.SettingsPatch) (domain.User, error) {
	set := bson.D{}
	if patch.APIKey != nil {
		set = append(set, bson.E{Key: "apiKey", Value: *patch.APIKey})
	}
	if patch.Model != nil {
		set = append(set, bson.E{Key: "model", Value: *patch.Model})
	}
	if patch.Strictness != nil {
		set = append(set, bson.E{Key: "strictness", Value: *patch.Strictness})
	}
	return s.upsertUser(ctx, id, set)
}

func (s *MongoStore) upsertUser(ctx context.Context, id string, set bson.D) (domain.User, error) {
	now := time.Now().UTC()
	set = append(set, bson.E{Key: "updatedAt", Value: now})

	var user domain.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$set", Value: set},
			{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&user)
	return user, mongoErr(err, "user")
}
