package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"resume-screener/domain"
)

// UploadsRoute is where LocalStorage files are served by the HTTP layer.
const UploadsRoute = "/uploads"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectKey prefixes the sanitized base name with a millisecond timestamp and a
// random tag, so uploads of the same name in the same millisecond get distinct
// keys and keys cannot be guessed from the file name.
func objectKey(name string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], base)
}

// LocalStorage writes uploads under Root and serves them from UploadsRoute.
type LocalStorage struct {
	Root    string
	BaseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStorage{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *LocalStorage) Save(_ context.Context, name string, r io.Reader, _ string) (domain.StoredFile, error) {
	key := objectKey(name, time.Now())
	abs := filepath.Join(l.Root, key)

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(abs)
		return domain.StoredFile{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return domain.StoredFile{}, fmt.Errorf("close %s: %w", key, err)
	}

	return domain.StoredFile{Key: key, URL: l.BaseURL + UploadsRoute + "/" + key}, nil
}

// S3Storage puts uploads in an S3 compatible bucket such as Cloudflare R2.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{client: client, bucket: cfg.S3Bucket, publicURL: cfg.S3PublicURL}, nil
}

func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader, contentType string) (domain.StoredFile, error) {
	key := "resumes/" + objectKey(name, time.Now())

	body, err := io.ReadAll(r)
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("read upload: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to put object: %w", err)
	}

	stored := domain.StoredFile{Key: key}
	if s.publicURL != "" {
		stored.URL = s.publicURL + "/" + key
	}
	return stored, nil
}

// NewFileStorage returns the backend selected by STORAGE_DRIVER.
func NewFileStorage(ctx context.Context, cfg Config) (domain.FileStorage, error) {
	switch cfg.StorageDriver {
	case StorageS3:
		s, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StorageLocal:
		l, err := NewLocalStorage(cfg.UploadsDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unknown STORAGE_DRIVER %q", domain.ErrConfiguration, cfg.StorageDriver)
	}
}
