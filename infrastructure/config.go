package infrastructure

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"resume-screener/domain"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"

	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	StorageLocal = "local"
	StorageS3    = "s3"

	AuthModeHeader = "header"
	AuthModeNone   = "none"
)

type Config struct {
	HTTPAddr    string
	MaxUploadMB int64

	DBDriver      string
	DBDSN         string
	MongoDatabase string
	DBSeed        bool
	DBSeedOwner   string

	LLMProvider   string
	LLMModel      string
	LLMAPIKey     string
	LLMBaseURL    string
	LLMTimeout    time.Duration
	GCPProject    string
	GCPLocation   string
	UnidocLicense string

	ScanFlow          domain.ScanFlow
	DefaultStrictness int

	AuthMode   string
	AuthHeader string

	StorageDriver string
	UploadsDir    string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3PublicURL   string

	RabbitMQURL      string
	RabbitMQExchange string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from any key lookup, which keeps tests off the real environment.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		HTTPAddr:         get("HTTP_ADDR", ":8080"),
		DBDriver:         strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		DBDSN:            get("DB_DSN", "resume-screener.db"),
		MongoDatabase:    get("MONGO_DATABASE", "resume_screener"),
		DBSeedOwner:      get("DB_SEED_OWNER", ""),
		LLMProvider:      strings.ToLower(get("LLM_PROVIDER", ProviderGemini)),
		LLMBaseURL:       get("LLM_BASE_URL", ""),
		GCPProject:       get("GOOGLE_CLOUD_PROJECT", ""),
		GCPLocation:      get("GOOGLE_CLOUD_LOCATION", "us-central1"),
		UnidocLicense:    get("UNIDOC_LICENSE_API_KEY", ""),
		AuthMode:         strings.ToLower(get("AUTH_MODE", AuthModeHeader)),
		AuthHeader:       get("AUTH_HEADER", "X-User-ID"),
		StorageDriver:    strings.ToLower(get("STORAGE_DRIVER", StorageLocal)),
		UploadsDir:       get("UPLOADS_DIR", "uploads"),
		PublicBaseURL:    strings.TrimRight(get("PUBLIC_BASE_URL", ""), "/"),
		S3Bucket:         get("S3_BUCKET", ""),
		S3Region:         get("S3_REGION", "auto"),
		S3Endpoint:       get("S3_ENDPOINT", ""),
		S3AccessKey:      get("S3_ACCESS_KEY", ""),
		S3SecretKey:      get("S3_SECRET_KEY", ""),
		S3PublicURL:      strings.TrimRight(get("S3_PUBLIC_URL", ""), "/"),
		RabbitMQURL:      get("RABBITMQ_URL", ""),
		RabbitMQExchange: get("RABBITMQ_EXCHANGE", "scan_events"),
		LogLevel:         get("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(get("LOG_FORMAT", "json")),
	}

	switch cfg.LLMProvider {
	case ProviderOpenAI:
		cfg.LLMModel = get("LLM_MODEL", "gpt-4o-mini")
		cfg.LLMAPIKey = get("OPENAI_API_KEY", "")
	default:
		cfg.LLMModel = get("LLM_MODEL", "gemini-2.0-flash")
		cfg.LLMAPIKey = get("GEMINI_API_KEY", "")
	}

	var err error
	if cfg.ScanFlow, err = domain.ParseScanFlow(getenv("SCAN_FLOW")); err != nil {
		return Config{}, err
	}
	if cfg.LLMTimeout, err = time.ParseDuration(get("LLM_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("LLM_TIMEOUT: %w", err)
	}
	if cfg.DefaultStrictness, err = strconv.Atoi(get("DEFAULT_STRICTNESS", strconv.Itoa(domain.DefaultStrictness))); err != nil {
		return Config{}, fmt.Errorf("DEFAULT_STRICTNESS: %w", err)
	}
	if cfg.MaxUploadMB, err = strconv.ParseInt(get("MAX_UPLOAD_MB", "10"), 10, 64); err != nil {
		return Config{}, fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}
	if cfg.DBSeed, err = strconv.ParseBool(get("DB_SEED", "false")); err != nil {
		return Config{}, fmt.Errorf("DB_SEED: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var problems []string

	switch c.DBDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres, DriverMongo:
	default:
		problems = append(problems, fmt.Sprintf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.DBDSN == "" {
		problems = append(problems, "DB_DSN is empty")
	}

	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	case ProviderVertex:
		if c.GCPProject == "" {
			problems = append(problems, "GOOGLE_CLOUD_PROJECT is required for the vertex provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.LLMTimeout <= 0 {
		problems = append(problems, "LLM_TIMEOUT must be positive")
	}

	switch c.StorageDriver {
	case StorageLocal:
	case StorageS3:
		if c.S3Bucket == "" {
			problems = append(problems, "S3_BUCKET is required for s3 storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.AuthMode {
	case AuthModeHeader:
		if c.AuthHeader == "" {
			problems = append(problems, "AUTH_HEADER is empty")
		}
	case AuthModeNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown AUTH_MODE %q", c.AuthMode))
	}

	if c.DefaultStrictness < domain.MinStrictness || c.DefaultStrictness > domain.MaxStrictness {
		problems = append(problems, "DEFAULT_STRICTNESS must be between 0 and 100")
	}
	if c.MaxUploadMB <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
