package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voicehost/internal/domain"
)

const (
	BackendPostgres   = "postgres"
	BackendDynamoDB   = "dynamodb"
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
	BackendNATS       = "nats"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	DatabaseURL     string
	MetadataBackend string
	MigrateOnStart  bool
	DBMaxConns      int
	DBMinConns      int

	StorageBackend string
	StoragePath    string
	StorageBaseURL string
	StorageBucket  string
	AWSRegion      string
	S3Endpoint     string
	S3PublicURL    string
	DynamoTable    string
	NATSURL        string

	ReplicateAPIToken string
	ReplicateBaseURL  string
	ReplicateModel    string
	ProviderRetries   int
	ProviderTimeout   time.Duration

	PollInterval    time.Duration
	MaxPolls        int
	RecoveryWorkers int
	RecoveryTimeout time.Duration
	OrphanMaxTries  int

	VoicePresetsPath string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	CORSAllowedHeaders []string
}

// ResponseMargin is the time reserved to write a response after a generation
// stops.
const ResponseMargin = 5 * time.Second

// DefaultCORSAllowedHeaders are the request headers browser clients send.
var DefaultCORSAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              port,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MetadataBackend:   strings.ToLower(getEnv("METADATA_BACKEND", BackendPostgres)),
		MigrateOnStart:    getEnvBool("MIGRATE_ON_START", false),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 8),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 1),
		StorageBackend:    strings.ToLower(getEnv("STORAGE_BACKEND", BackendFilesystem)),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:    strings.TrimRight(getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"), "/"),
		StorageBucket:     getEnv("STORAGE_BUCKET", "audio-files"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3PublicURL:       strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
		DynamoTable:       getEnv("DYNAMO_TABLE_NAME", "audio_files"),
		NATSURL:           getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		ReplicateAPIToken: strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN")),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModel:    strings.TrimSpace(os.Getenv("REPLICATE_MODEL")),
		ProviderRetries:   getEnvInt("PROVIDER_MAX_RETRIES", 3),
		ProviderTimeout:   time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30)),
		PollInterval:      time.Millisecond * time.Duration(getEnvInt("PREDICTION_POLL_INTERVAL_MS", 1000)),
		MaxPolls:          getEnvInt("PREDICTION_MAX_POLLS", 300),
		RecoveryWorkers:   getEnvInt("RECOVERY_WORKERS", 8),
		RecoveryTimeout:   time.Second * time.Duration(getEnvInt("RECOVERY_TIMEOUT_SECONDS", 600)),
		OrphanMaxTries:    getEnvInt("ORPHAN_MAX_ATTEMPTS", 5),
		VoicePresetsPath:  os.Getenv("VOICE_PRESETS_PATH"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		CORSAllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", DefaultCORSAllowedHeaders),
	}

	switch cfg.MetadataBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: DATABASE_URL is required", domain.ErrConfiguration)
		}
	case BackendDynamoDB:
		if cfg.ReplicateAPIToken == "" {
			return nil, fmt.Errorf("%w: REPLICATE_API_TOKEN is required with the dynamodb backend", domain.ErrConfiguration)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported METADATA_BACKEND %q", domain.ErrConfiguration, cfg.MetadataBackend)
	}

	switch cfg.StorageBackend {
	case BackendFilesystem, BackendS3, BackendNATS:
	default:
		return nil, fmt.Errorf("%w: unsupported STORAGE_BACKEND %q", domain.ErrConfiguration, cfg.StorageBackend)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: PREDICTION_POLL_INTERVAL_MS must be positive", domain.ErrConfiguration)
	}
	if cfg.MaxPolls <= 0 {
		return nil, fmt.Errorf("%w: PREDICTION_MAX_POLLS must be positive", domain.ErrConfiguration)
	}

	// The write timeout has to outlast a full generation or the client loses
	// a response whose record was already written.
	if cfg.HTTPWriteTimeout <= 0 {
		cfg.HTTPWriteTimeout = cfg.GenerationBudget() + ResponseMargin
	}
	if floor := cfg.PollBudget() + ResponseMargin; cfg.HTTPWriteTimeout < floor {
		return nil, fmt.Errorf("%w: HTTP_WRITE_TIMEOUT_SECONDS (%s) must be at least the poll budget plus %s (%s)",
			domain.ErrConfiguration, cfg.HTTPWriteTimeout, ResponseMargin, floor)
	}

	return cfg, nil
}

// PollBudget is the longest the poll loop waits between polls.
func (c *Config) PollBudget() time.Duration {
	return time.Duration(c.MaxPolls) * c.PollInterval
}

// GenerationBudget estimates a full generation: the poll budget plus the
// submit, a final poll and the audio download at the provider timeout.
func (c *Config) GenerationBudget() time.Duration {
	return c.PollBudget() + 3*c.ProviderTimeout
}

// GenerationDeadline bounds one synchronous generation so it ends before the
// server's write timeout. Zero means no bound.
func (c *Config) GenerationDeadline() time.Duration {
	if c.HTTPWriteTimeout <= ResponseMargin {
		return 0
	}
	return c.HTTPWriteTimeout - ResponseMargin
}

// RequireProviderToken fails when no provider credential could be resolved.
func (c *Config) RequireProviderToken() error {
	if strings.TrimSpace(c.ReplicateAPIToken) == "" {
		return fmt.Errorf("%w: REPLICATE_API_TOKEN not found", domain.ErrConfiguration)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
