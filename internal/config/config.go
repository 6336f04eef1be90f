package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"project-status-tracker/internal/domain"
)

const (
	defaultHTTPPort        = "8080"
	defaultTemporalAddress = "localhost:7233"
	defaultTemporalNS      = "default"
	defaultTaskQueue       = "project-upload-task-queue"
	defaultMinioBucket     = "project-documents"
	defaultMigrationsDir   = "db/migrations"
	defaultCacheTTL        = 5 * time.Minute
	defaultMaxUploadBytes  = 10 * 1024 * 1024
)

type Config struct {
	HTTPPort      string
	PostgresDSN   string
	MigrationsDir string

	TemporalAddress   string
	TemporalNamespace string
	TemporalTaskQueue string
	WorkflowIDPrefix  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	// CacheTTL of 0 turns the read cache off.
	CacheTTL      time.Duration

	WorkflowModel domain.WorkflowModel
	CatalogFile   string

	FaultAddDocumentRate   float64
	FaultUpdateProjectRate float64
	FaultSeed              int64

	AllowedUploadBytes int64
	CORSAllowedOrigins []string

	LogFile  string
	LogLevel slog.Level
}

// Load reads the environment. Unset backends fall back to in-process
// implementations: no POSTGRES_DSN means the memory store, no
// REDIS_ADDRESS means the memory cache, no MINIO_ENDPOINT means file bytes
// are not kept.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      getenv("HTTP_PORT", defaultHTTPPort),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		MigrationsDir: getenv("MIGRATIONS_DIR", defaultMigrationsDir),

		TemporalAddress:   getenv("TEMPORAL_ADDRESS", defaultTemporalAddress),
		TemporalNamespace: getenv("TEMPORAL_NAMESPACE", defaultTemporalNS),
		TemporalTaskQueue: getenv("TEMPORAL_TASK_QUEUE", defaultTaskQueue),
		WorkflowIDPrefix:  getenv("WORKFLOW_ID_PREFIX", "project-upload"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", defaultMinioBucket),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		CacheTTL:      getenvDuration("CACHE_TTL", defaultCacheTTL),

		WorkflowModel: domain.WorkflowModel(getenv("WORKFLOW_MODEL", string(domain.ModelLadder))),
		CatalogFile:   os.Getenv("CATALOG_FILE"),

		FaultAddDocumentRate:   getenvFloat("FAULT_ADD_DOCUMENT_RATE", 0),
		FaultUpdateProjectRate: getenvFloat("FAULT_UPDATE_PROJECT_RATE", 0),
		FaultSeed:              int64(getenvInt("FAULT_SEED", 1)),

		AllowedUploadBytes: int64(getenvInt("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),

		LogFile: os.Getenv("LOG_FILE"),
	}

	level, err := ParseLogLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var failed []error
	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port < 1 || port > 65535 {
		failed = append(failed, fmt.Errorf("HTTP_PORT: invalid port %q", c.HTTPPort))
	}
	if _, ok := domain.ParseWorkflowModel(string(c.WorkflowModel)); !ok {
		failed = append(failed, fmt.Errorf("WORKFLOW_MODEL: must be %q or %q, got %q", domain.ModelLadder, domain.ModelLifecycle, c.WorkflowModel))
	}
	if c.FaultAddDocumentRate < 0 || c.FaultAddDocumentRate > 1 {
		failed = append(failed, fmt.Errorf("FAULT_ADD_DOCUMENT_RATE: must be within [0,1], got %v", c.FaultAddDocumentRate))
	}
	if c.FaultUpdateProjectRate < 0 || c.FaultUpdateProjectRate > 1 {
		failed = append(failed, fmt.Errorf("FAULT_UPDATE_PROJECT_RATE: must be within [0,1], got %v", c.FaultUpdateProjectRate))
	}
	if c.AllowedUploadBytes <= 0 {
		failed = append(failed, fmt.Errorf("MAX_UPLOAD_BYTES: must be positive, got %d", c.AllowedUploadBytes))
	}
	if c.CacheTTL < 0 {
		failed = append(failed, fmt.Errorf("CACHE_TTL: must not be negative, got %s", c.CacheTTL))
	}
	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		failed = append(failed, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required with MINIO_ENDPOINT"))
	}
	return errors.Join(failed...)
}

// FaultsEnabled reports whether any injected failure rate is set.
func (c Config) FaultsEnabled() bool {
	return c.FaultAddDocumentRate > 0 || c.FaultUpdateProjectRate > 0
}

func getenv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
