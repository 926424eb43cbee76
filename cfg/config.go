package cfg

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ObservabilityConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Enabled      bool
}

// SupplierConfig is one static supplier entry. It is the fallback source
// the registry uses when no persisted suppliers are usable.
type SupplierConfig struct {
	Driver       string
	BaseURL      string
	APIKey       string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// MergeConfig controls the dedupe/sort/limit stage applied to the
// combined supplier results.
type MergeConfig struct {
	Deduplicate   bool
	SortBy        string
	SortDirection string
	MaxResults    int
}

type Config struct {
	AppEnv          string
	AppPort         string
	RedisConfig     RedisConfig
	Postgres        PostgresConfig
	Observability   ObservabilityConfig
	Suppliers       map[string]SupplierConfig
	DefaultSupplier string
	ParallelSearch  bool
	SupplierTimeout time.Duration
	Merge           MergeConfig
	CacheTTLMinutes int
}

func Load() (*Config, error) {
	var errs []error

	if err := godotenv.Load(); err != nil {
		return nil, errors.New("failed load cfg: " + err.Error())
	}

	appEnv := mustEnv("APP_ENV", &errs)
	appPort := mustEnv("APP_PORT", &errs)

	redisHost := mustEnv("REDIS_HOST", &errs)
	redisPort := mustEnv("REDIS_PORT", &errs)
	redisPassword := os.Getenv("REDIS_PASSWORD")

	pgHost := mustEnv("POSTGRES_HOST", &errs)
	pgPort := mustEnv("POSTGRES_PORT", &errs)
	pgUser := mustEnv("POSTGRES_USER", &errs)
	pgPassword := mustEnv("POSTGRES_PASSWORD", &errs)
	pgDBName := mustEnv("POSTGRES_DB", &errs)
	pgSSLMode := envOr("POSTGRES_SSLMODE", "disable")

	cacheTTLMinutes, err := strconv.Atoi(envOr("CACHE_TTL_MINUTES", "10"))
	if err != nil {
		errs = append(errs, errors.New("conversion failed env: CACHE_TTL_MINUTES"))
	}

	supplierTimeout, err := time.ParseDuration(envOr("SUPPLIER_TIMEOUT", "8s"))
	if err != nil {
		errs = append(errs, errors.New("conversion failed env: SUPPLIER_TIMEOUT"))
	}

	maxResults, err := strconv.Atoi(envOr("MERGE_MAX_RESULTS", "100"))
	if err != nil {
		errs = append(errs, errors.New("conversion failed env: MERGE_MAX_RESULTS"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:  appEnv,
		AppPort: appPort,
		RedisConfig: RedisConfig{
			Host:     redisHost,
			Port:     redisPort,
			Password: redisPassword,
		},
		Postgres: PostgresConfig{
			Host:     pgHost,
			Port:     pgPort,
			User:     pgUser,
			Password: pgPassword,
			DBName:   pgDBName,
			SSLMode:  pgSSLMode,
		},
		Observability: ObservabilityConfig{
			ServiceName:  envOr("OTEL_SERVICE_NAME", "farehub"),
			OTLPEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Enabled:      boolEnv("OTEL_ENABLED", false),
		},
		Suppliers: map[string]SupplierConfig{
			"kestrel": {
				Driver:  "kestrel",
				BaseURL: os.Getenv("KESTREL_BASE_URL"),
				APIKey:  os.Getenv("KESTREL_API_KEY"),
			},
			"voyagea": {
				Driver:       "voyagea",
				BaseURL:      os.Getenv("VOYAGEA_BASE_URL"),
				ClientID:     os.Getenv("VOYAGEA_CLIENT_ID"),
				ClientSecret: os.Getenv("VOYAGEA_CLIENT_SECRET"),
				TokenURL:     os.Getenv("VOYAGEA_TOKEN_URL"),
			},
		},
		DefaultSupplier: envOr("DEFAULT_SUPPLIER", "kestrel"),
		ParallelSearch:  boolEnv("PARALLEL_SEARCH", true),
		SupplierTimeout: supplierTimeout,
		Merge: MergeConfig{
			Deduplicate:   boolEnv("MERGE_DEDUPLICATE", true),
			SortBy:        envOr("MERGE_SORT_BY", "price"),
			SortDirection: envOr("MERGE_SORT_DIRECTION", "asc"),
			MaxResults:    maxResults,
		},
		CacheTTLMinutes: cacheTTLMinutes,
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value == "1" || value == "true" || value == "yes"
}
