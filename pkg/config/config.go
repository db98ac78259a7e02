package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the screener
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Database (optional: persistence is skipped when URL is empty)
	Database DatabaseConfig

	// Redis (run lock + last-run summary)
	Redis RedisConfig

	// Remote scanner + pipeline
	Screener ScreenerConfig

	// Cron
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	Metrics MetricsConfig
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Configured reports whether a destination connection string is set
func (d DatabaseConfig) Configured() bool {
	return strings.TrimSpace(d.URL) != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string
}

// ScreenerConfig holds remote scanner and persistence policy settings
type ScreenerConfig struct {
	BaseURL        string
	Limit          int
	Timeout        time.Duration
	RatePerSec     float64
	ConflictPolicy string // overwrite | skip
	Retention      time.Duration
	StrategyFile   string // optional YAML catalog override
}

// SchedulerConfig holds the cron expression for the scan job
type SchedulerConfig struct {
	ScanCron string
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Port    string
}

// Conflict policies accepted by SCREENER_CONFLICT_POLICY
const (
	PolicyOverwrite = "overwrite"
	PolicySkip      = "skip"
)

// MaxScreenerLimit is the hard per-query row cap of the scanner
const MaxScreenerLimit = 100

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_PREFIX", "screener"),
		},

		Screener: ScreenerConfig{
			BaseURL:        getEnv("SCREENER_BASE_URL", "https://scanner.tradingview.com"),
			Limit:          getEnvAsInt("SCREENER_LIMIT", 100),
			Timeout:        getEnvAsDuration("SCREENER_TIMEOUT", "30s"),
			RatePerSec:     getEnvAsFloat("SCREENER_RATE_PER_SEC", 2),
			ConflictPolicy: strings.ToLower(getEnv("SCREENER_CONFLICT_POLICY", PolicyOverwrite)),
			Retention:      getEnvAsDuration("SCREENER_RETENTION", "24h"),
			StrategyFile:   getEnv("SCREENER_STRATEGY_FILE", ""),
		},

		Scheduler: SchedulerConfig{
			// 미국장 마감 후 (UTC 21:30, 평일)
			ScanCron: getEnv("SCHEDULE_CRON", "0 30 21 * * 1-5"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", false),
			Port:    getEnv("METRICS_PORT", "9090"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration values that would make a run meaningless.
// A missing DATABASE_URL is deliberately not an error here.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screener.ConflictPolicy != PolicyOverwrite && c.Screener.ConflictPolicy != PolicySkip {
		return fmt.Errorf("SCREENER_CONFLICT_POLICY must be one of: %s, %s", PolicyOverwrite, PolicySkip)
	}

	if c.Screener.Limit <= 0 || c.Screener.Limit > MaxScreenerLimit {
		return fmt.Errorf("SCREENER_LIMIT must be between 1 and %d, got %d", MaxScreenerLimit, c.Screener.Limit)
	}

	if c.Screener.Retention <= 0 {
		return fmt.Errorf("SCREENER_RETENTION must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
