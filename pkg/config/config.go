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

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Store selects the TimeSeriesStore backend: "postgres" or "memory"
	Store StoreConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Analytics engine defaults
	Analytics AnalyticsConfig

	// Precompute (scheduled cache warm-up)
	Precompute PrecomputeConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig holds the store backend selection
type StoreConfig struct {
	Driver      string // postgres, memory
	FixturePath string // JSON fixture for the memory store
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// AnalyticsConfig holds defaults for the analytics entry points.
// Request values always win over these.
type AnalyticsConfig struct {
	RiskFreeRate      float64 // annual, e.g. 0.015
	DefaultUniverse   string  // TW, US
	DefaultBenchmark  string
	BoundsFile        string // optional YAML with per-universe factor bounds
	HistoryWindowDays int
	MCSimulations     int
	MCHorizonDays     int
	MCInitialCapital  float64
	FrontierPoints    int
	CacheTTL          time.Duration
}

// PrecomputeConfig holds the nightly precompute job configuration
type PrecomputeConfig struct {
	Enabled    bool
	Schedule   string   // cron expression with seconds
	Watchlist  []string // security ids
	RatePerSec float64  // computations per second
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", "postgres"),
			FixturePath: getEnv("STORE_FIXTURE_PATH", ""),
		},

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "investlab"),
			User:            getEnv("DB_USER", "investlab"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:      getEnvAsFloat("RISK_FREE_RATE", 0.015),
			DefaultUniverse:   getEnv("DEFAULT_UNIVERSE", "TW"),
			DefaultBenchmark:  getEnv("DEFAULT_BENCHMARK", "0050"),
			BoundsFile:        getEnv("FACTOR_BOUNDS_FILE", ""),
			HistoryWindowDays: getEnvAsInt("HISTORY_WINDOW_DAYS", 730),
			MCSimulations:     getEnvAsInt("MC_SIMULATIONS", 10000),
			MCHorizonDays:     getEnvAsInt("MC_HORIZON_DAYS", 252),
			MCInitialCapital:  getEnvAsFloat("MC_INITIAL_CAPITAL", 1_000_000),
			FrontierPoints:    getEnvAsInt("FRONTIER_POINTS", 30),
			CacheTTL:          getEnvAsDuration("ANALYTICS_CACHE_TTL", "24h"),
		},

		Precompute: PrecomputeConfig{
			Enabled:    getEnvAsBool("PRECOMPUTE_ENABLED", false),
			Schedule:   getEnv("PRECOMPUTE_SCHEDULE", "0 30 18 * * 1-5"),
			Watchlist:  getEnvAsList("PRECOMPUTE_WATCHLIST"),
			RatePerSec: getEnvAsFloat("PRECOMPUTE_RATE", 5),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case "memory":
		if c.Store.FixturePath == "" {
			return fmt.Errorf("STORE_FIXTURE_PATH is required for the memory store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: postgres, memory")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analytics.MCSimulations <= 0 || c.Analytics.MCHorizonDays <= 0 {
		return fmt.Errorf("MC_SIMULATIONS and MC_HORIZON_DAYS must be positive")
	}
	if c.Analytics.FrontierPoints < 2 {
		return fmt.Errorf("FRONTIER_POINTS must be at least 2")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
