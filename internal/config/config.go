package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	DBPath                string
	DBDriver              string
	RedisAddr             string
	RedisPassword         string
	CacheTTL              time.Duration
	GRPCPort              int
	GRPCReflectionEnabled bool
	HTTPPort              int
	DimensionsFile        string
	CompareMaxEntities    int
	OfferingDisplayLimit  int
	OTelEndpoint          string
	OTelServiceName       string
	ShutdownTimeout       time.Duration
}

// LoadFromEnv loads configuration from environment variables. Unparseable
// values fall back to their defaults. An empty REDIS_ADDR disables caching.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DBPath:                getEnv("DB_PATH", "./data/wellness.db"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		CacheTTL:              getEnvDuration("CACHE_TTL", 10*time.Minute),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		HTTPPort:              getEnvInt("HTTP_PORT", 8080),
		DimensionsFile:        os.Getenv("DIMENSIONS_FILE"),
		CompareMaxEntities:    getEnvInt("COMPARE_MAX_ENTITIES", 4),
		OfferingDisplayLimit:  getEnvInt("OFFERING_DISPLAY_LIMIT", 8),
		OTelEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelServiceName:       getEnv("OTEL_SERVICE_NAME", "wellness-eval"),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate reports every setting the servers cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("GRPC_PORT %d out of range", c.GRPCPort))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTPPort))
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("GRPC_PORT and HTTP_PORT are both %d", c.GRPCPort))
	}
	if c.CompareMaxEntities < 2 {
		errs = append(errs, fmt.Errorf("COMPARE_MAX_ENTITIES must be at least 2, got %d", c.CompareMaxEntities))
	}
	if c.OfferingDisplayLimit < 1 {
		errs = append(errs, fmt.Errorf("OFFERING_DISPLAY_LIMIT must be positive, got %d", c.OfferingDisplayLimit))
	}
	return errors.Join(errs...)
}

// CacheEnabled reports whether a redis address was configured.
func (c *Config) CacheEnabled() bool { return c.RedisAddr != "" }

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
