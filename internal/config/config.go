package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"gostats/domain/stats"
	"gostats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Stats    StatsConfig
	Database DatabaseConfig
	Server   ServerConfig
	LogLevel string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// StatsConfig holds the defaults applied to requests that leave a parameter unset
type StatsConfig struct {
	Alternative           stats.Alternative  `validate:"required,oneof=two-sided greater less"`
	PValApprox            stats.PValueApprox `validate:"required,oneof=auto exact asymptotic"`
	FacetWorkers          int                `validate:"gte=0,lte=256"` // 0 means GOMAXPROCS
	IgnoreEmptyComparator bool
}

// DatabaseConfig holds database connection settings. An empty URL disables
// persistence of stats tables.
type DatabaseConfig struct {
	URL string `validate:"omitempty,url"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Stats:    *loadStatsConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server:   *loadServerConfig(),
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Params returns the request defaults derived from the configuration
func (c *Config) Params() stats.Params {
	p := stats.DefaultParams()
	p.Alternative = c.Stats.Alternative
	p.PValApprox = c.Stats.PValApprox
	p.IgnoreEmptyComparator = stats.Flag(c.Stats.IgnoreEmptyComparator)
	return p
}

// PersistenceEnabled reports whether a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.Database.URL != ""
}

func loadStatsConfig() *StatsConfig {
	return &StatsConfig{
		Alternative:           stats.Alternative(getEnvOrDefault("STATS_ALTERNATIVE", string(stats.TwoSided))),
		PValApprox:            stats.PValueApprox(getEnvOrDefault("STATS_P_VAL_APPROX", string(stats.ApproxAuto))),
		FacetWorkers:          getEnvIntOrDefault("STATS_FACET_WORKERS", 0),
		IgnoreEmptyComparator: getEnvBoolOrDefault("STATS_IGNORE_EMPTY_COMPARATOR", false),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return errors.New(errors.CodeConfigInvalid, err.Error())
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
