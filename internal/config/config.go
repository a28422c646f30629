package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"mutuo/internal/core"
	applog "mutuo/internal/log"
)

type Config struct {
	// HTTP Server
	Host            string
	Port            string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel   string
	TUILogFile string

	// Form defaults, kept as text so that they round-trip into the inputs
	DefaultLoan  string
	DefaultRate  string
	DefaultYears string

	// Presentation
	PageSize int

	// Schedule cache
	ScheduleCacheSize int
	ScheduleCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Host:            getEnv("HOST", "127.0.0.1"),
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		TUILogFile: getEnv("TUI_LOG_FILE", ""),

		DefaultLoan:  getEnv("DEFAULT_LOAN", "80000"),
		DefaultRate:  getEnv("DEFAULT_RATE", "2.0"),
		DefaultYears: getEnv("DEFAULT_YEARS", "15"),

		PageSize: getEnvInt("PAGE_SIZE", 12),

		ScheduleCacheSize: getEnvInt("SCHEDULE_CACHE_SIZE", 128),
		ScheduleCacheTTL:  getEnvDuration("SCHEDULE_CACHE_TTL", 10*time.Minute),
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DefaultParams parses the configured form defaults.
func (c *Config) DefaultParams() (core.LoanParams, error) {
	return core.ParseLoanParams(c.DefaultLoan, c.DefaultRate, c.DefaultYears)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.Host) == "" {
		errors = append(errors, "host cannot be empty")
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if _, err := c.DefaultParams(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default inputs: %v", err))
	}

	if c.PageSize < 1 || c.PageSize > 120 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 120", c.PageSize))
	}

	if c.ScheduleCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid schedule cache size %d: must be at least 1", c.ScheduleCacheSize))
	}

	if c.ScheduleCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid schedule cache TTL %v: must be at least 1 second", c.ScheduleCacheTTL))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
