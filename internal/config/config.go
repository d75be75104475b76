package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Addr      string
	AuthToken string
	RateLimit int
	RateBurst int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// PreviewConfig bounds how many run times a single preview may return.
type PreviewConfig struct {
	DefaultCount int
	MaxCount     int
}

// Config holds all runtime configuration options for the daemon.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Preview PreviewConfig

	Mode          string
	UseUTC        bool
	ShutdownGrace time.Duration
}

const (
	defaultAddr          = "127.0.0.1:7171"
	defaultMode          = "http"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultRateLimit     = 20
	defaultRateBurst     = 40
	defaultPreviewCount  = 5
	defaultPreviewMax    = 10
	defaultShutdownGrace = 5 * time.Second
)

var validModes = []string{"http", "mcp", "both"}

// getEnvString returns the environment variable value or default
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt returns the environment variable as int or default
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvBool returns the environment variable as bool or default
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		lower := strings.ToLower(val)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as duration or default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Load parses command line arguments (without the program name) and
// environment variables into Config.
// Priority: CLI flags > Environment variables > .env file > defaults
func Load(args []string) (*Config, error) {
	// .env files are optional; missing ones are ignored.
	envFiles := []string{".env"}
	if configDir, err := os.UserConfigDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(configDir, "cronnext", ".env"))
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:      getEnvString("CRONNEXT_ADDR", defaultAddr),
			AuthToken: getEnvString("CRONNEXT_AUTH_TOKEN", ""),
			RateLimit: getEnvInt("CRONNEXT_RATE_LIMIT", defaultRateLimit),
			RateBurst: getEnvInt("CRONNEXT_RATE_BURST", defaultRateBurst),
		},
		Log: LogConfig{
			Level:  getEnvString("CRONNEXT_LOG_LEVEL", defaultLogLevel),
			Format: getEnvString("CRONNEXT_LOG_FORMAT", defaultLogFormat),
			File:   getEnvString("CRONNEXT_LOG_FILE", ""),
		},
		Preview: PreviewConfig{
			DefaultCount: defaultPreviewCount,
			MaxCount:     getEnvInt("CRONNEXT_PREVIEW_MAX", defaultPreviewMax),
		},
		Mode:          getEnvString("CRONNEXT_MODE", defaultMode),
		UseUTC:        getEnvBool("CRONNEXT_USE_UTC", false),
		ShutdownGrace: getEnvDuration("CRONNEXT_SHUTDOWN_GRACE", defaultShutdownGrace),
	}

	fs := pflag.NewFlagSet("cronnextd", pflag.ContinueOnError)
	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Serving mode (http, mcp, both)")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "Log format (text, json)")
	fs.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "Also write logs to this file, rotated by size")
	fs.BoolVar(&cfg.UseUTC, "use-utc", cfg.UseUTC, "Evaluate schedules in UTC instead of system local time")
	fs.IntVar(&cfg.Server.RateLimit, "rate-limit", cfg.Server.RateLimit, "Requests per second allowed per client")
	fs.IntVar(&cfg.Preview.MaxCount, "preview-max", cfg.Preview.MaxCount, "Maximum run times returned by one preview")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", cfg.ShutdownGrace, "Grace period when shutting down")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if !isValidMode(cfg.Mode) {
		return nil, fmt.Errorf("invalid mode %q (valid: %s)", cfg.Mode, strings.Join(validModes, ", "))
	}

	if cfg.Server.RateLimit < 1 {
		cfg.Server.RateLimit = defaultRateLimit
	}
	if cfg.Server.RateBurst < cfg.Server.RateLimit {
		cfg.Server.RateBurst = cfg.Server.RateLimit
	}
	if cfg.Preview.MaxCount < 1 {
		cfg.Preview.MaxCount = defaultPreviewMax
	}
	if cfg.Preview.DefaultCount > cfg.Preview.MaxCount {
		cfg.Preview.DefaultCount = cfg.Preview.MaxCount
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = defaultShutdownGrace
	}

	return cfg, nil
}

// Location returns the time zone schedules are evaluated in when a caller
// does not supply a reference time.
func (c *Config) Location() *time.Location {
	if c.UseUTC {
		return time.UTC
	}
	return time.Local
}

func isValidMode(mode string) bool {
	for _, m := range validModes {
		if m == mode {
			return true
		}
	}
	return false
}
