package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config holds application configuration loaded from environment variables.
// Defaults suit local development.
type Config struct {
	Env      string // development, staging, production
	LogLevel string // empty picks a level from Env
	Port     string

	// Storage
	StorageBackend string // memory or badger
	DBPath         string
	BackupDir      string

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Sessions
	SessionTTL           time.Duration
	SessionPruneInterval time.Duration
	SessionCookieName    string
	CookieSecure         bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %v, using default %v", key, err, def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using default %v", key, err, def)
			return def
		}
		return d
	}
	return def
}

// Load reads the optional dotenv files (".env" when none are given) and
// then the environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Env:      getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", ""),
		Port:     getenv("PORT", "8080"),

		StorageBackend: getenv("STORAGE_BACKEND", BackendBadger),
		DBPath:         getenv("DB_PATH", "data/badger"),
		BackupDir:      getenv("BACKUP_DIR", "data/backups"),

		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getint("MAX_UPLOAD_BYTES", 5<<20)),

		SessionTTL:           getdur("SESSION_TTL", 7*24*time.Hour),
		SessionPruneInterval: getdur("SESSION_PRUNE_INTERVAL", 10*time.Minute),
		SessionCookieName:    getenv("SESSION_COOKIE_NAME", "connect.sid"),
		CookieSecure:         getbool("COOKIE_SECURE", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendBadger:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the badger backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want %s or %s)", c.StorageBackend, BackendMemory, BackendBadger)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL)
	}
	if c.SessionCookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
