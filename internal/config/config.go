package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Storage
	DataDirectory string
	Backend       string // file, sqlite or memory
	SQLitePath    string
	StorageQuota  string // human readable, e.g. "5MiB"
	Passphrase    string // unlocks an encrypted file backend without prompting

	// Logging
	LogLevel  string
	LogFormat string
	Debug     bool // forces debug level and adds the caller to log entries

	// HasUnsavedChanges reports true while the last save is younger than this
	UnsavedWindow time.Duration

	loadErrors []string
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	dataDir := defaultDataDirectory()

	return &Config{
		DataDirectory: dataDir,
		Backend:       "file",
		SQLitePath:    filepath.Join(dataDir, "fintrack.db"),
		StorageQuota:  "5MiB",
		LogLevel:      "warn",
		LogFormat:     "text",
		UnsavedWindow: 5 * time.Minute,
	}
}

func defaultDataDirectory() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "fintrack")
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return filepath.Join(wd, "data")
}

// Load loads configuration from an optional .env file and FINTRACK_* environment variables
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if dataDir := os.Getenv("FINTRACK_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
		cfg.SQLitePath = filepath.Join(dataDir, "fintrack.db")
	}
	if backend := os.Getenv("FINTRACK_BACKEND"); backend != "" {
		cfg.Backend = strings.ToLower(backend)
	}
	if dbPath := os.Getenv("FINTRACK_SQLITE_PATH"); dbPath != "" {
		cfg.SQLitePath = dbPath
	}
	if quota := os.Getenv("FINTRACK_STORAGE_QUOTA"); quota != "" {
		cfg.StorageQuota = quota
	}
	if pass := os.Getenv("FINTRACK_PASSPHRASE"); pass != "" {
		cfg.Passphrase = pass
	}
	if level := os.Getenv("FINTRACK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := os.Getenv("FINTRACK_LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
	if debug := os.Getenv("FINTRACK_DEBUG"); debug == "true" || debug == "1" {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if window := os.Getenv("FINTRACK_UNSAVED_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			cfg.UnsavedWindow = d
		} else {
			cfg.loadErrors = append(cfg.loadErrors, fmt.Sprintf("invalid FINTRACK_UNSAVED_WINDOW %q: %v", window, err))
		}
	}

	return cfg
}

// Validate returns every configuration problem in one error
func (c *Config) Validate() error {
	problems := append([]string(nil), c.loadErrors...)

	switch c.Backend {
	case "file", "sqlite", "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid backend %q: must be one of file, sqlite, memory", c.Backend))
	}

	if c.Backend == "file" && c.DataDirectory == "" {
		problems = append(problems, "data directory cannot be empty when using the file backend")
	}
	if c.Backend == "sqlite" && c.SQLitePath == "" {
		problems = append(problems, "SQLite path cannot be empty when using the sqlite backend")
	}

	if _, err := c.QuotaBytes(); err != nil {
		problems = append(problems, err.Error())
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.LogFormat))
	}

	if c.UnsavedWindow <= 0 {
		problems = append(problems, "unsaved window must be positive")
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

// QuotaBytes parses StorageQuota
func (c *Config) QuotaBytes() (uint64, error) {
	n, err := humanize.ParseBytes(c.StorageQuota)
	if err != nil {
		return 0, fmt.Errorf("invalid storage quota %q: %v", c.StorageQuota, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid storage quota %q: must be greater than zero", c.StorageQuota)
	}
	return n, nil
}

// EnsureDirectories creates the directories the selected backend writes to
func (c *Config) EnsureDirectories() error {
	var dirs []string
	switch c.Backend {
	case "file":
		dirs = append(dirs, c.DataDirectory)
	case "sqlite":
		dirs = append(dirs, filepath.Dir(c.SQLitePath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
