// Package testutil provides testing utilities for the fintrack packages.
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// TestConfig returns environment settings that point fintrack at dataDir
func TestConfig(dataDir string) map[string]string {
	return map[string]string{
		"FINTRACK_DATA_DIR":       dataDir,
		"FINTRACK_BACKEND":        "file",
		"FINTRACK_SQLITE_PATH":    filepath.Join(dataDir, "fintrack.db"),
		"FINTRACK_LOG_LEVEL":      "error",
		"FINTRACK_LOG_FORMAT":     "text",
		"FINTRACK_STORAGE_QUOTA":  "5MiB",
		"FINTRACK_UNSAVED_WINDOW": "5m",
		"FINTRACK_PASSPHRASE":     "",
		"FINTRACK_DEBUG":          "",
	}
}

// SetTestEnv points fintrack at a fresh temporary data directory and returns it.
// Variables are restored when the test ends.
func SetTestEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for k, v := range TestConfig(dir) {
		t.Setenv(k, v)
	}
	return dir
}

// Clock is a controllable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current reading
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// WriteFile writes content to name inside dir and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
