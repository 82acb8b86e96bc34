// Package cache provides a disk-backed cache for judge verdicts so that
// re-analyzing an unchanged trace (eval reruns, CI) does not repeat the
// oracle call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentqa/mentor/internal/models"
)

// Cache stores judge verdicts as JSON files under a directory. An empty
// directory disables the cache entirely: Get always misses and Put is a
// no-op.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key derives a cache key from everything that influences a verdict: the
// rubric version and the exact prompts sent to the oracle. Any change to the
// trace, the trajectory analysis, or the rubric produces a different key.
func Key(rubricVersion, systemPrompt, userPrompt string) string {
	h := sha256.New()
	writeString(h, rubricVersion)
	writeString(h, systemPrompt)
	writeString(h, userPrompt)
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached verdict. A missing or unreadable entry is a miss.
func (c *Cache) Get(key string) (*models.JudgeResult, bool) {
	if c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}

	var result models.JudgeResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupt entry, treat as miss.
		return nil, false
	}
	return &result, true
}

// Put stores a verdict under key, creating the cache directory if needed.
func (c *Cache) Put(key string, result *models.JudgeResult) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling verdict: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached verdicts. It refuses to delete a directory that
// contains anything other than .json cache files.
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache entries - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeString(w io.Writer, s string) {
	// Null byte delimiter prevents hash collisions between adjacent fields.
	w.Write([]byte(s + "\x00")) //nolint:errcheck
}
