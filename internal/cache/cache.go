// Package cache stores built prompt artifacts on disk, keyed by schema
// fingerprint. An artifact is reusable until the schema shape changes or its
// TTL elapses.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/commercelens/commercelens/internal/prompt"
)

// ErrMiss is returned when no valid cached artifact exists for a key.
var ErrMiss = errors.New("cache miss")

// entry wraps a stored artifact with the config values it was built under, so
// a config change invalidates the entry even when the fingerprint matches.
type entry struct {
	Artifact prompt.Artifact `json:"artifact"`
	Config   prompt.Config   `json:"config"`
	StoredAt time.Time       `json:"stored_at"`
}

// PromptCache is a file-backed artifact store. Safe for concurrent use within
// one process.
type PromptCache struct {
	directory string
	ttl       time.Duration
	mu        sync.Mutex
}

// NewPromptCache creates the cache directory if needed.
func NewPromptCache(directory string, ttl time.Duration) (*PromptCache, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &PromptCache{directory: directory, ttl: ttl}, nil
}

// Get returns the cached artifact for a fingerprint, or ErrMiss when absent,
// expired, or built under a different configuration.
func (c *PromptCache) Get(fingerprint string, cfg prompt.Config) (*prompt.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(fingerprint))
	if err != nil {
		return nil, ErrMiss
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt entries are dropped silently; the caller rebuilds.
		_ = os.Remove(c.path(fingerprint))
		return nil, ErrMiss
	}

	if c.ttl > 0 && time.Since(e.StoredAt) > c.ttl {
		_ = os.Remove(c.path(fingerprint))
		return nil, ErrMiss
	}

	if e.Config != cfg {
		return nil, ErrMiss
	}

	return &e.Artifact, nil
}

// Put stores an artifact under its fingerprint, replacing any previous entry.
func (c *PromptCache) Put(artifact *prompt.Artifact, cfg prompt.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(entry{
		Artifact: *artifact,
		Config:   cfg,
		StoredAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp := c.path(artifact.Fingerprint) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return os.Rename(tmp, c.path(artifact.Fingerprint))
}

// Clear removes every cached artifact.
func (c *PromptCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.directory, e.Name())); err != nil {
				return fmt.Errorf("failed to remove cache entry: %w", err)
			}
		}
	}

	return nil
}

func (c *PromptCache) path(fingerprint string) string {
	return filepath.Join(c.directory, fingerprint+".json")
}
