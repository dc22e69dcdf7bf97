package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache provides local file-based caching that survives between runs on the same runner
type Cache struct {
	Dir string
	TTL time.Duration

	now func() time.Time
}

// DefaultTTL is the default cache time-to-live
const DefaultTTL = 24 * time.Hour

// New creates a cache rooted at dir
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		Dir: dir,
		TTL: ttl,
		now: time.Now,
	}, nil
}

// DefaultDir returns the runner tool cache, or ~/.cache/<appName> outside a runner
func DefaultDir(getenv func(string) string, appName string) (string, error) {
	if toolCache := getenv("RUNNER_TOOL_CACHE"); toolCache != "" {
		return filepath.Join(toolCache, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cache", appName), nil
}

// DayKey derives a key that changes every UTC day, so entries are reused
// within a day and refreshed the next
func (c *Cache) DayKey(namespace string) string {
	day := c.now().UTC().Format("2006-01-02")
	hash := sha256.Sum256([]byte(namespace + day))
	return "lacework-" + hex.EncodeToString(hash[:])[:8]
}

// keyToFilename converts a key to a safe filename
func (c *Cache) keyToFilename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".json"
}

// Path returns the full path to the cache file for a key
func (c *Cache) Path(key string) string {
	return filepath.Join(c.Dir, c.keyToFilename(key))
}

// Get retrieves data from cache if it exists and is not expired
func (c *Cache) Get(key string) ([]byte, bool) {
	path := c.Path(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if c.now().Sub(info.ModTime()) > c.TTL {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Set stores data in the cache
func (c *Cache) Set(key string, data []byte) error {
	return os.WriteFile(c.Path(key), data, 0644)
}

// Save stores the regular files directly under dir as one entry
func (c *Cache) Save(key, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	bundle := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		bundle[entry.Name()] = data
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	return c.Set(key, data)
}

// Restore writes a directory entry saved with Save back into dir.
// It returns false on a miss.
func (c *Cache) Restore(key, dir string) (bool, error) {
	data, ok := c.Get(key)
	if !ok {
		return false, nil
	}

	var bundle map[string][]byte
	if err := json.Unmarshal(data, &bundle); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	for name, content := range bundle {
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), content, 0644); err != nil {
			return false, err
		}
	}
	return true, nil
}
