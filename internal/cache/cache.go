package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	cclog "github.com/yzzting/commit-crafter/internal/log"
)

const (
	// DirName is the cache subdirectory inside a configuration directory.
	DirName = "cache"
	// DefaultTTL is how long a generated message stays valid.
	DefaultTTL = 24 * time.Hour

	entryExt = ".json"
)

// Entry is one cached commit message.
type Entry struct {
	Key       string    `json:"key"`
	Message   string    `json:"message"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache is a directory of JSON entries.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a cache rooted at dir. A disabled cache never hits and never
// writes. A zero ttl means entries never expire.
func New(enabled bool, dir string, ttl time.Duration) (*Cache, error) {
	c := &Cache{
		dir:     dir,
		ttl:     ttl,
		enabled: enabled,
		now:     time.Now,
		log:     cclog.WithComponent("cache"),
	}
	if !enabled {
		return c, nil
	}
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return c, nil
}

// Dir joins a configuration directory with DirName.
func Dir(configDir string) string {
	return filepath.Join(configDir, DirName)
}

// Get returns the message stored under key. Expired or unreadable entries
// are misses.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	path := c.entryPath(key)
	entry, err := readEntry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Debug().Err(err).Str("path", path).Msg("ignoring unreadable cache entry")
		}
		return "", false
	}
	if c.expired(entry) {
		_ = os.Remove(path)
		c.log.Debug().Str("key", key).Msg("cache entry expired")
		return "", false
	}
	return entry.Message, true
}

// Put stores message under key.
func (c *Cache) Put(key, message, model string) error {
	if !c.enabled {
		return nil
	}
	entry := Entry{
		Key:       key,
		Message:   message,
		Model:     model,
		CreatedAt: c.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := renameio.WriteFile(c.entryPath(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes all entries and reports how many were deleted. Clearing
// works on a disabled cache as long as it has a directory.
func (c *Cache) Clear() (int, error) {
	if c.dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if filepath.Ext(e.Name()) != entryExt {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Stats describes the cache contents.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// Stats walks the cache directory.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if c.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != entryExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		entry, err := readEntry(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		if c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildKey derives the cache key for one generation request.
func BuildKey(model, language string, history []string, diff string) string {
	parts := []string{model, language, strings.Join(history, "\n"), diff}
	return HashKey(strings.Join(parts, "\x00"))
}

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+entryExt)
}

func readEntry(path string) (Entry, error) {
	var entry Entry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("decoding %s: %w", path, err)
	}
	return entry, nil
}
