package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), DirName)
	c, err := New(true, dir, ttl)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return c, dir
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == entryExt {
			n++
		}
	}
	return n
}

func TestCache_PutGet(t *testing.T) {
	c, _ := newTestCache(t, DefaultTTL)

	key := BuildKey("gpt-4o-mini", "en", nil, "diff")
	value := "feat(cli): add install command"

	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}
	if err := c.Put(key, value, "gpt-4o-mini"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got != value {
		t.Errorf("Got = %q, want %q", got, value)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c, dir := newTestCache(t, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Put("expire-test", "data", ""); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, ok := c.Get("expire-test"); !ok {
		t.Error("Expected cache hit before expiration")
	}

	now = now.Add(2 * time.Hour)
	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}

	if _, ok := c.Get("expire-test"); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("expired entry should be removed on read, %d left", n)
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	c, _ := newTestCache(t, 0)
	now := time.Now()
	c.now = func() time.Time { return now }
	if err := c.Put("k", "v", ""); err != nil {
		t.Fatal(err)
	}
	now = now.Add(365 * 24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Error("zero TTL entry should not expire")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Enabled() {
		t.Error("Cache should be disabled")
	}
	if err := c.Put("key", "value", ""); err != nil {
		t.Errorf("Put on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if n, err := c.Clear(); err != nil || n != 0 {
		t.Errorf("Clear on disabled cache = (%d, %v)", n, err)
	}
}

func TestCache_EnabledRequiresDir(t *testing.T) {
	if _, err := New(true, "", DefaultTTL); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	c, _ := newTestCache(t, DefaultTTL)
	if err := os.WriteFile(c.entryPath("bad"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("corrupt entry should be a miss")
	}
}

func TestCache_Clear(t *testing.T) {
	c, dir := newTestCache(t, DefaultTTL)

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if err := c.Put(key, "data", ""); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	if n := countEntries(t, dir); n != 5 {
		t.Fatalf("Expected 5 cache entries, got %d", n)
	}

	removed, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if removed != 5 {
		t.Errorf("removed = %d, want 5", removed)
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "README")); err != nil {
		t.Errorf("non-entry files must survive Clear: %v", err)
	}
}

func TestCache_ClearMissingDir(t *testing.T) {
	c, err := New(false, filepath.Join(t.TempDir(), "nope"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := c.Clear(); err != nil || n != 0 {
		t.Errorf("Clear on missing dir = (%d, %v)", n, err)
	}
}

func TestCache_Stats(t *testing.T) {
	c, dir := newTestCache(t, DefaultTTL)

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}

	_ = c.Put("key1", "value1", "")
	_ = c.Put("key2", "value2", "")

	stats, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestBuildKey(t *testing.T) {
	base := BuildKey("gpt-4o-mini", "en", []string{"fix: a"}, "diff")

	if base != BuildKey("gpt-4o-mini", "en", []string{"fix: a"}, "diff") {
		t.Error("Same inputs should produce same cache key")
	}
	variants := map[string]string{
		"model":    BuildKey("gpt-4o", "en", []string{"fix: a"}, "diff"),
		"language": BuildKey("gpt-4o-mini", "fr", []string{"fix: a"}, "diff"),
		"history":  BuildKey("gpt-4o-mini", "en", []string{"fix: b"}, "diff"),
		"diff":     BuildKey("gpt-4o-mini", "en", []string{"fix: a"}, "diff2"),
	}
	for name, k := range variants {
		if k == base {
			t.Errorf("changing %s should change the key", name)
		}
	}
}

func TestDir(t *testing.T) {
	if got := Dir("/cfg/global"); got != filepath.Join("/cfg/global", "cache") {
		t.Errorf("Dir = %q", got)
	}
}
