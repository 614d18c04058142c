package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func pcm(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 7)
	}
	return b
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.CleanupInterval = 0
	return cfg
}

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("Welcome to NetraMarg", "espeak/en@44100", 0.8)
	if a != GenerateCacheKey("Welcome to NetraMarg", "espeak/en@44100", 0.8) {
		t.Error("keys should be stable")
	}
	if a == GenerateCacheKey("Welcome to NetraMarg", "espeak/en@44100", 1.0) {
		t.Error("rate should change the key")
	}
	if a == GenerateCacheKey("Welcome to NetraMarg", "piper/amy@44100", 0.8) {
		t.Error("voice should change the key")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"memory only", func(c *Config) { c.DiskCapacity = 0; c.Dir = "" }, false},
		{"zero memory", func(c *Config) { c.MemoryCapacity = 0 }, true},
		{"disk without dir", func(c *Config) { c.Dir = "" }, true},
		{"bad level", func(c *Config) { c.CompressionLevel = 30 }, true},
		{"negative ttl", func(c *Config) { c.TTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/netramarg")
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_BasicOperations(t *testing.T) {
	m, err := NewManager(testConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	want := pcm(4096)
	if err := m.Put("k", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	m.Flush()

	got, ok := m.Get("k")
	if !ok || !bytes.Equal(got, want) {
		t.Fatal("Get did not return the stored value")
	}

	m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Error("key still present after Delete")
	}

	s := m.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestManager_PromotesFromDisk(t *testing.T) {
	m, err := NewManager(testConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	_ = m.Put("k", pcm(2048))
	m.Flush()
	m.memory.Clear()

	if _, ok := m.Get("k"); !ok {
		t.Fatal("expected disk hit")
	}
	if !m.memory.Contains("k") {
		t.Error("disk hit should be promoted to memory")
	}
	if m.Stats().Promotions != 1 {
		t.Errorf("expected 1 promotion, got %d", m.Stats().Promotions)
	}
}

func TestManager_PersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	want := pcm(8192)
	_ = m.Put("welcome", want)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Dir, indexFile)); err != nil {
		t.Fatalf("index not written: %v", err)
	}

	m2, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer m2.Close()

	got, ok := m2.Get("welcome")
	if !ok || !bytes.Equal(got, want) {
		t.Error("value did not survive restart")
	}
	if m2.Stats().Disk.Items != 1 {
		t.Errorf("expected 1 disk item, got %d", m2.Stats().Disk.Items)
	}
}

func TestManager_MemoryOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.DiskCapacity = 0
	cfg.MemoryCapacity = 1024

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	_ = m.Put("k", []byte("v"))
	if _, ok := m.Get("k"); !ok {
		t.Error("memory-only manager should still cache")
	}
	if m.Stats().Disk != nil || m.Dir() != "" {
		t.Error("disk tier should be disabled")
	}
	if err := m.Put("big", pcm(int(cfg.MemoryCapacity)+1)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestManager_Clear(t *testing.T) {
	m, err := NewManager(testConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	_ = m.Put("a", pcm(100))
	_ = m.Put("b", pcm(100))
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	s := m.Stats()
	if s.Memory.Items != 0 || s.Disk.Items != 0 {
		t.Errorf("expected empty tiers, got memory=%d disk=%d", s.Memory.Items, s.Disk.Items)
	}
}

func TestManager_CleanupExpires(t *testing.T) {
	cfg := testConfig(t)
	cfg.TTL = time.Hour

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m.memory.now = clock
	m.disk.now = clock

	_ = m.Put("old", pcm(100))
	m.Flush()
	now = now.Add(2 * time.Hour)

	if n := m.Cleanup(); n != 2 {
		t.Errorf("expected 2 removals (one per tier), got %d", n)
	}
	if _, ok := m.Get("old"); ok {
		t.Error("expired entry still served")
	}
}

func TestDiskCache_CompressesLargeValues(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	// Silence compresses well.
	silence := make([]byte, 64*1024)
	if err := dc.Put("s", silence); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if dc.Size() >= int64(len(silence)) {
		t.Errorf("expected compression, disk size %d", dc.Size())
	}
	got, ok := dc.Get("s")
	if !ok || !bytes.Equal(got, silence) {
		t.Error("round trip through zstd failed")
	}
}

func TestDiskCache_DropsMissingFiles(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	_ = dc.Put("k", []byte("v"))
	os.Remove(dc.pathFor("k"))

	if _, ok := dc.Get("k"); ok {
		t.Error("missing file should be a miss")
	}
	if dc.Contains("k") {
		t.Error("missing file should be dropped from the index")
	}
}

func TestDiskCache_Eviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 20, 0)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	defer dc.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dc.now = func() time.Time { now = now.Add(time.Second); return now }

	_ = dc.Put("a", make([]byte, 10))
	_ = dc.Put("b", make([]byte, 10))
	dc.Get("a")
	_ = dc.Put("c", make([]byte, 10))

	if dc.Contains("b") || !dc.Contains("a") || !dc.Contains("c") {
		t.Error("least recently used entry should be evicted")
	}
	if err := dc.Put("huge", make([]byte, 21)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestDiskCache_PutAfterClose(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	_ = dc.Close()

	if err := dc.Put("k", []byte("v")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
