package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrClosed is returned by writes to a closed cache.
	ErrClosed = errors.New("cache is closed")
)

// Level identifies a cache tier.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats describes one cache tier.
type Stats struct {
	Level     Level
	Capacity  int64
	Size      int64
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
	Expired   int64
}

// HitRate is hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	if n := s.Hits + s.Misses; n > 0 {
		return float64(s.Hits) / float64(n)
	}
	return 0
}

// Entry describes a cached item.
type Entry struct {
	Key        string
	Size       int64
	Stored     time.Time
	LastAccess time.Time
	Hits       int64
}

// Config configures a Manager.
type Config struct {
	MemoryCapacity int64  // bytes
	DiskCapacity   int64  // bytes; 0 disables the disk tier
	Dir            string // disk tier directory
	// CompressionLevel is the zstd level; 0 stores PCM uncompressed.
	CompressionLevel int
	// TTL expires entries by age; 0 keeps them until evicted.
	TTL             time.Duration
	CleanupInterval time.Duration
	Logger          *log.Logger
}

// DefaultConfig caches up to 32 MiB in memory and 256 MiB on disk under
// dir. Announcement phrases are short, so this holds every phrase for
// many voices and rates.
func DefaultConfig(dir string) Config {
	return Config{
		MemoryCapacity:   32 << 20,
		DiskCapacity:     256 << 20,
		Dir:              dir,
		CompressionLevel: 3,
		TTL:              30 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MemoryCapacity <= 0 {
		return fmt.Errorf("memory capacity must be positive, got %d", c.MemoryCapacity)
	}
	if c.DiskCapacity < 0 {
		return fmt.Errorf("disk capacity cannot be negative, got %d", c.DiskCapacity)
	}
	if c.DiskCapacity > 0 && c.Dir == "" {
		return errors.New("disk cache needs a directory")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("compression level must be between 0 and 22, got %d", c.CompressionLevel)
	}
	if c.TTL < 0 || c.CleanupInterval < 0 {
		return errors.New("durations cannot be negative")
	}
	return nil
}

// GenerateCacheKey derives a stable key for text spoken by voice at speed.
func GenerateCacheKey(text, voice string, speed float64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%.2f", text, voice, speed))
	return hex.EncodeToString(sum[:16])
}
