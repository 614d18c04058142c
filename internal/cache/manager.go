package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers the memory tier over the disk tier. Reads check memory
// first and promote disk hits; writes land in memory at once and on disk
// in the background.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache // nil when the disk tier is disabled
	cfg    Config
	log    *log.Logger

	writes sync.WaitGroup
	stop   chan struct{}
	loop   sync.WaitGroup
	once   sync.Once

	hits        atomic.Int64
	misses      atomic.Int64
	promotions  atomic.Int64
	cleanupRuns atomic.Int64
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Hits        int64
	Misses      int64
	Promotions  int64
	CleanupRuns int64
	Memory      Stats
	Disk        *Stats
}

// HitRate is hits over lookups across both tiers.
func (s ManagerStats) HitRate() float64 {
	if n := s.Hits + s.Misses; n > 0 {
		return float64(s.Hits) / float64(n)
	}
	return 0
}

// NewManager builds the cache tiers and starts periodic cleanup when
// cfg.CleanupInterval is set.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := &Manager{
		memory: NewMemoryCache(cfg.MemoryCapacity),
		cfg:    cfg,
		log:    logger.WithPrefix("cache"),
		stop:   make(chan struct{}),
	}

	if cfg.DiskCapacity > 0 {
		disk, err := NewDiskCache(cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to open disk cache: %w", err)
		}
		m.disk = disk
	}

	if cfg.CleanupInterval > 0 {
		m.loop.Add(1)
		go m.cleanupLoop(cfg.CleanupInterval)
	}
	return m, nil
}

// Get looks key up in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.hits.Add(1)
		return data, true
	}
	if m.disk != nil {
		if data, ok := m.disk.Get(key); ok {
			m.hits.Add(1)
			m.promotions.Add(1)
			_ = m.memory.Put(key, data)
			return data, true
		}
	}
	m.misses.Add(1)
	return nil, false
}

// Put stores value in memory and queues the disk write.
func (m *Manager) Put(key string, value []byte) error {
	err := m.memory.Put(key, value)
	if err != nil && !errors.Is(err, ErrItemTooLarge) {
		return err
	}
	if m.disk == nil {
		return err
	}

	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if err := m.disk.Put(key, value); err != nil && !errors.Is(err, ErrClosed) {
			m.log.Warn("disk write failed", "key", key, "err", err)
		}
	}()
	return nil
}

// Flush waits for queued disk writes.
func (m *Manager) Flush() {
	m.writes.Wait()
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) {
	m.Flush()
	m.memory.Delete(key)
	if m.disk != nil {
		m.disk.Delete(key)
	}
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.Flush()
	m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Cleanup expires entries older than the TTL in both tiers.
func (m *Manager) Cleanup() int {
	m.cleanupRuns.Add(1)
	if m.cfg.TTL <= 0 {
		return 0
	}

	removed := m.memory.Prune(m.cfg.TTL)
	if m.disk != nil {
		removed += m.disk.RemoveOlderThan(m.disk.now().Add(-m.cfg.TTL))
	}
	if removed > 0 {
		m.log.Debug("expired cache entries", "count", removed, "ttl", m.cfg.TTL)
	}
	return removed
}

func (m *Manager) cleanupLoop(every time.Duration) {
	defer m.loop.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

// Stats returns counters for both tiers.
func (m *Manager) Stats() ManagerStats {
	s := ManagerStats{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Promotions:  m.promotions.Load(),
		CleanupRuns: m.cleanupRuns.Load(),
		Memory:      m.memory.Stats(),
	}
	if m.disk != nil {
		ds := m.disk.Stats()
		s.Disk = &ds
	}
	return s
}

// Dir returns the disk tier directory, or "" without one.
func (m *Manager) Dir() string {
	if m.disk == nil {
		return ""
	}
	return m.disk.Dir()
}

// Close stops cleanup, drains disk writes and saves the disk index.
func (m *Manager) Close() error {
	var err error
	m.once.Do(func() {
		close(m.stop)
		m.loop.Wait()
		m.writes.Wait()
		if m.disk != nil {
			err = m.disk.Close()
		}
	})
	return err
}
