package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexFile = "index.gob"

// DiskCache persists PCM buffers as zstd-compressed files under a
// directory, with a gob index written on Close.
type DiskCache struct {
	dir      string
	capacity int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu     sync.Mutex
	size   int64
	index  map[string]*diskEntry
	stats  Stats
	closed bool
	now    func() time.Time
}

// diskEntry is persisted in the index; fields are exported for gob.
type diskEntry struct {
	Entry
	File       string
	DiskSize   int64
	Compressed bool
}

// NewDiskCache opens or creates a disk cache in dir. A compressionLevel of
// 0 stores audio uncompressed.
func NewDiskCache(dir string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Level: LevelDisk, Capacity: capacity},
		now:      time.Now,
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	dc.decoder = dec

	if err := dc.loadIndex(); err != nil {
		// A damaged index only costs re-synthesis.
		dc.index = make(map[string]*diskEntry)
	}
	for key, e := range dc.index {
		if _, err := os.Stat(e.File); err != nil {
			delete(dc.index, key)
			continue
		}
		dc.size += e.DiskSize
	}
	return dc, nil
}

// Get reads key from disk. Missing or corrupt files are dropped from the
// index and reported as a miss.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	e, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(e.File)
	if err == nil && e.Compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		dc.removeLocked(key, e)
		dc.stats.Misses++
		return nil, false
	}

	e.Hits++
	e.LastAccess = dc.now()
	dc.stats.Hits++
	return data, true
}

// Put writes value under key, evicting least recently used entries to make
// room.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return ErrClosed
	}

	data, compressed := value, false
	if dc.encoder != nil && len(value) > 1024 {
		if z := dc.encoder.EncodeAll(value, nil); len(z) < len(value) {
			data, compressed = z, true
		}
	}
	n := int64(len(data))
	if n > dc.capacity {
		return ErrItemTooLarge
	}

	if old, ok := dc.index[key]; ok {
		dc.removeLocked(key, old)
	}
	for dc.size+n > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}

	path := dc.pathFor(key)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := dc.now()
	dc.index[key] = &diskEntry{
		Entry:      Entry{Key: key, Size: int64(len(value)), Stored: now, LastAccess: now},
		File:       path,
		DiskSize:   n,
		Compressed: compressed,
	}
	dc.size += n
	return nil
}

// Contains reports whether key is indexed.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[key]
	return ok
}

// Delete removes key.
func (dc *DiskCache) Delete(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if e, ok := dc.index[key]; ok {
		dc.removeLocked(key, e)
	}
}

// Clear removes every cached file and the index.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var errs []error
	for key, e := range dc.index {
		if err := os.Remove(e.File); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		delete(dc.index, key)
	}
	dc.size = 0
	errs = append(errs, dc.saveIndexLocked())
	return errors.Join(errs...)
}

// RemoveOlderThan drops entries stored before cutoff.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for key, e := range dc.index {
		if e.Stored.Before(cutoff) {
			dc.removeLocked(key, e)
			removed++
		}
	}
	dc.stats.Expired += int64(removed)
	return removed
}

// Entries lists entries from least to most recently used.
func (dc *DiskCache) Entries() []Entry {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	out := make([]Entry, 0, len(dc.index))
	for _, e := range dc.index {
		out = append(out, e.Entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAccess.Before(out[j].LastAccess) })
	return out
}

// Size returns the bytes on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns counters for the disk tier.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	s := dc.stats
	s.Size = dc.size
	s.Items = len(dc.index)
	return s
}

// Dir returns the cache directory.
func (dc *DiskCache) Dir() string { return dc.dir }

// Close writes the index and releases the codecs.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.closed {
		return nil
	}
	dc.closed = true
	err := dc.saveIndexLocked()
	if dc.encoder != nil {
		err = errors.Join(err, dc.encoder.Close())
	}
	dc.decoder.Close()
	return err
}

func (dc *DiskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dc.dir, hex.EncodeToString(sum[:16])+".pcm")
}

func (dc *DiskCache) removeLocked(key string, e *diskEntry) {
	_ = os.Remove(e.File)
	delete(dc.index, key)
	dc.size -= e.DiskSize
}

func (dc *DiskCache) evictOldestLocked() {
	var (
		oldestKey string
		oldest    *diskEntry
	)
	for key, e := range dc.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldestKey, oldest = key, e
		}
	}
	if oldest != nil {
		dc.removeLocked(oldestKey, oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) loadIndex() error {
	f, err := os.Open(filepath.Join(dc.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(&dc.index)
}

func (dc *DiskCache) saveIndexLocked() error {
	path := filepath.Join(dc.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(dc.index); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeFileAtomic writes through a temporary file and renames it into
// place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
