package intel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CacheEntry pairs a result with the fingerprint of the file it was computed
// from. An entry is valid only while the live file's (size, mtime) matches
// and the entry is younger than the retention window.
type CacheEntry struct {
	Result       *IntelligenceResult `json:"result"`
	ComputedAt   time.Time           `json:"computedAt"`
	FileSize     int64               `json:"fileSize"`
	FileModified time.Time           `json:"fileModified"`
}

// StoreStats describes the current cache contents.
type StoreStats struct {
	Entries int `json:"entries"`
}

// Store is the injectable result cache. Implementations are safe for
// concurrent use and evict lazily on read; there is no background sweep.
type Store interface {
	// Get returns the cached result for a canonical path, validating age and
	// fingerprint. Stale, expired, or unverifiable entries are deleted and
	// reported as a miss.
	Get(path string) (*IntelligenceResult, bool)
	// Set stats the file at write time; if the stat fails nothing is cached.
	Set(path string, result *IntelligenceResult)
	Clear(path string)
	ClearAll()
	Stats() StoreStats
}

// CanonicalPath normalizes a document path to the absolute, cleaned form used
// as the cache and single-flight key.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*CacheEntry
	retention time.Duration
	now       func() time.Time
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]*CacheEntry),
		retention: retention,
		now:       time.Now,
	}
}

func (s *MemoryStore) Get(path string) (*IntelligenceResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[path]
	if !ok {
		return nil, false
	}
	if !entryValid(entry, path, s.retention, s.now()) {
		delete(s.entries, path)
		return nil, false
	}
	return entry.Result, true
}

func (s *MemoryStore) Set(path string, result *IntelligenceResult) {
	st, err := os.Stat(path)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = &CacheEntry{
		Result:       result,
		ComputedAt:   s.now(),
		FileSize:     st.Size(),
		FileModified: st.ModTime(),
	}
}

func (s *MemoryStore) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, path)
}

func (s *MemoryStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*CacheEntry)
}

func (s *MemoryStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreStats{Entries: len(s.entries)}
}

// entryValid checks retention and the live file fingerprint.
func entryValid(entry *CacheEntry, path string, retention time.Duration, now time.Time) bool {
	if now.Sub(entry.ComputedAt) > retention {
		return false
	}
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return st.Size() == entry.FileSize && st.ModTime().Equal(entry.FileModified)
}

// flight is one in-progress computation. Waiters block on done and then read
// res/err, which are written exactly once before done is closed.
type flight struct {
	done chan struct{}
	res  *IntelligenceResult
	err  error
}

// Wait blocks until the flight completes or ctx is cancelled.
func (f *flight) Wait(ctx context.Context) (*IntelligenceResult, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FlightRegistry guarantees at most one live computation per canonical path.
// Registration is synchronous under the mutex, closing the check-then-register
// race between concurrent callers.
type FlightRegistry struct {
	mu      sync.Mutex
	flights map[string]*flight
}

func NewFlightRegistry() *FlightRegistry {
	return &FlightRegistry{flights: make(map[string]*flight)}
}

// Begin returns the flight for path and whether the caller owns it. When an
// entry already exists the caller attaches as a waiter instead.
func (r *FlightRegistry) Begin(path string) (*flight, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flights[path]; ok {
		return f, false
	}
	f := &flight{done: make(chan struct{})}
	r.flights[path] = f
	return f, true
}

// Finish publishes the outcome to all waiters and removes the entry. It runs
// regardless of success or failure.
func (r *FlightRegistry) Finish(path string, f *flight, res *IntelligenceResult, err error) {
	f.res = res
	f.err = err
	close(f.done)
	r.mu.Lock()
	delete(r.flights, path)
	r.mu.Unlock()
}
