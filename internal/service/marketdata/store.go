package marketdata

import (
	"sync"
	"time"

	"NepsePulse/internal/domain/models"
)

// Thresholds holds the per-category freshness windows. An entry older
// than its category's window is stale but still servable.
type Thresholds map[models.Category]time.Duration

// DefaultThresholds returns the freshness windows used when the
// configuration does not override them.
func DefaultThresholds() Thresholds {
	return Thresholds{
		models.CategoryLive:        5 * time.Second,
		models.CategorySummary:     30 * time.Second,
		models.CategoryStockDetail: 60 * time.Second,
	}
}

// Entry is one cached value with the instant it was stored.
type Entry struct {
	Value     any
	UpdatedAt time.Time
}

// Store is the in-memory freshness cache. Entries are never evicted:
// a stale entry is the degradation fallback when a refresh fails, so
// deleting it would turn a soft failure into a hard one.
type Store struct {
	mu         sync.RWMutex
	entries    map[Key]Entry
	thresholds Thresholds
}

// NewStore creates an empty store with the given freshness windows.
// Categories missing from thresholds fall back to the defaults.
func NewStore(thresholds Thresholds) *Store {
	merged := DefaultThresholds()
	for c, d := range thresholds {
		if d > 0 {
			merged[c] = d
		}
	}
	return &Store{
		entries:    make(map[Key]Entry),
		thresholds: merged,
	}
}

// Get returns the entry for key, fresh or stale.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Put stores value with the given update instant, replacing any
// previous entry.
func (s *Store) Put(key Key, value any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Value: value, UpdatedAt: now}
}

// Fresh reports whether the entry is within its category's window at now.
func (s *Store) Fresh(key Key, e Entry, now time.Time) bool {
	threshold, ok := s.thresholds[key.Category]
	if !ok {
		return false
	}
	return now.Sub(e.UpdatedAt) <= threshold
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
