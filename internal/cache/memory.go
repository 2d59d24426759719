package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
)

// entry is one cached snapshot. The payload is kept serialized so lookups
// hand back a copy, never the stored value.
type entry struct {
	id        string
	city      string // lower-cased
	country   string // lower-cased
	lat, lon  float64
	hasCoords bool
	data      []byte
	createdAt time.Time
	expiresAt time.Time
	sourceTag string
}

// MemoryStore is the in-process cache backend, used when no cache database
// is configured and in tests. Safe for concurrent use; lookups take a read
// lock, stores append under the write lock, so the sweep never exposes a
// half-written entry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Save inserts a new entry. It never overwrites: overlapping entries for
// nearby points coexist until they expire.
func (s *MemoryStore) Save(ctx context.Context, loc environment.Location, snap *environment.Snapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	now := s.now()
	e := entry{
		id:        uuid.NewString(),
		city:      strings.ToLower(loc.City),
		country:   strings.ToLower(loc.Country),
		lat:       loc.Lat,
		lon:       loc.Lon,
		hasCoords: hasCoords(loc),
		data:      data,
		createdAt: now,
		expiresAt: now.Add(ttl),
		sourceTag: SourceTag,
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// Lookup returns the newest unexpired entry matching the location: by
// bounding-box tolerance when the query has coordinates, by city/country
// pair otherwise.
func (s *MemoryStore) Lookup(ctx context.Context, loc environment.Location) (*environment.Snapshot, bool, error) {
	now := s.now()

	s.mu.RLock()
	var best *entry
	for i := range s.entries {
		e := &s.entries[i]
		if !now.Before(e.expiresAt) {
			continue
		}
		if !matches(e, loc) {
			continue
		}
		if best == nil || e.createdAt.After(best.createdAt) {
			best = e
		}
	}

	var data []byte
	if best != nil {
		data = best.data
	}
	s.mu.RUnlock()

	if data == nil {
		return nil, false, nil
	}

	var snap environment.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

// SweepExpired removes all expired entries and reports how many were
// dropped. Idempotent.
func (s *MemoryStore) SweepExpired(ctx context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var removed int64
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	s.entries = kept
	return removed, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Total: int64(len(s.entries))}
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			stats.Active++
		}
	}
	stats.Expired = stats.Total - stats.Active
	return stats, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func matches(e *entry, loc environment.Location) bool {
	if hasCoords(loc) {
		return e.hasCoords &&
			e.lat >= loc.Lat-Tolerance && e.lat <= loc.Lat+Tolerance &&
			e.lon >= loc.Lon-Tolerance && e.lon <= loc.Lon+Tolerance
	}

	if loc.City == "" {
		return false
	}
	if e.city != strings.ToLower(loc.City) {
		return false
	}
	return loc.Country == "" || e.country == strings.ToLower(loc.Country)
}

// hasCoords treats the zero origin as "no coordinates". The aggregator
// always resolves real coordinates before touching the cache, so this only
// disambiguates place-only callers.
func hasCoords(loc environment.Location) bool {
	return loc.Lat != 0 || loc.Lon != 0
}
