package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
)

// Memory is an in-memory implementation of Store for tests and local
// development. Semantics mirror Postgres: last-write-wins upsert keyed by
// (postcode, recorded_at), no content deduplication.
type Memory struct {
	mu       sync.RWMutex
	readings map[memoryKey]*airquality.Reading
}

type memoryKey struct {
	postcode   string
	recordedAt time.Time
}

// NewMemory creates an empty in-memory readings store.
func NewMemory() *Memory {
	return &Memory{readings: make(map[memoryKey]*airquality.Reading)}
}

// Put stores a reading, replacing any existing reading with the same key.
func (s *Memory) Put(_ context.Context, r *airquality.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	cp.RecordedAt = r.RecordedAt.UTC()
	s.readings[memoryKey{postcode: r.Postcode, recordedAt: cp.RecordedAt}] = &cp
	return nil
}

// Latest returns the most recent reading for a postcode.
func (s *Memory) Latest(_ context.Context, postcode string) (*airquality.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *airquality.Reading
	for key, r := range s.readings {
		if key.postcode != postcode {
			continue
		}
		if latest == nil || r.RecordedAt.After(latest.RecordedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}

	cp := *latest
	return &cp, nil
}

// Range returns readings for a postcode within [start, end], ascending.
func (s *Memory) Range(_ context.Context, postcode string, start, end time.Time) ([]*airquality.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var readings []*airquality.Reading
	for key, r := range s.readings {
		if key.postcode != postcode {
			continue
		}
		if r.RecordedAt.Before(start) || r.RecordedAt.After(end) {
			continue
		}
		cp := *r
		readings = append(readings, &cp)
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})
	return readings, nil
}

// ListForDay returns all readings for one UTC calendar day.
func (s *Memory) ListForDay(_ context.Context, day string) ([]*airquality.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var readings []*airquality.Reading
	for _, r := range s.readings {
		if r.Day() != day {
			continue
		}
		cp := *r
		readings = append(readings, &cp)
	}

	sort.Slice(readings, func(i, j int) bool {
		if readings[i].Postcode != readings[j].Postcode {
			return readings[i].Postcode < readings[j].Postcode
		}
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})
	return readings, nil
}

// PurgeExpired removes readings past their retention deadline.
func (s *Memory) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for key, r := range s.readings {
		if !r.ExpiresAt.After(now) {
			delete(s.readings, key)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of stored readings.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}
