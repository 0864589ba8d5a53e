// Package ratestore holds the backing tables of the rate governor.
package ratestore

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type record struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps one fixed-window record per key in process memory.
// Expired records are evicted lazily: a small random fraction of calls sweep
// the whole table.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record

	sweepP float64
	rand   func() float64
}

func NewMemoryStore(sweepProbability float64) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*record),
		sweepP:  sweepProbability,
		rand:    rand.Float64,
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, max int, now time.Time) (domain.RateDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweepP > 0 && s.rand() < s.sweepP {
		s.sweep(now)
	}

	r, ok := s.records[key]
	if !ok || !now.Before(r.resetAt) {
		r = &record{count: 1, resetAt: now.Add(window)}
		s.records[key] = r
		return domain.RateDecision{Allowed: true, Remaining: max - 1, ResetAt: r.resetAt}, nil
	}

	if r.count >= max {
		return domain.RateDecision{Allowed: false, Remaining: 0, ResetAt: r.resetAt}, nil
	}

	r.count++
	return domain.RateDecision{Allowed: true, Remaining: max - r.count, ResetAt: r.resetAt}, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, r := range s.records {
		if !now.Before(r.resetAt) {
			delete(s.records, k)
		}
	}
}

// Len reports the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
