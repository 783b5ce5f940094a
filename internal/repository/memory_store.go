package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
)

var (
	_ domrepo.RecordStore   = (*MemoryStore)(nil)
	_ domrepo.ExpiringStore = (*MemoryStore)(nil)
)

// MemoryStore keeps records in process. Used by tests and the "memory" driver.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]map[string]models.WinnerRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]map[string]models.WinnerRecord)}
}

func (s *MemoryStore) Upsert(_ context.Context, rec models.WinnerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDate := s.recs[rec.PartitionKey]
	if byDate == nil {
		byDate = make(map[string]models.WinnerRecord)
		s.recs[rec.PartitionKey] = byDate
	}
	byDate[rec.Date] = rec
	return nil
}

func (s *MemoryStore) QueryRange(_ context.Context, partitionKey string, dates []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(dates))
	byDate := s.recs[partitionKey]
	for _, d := range dates {
		if _, ok := byDate[d]; ok {
			out[d] = struct{}{}
		}
	}
	return out, nil
}

func (s *MemoryStore) QueryLatest(_ context.Context, partitionKey string, n int) ([]models.WinnerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDate := s.recs[partitionKey]
	out := make([]models.WinnerRecord, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// PurgeExpired drops records whose ExpiresAt is at or before now.
func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	cutoff := now.Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, byDate := range s.recs {
		for d, r := range byDate {
			if r.ExpiresAt <= cutoff {
				delete(byDate, d)
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
