package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"TopMover/internal/domain/models"
	"TopMover/internal/service/cache"
)

type latestStore struct {
	fakeStore
	recs  []models.WinnerRecord
	err   error
	reads int
}

func (s *latestStore) QueryLatest(_ context.Context, _ string, n int) ([]models.WinnerRecord, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.recs) > n {
		return s.recs[:n], nil
	}
	return s.recs, nil
}

func newLatestStore(days int) *latestStore {
	s := &latestStore{}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, -i).Format("2006-01-02")
		s.recs = append(s.recs, models.WinnerRecord{PartitionKey: "WATCHLIST", Date: d, Ticker: fmt.Sprintf("T%d", i), PercentChange: float64(i)})
	}
	return s
}

func TestMoversLatestUsesCache(t *testing.T) {
	store := newLatestStore(10)
	q := NewMoversQuery(store, cache.NewTTLCache(), "WATCHLIST", time.Minute, nil, nil)
	ctx := context.Background()

	items, err := q.Latest(ctx, 7)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(items) != 7 || items[0].Date != "2024-03-01" || items[0].Ticker != "T0" {
		t.Fatalf("items = %+v", items)
	}
	items, _ = q.Latest(ctx, 3)
	if len(items) != 3 {
		t.Fatalf("limit not applied: %d", len(items))
	}
	if store.reads != 1 {
		t.Fatalf("store read %d times, want 1", store.reads)
	}
}

func TestMoversInvalidateOnStoredRun(t *testing.T) {
	store := newLatestStore(2)
	q := NewMoversQuery(store, cache.NewTTLCache(), "WATCHLIST", time.Minute, nil, nil)
	ctx := context.Background()

	_, _ = q.Latest(ctx, 7)
	q.Invalidate(ctx, &models.RunResult{}, nil)
	_, _ = q.Latest(ctx, 7)
	if store.reads != 1 {
		t.Fatalf("noop run must keep the cache, reads=%d", store.reads)
	}
	q.Invalidate(ctx, &models.RunResult{StoredDates: []string{"2024-03-02"}}, nil)
	_, _ = q.Latest(ctx, 7)
	if store.reads != 2 {
		t.Fatalf("stored run must drop the cache, reads=%d", store.reads)
	}
}

func TestMoversStoreErrorPropagates(t *testing.T) {
	store := &latestStore{err: errors.New("down")}
	q := NewMoversQuery(store, nil, "WATCHLIST", time.Minute, nil, nil)
	if _, err := q.Latest(context.Background(), 7); err == nil {
		t.Fatalf("expected error")
	}
}
