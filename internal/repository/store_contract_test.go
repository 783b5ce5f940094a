package repository

import (
	"context"
	"testing"
	"time"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
)

func rec(date, ticker string, pct float64, expires int64) models.WinnerRecord {
	return models.WinnerRecord{
		PartitionKey:  "WATCHLIST",
		Date:          date,
		Ticker:        ticker,
		PercentChange: pct,
		ClosingPrice:  100 + pct,
		ExpiresAt:     expires,
	}
}

// exerciseStore runs the behaviour every RecordStore driver must share.
func exerciseStore(t *testing.T, s domrepo.RecordStore) {
	t.Helper()
	ctx := context.Background()
	far := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	for _, r := range []models.WinnerRecord{
		rec("2024-01-02", "AAPL", 1.5, far),
		rec("2024-01-04", "TSLA", -3.25, far),
		rec("2024-01-03", "NVDA", 2, far),
	} {
		if err := s.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert %s: %v", r.Date, err)
		}
	}
	// overwrite keeps one record per date
	if err := s.Upsert(ctx, rec("2024-01-03", "MSFT", 4.1, far)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	present, err := s.QueryRange(ctx, "WATCHLIST", []string{"2024-01-02", "2024-01-03", "2024-01-05"})
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(present) != 2 {
		t.Fatalf("present = %v", present)
	}
	if _, ok := present["2024-01-05"]; ok {
		t.Fatalf("absent date reported present")
	}

	other, err := s.QueryRange(ctx, "OTHER", []string{"2024-01-02"})
	if err != nil || len(other) != 0 {
		t.Fatalf("partition leak: %v %v", other, err)
	}

	latest, err := s.QueryLatest(ctx, "WATCHLIST", 2)
	if err != nil {
		t.Fatalf("query latest: %v", err)
	}
	if len(latest) != 2 || latest[0].Date != "2024-01-04" || latest[1].Date != "2024-01-03" {
		t.Fatalf("latest = %+v", latest)
	}
	if latest[1].Ticker != "MSFT" || latest[1].PercentChange != 4.1 {
		t.Fatalf("overwrite not visible: %+v", latest[1])
	}
	if latest[0].PercentChange != -3.25 || latest[0].ExpiresAt != far {
		t.Fatalf("fields not preserved: %+v", latest[0])
	}

	all, err := s.QueryLatest(ctx, "WATCHLIST", 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %+v, %v", all, err)
	}
	if err := s.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func exercisePurge(t *testing.T, s interface {
	domrepo.RecordStore
	domrepo.ExpiringStore
}) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_ = s.Upsert(ctx, rec("2024-01-02", "AAPL", 1, now.Add(-time.Hour).Unix()))
	_ = s.Upsert(ctx, rec("2024-01-03", "AAPL", 1, now.Unix()))
	_ = s.Upsert(ctx, rec("2024-01-04", "AAPL", 1, now.Add(time.Hour).Unix()))

	n, err := s.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged %d, want 2", n)
	}
	left, _ := s.QueryLatest(ctx, "WATCHLIST", 10)
	if len(left) != 1 || left[0].Date != "2024-01-04" {
		t.Fatalf("left = %+v", left)
	}
}
