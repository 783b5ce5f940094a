package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"TopMover/internal/domain/errs"
)

var windowDates = []string{
	"2023-12-29", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05",
	"2024-01-08", "2024-01-09", "2024-01-10", "2024-01-11", "2024-01-12",
}

func TestReconcilerWritesOnlyMissingDates(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.store.seed("2024-01-04", "2024-01-05", "2024-01-08", "2024-01-09", "2024-01-10")

	res, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(h.client.aggCalls) != len(testWatchlist) {
		t.Fatalf("aggregate calls = %d, want one per ticker", len(h.client.aggCalls))
	}
	if len(h.client.dailyCall) != 0 {
		t.Fatalf("scheduled mode must not call the daily endpoint")
	}
	want := []string{"2024-01-11", "2024-01-12"}
	if !reflect.DeepEqual(h.store.upserts, want) {
		t.Fatalf("upserts = %v, want %v", h.store.upserts, want)
	}
	if !reflect.DeepEqual(res.MissingDates, want) || !reflect.DeepEqual(res.StoredDates, want) {
		t.Fatalf("missing %v stored %v", res.MissingDates, res.StoredDates)
	}
	if res.LatestMarketDate != "2024-01-12" || len(res.TargetDates) != 7 || res.TargetDates[0] != "2024-01-04" {
		t.Fatalf("unexpected window %v latest %s", res.TargetDates, res.LatestMarketDate)
	}
	if res.StartDate != "2023-12-29" || res.EndDate != "2024-01-12" {
		t.Fatalf("lookback = %s..%s", res.StartDate, res.EndDate)
	}

	records := h.store.snapshot()
	for _, d := range []string{"2024-01-04", "2024-01-05", "2024-01-08", "2024-01-09", "2024-01-10"} {
		if records["WATCHLIST|"+d].Ticker != "SEED" {
			t.Fatalf("present date %s was rewritten", d)
		}
	}
	if got := records["WATCHLIST|2024-01-12"]; got.Ticker != "NVDA" || got.PercentChange != 6 {
		t.Fatalf("unexpected winner %+v", got)
	}
	if len(h.events.events) != 2 || h.events.events[0].RunID != res.RunID {
		t.Fatalf("expected two events for run %s, got %+v", res.RunID, h.events.events)
	}
	if h.archive.archived == 0 {
		t.Fatalf("expected bars to be archived")
	}
	if res.Outcome() != "ok" || res.Partial {
		t.Fatalf("outcome = %s partial=%v", res.Outcome(), res.Partial)
	}
}

func TestReconcilerCompleteWindowWritesNothing(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.store.seed(windowDates...)

	res, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.store.upserts) != 0 || len(res.MissingDates) != 0 {
		t.Fatalf("expected no writes, got %v", h.store.upserts)
	}
	if res.Outcome() != "noop" {
		t.Fatalf("outcome = %s", res.Outcome())
	}
	if h.metrics.runs["scheduled/noop"] != 1 {
		t.Fatalf("run metrics = %v", h.metrics.runs)
	}
}

func TestReconcilerSelfHealsAfterFailedWrite(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.store.failDates["2024-01-11"] = true

	res, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if len(res.StoredDates) != 6 || len(res.FailedDates) != 1 || res.FailedDates[0].Date != "2024-01-11" {
		t.Fatalf("stored %v failed %v", res.StoredDates, res.FailedDates)
	}
	if !res.Partial || res.Outcome() != "partial" {
		t.Fatalf("expected partial outcome")
	}

	delete(h.store.failDates, "2024-01-11")
	h.store.upserts = nil
	res, err = NewCoverageReconciler(h.engine).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(h.store.upserts, []string{"2024-01-11"}) {
		t.Fatalf("second run upserts = %v", h.store.upserts)
	}
}

func TestReconcilerAllWritesFail(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.store.failDates["*"] = true

	res, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if !errs.IsStoreUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}
	if res == nil || len(res.FailedDates) != 7 {
		t.Fatalf("expected the result with 7 failures, got %+v", res)
	}
	if h.metrics.runs["scheduled/failed"] != 1 {
		t.Fatalf("run metrics = %v", h.metrics.runs)
	}
}

func TestReconcilerToleratesTickerFailure(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.client.failing["NVDA"] = &errs.ProviderError{Op: "aggregates", Ticker: "NVDA", StatusCode: 502}

	res, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(res.FailedTickerFetches, []string{"NVDA"}) {
		t.Fatalf("failed tickers = %v", res.FailedTickerFetches)
	}
	if got := h.store.snapshot()["WATCHLIST|2024-01-12"]; got.Ticker != "TSLA" {
		t.Fatalf("winner should come from the remaining tickers, got %s", got.Ticker)
	}
	if h.metrics.errors["provider_fetch"] != 1 {
		t.Fatalf("error metrics = %v", h.metrics.errors)
	}
}

func TestReconcilerWholeWatchlistFailure(t *testing.T) {
	h := newHarness()
	for _, tk := range testWatchlist {
		h.client.failing[tk] = &errs.ProviderError{Op: "aggregates", Ticker: tk, Err: errors.New("timeout")}
	}
	_, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if !errs.IsProvider(err) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if h.store.calls() != 0 {
		t.Fatalf("store must not be touched")
	}
}

func TestReconcilerNoTradingDates(t *testing.T) {
	h := newHarness()
	_, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if !errs.IsNoData(err) {
		t.Fatalf("expected NoDataError, got %v", err)
	}
}

func TestReconcilerQueryFailure(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.store.queryErr = errors.New("dial tcp: refused")
	_, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if !errs.IsStoreUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}
	if len(h.store.upserts) != 0 {
		t.Fatalf("no writes expected")
	}
}

func TestReconcilerPublishFailureIsNotFatal(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.events.err = errors.New("broker down")
	res, err := NewCoverageReconciler(h.engine).Run(context.Background())
	if err != nil || len(res.StoredDates) != 7 {
		t.Fatalf("run: %v stored=%v", err, res.StoredDates)
	}
	if h.metrics.errors["event_publish"] != 7 {
		t.Fatalf("publish errors = %d", h.metrics.errors["event_publish"])
	}
}
