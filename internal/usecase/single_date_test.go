package usecase

import (
	"context"
	"errors"
	"testing"

	"TopMover/internal/domain/errs"
)

func TestSingleDateExcludesMissingTickers(t *testing.T) {
	h := newHarness()
	h.client.add("AAPL", "2024-01-02", 150, 153)
	h.client.add("MSFT", "2024-01-02", 300, 291)
	h.client.add("GOOGL", "2024-01-02", 100, 100.5)

	res, err := NewSingleDateRunner(h.engine).Run(context.Background(), "2024-01-02")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(h.client.dailyCall) != len(testWatchlist) || len(h.client.aggCalls) != 0 {
		t.Fatalf("calls daily=%d agg=%d", len(h.client.dailyCall), len(h.client.aggCalls))
	}
	if res.Winner == nil || res.Winner.Ticker != "MSFT" || res.Winner.PercentChange != -3 {
		t.Fatalf("winner = %+v", res.Winner)
	}
	if res.EvaluatedTickers != 3 {
		t.Fatalf("evaluated = %d", res.EvaluatedTickers)
	}
	if _, ok := h.store.snapshot()["WATCHLIST|2024-01-02"]; !ok {
		t.Fatalf("record not stored")
	}
}

func TestSingleDateNoData(t *testing.T) {
	h := newHarness()
	_, err := NewSingleDateRunner(h.engine).Run(context.Background(), "2024-01-01")
	if !errs.IsNoData(err) {
		t.Fatalf("expected NoDataError, got %v", err)
	}
	if len(h.store.upserts) != 0 {
		t.Fatalf("no writes expected")
	}
}

func TestSingleDateProviderFailureIsSkipped(t *testing.T) {
	h := newHarness()
	h.client.add("AAPL", "2024-01-02", 100, 101)
	h.client.add("MSFT", "2024-01-02", 100, 110)
	h.client.failing["MSFT"] = &errs.ProviderError{Op: "open_close", Ticker: "MSFT", StatusCode: 500}

	res, err := NewSingleDateRunner(h.engine).Run(context.Background(), "2024-01-02")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Winner.Ticker != "AAPL" {
		t.Fatalf("winner = %s", res.Winner.Ticker)
	}
	if len(res.FailedTickerFetches) != 1 || !res.Partial {
		t.Fatalf("failed tickers = %v", res.FailedTickerFetches)
	}
}

func TestSingleDateStoreFailure(t *testing.T) {
	h := newHarness()
	h.client.add("AAPL", "2024-01-02", 100, 101)
	h.store.failDates["2024-01-02"] = true

	res, err := NewSingleDateRunner(h.engine).Run(context.Background(), "2024-01-02")
	if !errs.IsStoreUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}
	if res == nil || len(res.FailedDates) != 1 || res.Winner != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSingleDateEveryTickerFails(t *testing.T) {
	h := newHarness()
	for _, tk := range testWatchlist {
		h.client.failing[tk] = errors.New("connection refused")
	}
	_, err := NewSingleDateRunner(h.engine).Run(context.Background(), "2024-01-02")
	if !errs.IsProvider(err) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}
