package usecase

import (
	"testing"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
)

func bar(ticker string, o, c float64) models.Bar {
	return models.Bar{Ticker: ticker, Date: "2024-01-02", Open: o, Close: c}
}

func TestSelectWinnerLargestAbsoluteMove(t *testing.T) {
	bars := map[string]models.Bar{
		"AAPL":  bar("AAPL", 150, 153),
		"MSFT":  bar("MSFT", 300, 291),
		"GOOGL": bar("GOOGL", 100, 100.5),
	}
	w, err := SelectWinner("2024-01-02", bars, testWatchlist)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if w.Ticker != "MSFT" {
		t.Fatalf("winner = %s, want MSFT", w.Ticker)
	}
	rec := NewWinnerRecord(w, "WATCHLIST", fixedNow, time.Hour)
	if rec.PercentChange != -3 {
		t.Fatalf("percentChange = %v, want -3", rec.PercentChange)
	}
	if rec.ClosingPrice != 291 {
		t.Fatalf("closingPrice = %v, want 291", rec.ClosingPrice)
	}
}

func TestSelectWinnerPartialDay(t *testing.T) {
	bars := map[string]models.Bar{
		"AAPL":  bar("AAPL", 100, 101),
		"MSFT":  bar("MSFT", 100, 99),
		"GOOGL": bar("GOOGL", 100, 104),
		"AMZN":  bar("AMZN", 100, 102),
		"NVDA":  bar("NVDA", 100, 96.5),
	}
	w, err := SelectWinner("2024-01-02", bars, testWatchlist)
	if err != nil {
		t.Fatalf("partial day must not fail: %v", err)
	}
	if w.Ticker != "GOOGL" {
		t.Fatalf("winner = %s, want GOOGL", w.Ticker)
	}
}

func TestSelectWinnerTieGoesToWatchlistOrder(t *testing.T) {
	bars := map[string]models.Bar{
		"NVDA": bar("NVDA", 100, 102),
		"MSFT": bar("MSFT", 100, 98),
		"ZZZZ": bar("ZZZZ", 100, 102),
	}
	for i := 0; i < 20; i++ {
		w, err := SelectWinner("2024-01-02", bars, testWatchlist)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if w.Ticker != "MSFT" {
			t.Fatalf("tie went to %s, want MSFT", w.Ticker)
		}
	}

	unlisted := map[string]models.Bar{"BBB": bar("BBB", 10, 11), "AAA": bar("AAA", 10, 9)}
	w, _ := SelectWinner("2024-01-02", unlisted, testWatchlist)
	if w.Ticker != "AAA" {
		t.Fatalf("unlisted tie went to %s, want AAA", w.Ticker)
	}
}

func TestSelectWinnerNoData(t *testing.T) {
	if _, err := SelectWinner("2024-01-01", nil, testWatchlist); !errs.IsNoData(err) {
		t.Fatalf("expected NoDataError, got %v", err)
	}
	zeroOpen := map[string]models.Bar{"AAPL": bar("AAPL", 0, 5)}
	if _, err := SelectWinner("2024-01-01", zeroOpen, testWatchlist); !errs.IsNoData(err) {
		t.Fatalf("zero open must be ignored, got %v", err)
	}
}

func TestNewWinnerRecordQuantizes(t *testing.T) {
	w, err := SelectWinner("2024-01-02", map[string]models.Bar{
		"AAPL": bar("AAPL", 3, 4.123456),
	}, testWatchlist)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	rec := NewWinnerRecord(w, "WATCHLIST", fixedNow, 48*time.Hour)
	if rec.PercentChange != 37.4485 {
		t.Fatalf("percentChange = %v, want 37.4485", rec.PercentChange)
	}
	if rec.ClosingPrice != 4.1235 {
		t.Fatalf("closingPrice = %v, want 4.1235", rec.ClosingPrice)
	}
	if rec.ExpiresAt != fixedNow.Add(48*time.Hour).Unix() {
		t.Fatalf("expiresAt = %d", rec.ExpiresAt)
	}
	if rec.PartitionKey != "WATCHLIST" || rec.Date != "2024-01-02" || rec.Ticker != "AAPL" {
		t.Fatalf("unexpected record %+v", rec)
	}
}
