package usecase

import (
	"sort"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"

	"github.com/shopspring/decimal"
)

const storedPlaces = 4

var hundred = decimal.NewFromInt(100)

// SelectWinner picks the bar with the largest absolute percent move.
// Bars with a zero open are ignored. Equal moves go to the ticker listed
// first in watchlist; tickers outside the watchlist rank after it, alphabetically.
func SelectWinner(date string, bars map[string]models.Bar, watchlist []string) (models.Winner, error) {
	var (
		best    models.Winner
		bestAbs decimal.Decimal
		found   bool
	)
	for _, ticker := range rankOrder(bars, watchlist) {
		b := bars[ticker]
		if b.Open == 0 {
			continue
		}
		open := decimal.NewFromFloat(b.Open)
		cl := decimal.NewFromFloat(b.Close)
		pct := cl.Sub(open).Div(open).Mul(hundred)
		if abs := pct.Abs(); !found || abs.GreaterThan(bestAbs) {
			best = models.Winner{Date: date, Ticker: ticker, Open: open, Close: cl, PercentChange: pct}
			bestAbs = abs
			found = true
		}
	}
	if !found {
		return models.Winner{}, &errs.NoDataError{Date: date}
	}
	return best, nil
}

func rankOrder(bars map[string]models.Bar, watchlist []string) []string {
	order := make([]string, 0, len(bars))
	listed := make(map[string]struct{}, len(watchlist))
	for _, t := range watchlist {
		listed[t] = struct{}{}
		if _, ok := bars[t]; ok {
			order = append(order, t)
		}
	}
	var rest []string
	for t := range bars {
		if _, ok := listed[t]; !ok {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// NewWinnerRecord quantizes w to four decimals (half away from zero) and
// stamps the expiry as now plus retention.
func NewWinnerRecord(w models.Winner, partitionKey string, now time.Time, retention time.Duration) models.WinnerRecord {
	return models.WinnerRecord{
		PartitionKey:  partitionKey,
		Date:          w.Date,
		Ticker:        w.Ticker,
		PercentChange: w.PercentChange.Round(storedPlaces).InexactFloat64(),
		ClosingPrice:  w.Close.Round(storedPlaces).InexactFloat64(),
		ExpiresAt:     now.Add(retention).Unix(),
	}
}
