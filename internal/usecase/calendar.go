package usecase

import (
	"TopMover/internal/domain/models"
	"TopMover/pkg/util"
)

// InferTradingDates returns the latest windowSize trading dates found in
// series, most recent first. A trading date is a weekday on which at least
// one ticker has a bar. A zero or negative windowSize returns every date.
//
// A watchlist-wide outage on a real session is indistinguishable from a
// holiday and is treated as one.
func InferTradingDates(series models.SeriesByTicker, windowSize int) []string {
	dates := series.Dates()
	out := make([]string, 0, windowSize)
	for i := len(dates) - 1; i >= 0; i-- {
		if windowSize > 0 && len(out) == windowSize {
			break
		}
		if util.IsWeekday(dates[i]) {
			out = append(out, dates[i])
		}
	}
	return out
}

// InferTradingDatesInRange returns every trading date within
// [startDate, endDate], ascending.
func InferTradingDatesInRange(series models.SeriesByTicker, startDate, endDate string) []string {
	var out []string
	for _, d := range series.Dates() {
		if d < startDate || d > endDate {
			continue
		}
		if util.IsWeekday(d) {
			out = append(out, d)
		}
	}
	return out
}
