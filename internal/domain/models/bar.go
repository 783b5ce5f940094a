package models

import "sort"

// Bar is one ticker's open/close for one date. Never persisted.
type Bar struct {
	Ticker string
	Date   string // YYYY-MM-DD
	Open   float64
	Close  float64
}

// Series holds one ticker's bars keyed by date.
type Series map[string]Bar

// SeriesByTicker holds every fetched series keyed by ticker.
type SeriesByTicker map[string]Series

// NewSeries indexes bars by date. A later bar for the same date wins.
func NewSeries(bars []Bar) Series {
	s := make(Series, len(bars))
	for _, b := range bars {
		s[b.Date] = b
	}
	return s
}

// Dates returns the union of all dates present in any series, ascending.
func (sb SeriesByTicker) Dates() []string {
	seen := make(map[string]struct{})
	for _, s := range sb {
		for d := range s {
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// BarsOn slices every series at date. Tickers without a bar are absent.
func (sb SeriesByTicker) BarsOn(date string) map[string]Bar {
	out := make(map[string]Bar, len(sb))
	for ticker, s := range sb {
		if b, ok := s[date]; ok {
			out[ticker] = b
		}
	}
	return out
}

// Empty reports whether no ticker returned any bar.
func (sb SeriesByTicker) Empty() bool {
	for _, s := range sb {
		if len(s) > 0 {
			return false
		}
	}
	return true
}
