package models

import "time"

// DateFailure is a date whose winner could not be stored.
type DateFailure struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

// RunResult summarizes one invocation.
type RunResult struct {
	RunID               string        `json:"runId"`
	Mode                Mode          `json:"mode"`
	StartedAt           time.Time     `json:"startedAt"`
	FinishedAt          time.Time     `json:"finishedAt"`
	TradingDate         string        `json:"tradingDate,omitempty"`
	StartDate           string        `json:"startDate,omitempty"`
	EndDate             string        `json:"endDate,omitempty"`
	LatestMarketDate    string        `json:"latestMarketDate,omitempty"`
	TargetDates         []string      `json:"targetDates,omitempty"`
	MissingDates        []string      `json:"missingDates,omitempty"`
	StoredDates         []string      `json:"storedDates"`
	SkippedDates        []string      `json:"skippedDates,omitempty"`
	FailedDates         []DateFailure `json:"failedDates,omitempty"`
	FailedTickerFetches []string      `json:"failedTickerFetches,omitempty"`
	Winner              *WinnerRecord `json:"winner,omitempty"`
	EvaluatedTickers    int           `json:"evaluatedTickers,omitempty"`
	Partial             bool          `json:"partial"`
}

// Outcome labels the result for metrics.
func (r *RunResult) Outcome() string {
	switch {
	case len(r.FailedDates) > 0 && len(r.StoredDates) == 0:
		return "failed"
	case len(r.FailedDates) > 0:
		return "partial"
	case len(r.StoredDates) == 0:
		return "noop"
	default:
		return "ok"
	}
}
