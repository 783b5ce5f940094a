package models

import "github.com/shopspring/decimal"

// Winner is the largest absolute mover of a trading day before persistence.
type Winner struct {
	Date          string
	Ticker        string
	Open          decimal.Decimal
	Close         decimal.Decimal
	PercentChange decimal.Decimal
}

// WinnerRecord is the persisted unit, one per (PartitionKey, Date).
type WinnerRecord struct {
	PartitionKey  string  `json:"partitionKey"`
	Date          string  `json:"date"`
	Ticker        string  `json:"ticker"`
	PercentChange float64 `json:"percentChange"`
	ClosingPrice  float64 `json:"closingPrice"`
	ExpiresAt     int64   `json:"expiresAt"` // epoch seconds
}

// WinnerEvent is published after a record has been stored.
type WinnerEvent struct {
	RunID         string  `json:"runId"`
	Mode          Mode    `json:"mode"`
	PartitionKey  string  `json:"partitionKey"`
	Date          string  `json:"date"`
	Ticker        string  `json:"ticker"`
	PercentChange float64 `json:"percentChange"`
	ClosingPrice  float64 `json:"closingPrice"`
	ExpiresAt     int64   `json:"expiresAt"`
}

// MoverItem is the read API projection of a record.
type MoverItem struct {
	Date          string  `json:"date"`
	Ticker        string  `json:"ticker"`
	PercentChange float64 `json:"percentChange"`
	ClosingPrice  float64 `json:"closingPrice"`
}

func (r WinnerRecord) Item() MoverItem {
	return MoverItem{
		Date:          r.Date,
		Ticker:        r.Ticker,
		PercentChange: r.PercentChange,
		ClosingPrice:  r.ClosingPrice,
	}
}
