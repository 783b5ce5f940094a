package repository

import (
	"context"
	"time"

	"TopMover/internal/domain/models"
)

// MarketDataClient fetches bars from the price-data provider.
// Absence of data is a *errs.NotFoundError, transport failure a *errs.ProviderError.
type MarketDataClient interface {
	FetchAggregateRange(ctx context.Context, ticker, startDate, endDate string) ([]models.Bar, error)
	FetchDailyOpenClose(ctx context.Context, ticker, date string) (models.Bar, error)
}

// RecordStore persists winner records keyed by (partitionKey, date).
// Failures are *errs.StoreUnavailableError.
type RecordStore interface {
	Upsert(ctx context.Context, rec models.WinnerRecord) error
	QueryRange(ctx context.Context, partitionKey string, dates []string) (map[string]struct{}, error)
	QueryLatest(ctx context.Context, partitionKey string, n int) ([]models.WinnerRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ExpiringStore is implemented by stores without native record expiry.
type ExpiringStore interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventPublisher announces stored winners.
type EventPublisher interface {
	PublishWinner(ctx context.Context, ev models.WinnerEvent) error
	Close() error
}

// BarArchive keeps the raw bars a run fetched.
type BarArchive interface {
	ArchiveBars(ctx context.Context, series models.SeriesByTicker) error
}

type Metrics interface {
	RecordRun(mode, outcome string)
	RecordWinnerStored(ticker string)
	RecordError(kind string)
	RecordLastMove(ticker string, percent float64)
	RecordLatency(op string, seconds float64)
	RecordProviderCall(endpoint, result string)
}
