package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	drepo "TopMover/internal/domain/repository"
	"TopMover/pkg/logger"
	"TopMover/pkg/metrics"

	"github.com/google/uuid"
)

// Settings are the per-deployment ingestion inputs.
type Settings struct {
	Watchlist       []string
	PartitionKey    string
	WindowSize      int
	LookbackDays    int
	MaxBackfillDays int
	Retention       time.Duration
}

// Engine holds the collaborators shared by every run mode. Tickers are
// fetched one after another; no run fans out.
type Engine struct {
	cfg     Settings
	client  drepo.MarketDataClient
	store   drepo.RecordStore
	events  drepo.EventPublisher
	archive drepo.BarArchive
	metrics drepo.Metrics
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewEngine wires the run collaborators. events and archive may be nil.
func NewEngine(
	cfg Settings,
	client drepo.MarketDataClient,
	store drepo.RecordStore,
	events drepo.EventPublisher,
	archive drepo.BarArchive,
	m drepo.Metrics,
	log *logger.Logger,
) *Engine {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 7
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 14
	}
	if m == nil {
		m = metrics.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		cfg:     cfg,
		client:  client,
		store:   store,
		events:  events,
		archive: archive,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// SetClock replaces the wall clock.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Settings returns the engine configuration.
func (e *Engine) Settings() Settings { return e.cfg }

type run struct {
	res *models.RunResult
	log *logger.Logger
	now time.Time
}

func (e *Engine) begin(mode models.Mode) *run {
	now := e.now().UTC()
	id := e.newID()
	r := &run{
		res: &models.RunResult{
			RunID:       id,
			Mode:        mode,
			StartedAt:   now,
			StoredDates: []string{},
		},
		log: e.log.With(logger.String("run_id", id), logger.String("mode", string(mode))),
		now: now,
	}
	r.log.Info("run started", logger.Strings("watchlist", e.cfg.Watchlist))
	return r
}

// finish stamps the result, converts a run whose every write failed into a
// StoreUnavailableError, and records run metrics.
func (e *Engine) finish(r *run, err error) (*models.RunResult, error) {
	res := r.res
	res.FinishedAt = e.now().UTC()
	res.Partial = len(res.FailedDates) > 0 || len(res.FailedTickerFetches) > 0

	if err == nil && len(res.StoredDates) == 0 && len(res.FailedDates) > 0 {
		err = &errs.StoreUnavailableError{
			Op:  "upsert",
			Err: fmt.Errorf("all %d writes failed, first: %s", len(res.FailedDates), res.FailedDates[0].Error),
		}
	}

	outcome := res.Outcome()
	if err != nil && outcome != "failed" {
		outcome = "error"
	}
	e.metrics.RecordRun(string(res.Mode), outcome)
	e.metrics.RecordLatency("run_"+string(res.Mode), res.FinishedAt.Sub(res.StartedAt).Seconds())

	fields := []logger.Field{
		logger.String("outcome", outcome),
		logger.Int("stored", len(res.StoredDates)),
		logger.Int("skipped", len(res.SkippedDates)),
		logger.Int("failed", len(res.FailedDates)),
		logger.Int("failed_tickers", len(res.FailedTickerFetches)),
		logger.Duration("duration_ms", res.FinishedAt.Sub(res.StartedAt)),
	}
	if err != nil {
		r.log.Error("run finished", append(fields, logger.Error(err))...)
	} else {
		r.log.Info("run finished", fields...)
	}
	return res, err
}

// fetchSeries fetches every watchlist ticker once over [start, end].
// A ticker without data gets an empty series. A ticker whose fetch fails is
// reported and left out. If every ticker fails the run cannot proceed.
func (e *Engine) fetchSeries(ctx context.Context, r *run, start, end string) (models.SeriesByTicker, error) {
	series := make(models.SeriesByTicker, len(e.cfg.Watchlist))
	var lastErr error
	for _, ticker := range e.cfg.Watchlist {
		bars, err := e.client.FetchAggregateRange(ctx, ticker, start, end)
		switch {
		case err == nil:
			series[ticker] = models.NewSeries(bars)
		case errs.IsNotFound(err):
			series[ticker] = models.Series{}
		case ctx.Err() != nil:
			return nil, fmt.Errorf("fetch %s: %w", ticker, ctx.Err())
		default:
			lastErr = err
			r.res.FailedTickerFetches = append(r.res.FailedTickerFetches, ticker)
			e.metrics.RecordError("provider_fetch")
			r.log.Warn("ticker fetch failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	r.res.EvaluatedTickers = len(series)

	if len(series) == 0 && lastErr != nil {
		var pe *errs.ProviderError
		if errors.As(lastErr, &pe) {
			return nil, &errs.ProviderError{Op: pe.Op, StatusCode: pe.StatusCode, Err: fmt.Errorf("every watchlist ticker failed: %w", lastErr)}
		}
		return nil, &errs.ProviderError{Op: "aggregates", Err: fmt.Errorf("every watchlist ticker failed: %w", lastErr)}
	}
	return series, nil
}

func (e *Engine) archiveSeries(ctx context.Context, r *run, series models.SeriesByTicker) {
	if e.archive == nil || series.Empty() {
		return
	}
	if err := e.archive.ArchiveBars(ctx, series); err != nil {
		e.metrics.RecordError("archive")
		r.log.Warn("bar archive failed", logger.Error(err))
	}
}

// storeDates computes and upserts a winner for each date, ascending. A date
// with no usable bar is skipped; a failed write is collected and the loop
// continues.
func (e *Engine) storeDates(ctx context.Context, r *run, series models.SeriesByTicker, dates []string) {
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)
	for _, date := range sorted {
		w, err := SelectWinner(date, series.BarsOn(date), e.cfg.Watchlist)
		if err != nil {
			r.res.SkippedDates = append(r.res.SkippedDates, date)
			r.log.Info("date skipped, no usable bars", logger.String("date", date))
			continue
		}
		if _, err := e.write(ctx, r, w); err != nil {
			r.res.FailedDates = append(r.res.FailedDates, models.DateFailure{Date: date, Error: err.Error()})
		}
	}
}

func (e *Engine) write(ctx context.Context, r *run, w models.Winner) (models.WinnerRecord, error) {
	rec := NewWinnerRecord(w, e.cfg.PartitionKey, r.now, e.cfg.Retention)

	start := time.Now()
	err := e.store.Upsert(ctx, rec)
	e.metrics.RecordLatency("store_upsert", time.Since(start).Seconds())
	if err != nil {
		err = errs.Store("upsert", err)
		e.metrics.RecordError("store_write")
		r.log.Error("winner write failed", logger.String("date", rec.Date), logger.Error(err))
		return rec, err
	}

	r.res.StoredDates = append(r.res.StoredDates, rec.Date)
	e.metrics.RecordWinnerStored(rec.Ticker)
	e.metrics.RecordLastMove(rec.Ticker, rec.PercentChange)
	r.log.Info("winner stored",
		logger.String("date", rec.Date),
		logger.String("ticker", rec.Ticker),
		logger.Float64("percent_change", rec.PercentChange),
	)
	e.publish(ctx, r, rec)
	return rec, nil
}

// publish announces rec. Failures never fail the run.
func (e *Engine) publish(ctx context.Context, r *run, rec models.WinnerRecord) {
	if e.events == nil {
		return
	}
	ev := models.WinnerEvent{
		RunID:         r.res.RunID,
		Mode:          r.res.Mode,
		PartitionKey:  rec.PartitionKey,
		Date:          rec.Date,
		Ticker:        rec.Ticker,
		PercentChange: rec.PercentChange,
		ClosingPrice:  rec.ClosingPrice,
		ExpiresAt:     rec.ExpiresAt,
	}
	if err := e.events.PublishWinner(ctx, ev); err != nil {
		e.metrics.RecordError("event_publish")
		r.log.Warn("winner event not published", logger.String("date", rec.Date), logger.Error(err))
	}
}
