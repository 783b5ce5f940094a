package usecase

import (
	"context"
	"fmt"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	"TopMover/pkg/logger"
)

// SingleDateRunner corrects one date using the daily open/close endpoint,
// one request per ticker.
type SingleDateRunner struct {
	*Engine
}

func NewSingleDateRunner(e *Engine) *SingleDateRunner {
	return &SingleDateRunner{Engine: e}
}

// Run overwrites the record for date. It returns a NoDataError when no ticker
// has a usable bar for date.
func (s *SingleDateRunner) Run(ctx context.Context, date string) (*models.RunResult, error) {
	r := s.begin(models.ModeSingleDate)
	r.res.TradingDate = date
	r.res.TargetDates = []string{date}

	bars := make(map[string]models.Bar, len(s.cfg.Watchlist))
	var lastErr error
	for _, ticker := range s.cfg.Watchlist {
		bar, err := s.client.FetchDailyOpenClose(ctx, ticker, date)
		switch {
		case err == nil:
			bars[ticker] = bar
		case errs.IsNotFound(err):
			r.log.Debug("no bar for ticker", logger.String("ticker", ticker), logger.String("date", date))
		case ctx.Err() != nil:
			return s.finish(r, fmt.Errorf("fetch %s: %w", ticker, ctx.Err()))
		default:
			lastErr = err
			r.res.FailedTickerFetches = append(r.res.FailedTickerFetches, ticker)
			s.metrics.RecordError("provider_fetch")
			r.log.Warn("ticker fetch failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
	r.res.EvaluatedTickers = len(bars)

	if len(r.res.FailedTickerFetches) == len(s.cfg.Watchlist) && lastErr != nil {
		return s.finish(r, &errs.ProviderError{Op: "open_close", Err: fmt.Errorf("every watchlist ticker failed: %w", lastErr)})
	}

	w, err := SelectWinner(date, bars, s.cfg.Watchlist)
	if err != nil {
		r.res.SkippedDates = []string{date}
		return s.finish(r, err)
	}
	r.res.LatestMarketDate = date

	rec, err := s.write(ctx, r, w)
	if err != nil {
		r.res.FailedDates = append(r.res.FailedDates, models.DateFailure{Date: date, Error: err.Error()})
		return s.finish(r, err)
	}
	r.res.Winner = &rec
	return s.finish(r, nil)
}
