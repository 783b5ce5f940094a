package usecase

import (
	"context"
	"sort"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	"TopMover/pkg/logger"
	"TopMover/pkg/util"
)

// CoverageReconciler heals gaps in the trailing window of trading days.
// It fetches each ticker exactly once per run, whatever the number of gaps.
type CoverageReconciler struct {
	*Engine
}

func NewCoverageReconciler(e *Engine) *CoverageReconciler {
	return &CoverageReconciler{Engine: e}
}

// Run evaluates the lookback window ending yesterday (UTC) and writes a
// winner for every expected trading date the store does not hold yet.
func (c *CoverageReconciler) Run(ctx context.Context) (*models.RunResult, error) {
	r := c.begin(models.ModeScheduled)

	end := util.FormatDate(r.now.AddDate(0, 0, -1))
	start := util.FormatDate(r.now.AddDate(0, 0, -1-c.cfg.LookbackDays))
	r.res.StartDate, r.res.EndDate = start, end

	series, err := c.fetchSeries(ctx, r, start, end)
	if err != nil {
		return c.finish(r, err)
	}

	expected := InferTradingDates(series, c.cfg.WindowSize)
	if len(expected) == 0 {
		return c.finish(r, &errs.NoDataError{Date: end})
	}
	r.res.LatestMarketDate = expected[0]
	r.res.TargetDates = ascending(expected)

	present, err := c.store.QueryRange(ctx, c.cfg.PartitionKey, expected)
	if err != nil {
		return c.finish(r, errs.Store("query_range", err))
	}

	var missing []string
	for _, d := range r.res.TargetDates {
		if _, ok := present[d]; !ok {
			missing = append(missing, d)
		}
	}
	r.res.MissingDates = missing
	if len(missing) == 0 {
		r.log.Info("window complete, nothing to write", logger.String("latest", expected[0]))
		return c.finish(r, nil)
	}

	c.archiveSeries(ctx, r, series)
	c.storeDates(ctx, r, series, missing)
	return c.finish(r, nil)
}

func ascending(dates []string) []string {
	out := append([]string(nil), dates...)
	sort.Strings(out)
	return out
}
