package usecase

import (
	"context"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	"TopMover/pkg/util"
)

// BackfillRunner recomputes every trading date in an explicit range and
// overwrites whatever is stored. Re-running the same range converges.
type BackfillRunner struct {
	*Engine
}

func NewBackfillRunner(e *Engine) *BackfillRunner {
	return &BackfillRunner{Engine: e}
}

// Run processes [startDate, endDate] inclusive. Invalid ranges fail before
// any provider or store call.
func (b *BackfillRunner) Run(ctx context.Context, startDate, endDate string) (*models.RunResult, error) {
	weekdays, err := checkRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	r := b.begin(models.ModeBackfill)
	r.res.StartDate, r.res.EndDate = startDate, endDate

	series, err := b.fetchSeries(ctx, r, startDate, endDate)
	if err != nil {
		return b.finish(r, err)
	}

	dates := InferTradingDatesInRange(series, startDate, endDate)
	r.res.TargetDates = dates
	if len(dates) > 0 {
		r.res.LatestMarketDate = dates[len(dates)-1]
	}

	trading := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		trading[d] = struct{}{}
	}
	for _, d := range weekdays {
		if _, ok := trading[d]; !ok {
			r.res.SkippedDates = append(r.res.SkippedDates, d)
		}
	}

	if len(dates) == 0 {
		return b.finish(r, &errs.NoDataError{Date: startDate + ".." + endDate})
	}

	b.archiveSeries(ctx, r, series)
	b.storeDates(ctx, r, series, dates)
	return b.finish(r, nil)
}

func checkRange(startDate, endDate string) ([]string, error) {
	s, err := util.ParseDate(startDate)
	if err != nil {
		return nil, &errs.InvalidRangeError{Start: startDate, End: endDate, Reason: "startDate must be YYYY-MM-DD"}
	}
	e, err := util.ParseDate(endDate)
	if err != nil {
		return nil, &errs.InvalidRangeError{Start: startDate, End: endDate, Reason: "endDate must be YYYY-MM-DD"}
	}
	if s.After(e) {
		return nil, &errs.InvalidRangeError{Start: startDate, End: endDate, Reason: "startDate is after endDate"}
	}
	return util.Weekdays(startDate, endDate)
}
