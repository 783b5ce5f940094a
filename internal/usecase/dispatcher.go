package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"TopMover/internal/domain/errs"
	"TopMover/internal/domain/models"
	"TopMover/pkg/logger"
	"TopMover/pkg/util"

	"github.com/go-playground/validator/v10"
)

var payloadValidator = validator.New()

// RunHook observes every finished run.
type RunHook func(ctx context.Context, res *models.RunResult, err error)

// Dispatcher validates invocation payloads and routes them to a run mode.
// Validation never touches the provider or the store.
type Dispatcher struct {
	reconciler      *CoverageReconciler
	backfill        *BackfillRunner
	single          *SingleDateRunner
	maxBackfillDays int
	timeout         time.Duration
	hooks           []RunHook
	log             *logger.Logger
	now             func() time.Time
}

func NewDispatcher(e *Engine, timeout time.Duration) *Dispatcher {
	maxDays := e.cfg.MaxBackfillDays
	if maxDays <= 0 {
		maxDays = 366
	}
	return &Dispatcher{
		reconciler:      NewCoverageReconciler(e),
		backfill:        NewBackfillRunner(e),
		single:          NewSingleDateRunner(e),
		maxBackfillDays: maxDays,
		timeout:         timeout,
		log:             e.log,
		now:             func() time.Time { return e.now() },
	}
}

// OnRun registers a hook called after every run, successful or not.
func (d *Dispatcher) OnRun(h RunHook) {
	if h != nil {
		d.hooks = append(d.hooks, h)
	}
}

// ParseJSON decodes a raw payload. An empty body is a scheduled run.
func (d *Dispatcher) ParseJSON(b []byte) (models.Invocation, error) {
	var p models.InvocationPayload
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &p); err != nil {
			return models.Invocation{}, &errs.InvalidModeError{Reason: fmt.Sprintf("payload is not a JSON object: %v", err)}
		}
	}
	return d.Parse(p)
}

// Parse turns a payload into exactly one of the three invocation shapes.
func (d *Dispatcher) Parse(p models.InvocationPayload) (models.Invocation, error) {
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	p.TradingDate = strings.TrimSpace(p.TradingDate)
	p.Date = strings.TrimSpace(p.Date)
	p.StartDate = strings.TrimSpace(p.StartDate)
	p.EndDate = strings.TrimSpace(p.EndDate)

	if err := payloadValidator.Struct(p); err != nil {
		return models.Invocation{}, formatError(p, err)
	}

	tradingDate := p.TradingDate
	if p.Date != "" {
		if tradingDate != "" && tradingDate != p.Date {
			return models.Invocation{}, &errs.InvalidModeError{Reason: "tradingDate and date disagree"}
		}
		tradingDate = p.Date
	}
	today := util.FormatDate(d.now())

	switch models.Mode(mode) {
	case models.ModeBackfill:
		if tradingDate != "" {
			return models.Invocation{}, &errs.InvalidModeError{Reason: "tradingDate cannot be combined with mode backfill"}
		}
		if p.StartDate == "" || p.EndDate == "" {
			return models.Invocation{}, &errs.InvalidRangeError{Start: p.StartDate, End: p.EndDate, Reason: "backfill requires startDate and endDate"}
		}
		if p.StartDate > p.EndDate {
			return models.Invocation{}, &errs.InvalidRangeError{Start: p.StartDate, End: p.EndDate, Reason: "startDate is after endDate"}
		}
		span, err := util.DaySpan(p.StartDate, p.EndDate)
		if err != nil {
			return models.Invocation{}, &errs.InvalidRangeError{Start: p.StartDate, End: p.EndDate, Reason: err.Error()}
		}
		if span > d.maxBackfillDays {
			return models.Invocation{}, &errs.InvalidRangeError{Start: p.StartDate, End: p.EndDate, Reason: fmt.Sprintf("range spans %d days, max is %d", span, d.maxBackfillDays)}
		}
		if p.EndDate > today {
			return models.Invocation{}, &errs.InvalidRangeError{Start: p.StartDate, End: p.EndDate, Reason: "endDate is in the future"}
		}
		return models.Backfill(p.StartDate, p.EndDate), nil

	case "", models.ModeScheduled, models.ModeSingleDate:
		if p.StartDate != "" || p.EndDate != "" {
			return models.Invocation{}, &errs.InvalidModeError{Reason: "startDate and endDate require mode backfill"}
		}
		if tradingDate == "" {
			if models.Mode(mode) == models.ModeSingleDate {
				return models.Invocation{}, &errs.InvalidModeError{Reason: "mode single-date requires tradingDate"}
			}
			return models.Scheduled(), nil
		}
		if models.Mode(mode) == models.ModeScheduled {
			return models.Invocation{}, &errs.InvalidModeError{Reason: "tradingDate cannot be combined with mode scheduled"}
		}
		if tradingDate > today {
			return models.Invocation{}, &errs.InvalidModeError{Reason: "tradingDate cannot be in the future"}
		}
		return models.SingleDate(tradingDate), nil

	default:
		return models.Invocation{}, &errs.InvalidModeError{Reason: fmt.Sprintf("unknown mode %q", p.Mode)}
	}
}

func formatError(p models.InvocationPayload, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &errs.InvalidModeError{Reason: err.Error()}
	}
	fe := ve[0]
	switch fe.Field() {
	case "StartDate", "EndDate":
		return &errs.InvalidRangeError{Start: p.StartDate, End: p.EndDate, Reason: fe.Field() + " must be YYYY-MM-DD"}
	default:
		return &errs.InvalidModeError{Reason: fe.Field() + " must be YYYY-MM-DD"}
	}
}

// Dispatch validates p and runs it.
func (d *Dispatcher) Dispatch(ctx context.Context, p models.InvocationPayload) (*models.RunResult, error) {
	inv, err := d.Parse(p)
	if err != nil {
		d.log.Warn("invocation rejected", logger.Error(err))
		return nil, err
	}
	return d.Run(ctx, inv)
}

// Run executes a validated invocation.
func (d *Dispatcher) Run(ctx context.Context, inv models.Invocation) (res *models.RunResult, err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		for _, h := range d.hooks {
			h(ctx, res, err)
		}
	}()

	switch inv.Mode {
	case models.ModeBackfill:
		return d.backfill.Run(ctx, inv.StartDate, inv.EndDate)
	case models.ModeSingleDate:
		return d.single.Run(ctx, inv.TradingDate)
	case models.ModeScheduled:
		return d.reconciler.Run(ctx)
	default:
		return nil, &errs.InvalidModeError{Reason: fmt.Sprintf("unknown mode %q", inv.Mode)}
	}
}
