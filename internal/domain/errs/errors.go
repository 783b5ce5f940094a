package errs

import (
	"errors"
	"fmt"
)

// ProviderError is a transport or HTTP failure talking to the price-data provider.
type ProviderError struct {
	Op         string
	Ticker     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "provider " + e.Op
	if e.Ticker != "" {
		msg += " " + e.Ticker
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NotFoundError means the provider has no bar for a ticker on a date.
type NotFoundError struct {
	Ticker string
	Date   string
}

func (e *NotFoundError) Error() string {
	if e.Date == "" {
		return fmt.Sprintf("no data for %s", e.Ticker)
	}
	return fmt.Sprintf("no data for %s on %s", e.Ticker, e.Date)
}

// NoDataError means no ticker reported usable data for a date.
type NoDataError struct {
	Date string
}

func (e *NoDataError) Error() string {
	if e.Date == "" {
		return "no ticker reported data"
	}
	return "no ticker reported data for " + e.Date
}

// InvalidRangeError rejects a malformed backfill range.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range [%s, %s]: %s", e.Start, e.End, e.Reason)
}

// InvalidModeError rejects a malformed or contradictory invocation payload.
type InvalidModeError struct {
	Reason string
}

func (e *InvalidModeError) Error() string {
	return "invalid invocation: " + e.Reason
}

// StoreUnavailableError is a persistence layer failure.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err == nil {
		return "store unavailable: " + e.Op
	}
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Store wraps err as a StoreUnavailableError unless it already is one.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreUnavailableError
	if errors.As(err, &se) {
		return err
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsNoData(err error) bool {
	var nd *NoDataError
	return errors.As(err, &nd)
}

func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func IsStoreUnavailable(err error) bool {
	var se *StoreUnavailableError
	return errors.As(err, &se)
}

// IsInvalidInput reports whether err rejects the caller's input.
func IsInvalidInput(err error) bool {
	var ir *InvalidRangeError
	var im *InvalidModeError
	return errors.As(err, &ir) || errors.As(err, &im)
}
