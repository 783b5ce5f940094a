package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", &NotFoundError{Ticker: "AAPL", Date: "2024-01-02"})
	if !IsNotFound(wrapped) {
		t.Fatalf("expected not found")
	}
	if IsNoData(wrapped) || IsProvider(wrapped) {
		t.Fatalf("unexpected classification")
	}
	if !IsInvalidInput(&InvalidRangeError{Start: "a", End: "b", Reason: "x"}) {
		t.Fatalf("range error should be invalid input")
	}
	if !IsInvalidInput(fmt.Errorf("x: %w", &InvalidModeError{Reason: "y"})) {
		t.Fatalf("mode error should be invalid input")
	}
}

func TestStoreWrapsOnce(t *testing.T) {
	base := errors.New("connection refused")
	err := Store("upsert", base)
	if !IsStoreUnavailable(err) {
		t.Fatalf("expected store unavailable")
	}
	if !errors.Is(err, base) {
		t.Fatalf("cause lost")
	}
	again := Store("query", err)
	if again != err {
		t.Fatalf("expected the existing error to be returned unchanged")
	}
	if Store("noop", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Op: "aggregates", Ticker: "MSFT", StatusCode: 500, Err: errors.New("boom")}
	msg := err.Error()
	for _, want := range []string{"aggregates", "MSFT", "500", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
