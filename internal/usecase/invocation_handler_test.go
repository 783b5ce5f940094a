package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInvocationHandlerAcksBadPayloads(t *testing.T) {
	h := newHarness()
	ih := NewInvocationHandler("topmover.invocations", NewDispatcher(h.engine, time.Minute), nil)
	if ih.Topic() != "topmover.invocations" {
		t.Fatalf("topic = %s", ih.Topic())
	}
	if err := ih.Handle(context.Background(), []byte(`{"mode":"nope"}`)); err != nil {
		t.Fatalf("invalid payloads must be acknowledged, got %v", err)
	}
	if err := ih.Handle(context.Background(), []byte(`{"tradingDate":"2024-01-01"}`)); err != nil {
		t.Fatalf("no-data outcomes must be acknowledged, got %v", err)
	}
	if h.store.calls() != 0 {
		t.Fatalf("no writes expected")
	}
}

func TestInvocationHandlerReturnsStoreFailures(t *testing.T) {
	h := newHarness()
	h.client.fill(windowDates...)
	h.store.queryErr = errors.New("down")
	ih := NewInvocationHandler("t", NewDispatcher(h.engine, time.Minute), nil)
	if err := ih.Handle(context.Background(), nil); err == nil {
		t.Fatalf("store failures must be returned for retry")
	}
}
