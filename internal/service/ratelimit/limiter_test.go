package ratelimit

import (
    "context"
    "testing"
    "time"
)

func TestAllowDrainsBucket(t *testing.T) {
    l := New()
    fixed := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
    l.now = func() time.Time { return fixed }

    for i := 0; i < 3; i++ {
        if !l.Allow("k", 3, 1) {
            t.Fatalf("call %d should be allowed", i)
        }
    }
    if l.Allow("k", 3, 1) {
        t.Fatalf("bucket should be empty")
    }
    fixed = fixed.Add(time.Second)
    if !l.Allow("k", 3, 1) {
        t.Fatalf("one token should have refilled")
    }
    if !l.Allow("other", 1, 1) {
        t.Fatalf("keys must not share buckets")
    }
}

func TestWaitHonoursContext(t *testing.T) {
    l := New()
    if err := l.Wait(context.Background(), "k", 1, 0.001); err != nil {
        t.Fatalf("first wait: %v", err)
    }
    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    if err := l.Wait(ctx, "k", 1, 0.001); err == nil {
        t.Fatalf("expected context error while bucket is empty")
    }
}

func TestDisabledPacerNeverBlocks(t *testing.T) {
    p := NewPacer("provider", 0)
    for i := 0; i < 100; i++ {
        if err := p.Wait(context.Background()); err != nil {
            t.Fatalf("wait: %v", err)
        }
    }
}
