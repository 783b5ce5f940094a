package ratelimit

import (
    "context"
    "sync"
    "time"
)

type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
}

type Limiter struct {
    mu  sync.Mutex
    m   map[string]*bucket
    now func() time.Time
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket), now: time.Now} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    return l.reserve(key, capacity, refillPerSec) == 0
}

// reserve consumes a token when one is available and returns zero,
// otherwise it returns how long until the next token.
func (l *Limiter) reserve(key string, capacity, refillPerSec float64) time.Duration {
    now := l.now()
    l.mu.Lock()
    defer l.mu.Unlock()
    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    // refill
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity { b.tokens = b.capacity }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        return 0
    }
    if b.refillRate <= 0 {
        return time.Hour
    }
    missing := 1 - b.tokens
    return time.Duration(missing / b.refillRate * float64(time.Second))
}

// Wait blocks until a token for key is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
    for {
        d := l.reserve(key, capacity, refillPerSec)
        if d == 0 {
            return nil
        }
        t := time.NewTimer(d)
        select {
        case <-ctx.Done():
            t.Stop()
            return ctx.Err()
        case <-t.C:
        }
    }
}

// Pacer spaces calls to an upstream at a fixed requests-per-minute budget.
// A zero budget disables pacing.
type Pacer struct {
    l        *Limiter
    key      string
    capacity float64
    perSec   float64
}

func NewPacer(key string, perMinute int) *Pacer {
    if perMinute <= 0 {
        return &Pacer{}
    }
    return &Pacer{
        l:        New(),
        key:      key,
        capacity: float64(perMinute),
        perSec:   float64(perMinute) / 60,
    }
}

func (p *Pacer) Wait(ctx context.Context) error {
    if p == nil || p.l == nil {
        return ctx.Err()
    }
    return p.l.Wait(ctx, p.key, p.capacity, p.perSec)
}
