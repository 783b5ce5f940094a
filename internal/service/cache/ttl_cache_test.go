package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	_ = c.SetBytes(ctx, "a", []byte("1"), time.Minute)
	_ = c.SetBytes(ctx, "b", []byte("2"), 0)

	if b, ok, _ := c.GetBytes(ctx, "a"); !ok || string(b) != "1" {
		t.Fatalf("a = %q %v", b, ok)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "a"); ok {
		t.Fatalf("a should have expired")
	}
	if _, ok, _ := c.GetBytes(ctx, "b"); !ok {
		t.Fatalf("b has no ttl and should stay")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	_ = c.SetBytes(ctx, "a", []byte("1"), time.Hour)
	_ = c.SetBytes(ctx, "b", []byte("2"), time.Hour)
	if err := c.Delete(ctx, "a", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.GetBytes(ctx, "a"); ok {
		t.Fatalf("a should be gone")
	}
	if _, ok, _ := c.GetBytes(ctx, "b"); !ok {
		t.Fatalf("b should remain")
	}
}
