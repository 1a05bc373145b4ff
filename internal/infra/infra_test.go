package infra

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute)

	c.Set("VNM", 42)
	v, ok := c.Get("VNM")
	if !ok || v.(int) != 42 {
		t.Errorf("Get = %v, %v; want 42, true", v, ok)
	}

	if _, ok := c.Get("FPT"); ok {
		t.Error("Get on absent key should miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)

	c.SetWithTTL("VNM", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("VNM"); ok {
		t.Error("expired entry should miss")
	}
}

func TestCacheInvalidateFlushKeys(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("VNM", 1)
	c.Set("FPT", 2)

	if got := len(c.Keys()); got != 2 {
		t.Errorf("Keys() = %d entries, want 2", got)
	}

	c.Invalidate("VNM")
	if _, ok := c.Get("VNM"); ok {
		t.Error("invalidated entry should miss")
	}

	c.Flush()
	if got := len(c.Keys()); got != 0 {
		t.Errorf("Keys() after Flush = %d entries, want 0", got)
	}
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestRateLimiterBlocksWhenExhausted(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := rl.Wait(ctx); err == nil {
		t.Error("second Wait should fail when the bucket is empty and the context expires")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	// Bucket is empty; the next token arrives after one refill period.
	if err := rl.Wait(ctx); err != nil {
		t.Errorf("Wait after refill: %v", err)
	}
}
