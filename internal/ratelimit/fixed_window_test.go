package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
)

func TestRedisFixedWindow_BlocksAfterLimit(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	limiter, err := NewRedisFixedWindow(client, "test", 2, time.Minute, mock)
	if err != nil {
		t.Fatalf("creating limiter: %v", err)
	}
	ctx := context.Background()

	if !limiter.Allow(ctx, "admin@kafe.com") || !limiter.Allow(ctx, "ADMIN@kafe.com ") {
		t.Fatal("expected first two attempts to pass")
	}
	if limiter.Allow(ctx, "admin@kafe.com") {
		t.Fatal("expected third attempt to be blocked")
	}
	if !limiter.Allow(ctx, "other@kafe.com") {
		t.Error("expected other keys to have their own quota")
	}

	mock.Add(time.Minute)
	if !limiter.Allow(ctx, "admin@kafe.com") {
		t.Error("expected a new window to reset the quota")
	}
}

func TestRedisFixedWindow_FailsClosed(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter, _ := NewRedisFixedWindow(client, "", 5, time.Minute, nil)
	server.Close()

	if limiter.Allow(context.Background(), "admin@kafe.com") {
		t.Error("expected limiter to deny when redis is down")
	}
}

func TestMemoryFixedWindow(t *testing.T) {
	mock := clock.NewMock()
	limiter, err := NewMemoryFixedWindow(1, time.Minute, mock)
	if err != nil {
		t.Fatalf("creating limiter: %v", err)
	}
	ctx := context.Background()

	if !limiter.Allow(ctx, "a") {
		t.Fatal("expected first attempt to pass")
	}
	if limiter.Allow(ctx, "a") {
		t.Fatal("expected second attempt to be blocked")
	}
	mock.Add(time.Minute)
	if !limiter.Allow(ctx, "a") {
		t.Error("expected quota to reset")
	}
}

func TestNewLimiters_RejectNonPositive(t *testing.T) {
	if _, err := NewMemoryFixedWindow(0, time.Minute, nil); err == nil {
		t.Error("expected error for zero limit")
	}
	if _, err := NewRedisFixedWindow(nil, "", 1, 0, nil); err == nil {
		t.Error("expected error for zero window")
	}
}
