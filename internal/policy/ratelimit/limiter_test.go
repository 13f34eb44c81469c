package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/filmoteca/chartfetch/internal/metrics"
)

func TestLimiterWait(t *testing.T) {
	metrics.Init()

	// 10 RPS means one token every 100ms after the initial burst.
	l := New(Config{RPS: 10, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://www.imdb.com/chart/top/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "https://www.imdb.com/chart/top/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited := time.Since(start); waited < 80*time.Millisecond {
		t.Errorf("expected second call to stall ~100ms, got %v", waited)
	}
}

func TestLimiterUnlimitedByDefault(t *testing.T) {
	metrics.Init()

	l := New(Config{})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, "https://www.imdb.com/chart/top/"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		t.Errorf("expected zero-RPS config to disable throttling, took %v", waited)
	}
}

func TestLimiterHostsIndependent(t *testing.T) {
	metrics.Init()

	// 1 RPS per host, so a second token for the same host takes a second.
	l := New(Config{RPS: 1, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://a.example/1"); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := l.Wait(ctx, "https://b.example/1"); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Error("second host blocked by the first host's bucket")
	}
}

func TestLimiterWaitCanceled(t *testing.T) {
	metrics.Init()

	l := New(Config{RPS: 0.001, Burst: 1})
	ctx := context.Background()

	// Drain the only token, then cancel while waiting for the next.
	if err := l.Wait(ctx, "https://slow.example/"); err != nil {
		t.Fatal(err)
	}

	canceled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(canceled, "https://slow.example/"); err == nil {
		t.Fatal("expected context cancellation error")
	}
}
