package source

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterSpacing(t *testing.T) {
	r := NewRateLimiter(20)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := r.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("elapsed=%s", elapsed)
	}
}

func TestRateLimiterCanceled(t *testing.T) {
	r := NewRateLimiter(1)
	_ = r.Wait(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
