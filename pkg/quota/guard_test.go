package quota

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestGuard_LocalMode(t *testing.T) {
	guard := NewGuard(nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	// Healthy by default
	allowed, err := guard.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("Fresh guard should allow requests")
	}

	// Saturate the window
	for i := 0; i < BlockThreshold; i++ {
		if err := guard.RecordQuotaError(ctx); err != nil {
			t.Fatalf("RecordQuotaError() error = %v", err)
		}
	}

	allowed, err = guard.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("Saturated guard should block requests")
	}

	// Reset recovers
	if err := guard.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	allowed, _ = guard.ShouldAllowRequest(ctx)
	if !allowed {
		t.Error("Reset guard should allow requests")
	}
}

func TestGuard_LocalWindowExpiry(t *testing.T) {
	guard := NewGuard(nil, 50*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < BlockThreshold; i++ {
		_ = guard.RecordQuotaError(ctx)
	}
	if allowed, _ := guard.ShouldAllowRequest(ctx); allowed {
		t.Fatal("Expected block inside window")
	}

	time.Sleep(60 * time.Millisecond)

	if allowed, _ := guard.ShouldAllowRequest(ctx); !allowed {
		t.Error("Expected window to drain after expiry")
	}
}

func TestGuard_RedisMode(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	t.Cleanup(func() {
		client.Del(context.Background(), RedisKeyErrorCount)
		client.Close()
	})

	guard := NewGuard(client, time.Minute, zerolog.Nop())
	if err := guard.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	for i := 0; i < BlockThreshold-1; i++ {
		if err := guard.RecordQuotaError(ctx); err != nil {
			t.Fatalf("RecordQuotaError() error = %v", err)
		}
	}

	state, err := guard.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.QuotaErrors != BlockThreshold-1 {
		t.Errorf("QuotaErrors = %d, want %d", state.QuotaErrors, BlockThreshold-1)
	}
	if !state.IsHealthy {
		t.Error("State below threshold should be healthy")
	}

	if allowed, _ := guard.ShouldAllowRequest(ctx); !allowed {
		t.Error("Guard below threshold should allow requests")
	}

	if err := guard.RecordQuotaError(ctx); err != nil {
		t.Fatalf("RecordQuotaError() error = %v", err)
	}
	if allowed, _ := guard.ShouldAllowRequest(ctx); allowed {
		t.Error("Guard at threshold should block requests")
	}
}
