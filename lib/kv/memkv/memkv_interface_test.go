package memkv

import (
	"context"
	"testing"
	"time"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/kv/kvtest"
)

func Test(t *testing.T) {
	kvtest.RunBackendTests(t, "MemoryBackend", func(limits kv.Limits) kv.Backend {
		return NewMemoryBackend(&Options{Limits: limits})
	})
}

// TestWriteRateWindowSlides verifies that write budget is restored once
// timestamps age out of the sliding window.
func TestWriteRateWindowSlides(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	limits := kv.DefaultLimits()
	limits.MaxWriteOperationsPerMinute = 2
	backend := NewMemoryBackend(&Options{Limits: limits, Now: clock})
	defer backend.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := backend.Set(ctx, map[string][]byte{"k": []byte("v")}); err != nil {
			t.Fatalf("Set %d failed: %v", i, err)
		}
	}

	err := backend.Set(ctx, map[string][]byte{"k": []byte("v")})
	if !kv.IsRateLimitError(err) {
		t.Fatalf("Expected rate-limit error, got %v", err)
	}

	// One minute later the window is clear again
	now = now.Add(time.Minute + time.Second)
	if err := backend.Set(ctx, map[string][]byte{"k": []byte("v")}); err != nil {
		t.Errorf("Set after window slide failed: %v", err)
	}
}
