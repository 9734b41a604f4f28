package writeq

import (
	"testing"
	"time"
)

func TestRateLimiterDefersAtThreshold(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(10) // threshold = ceil(0.8*10) = 8

	for i := 0; i < 7; i++ {
		limiter.RecordWrite(now)
	}
	if limiter.ShouldDefer(now) {
		t.Errorf("Expected no deferral at 7/10 writes")
	}

	limiter.RecordWrite(now)
	if !limiter.ShouldDefer(now) {
		t.Errorf("Expected deferral at 8/10 writes")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(5) // threshold = 4

	for i := 0; i < 4; i++ {
		limiter.RecordWrite(now.Add(time.Duration(i) * time.Second))
	}
	if !limiter.ShouldDefer(now.Add(4 * time.Second)) {
		t.Fatalf("Expected deferral with 4 writes in window")
	}

	// 61 seconds after the first write, one timestamp has aged out
	later := now.Add(61 * time.Second)
	if limiter.ShouldDefer(later) {
		t.Errorf("Expected no deferral after window slid past first write")
	}
	if got := limiter.WindowCount(later); got != 3 {
		t.Errorf("Expected 3 writes left in window, got %d", got)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0)
	now := time.Unix(1700000000, 0)

	for i := 0; i < 100; i++ {
		limiter.RecordWrite(now)
	}
	if limiter.ShouldDefer(now) {
		t.Errorf("Disabled limiter must never defer")
	}
}
