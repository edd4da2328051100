package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	time.Sleep(250 * time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("Expected requests to be cleared after reset")
	}
}

func TestSlidingWindowWaitBlocksUntilSlot(t *testing.T) {
	sw := NewSlidingWindow(1, 150*time.Millisecond)
	ctx := context.Background()

	if err := sw.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	start := time.Now()
	if err := sw.Wait(ctx); err != nil {
		t.Fatalf("second Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("second Wait() returned after %v, expected to block", elapsed)
	}
}

func TestSlidingWindowWaitCancelled(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	sw.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sw.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestPerMinute(t *testing.T) {
	if _, ok := PerMinute(0).(Unlimited); !ok {
		t.Error("PerMinute(0) should be unlimited")
	}
	if _, ok := PerMinute(-5).(Unlimited); !ok {
		t.Error("PerMinute(-5) should be unlimited")
	}

	sw, ok := PerMinute(30).(*SlidingWindow)
	if !ok {
		t.Fatal("PerMinute(30) should be a sliding window")
	}
	if sw.maxRequests != 30 || sw.windowSize != time.Minute {
		t.Errorf("unexpected window %d/%v", sw.maxRequests, sw.windowSize)
	}
}

func TestUnlimited(t *testing.T) {
	var l Unlimited
	for i := 0; i < 1000; i++ {
		if !l.Allow() {
			t.Fatal("Unlimited denied a request")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() on cancelled ctx = %v", err)
	}
}
