package util

import (
	"context"
	"testing"
	"time"
)

func TestNewPerMinute(t *testing.T) {
	l := NewPerMinute(1)
	if l.PerMinute() != 1 {
		t.Fatalf("expected rate 1, got %d", l.PerMinute())
	}
	if !l.Allow() {
		t.Fatal("expected first rebuild to be allowed")
	}
	if l.Allow() {
		t.Fatal("expected second rebuild within the minute to be rejected")
	}
	if d := l.Delay(); d <= 0 || d > time.Minute {
		t.Fatalf("expected a delay within one minute, got %s", d)
	}
	if l.Allow() {
		t.Fatal("Delay must not consume a token")
	}
}

func TestNewPerMinute_Unlimited(t *testing.T) {
	l := NewPerMinute(0)
	for i := range 100 {
		if !l.Allow() {
			t.Fatalf("expected unlimited limiter to allow event %d", i)
		}
	}
	if d := l.Delay(); d != 0 {
		t.Fatalf("expected no delay, got %s", d)
	}
	if l.PerMinute() != 0 {
		t.Fatalf("expected rate 0, got %d", l.PerMinute())
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewPerMinute(1)
	l.Allow()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected wait to fail once the context expires")
	}
}
