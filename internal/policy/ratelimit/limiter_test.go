package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterWaitDelaysSecondRequest(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 10, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://cn.bing.com/dict/search?q=run"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "https://cn.bing.com/dict/search?q=flit"); err != nil {
		t.Fatal(err)
	}
	if dur := time.Since(start); dur < 80*time.Millisecond {
		t.Errorf("expected wait ~100ms, got %v", dur)
	}
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 1, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://a.example.com/x"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "https://b.example.com/x"); err != nil {
		t.Fatal(err)
	}
	if dur := time.Since(start); dur > 50*time.Millisecond {
		t.Errorf("expected no wait for a different host, got %v", dur)
	}
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx, "https://example.com"); err != nil {
			t.Fatal(err)
		}
	}
	if dur := time.Since(start); dur > 100*time.Millisecond {
		t.Errorf("expected unlimited rate, took %v", dur)
	}
}

func TestLimiterWaitCanceled(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.1, Burst: 1})
	ctx := context.Background()
	if err := l.Wait(ctx, "https://example.com"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "https://example.com"); err == nil {
		t.Fatal("expected error when the context ends before a token is available")
	}
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	if got := hostOf("https://Audio.example.com:443/a.mp3"); got != "Audio.example.com" {
		t.Errorf("unexpected host %q", got)
	}
	if got := hostOf("::bad"); got != "unknown" {
		t.Errorf("unexpected host %q", got)
	}
}
