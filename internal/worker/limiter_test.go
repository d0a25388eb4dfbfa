package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_AllowsBurst(t *testing.T) {
	limiter := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("openai") {
			t.Fatalf("Call %d within burst should be allowed", i)
		}
	}
	if limiter.Allow("openai") {
		t.Error("Call beyond burst should be denied")
	}
}

func TestLimiter_ProvidersAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("openai") {
		t.Fatal("First openai call should be allowed")
	}
	if limiter.Allow("openai") {
		t.Error("Second openai call should be denied")
	}
	if !limiter.Allow("ollama") {
		t.Error("First ollama call should be allowed despite openai exhaustion")
	}
}

func TestLimiter_WaitHonorsContextCancellation(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.Allow("openai") // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "openai")
	if err == nil {
		t.Error("Expected error when context expires before a token is available")
	}
}

func TestLimiter_DefaultsForInvalidSettings(t *testing.T) {
	limiter := NewLimiter(0, 0)
	if !limiter.Allow("openai") {
		t.Error("Limiter with corrected defaults should allow the first call")
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewLimiter(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			providers := []string{"openai", "anthropic", "gemini", "ollama"}
			limiter.Allow(providers[n%len(providers)])
		}(i)
	}
	wg.Wait()
}
