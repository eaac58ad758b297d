package opensky

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastRetryConfig keeps test backoff delays negligible.
func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:        maxRetries,
		InitialDelay:      time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// TestRetryWithBackoffResult tests the generic retry helper.
func TestRetryWithBackoffResult(t *testing.T) {
	t.Run("Succeeds immediately", func(t *testing.T) {
		calls := 0
		result, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(3), func() (int, error) {
			calls++
			return 42, nil
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if result != 42 {
			t.Errorf("Expected result 42, got %d", result)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call, got %d", calls)
		}
	})

	t.Run("Succeeds after failures", func(t *testing.T) {
		calls := 0
		result, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(3), func() (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("Expected success on third attempt, got: %v", err)
		}
		if result != "ok" {
			t.Errorf("Expected result ok, got %s", result)
		}
		if calls != 3 {
			t.Errorf("Expected 3 calls, got %d", calls)
		}
	})

	t.Run("Exhausts retries", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("permanent")
		_, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(2), func() (int, error) {
			calls++
			return 0, wantErr
		})
		if err == nil {
			t.Fatal("Expected error after exhausting retries")
		}
		if !errors.Is(err, wantErr) {
			t.Errorf("Expected wrapped original error, got: %v", err)
		}
		if calls != 3 {
			t.Errorf("Expected 3 calls (1 initial + 2 retries), got %d", calls)
		}
	})

	t.Run("Respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		cfg := fastRetryConfig(5)
		cfg.InitialDelay = time.Second

		_, err := RetryWithBackoffResult(ctx, cfg, func() (int, error) {
			calls++
			cancel()
			return 0, errors.New("fail")
		})
		if err == nil {
			t.Fatal("Expected cancellation error")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got: %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call before cancellation, got %d", calls)
		}
	})

	t.Run("Honors Retry-After on rate limit", func(t *testing.T) {
		calls := 0
		start := time.Now()
		_, err := RetryWithBackoffResult(context.Background(), fastRetryConfig(1), func() (int, error) {
			calls++
			if calls == 1 {
				return 0, &RateLimitError{
					StatusCode: 429,
					RetryAfter: 50 * time.Millisecond,
					Message:    "rate limit exceeded",
				}
			}
			return 7, nil
		})
		if err != nil {
			t.Fatalf("Expected success after rate limit, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
			t.Errorf("Expected to wait at least 50ms for Retry-After, waited %v", elapsed)
		}
	})
}

// TestRetryWithBackoff tests the error-only wrapper.
func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetryConfig(2), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}
