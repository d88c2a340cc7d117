package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	if !IsRetryableError(fmt.Errorf("wrapped: %w", statusErr(429))) {
		t.Fatalf("429 should retry")
	}
	if IsRetryableError(statusErr(400)) {
		t.Fatalf("400 should not retry")
	}
	if IsRetryableError(context.Canceled) {
		t.Fatalf("canceled should not retry")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatalf("deadline should retry")
	}
}

func TestRetryAfterDurationCapped(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("retry after: want=10s got=%s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("fallback: want=1s got=%s", got)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("Sleep: want context.Canceled got=%v", err)
	}
}
