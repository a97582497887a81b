package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy(3, time.Millisecond, 10*time.Millisecond)
	transient := &FetchError{URL: "https://example.com", Err: errors.New("connection reset")}
	throttled := &FetchError{URL: "https://example.com", StatusCode: http.StatusTooManyRequests}
	notFound := &FetchError{URL: "https://example.com", StatusCode: http.StatusNotFound}

	require.False(t, p.ShouldRetry(nil, 1))
	require.True(t, p.ShouldRetry(transient, 1))
	require.True(t, p.ShouldRetry(fmt.Errorf("wrapped: %w", throttled), 2))
	require.False(t, p.ShouldRetry(transient, 3), "attempt budget exhausted")
	require.False(t, p.ShouldRetry(notFound, 1))
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(errors.New("no match"), 1))
}

func TestExponentialRetryPolicy_BackoffBounded(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy(5, 10*time.Millisecond, 40*time.Millisecond)
	for attempt := 1; attempt <= 6; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 40*time.Millisecond)
	}
}

func TestNewExponentialRetryPolicy_Defaults(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy(0, 0, 0)
	require.Equal(t, 3, p.MaxAttempts())
}

func TestSleepHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	require.NoError(t, Sleep(context.Background(), time.Millisecond))
}
