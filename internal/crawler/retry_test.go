package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test error sentinels.
var (
	errDetachedFrame    = errors.New("Protocol error (Runtime.callFunctionOn): detached Frame")
	errContextDestroyed = errors.New("Execution context was destroyed, most likely because of a navigation")
	errLostContext      = errors.New("Cannot find context with specified id")
	errMalformed        = errors.New("malformed response from page evaluation")
	errPermanent        = errors.New("group vanished")
)

// retryOp tracks call count and fails until a configured attempt.
type retryOp struct {
	callCount  atomic.Int32
	errorUntil int32
	err        error
}

func (o *retryOp) run(context.Context) error {
	if o.callCount.Add(1) <= o.errorUntil {
		return o.err
	}

	return nil
}

func TestWithRetry_RecoversFromDetachedFrame(t *testing.T) {
	op := &retryOp{errorUntil: 1, err: errDetachedFrame}

	err := withRetry(context.Background(), testRetry(), zerolog.Nop(), "op", op.run)

	require.NoError(t, err)
	assert.Equal(t, int32(2), op.callCount.Load(), "expected 2 calls (1 failure + 1 success)")
}

func TestWithRetry_ExhaustsAndReturnsLastErrorUnchanged(t *testing.T) {
	op := &retryOp{errorUntil: 10, err: errContextDestroyed}
	cfg := testRetry()

	err := withRetry(context.Background(), cfg, zerolog.Nop(), "op", op.run)

	require.Error(t, err)
	assert.Same(t, errContextDestroyed, err, "last error must propagate unchanged")
	assert.Equal(t, int32(cfg.MaxRetries+1), op.callCount.Load())
}

func TestWithRetry_NonTransientPropagatesImmediately(t *testing.T) {
	op := &retryOp{errorUntil: 10, err: errPermanent}

	err := withRetry(context.Background(), testRetry(), zerolog.Nop(), "op", op.run)

	require.Error(t, err)
	assert.Same(t, errPermanent, err)
	assert.Equal(t, int32(1), op.callCount.Load(), "should not retry a non-transient error")
}

func TestWithRetry_NoRetryOnContextCanceled(t *testing.T) {
	op := &retryOp{errorUntil: 10, err: context.Canceled}

	err := withRetry(context.Background(), testRetry(), zerolog.Nop(), "op", op.run)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), op.callCount.Load())
}

func TestWithRetry_CancellationDuringBackoff(t *testing.T) {
	op := &retryOp{errorUntil: 10, err: errDetachedFrame}
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := withRetry(ctx, cfg, zerolog.Nop(), "op", op.run)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), op.callCount.Load(), "backoff wait must abort instead of retrying")
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "execution context destroyed", err: errContextDestroyed, want: true},
		{name: "cannot find context", err: errLostContext, want: true},
		{name: "detached frame mixed case", err: errDetachedFrame, want: true},
		{name: "frame got detached", err: errors.New("navigation failed: frame got detached"), want: true},
		{name: "protocol error", err: errors.New("Protocol error (Page.navigate): Session closed"), want: true},
		{name: "malformed response", err: errMalformed, want: true},
		{name: "wrapped transient", err: fmt.Errorf("load page: %w", errDetachedFrame), want: true},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "cancellation wins over transient text", err: fmt.Errorf("protocol error: %w", context.Canceled), want: false},
		{name: "random error", err: errPermanent, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 8 * time.Second},
		{attempt: 4, want: 16 * time.Second},
		{attempt: 5, want: 30 * time.Second},
		{attempt: 9, want: 30 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryDelay_CapAlignedWithDoubling(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 2 * time.Second, MaxDelay: 8 * time.Second}

	if got := cfg.delay(3); got != 8*time.Second {
		t.Errorf("delay(3) = %v, want %v", got, 8*time.Second)
	}

	if got := cfg.delay(4); got != 8*time.Second {
		t.Errorf("delay(4) = %v, want %v", got, 8*time.Second)
	}
}
