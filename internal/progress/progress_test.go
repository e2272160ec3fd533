package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_publishThenNext(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ctx := context.Background()

	require.NoError(t, b.Publish(ctx, Event{Group: "Family", Stage: StageLoad, Current: 50}))
	require.NoError(t, b.Publish(ctx, Event{Group: "Family", Stage: StageEnrich}))

	first, ok := b.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, StageLoad, first.Stage)
	assert.Equal(t, 50, first.Current)

	second, ok := b.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, StageEnrich, second.Stage)
}

func TestBus_publishAfterClose(t *testing.T) {
	b := NewBus()
	b.Close()

	err := b.Publish(context.Background(), Event{Stage: StageLoad})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBus_nextAfterClose(t *testing.T) {
	b := NewBus()
	b.Close()

	_, ok := b.Next(context.Background())
	assert.False(t, ok)
}

func TestBus_drainsBufferedEventsAfterClose(t *testing.T) {
	b := NewBus()

	ctx := context.Background()

	require.NoError(t, b.Publish(ctx, Event{Stage: StageLoad, Current: 1}))
	require.NoError(t, b.Publish(ctx, Event{Stage: StageExport, Current: 2}))
	b.Close()

	first, ok := b.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, first.Current)

	second, ok := b.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, second.Current)

	_, ok = b.Next(ctx)
	assert.False(t, ok)
}

func TestBus_closeIsIdempotent(t *testing.T) {
	b := NewBus()
	b.Close()
	b.Close()
}

func TestBus_nextHonorsContext(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		defer close(done)

		_, ok := b.Next(ctx)
		assert.False(t, ok)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Next did not unblock on context cancellation")
	}
}

func TestBus_buffersWithoutConsumer(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, b.Publish(ctx, Event{Stage: StageLoad, Current: i}))
	}
}

func TestStagePercent(t *testing.T) {
	tests := []struct {
		stage Stage
		want  int
	}{
		{StageDiscover, 0},
		{StageLoad, 40},
		{StageEnrich, 70},
		{StageAnalyze, 85},
		{StageExport, 100},
	}

	for _, tt := range tests {
		if got := tt.stage.Percent(); got != tt.want {
			t.Errorf("Percent(%q) = %d, want %d", tt.stage, got, tt.want)
		}
	}
}
