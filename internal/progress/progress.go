// Package progress carries crawl progress events from the runner to a
// renderer over a bounded channel. Publishing blocks once the buffer fills,
// so a consumer should drain the bus for the lifetime of the run.
package progress

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrClosed is returned when publishing to a closed Bus.
var ErrClosed = errors.New("progress bus closed")

// Stage names a phase of a single group crawl.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageLoad     Stage = "load"
	StageEnrich   Stage = "enrich"
	StageAnalyze  Stage = "analyze"
	StageExport   Stage = "export"
)

// Percent is the nominal completion of a group crawl once the stage has
// finished.
func (s Stage) Percent() int {
	switch s {
	case StageLoad:
		return 40
	case StageEnrich:
		return 70
	case StageAnalyze:
		return 85
	case StageExport:
		return 100
	default:
		return 0
	}
}

// Event is one progress update. Current and Total are optional counters for
// stages that report incremental work, such as message loading.
type Event struct {
	Group   string `json:"group"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// Bus is a bounded event channel with an idempotent close.
type Bus struct {
	events chan Event
	done   chan struct{}
	closed atomic.Bool
}

func NewBus() *Bus {
	return &Bus{
		events: make(chan Event, 100),
		done:   make(chan struct{}),
	}
}

// Publish queues an event. It blocks while the buffer is full and returns
// ErrClosed once the bus is closed.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if b.closed.Load() {
		return ErrClosed
	}
	select {
	case b.events <- ev:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next blocks until an event arrives. The second return is false once the
// bus is closed and drained, or the context is cancelled. Events buffered
// before Close are still delivered.
func (b *Bus) Next(ctx context.Context) (Event, bool) {
	select {
	case ev, ok := <-b.events:
		return ev, ok
	default:
	}

	select {
	case ev, ok := <-b.events:
		return ev, ok
	case <-b.done:
		return Event{}, false
	case <-ctx.Done():
		return Event{}, false
	}
}

func (b *Bus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
