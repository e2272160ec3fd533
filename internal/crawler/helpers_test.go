package crawler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
)

// scriptClient is a scriptable Client double. Unset functions return empty
// values, which reads as an accessible chat with no content.
type scriptClient struct {
	groupsFn  func(ctx context.Context) ([]domain.Group, error)
	membersFn func(ctx context.Context, groupID string) ([]domain.RawParticipant, error)
	chatFn    func(ctx context.Context, chatID string) (domain.Chat, error)
	loadFn    func(ctx context.Context, chatID string) ([]domain.RawMessage, error)

	groupsCalls  atomic.Int32
	membersCalls atomic.Int32
	chatCalls    atomic.Int32
	loadCalls    atomic.Int32
}

var _ Client = (*scriptClient)(nil)

func (s *scriptClient) Groups(ctx context.Context) ([]domain.Group, error) {
	s.groupsCalls.Add(1)

	if s.groupsFn == nil {
		return nil, nil
	}

	return s.groupsFn(ctx)
}

func (s *scriptClient) GroupMembers(ctx context.Context, groupID string) ([]domain.RawParticipant, error) {
	s.membersCalls.Add(1)

	if s.membersFn == nil {
		return nil, nil
	}

	return s.membersFn(ctx, groupID)
}

func (s *scriptClient) Chat(ctx context.Context, chatID string) (domain.Chat, error) {
	s.chatCalls.Add(1)

	if s.chatFn == nil {
		return domain.Chat{ID: chatID}, nil
	}

	return s.chatFn(ctx, chatID)
}

func (s *scriptClient) LoadEarlier(ctx context.Context, chatID string) ([]domain.RawMessage, error) {
	s.loadCalls.Add(1)

	if s.loadFn == nil {
		return nil, nil
	}

	return s.loadFn(ctx, chatID)
}

// loadStep is one scripted LoadEarlier outcome.
type loadStep struct {
	page []domain.RawMessage
	err  error
}

// stepScript serves the given steps in order, then empty pages forever.
func stepScript(steps ...loadStep) func(context.Context, string) ([]domain.RawMessage, error) {
	i := 0

	return func(context.Context, string) ([]domain.RawMessage, error) {
		if i >= len(steps) {
			return nil, nil
		}

		s := steps[i]
		i++

		return s.page, s.err
	}
}

func msg(id string, ts int64) domain.RawMessage {
	return domain.RawMessage{ID: id, Timestamp: domain.EpochSeconds(ts), Body: "text " + id}
}

// memWriter captures bundles in memory.
type memWriter struct {
	bundles []domain.ExportBundle
	err     error
}

func (w *memWriter) Write(_ context.Context, b domain.ExportBundle) (string, error) {
	if w.err != nil {
		return "", w.err
	}

	w.bundles = append(w.bundles, b)

	return "exports/test.json", nil
}

func testRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func testConfig() Config {
	return Config{
		ReadyTimeout: 20 * time.Millisecond,
		ReadyPoll:    time.Millisecond,
		MaxMessages:  100,
		Retry:        testRetry(),
	}
}
