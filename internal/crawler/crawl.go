// Package crawler implements the resilient group-history crawl.
//
// The crawl drives a fragile remote automation session, so every remote
// call runs under a retry envelope for transient faults. Features include:
//   - Readiness polling with a soft timeout before paging begins
//   - Cursorless pagination that converges on observed duplicates
//   - Rate limiting between page requests to protect the shared session
//   - Partial capture when the remote fails after messages were collected
//   - Sequential multi-group runs aggregated into one summary
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/progress"
)

const (
	defaultReadyTimeout = time.Minute
	defaultReadyPoll    = 2 * time.Second
	defaultMaxMessages  = 5000
)

// Config holds the crawl pacing and bounding parameters. All values come
// from external configuration; zero values fall back to defaults.
type Config struct {
	ReadyTimeout time.Duration
	ReadyPoll    time.Duration
	MaxMessages  int
	PageDelay    time.Duration
	Retry        RetryConfig
}

func (c Config) withDefaults() Config {
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}

	if c.ReadyPoll <= 0 {
		c.ReadyPoll = defaultReadyPoll
	}

	if c.MaxMessages <= 0 {
		c.MaxMessages = defaultMaxMessages
	}

	return c
}

// Capture is the raw outcome of one group's loading phase.
type Capture struct {
	Messages   []domain.RawMessage
	Pages      int
	StopReason domain.StopReason
}

// Crawler pages one group's history at a time against the shared session.
type Crawler struct {
	client  Client
	cfg     Config
	limiter *rate.Limiter
	bus     *progress.Bus
	logger  zerolog.Logger
}

// New creates a Crawler. The inter-page delay is enforced by a rate
// limiter so a page is never requested sooner than PageDelay after the
// previous request, whatever the request outcome was.
func New(client Client, cfg Config, bus *progress.Bus, logger zerolog.Logger) *Crawler {
	cfg = cfg.withDefaults()

	return &Crawler{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.PageDelay), 1),
		bus:     bus,
		logger:  logger,
	}
}

// WaitReady polls the chat for accessibility until the ready timeout. Each
// probe runs under the retry envelope. Timing out is a soft failure: the
// crawl proceeds anyway and the caller records the unconfirmed state. Only
// context cancellation aborts.
func (c *Crawler) WaitReady(ctx context.Context, chatID string) (bool, error) {
	deadline := time.Now().Add(c.cfg.ReadyTimeout)

	for {
		err := withRetry(ctx, c.cfg.Retry, c.logger, opGetChat, func(ctx context.Context) error {
			_, err := c.client.Chat(ctx, chatID)

			return err
		})
		if err == nil {
			return true, nil
		}

		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if time.Now().After(deadline) {
			c.logger.Warn().Str(fieldGroupID, chatID).Msg("Chat readiness not confirmed before timeout, proceeding")

			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.cfg.ReadyPoll):
		}
	}
}

// Roster fetches the member roster under the retry envelope.
func (c *Crawler) Roster(ctx context.Context, groupID string) ([]domain.RawParticipant, error) {
	var members []domain.RawParticipant

	err := withRetry(ctx, c.cfg.Retry, c.logger, opListMembers, func(ctx context.Context) error {
		var err error
		members, err = c.client.GroupMembers(ctx, groupID)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

// Load runs the paging loop for one group. The remote keeps the pagination
// state, so the loop merges each page into an id-keyed set and stops on
// the first empty page, on zero dedup growth, or at the unique-message
// cap. On a remote failure after retries it returns whatever accumulated
// together with the error; the caller decides between partial and failed.
func (c *Crawler) Load(ctx context.Context, group domain.Group) (Capture, error) {
	seen := make(map[string]struct{})
	capture := Capture{}

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			capture.StopReason = domain.StopRemote

			return capture, err
		}

		var page []domain.RawMessage

		err := withRetry(ctx, c.cfg.Retry, c.logger, opLoadPage, func(ctx context.Context) error {
			var err error
			page, err = c.client.LoadEarlier(ctx, group.ID)

			return err
		})
		if err != nil {
			capture.StopReason = domain.StopRemote

			return capture, err
		}

		capture.Pages++
		observability.PagesFetched.Inc()

		if len(page) == 0 {
			capture.StopReason = domain.StopExhausted

			break
		}

		added := 0

		for _, msg := range page {
			if _, dup := seen[msg.ID]; dup {
				continue
			}

			seen[msg.ID] = struct{}{}
			capture.Messages = append(capture.Messages, msg)
			added++

			if len(capture.Messages) >= c.cfg.MaxMessages {
				break
			}
		}

		observability.MessagesCollected.Add(float64(added))
		c.publishLoad(ctx, group, len(capture.Messages))

		if len(capture.Messages) >= c.cfg.MaxMessages {
			capture.StopReason = domain.StopCapped
			c.logger.Info().Str(fieldGroup, group.Name).Int(fieldCount, len(capture.Messages)).Msg("Message cap reached")

			break
		}

		if added == 0 {
			capture.StopReason = domain.StopConverged

			break
		}
	}

	c.logger.Info().
		Str(fieldGroup, group.Name).
		Int(fieldCount, len(capture.Messages)).
		Int(fieldPages, capture.Pages).
		Str(fieldReason, string(capture.StopReason)).
		Msg("Loading finished")

	return capture, nil
}

func (c *Crawler) publishLoad(ctx context.Context, group domain.Group, count int) {
	if c.bus == nil {
		return
	}

	_ = c.bus.Publish(ctx, progress.Event{
		Stage:   progress.StageLoad,
		Group:   group.Name,
		Message: fmt.Sprintf("Loaded %d messages", count),
		Current: count,
		Total:   c.cfg.MaxMessages,
	})
}
