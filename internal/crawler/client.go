package crawler

import (
	"context"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
)

// Client is the remote automation surface the orchestrator drives. All four
// calls may fail with the transient fault family handled by the retry
// envelope; implementations should return raw errors and leave retrying to
// the caller.
type Client interface {
	// Groups lists every group chat visible to the session.
	Groups(ctx context.Context) ([]domain.Group, error)

	// GroupMembers returns the member roster of one group.
	GroupMembers(ctx context.Context, groupID string) ([]domain.RawParticipant, error)

	// Chat probes one chat for accessibility. It is the readiness check: a
	// successful return means the session can address the chat.
	Chat(ctx context.Context, chatID string) (domain.Chat, error)

	// LoadEarlier requests the next page of earlier history for a chat. The
	// remote keeps the pagination state; pages may overlap with previously
	// returned messages and an empty page means no history is left.
	LoadEarlier(ctx context.Context, chatID string) ([]domain.RawMessage, error)
}
