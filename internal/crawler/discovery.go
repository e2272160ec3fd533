package crawler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	errs "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/errors"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/progress"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/waid"
)

// Discovery lists the session's groups and caches the result for the
// process lifetime. The cache starts empty and is populated by the first
// successful listing; re-authenticating the session replaces the process,
// so nothing ever invalidates it in place.
type Discovery struct {
	client Client
	retry  RetryConfig
	bus    *progress.Bus
	logger zerolog.Logger

	mu     sync.Mutex
	groups []domain.Group
	loaded bool
}

// NewDiscovery creates a Discovery over the given session client. The bus
// may be nil when no progress consumer exists.
func NewDiscovery(client Client, retry RetryConfig, bus *progress.Bus, logger zerolog.Logger) *Discovery {
	return &Discovery{
		client: client,
		retry:  retry,
		bus:    bus,
		logger: logger,
	}
}

// Groups returns all visible groups sorted by member count, largest first.
// The first successful call fetches the list and serially enriches each
// group with a live member count; a failed roster call falls back to the
// metadata-embedded count instead of failing discovery. Later calls return
// the cached list.
func (d *Discovery) Groups(ctx context.Context) ([]domain.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return d.groups, nil
	}

	var groups []domain.Group

	err := withRetry(ctx, d.retry, d.logger, opListGroups, func(ctx context.Context) error {
		var err error
		groups, err = d.client.Groups(ctx)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	for i := range groups {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		groups[i].MemberCount = d.memberCount(ctx, groups[i])
		d.publish(ctx, groups[i].Name, i+1, len(groups))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].MemberCount > groups[j].MemberCount
	})

	d.groups = groups
	d.loaded = true

	observability.DiscoveredGroups.Set(float64(len(groups)))
	d.logger.Info().Int(fieldCount, len(groups)).Msg("Discovered groups")

	return groups, nil
}

// Find returns the group whose display name matches the requested name.
// Names are compared after directional-mark stripping so copy-pasted
// right-to-left names match their on-screen form.
func (d *Discovery) Find(ctx context.Context, name string) (domain.Group, error) {
	groups, err := d.Groups(ctx)
	if err != nil {
		return domain.Group{}, err
	}

	want := waid.StripDirectionalMarks(name)

	for _, g := range groups {
		if waid.StripDirectionalMarks(g.Name) == want {
			return g, nil
		}
	}

	return domain.Group{}, fmt.Errorf("%w: %q", errs.ErrGroupNotFound, name)
}

// memberCount fetches the live roster size, falling back to the count
// embedded in the group metadata when the roster call fails.
func (d *Discovery) memberCount(ctx context.Context, g domain.Group) int {
	var members []domain.RawParticipant

	err := withRetry(ctx, d.retry, d.logger, opListMembers, func(ctx context.Context) error {
		var err error
		members, err = d.client.GroupMembers(ctx, g.ID)

		return err
	})
	if err != nil {
		d.logger.Warn().Err(err).Str(fieldGroup, g.Name).Msg("Member count fetch failed, using metadata count")

		return g.MetaCount
	}

	return len(members)
}

func (d *Discovery) publish(ctx context.Context, name string, current, total int) {
	if d.bus == nil {
		return
	}

	_ = d.bus.Publish(ctx, progress.Event{
		Stage:   progress.StageDiscover,
		Group:   name,
		Message: fmt.Sprintf("Scanned %s", name),
		Current: current,
		Total:   total,
	})
}
