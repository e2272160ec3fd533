package crawler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	errs "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/errors"
)

func threeGroupClient() *scriptClient {
	rosters := map[string]int{
		"small@g.us": 2,
		"mid@g.us":   5,
		"big@g.us":   9,
	}

	return &scriptClient{
		groupsFn: func(context.Context) ([]domain.Group, error) {
			return []domain.Group{
				{ID: "small@g.us", Name: "Book Club", MetaCount: 2},
				{ID: "big@g.us", Name: "Neighborhood", MetaCount: 4},
				{ID: "mid@g.us", Name: "Family", MetaCount: 5},
			}, nil
		},
		membersFn: func(_ context.Context, groupID string) ([]domain.RawParticipant, error) {
			n := rosters[groupID]
			members := make([]domain.RawParticipant, n)

			for i := range members {
				members[i] = domain.RawParticipant{ID: "member@c.us"}
			}

			return members, nil
		},
	}
}

func TestDiscovery_CachesAfterFirstSuccess(t *testing.T) {
	client := threeGroupClient()
	d := NewDiscovery(client, testRetry(), nil, zerolog.Nop())

	first, err := d.Groups(context.Background())
	require.NoError(t, err)

	second, err := d.Groups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), client.groupsCalls.Load(), "second call must come from the cache")
}

func TestDiscovery_FailureIsNotCached(t *testing.T) {
	calls := 0
	client := threeGroupClient()
	client.groupsFn = func(ctx context.Context) ([]domain.Group, error) {
		calls++
		if calls == 1 {
			return nil, errPermanent
		}

		return []domain.Group{{ID: "big@g.us", Name: "Neighborhood"}}, nil
	}

	d := NewDiscovery(client, testRetry(), nil, zerolog.Nop())

	_, err := d.Groups(context.Background())
	require.Error(t, err)

	groups, err := d.Groups(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestDiscovery_SortsByLiveMemberCount(t *testing.T) {
	d := NewDiscovery(threeGroupClient(), testRetry(), nil, zerolog.Nop())

	groups, err := d.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "Neighborhood", groups[0].Name)
	assert.Equal(t, 9, groups[0].MemberCount)
	assert.Equal(t, "Family", groups[1].Name)
	assert.Equal(t, "Book Club", groups[2].Name)
}

func TestDiscovery_MemberCountFallsBackToMetadata(t *testing.T) {
	client := threeGroupClient()
	client.membersFn = func(_ context.Context, groupID string) ([]domain.RawParticipant, error) {
		if groupID == "big@g.us" {
			return nil, errPermanent
		}

		return []domain.RawParticipant{{ID: "member@c.us"}}, nil
	}

	d := NewDiscovery(client, testRetry(), nil, zerolog.Nop())

	groups, err := d.Groups(context.Background())
	require.NoError(t, err, "a roster failure must not fail discovery")

	var big domain.Group

	for _, g := range groups {
		if g.ID == "big@g.us" {
			big = g
		}
	}

	assert.Equal(t, 4, big.MemberCount, "expected the metadata-embedded count")
}

func TestDiscovery_FindByName(t *testing.T) {
	d := NewDiscovery(threeGroupClient(), testRetry(), nil, zerolog.Nop())

	group, err := d.Find(context.Background(), "Family")
	require.NoError(t, err)
	assert.Equal(t, "mid@g.us", group.ID)

	_, err = d.Find(context.Background(), "No Such Group")
	assert.ErrorIs(t, err, errs.ErrGroupNotFound)
}

func TestDiscovery_FindIgnoresDirectionalMarks(t *testing.T) {
	client := threeGroupClient()
	client.groupsFn = func(context.Context) ([]domain.Group, error) {
		return []domain.Group{{ID: "rtl@g.us", Name: "‏משפחה‎"}}, nil
	}

	d := NewDiscovery(client, testRetry(), nil, zerolog.Nop())

	group, err := d.Find(context.Background(), "משפחה")
	require.NoError(t, err)
	assert.Equal(t, "rtl@g.us", group.ID)
}
