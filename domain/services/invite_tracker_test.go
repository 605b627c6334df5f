package services

import (
	"context"
	"errors"
	"testing"

	"raffler/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInviteLister serves a scripted sequence of invite listings
type fakeInviteLister struct {
	listings [][]*entities.InviteUsage
	errs     []error
	calls    int
}

func (f *fakeInviteLister) ListGuildInvites(ctx context.Context, guildID int64) ([]*entities.InviteUsage, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.listings) {
		return nil, errors.New("unexpected extra listing call")
	}
	return f.listings[i], nil
}

func usage(code string, uses int) *entities.InviteUsage {
	return &entities.InviteUsage{Code: code, Uses: uses}
}

func TestInviteTracker_DetectsIncrementedInvite(t *testing.T) {
	t.Parallel()

	lister := &fakeInviteLister{
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 3), usage("bbb", 1)}, // warm
			{usage("aaa", 3), usage("bbb", 2)}, // bbb used
		},
	}
	tracker := NewInviteTracker(lister, NewInviteUsageCache())

	tracker.WarmCache(context.Background(), 1)

	code, ok := tracker.DetectUsedInvite(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "bbb", code)
}

func TestInviteTracker_FirstIncreaseWins(t *testing.T) {
	t.Parallel()

	// Two members joined between snapshots; only the first incremented
	// invite in platform order is credited
	lister := &fakeInviteLister{
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 3), usage("bbb", 1)},
			{usage("aaa", 4), usage("bbb", 2)},
			{usage("aaa", 4), usage("bbb", 2)},
		},
	}
	tracker := NewInviteTracker(lister, NewInviteUsageCache())
	tracker.WarmCache(context.Background(), 1)

	code, ok := tracker.DetectUsedInvite(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "aaa", code)

	// The snapshot absorbed both increments, so the second join finds
	// nothing to attribute
	_, ok = tracker.DetectUsedInvite(context.Background(), 1)
	assert.False(t, ok)
}

func TestInviteTracker_NewInviteCountsFromZero(t *testing.T) {
	t.Parallel()

	lister := &fakeInviteLister{
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 3)},
			{usage("aaa", 3), usage("new1", 1)},
		},
	}
	tracker := NewInviteTracker(lister, NewInviteUsageCache())
	tracker.WarmCache(context.Background(), 1)

	code, ok := tracker.DetectUsedInvite(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "new1", code)
}

func TestInviteTracker_NoIncrementNoAttribution(t *testing.T) {
	t.Parallel()

	lister := &fakeInviteLister{
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 3)},
			{usage("aaa", 3)},
		},
	}
	tracker := NewInviteTracker(lister, NewInviteUsageCache())
	tracker.WarmCache(context.Background(), 1)

	_, ok := tracker.DetectUsedInvite(context.Background(), 1)
	assert.False(t, ok)
}

func TestInviteTracker_ListingFailureIsSilent(t *testing.T) {
	t.Parallel()

	lister := &fakeInviteLister{
		errs: []error{nil, errors.New("403 forbidden"), nil},
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 3)},
			nil,
			{usage("aaa", 4)},
		},
	}
	tracker := NewInviteTracker(lister, NewInviteUsageCache())
	tracker.WarmCache(context.Background(), 1)

	// Forbidden listing: no attribution, cache untouched
	_, ok := tracker.DetectUsedInvite(context.Background(), 1)
	assert.False(t, ok)

	// The old snapshot survives, so the next successful listing still
	// sees the increment
	code, ok := tracker.DetectUsedInvite(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "aaa", code)
}

func TestInviteTracker_GatewayEventsMaintainSnapshot(t *testing.T) {
	t.Parallel()

	lister := &fakeInviteLister{
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 0)},
		},
	}
	tracker := NewInviteTracker(lister, NewInviteUsageCache())

	// Created via gateway event, no warm needed
	tracker.HandleInviteCreate(1, "aaa", 0)

	code, ok := tracker.DetectUsedInvite(context.Background(), 1)
	assert.False(t, ok, "unused invite must not be attributed, got %s", code)

	tracker.HandleInviteDelete(1, "aaa")

	// After deletion the invite reappearing at zero is still not an increase
	lister.listings = append(lister.listings, []*entities.InviteUsage{usage("aaa", 0)})
	_, ok = tracker.DetectUsedInvite(context.Background(), 1)
	assert.False(t, ok)
}

func TestInviteTracker_GuildsAreIsolated(t *testing.T) {
	t.Parallel()

	cache := NewInviteUsageCache()
	tracker := NewInviteTracker(&fakeInviteLister{
		listings: [][]*entities.InviteUsage{
			{usage("aaa", 5)}, // guild 1 warm
			{usage("aaa", 2)}, // guild 2 detect
		},
	}, cache)

	tracker.WarmCache(context.Background(), 1)

	// Guild 2 has no snapshot; the invite counts as an increase from zero
	code, ok := tracker.DetectUsedInvite(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "aaa", code)
}
