package services

import (
	"context"
	"sync"

	"raffler/domain/entities"

	log "github.com/sirupsen/logrus"
)

// InviteLister abstracts the platform capability of listing a guild's
// invites with their current use counts. The bot session implements it;
// tests inject fakes. ErrForbidden from the lister is treated as a
// silent miss, never surfaced.
type InviteLister interface {
	ListGuildInvites(ctx context.Context, guildID int64) ([]*entities.InviteUsage, error)
}

// InviteUsageCache holds the last-known invite use counts per guild.
// All read-modify-write cycles for a guild happen under that guild's
// lock so concurrent near-simultaneous joins cannot lose updates.
type InviteUsageCache struct {
	mu     sync.Mutex
	guilds map[int64]*guildInvites
}

type guildInvites struct {
	mu   sync.Mutex
	uses map[string]int
}

// NewInviteUsageCache creates an empty cache
func NewInviteUsageCache() *InviteUsageCache {
	return &InviteUsageCache{
		guilds: make(map[int64]*guildInvites),
	}
}

// guild returns the per-guild entry, creating it on first use
func (c *InviteUsageCache) guild(guildID int64) *guildInvites {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.guilds[guildID]
	if !ok {
		g = &guildInvites{uses: make(map[string]int)}
		c.guilds[guildID] = g
	}
	return g
}

// InviteTracker infers which invite caused a member arrival by diffing
// freshly fetched use counts against the cached snapshot. The platform
// offers no direct signal, so attribution is best effort: under
// concurrent invite use only the first incremented invite in platform
// order is credited and the rest are absorbed into the snapshot.
type InviteTracker struct {
	lister InviteLister
	cache  *InviteUsageCache
}

// NewInviteTracker creates a tracker backed by the given lister and cache
func NewInviteTracker(lister InviteLister, cache *InviteUsageCache) *InviteTracker {
	return &InviteTracker{
		lister: lister,
		cache:  cache,
	}
}

// WarmCache snapshots the guild's current invite usage. Called on ready
// and on guild join. A Forbidden listing leaves the cache untouched.
func (t *InviteTracker) WarmCache(ctx context.Context, guildID int64) {
	invites, err := t.lister.ListGuildInvites(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Debug("Unable to warm invite cache")
		return
	}

	g := t.cache.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uses = usageMap(invites)
}

// HandleInviteCreate records a newly created invite in the snapshot
func (t *InviteTracker) HandleInviteCreate(guildID int64, code string, uses int) {
	g := t.cache.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uses[code] = uses
}

// HandleInviteDelete drops a deleted invite from the snapshot
func (t *InviteTracker) HandleInviteDelete(guildID int64, code string) {
	g := t.cache.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.uses, code)
}

// DetectUsedInvite fetches the guild's invites and returns the code of
// the first invite, in platform order, whose use count increased since
// the cached snapshot. An invite not present in the snapshot counts as
// an increase from zero. The snapshot is always replaced wholesale with
// the fresh counts, even when no invite is attributed, so a missed
// attribution is not recoverable later.
//
// Returns ("", false) when listing is forbidden or no invite
// incremented.
func (t *InviteTracker) DetectUsedInvite(ctx context.Context, guildID int64) (string, bool) {
	invites, err := t.lister.ListGuildInvites(ctx, guildID)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Debug("Unable to list invites for attribution")
		return "", false
	}

	g := t.cache.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	var used string
	for _, inv := range invites {
		if inv.Uses > g.uses[inv.Code] {
			used = inv.Code
			break
		}
	}

	g.uses = usageMap(invites)

	if used == "" {
		return "", false
	}
	return used, true
}

func usageMap(invites []*entities.InviteUsage) map[string]int {
	m := make(map[string]int, len(invites))
	for _, inv := range invites {
		m[inv.Code] = inv.Uses
	}
	return m
}
