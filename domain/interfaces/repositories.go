package interfaces

import (
	"context"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"
)

// LotteryRepository defines data access for the active/completed lottery buckets
type LotteryRepository interface {
	// Create persists a new lottery in the active bucket.
	// Returns entities.ErrDuplicateName when the name already exists in
	// either bucket for the guild.
	Create(ctx context.Context, lottery *entities.Lottery) error

	// GetByName retrieves a lottery by its name regardless of bucket
	GetByName(ctx context.Context, guildID int64, name string) (*entities.Lottery, error)

	// GetDueLotteries returns active lotteries across all guilds whose
	// end time has passed, earliest first
	GetDueLotteries(ctx context.Context, asOf time.Time) ([]*entities.Lottery, error)

	// GetNextEndTime returns the earliest end time among active lotteries,
	// or nil when none are pending
	GetNextEndTime(ctx context.Context) (*time.Time, error)

	// ListActive returns the guild's active lotteries, soonest draw first
	ListActive(ctx context.Context, guildID int64) ([]*entities.Lottery, error)

	// Complete atomically moves a lottery from the active bucket to the
	// completed bucket. Returns false if the lottery was not active, which
	// makes the move idempotent under concurrent draws.
	Complete(ctx context.Context, lotteryID int64, at time.Time) (bool, error)

	// SetMessage records the posted solicitation message ID
	SetMessage(ctx context.Context, lotteryID, messageID int64) error
}

// DrawResultRepository defines data access for persisted draw outcomes
type DrawResultRepository interface {
	// Create persists the original draw result for a lottery
	Create(ctx context.Context, result *entities.DrawResult) error

	// GetByLottery retrieves the stored result for a lottery, nil if the
	// lottery completed with an empty pool
	GetByLottery(ctx context.Context, lotteryID int64) (*entities.DrawResult, error)
}

// ReferralRepository defines data access for the referral ledger
type ReferralRepository interface {
	// UpsertInvite records or replaces invite ownership for a code
	UpsertInvite(ctx context.Context, guildID int64, code string, ownerID int64) error

	// DeleteInvite removes a tracked invite code
	DeleteInvite(ctx context.Context, guildID int64, code string) error

	// GetInviteOwner returns the owner of a code, nil if untracked
	GetInviteOwner(ctx context.Context, guildID int64, code string) (*entities.ReferralInvite, error)

	// GetInviteByOwner returns a member's current tracked invite, nil if none
	GetInviteByOwner(ctx context.Context, guildID, ownerID int64) (*entities.ReferralInvite, error)

	// InsertEdge writes a referral edge if and only if none exists yet for
	// the invited member. Returns true when the edge was inserted.
	InsertEdge(ctx context.Context, edge *entities.ReferralEdge) (bool, error)

	// GetEdge returns the referral edge for an invited member, nil if none
	GetEdge(ctx context.Context, guildID, invitedID int64) (*entities.ReferralEdge, error)

	// GetEdgesByInviter returns all members invited by a given inviter
	GetEdgesByInviter(ctx context.Context, guildID, inviterID int64) ([]*entities.ReferralEdge, error)

	// CountEdgesSince counts an inviter's edges whose invited member joined
	// at or after the given time
	CountEdgesSince(ctx context.Context, guildID, inviterID int64, since time.Time) (int64, error)

	// IncrementPoints adds one referral point to a member's tally
	IncrementPoints(ctx context.Context, guildID, userID int64) error

	// GetPoints returns a member's accumulated points
	GetPoints(ctx context.Context, guildID, userID int64) (int64, error)

	// Leaderboard returns scores ordered by points descending, user ID
	// ascending on ties
	Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.ReferralScore, error)
}

// GuildSettingsRepository defines data access for per-guild settings
type GuildSettingsRepository interface {
	// GetOrCreateGuildSettings retrieves settings or creates defaults
	GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)

	// UpdateGuildSettings persists changed settings
	UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event)
}
