package interfaces

import (
	"context"
	"time"

	"raffler/domain/entities"
)

// CreateLotteryParams carries the validated inputs for a new lottery
type CreateLotteryParams struct {
	GuildID      int64
	Name         string
	ChannelID    int64
	EntryEmoji   string
	Description  string
	StarterID    int64
	Duration     time.Duration
	UseReferrals bool
}

// LotteryService owns the lottery lifecycle: create, draw, rerun
type LotteryService interface {
	// Create validates params, persists the lottery in the active bucket
	// and returns it. Name uniqueness spans both buckets.
	Create(ctx context.Context, params CreateLotteryParams) (*entities.Lottery, error)

	// Draw performs the original draw for a due lottery with the given
	// reaction pool. Bots are filtered out here. A nil result with a nil
	// error means the pool was empty: the lottery completes with no
	// stored result.
	Draw(ctx context.Context, lottery *entities.Lottery, pool []entities.Participant) (*entities.DrawResult, error)

	// Rerun draws again against a completed lottery without mutating its
	// stored result or status. The returned result is transient.
	Rerun(ctx context.Context, lottery *entities.Lottery, pool []entities.Participant) (*entities.DrawResult, error)
}

// ReferralService is the referral ledger: invite ownership, edges, points
type ReferralService interface {
	RecordInviteOwnership(ctx context.Context, guildID int64, code string, ownerID int64) error
	RemoveInvite(ctx context.Context, guildID int64, code string) error
	GetInviteByOwner(ctx context.Context, guildID, ownerID int64) (*entities.ReferralInvite, error)

	// RecordReferral writes the edge for an invited member if none exists
	// (first-write-wins) and awards one point to the inviter on success.
	// Returns true when a new edge was recorded.
	RecordReferral(ctx context.Context, guildID, invitedID, inviterID int64, code string, joinedAt time.Time) (bool, error)

	GetInviter(ctx context.Context, guildID, invitedID int64) (*entities.ReferralEdge, error)
	GetReferrals(ctx context.Context, guildID, inviterID int64) ([]*entities.ReferralEdge, error)
	CountReferralsSince(ctx context.Context, guildID, inviterID int64, since time.Time) (int64, error)
	GetPoints(ctx context.Context, guildID, userID int64) (int64, error)
	Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.ReferralScore, error)
}

// ReferralCounter is the narrow read-side dependency of entry calculation.
// A nil counter means the referral subsystem is absent; entry calculation
// degrades to base entries rather than erroring.
type ReferralCounter interface {
	CountReferralsSince(ctx context.Context, guildID, inviterID int64, since time.Time) (int64, error)
}

// GuildSettingsService manages per-guild configuration
type GuildSettingsService interface {
	GetOrCreateSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error)
	UpdateSettings(ctx context.Context, settings *entities.GuildSettings) error
}
