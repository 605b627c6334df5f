package entities

import "time"

// ReferralInvite links an invite code to the guild member who owns it.
// Each member has at most one tracked invite at a time; creating a new
// one replaces the previous code.
type ReferralInvite struct {
	GuildID   int64     `db:"guild_id"`
	Code      string    `db:"code"`
	OwnerID   int64     `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
}

// ReferralEdge durably links an invited member to their inviter.
// First attribution wins: a rejoin never overwrites an existing edge.
// JoinedAt is the invited member's arrival time, which is what entry
// calculation filters on (not the edge insertion time).
type ReferralEdge struct {
	GuildID    int64     `db:"guild_id"`
	InvitedID  int64     `db:"invited_id"`
	InviterID  int64     `db:"inviter_id"`
	InviteCode string    `db:"invite_code"`
	JoinedAt   time.Time `db:"joined_at"`
	CreatedAt  time.Time `db:"created_at"`
}

// ReferralScore is one leaderboard row: a member and their accumulated
// referral points. Points only ever increase.
type ReferralScore struct {
	UserID int64 `db:"user_id"`
	Points int64 `db:"points"`
}
