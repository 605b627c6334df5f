package entities

import "time"

// GuildSettings holds per-guild configuration
type GuildSettings struct {
	GuildID int64 `db:"guild_id"`

	// ReferralsPerEntry is how many qualifying referrals convert into one
	// bonus lottery entry. Always positive; validated when set.
	ReferralsPerEntry int64 `db:"referrals_per_entry"`

	// Join tracker settings
	JoinChannelID       *int64     `db:"join_channel_id"`
	JoinCount           int64      `db:"join_count"`
	LastJoinerID        *int64     `db:"last_joiner_id"`
	LastJoinMessageID   *int64     `db:"last_join_message_id"`
	LastJoinAt          *time.Time `db:"last_join_at"`
	JoinMessageTemplate string     `db:"join_message_template"`

	// JoinTimezone is the IANA zone the daily join counter resets in
	JoinTimezone string `db:"join_timezone"`
}

// DefaultReferralsPerEntry is applied when a guild has not configured a rate
const DefaultReferralsPerEntry = int64(5)

// DefaultJoinMessageTemplate is the initial join tracker message format
const DefaultJoinMessageTemplate = "{count} people joined today! Latest: {user}"

// DefaultJoinTimezone is used until a guild configures its own zone
const DefaultJoinTimezone = "UTC"

// HasJoinChannel returns true if the join tracker is configured
func (s *GuildSettings) HasJoinChannel() bool {
	return s.JoinChannelID != nil
}

// JoinLocation resolves the guild's configured timezone, falling back
// to UTC when unset or invalid
func (s *GuildSettings) JoinLocation() *time.Location {
	if s.JoinTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.JoinTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// JoinCountStale reports whether the daily counter belongs to an
// earlier day than now in the guild's timezone
func (s *GuildSettings) JoinCountStale(now time.Time) bool {
	if s.LastJoinAt == nil {
		return false
	}
	loc := s.JoinLocation()
	ly, lm, ld := s.LastJoinAt.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	return ly != ny || lm != nm || ld != nd
}

// GetReferralsPerEntry returns the configured rate, falling back to the default
func (s *GuildSettings) GetReferralsPerEntry() int64 {
	if s.ReferralsPerEntry <= 0 {
		return DefaultReferralsPerEntry
	}
	return s.ReferralsPerEntry
}
