package entities

import (
	"time"
)

// LotteryStatus represents which lifecycle bucket a lottery resides in
type LotteryStatus string

const (
	// LotteryStatusActive means the lottery is accepting reaction entries
	// and has a pending scheduled draw
	LotteryStatusActive LotteryStatus = "active"
	// LotteryStatusCompleted means the draw has fired; the record is
	// immutable apart from reruns, which never mutate it
	LotteryStatusCompleted LotteryStatus = "completed"
)

// Lottery represents a single named reaction lottery within a guild.
// Name is the primary lookup key and is unique per guild across both
// the active and completed buckets.
type Lottery struct {
	ID           int64         `db:"id"`
	GuildID      int64         `db:"guild_id"`
	Name         string        `db:"name"`
	ChannelID    int64         `db:"channel_id"`
	MessageID    *int64        `db:"message_id"`
	EntryEmoji   string        `db:"entry_emoji"`
	UseReferrals bool          `db:"use_referrals"`
	Description  string        `db:"description"`
	StarterID    int64         `db:"starter_id"`
	StartTime    time.Time     `db:"start_time"`
	EndTime      time.Time     `db:"end_time"`
	Status       LotteryStatus `db:"status"`
	CompletedAt  *time.Time    `db:"completed_at"`
	CreatedAt    time.Time     `db:"created_at"`
}

// IsCompleted returns true if the lottery has left the active bucket
func (l *Lottery) IsCompleted() bool {
	return l.Status == LotteryStatusCompleted
}

// IsDue returns true if the scheduled draw time has passed
func (l *Lottery) IsDue(now time.Time) bool {
	return !l.IsCompleted() && !now.Before(l.EndTime)
}

// HasMessage returns true if the solicitation message was posted
func (l *Lottery) HasMessage() bool {
	return l.MessageID != nil
}

// Complete moves the lottery into the completed bucket
func (l *Lottery) Complete(at time.Time) {
	l.Status = LotteryStatusCompleted
	l.CompletedAt = &at
}

// SetMessage records the Discord solicitation message
func (l *Lottery) SetMessage(messageID int64) {
	l.MessageID = &messageID
}

// Duration returns the configured lifetime of the lottery
func (l *Lottery) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}
