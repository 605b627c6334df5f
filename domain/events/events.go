package events

import (
	"time"

	"raffler/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeLotteryCreated   EventType = "lottery_created"
	EventTypeDrawCompleted    EventType = "draw_completed"
	EventTypeRerunCompleted   EventType = "rerun_completed"
	EventTypeReferralRecorded EventType = "referral_recorded"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// LotteryCreatedEvent is published when a new lottery enters the active bucket
type LotteryCreatedEvent struct {
	GuildID   int64
	LotteryID int64
	Name      string
	EndTime   time.Time
}

func (e LotteryCreatedEvent) Type() EventType {
	return EventTypeLotteryCreated
}

// DrawCompletedEvent is published when a lottery's original draw fires.
// Result is nil for an empty-pool draw.
type DrawCompletedEvent struct {
	GuildID   int64
	LotteryID int64
	Name      string
	Result    *entities.DrawResult
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}

// RerunCompletedEvent is published for each rerun of a completed lottery.
// The carried result is transient and never persisted.
type RerunCompletedEvent struct {
	GuildID   int64
	LotteryID int64
	Name      string
	Result    *entities.DrawResult
}

func (e RerunCompletedEvent) Type() EventType {
	return EventTypeRerunCompleted
}

// ReferralRecordedEvent is published when a new referral edge is written
type ReferralRecordedEvent struct {
	GuildID    int64
	InvitedID  int64
	InviterID  int64
	InviteCode string
	JoinedAt   time.Time
}

func (e ReferralRecordedEvent) Type() EventType {
	return EventTypeReferralRecorded
}
