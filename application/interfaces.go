package application

import (
	"context"
	"errors"

	"raffler/domain/entities"
)

// Sentinel errors mapping the platform's recoverable failure modes.
// Both make draws, reruns and attribution silent no-ops.
var (
	// ErrNotFound means the target message or invite no longer exists
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the bot lacks permission for the operation
	ErrForbidden = errors.New("forbidden")
)

// ReactionFetcher reads the current reaction pool of a lottery message.
// Implemented by the bot layer; the application layer never touches the
// Discord API directly.
type ReactionFetcher interface {
	// GetReactionUsers returns every user who reacted with the emoji,
	// including bots; callers filter. Returns ErrNotFound when the
	// message was deleted and ErrForbidden when it cannot be read.
	GetReactionUsers(ctx context.Context, channelID, messageID int64, emoji string) ([]entities.Participant, error)
}

// LotteryPoster posts draw outcomes back to Discord.
// Posting failures are logged and swallowed; they never roll back a draw.
type LotteryPoster interface {
	// PostDrawResult edits the solicitation message with the winner and
	// announces them in the channel. A nil result announces an empty draw.
	PostDrawResult(ctx context.Context, lottery *entities.Lottery, result *entities.DrawResult) error
}

// InviteDetector infers the invite code used by an arriving member
type InviteDetector interface {
	DetectUsedInvite(ctx context.Context, guildID int64) (string, bool)
}
