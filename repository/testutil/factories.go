package testutil

import (
	"time"

	"raffler/domain/entities"
)

// CreateTestLottery creates an active lottery with default values
func CreateTestLottery(guildID int64, name string) *entities.Lottery {
	now := time.Now().UTC().Truncate(time.Second)
	return &entities.Lottery{
		GuildID:    guildID,
		Name:       name,
		ChannelID:  555000111,
		EntryEmoji: "🎉",
		StarterID:  777000222,
		StartTime:  now,
		EndTime:    now.Add(1 * time.Hour),
		Status:     entities.LotteryStatusActive,
	}
}

// CreateTestDrawResult creates a draw result for the given lottery
func CreateTestDrawResult(lottery *entities.Lottery, winnerID int64, entries map[int64]int64) *entities.DrawResult {
	var total int64
	for _, count := range entries {
		total += count
	}
	return &entities.DrawResult{
		LotteryID:         lottery.ID,
		GuildID:           lottery.GuildID,
		WinnerID:          winnerID,
		TotalParticipants: len(entries),
		TotalEntries:      total,
		Entries:           entries,
		DrawnAt:           time.Now().UTC().Truncate(time.Second),
	}
}

// CreateTestEdge creates a referral edge with default values
func CreateTestEdge(guildID, invitedID, inviterID int64, code string) *entities.ReferralEdge {
	return &entities.ReferralEdge{
		GuildID:    guildID,
		InvitedID:  invitedID,
		InviterID:  inviterID,
		InviteCode: code,
		JoinedAt:   time.Now().UTC().Truncate(time.Second),
	}
}
