package lottery

import (
	"fmt"
	"sort"
	"strings"

	"raffler/bot/common"
	"raffler/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// CreateLotteryEmbed creates the solicitation embed for an active lottery
func CreateLotteryEmbed(lottery *entities.Lottery) *discordgo.MessageEmbed {
	description := fmt.Sprintf("React with %s to enter!", lottery.EntryEmoji)
	if lottery.Description != "" {
		description = fmt.Sprintf("%s\n\nReact with %s to enter!", lottery.Description, lottery.EntryEmoji)
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Drawing",
			Value:  fmt.Sprintf("%s (%s)", common.FormatDiscordTimestamp(lottery.EndTime, "f"), common.FormatDiscordTimestamp(lottery.EndTime, "R")),
			Inline: true,
		},
		{
			Name:   "Started by",
			Value:  common.GetUserMention(lottery.StarterID),
			Inline: true,
		},
	}
	if lottery.UseReferrals {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Bonus entries",
			Value:  "Referrals recorded since the lottery started grant extra entries.",
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎟️ Lottery: %s", lottery.Name),
		Color:       common.ColorInfo,
		Description: description,
		Fields:      fields,
	}
}

// CreateCompletedLotteryEmbed rewrites the solicitation embed once the
// draw has fired
func CreateCompletedLotteryEmbed(lottery *entities.Lottery, result *entities.DrawResult) *discordgo.MessageEmbed {
	if result == nil {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🎟️ Lottery: %s (ended)", lottery.Name),
			Color:       common.ColorWarning,
			Description: "Nobody entered, so there is no winner.",
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎟️ Lottery: %s (ended)", lottery.Name),
		Color:       common.ColorSuccess,
		Description: fmt.Sprintf("Winner: %s", common.GetUserMention(result.WinnerID)),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Participants",
				Value:  fmt.Sprintf("%d", result.TotalParticipants),
				Inline: true,
			},
			{
				Name:   "Total entries",
				Value:  fmt.Sprintf("%d", result.TotalEntries),
				Inline: true,
			},
			{
				Name:   "Winning odds",
				Value:  fmt.Sprintf("%.1f%%", result.WinProbability()*100),
				Inline: true,
			},
		},
	}
}

// CreateLotteryInfoEmbed summarizes a lottery for /lottery info
func CreateLotteryInfoEmbed(lottery *entities.Lottery, result *entities.DrawResult) *discordgo.MessageEmbed {
	if !lottery.IsCompleted() {
		embed := CreateLotteryEmbed(lottery)
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Active"}
		return embed
	}

	embed := CreateCompletedLotteryEmbed(lottery, result)
	if result != nil && len(result.Entries) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Entry breakdown",
			Value:  formatEntryBreakdown(result.Entries),
			Inline: false,
		})
	}
	return embed
}

// CreateActiveLotteriesEmbed lists a guild's active lotteries
func CreateActiveLotteriesEmbed(lotteries []*entities.Lottery) *discordgo.MessageEmbed {
	if len(lotteries) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "Active lotteries",
			Color:       common.ColorInfo,
			Description: "No lotteries are running right now.",
		}
	}

	lines := make([]string, 0, len(lotteries))
	for _, lottery := range lotteries {
		lines = append(lines, fmt.Sprintf("**%s** - draws %s", lottery.Name, common.FormatDiscordTimestamp(lottery.EndTime, "R")))
	}

	return &discordgo.MessageEmbed{
		Title:       "Active lotteries",
		Color:       common.ColorInfo,
		Description: strings.Join(lines, "\n"),
	}
}

// FormatDrawAnnouncement builds the channel message for an original draw
func FormatDrawAnnouncement(lottery *entities.Lottery, result *entities.DrawResult) string {
	if result == nil {
		return fmt.Sprintf("🎟️ Lottery **%s** has ended: nobody entered, so there is no winner.", lottery.Name)
	}
	return fmt.Sprintf("🎉 Congratulations %s, you won the **%s** lottery! (%d entries of %d total)",
		common.GetUserMention(result.WinnerID), lottery.Name, result.Entries[result.WinnerID], result.TotalEntries)
}

// FormatRerunAnnouncement builds the channel message for a rerun
func FormatRerunAnnouncement(lottery *entities.Lottery, result *entities.DrawResult) string {
	return fmt.Sprintf("🔁 Rerun of **%s**: congratulations %s! (%d entries of %d total)",
		lottery.Name, common.GetUserMention(result.WinnerID), result.Entries[result.WinnerID], result.TotalEntries)
}

// formatEntryBreakdown renders the top entry holders, largest first
func formatEntryBreakdown(entries map[int64]int64) string {
	type entry struct {
		userID int64
		count  int64
	}

	sorted := make([]entry, 0, len(entries))
	for userID, count := range entries {
		sorted = append(sorted, entry{userID, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].userID < sorted[j].userID
	})

	maxShow := 10
	if len(sorted) < maxShow {
		maxShow = len(sorted)
	}

	lines := make([]string, 0, maxShow+1)
	for _, e := range sorted[:maxShow] {
		lines = append(lines, fmt.Sprintf("%s: %d", common.GetUserMention(e.userID), e.count))
	}
	if len(sorted) > maxShow {
		lines = append(lines, fmt.Sprintf("...and %d more", len(sorted)-maxShow))
	}

	return strings.Join(lines, "\n")
}
