package referrals

import (
	"fmt"
	"strings"

	"raffler/bot/common"
	"raffler/domain/entities"

	"github.com/bwmarrin/discordgo"
)

// CreateInviteEmbed confirms a freshly registered personal invite
func CreateInviteEmbed(code string, replaced bool) *discordgo.MessageEmbed {
	description := fmt.Sprintf("Your referral link: %s\n\nEvery member who joins through it is credited to you.", formatInviteURL(code))
	if replaced {
		description += "\nYour previous link has been revoked."
	}

	return &discordgo.MessageEmbed{
		Title:       "🔗 Referral link ready",
		Color:       common.ColorSuccess,
		Description: description,
	}
}

// CreateLeaderboardEmbed renders the guild's top referrers
func CreateLeaderboardEmbed(scores []*entities.ReferralScore) *discordgo.MessageEmbed {
	if len(scores) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "🏆 Referral leaderboard",
			Color:       common.ColorInfo,
			Description: "Nobody has earned referral points yet.",
		}
	}

	medals := []string{"🥇", "🥈", "🥉"}
	lines := make([]string, 0, len(scores))
	for rank, score := range scores {
		prefix := fmt.Sprintf("%d.", rank+1)
		if rank < len(medals) {
			prefix = medals[rank]
		}
		lines = append(lines, fmt.Sprintf("%s %s: %d point(s)", prefix, common.GetUserMention(score.UserID), score.Points))
	}

	return &discordgo.MessageEmbed{
		Title:       "🏆 Referral leaderboard",
		Color:       common.ColorInfo,
		Description: strings.Join(lines, "\n"),
	}
}

// CreateReferredEmbed lists who a user has invited
func CreateReferredEmbed(userID int64, edges []*entities.ReferralEdge) *discordgo.MessageEmbed {
	if len(edges) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "Referrals",
			Color:       common.ColorInfo,
			Description: fmt.Sprintf("%s has not referred anyone yet.", common.GetUserMention(userID)),
		}
	}

	lines := make([]string, 0, len(edges))
	for _, edge := range edges {
		lines = append(lines, fmt.Sprintf("%s - joined %s", common.GetUserMention(edge.InvitedID), common.FormatDiscordTimestamp(edge.JoinedAt, "D")))
	}

	return &discordgo.MessageEmbed{
		Title:       "Referrals",
		Color:       common.ColorInfo,
		Description: fmt.Sprintf("%s referred %d member(s):\n%s", common.GetUserMention(userID), len(edges), strings.Join(lines, "\n")),
	}
}

// CreateMyReferralsEmbed summarizes the caller's referral standing
func CreateMyReferralsEmbed(inviteCode string, referralCount int, points int64, inviter *entities.ReferralEdge) *discordgo.MessageEmbed {
	inviteValue := "None - run /referral to create one."
	if inviteCode != "" {
		inviteValue = formatInviteURL(inviteCode)
	}

	inviterValue := "Unknown"
	if inviter != nil {
		inviterValue = common.GetUserMention(inviter.InviterID)
	}

	return &discordgo.MessageEmbed{
		Title: "Your referral stats",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Referral link",
				Value:  inviteValue,
				Inline: false,
			},
			{
				Name:   "Members referred",
				Value:  fmt.Sprintf("%d", referralCount),
				Inline: true,
			},
			{
				Name:   "Points",
				Value:  fmt.Sprintf("%d", points),
				Inline: true,
			},
			{
				Name:   "Invited by",
				Value:  inviterValue,
				Inline: true,
			},
		},
	}
}
