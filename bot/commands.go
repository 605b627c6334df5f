package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	minZero := float64(0)
	minOne := float64(1)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "lottery",
			Description: "Run reaction lotteries",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start a new lottery in this channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Unique name for the lottery",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "duration",
							Description: "How long entries stay open (e.g. 90m, 2h, 1h30m)",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "emoji",
							Description: "Reaction emoji used to enter (default 🎉)",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "description",
							Description: "What the winner gets",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "use_referrals",
							Description: "Grant bonus entries for referrals made during the lottery",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "rerun",
					Description: "Draw another winner for a completed lottery",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Name of the completed lottery",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Show the state of a lottery",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Name of the lottery",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List the lotteries currently running",
				},
			},
		},
		{
			Name:        "referral",
			Description: "Create your personal referral invite link",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_uses",
					Description: "Maximum number of uses (default: unlimited)",
					Required:    false,
					MinValue:    &minZero,
					MaxValue:    100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_age",
					Description: "Invite lifetime in seconds (default: never expires)",
					Required:    false,
					MinValue:    &minZero,
					MaxValue:    604800,
				},
			},
		},
		{
			Name:        "referrals",
			Description: "Show the referral leaderboard",
		},
		{
			Name:        "referralrate",
			Description: "Show or set how many referrals earn one bonus lottery entry",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "rate",
					Description: "Referrals needed per bonus entry (admins only)",
					Required:    false,
					MinValue:    &minOne,
				},
			},
		},
		{
			Name:        "referred",
			Description: "List the members someone referred",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Whose referrals to show (default: you)",
					Required:    false,
				},
			},
		},
		{
			Name:        "myreferrals",
			Description: "Show your referral link, referrals and points",
		},
		{
			Name:        "jointracker",
			Description: "Configure the daily joins tracker",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "setchannel",
					Description: "Set the channel where join counts are posted",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel for the join counter message",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "settemplate",
					Description: "Set the join count message template",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "template",
							Description: "Template with {count}, {user}, {user.name} and {date}",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "settimezone",
					Description: "Set the timezone for the daily reset",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "timezone",
							Description: "IANA timezone name, e.g. Europe/London",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "Manually reset the daily join counter",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show current join tracker settings",
				},
			},
		},
	}

	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}

	return nil
}
