package jointracker

import (
	"context"
	"fmt"
	"time"

	"raffler/bot/common"
	"raffler/domain/entities"
	"raffler/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// HandleCommand routes /jointracker subcommands. All of them are
// admin-gated configuration.
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(i) {
		common.RespondWithError(s, i, "You need the Manage Server permission to configure the join tracker.")
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Missing subcommand")
		return
	}

	switch options[0].Name {
	case "setchannel":
		f.handleSetChannel(s, i, options[0].Options)
	case "settemplate":
		f.handleSetTemplate(s, i, options[0].Options)
	case "settimezone":
		f.handleSetTimezone(s, i, options[0].Options)
	case "reset":
		f.handleReset(s, i)
	case "status":
		f.handleStatus(s, i)
	default:
		common.RespondWithError(s, i, "Unknown jointracker subcommand")
	}
}

func (f *Feature) handleSetChannel(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	var channelID int64
	for _, opt := range options {
		if opt.Name == "channel" {
			channel := opt.ChannelValue(s)
			if channel != nil {
				if parsed, err := common.ParseUserID(channel.ID); err == nil {
					channelID = parsed
				}
			}
		}
	}
	if channelID == 0 {
		common.RespondWithError(s, i, "A channel is required")
		return
	}

	f.updateSettings(s, i, func(settings *entities.GuildSettings) error {
		settings.JoinChannelID = &channelID
		return nil
	}, fmt.Sprintf("✓ Join tracking channel set to <#%d>", channelID))
}

func (f *Feature) handleSetTemplate(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	var template string
	for _, opt := range options {
		if opt.Name == "template" {
			template = opt.StringValue()
		}
	}
	if template == "" {
		common.RespondWithError(s, i, "A template is required")
		return
	}

	f.updateSettings(s, i, func(settings *entities.GuildSettings) error {
		settings.JoinMessageTemplate = template
		return nil
	}, fmt.Sprintf("✓ Message template updated:\n`%s`", template))
}

func (f *Feature) handleSetTimezone(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	var timezone string
	for _, opt := range options {
		if opt.Name == "timezone" {
			timezone = opt.StringValue()
		}
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		common.RespondWithError(s, i, fmt.Sprintf("Unknown timezone: %s", timezone))
		return
	}

	f.updateSettings(s, i, func(settings *entities.GuildSettings) error {
		settings.JoinTimezone = timezone
		return nil
	}, fmt.Sprintf("✓ Timezone set to %s", timezone))
}

func (f *Feature) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.updateSettings(s, i, func(settings *entities.GuildSettings) error {
		settings.JoinCount = 0
		settings.LastJoinerID = nil
		return nil
	}, "✓ Join counter reset")
}

func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load join tracker status")
		return
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository())
	settings, err := settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild settings: %v", err)
		common.RespondWithError(s, i, "Failed to load join tracker status")
		return
	}

	channelValue := "❌ Not configured"
	if settings.HasJoinChannel() {
		channelValue = fmt.Sprintf("<#%d>", *settings.JoinChannelID)
	}
	template := settings.JoinMessageTemplate
	if template == "" {
		template = entities.DefaultJoinMessageTemplate
	}
	timezone := settings.JoinTimezone
	if timezone == "" {
		timezone = entities.DefaultJoinTimezone
	}

	embed := &discordgo.MessageEmbed{
		Title: "Join Tracker Status",
		Color: common.ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: channelValue, Inline: false},
			{Name: "Today's Joins", Value: fmt.Sprintf("%d", settings.JoinCount), Inline: false},
			{Name: "Message Template", Value: fmt.Sprintf("`%s`", template), Inline: false},
			{Name: "Timezone", Value: timezone, Inline: false},
		},
	}
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Failed to send join tracker status: %v", err)
	}
}

// updateSettings applies a mutation to the guild's settings in a
// transaction and confirms with the given message
func (f *Feature) updateSettings(s *discordgo.Session, i *discordgo.InteractionCreate, mutate func(*entities.GuildSettings) error, confirmation string) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update join tracker settings")
		return
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository())
	settings, err := settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild settings: %v", err)
		common.RespondWithError(s, i, "Failed to update join tracker settings")
		return
	}

	if err := mutate(settings); err != nil {
		common.RespondWithError(s, i, err.Error())
		return
	}

	if err := settingsService.UpdateSettings(ctx, settings); err != nil {
		log.Errorf("Failed to update guild settings: %v", err)
		common.RespondWithError(s, i, "Failed to update join tracker settings")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update join tracker settings")
		return
	}

	if err := common.RespondWithMessage(s, i, confirmation, true); err != nil {
		log.Errorf("Failed to send confirmation: %v", err)
	}
}
