package lottery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"raffler/application"
	"raffler/bot/common"
	"raffler/domain/entities"
	"raffler/domain/interfaces"
	"raffler/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleStart creates a new lottery and posts its entry message
func (f *Feature) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}
	starterID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid user ID")
		return
	}
	channelID, err := common.ParseUserID(i.ChannelID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid channel ID")
		return
	}

	params := interfaces.CreateLotteryParams{
		GuildID:    guildID,
		ChannelID:  channelID,
		StarterID:  starterID,
		EntryEmoji: "🎉",
	}
	var durationStr string
	for _, opt := range options {
		switch opt.Name {
		case "name":
			params.Name = strings.TrimSpace(opt.StringValue())
		case "duration":
			durationStr = opt.StringValue()
		case "emoji":
			params.EntryEmoji = strings.TrimSpace(opt.StringValue())
		case "description":
			params.Description = opt.StringValue()
		case "use_referrals":
			params.UseReferrals = opt.BoolValue()
		}
	}

	params.Duration, err = parseDuration(durationStr)
	if err != nil {
		common.RespondWithError(s, i, "Invalid duration. Use forms like 90m, 2h or 1h30m.")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.FollowUpWithError(s, i, "Failed to start lottery")
		return
	}
	defer uow.Rollback()

	lotteryService := f.newLotteryService(uow)
	lottery, err := lotteryService.Create(ctx, params)
	if err != nil {
		if errors.Is(err, entities.ErrDuplicateName) {
			common.FollowUpWithError(s, i, fmt.Sprintf("A lottery named **%s** already exists in this server.", params.Name))
		} else {
			common.FollowUpWithError(s, i, fmt.Sprintf("Failed to start lottery: %v", err))
		}
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		common.FollowUpWithError(s, i, "Failed to start lottery")
		return
	}

	// The lottery exists even if posting fails; it will simply draw from
	// an empty pool when due.
	messageID, err := f.postSolicitation(lottery)
	if err != nil {
		log.WithError(err).Error("Failed to post lottery solicitation")
		common.FollowUpWithError(s, i, "Lottery created, but the entry message could not be posted.")
		return
	}

	if err := f.storeMessageID(ctx, guildID, lottery.ID, messageID); err != nil {
		log.WithError(err).Error("Failed to store lottery message ID")
	}

	confirmation := fmt.Sprintf("🎟️ Lottery **%s** started! Drawing %s.",
		lottery.Name, common.FormatDiscordTimestamp(lottery.EndTime, "R"))
	if err := common.FollowUpWithEmbed(s, i, &discordgo.MessageEmbed{
		Description: confirmation,
		Color:       common.ColorSuccess,
	}, true); err != nil {
		log.Errorf("Failed to send confirmation: %v", err)
	}
}

// handleRerun draws a fresh winner for a completed lottery
func (f *Feature) handleRerun(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	var name string
	for _, opt := range options {
		if opt.Name == "name" {
			name = strings.TrimSpace(opt.StringValue())
		}
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	lottery, err := f.getLottery(ctx, guildID, name)
	if err != nil {
		log.Errorf("Failed to load lottery %q: %v", name, err)
		common.FollowUpWithError(s, i, "Failed to load lottery")
		return
	}
	if lottery == nil {
		common.FollowUpWithError(s, i, fmt.Sprintf("No lottery named **%s** found.", name))
		return
	}
	if !lottery.IsCompleted() {
		common.FollowUpWithError(s, i, fmt.Sprintf("Lottery **%s** has not been drawn yet. It draws %s.",
			lottery.Name, common.FormatDiscordTimestamp(lottery.EndTime, "R")))
		return
	}

	// Live reactions unless the frozen-pool mode replays the stored
	// breakdown; the pool fetch is skipped entirely in that case.
	var pool []entities.Participant
	if !f.rerunFrozenPool && lottery.HasMessage() {
		pool, err = f.GetReactionUsers(ctx, lottery.ChannelID, *lottery.MessageID, lottery.EntryEmoji)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) || errors.Is(err, application.ErrForbidden) {
				common.FollowUpWithError(s, i, "The lottery message is no longer accessible, so the pool cannot be re-read.")
				return
			}
			log.Errorf("Failed to fetch reactions for rerun of %q: %v", name, err)
			common.FollowUpWithError(s, i, "Failed to read the reaction pool")
			return
		}
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.FollowUpWithError(s, i, "Failed to rerun lottery")
		return
	}
	defer uow.Rollback()

	lotteryService := f.newLotteryService(uow)
	result, err := lotteryService.Rerun(ctx, lottery, pool)
	if err != nil {
		log.Errorf("Failed to rerun lottery %q: %v", name, err)
		common.FollowUpWithError(s, i, fmt.Sprintf("Failed to rerun lottery: %v", err))
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		common.FollowUpWithError(s, i, "Failed to rerun lottery")
		return
	}

	if result == nil {
		common.FollowUpWithError(s, i, "Nobody is in the pool, so there is no winner to draw.")
		return
	}

	announcement := FormatRerunAnnouncement(lottery, result)
	channelIDStr := common.FormatUserID(lottery.ChannelID)
	if _, err := s.ChannelMessageSend(channelIDStr, announcement); err != nil {
		log.Errorf("Failed to announce rerun winner: %v", err)
	}

	if err := common.FollowUpWithEmbed(s, i, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🔁 Rerun complete: %s wins **%s**.", common.GetUserMention(result.WinnerID), lottery.Name),
		Color:       common.ColorSuccess,
	}, true); err != nil {
		log.Errorf("Failed to send rerun confirmation: %v", err)
	}
}

// handleInfo shows the state of a single lottery
func (f *Feature) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	var name string
	for _, opt := range options {
		if opt.Name == "name" {
			name = strings.TrimSpace(opt.StringValue())
		}
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load lottery")
		return
	}
	defer uow.Rollback()

	lottery, err := uow.LotteryRepository().GetByName(ctx, guildID, name)
	if err != nil {
		log.Errorf("Failed to load lottery %q: %v", name, err)
		common.RespondWithError(s, i, "Failed to load lottery")
		return
	}
	if lottery == nil {
		common.RespondWithError(s, i, fmt.Sprintf("No lottery named **%s** found.", name))
		return
	}

	var result *entities.DrawResult
	if lottery.IsCompleted() {
		result, err = uow.DrawResultRepository().GetByLottery(ctx, lottery.ID)
		if err != nil {
			log.Errorf("Failed to load draw result for %q: %v", name, err)
			common.RespondWithError(s, i, "Failed to load lottery")
			return
		}
	}

	embed := CreateLotteryInfoEmbed(lottery, result)
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Failed to send lottery info: %v", err)
	}
}

// handleList shows the guild's active lotteries
func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to list lotteries")
		return
	}
	defer uow.Rollback()

	lotteries, err := uow.LotteryRepository().ListActive(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to list active lotteries: %v", err)
		common.RespondWithError(s, i, "Failed to list lotteries")
		return
	}

	embed := CreateActiveLotteriesEmbed(lotteries)
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Failed to send lottery list: %v", err)
	}
}

// getLottery loads a lottery in a short read-only transaction
func (f *Feature) getLottery(ctx context.Context, guildID int64, name string) (*entities.Lottery, error) {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.LotteryRepository().GetByName(ctx, guildID, name)
}

// storeMessageID records the solicitation message on the lottery row
func (f *Feature) storeMessageID(ctx context.Context, guildID, lotteryID, messageID int64) error {
	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.LotteryRepository().SetMessage(ctx, lotteryID, messageID); err != nil {
		return err
	}
	return uow.Commit()
}

// newLotteryService wires a lottery service from a started unit of work
func (f *Feature) newLotteryService(uow application.UnitOfWork) interfaces.LotteryService {
	return services.NewLotteryService(
		uow.LotteryRepository(),
		uow.DrawResultRepository(),
		uow.GuildSettingsRepository(),
		services.NewEntryCalculator(services.NewReferralService(uow.ReferralRepository(), uow.EventBus())),
		uow.EventBus(),
		f.rerunFrozenPool,
	)
}

// parseDuration accepts Go duration syntax plus a bare minute count
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("duration is required")
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}

	if minutes, err := strconv.ParseInt(value, 10, 64); err == nil && minutes > 0 {
		return time.Duration(minutes) * time.Minute, nil
	}

	return 0, fmt.Errorf("unparseable duration %q", value)
}
