package referrals

import (
	"context"
	"fmt"

	"raffler/bot/common"
	"raffler/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// HandleReferralCommand creates (or replaces) the caller's personal
// invite link. One registered invite per member: the previous one is
// revoked on Discord and dropped from the ledger.
func (f *Feature) HandleReferralCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}
	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid user ID")
		return
	}

	if err := common.DeferResponse(s, i, true); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.FollowUpWithError(s, i, "Failed to create referral link")
		return
	}
	defer uow.Rollback()

	referralService := services.NewReferralService(uow.ReferralRepository(), uow.EventBus())

	previous, err := referralService.GetInviteByOwner(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to look up existing invite: %v", err)
		common.FollowUpWithError(s, i, "Failed to create referral link")
		return
	}

	maxUses, maxAge := parseInviteOptions(i.ApplicationCommandData().Options)
	invite, err := s.ChannelInviteCreate(i.ChannelID, discordgo.Invite{
		MaxAge:  maxAge,
		MaxUses: maxUses,
		Unique:  true,
	})
	if err != nil {
		log.Errorf("Failed to create Discord invite: %v", err)
		common.FollowUpWithError(s, i, "Failed to create an invite. The bot may be missing the Create Invite permission here.")
		return
	}

	if err := referralService.RecordInviteOwnership(ctx, guildID, invite.Code, userID); err != nil {
		log.Errorf("Failed to record invite ownership: %v", err)
		common.FollowUpWithError(s, i, "Failed to register the invite")
		return
	}
	if previous != nil {
		if err := referralService.RemoveInvite(ctx, guildID, previous.Code); err != nil {
			log.Errorf("Failed to remove previous invite from ledger: %v", err)
			common.FollowUpWithError(s, i, "Failed to replace the previous invite")
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		common.FollowUpWithError(s, i, "Failed to register the invite")
		return
	}

	// Revoke the old invite after the ledger swap; a failure leaves a
	// dangling Discord invite that no longer earns anyone credit.
	if previous != nil {
		if _, err := s.InviteDelete(previous.Code); err != nil {
			log.Warnf("Failed to revoke previous invite %s: %v", previous.Code, err)
		}
	}

	embed := CreateInviteEmbed(invite.Code, previous != nil)
	if err := common.FollowUpWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Failed to send invite link: %v", err)
	}
}

// parseInviteOptions reads the optional max_uses and max_age command
// options. Both default to 0, which Discord treats as unlimited.
func parseInviteOptions(options []*discordgo.ApplicationCommandInteractionDataOption) (maxUses, maxAge int) {
	for _, opt := range options {
		switch opt.Name {
		case "max_uses":
			maxUses = int(opt.IntValue())
		case "max_age":
			maxAge = int(opt.IntValue())
		}
	}
	return maxUses, maxAge
}

// HandleRateCommand shows the guild's referral rate, or updates it when
// the rate option is given. Changing it needs the Manage Server
// permission.
func (f *Feature) HandleRateCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	var rate int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "rate" {
			rate = opt.IntValue()
		}
	}

	if rate != 0 && !common.IsUserAdmin(i) {
		common.RespondWithError(s, i, "You need the Manage Server permission to change the referral rate.")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load referral settings")
		return
	}
	defer uow.Rollback()

	settingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository())
	settings, err := settingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to load guild settings: %v", err)
		common.RespondWithError(s, i, "Failed to load referral settings")
		return
	}

	if rate == 0 {
		message := fmt.Sprintf("Bonus lottery entries need %d referral(s) each in this server.", settings.GetReferralsPerEntry())
		if err := common.RespondWithMessage(s, i, message, true); err != nil {
			log.Errorf("Failed to send referral rate: %v", err)
		}
		return
	}

	settings.ReferralsPerEntry = rate
	if err := settingsService.UpdateSettings(ctx, settings); err != nil {
		log.Errorf("Failed to update referral rate: %v", err)
		common.RespondWithError(s, i, "Failed to update the referral rate")
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		common.RespondWithError(s, i, "Failed to update the referral rate")
		return
	}

	confirmation := fmt.Sprintf("✓ Bonus lottery entries now need %d referral(s) each.", rate)
	if err := common.RespondWithMessage(s, i, confirmation, true); err != nil {
		log.Errorf("Failed to send confirmation: %v", err)
	}
}

// HandleLeaderboardCommand shows the guild's top referrers
func (f *Feature) HandleLeaderboardCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load leaderboard")
		return
	}
	defer uow.Rollback()

	referralService := services.NewReferralService(uow.ReferralRepository(), uow.EventBus())
	scores, err := referralService.Leaderboard(ctx, guildID, leaderboardSize)
	if err != nil {
		log.Errorf("Failed to load referral leaderboard: %v", err)
		common.RespondWithError(s, i, "Failed to load leaderboard")
		return
	}

	embed := CreateLeaderboardEmbed(scores)
	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Failed to send leaderboard: %v", err)
	}
}

// HandleReferredCommand lists the members a user has brought in
func (f *Feature) HandleReferredCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}

	targetID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid user ID")
		return
	}
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			user := opt.UserValue(s)
			if user != nil {
				if parsed, err := common.ParseUserID(user.ID); err == nil {
					targetID = parsed
				}
			}
		}
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load referrals")
		return
	}
	defer uow.Rollback()

	referralService := services.NewReferralService(uow.ReferralRepository(), uow.EventBus())
	edges, err := referralService.GetReferrals(ctx, guildID, targetID)
	if err != nil {
		log.Errorf("Failed to load referrals for user %d: %v", targetID, err)
		common.RespondWithError(s, i, "Failed to load referrals")
		return
	}

	embed := CreateReferredEmbed(targetID, edges)
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Failed to send referred list: %v", err)
	}
}

// HandleMyReferralsCommand shows the caller's referral standing: their
// registered invite, referral count, lifetime points and who invited them
func (f *Feature) HandleMyReferralsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, err := common.ParseUserID(i.GuildID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid guild ID")
		return
	}
	userID, err := common.ParseUserID(i.Member.User.ID)
	if err != nil {
		common.RespondWithError(s, i, "Invalid user ID")
		return
	}

	uow := f.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		common.RespondWithError(s, i, "Failed to load referral stats")
		return
	}
	defer uow.Rollback()

	referralService := services.NewReferralService(uow.ReferralRepository(), uow.EventBus())

	invite, err := referralService.GetInviteByOwner(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to load invite for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load referral stats")
		return
	}
	edges, err := referralService.GetReferrals(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to load referrals for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load referral stats")
		return
	}
	points, err := referralService.GetPoints(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to load points for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load referral stats")
		return
	}
	inviter, err := referralService.GetInviter(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to load inviter for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Failed to load referral stats")
		return
	}

	var inviteCode string
	if invite != nil {
		inviteCode = invite.Code
	}
	embed := CreateMyReferralsEmbed(inviteCode, len(edges), points, inviter)
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Failed to send referral stats: %v", err)
	}
}

// formatInviteURL expands an invite code into a full invite link
func formatInviteURL(code string) string {
	return fmt.Sprintf("https://discord.gg/%s", code)
}
