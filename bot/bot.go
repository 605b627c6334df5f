package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"raffler/application"
	"raffler/bot/common"
	"raffler/bot/features/jointracker"
	"raffler/bot/features/lottery"
	"raffler/bot/features/referrals"
	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token           string
	RerunFrozenPool bool
}

// Bot manages the Discord bot and all feature modules
type Bot struct {
	config     Config
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory

	inviteTracker *services.InviteTracker
	joinHandler   *application.MemberJoinHandler
	drawWorker    *application.DrawWorker

	// Feature modules
	lottery     *lottery.Feature
	referrals   *referrals.Feature
	joinTracker *jointracker.Feature

	stopDrawWorker func()
}

// New creates a new bot instance with all features and starts the draw worker
func New(config Config, uowFactory application.UnitOfWorkFactory, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	bot := &Bot{
		config:     config,
		session:    dg,
		uowFactory: uowFactory,
	}

	// Feature modules
	bot.lottery = lottery.NewFeature(dg, uowFactory, config.RerunFrozenPool)
	bot.referrals = referrals.NewFeature(dg, uowFactory)
	bot.joinTracker = jointracker.NewFeature(dg, uowFactory)

	// Invite attribution pipeline: session-backed lister feeding the
	// snapshot cache, consumed by the member join handler
	bot.inviteTracker = services.NewInviteTracker(
		&sessionInviteLister{session: dg},
		services.NewInviteUsageCache(),
	)
	bot.joinHandler = application.NewMemberJoinHandler(uowFactory, bot.inviteTracker, bot.joinTracker)

	// Register handlers
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleGuildCreate)
	dg.AddHandler(bot.handleGuildMemberAdd)
	dg.AddHandler(bot.handleInviteCreate)
	dg.AddHandler(bot.handleInviteDelete)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// Start the draw worker and wire the event subscribers
	bot.drawWorker = application.NewDrawWorker(uowFactory, bot.lottery, bot.lottery, config.RerunFrozenPool)
	application.RegisterEventHandlers(eventBus, bot.drawWorker)
	bot.stopDrawWorker = bot.drawWorker.Start(context.Background())
	log.Info("Background workers started")

	return bot, nil
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	if b.stopDrawWorker != nil {
		b.stopDrawWorker()
	}
	log.Info("Background workers stopped")

	return b.session.Close()
}

// GetSession returns the Discord session
func (b *Bot) GetSession() *discordgo.Session {
	return b.session
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "lottery":
		b.lottery.HandleCommand(s, i)
	case "referral":
		b.referrals.HandleReferralCommand(s, i)
	case "referrals":
		b.referrals.HandleLeaderboardCommand(s, i)
	case "referralrate":
		b.referrals.HandleRateCommand(s, i)
	case "referred":
		b.referrals.HandleReferredCommand(s, i)
	case "myreferrals":
		b.referrals.HandleMyReferralsCommand(s, i)
	case "jointracker":
		b.joinTracker.HandleCommand(s, i)
	}
}

// handleGuildCreate ensures settings exist and warms the invite
// snapshot whenever a guild becomes available
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx := context.Background()

	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	uow := b.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction: %v", err)
		return
	}
	defer uow.Rollback()

	guildSettingsService := services.NewGuildSettingsService(uow.GuildSettingsRepository())
	settings, err := guildSettingsService.GetOrCreateSettings(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to track guild %s (%s): %v", g.Name, g.ID, err)
		return
	}

	if err := uow.Commit(); err != nil {
		log.Errorf("Failed to commit transaction: %v", err)
		return
	}

	b.inviteTracker.WarmCache(ctx, guildID)

	log.Infof("Guild available: %s (ID: %d, join channel: %v)", g.Name, settings.GuildID, settings.JoinChannelID)
}

// handleGuildMemberAdd runs invite attribution and the join counter for
// each arriving member
func (b *Bot) handleGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	guildID, err := strconv.ParseInt(m.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", m.GuildID, err)
		return
	}
	userID, err := common.ParseUserID(m.User.ID)
	if err != nil {
		log.Errorf("Failed to parse user ID %s: %v", m.User.ID, err)
		return
	}

	joinedAt := m.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	join := application.MemberJoin{
		GuildID:  guildID,
		UserID:   userID,
		Username: m.User.Username,
		IsBot:    m.User.Bot,
		JoinedAt: joinedAt,
	}

	if err := b.joinHandler.HandleMemberJoin(context.Background(), join); err != nil {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"user_id":  userID,
		}).WithError(err).Error("Failed to process member join")
	}
}

// handleInviteCreate records new invites in the usage snapshot
func (b *Bot) handleInviteCreate(s *discordgo.Session, e *discordgo.InviteCreate) {
	guildID, err := strconv.ParseInt(e.GuildID, 10, 64)
	if err != nil {
		return
	}
	b.inviteTracker.HandleInviteCreate(guildID, e.Code, e.Uses)
}

// handleInviteDelete drops revoked invites from the usage snapshot
func (b *Bot) handleInviteDelete(s *discordgo.Session, e *discordgo.InviteDelete) {
	guildID, err := strconv.ParseInt(e.GuildID, 10, 64)
	if err != nil {
		return
	}
	b.inviteTracker.HandleInviteDelete(guildID, e.Code)
}

// sessionInviteLister adapts the Discord session to the invite tracker's
// lister interface
type sessionInviteLister struct {
	session *discordgo.Session
}

func (l *sessionInviteLister) ListGuildInvites(ctx context.Context, guildID int64) ([]*entities.InviteUsage, error) {
	invites, err := l.session.GuildInvites(strconv.FormatInt(guildID, 10))
	if err != nil {
		return nil, common.MapDiscordError(err)
	}

	usages := make([]*entities.InviteUsage, 0, len(invites))
	for _, invite := range invites {
		var inviterID int64
		if invite.Inviter != nil {
			inviterID, _ = common.ParseUserID(invite.Inviter.ID)
		}
		usages = append(usages, &entities.InviteUsage{
			Code:      invite.Code,
			Uses:      invite.Uses,
			InviterID: inviterID,
		})
	}

	return usages, nil
}
