package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"raffler/domain/entities"
	"raffler/domain/services"

	log "github.com/sirupsen/logrus"
)

// JoinMessenger maintains the join tracker message in the configured
// channel. Implemented by the bot layer.
type JoinMessenger interface {
	// EditJoinMessage rewrites an existing tracker message. Returns
	// ErrNotFound if it was deleted.
	EditJoinMessage(ctx context.Context, channelID, messageID int64, content string) error

	// PostJoinMessage posts a fresh tracker message and returns its ID
	PostJoinMessage(ctx context.Context, channelID int64, content string) (int64, error)
}

// MemberJoin carries the gateway fields the handler needs
type MemberJoin struct {
	GuildID  int64
	UserID   int64
	Username string
	IsBot    bool
	JoinedAt time.Time
}

// MemberJoinHandler reacts to guild member joins: it attributes the join
// to an invite (crediting the inviter's referral ledger) and updates the
// daily join counter message.
type MemberJoinHandler struct {
	uowFactory UnitOfWorkFactory
	detector   InviteDetector
	messenger  JoinMessenger
}

// NewMemberJoinHandler creates a new member join handler
func NewMemberJoinHandler(uowFactory UnitOfWorkFactory, detector InviteDetector, messenger JoinMessenger) *MemberJoinHandler {
	return &MemberJoinHandler{
		uowFactory: uowFactory,
		detector:   detector,
		messenger:  messenger,
	}
}

// HandleMemberJoin processes a single join event. Attribution failures
// are logged and never block the join counter, and vice versa.
func (h *MemberJoinHandler) HandleMemberJoin(ctx context.Context, join MemberJoin) error {
	// Snapshot diff first: the usage cache must advance even when the
	// join turns out to be unattributable.
	code, detected := h.detector.DetectUsedInvite(ctx, join.GuildID)

	uow := h.uowFactory.CreateForGuild(join.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if detected && !join.IsBot {
		if err := h.recordAttribution(ctx, uow, join, code); err != nil {
			log.WithFields(log.Fields{
				"guild_id": join.GuildID,
				"user_id":  join.UserID,
				"code":     code,
			}).WithError(err).Error("Failed to record referral attribution")
		}
	}

	settings, err := uow.GuildSettingsRepository().GetOrCreateGuildSettings(ctx, join.GuildID)
	if err != nil {
		return fmt.Errorf("failed to get guild settings: %w", err)
	}

	if settings.HasJoinChannel() {
		h.advanceJoinCounter(settings, join)
		if err := uow.GuildSettingsRepository().UpdateGuildSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to update join counter: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if settings.HasJoinChannel() {
		h.refreshJoinMessage(ctx, settings, join)
	}

	return nil
}

// recordAttribution resolves the invite owner and writes the referral
// edge. Unknown codes and self-invites are skipped silently.
func (h *MemberJoinHandler) recordAttribution(ctx context.Context, uow UnitOfWork, join MemberJoin, code string) error {
	invite, err := uow.ReferralRepository().GetInviteOwner(ctx, join.GuildID, code)
	if err != nil {
		return fmt.Errorf("failed to look up invite owner: %w", err)
	}
	if invite == nil || invite.OwnerID == join.UserID {
		return nil
	}

	referralService := services.NewReferralService(uow.ReferralRepository(), uow.EventBus())
	recorded, err := referralService.RecordReferral(ctx, join.GuildID, join.UserID, invite.OwnerID, code, join.JoinedAt)
	if err != nil {
		return err
	}
	if recorded {
		log.WithFields(log.Fields{
			"guild_id":   join.GuildID,
			"invited_id": join.UserID,
			"inviter_id": invite.OwnerID,
			"code":       code,
		}).Info("Referral recorded")
	}
	return nil
}

// advanceJoinCounter resets the daily count on a date rollover, then
// counts this join
func (h *MemberJoinHandler) advanceJoinCounter(settings *entities.GuildSettings, join MemberJoin) {
	now := join.JoinedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if settings.JoinCountStale(now) {
		settings.JoinCount = 0
		settings.LastJoinerID = nil
	}

	settings.JoinCount++
	userID := join.UserID
	settings.LastJoinerID = &userID
	settings.LastJoinAt = &now
}

// refreshJoinMessage edits the tracker message in place, falling back
// to posting a new one when the old message is gone. Posting failures
// never fail the join.
func (h *MemberJoinHandler) refreshJoinMessage(ctx context.Context, settings *entities.GuildSettings, join MemberJoin) {
	content := renderJoinMessage(settings, join)

	if settings.LastJoinMessageID != nil {
		err := h.messenger.EditJoinMessage(ctx, *settings.JoinChannelID, *settings.LastJoinMessageID, content)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
			log.WithError(err).Error("Failed to edit join tracker message")
			return
		}
	}

	messageID, err := h.messenger.PostJoinMessage(ctx, *settings.JoinChannelID, content)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id":   settings.GuildID,
			"channel_id": *settings.JoinChannelID,
		}).WithError(err).Warn("Failed to post join tracker message")
		return
	}

	uow := h.uowFactory.CreateForGuild(settings.GuildID)
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin transaction for join message ID")
		return
	}
	defer uow.Rollback()

	settings.LastJoinMessageID = &messageID
	if err := uow.GuildSettingsRepository().UpdateGuildSettings(ctx, settings); err != nil {
		log.WithError(err).Error("Failed to store join tracker message ID")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit join tracker message ID")
	}
}

// renderJoinMessage expands the guild's template placeholders
func renderJoinMessage(settings *entities.GuildSettings, join MemberJoin) string {
	template := settings.JoinMessageTemplate
	if template == "" {
		template = entities.DefaultJoinMessageTemplate
	}

	date := time.Now().In(settings.JoinLocation()).Format("2006-01-02")

	replacer := strings.NewReplacer(
		"{count}", strconv.FormatInt(settings.JoinCount, 10),
		"{user.name}", join.Username,
		"{user}", fmt.Sprintf("<@%d>", join.UserID),
		"{date}", date,
	)
	return replacer.Replace(template)
}
