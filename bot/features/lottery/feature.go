package lottery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"raffler/application"
	"raffler/bot/common"
	"raffler/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// reactionPageSize is the Discord API limit for a single reaction page
const reactionPageSize = 100

// Feature represents the lottery feature
type Feature struct {
	session         *discordgo.Session
	uowFactory      application.UnitOfWorkFactory
	rerunFrozenPool bool
}

// NewFeature creates a new lottery feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory, rerunFrozenPool bool) *Feature {
	return &Feature{
		session:         session,
		uowFactory:      uowFactory,
		rerunFrozenPool: rerunFrozenPool,
	}
}

// HandleCommand routes /lottery subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Missing subcommand")
		return
	}

	switch options[0].Name {
	case "start":
		f.handleStart(s, i, options[0].Options)
	case "rerun":
		f.handleRerun(s, i, options[0].Options)
	case "info":
		f.handleInfo(s, i, options[0].Options)
	case "list":
		f.handleList(s, i)
	default:
		common.RespondWithError(s, i, "Unknown lottery subcommand")
	}
}

// GetReactionUsers returns everyone who reacted with the emoji on the
// lottery message, paging through the full reaction list (implements
// application.ReactionFetcher)
func (f *Feature) GetReactionUsers(ctx context.Context, channelID, messageID int64, emoji string) ([]entities.Participant, error) {
	channelIDStr := strconv.FormatInt(channelID, 10)
	messageIDStr := strconv.FormatInt(messageID, 10)
	apiEmoji := toAPIEmoji(emoji)

	var participants []entities.Participant
	afterID := ""
	for {
		users, err := f.session.MessageReactions(channelIDStr, messageIDStr, apiEmoji, reactionPageSize, "", afterID)
		if err != nil {
			return nil, common.MapDiscordError(err)
		}

		for _, user := range users {
			userID, err := common.ParseUserID(user.ID)
			if err != nil {
				log.Warnf("Skipping reaction user with unparseable ID %s: %v", user.ID, err)
				continue
			}
			participants = append(participants, entities.Participant{
				UserID: userID,
				IsBot:  user.Bot,
			})
		}

		if len(users) < reactionPageSize {
			break
		}
		afterID = users[len(users)-1].ID
	}

	return participants, nil
}

// PostDrawResult edits the solicitation message with the outcome and
// announces the winner in the lottery channel (implements
// application.LotteryPoster). A nil result announces an empty draw.
func (f *Feature) PostDrawResult(ctx context.Context, lottery *entities.Lottery, result *entities.DrawResult) error {
	channelIDStr := strconv.FormatInt(lottery.ChannelID, 10)

	if lottery.HasMessage() {
		embed := CreateCompletedLotteryEmbed(lottery, result)
		messageIDStr := strconv.FormatInt(*lottery.MessageID, 10)
		_, err := f.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel: channelIDStr,
			ID:      messageIDStr,
			Embeds:  &[]*discordgo.MessageEmbed{embed},
		})
		if err != nil {
			log.WithFields(log.Fields{
				"lottery":    lottery.Name,
				"message_id": *lottery.MessageID,
			}).WithError(err).Warn("Failed to edit lottery message with result")
		}
	}

	announcement := FormatDrawAnnouncement(lottery, result)
	if _, err := f.session.ChannelMessageSend(channelIDStr, announcement); err != nil {
		return common.MapDiscordError(err)
	}

	return nil
}

// postSolicitation posts the entry message for a new lottery and seeds
// it with the bot's own reaction so members can click instead of hunting
// for the emoji
func (f *Feature) postSolicitation(lottery *entities.Lottery) (int64, error) {
	channelIDStr := strconv.FormatInt(lottery.ChannelID, 10)

	embed := CreateLotteryEmbed(lottery)
	msg, err := f.session.ChannelMessageSendComplex(channelIDStr, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to post lottery message: %w", common.MapDiscordError(err))
	}

	messageID, err := strconv.ParseInt(msg.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse message ID: %w", err)
	}

	if err := f.session.MessageReactionAdd(channelIDStr, msg.ID, toAPIEmoji(lottery.EntryEmoji)); err != nil {
		log.WithError(err).Warn("Failed to seed lottery entry reaction")
	}

	return messageID, nil
}

// toAPIEmoji converts a user-facing emoji (unicode or <:name:id>) to the
// name:id form the reaction endpoints expect
func toAPIEmoji(emoji string) string {
	if strings.HasPrefix(emoji, "<") && strings.HasSuffix(emoji, ">") {
		trimmed := strings.Trim(emoji, "<>")
		trimmed = strings.TrimPrefix(trimmed, "a")
		return strings.TrimPrefix(trimmed, ":")
	}
	return emoji
}
