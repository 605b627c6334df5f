package jointracker

import (
	"context"
	"strconv"

	"raffler/application"
	"raffler/bot/common"

	"github.com/bwmarrin/discordgo"
)

// Feature represents the daily join tracker feature
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
}

// NewFeature creates a new join tracker feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
	}
}

// EditJoinMessage rewrites the existing tracker message (implements
// application.JoinMessenger)
func (f *Feature) EditJoinMessage(ctx context.Context, channelID, messageID int64, content string) error {
	_, err := f.session.ChannelMessageEdit(
		strconv.FormatInt(channelID, 10),
		strconv.FormatInt(messageID, 10),
		content,
	)
	return common.MapDiscordError(err)
}

// PostJoinMessage posts a fresh tracker message and returns its ID
// (implements application.JoinMessenger)
func (f *Feature) PostJoinMessage(ctx context.Context, channelID int64, content string) (int64, error) {
	msg, err := f.session.ChannelMessageSend(strconv.FormatInt(channelID, 10), content)
	if err != nil {
		return 0, common.MapDiscordError(err)
	}
	return strconv.ParseInt(msg.ID, 10, 64)
}
