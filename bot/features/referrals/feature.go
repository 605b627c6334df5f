package referrals

import (
	"raffler/application"

	"github.com/bwmarrin/discordgo"
)

// leaderboardSize caps how many referrers /referrals shows
const leaderboardSize = 10

// Feature represents the referral feature: personal invite links, the
// referral ledger and the leaderboard
type Feature struct {
	session    *discordgo.Session
	uowFactory application.UnitOfWorkFactory
}

// NewFeature creates a new referrals feature instance
func NewFeature(session *discordgo.Session, uowFactory application.UnitOfWorkFactory) *Feature {
	return &Feature{
		session:    session,
		uowFactory: uowFactory,
	}
}
