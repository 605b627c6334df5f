package services

import (
	"context"
	"time"

	"raffler/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// EntryCalculator converts a participant set into weighted entry counts.
// Every participant gets one base entry; participants with qualifying
// referrals earn one bonus entry per referralsPerEntry referrals made
// at or after the lottery start.
type EntryCalculator struct {
	counter interfaces.ReferralCounter
}

// NewEntryCalculator creates an entry calculator. A nil counter disables
// referral bonuses entirely; the calculator never errors because of an
// absent or failing referral subsystem.
func NewEntryCalculator(counter interfaces.ReferralCounter) *EntryCalculator {
	return &EntryCalculator{counter: counter}
}

// Compute returns participant -> entry count, all values >= 1.
// referralsPerEntry is validated positive at configuration time.
func (c *EntryCalculator) Compute(
	ctx context.Context,
	guildID int64,
	participants []int64,
	lotteryStart time.Time,
	useReferrals bool,
	referralsPerEntry int64,
) map[int64]int64 {
	entries := make(map[int64]int64, len(participants))
	for _, id := range participants {
		entries[id] = 1
	}

	if !useReferrals || c.counter == nil || referralsPerEntry <= 0 {
		return entries
	}

	for _, id := range participants {
		referrals, err := c.counter.CountReferralsSince(ctx, guildID, id, lotteryStart)
		if err != nil {
			// Degraded collaborator: fall back to the base entry.
			log.WithError(err).WithFields(log.Fields{
				"guild_id": guildID,
				"user_id":  id,
			}).Warn("Referral lookup failed, using base entry")
			continue
		}
		entries[id] = 1 + referrals/referralsPerEntry
	}

	return entries
}
