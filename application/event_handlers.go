package application

import (
	"context"
	"encoding/json"

	"raffler/domain/entities"
	"raffler/domain/events"

	log "github.com/sirupsen/logrus"
)

// RegisterEventHandlers wires the application-level event subscribers:
// an audit log entry per draw, rerun and referral, and an early wake of
// the draw worker whenever a lottery is created.
func RegisterEventHandlers(bus *events.Bus, worker *DrawWorker) {
	bus.Subscribe(events.EventTypeLotteryCreated, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.LotteryCreatedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"guild_id":   e.GuildID,
			"lottery_id": e.LotteryID,
			"lottery":    e.Name,
			"end_time":   e.EndTime.UTC(),
		}).Info("Lottery created")

		worker.Notify()
	})

	bus.Subscribe(events.EventTypeDrawCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.DrawCompletedEvent)
		if !ok {
			return
		}
		archiveDraw("draw", e.GuildID, e.LotteryID, e.Name, e.Result)
	})

	bus.Subscribe(events.EventTypeRerunCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.RerunCompletedEvent)
		if !ok {
			return
		}
		archiveDraw("rerun", e.GuildID, e.LotteryID, e.Name, e.Result)
	})

	bus.Subscribe(events.EventTypeReferralRecorded, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.ReferralRecordedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"guild_id":   e.GuildID,
			"invited_id": e.InvitedID,
			"inviter_id": e.InviterID,
			"code":       e.InviteCode,
			"joined_at":  e.JoinedAt.UTC(),
		}).Info("Referral recorded for audit")
	})
}

// archiveDraw emits one audit line per conducted draw. The entry
// breakdown is serialized so past draws can be reconstructed from logs
// alone.
func archiveDraw(kind string, guildID, lotteryID int64, name string, result *entities.DrawResult) {
	fields := log.Fields{
		"kind":       kind,
		"guild_id":   guildID,
		"lottery_id": lotteryID,
		"lottery":    name,
	}

	if result == nil {
		log.WithFields(fields).Info("Draw completed with empty pool")
		return
	}

	fields["winner_id"] = result.WinnerID
	fields["participants"] = result.TotalParticipants
	fields["total_entries"] = result.TotalEntries
	fields["drawn_at"] = result.DrawnAt.UTC()

	if breakdown, err := json.Marshal(result.Entries); err == nil {
		fields["entries"] = string(breakdown)
	}

	log.WithFields(fields).Info("Draw archived")
}
