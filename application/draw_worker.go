package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raffler/domain/entities"
	"raffler/domain/services"

	log "github.com/sirupsen/logrus"
)

const (
	// idleInterval is how often the worker rechecks when no lottery is pending
	idleInterval = 1 * time.Hour
	// retryInterval bounds how often a due-but-undrawable lottery
	// (deleted message, missing permission) is retried
	retryInterval = 1 * time.Minute
)

// DrawWorker fires each lottery's draw once its end time elapses.
// Pending draws are plain database rows, so scheduled draws survive
// process restarts; the worker reconstructs its timer from the earliest
// pending end time.
type DrawWorker struct {
	uowFactory      UnitOfWorkFactory
	fetcher         ReactionFetcher
	poster          LotteryPoster
	rerunFrozenPool bool

	wake chan struct{}
}

// NewDrawWorker creates a new draw worker
func NewDrawWorker(uowFactory UnitOfWorkFactory, fetcher ReactionFetcher, poster LotteryPoster, rerunFrozenPool bool) *DrawWorker {
	return &DrawWorker{
		uowFactory:      uowFactory,
		fetcher:         fetcher,
		poster:          poster,
		rerunFrozenPool: rerunFrozenPool,
		wake:            make(chan struct{}, 1),
	}
}

// Notify wakes the worker early, typically after a new lottery is
// created so its end time is picked up without waiting out the idle
// interval. Never blocks.
func (w *DrawWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start begins the draw worker and returns a cleanup function
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Lottery draw worker started")

		for {
			if err := w.processDueLotteries(ctx); err != nil {
				log.Errorf("Error processing due lotteries: %v", err)
			}

			waitDuration := idleInterval
			nextEndTime := w.getNextEndTime(ctx)
			if nextEndTime != nil {
				waitDuration = time.Until(*nextEndTime)
				if waitDuration <= 0 {
					// Still due after processing: a lottery whose draw
					// silently no-oped. Back off instead of spinning.
					waitDuration = retryInterval
				}
				log.Infof("Next lottery draw at %v (in %v)", nextEndTime.UTC(), waitDuration)
			}

			select {
			case <-ctx.Done():
				log.Info("Lottery draw worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Lottery draw worker shutting down (stop requested)")
				return
			case <-w.wake:
			case <-time.After(waitDuration):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// getNextEndTime reads the earliest pending end time across all guilds
func (w *DrawWorker) getNextEndTime(ctx context.Context) *time.Time {
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction for next end time: %v", err)
		return nil
	}
	defer uow.Rollback()

	nextTime, err := uow.LotteryRepository().GetNextEndTime(ctx)
	if err != nil {
		log.Errorf("Failed to get next lottery end time: %v", err)
		return nil
	}
	return nextTime
}

// processDueLotteries draws every lottery whose end time has passed
func (w *DrawWorker) processDueLotteries(ctx context.Context) error {
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	due, err := uow.LotteryRepository().GetDueLotteries(ctx, time.Now().UTC())
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to get due lotteries: %w", err)
	}
	uow.Rollback()

	if len(due) == 0 {
		return nil
	}

	log.Infof("Found %d due lotteries to draw", len(due))

	var successCount, failureCount int
	for _, lottery := range due {
		if err := w.processDraw(ctx, lottery); err != nil {
			log.Errorf("Error drawing lottery %q in guild %d: %v", lottery.Name, lottery.GuildID, err)
			failureCount++
		} else {
			successCount++
		}
	}

	log.WithFields(log.Fields{
		"total_due":  len(due),
		"successful": successCount,
		"failed":     failureCount,
	}).Info("Completed lottery draw processing")

	return nil
}

// processDraw fetches the reaction pool and conducts a single draw in a
// guild-scoped transaction
func (w *DrawWorker) processDraw(ctx context.Context, lottery *entities.Lottery) error {
	pool, ok := w.fetchPool(ctx, lottery)
	if !ok {
		// Deleted message or missing permission: leave the lottery
		// untouched and retry on a later tick.
		return nil
	}

	uow := w.uowFactory.CreateForGuild(lottery.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Reload inside the transaction; a concurrent manual draw may have
	// completed it already.
	current, err := uow.LotteryRepository().GetByName(ctx, lottery.GuildID, lottery.Name)
	if err != nil {
		return fmt.Errorf("failed to reload lottery: %w", err)
	}
	if current == nil || current.IsCompleted() {
		return nil
	}

	lotteryService := services.NewLotteryService(
		uow.LotteryRepository(),
		uow.DrawResultRepository(),
		uow.GuildSettingsRepository(),
		services.NewEntryCalculator(services.NewReferralService(uow.ReferralRepository(), uow.EventBus())),
		uow.EventBus(),
		w.rerunFrozenPool,
	)

	result, err := lotteryService.Draw(ctx, current, pool)
	if err != nil {
		return fmt.Errorf("failed to conduct draw: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Announce outside the transaction; a posting failure never undoes
	// the draw.
	if err := w.poster.PostDrawResult(ctx, current, result); err != nil {
		log.Errorf("Failed to post draw result for lottery %q: %v", current.Name, err)
	}

	fields := log.Fields{
		"guild_id": current.GuildID,
		"lottery":  current.Name,
	}
	if result != nil {
		fields["winner_id"] = result.WinnerID
		fields["participants"] = result.TotalParticipants
		fields["total_entries"] = result.TotalEntries
	}
	log.WithFields(fields).Info("Lottery draw completed")

	return nil
}

// fetchPool reads the current reaction pool. The second return is false
// for the silent no-op failure modes.
func (w *DrawWorker) fetchPool(ctx context.Context, lottery *entities.Lottery) ([]entities.Participant, bool) {
	if !lottery.HasMessage() {
		return nil, true
	}

	pool, err := w.fetcher.GetReactionUsers(ctx, lottery.ChannelID, *lottery.MessageID, lottery.EntryEmoji)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			log.WithFields(log.Fields{
				"guild_id": lottery.GuildID,
				"lottery":  lottery.Name,
			}).WithError(err).Info("Lottery message unreadable, skipping draw")
			return nil, false
		}
		log.Errorf("Failed to fetch reactions for lottery %q: %v", lottery.Name, err)
		return nil, false
	}
	return pool, true
}
