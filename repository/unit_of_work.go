package repository

import (
	"context"
	"fmt"

	"raffler/application"
	"raffler/database"
	"raffler/domain/events"
	"raffler/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the application.UnitOfWork interface
type unitOfWork struct {
	db          *database.DB
	tx          pgx.Tx
	ctx         context.Context
	guildID     int64
	defaultRate int64

	transactionalBus *events.TransactionalBus

	lotteryRepo       interfaces.LotteryRepository
	drawResultRepo    interfaces.DrawResultRepository
	referralRepo      interfaces.ReferralRepository
	guildSettingsRepo interfaces.GuildSettingsRepository
}

type unitOfWorkFactory struct {
	db          *database.DB
	bus         *events.Bus
	defaultRate int64
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory bound to the
// shared event bus. defaultReferralsPerEntry seeds the referral rate
// for guilds that have no settings row yet.
func NewUnitOfWorkFactory(db *database.DB, bus *events.Bus, defaultReferralsPerEntry int64) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:          db,
		bus:         bus,
		defaultRate: defaultReferralsPerEntry,
	}
}

// CreateForGuild creates a new UnitOfWork scoped to a specific guild
func (f *unitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		guildID:          guildID,
		defaultRate:      f.defaultRate,
		transactionalBus: events.NewTransactionalBus(f.bus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.lotteryRepo = NewLotteryRepository(tx)
	u.drawResultRepo = NewDrawResultRepository(tx)
	u.referralRepo = NewReferralRepository(tx)
	u.guildSettingsRepo = NewGuildSettingsRepository(tx, u.defaultRate)

	return nil
}

// Commit commits the transaction and flushes pending domain events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// LotteryRepository returns the lottery repository for this unit of work
func (u *unitOfWork) LotteryRepository() interfaces.LotteryRepository {
	if u.lotteryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.lotteryRepo
}

// DrawResultRepository returns the draw result repository for this unit of work
func (u *unitOfWork) DrawResultRepository() interfaces.DrawResultRepository {
	if u.drawResultRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawResultRepo
}

// ReferralRepository returns the referral repository for this unit of work
func (u *unitOfWork) ReferralRepository() interfaces.ReferralRepository {
	if u.referralRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.referralRepo
}

// GuildSettingsRepository returns the guild settings repository for this unit of work
func (u *unitOfWork) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	if u.guildSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.guildSettingsRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
