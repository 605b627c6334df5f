package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raffler/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const lotteryColumns = `id, guild_id, name, channel_id, message_id, entry_emoji,
	       use_referrals, description, starter_id, start_time, end_time,
	       status, completed_at, created_at`

// LotteryRepository implements lottery data access
type LotteryRepository struct {
	q Queryable
}

// NewLotteryRepository creates a new lottery repository
func NewLotteryRepository(q Queryable) *LotteryRepository {
	return &LotteryRepository{q: q}
}

func scanLottery(row pgx.Row) (*entities.Lottery, error) {
	var lottery entities.Lottery
	err := row.Scan(
		&lottery.ID,
		&lottery.GuildID,
		&lottery.Name,
		&lottery.ChannelID,
		&lottery.MessageID,
		&lottery.EntryEmoji,
		&lottery.UseReferrals,
		&lottery.Description,
		&lottery.StarterID,
		&lottery.StartTime,
		&lottery.EndTime,
		&lottery.Status,
		&lottery.CompletedAt,
		&lottery.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lottery, nil
}

// Create inserts a new lottery in the active bucket. A name collision in
// the guild surfaces as entities.ErrDuplicateName.
func (r *LotteryRepository) Create(ctx context.Context, lottery *entities.Lottery) error {
	query := `
		INSERT INTO lotteries (guild_id, name, channel_id, message_id, entry_emoji,
		                       use_referrals, description, starter_id, start_time,
		                       end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		lottery.GuildID,
		lottery.Name,
		lottery.ChannelID,
		lottery.MessageID,
		lottery.EntryEmoji,
		lottery.UseReferrals,
		lottery.Description,
		lottery.StarterID,
		lottery.StartTime,
		lottery.EndTime,
		lottery.Status,
	).Scan(&lottery.ID, &lottery.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entities.ErrDuplicateName
		}
		return fmt.Errorf("failed to create lottery: %w", err)
	}

	return nil
}

// GetByName retrieves a lottery by its guild-unique name. The lookup
// spans both buckets.
func (r *LotteryRepository) GetByName(ctx context.Context, guildID int64, name string) (*entities.Lottery, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM lotteries
		WHERE guild_id = $1 AND name = $2
	`, lotteryColumns)

	lottery, err := scanLottery(r.q.QueryRow(ctx, query, guildID, name))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery %q for guild %d: %w", name, guildID, err)
	}

	return lottery, nil
}

// GetDueLotteries returns all active lotteries whose end time has passed
func (r *LotteryRepository) GetDueLotteries(ctx context.Context, asOf time.Time) ([]*entities.Lottery, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM lotteries
		WHERE status = 'active'
		  AND end_time <= $1
		ORDER BY end_time ASC
	`, lotteryColumns)

	rows, err := r.q.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to get due lotteries: %w", err)
	}
	defer rows.Close()

	var lotteries []*entities.Lottery
	for rows.Next() {
		lottery, err := scanLottery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lottery: %w", err)
		}
		lotteries = append(lotteries, lottery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lotteries: %w", err)
	}

	return lotteries, nil
}

// GetNextEndTime returns the earliest end time of any active lottery,
// or nil when none are pending
func (r *LotteryRepository) GetNextEndTime(ctx context.Context) (*time.Time, error) {
	query := `
		SELECT MIN(end_time)
		FROM lotteries
		WHERE status = 'active'
	`

	var endTime *time.Time
	err := r.q.QueryRow(ctx, query).Scan(&endTime)
	if err != nil {
		return nil, fmt.Errorf("failed to get next lottery end time: %w", err)
	}

	return endTime, nil
}

// ListActive returns all active lotteries for a guild ordered by end time
func (r *LotteryRepository) ListActive(ctx context.Context, guildID int64) ([]*entities.Lottery, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM lotteries
		WHERE guild_id = $1
		  AND status = 'active'
		ORDER BY end_time ASC
	`, lotteryColumns)

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active lotteries for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var lotteries []*entities.Lottery
	for rows.Next() {
		lottery, err := scanLottery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lottery: %w", err)
		}
		lotteries = append(lotteries, lottery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lotteries: %w", err)
	}

	return lotteries, nil
}

// Complete atomically moves a lottery from the active bucket to the
// completed bucket. Returns false when a concurrent draw already
// claimed it.
func (r *LotteryRepository) Complete(ctx context.Context, lotteryID int64, at time.Time) (bool, error) {
	query := `
		UPDATE lotteries
		SET status = 'completed',
		    completed_at = $2
		WHERE id = $1
		  AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, lotteryID, at)
	if err != nil {
		return false, fmt.Errorf("failed to complete lottery %d: %w", lotteryID, err)
	}

	return result.RowsAffected() > 0, nil
}

// SetMessage records the solicitation message posted for a lottery
func (r *LotteryRepository) SetMessage(ctx context.Context, lotteryID, messageID int64) error {
	query := `
		UPDATE lotteries
		SET message_id = $2
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, lotteryID, messageID)
	if err != nil {
		return fmt.Errorf("failed to set message for lottery %d: %w", lotteryID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lottery with ID %d not found", lotteryID)
	}

	return nil
}
