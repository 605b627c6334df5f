package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"raffler/domain/entities"

	"github.com/jackc/pgx/v5"
)

// DrawResultRepository implements stored draw result data access
type DrawResultRepository struct {
	q Queryable
}

// NewDrawResultRepository creates a new draw result repository
func NewDrawResultRepository(q Queryable) *DrawResultRepository {
	return &DrawResultRepository{q: q}
}

// Create persists the original draw's outcome, entry breakdown included
func (r *DrawResultRepository) Create(ctx context.Context, result *entities.DrawResult) error {
	entriesJSON, err := marshalEntries(result.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode entry breakdown: %w", err)
	}

	query := `
		INSERT INTO draw_results (lottery_id, guild_id, winner_id, total_participants,
		                          total_entries, entries, drawn_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err = r.q.QueryRow(ctx, query,
		result.LotteryID,
		result.GuildID,
		result.WinnerID,
		result.TotalParticipants,
		result.TotalEntries,
		entriesJSON,
		result.DrawnAt,
	).Scan(&result.ID)

	if err != nil {
		return fmt.Errorf("failed to create draw result for lottery %d: %w", result.LotteryID, err)
	}

	return nil
}

// GetByLottery retrieves the stored result for a lottery, nil when the
// lottery completed with an empty pool
func (r *DrawResultRepository) GetByLottery(ctx context.Context, lotteryID int64) (*entities.DrawResult, error) {
	query := `
		SELECT id, lottery_id, guild_id, winner_id, total_participants,
		       total_entries, entries, drawn_at
		FROM draw_results
		WHERE lottery_id = $1
	`

	var result entities.DrawResult
	var entriesJSON []byte
	err := r.q.QueryRow(ctx, query, lotteryID).Scan(
		&result.ID,
		&result.LotteryID,
		&result.GuildID,
		&result.WinnerID,
		&result.TotalParticipants,
		&result.TotalEntries,
		&entriesJSON,
		&result.DrawnAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw result for lottery %d: %w", lotteryID, err)
	}

	result.Entries, err = unmarshalEntries(entriesJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode entry breakdown for lottery %d: %w", lotteryID, err)
	}

	return &result, nil
}

// marshalEntries encodes the entry breakdown as JSONB. JSON object keys
// are strings, so user IDs are stringified on the way in.
func marshalEntries(entries map[int64]int64) ([]byte, error) {
	encoded := make(map[string]int64, len(entries))
	for userID, count := range entries {
		encoded[strconv.FormatInt(userID, 10)] = count
	}
	return json.Marshal(encoded)
}

func unmarshalEntries(data []byte) (map[int64]int64, error) {
	if len(data) == 0 {
		return map[int64]int64{}, nil
	}

	var encoded map[string]int64
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, err
	}

	entries := make(map[int64]int64, len(encoded))
	for key, count := range encoded {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID key %q: %w", key, err)
		}
		entries[userID] = count
	}
	return entries, nil
}
