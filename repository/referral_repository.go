package repository

import (
	"context"
	"fmt"
	"time"

	"raffler/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ReferralRepository implements the referral ledger data access:
// invite ownership, referral edges and lifetime points
type ReferralRepository struct {
	q Queryable
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(q Queryable) *ReferralRepository {
	return &ReferralRepository{q: q}
}

// UpsertInvite records or reassigns ownership of an invite code
func (r *ReferralRepository) UpsertInvite(ctx context.Context, guildID int64, code string, ownerID int64) error {
	query := `
		INSERT INTO referral_invites (guild_id, code, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, code)
		DO UPDATE SET owner_id = EXCLUDED.owner_id
	`

	if _, err := r.q.Exec(ctx, query, guildID, code, ownerID); err != nil {
		return fmt.Errorf("failed to upsert invite %s for guild %d: %w", code, guildID, err)
	}

	return nil
}

// DeleteInvite removes an invite code from the ledger. Recorded edges
// that reference the code are kept.
func (r *ReferralRepository) DeleteInvite(ctx context.Context, guildID int64, code string) error {
	query := `
		DELETE FROM referral_invites
		WHERE guild_id = $1 AND code = $2
	`

	if _, err := r.q.Exec(ctx, query, guildID, code); err != nil {
		return fmt.Errorf("failed to delete invite %s for guild %d: %w", code, guildID, err)
	}

	return nil
}

// GetInviteOwner resolves an invite code to its registered owner
func (r *ReferralRepository) GetInviteOwner(ctx context.Context, guildID int64, code string) (*entities.ReferralInvite, error) {
	query := `
		SELECT guild_id, code, owner_id, created_at
		FROM referral_invites
		WHERE guild_id = $1 AND code = $2
	`

	var invite entities.ReferralInvite
	err := r.q.QueryRow(ctx, query, guildID, code).Scan(
		&invite.GuildID,
		&invite.Code,
		&invite.OwnerID,
		&invite.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite %s for guild %d: %w", code, guildID, err)
	}

	return &invite, nil
}

// GetInviteByOwner returns the owner's registered invite, newest first
// when they somehow hold several
func (r *ReferralRepository) GetInviteByOwner(ctx context.Context, guildID, ownerID int64) (*entities.ReferralInvite, error) {
	query := `
		SELECT guild_id, code, owner_id, created_at
		FROM referral_invites
		WHERE guild_id = $1 AND owner_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var invite entities.ReferralInvite
	err := r.q.QueryRow(ctx, query, guildID, ownerID).Scan(
		&invite.GuildID,
		&invite.Code,
		&invite.OwnerID,
		&invite.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite for owner %d in guild %d: %w", ownerID, guildID, err)
	}

	return &invite, nil
}

// InsertEdge writes the referral edge for an invited member. The primary
// key on (guild_id, invited_id) makes attribution first-write-wins:
// returns false when the member already has an inviter.
func (r *ReferralRepository) InsertEdge(ctx context.Context, edge *entities.ReferralEdge) (bool, error) {
	query := `
		INSERT INTO referral_edges (guild_id, invited_id, inviter_id, invite_code, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, invited_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query,
		edge.GuildID,
		edge.InvitedID,
		edge.InviterID,
		edge.InviteCode,
		edge.JoinedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert referral edge for member %d in guild %d: %w", edge.InvitedID, edge.GuildID, err)
	}

	return result.RowsAffected() > 0, nil
}

// GetEdge returns who invited a member, nil when unattributed
func (r *ReferralRepository) GetEdge(ctx context.Context, guildID, invitedID int64) (*entities.ReferralEdge, error) {
	query := `
		SELECT guild_id, invited_id, inviter_id, invite_code, joined_at, created_at
		FROM referral_edges
		WHERE guild_id = $1 AND invited_id = $2
	`

	var edge entities.ReferralEdge
	err := r.q.QueryRow(ctx, query, guildID, invitedID).Scan(
		&edge.GuildID,
		&edge.InvitedID,
		&edge.InviterID,
		&edge.InviteCode,
		&edge.JoinedAt,
		&edge.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral edge for member %d in guild %d: %w", invitedID, guildID, err)
	}

	return &edge, nil
}

// GetEdgesByInviter lists everyone an inviter has brought in, newest first
func (r *ReferralRepository) GetEdgesByInviter(ctx context.Context, guildID, inviterID int64) ([]*entities.ReferralEdge, error) {
	query := `
		SELECT guild_id, invited_id, inviter_id, invite_code, joined_at, created_at
		FROM referral_edges
		WHERE guild_id = $1 AND inviter_id = $2
		ORDER BY joined_at DESC
	`

	rows, err := r.q.Query(ctx, query, guildID, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals for inviter %d in guild %d: %w", inviterID, guildID, err)
	}
	defer rows.Close()

	var edges []*entities.ReferralEdge
	for rows.Next() {
		var edge entities.ReferralEdge
		err := rows.Scan(
			&edge.GuildID,
			&edge.InvitedID,
			&edge.InviterID,
			&edge.InviteCode,
			&edge.JoinedAt,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral edge: %w", err)
		}
		edges = append(edges, &edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate referral edges: %w", err)
	}

	return edges, nil
}

// CountEdgesSince counts an inviter's referrals recorded at or after the
// cutoff; entry weighting uses a lottery's start time here
func (r *ReferralRepository) CountEdgesSince(ctx context.Context, guildID, inviterID int64, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM referral_edges
		WHERE guild_id = $1
		  AND inviter_id = $2
		  AND joined_at >= $3
	`

	var count int64
	err := r.q.QueryRow(ctx, query, guildID, inviterID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals for inviter %d in guild %d: %w", inviterID, guildID, err)
	}

	return count, nil
}

// IncrementPoints awards one lifetime referral point
func (r *ReferralRepository) IncrementPoints(ctx context.Context, guildID, userID int64) error {
	query := `
		INSERT INTO referral_points (guild_id, user_id, points)
		VALUES ($1, $2, 1)
		ON CONFLICT (guild_id, user_id)
		DO UPDATE SET points = referral_points.points + 1
	`

	if _, err := r.q.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to increment referral points for user %d in guild %d: %w", userID, guildID, err)
	}

	return nil
}

// GetPoints returns a user's lifetime referral points, zero when absent
func (r *ReferralRepository) GetPoints(ctx context.Context, guildID, userID int64) (int64, error) {
	query := `
		SELECT points
		FROM referral_points
		WHERE guild_id = $1 AND user_id = $2
	`

	var points int64
	err := r.q.QueryRow(ctx, query, guildID, userID).Scan(&points)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get referral points for user %d in guild %d: %w", userID, guildID, err)
	}

	return points, nil
}

// Leaderboard returns the guild's top referrers. Ties break on user ID
// so the ordering is stable.
func (r *ReferralRepository) Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.ReferralScore, error) {
	query := `
		SELECT user_id, points
		FROM referral_points
		WHERE guild_id = $1
		  AND points > 0
		ORDER BY points DESC, user_id ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral leaderboard for guild %d: %w", guildID, err)
	}
	defer rows.Close()

	var scores []*entities.ReferralScore
	for rows.Next() {
		var score entities.ReferralScore
		if err := rows.Scan(&score.UserID, &score.Points); err != nil {
			return nil, fmt.Errorf("failed to scan referral score: %w", err)
		}
		scores = append(scores, &score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate referral scores: %w", err)
	}

	return scores, nil
}
