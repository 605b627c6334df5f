package repository

import (
	"context"
	"fmt"

	"raffler/domain/entities"

	"github.com/jackc/pgx/v5"
)

const guildSettingsColumns = `guild_id, referrals_per_entry, join_channel_id, join_count,
	       last_joiner_id, last_join_message_id, last_join_at,
	       join_message_template, join_timezone`

// GuildSettingsRepository implements the GuildSettingsRepository interface
type GuildSettingsRepository struct {
	q           Queryable
	defaultRate int64
}

// NewGuildSettingsRepository creates a new guild settings repository.
// defaultRate seeds referrals_per_entry when a guild's row is first
// created; per-guild updates take precedence afterwards.
func NewGuildSettingsRepository(q Queryable, defaultRate int64) *GuildSettingsRepository {
	if defaultRate <= 0 {
		defaultRate = entities.DefaultReferralsPerEntry
	}
	return &GuildSettingsRepository{q: q, defaultRate: defaultRate}
}

func scanGuildSettings(row pgx.Row) (*entities.GuildSettings, error) {
	var settings entities.GuildSettings
	err := row.Scan(
		&settings.GuildID,
		&settings.ReferralsPerEntry,
		&settings.JoinChannelID,
		&settings.JoinCount,
		&settings.LastJoinerID,
		&settings.LastJoinMessageID,
		&settings.LastJoinAt,
		&settings.JoinMessageTemplate,
		&settings.JoinTimezone,
	)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetOrCreateGuildSettings retrieves guild settings or creates default ones if not found
func (r *GuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM guild_settings
		WHERE guild_id = $1
	`, guildSettingsColumns)

	settings, err := scanGuildSettings(r.q.QueryRow(ctx, query, guildID))
	if err == nil {
		return settings, nil
	}

	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get guild settings for guild %d: %w", guildID, err)
	}

	// If not found, create default settings
	insertQuery := fmt.Sprintf(`
		INSERT INTO guild_settings (guild_id, referrals_per_entry)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET guild_id = EXCLUDED.guild_id
		RETURNING %s
	`, guildSettingsColumns)

	settings, err = scanGuildSettings(r.q.QueryRow(ctx, insertQuery, guildID, r.defaultRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create guild settings for guild %d: %w", guildID, err)
	}

	return settings, nil
}

// UpdateGuildSettings updates guild settings
func (r *GuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error {
	query := `
		UPDATE guild_settings
		SET referrals_per_entry = $2,
		    join_channel_id = $3,
		    join_count = $4,
		    last_joiner_id = $5,
		    last_join_message_id = $6,
		    last_join_at = $7,
		    join_message_template = $8,
		    join_timezone = $9
		WHERE guild_id = $1
	`

	result, err := r.q.Exec(ctx, query,
		settings.GuildID,
		settings.ReferralsPerEntry,
		settings.JoinChannelID,
		settings.JoinCount,
		settings.LastJoinerID,
		settings.LastJoinMessageID,
		settings.LastJoinAt,
		settings.JoinMessageTemplate,
		settings.JoinTimezone,
	)

	if err != nil {
		return fmt.Errorf("failed to update guild settings for guild %d: %w", settings.GuildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild settings for guild %d not found", settings.GuildID)
	}

	return nil
}
