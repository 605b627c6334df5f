package repository

import (
	"context"
	"testing"
	"time"

	"raffler/domain/entities"
	"raffler/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildSettingsRepository_GetOrCreate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuildSettingsRepository(testDB.DB.Pool, entities.DefaultReferralsPerEntry)
	ctx := context.Background()

	settings, err := repo.GetOrCreateGuildSettings(ctx, 123456789)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, int64(123456789), settings.GuildID)
	assert.Equal(t, entities.DefaultReferralsPerEntry, settings.ReferralsPerEntry)
	assert.Equal(t, entities.DefaultJoinTimezone, settings.JoinTimezone)
	assert.Nil(t, settings.JoinChannelID)
	assert.Zero(t, settings.JoinCount)

	// Second call returns the same row, not a fresh default
	again, err := repo.GetOrCreateGuildSettings(ctx, 123456789)
	require.NoError(t, err)
	assert.Equal(t, settings.GuildID, again.GuildID)
}

func TestGuildSettingsRepository_GetOrCreateSeedsConfiguredRate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	// New rows take the operator-configured rate
	repo := NewGuildSettingsRepository(testDB.DB.Pool, 2)
	settings, err := repo.GetOrCreateGuildSettings(ctx, 111)
	require.NoError(t, err)
	assert.Equal(t, int64(2), settings.ReferralsPerEntry)

	// Existing rows keep their stored rate even if the configured
	// default changes later
	repo = NewGuildSettingsRepository(testDB.DB.Pool, 7)
	settings, err = repo.GetOrCreateGuildSettings(ctx, 111)
	require.NoError(t, err)
	assert.Equal(t, int64(2), settings.ReferralsPerEntry)

	// A non-positive configured rate falls back to the built-in default
	repo = NewGuildSettingsRepository(testDB.DB.Pool, 0)
	settings, err = repo.GetOrCreateGuildSettings(ctx, 222)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultReferralsPerEntry, settings.ReferralsPerEntry)
}

func TestGuildSettingsRepository_Update(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuildSettingsRepository(testDB.DB.Pool, entities.DefaultReferralsPerEntry)
	ctx := context.Background()

	settings, err := repo.GetOrCreateGuildSettings(ctx, 123456789)
	require.NoError(t, err)

	channelID := int64(777)
	joinerID := int64(200)
	messageID := int64(9000)
	lastJoin := time.Now().UTC().Truncate(time.Second)

	settings.ReferralsPerEntry = 3
	settings.JoinChannelID = &channelID
	settings.JoinCount = 5
	settings.LastJoinerID = &joinerID
	settings.LastJoinMessageID = &messageID
	settings.LastJoinAt = &lastJoin
	settings.JoinMessageTemplate = "{count} joined on {date}"
	settings.JoinTimezone = "Europe/London"

	require.NoError(t, repo.UpdateGuildSettings(ctx, settings))

	got, err := repo.GetOrCreateGuildSettings(ctx, 123456789)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ReferralsPerEntry)
	require.NotNil(t, got.JoinChannelID)
	assert.Equal(t, channelID, *got.JoinChannelID)
	assert.Equal(t, int64(5), got.JoinCount)
	require.NotNil(t, got.LastJoinerID)
	assert.Equal(t, joinerID, *got.LastJoinerID)
	require.NotNil(t, got.LastJoinMessageID)
	assert.Equal(t, messageID, *got.LastJoinMessageID)
	require.NotNil(t, got.LastJoinAt)
	assert.WithinDuration(t, lastJoin, *got.LastJoinAt, time.Second)
	assert.Equal(t, "{count} joined on {date}", got.JoinMessageTemplate)
	assert.Equal(t, "Europe/London", got.JoinTimezone)
}

func TestGuildSettingsRepository_UpdateMissingGuild(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewGuildSettingsRepository(testDB.DB.Pool, entities.DefaultReferralsPerEntry)

	err := repo.UpdateGuildSettings(context.Background(), &entities.GuildSettings{
		GuildID:           999999,
		ReferralsPerEntry: 5,
	})
	assert.Error(t, err)
}
