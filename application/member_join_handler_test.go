package application

import (
	"context"
	"testing"
	"time"

	"raffler/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testJoin(guildID, userID int64) MemberJoin {
	return MemberJoin{
		GuildID:  guildID,
		UserID:   userID,
		Username: "newcomer",
		JoinedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
}

func joinSettings(guildID int64, opts ...func(*entities.GuildSettings)) *entities.GuildSettings {
	settings := &entities.GuildSettings{GuildID: guildID}
	for _, opt := range opts {
		opt(settings)
	}
	return settings
}

func withJoinChannel(channelID int64) func(*entities.GuildSettings) {
	return func(s *entities.GuildSettings) {
		s.JoinChannelID = &channelID
	}
}

func TestMemberJoinHandler_AttributesAndCounts(t *testing.T) {
	factory, uow := newMockUnitOfWorkFactory()
	detector := &fakeInviteDetector{code: "abc123", detected: true}
	messenger := &fakeJoinMessenger{}

	join := testJoin(1, 200)
	messageID := int64(9000)
	settings := joinSettings(1, withJoinChannel(777), func(s *entities.GuildSettings) {
		s.LastJoinMessageID = &messageID
		s.JoinCount = 3
		lastJoin := join.JoinedAt.Add(-time.Hour)
		s.LastJoinAt = &lastJoin
	})

	uow.referralRepo.On("GetInviteOwner", mock.Anything, int64(1), "abc123").
		Return(&entities.ReferralInvite{GuildID: 1, Code: "abc123", OwnerID: 100}, nil)
	uow.referralRepo.On("InsertEdge", mock.Anything, mock.MatchedBy(func(e *entities.ReferralEdge) bool {
		return e.InvitedID == 200 && e.InviterID == 100 && e.InviteCode == "abc123"
	})).Return(true, nil)
	uow.referralRepo.On("IncrementPoints", mock.Anything, int64(1), int64(100)).Return(nil)
	uow.publisher.On("Publish", mock.Anything).Return()
	uow.settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).Return(settings, nil)
	uow.settingsRepo.On("UpdateGuildSettings", mock.Anything, settings).Return(nil)

	handler := NewMemberJoinHandler(factory, detector, messenger)
	err := handler.HandleMemberJoin(context.Background(), join)

	require.NoError(t, err)
	assert.Equal(t, 1, detector.calls)
	assert.Equal(t, 1, uow.commits)

	// Same day: counter advanced, no reset
	assert.Equal(t, int64(4), settings.JoinCount)
	assert.Equal(t, int64(200), *settings.LastJoinerID)
	assert.Equal(t, join.JoinedAt, *settings.LastJoinAt)

	// Tracker message edited in place
	require.Len(t, messenger.edits, 1)
	assert.Contains(t, messenger.edits[0], "4 people joined today")
	assert.Empty(t, messenger.posts)

	uow.referralRepo.AssertExpectations(t)
	uow.settingsRepo.AssertExpectations(t)
}

func TestMemberJoinHandler_NoAttributionWithoutDetection(t *testing.T) {
	factory, uow := newMockUnitOfWorkFactory()
	detector := &fakeInviteDetector{detected: false}
	messenger := &fakeJoinMessenger{}

	uow.settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).
		Return(joinSettings(1), nil)

	handler := NewMemberJoinHandler(factory, detector, messenger)
	err := handler.HandleMemberJoin(context.Background(), testJoin(1, 200))

	require.NoError(t, err)
	assert.Equal(t, 1, uow.commits)
	uow.referralRepo.AssertNotCalled(t, "GetInviteOwner", mock.Anything, mock.Anything, mock.Anything)

	// No join channel configured: no counter update, no message
	uow.settingsRepo.AssertNotCalled(t, "UpdateGuildSettings", mock.Anything, mock.Anything)
	assert.Empty(t, messenger.edits)
	assert.Empty(t, messenger.posts)
}

func TestMemberJoinHandler_BotJoinSkipsAttribution(t *testing.T) {
	factory, uow := newMockUnitOfWorkFactory()
	detector := &fakeInviteDetector{code: "abc123", detected: true}
	messenger := &fakeJoinMessenger{}

	uow.settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).
		Return(joinSettings(1), nil)

	join := testJoin(1, 200)
	join.IsBot = true

	handler := NewMemberJoinHandler(factory, detector, messenger)
	err := handler.HandleMemberJoin(context.Background(), join)

	require.NoError(t, err)
	// The snapshot still advanced even though the bot earns nobody credit
	assert.Equal(t, 1, detector.calls)
	uow.referralRepo.AssertNotCalled(t, "InsertEdge", mock.Anything, mock.Anything)
}

func TestMemberJoinHandler_SelfInviteSkipped(t *testing.T) {
	factory, uow := newMockUnitOfWorkFactory()
	detector := &fakeInviteDetector{code: "abc123", detected: true}
	messenger := &fakeJoinMessenger{}

	uow.referralRepo.On("GetInviteOwner", mock.Anything, int64(1), "abc123").
		Return(&entities.ReferralInvite{GuildID: 1, Code: "abc123", OwnerID: 200}, nil)
	uow.settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).
		Return(joinSettings(1), nil)

	handler := NewMemberJoinHandler(factory, detector, messenger)
	err := handler.HandleMemberJoin(context.Background(), testJoin(1, 200))

	require.NoError(t, err)
	uow.referralRepo.AssertNotCalled(t, "InsertEdge", mock.Anything, mock.Anything)
}

func TestMemberJoinHandler_DailyRollover(t *testing.T) {
	factory, uow := newMockUnitOfWorkFactory()
	detector := &fakeInviteDetector{}
	messenger := &fakeJoinMessenger{postedID: 5555}

	join := testJoin(1, 200)
	previousJoiner := int64(150)
	yesterday := join.JoinedAt.Add(-24 * time.Hour)
	settings := joinSettings(1, withJoinChannel(777), func(s *entities.GuildSettings) {
		s.JoinCount = 17
		s.LastJoinerID = &previousJoiner
		s.LastJoinAt = &yesterday
	})

	uow.settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).Return(settings, nil)
	uow.settingsRepo.On("UpdateGuildSettings", mock.Anything, settings).Return(nil)

	handler := NewMemberJoinHandler(factory, detector, messenger)
	err := handler.HandleMemberJoin(context.Background(), join)

	require.NoError(t, err)
	assert.Equal(t, int64(1), settings.JoinCount, "stale counter resets before counting")
	assert.Equal(t, int64(200), *settings.LastJoinerID)

	// No previous tracker message, so a fresh one is posted and stored
	require.Len(t, messenger.posts, 1)
	assert.Contains(t, messenger.posts[0], "1 people joined today")
	require.NotNil(t, settings.LastJoinMessageID)
	assert.Equal(t, int64(5555), *settings.LastJoinMessageID)
	assert.Equal(t, 2, uow.commits, "counter commit plus message ID commit")
}

func TestMemberJoinHandler_RepostsWhenTrackerMessageDeleted(t *testing.T) {
	factory, uow := newMockUnitOfWorkFactory()
	detector := &fakeInviteDetector{}
	messenger := &fakeJoinMessenger{editErr: ErrNotFound, postedID: 6000}

	join := testJoin(1, 200)
	staleMessageID := int64(9000)
	settings := joinSettings(1, withJoinChannel(777), func(s *entities.GuildSettings) {
		s.LastJoinMessageID = &staleMessageID
	})

	uow.settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).Return(settings, nil)
	uow.settingsRepo.On("UpdateGuildSettings", mock.Anything, settings).Return(nil)

	handler := NewMemberJoinHandler(factory, detector, messenger)
	err := handler.HandleMemberJoin(context.Background(), join)

	require.NoError(t, err)
	require.Len(t, messenger.posts, 1)
	assert.Equal(t, int64(6000), *settings.LastJoinMessageID)
}

func TestRenderJoinMessage(t *testing.T) {
	t.Parallel()

	count := int64(7)
	settings := &entities.GuildSettings{
		JoinCount:           count,
		JoinMessageTemplate: "{count} joined. Welcome {user} ({user.name})!",
	}
	join := MemberJoin{UserID: 200, Username: "newcomer"}

	got := renderJoinMessage(settings, join)
	assert.Equal(t, "7 joined. Welcome <@200> (newcomer)!", got)
}

func TestRenderJoinMessage_DefaultTemplate(t *testing.T) {
	t.Parallel()

	settings := &entities.GuildSettings{JoinCount: 1}
	join := MemberJoin{UserID: 200, Username: "newcomer"}

	got := renderJoinMessage(settings, join)
	assert.Equal(t, "1 people joined today! Latest: <@200>", got)
}
