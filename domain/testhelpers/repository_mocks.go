package testhelpers

import (
	"context"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockLotteryRepository is a mock implementation of LotteryRepository
type MockLotteryRepository struct {
	mock.Mock
}

func (m *MockLotteryRepository) Create(ctx context.Context, lottery *entities.Lottery) error {
	args := m.Called(ctx, lottery)
	return args.Error(0)
}

func (m *MockLotteryRepository) GetByName(ctx context.Context, guildID int64, name string) (*entities.Lottery, error) {
	args := m.Called(ctx, guildID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Lottery), args.Error(1)
}

func (m *MockLotteryRepository) GetDueLotteries(ctx context.Context, asOf time.Time) ([]*entities.Lottery, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Lottery), args.Error(1)
}

func (m *MockLotteryRepository) GetNextEndTime(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLotteryRepository) ListActive(ctx context.Context, guildID int64) ([]*entities.Lottery, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Lottery), args.Error(1)
}

func (m *MockLotteryRepository) Complete(ctx context.Context, lotteryID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, lotteryID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockLotteryRepository) SetMessage(ctx context.Context, lotteryID, messageID int64) error {
	args := m.Called(ctx, lotteryID, messageID)
	return args.Error(0)
}

// MockDrawResultRepository is a mock implementation of DrawResultRepository
type MockDrawResultRepository struct {
	mock.Mock
}

func (m *MockDrawResultRepository) Create(ctx context.Context, result *entities.DrawResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockDrawResultRepository) GetByLottery(ctx context.Context, lotteryID int64) (*entities.DrawResult, error) {
	args := m.Called(ctx, lotteryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DrawResult), args.Error(1)
}

// MockReferralRepository is a mock implementation of ReferralRepository
type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) UpsertInvite(ctx context.Context, guildID int64, code string, ownerID int64) error {
	args := m.Called(ctx, guildID, code, ownerID)
	return args.Error(0)
}

func (m *MockReferralRepository) DeleteInvite(ctx context.Context, guildID int64, code string) error {
	args := m.Called(ctx, guildID, code)
	return args.Error(0)
}

func (m *MockReferralRepository) GetInviteOwner(ctx context.Context, guildID int64, code string) (*entities.ReferralInvite, error) {
	args := m.Called(ctx, guildID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralInvite), args.Error(1)
}

func (m *MockReferralRepository) GetInviteByOwner(ctx context.Context, guildID, ownerID int64) (*entities.ReferralInvite, error) {
	args := m.Called(ctx, guildID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralInvite), args.Error(1)
}

func (m *MockReferralRepository) InsertEdge(ctx context.Context, edge *entities.ReferralEdge) (bool, error) {
	args := m.Called(ctx, edge)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferralRepository) GetEdge(ctx context.Context, guildID, invitedID int64) (*entities.ReferralEdge, error) {
	args := m.Called(ctx, guildID, invitedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralEdge), args.Error(1)
}

func (m *MockReferralRepository) GetEdgesByInviter(ctx context.Context, guildID, inviterID int64) ([]*entities.ReferralEdge, error) {
	args := m.Called(ctx, guildID, inviterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReferralEdge), args.Error(1)
}

func (m *MockReferralRepository) CountEdgesSince(ctx context.Context, guildID, inviterID int64, since time.Time) (int64, error) {
	args := m.Called(ctx, guildID, inviterID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferralRepository) IncrementPoints(ctx context.Context, guildID, userID int64) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

func (m *MockReferralRepository) GetPoints(ctx context.Context, guildID, userID int64) (int64, error) {
	args := m.Called(ctx, guildID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReferralRepository) Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.ReferralScore, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ReferralScore), args.Error(1)
}

// MockGuildSettingsRepository is a mock implementation of GuildSettingsRepository
type MockGuildSettingsRepository struct {
	mock.Mock
}

func (m *MockGuildSettingsRepository) GetOrCreateGuildSettings(ctx context.Context, guildID int64) (*entities.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GuildSettings), args.Error(1)
}

func (m *MockGuildSettingsRepository) UpdateGuildSettings(ctx context.Context, settings *entities.GuildSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}
