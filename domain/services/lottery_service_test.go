package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"
	"raffler/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Helper to create an active lottery with common defaults
func activeLottery(id, guildID int64, opts ...func(*entities.Lottery)) *entities.Lottery {
	now := time.Now().UTC()
	lottery := &entities.Lottery{
		ID:         id,
		GuildID:    guildID,
		Name:       "weekly-giveaway",
		ChannelID:  555,
		EntryEmoji: "🎉",
		StarterID:  900,
		StartTime:  now.Add(-1 * time.Hour),
		EndTime:    now.Add(-1 * time.Minute),
		Status:     entities.LotteryStatusActive,
	}
	for _, opt := range opts {
		opt(lottery)
	}
	return lottery
}

func completedLottery(id, guildID int64, opts ...func(*entities.Lottery)) *entities.Lottery {
	lottery := activeLottery(id, guildID, opts...)
	lottery.Complete(time.Now().UTC())
	return lottery
}

func humans(ids ...int64) []entities.Participant {
	pool := make([]entities.Participant, 0, len(ids))
	for _, id := range ids {
		pool = append(pool, entities.Participant{UserID: id})
	}
	return pool
}

// setupLotteryServiceMocks creates the mock repositories used by lottery service tests
func setupLotteryServiceMocks() (
	*testhelpers.MockLotteryRepository,
	*testhelpers.MockDrawResultRepository,
	*testhelpers.MockGuildSettingsRepository,
	*testhelpers.MockReferralRepository,
	*testhelpers.MockEventPublisher,
) {
	return new(testhelpers.MockLotteryRepository),
		new(testhelpers.MockDrawResultRepository),
		new(testhelpers.MockGuildSettingsRepository),
		new(testhelpers.MockReferralRepository),
		new(testhelpers.MockEventPublisher)
}

// newTestLotteryService wires a service with a fixed random index so draws
// are deterministic
func newTestLotteryService(
	lotteryRepo *testhelpers.MockLotteryRepository,
	resultRepo *testhelpers.MockDrawResultRepository,
	settingsRepo *testhelpers.MockGuildSettingsRepository,
	referralRepo *testhelpers.MockReferralRepository,
	publisher *testhelpers.MockEventPublisher,
	rerunFrozenPool bool,
	fixedIndex int64,
) interfaces.LotteryService {
	calculator := NewEntryCalculator(NewReferralService(referralRepo, nil))
	svc := NewLotteryService(lotteryRepo, resultRepo, settingsRepo, calculator, publisher, rerunFrozenPool)
	svc.(*lotteryService).randInt = func(max int64) (int64, error) {
		if fixedIndex >= max {
			return max - 1, nil
		}
		return fixedIndex, nil
	}
	return svc
}

func TestLotteryService_Create_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		params      interfaces.CreateLotteryParams
		setupMocks  func(*testhelpers.MockLotteryRepository)
		errContains string
	}{
		{
			name: "non-positive duration",
			params: interfaces.CreateLotteryParams{
				GuildID: 1, Name: "x", EntryEmoji: "🎉", Duration: 0,
			},
			errContains: "duration must be positive",
		},
		{
			name: "blank name",
			params: interfaces.CreateLotteryParams{
				GuildID: 1, Name: "   ", EntryEmoji: "🎉", Duration: time.Hour,
			},
			errContains: "name must not be empty",
		},
		{
			name: "missing emoji",
			params: interfaces.CreateLotteryParams{
				GuildID: 1, Name: "x", Duration: time.Hour,
			},
			errContains: "entry emoji must not be empty",
		},
		{
			name: "duplicate name",
			params: interfaces.CreateLotteryParams{
				GuildID: 1, Name: "weekly-giveaway", EntryEmoji: "🎉", Duration: time.Hour,
			},
			setupMocks: func(lotteryRepo *testhelpers.MockLotteryRepository) {
				lotteryRepo.On("GetByName", mock.Anything, int64(1), "weekly-giveaway").
					Return(activeLottery(7, 1), nil)
			},
			errContains: entities.ErrDuplicateName.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
			if tt.setupMocks != nil {
				tt.setupMocks(lotteryRepo)
			}

			service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
			_, err := service.Create(context.Background(), tt.params)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			lotteryRepo.AssertExpectations(t)
		})
	}
}

func TestLotteryService_Create_Success(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()

	lotteryRepo.On("GetByName", mock.Anything, int64(1), "launch-party").Return(nil, nil)
	lotteryRepo.On("Create", mock.Anything, mock.MatchedBy(func(l *entities.Lottery) bool {
		return l.GuildID == 1 &&
			l.Name == "launch-party" &&
			l.Status == entities.LotteryStatusActive &&
			l.EndTime.Sub(l.StartTime) == 2*time.Hour
	})).Return(nil)
	publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		created, ok := e.(events.LotteryCreatedEvent)
		return ok && created.GuildID == 1 && created.Name == "launch-party"
	})).Return()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
	lottery, err := service.Create(context.Background(), interfaces.CreateLotteryParams{
		GuildID:    1,
		Name:       "launch-party",
		ChannelID:  555,
		EntryEmoji: "🎉",
		StarterID:  900,
		Duration:   2 * time.Hour,
	})

	require.NoError(t, err)
	require.NotNil(t, lottery)
	assert.False(t, lottery.IsCompleted())

	lotteryRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLotteryService_Draw_EmptyPoolCompletesWithoutResult(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := activeLottery(10, 1)

	lotteryRepo.On("Complete", mock.Anything, int64(10), mock.Anything).Return(true, nil)
	publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		completed, ok := e.(events.DrawCompletedEvent)
		return ok && completed.LotteryID == 10 && completed.Result == nil
	})).Return()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)

	// A pool of only bots is an empty pool
	result, err := service.Draw(context.Background(), lottery, []entities.Participant{
		{UserID: 42, IsBot: true},
	})

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.True(t, lottery.IsCompleted())

	resultRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	lotteryRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestLotteryService_Draw_ClaimContention(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := activeLottery(10, 1)

	// Another worker won the bucket move
	lotteryRepo.On("Complete", mock.Anything, int64(10), mock.Anything).Return(false, nil)

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
	_, err := service.Draw(context.Background(), lottery, humans(100, 200))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")
	resultRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestLotteryService_Draw_AlreadyCompleted(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
	_, err := service.Draw(context.Background(), completedLottery(10, 1), humans(100))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")
	lotteryRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestLotteryService_Draw_DeduplicatesAndFiltersBots(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := activeLottery(10, 1)

	lotteryRepo.On("Complete", mock.Anything, int64(10), mock.Anything).Return(true, nil)
	resultRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.DrawResult) bool {
		return r.TotalParticipants == 2 &&
			r.TotalEntries == 2 &&
			r.Entries[100] == 1 &&
			r.Entries[200] == 1
	})).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.DrawCompletedEvent")).Return()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)

	pool := []entities.Participant{
		{UserID: 100},
		{UserID: 100}, // duplicate reaction fetch page overlap
		{UserID: 300, IsBot: true},
		{UserID: 200},
	}
	result, err := service.Draw(context.Background(), lottery, pool)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(100), result.WinnerID) // index 0 lands on the lowest ID
	resultRepo.AssertExpectations(t)
}

func TestLotteryService_Draw_ReferralWeighting(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := activeLottery(10, 1, func(l *entities.Lottery) {
		l.UseReferrals = true
	})

	settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).Return(&entities.GuildSettings{
		GuildID:           1,
		ReferralsPerEntry: 3,
	}, nil)

	lotteryRepo.On("Complete", mock.Anything, int64(10), mock.Anything).Return(true, nil)

	// 100 made 7 referrals during the lottery: 1 + 7/3 = 3 entries.
	// 200 made 2: not enough for a bonus.
	referralRepo.On("CountEdgesSince", mock.Anything, int64(1), int64(100), lottery.StartTime).Return(int64(7), nil)
	referralRepo.On("CountEdgesSince", mock.Anything, int64(1), int64(200), lottery.StartTime).Return(int64(2), nil)

	resultRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.DrawResult) bool {
		return r.TotalEntries == 4 && r.Entries[100] == 3 && r.Entries[200] == 1
	})).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.DrawCompletedEvent")).Return()

	// Index 3 is the last pool slot, which belongs to 200
	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 3)
	result, err := service.Draw(context.Background(), lottery, humans(100, 200))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(200), result.WinnerID)
	assert.InDelta(t, 0.25, result.WinProbability(), 1e-9)

	settingsRepo.AssertExpectations(t)
	referralRepo.AssertExpectations(t)
	resultRepo.AssertExpectations(t)
}

func TestLotteryService_Draw_ReferralLookupFailureFallsBack(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := activeLottery(10, 1, func(l *entities.Lottery) {
		l.UseReferrals = true
	})

	settingsRepo.On("GetOrCreateGuildSettings", mock.Anything, int64(1)).Return(&entities.GuildSettings{GuildID: 1}, nil)
	lotteryRepo.On("Complete", mock.Anything, int64(10), mock.Anything).Return(true, nil)
	referralRepo.On("CountEdgesSince", mock.Anything, int64(1), int64(100), lottery.StartTime).
		Return(int64(0), errors.New("connection reset"))

	// The failed lookup degrades to the base entry instead of failing the draw
	resultRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.DrawResult) bool {
		return r.TotalEntries == 1 && r.Entries[100] == 1
	})).Return(nil)
	publisher.On("Publish", mock.AnythingOfType("events.DrawCompletedEvent")).Return()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
	result, err := service.Draw(context.Background(), lottery, humans(100))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(100), result.WinnerID)
}

func TestLotteryService_Rerun_RequiresCompletedLottery(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
	_, err := service.Rerun(context.Background(), activeLottery(10, 1), humans(100))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not completed")
}

func TestLotteryService_Rerun_LivePool(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := completedLottery(10, 1)

	publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		rerun, ok := e.(events.RerunCompletedEvent)
		return ok && rerun.LotteryID == 10 && rerun.Result != nil
	})).Return()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 1)
	result, err := service.Rerun(context.Background(), lottery, humans(100, 200))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(200), result.WinnerID)

	// Reruns never touch stored state
	resultRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	lotteryRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertExpectations(t)
}

func TestLotteryService_Rerun_EmptyPoolIsNoOp(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, false, 0)
	result, err := service.Rerun(context.Background(), completedLottery(10, 1), nil)

	require.NoError(t, err)
	assert.Nil(t, result)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestLotteryService_Rerun_FrozenPoolUsesStoredEntries(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := completedLottery(10, 1)

	stored := &entities.DrawResult{
		LotteryID:    10,
		GuildID:      1,
		WinnerID:     100,
		TotalEntries: 5,
		Entries:      map[int64]int64{100: 4, 200: 1},
	}
	resultRepo.On("GetByLottery", mock.Anything, int64(10)).Return(stored, nil)
	publisher.On("Publish", mock.AnythingOfType("events.RerunCompletedEvent")).Return()

	// Index 4 is the final slot, held by 200 even though the live pool
	// passed in is completely different
	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, true, 4)
	result, err := service.Rerun(context.Background(), lottery, humans(999))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(200), result.WinnerID)
	assert.Equal(t, int64(5), result.TotalEntries)

	// The live pool's referral counts were never consulted
	referralRepo.AssertNotCalled(t, "CountEdgesSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	resultRepo.AssertExpectations(t)
}

func TestLotteryService_Rerun_FrozenPoolFallsBackWithoutStoredResult(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	lottery := completedLottery(10, 1)

	// Empty-pool draws store nothing, so a frozen rerun recomputes live
	resultRepo.On("GetByLottery", mock.Anything, int64(10)).Return(nil, nil)
	publisher.On("Publish", mock.AnythingOfType("events.RerunCompletedEvent")).Return()

	service := newTestLotteryService(lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher, true, 0)
	result, err := service.Rerun(context.Background(), lottery, humans(100))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(100), result.WinnerID)
}

func TestLotteryService_PickWinner_Distribution(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	calculator := NewEntryCalculator(NewReferralService(referralRepo, nil))
	svc := NewLotteryService(lotteryRepo, resultRepo, settingsRepo, calculator, publisher, false).(*lotteryService)

	entries := map[int64]int64{100: 2, 200: 1, 300: 3}

	// Pool layout is ascending by user ID: [100 100 200 300 300 300]
	wantByIndex := []int64{100, 100, 200, 300, 300, 300}
	for idx, want := range wantByIndex {
		fixed := int64(idx)
		svc.randInt = func(max int64) (int64, error) {
			require.Equal(t, int64(6), max)
			return fixed, nil
		}
		winner, total, err := svc.pickWinner(entries)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Equal(t, want, winner, "index %d", idx)
	}
}

func TestLotteryService_PickWinner_EmptyPool(t *testing.T) {
	t.Parallel()

	lotteryRepo, resultRepo, settingsRepo, referralRepo, publisher := setupLotteryServiceMocks()
	calculator := NewEntryCalculator(NewReferralService(referralRepo, nil))
	svc := NewLotteryService(lotteryRepo, resultRepo, settingsRepo, calculator, publisher, false).(*lotteryService)

	_, _, err := svc.pickWinner(map[int64]int64{})
	require.Error(t, err)
}
