package application

import (
	"context"

	"raffler/domain/interfaces"
	"raffler/domain/testhelpers"
)

// mockUnitOfWork bundles the repository mocks behind the UnitOfWork
// interface for handler and worker tests
type mockUnitOfWork struct {
	lotteryRepo  *testhelpers.MockLotteryRepository
	resultRepo   *testhelpers.MockDrawResultRepository
	referralRepo *testhelpers.MockReferralRepository
	settingsRepo *testhelpers.MockGuildSettingsRepository
	publisher    *testhelpers.MockEventPublisher

	beginErr  error
	commitErr error

	commits   int
	rollbacks int
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		lotteryRepo:  new(testhelpers.MockLotteryRepository),
		resultRepo:   new(testhelpers.MockDrawResultRepository),
		referralRepo: new(testhelpers.MockReferralRepository),
		settingsRepo: new(testhelpers.MockGuildSettingsRepository),
		publisher:    new(testhelpers.MockEventPublisher),
	}
}

func (m *mockUnitOfWork) Begin(ctx context.Context) error {
	return m.beginErr
}

func (m *mockUnitOfWork) Commit() error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits++
	return nil
}

func (m *mockUnitOfWork) Rollback() error {
	m.rollbacks++
	return nil
}

func (m *mockUnitOfWork) LotteryRepository() interfaces.LotteryRepository {
	return m.lotteryRepo
}

func (m *mockUnitOfWork) DrawResultRepository() interfaces.DrawResultRepository {
	return m.resultRepo
}

func (m *mockUnitOfWork) ReferralRepository() interfaces.ReferralRepository {
	return m.referralRepo
}

func (m *mockUnitOfWork) GuildSettingsRepository() interfaces.GuildSettingsRepository {
	return m.settingsRepo
}

func (m *mockUnitOfWork) EventBus() interfaces.EventPublisher {
	return m.publisher
}

// mockUnitOfWorkFactory hands out the same unit of work for every call
// and counts how often it was asked
type mockUnitOfWorkFactory struct {
	uow   *mockUnitOfWork
	calls int
}

func newMockUnitOfWorkFactory() (*mockUnitOfWorkFactory, *mockUnitOfWork) {
	uow := newMockUnitOfWork()
	return &mockUnitOfWorkFactory{uow: uow}, uow
}

func (f *mockUnitOfWorkFactory) CreateForGuild(guildID int64) UnitOfWork {
	f.calls++
	return f.uow
}

// fakeInviteDetector returns a scripted attribution result
type fakeInviteDetector struct {
	code     string
	detected bool
	calls    int
}

func (d *fakeInviteDetector) DetectUsedInvite(ctx context.Context, guildID int64) (string, bool) {
	d.calls++
	return d.code, d.detected
}

// fakeJoinMessenger records tracker message operations
type fakeJoinMessenger struct {
	editErr error
	postErr error

	postedID int64

	edits []string
	posts []string
}

func (m *fakeJoinMessenger) EditJoinMessage(ctx context.Context, channelID, messageID int64, content string) error {
	if m.editErr != nil {
		return m.editErr
	}
	m.edits = append(m.edits, content)
	return nil
}

func (m *fakeJoinMessenger) PostJoinMessage(ctx context.Context, channelID int64, content string) (int64, error) {
	if m.postErr != nil {
		return 0, m.postErr
	}
	m.posts = append(m.posts, content)
	return m.postedID, nil
}
