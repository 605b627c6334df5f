package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// randIntFunc returns a uniform random integer in [0, max)
type randIntFunc func(max int64) (int64, error)

// cryptoRandInt is the production randomness source
func cryptoRandInt(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return n.Int64(), nil
}

// lotteryService implements business logic for lottery operations
type lotteryService struct {
	lotteryRepo    interfaces.LotteryRepository
	resultRepo     interfaces.DrawResultRepository
	settingsRepo   interfaces.GuildSettingsRepository
	calculator     *EntryCalculator
	eventPublisher interfaces.EventPublisher

	// rerunFrozenPool replays the stored entry breakdown on rerun instead
	// of refetching live reactions. Off by default: reruns reflect the
	// reaction pool as it exists at rerun time.
	rerunFrozenPool bool

	randInt randIntFunc
}

// NewLotteryService creates a new lottery service
func NewLotteryService(
	lotteryRepo interfaces.LotteryRepository,
	resultRepo interfaces.DrawResultRepository,
	settingsRepo interfaces.GuildSettingsRepository,
	calculator *EntryCalculator,
	eventPublisher interfaces.EventPublisher,
	rerunFrozenPool bool,
) interfaces.LotteryService {
	return &lotteryService{
		lotteryRepo:     lotteryRepo,
		resultRepo:      resultRepo,
		settingsRepo:    settingsRepo,
		calculator:      calculator,
		eventPublisher:  eventPublisher,
		rerunFrozenPool: rerunFrozenPool,
		randInt:         cryptoRandInt,
	}
}

// Create validates and persists a new lottery in the active bucket
func (s *lotteryService) Create(ctx context.Context, params interfaces.CreateLotteryParams) (*entities.Lottery, error) {
	if params.Duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, errors.New("name must not be empty")
	}
	if params.EntryEmoji == "" {
		return nil, errors.New("entry emoji must not be empty")
	}

	existing, err := s.lotteryRepo.GetByName(ctx, params.GuildID, params.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check lottery name: %w", err)
	}
	if existing != nil {
		return nil, entities.ErrDuplicateName
	}

	now := time.Now().UTC()
	lottery := &entities.Lottery{
		GuildID:      params.GuildID,
		Name:         params.Name,
		ChannelID:    params.ChannelID,
		EntryEmoji:   params.EntryEmoji,
		UseReferrals: params.UseReferrals,
		Description:  params.Description,
		StarterID:    params.StarterID,
		StartTime:    now,
		EndTime:      now.Add(params.Duration),
		Status:       entities.LotteryStatusActive,
	}

	if err := s.lotteryRepo.Create(ctx, lottery); err != nil {
		return nil, fmt.Errorf("failed to create lottery: %w", err)
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(events.LotteryCreatedEvent{
			GuildID:   lottery.GuildID,
			LotteryID: lottery.ID,
			Name:      lottery.Name,
			EndTime:   lottery.EndTime,
		})
	}

	return lottery, nil
}

// Draw performs the original draw for a lottery. The pool is the raw
// reaction user list; bots are filtered here. An empty pool completes
// the lottery with no stored result. The bucket move and the result
// insert share the caller's transaction, so the pop-then-insert step is
// atomic.
func (s *lotteryService) Draw(ctx context.Context, lottery *entities.Lottery, pool []entities.Participant) (*entities.DrawResult, error) {
	if lottery.IsCompleted() {
		return nil, errors.New("lottery already completed")
	}

	participants := humanParticipants(pool)

	// Claim the move out of the active bucket first. A false claim means
	// a concurrent draw got here before us.
	completedAt := time.Now().UTC()
	claimed, err := s.lotteryRepo.Complete(ctx, lottery.ID, completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to complete lottery: %w", err)
	}
	if !claimed {
		return nil, errors.New("lottery already completed")
	}
	lottery.Complete(completedAt)

	if len(participants) == 0 {
		log.WithFields(log.Fields{
			"guild_id": lottery.GuildID,
			"lottery":  lottery.Name,
		}).Info("Lottery drawn with no participants")

		if s.eventPublisher != nil {
			s.eventPublisher.Publish(events.DrawCompletedEvent{
				GuildID:   lottery.GuildID,
				LotteryID: lottery.ID,
				Name:      lottery.Name,
			})
		}
		return nil, nil
	}

	entries, err := s.computeEntries(ctx, lottery, participants)
	if err != nil {
		return nil, err
	}

	winnerID, totalEntries, err := s.pickWinner(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to pick winner: %w", err)
	}

	result := &entities.DrawResult{
		LotteryID:         lottery.ID,
		GuildID:           lottery.GuildID,
		WinnerID:          winnerID,
		TotalParticipants: len(participants),
		TotalEntries:      totalEntries,
		Entries:           entries,
		DrawnAt:           completedAt,
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to persist draw result: %w", err)
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(events.DrawCompletedEvent{
			GuildID:   lottery.GuildID,
			LotteryID: lottery.ID,
			Name:      lottery.Name,
			Result:    result,
		})
	}

	return result, nil
}

// Rerun draws again for a completed lottery. The stored result and the
// lottery status are never touched; reruns repeat without bound. An
// empty pool is a safe no-op returning (nil, nil).
func (s *lotteryService) Rerun(ctx context.Context, lottery *entities.Lottery, pool []entities.Participant) (*entities.DrawResult, error) {
	if !lottery.IsCompleted() {
		return nil, errors.New("lottery is not completed")
	}

	var entries map[int64]int64

	if s.rerunFrozenPool {
		stored, err := s.resultRepo.GetByLottery(ctx, lottery.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored draw result: %w", err)
		}
		if stored != nil {
			entries = stored.Entries
		}
	}

	if entries == nil {
		participants := humanParticipants(pool)
		if len(participants) == 0 {
			return nil, nil
		}
		var err error
		entries, err = s.computeEntries(ctx, lottery, participants)
		if err != nil {
			return nil, err
		}
	}

	winnerID, totalEntries, err := s.pickWinner(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to pick rerun winner: %w", err)
	}

	result := &entities.DrawResult{
		LotteryID:         lottery.ID,
		GuildID:           lottery.GuildID,
		WinnerID:          winnerID,
		TotalParticipants: len(entries),
		TotalEntries:      totalEntries,
		Entries:           entries,
		DrawnAt:           time.Now().UTC(),
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(events.RerunCompletedEvent{
			GuildID:   lottery.GuildID,
			LotteryID: lottery.ID,
			Name:      lottery.Name,
			Result:    result,
		})
	}

	return result, nil
}

// computeEntries resolves the guild's referral rate and weights the pool
// using the lottery's original referral flag and start time
func (s *lotteryService) computeEntries(ctx context.Context, lottery *entities.Lottery, participants []int64) (map[int64]int64, error) {
	referralsPerEntry := entities.DefaultReferralsPerEntry
	if lottery.UseReferrals {
		settings, err := s.settingsRepo.GetOrCreateGuildSettings(ctx, lottery.GuildID)
		if err != nil {
			return nil, fmt.Errorf("failed to get guild settings: %w", err)
		}
		referralsPerEntry = settings.GetReferralsPerEntry()
	}

	return s.calculator.Compute(ctx, lottery.GuildID, participants, lottery.StartTime, lottery.UseReferrals, referralsPerEntry), nil
}

// pickWinner draws one element uniformly from the flattened entry pool:
// a participant with k entries occupies k consecutive pool slots, so
// their win probability is k / totalEntries. Participants are walked in
// ascending user ID order, which keeps the pool layout deterministic
// for a given entries map and random index.
func (s *lotteryService) pickWinner(entries map[int64]int64) (int64, int64, error) {
	ids := make([]int64, 0, len(entries))
	var total int64
	for id, count := range entries {
		ids = append(ids, id)
		total += count
	}
	if total <= 0 {
		return 0, 0, errors.New("empty entry pool")
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idx, err := s.randInt(total)
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		idx -= entries[id]
		if idx < 0 {
			return id, total, nil
		}
	}

	// Unreachable while randInt honors its [0, max) contract.
	return ids[len(ids)-1], total, nil
}

// humanParticipants filters bots and deduplicates the reaction pool
func humanParticipants(pool []entities.Participant) []int64 {
	seen := make(map[int64]bool, len(pool))
	ids := make([]int64, 0, len(pool))
	for _, p := range pool {
		if p.IsBot || seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		ids = append(ids, p.UserID)
	}
	return ids
}
