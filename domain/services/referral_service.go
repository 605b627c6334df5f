package services

import (
	"context"
	"fmt"
	"time"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"
)

// referralService implements the referral ledger on top of the referral
// repository. Lottery logic only ever reads from it.
type referralService struct {
	referralRepo   interfaces.ReferralRepository
	eventPublisher interfaces.EventPublisher
}

// NewReferralService creates a new referral service
func NewReferralService(
	referralRepo interfaces.ReferralRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.ReferralService {
	return &referralService{
		referralRepo:   referralRepo,
		eventPublisher: eventPublisher,
	}
}

// RecordInviteOwnership upserts the owner of an invite code
func (s *referralService) RecordInviteOwnership(ctx context.Context, guildID int64, code string, ownerID int64) error {
	if err := s.referralRepo.UpsertInvite(ctx, guildID, code, ownerID); err != nil {
		return fmt.Errorf("failed to record invite ownership: %w", err)
	}
	return nil
}

// RemoveInvite drops a tracked invite code
func (s *referralService) RemoveInvite(ctx context.Context, guildID int64, code string) error {
	if err := s.referralRepo.DeleteInvite(ctx, guildID, code); err != nil {
		return fmt.Errorf("failed to remove invite: %w", err)
	}
	return nil
}

// GetInviteByOwner returns a member's current tracked invite
func (s *referralService) GetInviteByOwner(ctx context.Context, guildID, ownerID int64) (*entities.ReferralInvite, error) {
	invite, err := s.referralRepo.GetInviteByOwner(ctx, guildID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invite by owner: %w", err)
	}
	return invite, nil
}

// RecordReferral writes the invited->inviter edge if none exists yet and
// awards exactly one point to the inviter when it does. The insert is
// check-then-act atomic at the database, so concurrent joins for the
// same invited member still produce a single edge and a single point.
func (s *referralService) RecordReferral(ctx context.Context, guildID, invitedID, inviterID int64, code string, joinedAt time.Time) (bool, error) {
	edge := &entities.ReferralEdge{
		GuildID:    guildID,
		InvitedID:  invitedID,
		InviterID:  inviterID,
		InviteCode: code,
		JoinedAt:   joinedAt,
	}

	inserted, err := s.referralRepo.InsertEdge(ctx, edge)
	if err != nil {
		return false, fmt.Errorf("failed to insert referral edge: %w", err)
	}
	if !inserted {
		// First attribution wins; a rejoin never re-credits the inviter.
		return false, nil
	}

	if err := s.referralRepo.IncrementPoints(ctx, guildID, inviterID); err != nil {
		return false, fmt.Errorf("failed to increment referral points: %w", err)
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(events.ReferralRecordedEvent{
			GuildID:    guildID,
			InvitedID:  invitedID,
			InviterID:  inviterID,
			InviteCode: code,
			JoinedAt:   joinedAt,
		})
	}

	return true, nil
}

// GetInviter returns the edge recording who invited a member
func (s *referralService) GetInviter(ctx context.Context, guildID, invitedID int64) (*entities.ReferralEdge, error) {
	edge, err := s.referralRepo.GetEdge(ctx, guildID, invitedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral edge: %w", err)
	}
	return edge, nil
}

// GetReferrals returns everyone a member has invited
func (s *referralService) GetReferrals(ctx context.Context, guildID, inviterID int64) ([]*entities.ReferralEdge, error) {
	edges, err := s.referralRepo.GetEdgesByInviter(ctx, guildID, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	return edges, nil
}

// CountReferralsSince counts an inviter's referrals by the invited
// member's join time, not by edge creation time, since edges can be
// backfilled out of order.
func (s *referralService) CountReferralsSince(ctx context.Context, guildID, inviterID int64, since time.Time) (int64, error) {
	count, err := s.referralRepo.CountEdgesSince(ctx, guildID, inviterID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// GetPoints returns a member's accumulated referral points
func (s *referralService) GetPoints(ctx context.Context, guildID, userID int64) (int64, error) {
	points, err := s.referralRepo.GetPoints(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get referral points: %w", err)
	}
	return points, nil
}

// Leaderboard returns the guild's referral standings
func (s *referralService) Leaderboard(ctx context.Context, guildID int64, limit int) ([]*entities.ReferralScore, error) {
	scores, err := s.referralRepo.Leaderboard(ctx, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return scores, nil
}
