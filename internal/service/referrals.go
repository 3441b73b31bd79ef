package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/repository"
)

// RecordSaving appends a savings event for the user and credits their
// savings balance. When the user was referred, the sponsor earns a
// commission (a configured share of the amount) and the (sponsor, invitee)
// referral stat accumulates both figures. Saving, balances and stat are
// written in one transaction.
func (s *DefaultService) RecordSaving(ctx context.Context, userID string, amount float64) (*models.RecordSavingResponse, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, ErrMissingFields
	}

	var resp *models.RecordSavingResponse

	err := s.repo.WithTransaction(ctx, func(r repository.Repository) error {
		user, err := r.GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("error getting user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}

		saving := &models.SavingTransaction{
			ID:     uuid.New().String(),
			UserID: user.ID,
			Amount: amount,
		}
		if err := r.CreateSavingTransaction(ctx, saving); err != nil {
			return fmt.Errorf("error recording saving: %w", err)
		}

		user.SavingsBalance += amount
		if err := r.UpdateUserBalances(ctx, user); err != nil {
			return fmt.Errorf("error crediting savings balance: %w", err)
		}

		resp = &models.RecordSavingResponse{Saving: *saving}

		if user.ReferredByCode == nil || *user.ReferredByCode == "" {
			return nil
		}

		sponsor, err := r.GetUserBySponsorCode(ctx, *user.ReferredByCode)
		if err != nil {
			return fmt.Errorf("error resolving sponsor: %w", err)
		}
		if sponsor == nil {
			// Dangling referral code, no commission to attribute.
			return nil
		}

		commission := amount * s.commissionRate

		sponsor.SavingsBalance += commission
		if err := r.UpdateUserBalances(ctx, sponsor); err != nil {
			return fmt.Errorf("error crediting sponsor: %w", err)
		}

		stat, err := r.GetReferralStat(ctx, sponsor.ID, user.ID)
		if err != nil {
			return fmt.Errorf("error getting referral stat: %w", err)
		}
		if stat == nil {
			stat = &models.ReferralStat{
				ID:        uuid.New().String(),
				SponsorID: sponsor.ID,
				InvitedID: user.ID,
			}
		}

		stat.TotalSavedByInvited += amount
		stat.CommissionEarned += commission
		if err := r.UpsertReferralStat(ctx, stat); err != nil {
			return fmt.Errorf("error upserting referral stat: %w", err)
		}

		resp.Referral = stat
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// GetSponsorSummary aggregates the referral stats of a sponsor. Pure read
// side projection, no side effects.
func (s *DefaultService) GetSponsorSummary(ctx context.Context, sponsorID string) (*models.SponsorSummaryResponse, error) {
	stats, err := s.repo.ListReferralStatsBySponsor(ctx, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("error listing referral stats: %w", err)
	}

	summary := &models.SponsorSummaryResponse{
		TotalInvited: len(stats),
		Referrals:    stats,
	}
	for _, st := range stats {
		summary.TotalSaved += st.TotalSavedByInvited
		summary.TotalCommission += st.CommissionEarned
	}

	return summary, nil
}
