package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/repository"
)

// ProposeTrade creates a pending trade against an offer. The token amount
// defaults to the offer's token price, is floored to an integer and must be
// a finite value greater than zero.
func (s *DefaultService) ProposeTrade(ctx context.Context, fromUserID string, req models.ProposeTradeRequest) (*models.Trade, error) {
	offer, err := s.repo.GetOffer(ctx, req.OfferID)
	if err != nil {
		return nil, fmt.Errorf("error getting offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}

	if offer.IsUnique {
		claimed, err := s.offerClaimed(ctx, s.repo, offer.ID, "")
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, ErrOfferAlreadyClaimed
		}
	}

	raw := req.Tokens
	if raw == nil {
		raw = offer.PriceTokens
	}
	if raw == nil || math.IsNaN(*raw) || math.IsInf(*raw, 0) {
		return nil, ErrInvalidTokenAmount
	}

	tokens := int64(math.Floor(*raw))
	if tokens <= 0 {
		return nil, ErrInvalidTokenAmount
	}

	trade := &models.Trade{
		ID:         uuid.New().String(),
		OfferID:    offer.ID,
		FromUserID: fromUserID,
		ToUserID:   req.ToUserID,
		Tokens:     tokens,
		Status:     models.TradeStatusPending,
	}

	if err := s.repo.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("error creating trade: %w", err)
	}

	return trade, nil
}

// AcceptTrade resolves a pending trade: it moves the trade's tokens from
// proposer to counterparty and marks the trade accepted. For a unique offer,
// at most one trade may ever be accepted, and accepting one cascades every
// other pending trade on the offer to rejected. The whole operation runs in
// one transaction so a failed transfer leaves no state behind.
func (s *DefaultService) AcceptTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	var accepted *models.Trade

	err := s.repo.WithTransaction(ctx, func(r repository.Repository) error {
		trade, err := r.GetTrade(ctx, tradeID)
		if err != nil {
			return fmt.Errorf("error getting trade: %w", err)
		}
		if trade == nil {
			return ErrTradeNotFound
		}

		// A trade must never outlive its offer; a missing offer here is a
		// consistency fault surfaced as OFFER_NOT_FOUND.
		offer, err := r.GetOfferForUpdate(ctx, trade.OfferID)
		if err != nil {
			return fmt.Errorf("error getting offer: %w", err)
		}
		if offer == nil {
			return ErrOfferNotFound
		}

		var siblings []models.Trade
		if offer.IsUnique {
			siblings, err = r.ListTradesByOffer(ctx, offer.ID)
			if err != nil {
				return fmt.Errorf("error listing trades for offer: %w", err)
			}
			for _, t := range siblings {
				if t.ID != trade.ID && t.Status == models.TradeStatusAccepted {
					return ErrOfferAlreadyClaimed
				}
			}
		}

		// Resolved trades are not re-playable.
		if trade.Status != models.TradeStatusPending {
			return ErrTradeNotFound
		}

		if err := transferTokens(ctx, r, trade.FromUserID, trade.ToUserID, trade.Tokens); err != nil {
			return err
		}

		now := time.Now().UTC()
		trade.Status = models.TradeStatusAccepted
		trade.ResolvedAt = &now
		if err := r.UpdateTradeStatus(ctx, trade); err != nil {
			if errors.Is(err, repository.ErrNoPendingTrade) {
				return ErrTradeNotFound
			}
			return fmt.Errorf("error accepting trade: %w", err)
		}

		// Cascade: the unique offer is claimed, reject the remaining
		// pending trades on it.
		for i := range siblings {
			t := siblings[i]
			if t.ID == trade.ID || t.Status != models.TradeStatusPending {
				continue
			}
			t.Status = models.TradeStatusRejected
			t.ResolvedAt = &now
			if err := r.UpdateTradeStatus(ctx, &t); err != nil && !errors.Is(err, repository.ErrNoPendingTrade) {
				return fmt.Errorf("error rejecting trade %s: %w", t.ID, err)
			}
		}

		accepted = trade
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accepted, nil
}

// RejectTrade resolves a pending trade to rejected. No ledger effect.
func (s *DefaultService) RejectTrade(ctx context.Context, tradeID string) (*models.Trade, error) {
	var rejected *models.Trade

	err := s.repo.WithTransaction(ctx, func(r repository.Repository) error {
		trade, err := r.GetTrade(ctx, tradeID)
		if err != nil {
			return fmt.Errorf("error getting trade: %w", err)
		}
		if trade == nil || trade.Status != models.TradeStatusPending {
			return ErrTradeNotFound
		}

		now := time.Now().UTC()
		trade.Status = models.TradeStatusRejected
		trade.ResolvedAt = &now
		if err := r.UpdateTradeStatus(ctx, trade); err != nil {
			if errors.Is(err, repository.ErrNoPendingTrade) {
				return ErrTradeNotFound
			}
			return fmt.Errorf("error rejecting trade: %w", err)
		}

		rejected = trade
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rejected, nil
}

// ListTradesForUser returns every trade the user takes part in, enriched
// with the offer title and the participants' display names.
func (s *DefaultService) ListTradesForUser(ctx context.Context, userID string) ([]models.TradeView, error) {
	trades, err := s.repo.ListTradesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing trades: %w", err)
	}

	names := map[string]string{}
	userName := func(id string) (string, error) {
		if name, ok := names[id]; ok {
			return name, nil
		}
		user, err := s.repo.GetUserByID(ctx, id)
		if err != nil {
			return "", err
		}
		name := ""
		if user != nil {
			name = user.Name
		}
		names[id] = name
		return name, nil
	}

	views := []models.TradeView{}
	for _, trade := range trades {
		view := models.TradeView{Trade: trade}

		offer, err := s.repo.GetOffer(ctx, trade.OfferID)
		if err != nil {
			return nil, fmt.Errorf("error getting offer: %w", err)
		}
		if offer != nil {
			view.OfferTitle = offer.Title
		}

		if view.FromUserName, err = userName(trade.FromUserID); err != nil {
			return nil, fmt.Errorf("error getting proposer: %w", err)
		}
		if view.ToUserName, err = userName(trade.ToUserID); err != nil {
			return nil, fmt.Errorf("error getting counterparty: %w", err)
		}

		views = append(views, view)
	}

	return views, nil
}

// offerClaimed reports whether any trade on the offer is already accepted,
// excluding the given trade id.
func (s *DefaultService) offerClaimed(ctx context.Context, r repository.Repository, offerID, excludeTradeID string) (bool, error) {
	trades, err := r.ListTradesByOffer(ctx, offerID)
	if err != nil {
		return false, fmt.Errorf("error listing trades for offer: %w", err)
	}

	for _, t := range trades {
		if t.ID != excludeTradeID && t.Status == models.TradeStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}
