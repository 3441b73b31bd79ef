package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trocly/troc-server/internal/models"
)

// CreateOffer posts a new offer in the marketplace domain this instance
// serves. At least one of the token and cash prices must be present.
func (s *DefaultService) CreateOffer(ctx context.Context, ownerID string, req models.CreateOfferRequest) (*models.Offer, error) {
	if req.PriceTokens == nil && req.PriceCash == nil {
		return nil, ErrMissingFields
	}

	owner, err := s.repo.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error getting offer owner: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	offer := &models.Offer{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Domain:      s.domain,
		OwnerID:     ownerID,
		PriceTokens: req.PriceTokens,
		PriceCash:   req.PriceCash,
		ProductID:   req.ProductID,
		IsUnique:    req.IsUnique,
		Meta:        req.Meta,
	}

	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("error creating offer: %w", err)
	}

	return offer, nil
}

// ListOffers returns the offers of this instance's domain, optionally
// excluding the caller's own so users are not shown self-trade targets.
func (s *DefaultService) ListOffers(ctx context.Context, callerID string, excludeMine bool) ([]models.Offer, error) {
	excludeOwnerID := ""
	if excludeMine {
		excludeOwnerID = callerID
	}

	offers, err := s.repo.ListOffers(ctx, s.domain, excludeOwnerID)
	if err != nil {
		return nil, fmt.Errorf("error listing offers: %w", err)
	}

	return offers, nil
}
