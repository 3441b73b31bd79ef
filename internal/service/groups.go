package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/repository"
)

// CreateOrderGroup opens a new unit-pooling group for a product.
func (s *DefaultService) CreateOrderGroup(ctx context.Context, req models.CreateGroupRequest) (*models.OrderGroup, error) {
	group := &models.OrderGroup{
		ID:                uuid.New().String(),
		ProductID:         req.ProductID,
		MinUnitsPerClient: req.MinUnitsPerClient,
		TotalUnits:        0,
		Status:            models.GroupStatusOpen,
		Participants:      []models.GroupParticipant{},
	}

	if err := s.repo.CreateOrderGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("error creating order group: %w", err)
	}

	return group, nil
}

// GetOrderGroup returns a group with its participants.
func (s *DefaultService) GetOrderGroup(ctx context.Context, groupID string) (*models.OrderGroup, error) {
	group, err := s.repo.GetOrderGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("error getting order group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	return group, nil
}

// JoinOrderGroup adds units to the caller's commitment in a group. Repeat
// joins accumulate onto the existing commitment; the group total grows by
// the same amount, keeping it equal to the sum of participant units.
func (s *DefaultService) JoinOrderGroup(ctx context.Context, groupID, userID string, units int64) (*models.OrderGroup, error) {
	if units <= 0 {
		return nil, ErrMissingFields
	}

	var joined *models.OrderGroup

	err := s.repo.WithTransaction(ctx, func(r repository.Repository) error {
		group, err := r.GetOrderGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("error getting order group: %w", err)
		}
		if group == nil {
			return ErrGroupNotFound
		}

		committed := int64(0)
		for _, p := range group.Participants {
			if p.UserID == userID {
				committed = p.Units
				break
			}
		}

		participant := &models.GroupParticipant{
			GroupID: group.ID,
			UserID:  userID,
			Units:   committed + units,
		}
		if err := r.UpsertGroupParticipant(ctx, participant); err != nil {
			return fmt.Errorf("error upserting participant: %w", err)
		}

		if err := r.UpdateOrderGroupTotal(ctx, group.ID, group.TotalUnits+units); err != nil {
			return fmt.Errorf("error updating group total: %w", err)
		}

		joined, err = r.GetOrderGroup(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("error re-reading order group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return joined, nil
}
