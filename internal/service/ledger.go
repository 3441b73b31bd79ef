package service

import (
	"context"
	"fmt"

	"github.com/trocly/troc-server/internal/repository"
)

// transferTokens moves a positive token amount between two users. It must be
// called with a transaction-scoped repository so that the debit and the
// credit commit together or not at all. A sender balance below the amount
// fails before anything is written.
func transferTokens(ctx context.Context, repo repository.Repository, fromUserID, toUserID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidTokenAmount
	}

	fromUser, err := repo.GetUserByID(ctx, fromUserID)
	if err != nil {
		return fmt.Errorf("error getting sender: %w", err)
	}
	if fromUser == nil {
		return ErrUserNotFound
	}

	toUser, err := repo.GetUserByID(ctx, toUserID)
	if err != nil {
		return fmt.Errorf("error getting receiver: %w", err)
	}
	if toUser == nil {
		return ErrUserNotFound
	}

	if fromUser.TokenBalance < amount {
		return ErrInsufficientTokens
	}

	fromUser.TokenBalance -= amount
	if err := repo.UpdateUserBalances(ctx, fromUser); err != nil {
		return fmt.Errorf("error debiting sender: %w", err)
	}

	toUser.TokenBalance += amount
	if err := repo.UpdateUserBalances(ctx, toUser); err != nil {
		return fmt.Errorf("error crediting receiver: %w", err)
	}

	return nil
}
