package repository

import (
	"context"
	"errors"

	"github.com/trocly/troc-server/internal/models"
)

// ErrNoPendingTrade is returned by UpdateTradeStatus when the trade is not
// in the pending state anymore. Trades never leave a terminal state.
var ErrNoPendingTrade = errors.New("trade is not pending")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// WithTransaction runs fn against a transaction-scoped repository.
	// All writes made through fn's repository are committed together, or
	// rolled back together when fn returns an error.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserBySponsorCode(ctx context.Context, code string) (*models.User, error)
	UpdateUserBalances(ctx context.Context, user *models.User) error

	// Offer operations
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	// GetOfferForUpdate locks the offer row for the duration of the
	// enclosing transaction, serializing concurrent accepts per offer.
	GetOfferForUpdate(ctx context.Context, id string) (*models.Offer, error)
	ListOffers(ctx context.Context, domain, excludeOwnerID string) ([]models.Offer, error)

	// Trade operations
	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	ListTradesByOffer(ctx context.Context, offerID string) ([]models.Trade, error)
	ListTradesForUser(ctx context.Context, userID string) ([]models.Trade, error)
	UpdateTradeStatus(ctx context.Context, trade *models.Trade) error

	// Order group operations
	CreateOrderGroup(ctx context.Context, group *models.OrderGroup) error
	GetOrderGroup(ctx context.Context, id string) (*models.OrderGroup, error)
	UpsertGroupParticipant(ctx context.Context, participant *models.GroupParticipant) error
	UpdateOrderGroupTotal(ctx context.Context, groupID string, totalUnits int64) error

	// Referral and savings operations
	CreateSavingTransaction(ctx context.Context, saving *models.SavingTransaction) error
	GetReferralStat(ctx context.Context, sponsorID, invitedID string) (*models.ReferralStat, error)
	UpsertReferralStat(ctx context.Context, stat *models.ReferralStat) error
	ListReferralStatsBySponsor(ctx context.Context, sponsorID string) ([]models.ReferralStat, error)
}
