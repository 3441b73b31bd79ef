package service

import (
	"context"
	"time"

	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/repository"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Offer catalog
	CreateOffer(ctx context.Context, ownerID string, req models.CreateOfferRequest) (*models.Offer, error)
	ListOffers(ctx context.Context, callerID string, excludeMine bool) ([]models.Offer, error)

	// Trade negotiation
	ProposeTrade(ctx context.Context, fromUserID string, req models.ProposeTradeRequest) (*models.Trade, error)
	AcceptTrade(ctx context.Context, tradeID string) (*models.Trade, error)
	RejectTrade(ctx context.Context, tradeID string) (*models.Trade, error)
	ListTradesForUser(ctx context.Context, userID string) ([]models.TradeView, error)

	// Referral engine
	RecordSaving(ctx context.Context, userID string, amount float64) (*models.RecordSavingResponse, error)
	GetSponsorSummary(ctx context.Context, sponsorID string) (*models.SponsorSummaryResponse, error)

	// Order groups
	CreateOrderGroup(ctx context.Context, req models.CreateGroupRequest) (*models.OrderGroup, error)
	GetOrderGroup(ctx context.Context, groupID string) (*models.OrderGroup, error)
	JoinOrderGroup(ctx context.Context, groupID, userID string, units int64) (*models.OrderGroup, error)
}

// Config carries the tunables of the marketplace engine.
type Config struct {
	JWTSecret        string
	MarketDomain     string
	CommissionRate   float64
	SignupTokenGrant int64
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo             repository.Repository
	jwtSecret        []byte
	tokenDuration    time.Duration
	domain           string
	commissionRate   float64
	signupTokenGrant int64
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, cfg Config) Service {
	return &DefaultService{
		repo:             repo,
		jwtSecret:        []byte(cfg.JWTSecret),
		tokenDuration:    24 * time.Hour, // 24 hours token validity
		domain:           cfg.MarketDomain,
		commissionRate:   cfg.CommissionRate,
		signupTokenGrant: cfg.SignupTokenGrant,
	}
}
