package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/repository"
	"github.com/trocly/troc-server/internal/service"
)

const testDomain = "troc"

func newTestService(t *testing.T) (service.Service, repository.Repository) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, service.Config{
		JWTSecret:        "test-secret-key",
		MarketDomain:     testDomain,
		CommissionRate:   0.10,
		SignupTokenGrant: 100,
	})
	return svc, repo
}

func seedUser(t *testing.T, repo repository.Repository, name string, tokens int64, referredByCode *string) *models.User {
	t.Helper()

	user := &models.User{
		ID:             uuid.New().String(),
		Email:          name + "@example.com",
		Name:           name,
		Password:       "irrelevant",
		Role:           "user",
		TokenBalance:   tokens,
		SponsorCode:    "SC-" + name,
		ReferredByCode: referredByCode,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func seedOffer(t *testing.T, repo repository.Repository, ownerID string, priceTokens float64, isUnique bool) *models.Offer {
	t.Helper()

	offer := &models.Offer{
		ID:          uuid.New().String(),
		Title:       "Test offer",
		Description: "seeded offer",
		Domain:      testDomain,
		OwnerID:     ownerID,
		PriceTokens: &priceTokens,
		IsUnique:    isUnique,
	}
	require.NoError(t, repo.CreateOffer(context.Background(), offer))
	return offer
}

func tokenBalance(t *testing.T, repo repository.Repository, userID string) int64 {
	t.Helper()

	user, err := repo.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.TokenBalance
}

func savingsBalance(t *testing.T, repo repository.Repository, userID string) float64 {
	t.Helper()

	user, err := repo.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.SavingsBalance
}
