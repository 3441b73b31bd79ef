package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trocly/troc-server/internal/api/testutils"
	"github.com/trocly/troc-server/internal/models"
)

// createOffer posts an offer through the API and returns it.
func createOffer(t *testing.T, testCtx *testutils.TestContext, token string, req models.CreateOfferRequest) models.Offer {
	t.Helper()

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/offers", req, testutils.AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code)

	var offer models.Offer
	testutils.DecodeResponse(t, w, &offer)
	return offer
}

func TestTradeLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	alice, aliceToken := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)
	bob, bobToken := testutils.RegisterUser(t, testCtx, "bob@example.com", "Bob", nil)

	offer := createOffer(t, testCtx, bobToken, models.CreateOfferRequest{
		Title:       "Garden tools",
		PriceTokens: floatPtr(30),
	})

	// Alice proposes against Bob's offer; tokens default to the offer price.
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
	}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusCreated, w.Code)

	var trade models.Trade
	testutils.DecodeResponse(t, w, &trade)
	assert.Equal(t, models.TradeStatusPending, trade.Status)
	assert.Equal(t, int64(30), trade.Tokens)

	// Accepting moves the tokens and resolves the trade.
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades/"+trade.ID+"/accept", nil, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusOK, w.Code)

	testutils.DecodeResponse(t, w, &trade)
	assert.Equal(t, models.TradeStatusAccepted, trade.Status)
	assert.NotNil(t, trade.ResolvedAt)

	ctx := context.Background()
	aliceStored, err := testCtx.Repository.GetUserByID(ctx, alice.UserID)
	require.NoError(t, err)
	bobStored, err := testCtx.Repository.GetUserByID(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), aliceStored.TokenBalance)
	assert.Equal(t, int64(130), bobStored.TokenBalance)

	// The trade listing is enriched for both parties.
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/trades", nil, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var listing models.TradeListResponse
	testutils.DecodeResponse(t, w, &listing)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "Garden tools", listing.Items[0].OfferTitle)
	assert.Equal(t, "Alice", listing.Items[0].FromUserName)
	assert.Equal(t, "Bob", listing.Items[0].ToUserName)
}

func TestProposeTradeFailures(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	_, aliceToken := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)
	bob, bobToken := testutils.RegisterUser(t, testCtx, "bob@example.com", "Bob", nil)

	offer := createOffer(t, testCtx, bobToken, models.CreateOfferRequest{
		Title:       "Garden tools",
		PriceTokens: floatPtr(30),
	})

	// Unknown offer
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  "missing-offer",
	}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "OFFER_NOT_FOUND", testutils.ErrorCode(t, w))

	// Non-positive token amount
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
		Tokens:   floatPtr(-1),
	}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TOKEN_AMOUNT", testutils.ErrorCode(t, w))

	// Missing body fields
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", map[string]string{}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELDS", testutils.ErrorCode(t, w))
}

func TestAcceptTradeInsufficientTokens(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	alice, aliceToken := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)
	bob, bobToken := testutils.RegisterUser(t, testCtx, "bob@example.com", "Bob", nil)

	offer := createOffer(t, testCtx, bobToken, models.CreateOfferRequest{
		Title:       "Rare vinyl",
		PriceTokens: floatPtr(500), // more than the signup grant
	})

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
	}, testutils.AuthHeaders(aliceToken))
	require.Equal(t, http.StatusCreated, w.Code)

	var trade models.Trade
	testutils.DecodeResponse(t, w, &trade)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades/"+trade.ID+"/accept", nil, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INSUFFICIENT_TOKENS", testutils.ErrorCode(t, w))

	// Balances untouched, trade still pending.
	ctx := context.Background()
	aliceStored, err := testCtx.Repository.GetUserByID(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), aliceStored.TokenBalance)

	stored, err := testCtx.Repository.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, stored.Status)
}

func TestUniqueOfferClaimRace(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	_, aliceToken := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)
	_, carolToken := testutils.RegisterUser(t, testCtx, "carol@example.com", "Carol", nil)
	bob, bobToken := testutils.RegisterUser(t, testCtx, "bob@example.com", "Bob", nil)

	offer := createOffer(t, testCtx, bobToken, models.CreateOfferRequest{
		Title:       "One of a kind",
		PriceTokens: floatPtr(10),
		IsUnique:    true,
	})

	var t1, t2 models.Trade
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
	}, testutils.AuthHeaders(aliceToken))
	require.Equal(t, http.StatusCreated, w.Code)
	testutils.DecodeResponse(t, w, &t1)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
	}, testutils.AuthHeaders(carolToken))
	require.Equal(t, http.StatusCreated, w.Code)
	testutils.DecodeResponse(t, w, &t2)

	// First accept wins.
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades/"+t1.ID+"/accept", nil, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusOK, w.Code)

	// Second accept reports the claim conflict.
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades/"+t2.ID+"/accept", nil, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "OFFER_ALREADY_CLAIMED", testutils.ErrorCode(t, w))

	// Proposing against the claimed offer is also a conflict.
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
	}, testutils.AuthHeaders(carolToken))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRejectTrade(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	_, aliceToken := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)
	bob, bobToken := testutils.RegisterUser(t, testCtx, "bob@example.com", "Bob", nil)

	offer := createOffer(t, testCtx, bobToken, models.CreateOfferRequest{
		Title:       "Garden tools",
		PriceTokens: floatPtr(30),
	})

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades", models.ProposeTradeRequest{
		ToUserID: bob.UserID,
		OfferID:  offer.ID,
	}, testutils.AuthHeaders(aliceToken))
	require.Equal(t, http.StatusCreated, w.Code)

	var trade models.Trade
	testutils.DecodeResponse(t, w, &trade)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades/"+trade.ID+"/reject", nil, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusOK, w.Code)

	testutils.DecodeResponse(t, w, &trade)
	assert.Equal(t, models.TradeStatusRejected, trade.Status)

	// Unknown trade id
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/trades/nope/reject", nil, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TRADE_NOT_FOUND", testutils.ErrorCode(t, w))
}
