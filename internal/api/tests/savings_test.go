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

func TestRecordSaving(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	sponsor, sponsorToken := testutils.RegisterUser(t, testCtx, "sponsor@example.com", "Sponsor", nil)
	invitee, inviteeToken := testutils.RegisterUser(t, testCtx, "invitee@example.com", "Invitee", &sponsor.SponsorCode)

	// Test case 1: Saving with sponsor commission
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/savings", models.RecordSavingRequest{
		Amount: floatPtr(80),
	}, testutils.AuthHeaders(inviteeToken))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.RecordSavingResponse
	testutils.DecodeResponse(t, w, &resp)
	assert.Equal(t, invitee.UserID, resp.Saving.UserID)
	assert.Equal(t, 80.0, resp.Saving.Amount)
	require.NotNil(t, resp.Referral)
	assert.InDelta(t, 8.0, resp.Referral.CommissionEarned, 1e-9)

	ctx := context.Background()
	sponsorStored, err := testCtx.Repository.GetUserByID(ctx, sponsor.UserID)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, sponsorStored.SavingsBalance, 1e-9)

	// Test case 2: Saving without a sponsor
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/savings", models.RecordSavingRequest{
		Amount: floatPtr(40),
	}, testutils.AuthHeaders(sponsorToken))

	assert.Equal(t, http.StatusCreated, w.Code)
	var respNoSponsor models.RecordSavingResponse
	testutils.DecodeResponse(t, w, &respNoSponsor)
	assert.Nil(t, respNoSponsor.Referral)

	// Test case 3: Missing amount
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/savings", map[string]string{}, testutils.AuthHeaders(inviteeToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELDS", testutils.ErrorCode(t, w))

	// Test case 4: Non-positive amount
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/savings", models.RecordSavingRequest{
		Amount: floatPtr(-5),
	}, testutils.AuthHeaders(inviteeToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELDS", testutils.ErrorCode(t, w))
}

func TestSponsorSummary(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	sponsor, sponsorToken := testutils.RegisterUser(t, testCtx, "sponsor@example.com", "Sponsor", nil)
	_, firstToken := testutils.RegisterUser(t, testCtx, "first@example.com", "First", &sponsor.SponsorCode)
	_, secondToken := testutils.RegisterUser(t, testCtx, "second@example.com", "Second", &sponsor.SponsorCode)

	for _, saving := range []struct {
		token  string
		amount float64
	}{
		{firstToken, 100},
		{firstToken, 50},
		{secondToken, 30},
	} {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/savings", models.RecordSavingRequest{
			Amount: floatPtr(saving.amount),
		}, testutils.AuthHeaders(saving.token))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/sponsors/summary", nil, testutils.AuthHeaders(sponsorToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var summary models.SponsorSummaryResponse
	testutils.DecodeResponse(t, w, &summary)
	assert.Equal(t, 2, summary.TotalInvited)
	assert.InDelta(t, 180.0, summary.TotalSaved, 1e-9)
	assert.InDelta(t, 18.0, summary.TotalCommission, 1e-9)
	assert.Len(t, summary.Referrals, 2)
}
