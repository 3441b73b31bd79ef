package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trocly/troc-server/internal/api/testutils"
	"github.com/trocly/troc-server/internal/models"
)

func TestCreateOrderGroup(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	_, token := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)

	// Test case 1: Successful creation
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups", models.CreateGroupRequest{
		ProductID:         "prod-1",
		MinUnitsPerClient: 5,
	}, testutils.AuthHeaders(token))

	assert.Equal(t, http.StatusCreated, w.Code)

	var group models.OrderGroup
	testutils.DecodeResponse(t, w, &group)
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, models.GroupStatusOpen, group.Status)
	assert.Equal(t, int64(0), group.TotalUnits)

	// Test case 2: Missing fields
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups", map[string]string{}, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELDS", testutils.ErrorCode(t, w))
}

func TestJoinOrderGroup(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	alice, aliceToken := testutils.RegisterUser(t, testCtx, "alice@example.com", "Alice", nil)
	_, bobToken := testutils.RegisterUser(t, testCtx, "bob@example.com", "Bob", nil)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups", models.CreateGroupRequest{
		ProductID:         "prod-1",
		MinUnitsPerClient: 5,
	}, testutils.AuthHeaders(aliceToken))
	require.Equal(t, http.StatusCreated, w.Code)

	var group models.OrderGroup
	testutils.DecodeResponse(t, w, &group)

	// Alice joins twice, commitments accumulate.
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups/"+group.ID+"/join", models.JoinGroupRequest{
		Units: 3,
	}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups/"+group.ID+"/join", models.JoinGroupRequest{
		Units: 2,
	}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups/"+group.ID+"/join", models.JoinGroupRequest{
		Units: 4,
	}, testutils.AuthHeaders(bobToken))
	assert.Equal(t, http.StatusOK, w.Code)

	testutils.DecodeResponse(t, w, &group)
	assert.Equal(t, int64(9), group.TotalUnits)
	require.Len(t, group.Participants, 2)

	var sum int64
	for _, p := range group.Participants {
		sum += p.Units
		if p.UserID == alice.UserID {
			assert.Equal(t, int64(5), p.Units)
		}
	}
	assert.Equal(t, group.TotalUnits, sum)

	// Fetching the group returns the same view.
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/order-groups/"+group.ID, nil, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusOK, w.Code)

	testutils.DecodeResponse(t, w, &group)
	assert.Equal(t, int64(9), group.TotalUnits)

	// Test failures: unknown group, missing units
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups/missing/join", models.JoinGroupRequest{
		Units: 1,
	}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "GROUP_NOT_FOUND", testutils.ErrorCode(t, w))

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/order-groups/"+group.ID+"/join", map[string]string{}, testutils.AuthHeaders(aliceToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELDS", testutils.ErrorCode(t, w))
}
