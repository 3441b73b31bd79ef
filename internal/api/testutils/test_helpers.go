package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/trocly/troc-server/internal/api"
	"github.com/trocly/troc-server/internal/models"
	"github.com/trocly/troc-server/internal/repository"
	"github.com/trocly/troc-server/internal/service"
)

const (
	testJWTSecret = "test-secret-key"
	TestDomain    = "troc"
	TestPassword  = "password123"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	JWTSecret  []byte
}

// SetupTestContext creates a new test context backed by the in-memory
// repository, so API tests need no database.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, service.Config{
		JWTSecret:        testJWTSecret,
		MarketDomain:     TestDomain,
		CommissionRate:   0.10,
		SignupTokenGrant: 100,
	})
	handler := api.NewHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})
	handler.SetupRoutes(router)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		JWTSecret:  []byte(testJWTSecret),
	}
}

// RegisterUser signs up and logs in a user, returning the signup response
// (which carries the user's sponsor code) and a bearer token.
func RegisterUser(t *testing.T, testCtx *TestContext, email, name string, referredByCode *string) (*models.AuthResponse, string) {
	t.Helper()
	ctx := context.Background()

	signup, err := testCtx.Service.SignUp(ctx, models.SignUpRequest{
		Email:          email,
		Password:       TestPassword,
		Name:           name,
		ReferredByCode: referredByCode,
	})
	require.NoError(t, err)

	login, err := testCtx.Service.Login(ctx, models.LoginRequest{
		Email:    email,
		Password: TestPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)

	return signup, login.Token
}

// PerformRequest executes an HTTP request against the router and returns
// the recorded response.
func PerformRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// AuthHeaders builds the Authorization header for a bearer token.
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}

// DecodeResponse unmarshals a recorded JSON response body into dest.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

// ErrorCode extracts the error code from a failure response body.
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
