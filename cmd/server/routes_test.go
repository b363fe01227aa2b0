package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/config"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/telemetry"
	"gestionexus-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routeTestSecret = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		HTTPPort:    "0",
		CORSOrigins: []string{"http://localhost:5173"},
		FrontendURL: "http://localhost:5173",
		UploadDir:   t.TempDir(),
		Auth: config.AuthConfig{
			JWTSecret:     routeTestSecret,
			TokenTTL:      time.Hour,
			ResetTokenTTL: 15 * time.Minute,
			RateLimit:     1,
			RateBurst:     1,
		},
	}
}

func newTestRoutes(t *testing.T) *fiber.App {
	db, _ := testutil.MockDB(t)
	log, _ := test.NewNullLogger()
	app, _ := newApp(testConfig(t), db, log, telemetry.New())
	return app
}

func tokenFor(t *testing.T, role models.UserRole) string {
	tok, err := auth.NewTokenIssuer(routeTestSecret, time.Hour).
		Generate(&models.User{ID: 2, FullName: "Laura Ruiz", Role: role})
	require.NoError(t, err)
	return tok
}

func TestHealthAndPrometheusArePublic(t *testing.T) {
	app := newTestRoutes(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPIRequiresToken(t *testing.T) {
	app := newTestRoutes(t)

	for _, path := range []string{"/api/products", "/api/sales", "/api/layaway", "/api/dashboard", "/api/metrics"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestAdminRoutesRejectNormalUsers(t *testing.T) {
	app := newTestRoutes(t)
	tok := tokenFor(t, models.RoleNormal)

	for _, path := range []string{"/api/suppliers", "/api/reports/financial-ledger", "/api/metrics", "/api/logs", "/api/users"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set(auth.TokenHeader, tok)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
	}
}

func TestPublicAuthIsRateLimited(t *testing.T) {
	app := newTestRoutes(t)

	// The first request spends the burst of one; its body is invalid so no query runs.
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/api/auth/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
