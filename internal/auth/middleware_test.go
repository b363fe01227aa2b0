package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"gestionexus-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(issuer *TokenIssuer) *fiber.App {
	app := fiber.New()
	app.Use(Middleware(issuer))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": CurrentUserID(c), "role": CurrentRole(c)})
	})
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	app := newProtectedApp(issuer)

	adminToken, err := issuer.Generate(&models.User{ID: 1, FullName: "Admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	normalToken, err := issuer.Generate(&models.User{ID: 2, FullName: "Vendedor", Role: models.RoleNormal})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"missing token", "/me", "", "", fiber.StatusUnauthorized},
		{"garbage token", "/me", TokenHeader, "not-a-token", fiber.StatusUnauthorized},
		{"x-token header", "/me", TokenHeader, normalToken, fiber.StatusOK},
		{"bearer header", "/me", fiber.HeaderAuthorization, "Bearer " + normalToken, fiber.StatusOK},
		{"normal user on admin route", "/admin", TokenHeader, normalToken, fiber.StatusForbidden},
		{"admin on admin route", "/admin", TokenHeader, adminToken, fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireRoleWithoutToken(t *testing.T) {
	app := fiber.New()
	app.Get("/reports", RequireRole(models.RoleAdmin, models.RoleNormal), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/sales", func(c *fiber.Ctx) error {
		c.Locals(CtxUserRoleKey, models.RoleNormal)
		return c.Next()
	}, RequireRole(models.RoleAdmin, models.RoleNormal), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/sales", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	app := fiber.New()
	app.Post("/login", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rl.Cleanup(-time.Second)
	assert.Empty(t, rl.limiters)
}
