package auth

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"fruit-fusion/internal/core/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		secret   string
		wantErr  bool
	}{
		{name: "Match", password: "s3cret", secret: "s3cret"},
		{name: "Mismatch", password: "s3cret", secret: "guess", wantErr: true},
		{name: "Prefix", password: "s3cret", secret: "s3c", wantErr: true},
		{name: "EmptySecret", password: "s3cret", secret: "", wantErr: true},
		{name: "NoPasswordConfigured", password: "", secret: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStaticVerifier(tt.password).Verify(ctx, tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthorized)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "test-ray-id")
		return c.Next()
	})
	admin := app.Group("/admin", Middleware(NewStaticVerifier("s3cret")))
	admin.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	t.Run("Authorized", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/ping", nil)
		req.Header.Set(HeaderAdminPassword, "s3cret")
		resp, err := app.Test(req)

		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	for name, header := range map[string]string{"MissingHeader": "", "WrongPassword": "nope"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/ping", nil)
			if header != "" {
				req.Header.Set(HeaderAdminPassword, header)
			}
			resp, err := app.Test(req)

			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

			var errResp server.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, "test-ray-id", errResp.RayID)
		})
	}
}
