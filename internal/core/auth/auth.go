package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"fruit-fusion/internal/core/server"

	"github.com/gofiber/fiber/v2"
)

// HeaderAdminPassword carries the admin secret on admin requests.
const HeaderAdminPassword = "X-Admin-Password"

// ErrUnauthorized is returned when the presented secret does not match.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks an admin secret.
type Verifier interface {
	Verify(ctx context.Context, secret string) error
}

// StaticVerifier checks secrets against a single configured password.
type StaticVerifier struct {
	password []byte
}

// NewStaticVerifier creates a StaticVerifier. An empty password rejects every secret.
func NewStaticVerifier(password string) *StaticVerifier {
	return &StaticVerifier{password: []byte(password)}
}

// Verify compares secret with the configured password in constant time.
func (v *StaticVerifier) Verify(_ context.Context, secret string) error {
	if len(v.password) == 0 || secret == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(secret), v.password) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Middleware rejects requests whose admin header does not verify.
func Middleware(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := v.Verify(c.UserContext(), c.Get(HeaderAdminPassword)); err != nil {
			return server.RespondError(c, fiber.StatusUnauthorized, "Admin credentials required")
		}
		return c.Next()
	}
}
