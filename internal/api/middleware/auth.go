package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

const identityKey = "identity"

// Authenticate resolves the identity behind the bearer credential and injects
// it into the request context. Resolution runs on every request; nothing is
// cached, so a deactivated account is rejected on its next request.
func Authenticate(resolver ports.IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential, err := bearerCredential(c.Request())
			if err != nil {
				return err
			}

			user, err := resolver.Resolve(c.Request().Context(), credential)
			if err != nil {
				return err
			}

			c.Set(identityKey, user)
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves the identity when a credential is present but
// never fails the request: any credential or lookup error is swallowed and
// the request proceeds as anonymous.
func OptionalAuthenticate(resolver ports.IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential, err := bearerCredential(c.Request())
			if err != nil {
				return next(c)
			}

			if user, err := resolver.Resolve(c.Request().Context(), credential); err == nil {
				c.Set(identityKey, user)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity injected by Authenticate, if any.
func IdentityFrom(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(identityKey).(*domain.User)
	return user, ok
}

func bearerCredential(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", domain.ErrMissingCredential
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", domain.ErrInvalidCredential
	}
	return parts[1], nil
}
