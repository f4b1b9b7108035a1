package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/velomarket/marketplace-auth/internal/api/middleware"
	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// requireIdentity extracts the identity injected by the Authenticate
// middleware and fast-fails when it is absent (which means the route was
// wired without the middleware).
func requireIdentity(c echo.Context) (*domain.User, error) {
	user, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, domain.ErrMissingCredential
	}
	return user, nil
}
