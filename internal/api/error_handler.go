package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/velomarket/marketplace-auth/internal/api/metrics"
	"github.com/velomarket/marketplace-auth/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the auth error taxonomy to its fixed HTTP status codes
//     (401 credential failures, 403 predicate denials, 404 missing resources).
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Credential failures are all 401 but keep their message so the client
	// can distinguish expired (silent refresh) from invalid (hard logout).
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		metrics.AuthDeniedTotal.WithLabelValues("missing_credential").Inc()
		return http.StatusUnauthorized, "access token required"
	case errors.Is(err, domain.ErrInvalidCredential):
		metrics.AuthDeniedTotal.WithLabelValues("invalid_credential").Inc()
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrExpiredCredential):
		metrics.AuthDeniedTotal.WithLabelValues("expired_credential").Inc()
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, domain.ErrAccountDeactivated):
		metrics.AuthDeniedTotal.WithLabelValues("account_deactivated").Inc()
		return http.StatusUnauthorized, "account is deactivated"
	case errors.Is(err, domain.ErrForbidden):
		metrics.AuthDeniedTotal.WithLabelValues("forbidden").Inc()
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, domain.ErrBannerNotFound):
		return http.StatusNotFound, "banner not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrInvalidLogin):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "invalid role"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many login attempts"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
