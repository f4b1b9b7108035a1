package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/velomarket/marketplace-auth/internal/api/metrics"
	"github.com/velomarket/marketplace-auth/internal/core/domain"
	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

// LoginLimiter throttles repeated failed logins per email.
type LoginLimiter interface {
	TooManyFailures(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

type AuthHandler struct {
	authService ports.AuthService
	limiter     LoginLimiter
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, limiter LoginLimiter, audit ports.AuditRecorder, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter, audit: audit, log: log}
}

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=customer merchant admin"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// Register creates a new account and returns a credential for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	metrics.CredentialsIssuedTotal.WithLabelValues("register").Inc()
	h.record(domain.AuthEvent{UserID: user.ID, Email: user.Email, Action: domain.AuditRegister})

	return c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

// Login authenticates an email/password pair and returns a credential.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	if h.limiter != nil {
		blocked, err := h.limiter.TooManyFailures(ctx, req.Email)
		if err != nil {
			// Limiter outage must not lock everyone out.
			h.log.Warn().Err(err).Msg("login limiter check failed, allowing attempt")
		} else if blocked {
			metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
			return domain.ErrTooManyAttempts
		}
	}

	token, user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case err == domain.ErrInvalidLogin:
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			if h.limiter != nil {
				if lerr := h.limiter.RecordFailure(ctx, req.Email); lerr != nil {
					h.log.Warn().Err(lerr).Msg("failed to record login failure")
				}
			}
			h.record(domain.AuthEvent{Email: req.Email, Action: domain.AuditLoginFailed})
		case err == domain.ErrAccountDeactivated:
			metrics.LoginsTotal.WithLabelValues("deactivated").Inc()
		}
		return err
	}

	if h.limiter != nil {
		if lerr := h.limiter.Reset(ctx, req.Email); lerr != nil {
			h.log.Warn().Err(lerr).Msg("failed to reset login failures")
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.CredentialsIssuedTotal.WithLabelValues("login").Inc()
	h.record(domain.AuthEvent{UserID: user.ID, Email: user.Email, Action: domain.AuditLogin})

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the identity resolved for the request credential.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]domain.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := requireIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*domain.User{"user": user})
}

// Refresh exchanges the presented valid credential for a fresh one.
//
// @Summary      Refresh credential
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	user, err := requireIdentity(c)
	if err != nil {
		return err
	}

	token, err := h.authService.Refresh(c.Request().Context(), user)
	if err != nil {
		return err
	}

	metrics.CredentialsIssuedTotal.WithLabelValues("refresh").Inc()
	h.record(domain.AuthEvent{UserID: user.ID, Email: user.Email, Action: domain.AuditRefresh})

	return c.JSON(http.StatusOK, authResponse{Token: token})
}

// Logout acknowledges a logout. Credentials are stateless, so the issued
// token stays valid until its natural expiry; without a revocation store
// there is nothing to invalidate server-side. The client clears its copy.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	user, err := requireIdentity(c)
	if err != nil {
		return err
	}

	h.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user logged out")
	h.record(domain.AuthEvent{UserID: user.ID, Email: user.Email, Action: domain.AuditLogout})

	return c.JSON(http.StatusOK, map[string]string{
		"message":   "logout successful",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) record(event domain.AuthEvent) {
	if h.audit == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	h.audit.Record(event)
}
