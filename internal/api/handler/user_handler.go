package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/velomarket/marketplace-auth/internal/core/ports"
)

type UserHandler struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserHandler(users ports.UserRepository, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type statusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// Get returns a user account. The route is guarded by owner-or-admin.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id  path  string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Sanitized())
}

// UpdateStatus activates or deactivates an account. Admin only. Because
// identity resolution re-reads the user on every request, a deactivation
// takes effect on the target's very next request.
//
// @Summary      Set account active flag
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "User id"
// @Param        body  body  statusRequest  true  "New status"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/status [put]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id := c.Param("id")
	if err := h.users.SetActive(c.Request().Context(), id, *req.IsActive); err != nil {
		return err
	}

	h.log.Info().Str("user_id", id).Bool("is_active", *req.IsActive).Msg("account status updated")
	return c.JSON(http.StatusOK, map[string]string{"message": "status updated"})
}
