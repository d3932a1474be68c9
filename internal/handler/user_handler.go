package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/middleware"
	"taskhub-service/internal/service"
	"taskhub-service/prometheus"
)

// UserHandler exposes tenant user management.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Add creates a user in the tenant given by the path.
func (h *UserHandler) Add(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid tenant id"))
	}

	var req service.AddUserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	user, err := h.users.Add(c.Request().Context(), p, tenantID, req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindQuotaExceeded {
			prometheus.RecordQuotaDenial("user")
		}
		return fail(c, err)
	}
	return respondMessage(c, http.StatusCreated, "User created successfully", user)
}

// List returns the tenant's users.
func (h *UserHandler) List(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid tenant id"))
	}

	users, err := h.users.List(c.Request().Context(), p, tenantID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, users)
}

// Update applies a partial update to a user.
func (h *UserHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid user id"))
	}

	var req service.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	user, err := h.users.Update(c.Request().Context(), p, userID, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, user)
}

// Delete removes a user, unassigning their tasks.
func (h *UserHandler) Delete(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid user id"))
	}

	if err := h.users.Delete(c.Request().Context(), p, userID); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, http.StatusOK, "User deleted successfully", nil)
}
