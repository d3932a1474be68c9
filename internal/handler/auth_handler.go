package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/middleware"
	"taskhub-service/internal/service"
	"taskhub-service/pkg/logger"
	"taskhub-service/prometheus"
)

// AuthHandler exposes login, self-profile and tenant registration.
type AuthHandler struct {
	auth    *service.AuthService
	tenants *service.TenantService
}

func NewAuthHandler(auth *service.AuthService, tenants *service.TenantService) *AuthHandler {
	return &AuthHandler{auth: auth, tenants: tenants}
}

// Login authenticates a user and returns a token with the user profile.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Debug("Failed to parse login request", zap.Error(err))
		return fail(c, apperr.Validation("Invalid request"))
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return respond(c, http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	user, err := h.auth.Me(c.Request().Context(), p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, user)
}

// RegisterTenant provisions a tenant with its first administrator.
func (h *AuthHandler) RegisterTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.ProvisionCounter.Inc()

	var req service.ProvisionRequest
	if err := c.Bind(&req); err != nil {
		log.Debug("Failed to parse tenant registration request", zap.Error(err))
		return fail(c, apperr.Validation("Invalid request"))
	}

	tenant, admin, err := h.tenants.Provision(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}

	return respondMessage(c, http.StatusCreated, "Tenant registered successfully", echo.Map{
		"tenant": tenant,
		"admin":  admin,
	})
}
