package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/middleware"
	"taskhub-service/internal/service"
)

// AdminHandler exposes super-admin tenant administration.
type AdminHandler struct {
	tenants *service.TenantService
}

func NewAdminHandler(tenants *service.TenantService) *AdminHandler {
	return &AdminHandler{tenants: tenants}
}

// ListTenants returns every tenant.
func (h *AdminHandler) ListTenants(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	tenants, err := h.tenants.List(c.Request().Context(), p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tenants)
}

// SetTenantStatus suspends or reactivates a tenant.
func (h *AdminHandler) SetTenantStatus(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid tenant id"))
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	tenant, err := h.tenants.SetStatus(c.Request().Context(), p, tenantID, req.Status)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tenant)
}
