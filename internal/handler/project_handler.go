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

// ProjectHandler exposes project lifecycle operations.
type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create adds a project to the caller's tenant.
func (h *ProjectHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	var req service.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	project, err := h.projects.Create(c.Request().Context(), p, req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindQuotaExceeded {
			prometheus.RecordQuotaDenial("project")
		}
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, project)
}

// List returns the caller's tenant projects, newest first.
func (h *ProjectHandler) List(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	projects, err := h.projects.List(c.Request().Context(), p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, projects)
}

// Get returns a single project.
func (h *ProjectHandler) Get(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid project id"))
	}

	project, err := h.projects.Get(c.Request().Context(), p, projectID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, project)
}

// Update applies a partial update to a project.
func (h *ProjectHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid project id"))
	}

	var req service.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	project, err := h.projects.Update(c.Request().Context(), p, projectID, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, project)
}

// Delete removes a project.
func (h *ProjectHandler) Delete(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid project id"))
	}

	if err := h.projects.Delete(c.Request().Context(), p, projectID); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, http.StatusOK, "Project deleted successfully", nil)
}
