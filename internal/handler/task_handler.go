package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/middleware"
	"taskhub-service/internal/service"
)

// TaskHandler exposes task lifecycle operations.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create adds a task to the project given by the path.
func (h *TaskHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid project id"))
	}

	var req service.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	task, err := h.tasks.Create(c.Request().Context(), p, projectID, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, task)
}

// List returns the project's tasks, newest first.
func (h *TaskHandler) List(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid project id"))
	}

	tasks, err := h.tasks.List(c.Request().Context(), p, projectID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, tasks)
}

// Update applies a partial update to a task.
func (h *TaskHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid task id"))
	}

	var req service.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	task, err := h.tasks.Update(c.Request().Context(), p, taskID, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, task)
}

// UpdateStatus moves a task to a new status.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid task id"))
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.Validation("Invalid request"))
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), p, taskID, req.Status)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return fail(c, apperr.Unauthorized("Authentication required"))
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, apperr.Validation("Invalid task id"))
	}

	if err := h.tasks.Delete(c.Request().Context(), p, taskID); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, http.StatusOK, "Task deleted successfully", nil)
}
