package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/authz"
	"taskhub-service/internal/model"
)

// TaskService manages task lifecycle within a project. Task permissions
// are tenant-granular: any member of the owning tenant may create,
// update and delete tasks.
type TaskService struct {
	store Store
	log   *zap.Logger
}

func NewTaskService(store Store, log *zap.Logger) *TaskService {
	return &TaskService{store: store, log: log}
}

// CreateTaskRequest carries the fields for task creation.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest carries a partial task update. Nil means the field
// was omitted; an empty assigned_to string explicitly clears the
// assignee.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

// Create adds a task to a project. An assignee, when supplied, must be
// an existing user of the project's tenant; the check and the insert
// share a transaction so the reference cannot dangle.
func (s *TaskService) Create(ctx context.Context, p authz.Principal, projectID uuid.UUID, req CreateTaskRequest) (*model.Task, error) {
	if req.Title == "" {
		return nil, apperr.Validation("Task title is required")
	}
	if req.Priority == "" {
		req.Priority = model.TaskPriorityMedium
	}
	if !model.ValidTaskPriority(req.Priority) {
		return nil, apperr.Validation("Invalid task priority")
	}

	project, err := s.store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if project == nil {
		return nil, apperr.NotFound("Project not found")
	}
	if err := authorize(p, authz.ActionCreateTask, authz.Resource{TenantID: project.TenantID}); err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:          uuid.New(),
		TenantID:    project.TenantID,
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      model.TaskStatusTodo,
		DueDate:     req.DueDate,
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if req.AssignedTo != nil && *req.AssignedTo != "" {
			assignee, err := s.resolveAssignee(ctx, tx, project.TenantID, *req.AssignedTo)
			if err != nil {
				return err
			}
			task.AssignedTo = &assignee
		}
		return apperrWrap(tx.CreateTask(ctx, task))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("project_id", project.ID.String()))
	return task, nil
}

// List returns the project's tasks, newest first, after a tenant check
// on the owning project.
func (s *TaskService) List(ctx context.Context, p authz.Principal, projectID uuid.UUID) ([]model.Task, error) {
	project, err := s.store.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if project == nil {
		return nil, apperr.NotFound("Project not found")
	}
	if p.TenantID == nil || *p.TenantID != project.TenantID {
		return nil, denyError(authz.Decision{Reason: authz.ReasonCrossTenantAccess})
	}

	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tasks, nil
}

// Update applies a partial update to a task. The fetch, the assignee
// resolution and the write share one transaction, with the task row
// locked throughout.
func (s *TaskService) Update(ctx context.Context, p authz.Principal, taskID uuid.UUID, req UpdateTaskRequest) (*model.Task, error) {
	// Enumerated values are checked before any store access.
	if req.Status != nil && !model.ValidTaskStatus(*req.Status) {
		return nil, apperr.Validation("Invalid task status")
	}
	if req.Priority != nil && !model.ValidTaskPriority(*req.Priority) {
		return nil, apperr.Validation("Invalid task priority")
	}
	if req.Title != nil && *req.Title == "" {
		return nil, apperr.Validation("Task title cannot be empty")
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.DueDate != nil {
		fields["due_date"] = *req.DueDate
	}
	hasAssigneeChange := req.AssignedTo != nil
	if len(fields) == 0 && !hasAssigneeChange {
		return nil, apperr.Validation("No fields to update")
	}

	var task *model.Task
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		task, err = tx.TaskForUpdate(ctx, taskID)
		if err != nil {
			return apperr.Internal(err)
		}
		if task == nil {
			return apperr.NotFound("Task not found")
		}
		if err := authorize(p, authz.ActionUpdateTask, authz.Resource{TenantID: task.TenantID}); err != nil {
			return err
		}

		if hasAssigneeChange {
			if *req.AssignedTo == "" {
				fields["assigned_to"] = nil
				task.AssignedTo = nil
			} else {
				assignee, err := s.resolveAssignee(ctx, tx, task.TenantID, *req.AssignedTo)
				if err != nil {
					return err
				}
				fields["assigned_to"] = assignee
				task.AssignedTo = &assignee
			}
		}
		if err := tx.UpdateTaskFields(ctx, taskID, fields); err != nil {
			return apperr.Internal(err)
		}
		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.DueDate != nil {
			task.DueDate = req.DueDate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Task updated", zap.String("task_id", taskID.String()))
	return task, nil
}

// UpdateStatus moves a task through the todo/in_progress/completed
// state machine.
func (s *TaskService) UpdateStatus(ctx context.Context, p authz.Principal, taskID uuid.UUID, status string) (*model.Task, error) {
	if !model.ValidTaskStatus(status) {
		return nil, apperr.Validation("Invalid task status")
	}

	var task *model.Task
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		task, err = tx.TaskForUpdate(ctx, taskID)
		if err != nil {
			return apperr.Internal(err)
		}
		if task == nil {
			return apperr.NotFound("Task not found")
		}
		if err := authorize(p, authz.ActionUpdateTaskStatus, authz.Resource{TenantID: task.TenantID}); err != nil {
			return err
		}
		if err := tx.UpdateTaskFields(ctx, taskID, map[string]interface{}{"status": status}); err != nil {
			return apperr.Internal(err)
		}
		task.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Task status changed",
		zap.String("task_id", taskID.String()),
		zap.String("status", status))
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, p authz.Principal, taskID uuid.UUID) error {
	task, err := s.store.TaskByID(ctx, taskID)
	if err != nil {
		return apperr.Internal(err)
	}
	if task == nil {
		return apperr.NotFound("Task not found")
	}
	if err := authorize(p, authz.ActionDeleteTask, authz.Resource{TenantID: task.TenantID}); err != nil {
		return err
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return apperr.Internal(err)
	}

	s.log.Info("Task deleted", zap.String("task_id", taskID.String()))
	return nil
}

// resolveAssignee validates that the assignee id parses and names a
// user of the given tenant. The share lock on the user row holds off a
// concurrent delete of that user, so the committed task cannot end up
// referencing a row that no longer exists.
func (s *TaskService) resolveAssignee(ctx context.Context, tx Tx, tenantID uuid.UUID, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid assignee id")
	}
	assignee, err := tx.UserInTenantForShare(ctx, tenantID, id)
	if err != nil {
		return uuid.Nil, apperr.Internal(err)
	}
	if assignee == nil {
		return uuid.Nil, apperr.Validation("Assigned user does not belong to this tenant")
	}
	return id, nil
}
