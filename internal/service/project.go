package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/authz"
	"taskhub-service/internal/model"
	"taskhub-service/internal/quota"
)

// ProjectService manages project lifecycle within a tenant.
type ProjectService struct {
	store Store
	log   *zap.Logger
}

func NewProjectService(store Store, log *zap.Logger) *ProjectService {
	return &ProjectService{store: store, log: log}
}

// CreateProjectRequest carries the fields for project creation.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest carries a partial project update. Nil means the
// field was omitted.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Create adds a project to the principal's tenant, consuming one unit
// of project quota inside the insert transaction.
func (s *ProjectService) Create(ctx context.Context, p authz.Principal, req CreateProjectRequest) (*model.Project, error) {
	if req.Name == "" {
		return nil, apperr.Validation("Project name is required")
	}

	tenantID := principalTenant(p)
	if err := authorize(p, authz.ActionCreateProject, authz.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}

	project := &model.Project{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      model.ProjectStatusActive,
		CreatedBy:   p.UserID,
	}

	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := quota.Reserve(ctx, tx, tenantID, quota.KindProject); err != nil {
			return err
		}
		return apperrWrap(tx.CreateProject(ctx, project))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("tenant_id", tenantID.String()))
	return project, nil
}

// List returns the tenant's projects, newest first.
func (s *ProjectService) List(ctx context.Context, p authz.Principal) ([]model.Project, error) {
	if p.TenantID == nil {
		return nil, denyError(authz.Decision{Reason: authz.ReasonCrossTenantAccess})
	}
	projects, err := s.store.ListProjects(ctx, *p.TenantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return projects, nil
}

// Get returns a single project after a tenant check.
func (s *ProjectService) Get(ctx context.Context, p authz.Principal, projectID uuid.UUID) (*model.Project, error) {
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
	return project, nil
}

// Update applies a partial update; only a tenant admin or the project
// creator may modify a project. The project row stays locked from the
// ownership check to the write.
func (s *ProjectService) Update(ctx context.Context, p authz.Principal, projectID uuid.UUID, req UpdateProjectRequest) (*model.Project, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, apperr.Validation("Project name cannot be empty")
	}
	if req.Status != nil && *req.Status != model.ProjectStatusActive && *req.Status != model.ProjectStatusArchived {
		return nil, apperr.Validation("Invalid project status")
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("No fields to update")
	}

	var project *model.Project
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		project, err = tx.ProjectForUpdate(ctx, projectID)
		if err != nil {
			return apperr.Internal(err)
		}
		if project == nil {
			return apperr.NotFound("Project not found")
		}

		res := authz.Resource{TenantID: project.TenantID, CreatorID: &project.CreatedBy}
		if err := authorize(p, authz.ActionUpdateProject, res); err != nil {
			return err
		}

		if err := tx.UpdateProjectFields(ctx, projectID, fields); err != nil {
			return apperr.Internal(err)
		}
		if req.Name != nil {
			project.Name = *req.Name
		}
		if req.Description != nil {
			project.Description = *req.Description
		}
		if req.Status != nil {
			project.Status = *req.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Project updated", zap.String("project_id", projectID.String()))
	return project, nil
}

// Delete removes a project; admin or creator only.
func (s *ProjectService) Delete(ctx context.Context, p authz.Principal, projectID uuid.UUID) error {
	project, err := s.store.ProjectByID(ctx, projectID)
	if err != nil {
		return apperr.Internal(err)
	}
	if project == nil {
		return apperr.NotFound("Project not found")
	}

	res := authz.Resource{TenantID: project.TenantID, CreatorID: &project.CreatedBy}
	if err := authorize(p, authz.ActionDeleteProject, res); err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return apperr.Internal(err)
	}

	s.log.Info("Project deleted",
		zap.String("project_id", projectID.String()),
		zap.String("tenant_id", project.TenantID.String()))
	return nil
}
