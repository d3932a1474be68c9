package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/authz"
	"taskhub-service/internal/model"
)

// TenantService provisions tenants and carries the super-admin tenant
// administration operations.
type TenantService struct {
	store  Store
	hasher PasswordHasher
	log    *zap.Logger
}

func NewTenantService(store Store, hasher PasswordHasher, log *zap.Logger) *TenantService {
	return &TenantService{store: store, hasher: hasher, log: log}
}

// ProvisionRequest carries the fields needed to register a tenant with
// its first administrator.
type ProvisionRequest struct {
	TenantName    string `json:"tenant_name"`
	Subdomain     string `json:"subdomain"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
	AdminFullName string `json:"admin_full_name"`
}

// Provision creates a tenant and its first tenant_admin as one atomic
// unit. Either both rows commit or neither does; a taken subdomain
// aborts the transaction before any insert.
func (s *TenantService) Provision(ctx context.Context, req ProvisionRequest) (*model.Tenant, *model.User, error) {
	switch {
	case req.TenantName == "":
		return nil, nil, apperr.Validation("Tenant name is required")
	case req.Subdomain == "":
		return nil, nil, apperr.Validation("Subdomain is required")
	case req.AdminEmail == "":
		return nil, nil, apperr.Validation("Admin email is required")
	case req.AdminPassword == "":
		return nil, nil, apperr.Validation("Admin password is required")
	case req.AdminFullName == "":
		return nil, nil, apperr.Validation("Admin full name is required")
	}

	hash, err := s.hasher.Hash(req.AdminPassword)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	var tenant *model.Tenant
	var admin *model.User
	err = s.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.TenantBySubdomainForUpdate(ctx, req.Subdomain)
		if err != nil {
			return apperr.Internal(err)
		}
		if existing != nil {
			return apperr.Conflict("Subdomain already taken")
		}

		tenant = &model.Tenant{
			ID:          uuid.New(),
			Name:        req.TenantName,
			Subdomain:   req.Subdomain,
			Status:      model.TenantStatusActive,
			Plan:        model.DefaultPlan,
			MaxUsers:    model.DefaultMaxUsers,
			MaxProjects: model.DefaultMaxProjects,
		}
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return apperr.Internal(err)
		}

		admin = &model.User{
			ID:           uuid.New(),
			TenantID:     &tenant.ID,
			Email:        req.AdminEmail,
			PasswordHash: hash,
			FullName:     req.AdminFullName,
			Role:         string(authz.RoleTenantAdmin),
			IsActive:     true,
		}
		return apperrWrap(tx.CreateUser(ctx, admin))
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("Tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("admin_id", admin.ID.String()))
	return tenant, admin, nil
}

// List returns every tenant; super-admin only.
func (s *TenantService) List(ctx context.Context, p authz.Principal) ([]model.Tenant, error) {
	if err := authorize(p, authz.ActionManageTenants, authz.Resource{}); err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tenants, nil
}

// SetStatus suspends or reactivates a tenant; super-admin only.
func (s *TenantService) SetStatus(ctx context.Context, p authz.Principal, tenantID uuid.UUID, status string) (*model.Tenant, error) {
	if status != model.TenantStatusActive && status != model.TenantStatusSuspended {
		return nil, apperr.Validation("Invalid tenant status")
	}
	if err := authorize(p, authz.ActionManageTenants, authz.Resource{}); err != nil {
		return nil, err
	}

	var tenant *model.Tenant
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		tenant, err = tx.TenantForUpdate(ctx, tenantID)
		if err != nil {
			return apperr.Internal(err)
		}
		if tenant == nil {
			return apperr.NotFound("Tenant not found")
		}
		if err := tx.UpdateTenantFields(ctx, tenantID, map[string]interface{}{"status": status}); err != nil {
			return apperr.Internal(err)
		}
		tenant.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Tenant status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("status", status))
	return tenant, nil
}

// apperrWrap classifies plain store errors as internal, leaving already
// classified errors untouched.
func apperrWrap(err error) error {
	if err == nil {
		return nil
	}
	return apperr.From(err)
}
