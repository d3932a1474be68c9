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

// UserService manages the users of a tenant.
type UserService struct {
	store  Store
	hasher PasswordHasher
	log    *zap.Logger
}

func NewUserService(store Store, hasher PasswordHasher, log *zap.Logger) *UserService {
	return &UserService{store: store, hasher: hasher, log: log}
}

// AddUserRequest carries the fields for creating a user in a tenant.
type AddUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UpdateUserRequest carries a partial user update. Nil means the field
// was omitted.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// Add creates a user in the tenant, consuming one unit of user quota.
// The quota reservation, the duplicate-email check and the insert run in
// one transaction.
func (s *UserService) Add(ctx context.Context, p authz.Principal, tenantID uuid.UUID, req AddUserRequest) (*model.User, error) {
	if err := authorize(p, authz.ActionAddUser, authz.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, apperr.Validation("Email, password and full name are required")
	}
	if req.Role == "" {
		req.Role = string(authz.RoleUser)
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil || role == authz.RoleSuperAdmin {
		return nil, apperr.Validation("Invalid role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         string(role),
		IsActive:     true,
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := quota.Reserve(ctx, tx, tenantID, quota.KindUser); err != nil {
			return err
		}
		existing, err := tx.UserByTenantAndEmail(ctx, tenantID, req.Email)
		if err != nil {
			return apperr.Internal(err)
		}
		if existing != nil {
			return apperr.Conflict("Email already exists in this tenant")
		}
		return apperrWrap(tx.CreateUser(ctx, user))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("role", user.Role))
	return user, nil
}

// List returns the tenant's users ordered by creation time ascending.
func (s *UserService) List(ctx context.Context, p authz.Principal, tenantID uuid.UUID) ([]model.User, error) {
	if err := authorize(p, authz.ActionListUsers, authz.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, tenantID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// Update applies a partial update to a user. A request with no
// recognized fields is rejected rather than treated as an empty success.
// The user row stays locked from the check to the write.
func (s *UserService) Update(ctx context.Context, p authz.Principal, userID uuid.UUID, req UpdateUserRequest) (*model.User, error) {
	var user *model.User
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		user, err = tx.UserForUpdate(ctx, userID)
		if err != nil {
			return apperr.Internal(err)
		}
		if user == nil || user.TenantID == nil {
			return apperr.NotFound("User not found")
		}

		changesRole := req.Role != nil && *req.Role != user.Role
		res := authz.Resource{
			TenantID:     *user.TenantID,
			TargetUserID: &user.ID,
			ChangesRole:  changesRole,
		}
		if err := authorize(p, authz.ActionUpdateUser, res); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if req.FullName != nil {
			if *req.FullName == "" {
				return apperr.Validation("Full name cannot be empty")
			}
			fields["full_name"] = *req.FullName
		}
		if req.Role != nil {
			role, err := authz.ParseRole(*req.Role)
			if err != nil || role == authz.RoleSuperAdmin {
				return apperr.Validation("Invalid role")
			}
			fields["role"] = string(role)
		}
		if req.IsActive != nil {
			fields["is_active"] = *req.IsActive
		}
		if len(fields) == 0 {
			return apperr.Validation("No fields to update")
		}

		if err := tx.UpdateUserFields(ctx, userID, fields); err != nil {
			return apperr.Internal(err)
		}
		if v, ok := fields["full_name"]; ok {
			user.FullName = v.(string)
		}
		if v, ok := fields["role"]; ok {
			user.Role = v.(string)
		}
		if v, ok := fields["is_active"]; ok {
			user.IsActive = v.(bool)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User updated", zap.String("user_id", userID.String()))
	return user, nil
}

// Delete removes a user. Tasks assigned to the user are unassigned in
// the same transaction, so no task ever references a missing user. The
// write lock on the user row makes a concurrent assignee resolution
// wait until the row is gone.
func (s *UserService) Delete(ctx context.Context, p authz.Principal, userID uuid.UUID) error {
	var user *model.User
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		user, err = tx.UserForUpdate(ctx, userID)
		if err != nil {
			return apperr.Internal(err)
		}
		if user == nil || user.TenantID == nil {
			return apperr.NotFound("User not found")
		}

		res := authz.Resource{TenantID: *user.TenantID, TargetUserID: &user.ID}
		if err := authorize(p, authz.ActionDeleteUser, res); err != nil {
			return err
		}

		if err := tx.UnassignUserTasks(ctx, userID); err != nil {
			return apperr.Internal(err)
		}
		return apperrWrap(tx.DeleteUser(ctx, userID))
	})
	if err != nil {
		return err
	}

	s.log.Info("User deleted",
		zap.String("user_id", userID.String()),
		zap.String("tenant_id", user.TenantID.String()))
	return nil
}
