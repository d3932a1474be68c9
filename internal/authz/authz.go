// Package authz implements the tenant-scoped authorization evaluator.
//
// Evaluate is a pure function over (principal, action, resource): no I/O,
// no side effects. Callers fetch the target resource first and pass its
// tenant/owner fields in as a Resource descriptor.
package authz

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleUser        Role = "user"
)

// ParseRole validates a role string at the boundary. Unknown values are
// rejected rather than carried around as free-form strings.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleTenantAdmin, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionCreateProject    Action = "create_project"
	ActionUpdateProject    Action = "update_project"
	ActionDeleteProject    Action = "delete_project"
	ActionCreateTask       Action = "create_task"
	ActionUpdateTask       Action = "update_task"
	ActionUpdateTaskStatus Action = "update_task_status"
	ActionDeleteTask       Action = "delete_task"
	ActionAddUser          Action = "add_user"
	ActionListUsers        Action = "list_users"
	ActionUpdateUser       Action = "update_user"
	ActionDeleteUser       Action = "delete_user"
	ActionViewSelf         Action = "view_self"

	// ActionManageTenants is the one tenant-free action: super-admin
	// tenant administration. It touches no tenant's resources and is
	// therefore exempt from the tenant-match rule.
	ActionManageTenants Action = "manage_tenants"
)

// Principal is the authenticated identity acting on a request.
// TenantID is nil only for super_admin principals.
type Principal struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Role     Role
}

// Resource describes the target of an action. CreatorID is set for
// project mutations, TargetUserID for user mutations. ChangesRole marks
// an update_user request that includes a role change.
type Resource struct {
	TenantID     uuid.UUID
	CreatorID    *uuid.UUID
	TargetUserID *uuid.UUID
	ChangesRole  bool
}

// Reason explains a deny decision.
type Reason string

const (
	ReasonCrossTenantAccess Reason = "cross_tenant_access"
	ReasonInsufficientRole  Reason = "insufficient_role"
	ReasonSelfRoleChange    Reason = "self_role_change"
	ReasonSelfDelete        Reason = "self_delete"
	ReasonNotOwner          Reason = "not_owner"
	ReasonNoMatchingRule    Reason = "no_matching_rule"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

// Evaluate applies the decision rules in order; the first matching rule
// wins.
func Evaluate(p Principal, action Action, res Resource) Decision {
	// Tenant-free super-admin administration is exempt from the tenant
	// match and is scoped to tenant administration only.
	if action == ActionManageTenants {
		if p.Role == RoleSuperAdmin {
			return allow()
		}
		return deny(ReasonInsufficientRole)
	}

	// Rule 1: strict tenant isolation. A principal without a tenant
	// (super_admin) has no standing on tenant resources either.
	if p.TenantID == nil || *p.TenantID != res.TenantID {
		return deny(ReasonCrossTenantAccess)
	}

	switch action {
	case ActionAddUser, ActionListUsers, ActionUpdateUser, ActionDeleteUser:
		// Rule 2: user management requires tenant_admin.
		if p.Role != RoleTenantAdmin {
			return deny(ReasonInsufficientRole)
		}
		// Rule 3: self-protection.
		if res.TargetUserID != nil && *res.TargetUserID == p.UserID {
			if action == ActionUpdateUser && res.ChangesRole {
				return deny(ReasonSelfRoleChange)
			}
			if action == ActionDeleteUser {
				return deny(ReasonSelfDelete)
			}
		}
		return allow()

	case ActionUpdateProject, ActionDeleteProject:
		// Rule 4: admin or creator.
		if p.Role == RoleTenantAdmin {
			return allow()
		}
		if res.CreatorID != nil && *res.CreatorID == p.UserID {
			return allow()
		}
		return deny(ReasonNotOwner)

	case ActionCreateProject, ActionCreateTask, ActionUpdateTask,
		ActionUpdateTaskStatus, ActionDeleteTask, ActionViewSelf:
		// Rule 5: open to any member of the tenant. Task permissions are
		// intentionally tenant-granular, not per-user.
		return allow()
	}

	return deny(ReasonNoMatchingRule)
}
