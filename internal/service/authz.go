package service

import (
	"github.com/google/uuid"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/authz"
)

// denyError translates an evaluator deny into the error the client sees.
// The machine-readable reason rides along so callers and tests can tell
// causes apart even though several share the 403 status class.
func denyError(d authz.Decision) *apperr.Error {
	var msg string
	switch d.Reason {
	case authz.ReasonCrossTenantAccess:
		msg = "Unauthorized tenant access"
	case authz.ReasonInsufficientRole:
		msg = "Insufficient role for this operation"
	case authz.ReasonSelfRoleChange:
		msg = "Cannot change your own role"
	case authz.ReasonSelfDelete:
		msg = "Cannot delete your own account"
	case authz.ReasonNotOwner:
		msg = "Only the project creator or a tenant admin can modify this project"
	default:
		msg = "Operation not permitted"
	}
	e := apperr.Forbidden(msg)
	e.Reason = string(d.Reason)
	return e
}

// authorize runs the evaluator and converts a deny into an error.
func authorize(p authz.Principal, action authz.Action, res authz.Resource) error {
	if d := authz.Evaluate(p, action, res); !d.Allowed {
		return denyError(d)
	}
	return nil
}

// principalTenant returns the principal's tenant id, or uuid.Nil for
// tenant-free principals. Feeding uuid.Nil into the evaluator makes the
// tenant-match rule deny, which is the intended outcome for a
// super_admin touching tenant resources.
func principalTenant(p authz.Principal) uuid.UUID {
	if p.TenantID == nil {
		return uuid.Nil
	}
	return *p.TenantID
}
