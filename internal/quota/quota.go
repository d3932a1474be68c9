// Package quota enforces per-tenant subscription ceilings.
//
// Reserve must run inside the same transaction as the insert it guards.
// It takes a FOR UPDATE lock on the tenant row before counting, so two
// concurrent reservations against the same tenant serialize and the
// check-then-act race cannot breach the ceiling. The ledger holds no
// state of its own and is safe to call from concurrent handlers.
package quota

import (
	"context"

	"github.com/google/uuid"

	"taskhub-service/internal/apperr"
	"taskhub-service/internal/model"
)

// Kind names a quota-limited resource.
type Kind string

const (
	KindUser    Kind = "user"
	KindProject Kind = "project"
)

// Store is the slice of the transactional store the ledger needs. The
// handle passed to Reserve must be bound to an open transaction.
type Store interface {
	// TenantForUpdate reads the tenant row under a row-level write lock.
	TenantForUpdate(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	CountUsers(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// Reserve grants capacity for one more resource of the given kind, or
// fails with a quota error. Quota exhaustion is an expected outcome, not
// a fault.
func Reserve(ctx context.Context, tx Store, tenantID uuid.UUID, kind Kind) error {
	tenant, err := tx.TenantForUpdate(ctx, tenantID)
	if err != nil {
		return apperr.Internal(err)
	}
	if tenant == nil {
		return apperr.NotFound("Tenant not found")
	}

	var count int64
	var ceiling int
	switch kind {
	case KindUser:
		count, err = tx.CountUsers(ctx, tenantID)
		ceiling = tenant.MaxUsers
	case KindProject:
		count, err = tx.CountProjects(ctx, tenantID)
		ceiling = tenant.MaxProjects
	default:
		return apperr.Validation("unknown quota kind")
	}
	if err != nil {
		return apperr.Internal(err)
	}

	if count >= int64(ceiling) {
		switch kind {
		case KindUser:
			return apperr.QuotaExceeded("User limit reached for this subscription plan")
		default:
			return apperr.QuotaExceeded("Project limit reached for this subscription plan")
		}
	}
	return nil
}
