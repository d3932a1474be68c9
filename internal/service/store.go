package service

import (
	"context"

	"github.com/google/uuid"

	"taskhub-service/internal/model"
)

// Tx is the transactional read/write capability the services consume.
// Lookup methods return (nil, nil) when no row matches; services decide
// what "absent" means for the operation at hand.
//
// The *store.Store type implements Tx directly (auto-commit) and hands
// out transaction-bound Tx values through InTx.
type Tx interface {
	// Tenants
	CreateTenant(ctx context.Context, t *model.Tenant) error
	TenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	// TenantForUpdate reads the tenant row under a row-level write lock;
	// inside a transaction this is what serializes quota reservations.
	TenantForUpdate(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	// TenantBySubdomainForUpdate performs the locking uniqueness read
	// used by provisioning.
	TenantBySubdomainForUpdate(ctx context.Context, subdomain string) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	UpdateTenantFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// Users
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// UserForUpdate reads the user row under a row-level write lock for
	// the read-then-write update and delete paths.
	UserForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	// UserInTenantForShare reads the user row under a share lock, so a
	// concurrent delete of the row waits for this transaction. Assignee
	// resolution uses it to keep task references from dangling.
	UserInTenantForShare(ctx context.Context, tenantID, userID uuid.UUID) (*model.User, error)
	UserByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID) ([]model.User, error)
	CountUsers(ctx context.Context, tenantID uuid.UUID) (int64, error)
	UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	// UnassignUserTasks clears assigned_to on every task referencing the
	// user, so a task never points at a deleted user.
	UnassignUserTasks(ctx context.Context, userID uuid.UUID) error

	// Projects
	CreateProject(ctx context.Context, p *model.Project) error
	ProjectByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListProjects(ctx context.Context, tenantID uuid.UUID) ([]model.Project, error)
	CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error)
	UpdateProjectFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteProject(ctx context.Context, id uuid.UUID) error

	// Tasks
	CreateTask(ctx context.Context, t *model.Task) error
	TaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	TaskForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	UpdateTaskFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

// Store adds multi-statement transactions on top of Tx. fn runs against
// a transaction-bound Tx; any error rolls the whole transaction back.
type Store interface {
	Tx
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// PasswordHasher is the one-way credential hashing collaborator.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// TokenIssuer mints an access token for an authenticated user.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}
