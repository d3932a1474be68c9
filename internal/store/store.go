// Package store implements the transactional store adapter on GORM and
// PostgreSQL. It satisfies service.Store; the row-locking reads back the
// quota ledger, the provisioner's uniqueness check and the
// read-then-write update paths.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskhub-service/internal/model"
	"taskhub-service/internal/service"
	"taskhub-service/prometheus"
)

// Store wraps a gorm handle. A Store built by InTx is bound to the open
// transaction; the root Store runs each call in auto-commit mode.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ service.Store = (*Store)(nil)

// InTx runs fn inside one database transaction. Any error returned by
// fn rolls the whole transaction back.
func (s *Store) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// first runs the query and maps gorm's not-found onto (found=false, nil).
func first(q *gorm.DB, dest interface{}) (bool, error) {
	if err := q.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Tenants

func (s *Store) CreateTenant(ctx context.Context, t *model.Tenant) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) TenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var t model.Tenant
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *Store) TenantForUpdate(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var t model.Tenant
	q := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	found, err := first(q, &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *Store) TenantBySubdomainForUpdate(ctx context.Context, subdomain string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var t model.Tenant
	q := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("subdomain = ?", subdomain)
	found, err := first(q, &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenants []model.Tenant
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error
	return tenants, err
}

func (s *Store) UpdateTenantFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", id).Updates(fields).Error
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	q := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	found, err := first(q, &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	found, err := first(s.db.WithContext(ctx).Where("email = ?", email), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// UserInTenantForShare reads the user under FOR SHARE so a concurrent
// delete of the row blocks until this transaction commits.
func (s *Store) UserInTenantForShare(ctx context.Context, tenantID, userID uuid.UUID) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	q := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ? AND tenant_id = ?", userID, tenantID)
	found, err := first(q, &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var u model.User
	q := s.db.WithContext(ctx).Where("tenant_id = ? AND email = ?", tenantID, email)
	found, err := first(q, &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (s *Store) CountUsers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (s *Store) UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	return s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id).Error
}

func (s *Store) UnassignUserTasks(ctx context.Context, userID uuid.UUID) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("assigned_to = ?", userID).
		Update("assigned_to", nil).Error
}

// Projects

func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) ProjectByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Project
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var p model.Project
	q := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	found, err := first(q, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, tenantID uuid.UUID) ([]model.Project, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (s *Store) CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (s *Store) UpdateProjectFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Updates(fields).Error
}

func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	return s.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id).Error
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) TaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var t model.Task
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *Store) TaskForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var t model.Task
	q := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	found, err := first(q, &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tasks []model.Task
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (s *Store) UpdateTaskFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(fields).Error
}

func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	return s.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error
}
