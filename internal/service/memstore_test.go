package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub-service/internal/authz"
	"taskhub-service/internal/model"
)

// memStore is an in-memory Store for tests. InTx holds the store lock
// for the whole transaction and restores a snapshot on error, which
// mirrors what the database gives the real store: serialized quota
// reservations and all-or-nothing multi-statement writes.
type memStore struct {
	mu sync.Mutex
	d  *memData

	// failUserInsert injects a failure into CreateUser to exercise
	// rollback behavior.
	failUserInsert bool

	// Lock-read counters. The fake cannot reproduce row-lock blocking,
	// so tests instead pin that the read-then-write paths go through
	// the locking read methods inside their transactions.
	userLockReads    int
	projectLockReads int
	taskLockReads    int
	shareLockReads   int
}

type memData struct {
	tenants  map[uuid.UUID]model.Tenant
	users    map[uuid.UUID]model.User
	projects map[uuid.UUID]model.Project
	tasks    map[uuid.UUID]model.Task
	seq      int64
}

func newMemStore() *memStore {
	return &memStore{d: &memData{
		tenants:  map[uuid.UUID]model.Tenant{},
		users:    map[uuid.UUID]model.User{},
		projects: map[uuid.UUID]model.Project{},
		tasks:    map[uuid.UUID]model.Task{},
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		tenants:  make(map[uuid.UUID]model.Tenant, len(d.tenants)),
		users:    make(map[uuid.UUID]model.User, len(d.users)),
		projects: make(map[uuid.UUID]model.Project, len(d.projects)),
		tasks:    make(map[uuid.UUID]model.Task, len(d.tasks)),
		seq:      d.seq,
	}
	for k, v := range d.tenants {
		c.tenants[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.projects {
		c.projects[k] = v
	}
	for k, v := range d.tasks {
		c.tasks[k] = v
	}
	return c
}

// stamp produces strictly increasing creation times.
func (d *memData) stamp() time.Time {
	d.seq++
	return time.Unix(0, d.seq)
}

func (s *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.d.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

// Auto-commit entry points: each call is its own one-statement
// transaction.

func (s *memStore) CreateTenant(ctx context.Context, t *model.Tenant) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.CreateTenant(ctx, t) })
}

func (s *memStore) TenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).TenantByID(ctx, id)
}

func (s *memStore) TenantForUpdate(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).TenantForUpdate(ctx, id)
}

func (s *memStore) TenantBySubdomainForUpdate(ctx context.Context, subdomain string) (*model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).TenantBySubdomainForUpdate(ctx, subdomain)
}

func (s *memStore) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).ListTenants(ctx)
}

func (s *memStore) UpdateTenantFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.UpdateTenantFields(ctx, id, fields) })
}

func (s *memStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.CreateUser(ctx, u) })
}

func (s *memStore) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).UserByID(ctx, id)
}

func (s *memStore) UserForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).UserForUpdate(ctx, id)
}

func (s *memStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).UserByEmail(ctx, email)
}

func (s *memStore) UserInTenantForShare(ctx context.Context, tenantID, userID uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).UserInTenantForShare(ctx, tenantID, userID)
}

func (s *memStore) UserByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).UserByTenantAndEmail(ctx, tenantID, email)
}

func (s *memStore) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).ListUsers(ctx, tenantID)
}

func (s *memStore) CountUsers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).CountUsers(ctx, tenantID)
}

func (s *memStore) UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.UpdateUserFields(ctx, id, fields) })
}

func (s *memStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteUser(ctx, id) })
}

func (s *memStore) UnassignUserTasks(ctx context.Context, userID uuid.UUID) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.UnassignUserTasks(ctx, userID) })
}

func (s *memStore) CreateProject(ctx context.Context, p *model.Project) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.CreateProject(ctx, p) })
}

func (s *memStore) ProjectByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).ProjectByID(ctx, id)
}

func (s *memStore) ProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).ProjectForUpdate(ctx, id)
}

func (s *memStore) ListProjects(ctx context.Context, tenantID uuid.UUID) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).ListProjects(ctx, tenantID)
}

func (s *memStore) CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).CountProjects(ctx, tenantID)
}

func (s *memStore) UpdateProjectFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.UpdateProjectFields(ctx, id, fields) })
}

func (s *memStore) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteProject(ctx, id) })
}

func (s *memStore) CreateTask(ctx context.Context, t *model.Task) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.CreateTask(ctx, t) })
}

func (s *memStore) TaskByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).TaskByID(ctx, id)
}

func (s *memStore) TaskForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).TaskForUpdate(ctx, id)
}

func (s *memStore) ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{s: s}).ListTasks(ctx, projectID)
}

func (s *memStore) UpdateTaskFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.UpdateTaskFields(ctx, id, fields) })
}

func (s *memStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteTask(ctx, id) })
}

// memTx operates on the store data; the store lock is held by the
// caller for the transaction's lifetime.
type memTx struct {
	s *memStore
}

func (t *memTx) CreateTenant(_ context.Context, tn *model.Tenant) error {
	tn.CreatedAt = t.s.d.stamp()
	t.s.d.tenants[tn.ID] = *tn
	return nil
}

func (t *memTx) TenantByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	if tn, ok := t.s.d.tenants[id]; ok {
		return &tn, nil
	}
	return nil, nil
}

func (t *memTx) TenantForUpdate(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	return t.TenantByID(ctx, id)
}

func (t *memTx) TenantBySubdomainForUpdate(_ context.Context, subdomain string) (*model.Tenant, error) {
	for _, tn := range t.s.d.tenants {
		if tn.Subdomain == subdomain {
			tn := tn
			return &tn, nil
		}
	}
	return nil, nil
}

func (t *memTx) ListTenants(_ context.Context) ([]model.Tenant, error) {
	var out []model.Tenant
	for _, tn := range t.s.d.tenants {
		out = append(out, tn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) UpdateTenantFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	tn, ok := t.s.d.tenants[id]
	if !ok {
		return nil
	}
	if v, ok := fields["status"]; ok {
		tn.Status = v.(string)
	}
	t.s.d.tenants[id] = tn
	return nil
}

func (t *memTx) CreateUser(_ context.Context, u *model.User) error {
	if t.s.failUserInsert {
		return errors.New("injected user insert failure")
	}
	u.CreatedAt = t.s.d.stamp()
	t.s.d.users[u.ID] = *u
	return nil
}

func (t *memTx) UserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := t.s.d.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (t *memTx) UserForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	t.s.userLockReads++
	return t.UserByID(ctx, id)
}

func (t *memTx) UserByEmail(_ context.Context, email string) (*model.User, error) {
	var out []model.User
	for _, u := range t.s.d.users {
		if u.Email == email {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return &out[0], nil
}

func (t *memTx) UserInTenantForShare(_ context.Context, tenantID, userID uuid.UUID) (*model.User, error) {
	t.s.shareLockReads++
	if u, ok := t.s.d.users[userID]; ok && u.TenantID != nil && *u.TenantID == tenantID {
		return &u, nil
	}
	return nil, nil
}

func (t *memTx) UserByTenantAndEmail(_ context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	for _, u := range t.s.d.users {
		if u.Email == email && u.TenantID != nil && *u.TenantID == tenantID {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (t *memTx) ListUsers(_ context.Context, tenantID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range t.s.d.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) CountUsers(_ context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	for _, u := range t.s.d.users {
		if u.TenantID != nil && *u.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) UpdateUserFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	u, ok := t.s.d.users[id]
	if !ok {
		return nil
	}
	if v, ok := fields["full_name"]; ok {
		u.FullName = v.(string)
	}
	if v, ok := fields["role"]; ok {
		u.Role = v.(string)
	}
	if v, ok := fields["is_active"]; ok {
		u.IsActive = v.(bool)
	}
	t.s.d.users[id] = u
	return nil
}

func (t *memTx) DeleteUser(_ context.Context, id uuid.UUID) error {
	delete(t.s.d.users, id)
	return nil
}

func (t *memTx) UnassignUserTasks(_ context.Context, userID uuid.UUID) error {
	for id, tk := range t.s.d.tasks {
		if tk.AssignedTo != nil && *tk.AssignedTo == userID {
			tk.AssignedTo = nil
			t.s.d.tasks[id] = tk
		}
	}
	return nil
}

func (t *memTx) CreateProject(_ context.Context, p *model.Project) error {
	p.CreatedAt = t.s.d.stamp()
	t.s.d.projects[p.ID] = *p
	return nil
}

func (t *memTx) ProjectByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	if p, ok := t.s.d.projects[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (t *memTx) ProjectForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	t.s.projectLockReads++
	return t.ProjectByID(ctx, id)
}

func (t *memTx) ListProjects(_ context.Context, tenantID uuid.UUID) ([]model.Project, error) {
	var out []model.Project
	for _, p := range t.s.d.projects {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) CountProjects(_ context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range t.s.d.projects {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) UpdateProjectFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	p, ok := t.s.d.projects[id]
	if !ok {
		return nil
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		p.Description = v.(string)
	}
	if v, ok := fields["status"]; ok {
		p.Status = v.(string)
	}
	t.s.d.projects[id] = p
	return nil
}

func (t *memTx) DeleteProject(_ context.Context, id uuid.UUID) error {
	delete(t.s.d.projects, id)
	return nil
}

func (t *memTx) CreateTask(_ context.Context, tk *model.Task) error {
	tk.CreatedAt = t.s.d.stamp()
	t.s.d.tasks[tk.ID] = *tk
	return nil
}

func (t *memTx) TaskByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	if tk, ok := t.s.d.tasks[id]; ok {
		return &tk, nil
	}
	return nil, nil
}

func (t *memTx) TaskForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	t.s.taskLockReads++
	return t.TaskByID(ctx, id)
}

func (t *memTx) ListTasks(_ context.Context, projectID uuid.UUID) ([]model.Task, error) {
	var out []model.Task
	for _, tk := range t.s.d.tasks {
		if tk.ProjectID == projectID {
			out = append(out, tk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) UpdateTaskFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	tk, ok := t.s.d.tasks[id]
	if !ok {
		return nil
	}
	if v, ok := fields["title"]; ok {
		tk.Title = v.(string)
	}
	if v, ok := fields["description"]; ok {
		tk.Description = v.(string)
	}
	if v, ok := fields["status"]; ok {
		tk.Status = v.(string)
	}
	if v, ok := fields["priority"]; ok {
		tk.Priority = v.(string)
	}
	if v, ok := fields["assigned_to"]; ok {
		switch a := v.(type) {
		case nil:
			tk.AssignedTo = nil
		case uuid.UUID:
			id := a
			tk.AssignedTo = &id
		}
	}
	if v, ok := fields["due_date"]; ok {
		if d, ok := v.(time.Time); ok {
			tk.DueDate = &d
		}
	}
	t.s.d.tasks[id] = tk
	return nil
}

func (t *memTx) DeleteTask(_ context.Context, id uuid.UUID) error {
	delete(t.s.d.tasks, id)
	return nil
}

var _ Store = (*memStore)(nil)

// fakeHasher avoids bcrypt cost in tests while keeping Hash/Compare
// consistent with each other.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (fakeHasher) Compare(plaintext, digest string) bool { return digest == "hashed:"+plaintext }

type fakeIssuer struct{}

func (fakeIssuer) Issue(u *model.User) (string, error) { return "token-" + u.Email, nil }

// Seed helpers bypass the services so tests can set up exactly the
// state they need.

func seedTenant(s *memStore, subdomain string) *model.Tenant {
	t := &model.Tenant{
		ID:          uuid.New(),
		Name:        subdomain + " Inc",
		Subdomain:   subdomain,
		Status:      model.TenantStatusActive,
		Plan:        model.DefaultPlan,
		MaxUsers:    model.DefaultMaxUsers,
		MaxProjects: model.DefaultMaxProjects,
	}
	if err := s.CreateTenant(context.Background(), t); err != nil {
		panic(err)
	}
	return t
}

func seedUser(s *memStore, tenantID uuid.UUID, email, role string) *model.User {
	u := &model.User{
		ID:           uuid.New(),
		TenantID:     &tenantID,
		Email:        email,
		PasswordHash: "hashed:secret123",
		FullName:     "Test " + email,
		Role:         role,
		IsActive:     true,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func principalFor(u *model.User) authz.Principal {
	return authz.Principal{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Role:     authz.Role(u.Role),
	}
}
