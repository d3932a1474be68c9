package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant status values
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Default subscription limits for newly registered tenants (free plan)
const (
	DefaultPlan        = "free"
	DefaultMaxUsers    = 5
	DefaultMaxProjects = 3
)

// Tenant represents an isolated customer account.
// This is the core of our multi-tenant architecture: every other entity
// carries a tenant_id, and the subscription limits live on this row.
type Tenant struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Subdomain   string    `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Plan        string    `json:"plan" gorm:"type:varchar(50);not null;default:'free'"`
	MaxUsers    int       `json:"max_users" gorm:"not null"`
	MaxProjects int       `json:"max_projects" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid primary key when none is set
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
