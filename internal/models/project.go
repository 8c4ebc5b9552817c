package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contract roles. Owners and members log time; clients only see invoices.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
	RoleClient = "client"
)

type Project struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"not null"`
	OwnerID        uuid.UUID `gorm:"type:uuid;index"`
	ClientFullName string
	ClientAddress  string
	ClientEmail    string
	Contracts      []ProjectContract `gorm:"foreignKey:ProjectID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsOwner reports whether userID administers the project.
func (p Project) IsOwner(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// ProjectContract binds a user to a project with the rates their time is
// billed (project rate) and paid (user rate) at.
type ProjectContract struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index"`
	UserID      uuid.UUID `gorm:"type:uuid;index"`
	User        User      `gorm:"foreignKey:UserID"`
	Role        string    `gorm:"size:20;not null;default:member"`
	Activity    string
	ProjectRate decimal.Decimal `gorm:"type:numeric(12,2)"`
	UserRate    decimal.Decimal `gorm:"type:numeric(12,2)"`
	ActiveFrom  time.Time
	EndsAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *ProjectContract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ActiveIn reports whether the contract covers t.
func (c ProjectContract) ActiveIn(t time.Time) bool {
	if t.Before(c.ActiveFrom) {
		return false
	}
	return c.EndsAt == nil || !t.After(*c.EndsAt)
}

// IsTeam reports whether the contract belongs to someone who logs time.
func (c ProjectContract) IsTeam() bool {
	return c.Role != RoleClient
}
