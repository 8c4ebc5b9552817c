package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is who an invoice is billed to. Clients belong to the user who
// created them.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index"`
	FirstName string
	LastName  string
	Email     string `gorm:"index"`
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
