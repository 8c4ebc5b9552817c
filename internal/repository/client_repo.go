package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) ListForUser(userID uuid.UUID) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Where("user_id = ?", userID).Order("first_name ASC").Order("last_name ASC").Find(&clients).Error
	return clients, err
}

// GetForUser fetches a client owned by userID.
func (r *ClientRepository) GetForUser(id, userID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.First(&client, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}
