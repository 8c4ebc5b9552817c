package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"timetrack-invoicing-backend/internal/models"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ListForUser returns every project the user holds a contract on.
func (r *ProjectRepository) ListForUser(userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	member := r.db.Model(&models.ProjectContract{}).Select("project_id").Where("user_id = ?", userID)
	err := r.db.Where("id IN (?)", member).Order("name ASC").Find(&projects).Error
	return projects, err
}

// GetForUser fetches a project the user holds a contract on. Projects the
// user cannot see are reported as not found.
func (r *ProjectRepository) GetForUser(projectID, userID uuid.UUID) (*models.Project, error) {
	var project models.Project
	member := r.db.Model(&models.ProjectContract{}).Select("project_id").Where("user_id = ?", userID)
	err := r.db.Where("id = ? AND id IN (?)", projectID, member).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *ProjectRepository) CreateContract(contract *models.ProjectContract) error {
	return r.db.Omit("User").Create(contract).Error
}

// ActiveTeamContracts returns the contracts active at t, clients excluded.
func (r *ProjectRepository) ActiveTeamContracts(projectID uuid.UUID, at time.Time) ([]models.ProjectContract, error) {
	var contracts []models.ProjectContract
	err := r.db.Preload("User").
		Where("project_id = ? AND role <> ?", projectID, models.RoleClient).
		Where("active_from <= ?", at).
		Where("ends_at IS NULL OR ends_at >= ?", at).
		Order("created_at ASC").
		Find(&contracts).Error
	return contracts, err
}

// ActiveContractFor returns the contract userID works under at t.
func (r *ProjectRepository) ActiveContractFor(projectID, userID uuid.UUID, at time.Time) (*models.ProjectContract, error) {
	var contract models.ProjectContract
	err := r.db.Preload("User").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Where("active_from <= ?", at).
		Where("ends_at IS NULL OR ends_at >= ?", at).
		Order("active_from DESC").
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// IsClient reports whether userID only has client access to the project.
func (r *ProjectRepository) IsClient(projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&models.ProjectContract{}).
		Where("project_id = ? AND user_id = ? AND role = ?", projectID, userID, models.RoleClient).
		Count(&count).Error
	return count > 0, err
}

// ContractIDs returns every contract id of the project, ended ones included.
func (r *ProjectRepository) ContractIDs(projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.ProjectContract{}).Where("project_id = ?", projectID).Pluck("id", &ids).Error
	return ids, err
}
