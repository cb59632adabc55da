package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
)

// WorkApplicationRepository handles database operations for leave requests
type WorkApplicationRepository struct {
	DB *gorm.DB
}

var _ WorkApplicationRepositoryInterface = (*WorkApplicationRepository)(nil)

func NewWorkApplicationRepository(db *gorm.DB) *WorkApplicationRepository {
	return &WorkApplicationRepository{DB: db}
}

func (r *WorkApplicationRepository) Create(app *models.WorkApplication) error {
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}
	if err := r.DB.Create(app).Error; err != nil {
		return fmt.Errorf("failed to create work application for user %d: %w", app.UserID, err)
	}
	return nil
}

func (r *WorkApplicationRepository) GetByID(id uint) (*models.WorkApplication, error) {
	var app models.WorkApplication
	err := r.DB.Preload("User").First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get work application ID %d: %w", id, err)
	}
	return &app, nil
}

func (r *WorkApplicationRepository) ListByUser(userID uint) ([]models.WorkApplication, error) {
	var apps []models.WorkApplication
	if err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list work applications for user %d: %w", userID, err)
	}
	return apps, nil
}

func (r *WorkApplicationRepository) ListPending() ([]models.WorkApplication, error) {
	var apps []models.WorkApplication
	err := r.DB.Where("status = ?", models.ApplicationPending).
		Preload("User").
		Order("created_at asc").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending work applications: %w", err)
	}
	return apps, nil
}

// Decide resolves a pending application; deciding an already-decided one is
// rejected so two approvers cannot race.
func (r *WorkApplicationRepository) Decide(id uint, status, decidedBy string) error {
	if status != models.ApplicationApproved && status != models.ApplicationRejected {
		return fmt.Errorf("invalid work application decision %q", status)
	}
	result := r.DB.Model(&models.WorkApplication{}).
		Where("id = ? AND status = ?", id, models.ApplicationPending).
		Updates(map[string]interface{}{"status": status, "decided_by": decidedBy})
	if result.Error != nil {
		return fmt.Errorf("failed to decide work application ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
