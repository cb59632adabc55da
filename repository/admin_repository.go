package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
)

// AdminRepository handles database operations for Admin accounts
type AdminRepository struct {
	DB *gorm.DB
}

var _ AdminRepositoryInterface = (*AdminRepository)(nil)

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

func (r *AdminRepository) Create(admin *models.Admin) error {
	if err := r.DB.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin %s: %w", admin.Username, err)
	}
	return nil
}

func (r *AdminRepository) GetByUsername(username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.DB.Where("username = ?", username).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get admin %s: %w", username, err)
	}
	return &admin, nil
}

func (r *AdminRepository) GetByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	err := r.DB.First(&admin, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get admin by ID %d: %w", id, err)
	}
	return &admin, nil
}

func (r *AdminRepository) Update(admin *models.Admin) error {
	result := r.DB.Model(&models.Admin{ID: admin.ID}).Updates(map[string]interface{}{
		"password_hash": admin.PasswordHash,
		"is_hr":         admin.IsHR,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update admin ID %d: %w", admin.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
