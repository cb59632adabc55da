package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
)

// ShiftRepository handles database operations for shifts and assignments
type ShiftRepository struct {
	DB *gorm.DB
}

var _ ShiftRepositoryInterface = (*ShiftRepository)(nil)

func NewShiftRepository(db *gorm.DB) *ShiftRepository {
	return &ShiftRepository{DB: db}
}

func (r *ShiftRepository) Create(shift *models.Shift) error {
	if err := r.DB.Create(shift).Error; err != nil {
		return fmt.Errorf("failed to create shift %s: %w", shift.Name, err)
	}
	return nil
}

func (r *ShiftRepository) ListAll() ([]models.Shift, error) {
	var shifts []models.Shift
	if err := r.DB.Order("start_time asc").Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

func (r *ShiftRepository) Update(shift *models.Shift) error {
	result := r.DB.Model(&models.Shift{ID: shift.ID}).Updates(map[string]interface{}{
		"name":       shift.Name,
		"start_time": shift.StartTime,
		"end_time":   shift.EndTime,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update shift ID %d: %w", shift.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ShiftRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Shift{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete shift ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ShiftRepository) Assign(assignment *models.ShiftAssignment) error {
	if err := r.DB.Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to assign shift %d to user %d: %w", assignment.ShiftID, assignment.UserID, err)
	}
	return nil
}

// GetAssignmentForUser returns the user's most recent shift assignment.
func (r *ShiftRepository) GetAssignmentForUser(userID uint) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("Shift").
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get shift assignment for user %d: %w", userID, err)
	}
	return &assignment, nil
}
