package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
)

// HolidayRepository handles database operations for holidays and paid leave
type HolidayRepository struct {
	DB *gorm.DB
}

var _ HolidayRepositoryInterface = (*HolidayRepository)(nil)

func NewHolidayRepository(db *gorm.DB) *HolidayRepository {
	return &HolidayRepository{DB: db}
}

func (r *HolidayRepository) Create(holiday *models.Holiday) error {
	if err := r.DB.Create(holiday).Error; err != nil {
		return fmt.Errorf("failed to create holiday %s: %w", holiday.Date, err)
	}
	return nil
}

func (r *HolidayRepository) ListAll() ([]models.Holiday, error) {
	var holidays []models.Holiday
	if err := r.DB.Order("date asc").Find(&holidays).Error; err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return holidays, nil
}

func (r *HolidayRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Holiday{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete holiday ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *HolidayRepository) CreatePaid(paid *models.PaidHoliday) error {
	if err := r.DB.Create(paid).Error; err != nil {
		return fmt.Errorf("failed to create paid holiday for user %d: %w", paid.UserID, err)
	}
	return nil
}

func (r *HolidayRepository) ListPaidByUser(userID uint) ([]models.PaidHoliday, error) {
	var paid []models.PaidHoliday
	if err := r.DB.Where("user_id = ?", userID).Order("date desc").Find(&paid).Error; err != nil {
		return nil, fmt.Errorf("failed to list paid holidays for user %d: %w", userID, err)
	}
	return paid, nil
}

func (r *HolidayRepository) DeletePaid(id uint) error {
	result := r.DB.Delete(&models.PaidHoliday{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete paid holiday ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
