package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/recognition"
)

// UserRepository handles database operations for User entities
type UserRepository struct {
	DB *gorm.DB
}

// Ensure UserRepository implements UserRepositoryInterface
var _ UserRepositoryInterface = (*UserRepository)(nil)

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create creates a new user record in the database
func (r *UserRepository) Create(user *models.User) error {
	if err := r.DB.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Name, err)
	}
	return nil
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.DB.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// ListAll retrieves users, optionally restricted to active ones
func (r *UserRepository) ListAll(activeOnly bool) ([]models.User, error) {
	var users []models.User
	q := r.DB
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update saves mutable user fields
func (r *UserRepository) Update(user *models.User) error {
	result := r.DB.Model(&models.User{ID: user.ID}).Updates(map[string]interface{}{
		"employee_id": user.EmployeeID,
		"name":        user.Name,
		"department":  user.Department,
		"is_active":   user.IsActive,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update user ID %d: %w", user.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Deactivate soft-deletes a user. Attendance history keeps its name
// snapshots; the recognition index drops the identity on next reload.
func (r *UserRepository) Deactivate(id uint) error {
	result := r.DB.Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate user ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendEmbedding adds one registered sample to the user's bank, evicting
// the oldest sample past the cap.
func (r *UserRepository) AppendEmbedding(id uint, embedding []float64, maxSamples int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return fmt.Errorf("failed to load user %d for embedding append: %w", id, err)
		}

		bank, err := models.DecodeEmbeddingBank(user.EmbeddingBank)
		if err != nil {
			log.Printf("UserRepository: resetting malformed embedding bank for user %d: %v", id, err)
			bank = nil
		}
		bank = append(bank, embedding)
		if maxSamples > 0 && len(bank) > maxSamples {
			bank = bank[len(bank)-maxSamples:]
		}

		encoded, err := models.EncodeEmbeddingBank(bank)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", id).
			Update("embedding_bank", encoded).Error; err != nil {
			return fmt.Errorf("failed to persist embedding bank for user %d: %w", id, err)
		}
		return nil
	})
}

// LoadActiveIdentities builds the recognition snapshot from all active
// users. Users with malformed banks are skipped with a warning, never fatal.
func (r *UserRepository) LoadActiveIdentities() ([]recognition.Identity, error) {
	var users []models.User
	if err := r.DB.Where("is_active = ?", true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load active users: %w", err)
	}

	identities := make([]recognition.Identity, 0, len(users))
	for _, u := range users {
		bank, err := models.DecodeEmbeddingBank(u.EmbeddingBank)
		if err != nil {
			log.Printf("UserRepository: skipping user %d (%s): %v", u.ID, u.Name, err)
			continue
		}
		identities = append(identities, recognition.Identity{
			ID:             u.ID,
			Name:           u.Name,
			Samples:        bank,
			Representative: models.DecodeVector(u.Representative),
			Threshold:      u.Threshold,
		})
	}
	return identities, nil
}

// SaveEmbeddingBank persists an auto-trainer update to a user's bank,
// representative vector and adaptive threshold.
func (r *UserRepository) SaveEmbeddingBank(id uint, samples [][]float64, representative []float64, threshold float64) error {
	encoded, err := models.EncodeEmbeddingBank(samples)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"embedding_bank": encoded,
		"threshold":      threshold,
	}
	if rep := models.EncodeVector(representative); rep != nil {
		updates["representative"] = rep
	}
	result := r.DB.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to save embedding bank for user %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
