package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
)

// AuditLogRepository handles the append-only audit trail
type AuditLogRepository struct {
	DB *gorm.DB
}

var _ AuditLogRepositoryInterface = (*AuditLogRepository)(nil)

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

func (r *AuditLogRepository) Append(entry *models.AuditLog) error {
	if err := r.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit log entry: %w", err)
	}
	return nil
}

func (r *AuditLogRepository) ListRecent(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLog
	if err := r.DB.Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return entries, nil
}

// DeleteOlderThan removes entries written before the cutoff; used by the
// scheduled retention sweep.
func (r *AuditLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.DB.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep audit log: %w", result.Error)
	}
	return result.RowsAffected, nil
}
