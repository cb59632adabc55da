package repository

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/facetrack/facetrackbackend/models"
)

// AttendanceRepository handles database operations for attendance rows
type AttendanceRepository struct {
	DB *gorm.DB
}

var _ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)

// NewAttendanceRepository creates a new instance of AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// GetOrCreateForDate returns the user's row for a calendar day, creating an
// empty one when this is the first action of the day. The unique
// (user_id, date) index keeps two concurrent first actions from
// double-creating.
func (r *AttendanceRepository) GetOrCreateForDate(userID uint, userName, date string) (*models.Attendance, error) {
	var record models.Attendance
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		uid := userID
		result := tx.Where(models.Attendance{UserID: &uid, Date: date}).
			Attrs(models.Attendance{UserName: userName, Status: "Present"}).
			FirstOrCreate(&record)
		if result.Error != nil {
			return fmt.Errorf("failed to get or create attendance for user %d on %s: %w", userID, date, result.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Commit durably writes a mutated record. The row is re-locked inside the
// transaction so the async writer and any direct caller cannot interleave
// updates for the same (user, date).
func (r *AttendanceRepository) Commit(record *models.Attendance) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var current models.Attendance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, record.ID).Error
		if err != nil {
			return fmt.Errorf("failed to lock attendance row %d: %w", record.ID, err)
		}
		if err := tx.Model(&current).Updates(map[string]interface{}{
			"check_in":         record.CheckIn,
			"break_start":      record.BreakStart,
			"break_end":        record.BreakEnd,
			"check_out":        record.CheckOut,
			"total_work_secs":  record.TotalWorkSecs,
			"break_secs":       record.BreakSecs,
			"actual_work_secs": record.ActualWorkSecs,
			"status":           record.Status,
		}).Error; err != nil {
			return fmt.Errorf("failed to commit attendance row %d: %w", record.ID, err)
		}
		return nil
	})
}

// GetForUserDate fetches an existing row, or gorm.ErrRecordNotFound.
func (r *AttendanceRepository) GetForUserDate(userID uint, date string) (*models.Attendance, error) {
	var record models.Attendance
	err := r.DB.Where("user_id = ? AND date = ?", userID, date).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get attendance for user %d on %s: %w", userID, date, err)
	}
	return &record, nil
}

// ListFiltered returns attendance rows matching the filter, newest first.
// The filter query is assembled with squirrel and run through GORM's
// connection.
func (r *AttendanceRepository) ListFiltered(filter AttendanceLogFilter) ([]models.Attendance, error) {
	builder := sq.Select("*").From("attendance_records").OrderBy("date DESC, id DESC")

	if filter.UserID != nil {
		builder = builder.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.FromDate != "" {
		builder = builder.Where(sq.GtOrEq{"date": filter.FromDate})
	}
	if filter.ToDate != "" {
		builder = builder.Where(sq.LtOrEq{"date": filter.ToDate})
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	builder = builder.Limit(uint64(limit))
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build attendance log query: %w", err)
	}

	var records []models.Attendance
	if err := r.DB.Raw(query, args...).Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	return records, nil
}
