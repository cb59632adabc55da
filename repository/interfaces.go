package repository

import (
	"time"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/recognition"
)

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	ListAll(activeOnly bool) ([]models.User, error)
	Update(user *models.User) error
	Deactivate(id uint) error

	// AppendEmbedding adds one registered sample to the user's bank,
	// normalizing legacy single-vector rows on the way.
	AppendEmbedding(id uint, embedding []float64, maxSamples int) error

	// LoadActiveIdentities feeds the recognition engine a full snapshot.
	LoadActiveIdentities() ([]recognition.Identity, error)

	// SaveEmbeddingBank persists an auto-trainer update.
	SaveEmbeddingBank(id uint, samples [][]float64, representative []float64, threshold float64) error
}

// AttendanceLogFilter narrows attendance log queries.
type AttendanceLogFilter struct {
	UserID   *uint
	FromDate string
	ToDate   string
	Limit    int
	Offset   int
}

// AttendanceRepositoryInterface defines the methods for attendance rows
type AttendanceRepositoryInterface interface {
	// GetOrCreateForDate returns the user's row for the given calendar day,
	// creating an empty one if none exists yet.
	GetOrCreateForDate(userID uint, userName, date string) (*models.Attendance, error)

	// Commit durably writes a mutated record inside a transaction keyed by
	// (user, date).
	Commit(record *models.Attendance) error

	GetForUserDate(userID uint, date string) (*models.Attendance, error)
	ListFiltered(filter AttendanceLogFilter) ([]models.Attendance, error)
}

// AdminRepositoryInterface defines the methods for admin accounts
type AdminRepositoryInterface interface {
	Create(admin *models.Admin) error
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	Update(admin *models.Admin) error
}

// HolidayRepositoryInterface defines the methods for holidays
type HolidayRepositoryInterface interface {
	Create(holiday *models.Holiday) error
	ListAll() ([]models.Holiday, error)
	Delete(id uint) error

	CreatePaid(paid *models.PaidHoliday) error
	ListPaidByUser(userID uint) ([]models.PaidHoliday, error)
	DeletePaid(id uint) error
}

// ShiftRepositoryInterface defines the methods for shifts and assignments
type ShiftRepositoryInterface interface {
	Create(shift *models.Shift) error
	ListAll() ([]models.Shift, error)
	Update(shift *models.Shift) error
	Delete(id uint) error

	Assign(assignment *models.ShiftAssignment) error
	GetAssignmentForUser(userID uint) (*models.ShiftAssignment, error)
}

// WorkApplicationRepositoryInterface defines the methods for leave requests
type WorkApplicationRepositoryInterface interface {
	Create(app *models.WorkApplication) error
	GetByID(id uint) (*models.WorkApplication, error)
	ListByUser(userID uint) ([]models.WorkApplication, error)
	ListPending() ([]models.WorkApplication, error)
	Decide(id uint, status, decidedBy string) error
}

// AuditLogRepositoryInterface defines the methods for the audit trail
type AuditLogRepositoryInterface interface {
	Append(entry *models.AuditLog) error
	ListRecent(limit int) ([]models.AuditLog, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}
