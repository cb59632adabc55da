package models

import "time"

// Work application states.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// WorkApplication is a leave or schedule-change request raised by a user and
// decided by an admin.
type WorkApplication struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Type      string `json:"type" gorm:"size:30;not null"` // leave, remote, overtime
	StartDate string `json:"start_date" gorm:"size:10;not null"`
	EndDate   string `json:"end_date" gorm:"size:10;not null"`
	Reason    string `json:"reason" gorm:"size:500"`
	Status    string `json:"status" gorm:"size:20;not null;default:'pending'"`
	DecidedBy string `json:"decided_by" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (WorkApplication) TableName() string {
	return "work_applications"
}
