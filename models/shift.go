package models

import "time"

// Shift is a named working window, e.g. "Day 09:00-18:00".
type Shift struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:50;not null"`
	StartTime string    `json:"start_time" gorm:"size:5;not null"` // HH:MM
	EndTime   string    `json:"end_time" gorm:"size:5;not null"`   // HH:MM
	CreatedAt time.Time `json:"created_at"`
}

func (Shift) TableName() string {
	return "shifts"
}

// ShiftAssignment places a user on a shift. The most recent assignment for
// a user wins.
type ShiftAssignment struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	ShiftID   uint      `json:"shift_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`

	User  *User  `json:"-" gorm:"foreignKey:UserID"`
	Shift *Shift `json:"shift,omitempty" gorm:"foreignKey:ShiftID"`
}

func (ShiftAssignment) TableName() string {
	return "shift_assignments"
}
