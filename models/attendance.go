package models

import "time"

// DateLayout is the calendar-date format used for attendance rows.
const DateLayout = "2006-01-02"

// Attendance is one user's timesheet row for a single calendar day.
// It corresponds to the 'attendance_records' table. Rows are created lazily
// on the first action of the day and never deleted; deleting a user nulls
// the foreign key but UserName keeps a snapshot for history.
type Attendance struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID   *uint  `json:"user_id" gorm:"uniqueIndex:idx_attendance_user_date"`
	UserName string `json:"user_name" gorm:"size:100"`
	Date     string `json:"date" gorm:"size:10;not null;uniqueIndex:idx_attendance_user_date;index"`

	CheckIn    *time.Time `json:"check_in"`
	BreakStart *time.Time `json:"break_start"`
	BreakEnd   *time.Time `json:"break_end"`
	CheckOut   *time.Time `json:"check_out"`

	// Derived durations in seconds, recomputed whenever break-end or
	// check-out lands.
	TotalWorkSecs  int64 `json:"total_work_secs"`
	BreakSecs      int64 `json:"break_secs"`
	ActualWorkSecs int64 `json:"actual_work_secs"`

	Status string `json:"status" gorm:"size:20;default:'Present'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (Attendance) TableName() string {
	return "attendance_records"
}

// Closed reports whether the day is finished; a closed record is immutable.
func (a *Attendance) Closed() bool {
	return a.CheckOut != nil
}

// OnBreak reports whether the record has a started but unterminated break.
func (a *Attendance) OnBreak() bool {
	return a.BreakStart != nil && a.BreakEnd == nil
}
