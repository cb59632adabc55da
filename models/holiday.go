package models

import "time"

// Holiday is a company-wide non-working day.
type Holiday struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Date      string    `json:"date" gorm:"size:10;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Holiday) TableName() string {
	return "holidays"
}

// PaidHoliday is an individual paid-leave grant for one user.
type PaidHoliday struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Date      string    `json:"date" gorm:"size:10;not null"`
	Reason    string    `json:"reason" gorm:"size:255"`
	GrantedBy string    `json:"granted_by" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"-" gorm:"foreignKey:UserID"`
}

func (PaidHoliday) TableName() string {
	return "paid_holidays"
}
