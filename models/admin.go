package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin is a dashboard operator account. Terminal recognition itself is
// unauthenticated; admins manage users, holidays, shifts and approvals.
type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null;size:50"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsHR         bool      `json:"is_hr" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Admin) TableName() string {
	return "admins"
}

// SetPassword hashes the given password and sets it on the admin model.
func (a *Admin) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashed)
	return nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (a *Admin) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
