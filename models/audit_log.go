package models

import "time"

// AuditLog is an append-only record of admin and system actions. Old rows
// are swept by the scheduled retention job.
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Actor     string    `json:"actor" gorm:"size:50;index"`
	Action    string    `json:"action" gorm:"size:50;not null;index"`
	Detail    string    `json:"detail" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
