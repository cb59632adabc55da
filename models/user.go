package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// User represents an enrolled employee and their face embedding bank.
// It corresponds to the 'users' table.
type User struct {
	ID         uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	EmployeeID string `json:"employee_id" gorm:"uniqueIndex;size:20"`
	Name       string `json:"name" gorm:"not null;size:100"`
	Department string `json:"department" gorm:"size:100"`

	// EmbeddingBank holds the identity's stored embedding samples as JSON.
	// Historic rows store a single vector, newer rows a list of vectors;
	// DecodeEmbeddingBank absorbs both shapes at the repository boundary so
	// nothing downstream branches on runtime shape.
	EmbeddingBank json.RawMessage `gorm:"type:longtext" json:"-"`

	// Representative is the optional fused vector maintained by the
	// auto-trainer, stored as a single JSON vector.
	Representative json.RawMessage `gorm:"type:longtext" json:"-"`

	// Threshold is the identity's adaptive acceptance threshold.
	Threshold float64 `json:"threshold" gorm:"default:0.38"`

	// IsActive is a soft-delete flag; inactive users are excluded from the
	// recognition index but their attendance history is preserved.
	IsActive bool `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (User) TableName() string {
	return "users"
}

// DecodeEmbeddingBank parses an embedding bank column into a list of
// vectors, accepting either a bare vector or a list of vectors.
func DecodeEmbeddingBank(raw json.RawMessage) ([][]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var bank [][]float64
	if err := json.Unmarshal(raw, &bank); err == nil {
		return bank, nil
	}

	var single []float64
	if err := json.Unmarshal(raw, &single); err == nil {
		if len(single) == 0 {
			return nil, nil
		}
		return [][]float64{single}, nil
	}

	return nil, fmt.Errorf("embedding bank is neither a vector nor a list of vectors")
}

// EncodeEmbeddingBank serializes a sample bank, always as a list of vectors.
func EncodeEmbeddingBank(bank [][]float64) (json.RawMessage, error) {
	if bank == nil {
		bank = [][]float64{}
	}
	data, err := json.Marshal(bank)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding bank: %w", err)
	}
	return data, nil
}

// DecodeVector parses a single JSON vector column such as Representative.
func DecodeVector(raw json.RawMessage) []float64 {
	if len(raw) == 0 {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil
	}
	return vec
}

// EncodeVector serializes a single vector, returning nil for an empty one.
func EncodeVector(vec []float64) json.RawMessage {
	if len(vec) == 0 {
		return nil
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return nil
	}
	return data
}
