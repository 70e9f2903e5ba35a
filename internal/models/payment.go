package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment statuses.
const (
	PaymentStatusCreated = "created"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment modes recorded in payment metadata.
const (
	PaymentModeCash   = "cash"
	PaymentModeOnline = "online"
)

// Payment records a monthly fee for a student in a given academic year.
type Payment struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	StudentID    uint              `gorm:"index:idx_payment_period;not null" json:"student_id"`
	Month        string            `gorm:"size:16;index:idx_payment_period;not null" json:"month"`
	AcademicYear int               `gorm:"index:idx_payment_period;not null" json:"academic_year"`
	Amount       int               `gorm:"not null" json:"amount"`
	Status       string            `gorm:"size:16;index;not null;default:created" json:"status"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	Student      *Student          `json:"student,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Mode returns the payment mode stored in metadata, defaulting to online.
func (p Payment) Mode() string {
	if p.Metadata != nil {
		if mode, ok := p.Metadata["mode"].(string); ok && mode != "" {
			return mode
		}
	}
	return PaymentModeOnline
}
