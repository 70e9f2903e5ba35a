package models

import (
	"strings"
	"time"
)

// Student represents an enrolled learner billed on a monthly fee.
// PromotedYear is the last academic year the student was promoted out of.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;index" json:"email"`
	Phone        string    `gorm:"size:32" json:"phone"`
	Password     string    `gorm:"size:255" json:"-"`
	School       string    `gorm:"size:255" json:"school"`
	Class        string    `gorm:"size:32" json:"class"`
	MonthlyFee   int       `gorm:"not null;default:0" json:"monthly_fee"`
	PromotedYear int       `gorm:"not null;default:0" json:"-"`
	Payments     []Payment `gorm:"constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PaidMonths lists the months of the loaded payments that are marked paid,
// in load order and without duplicates.
func (s Student) PaidMonths() []string {
	seen := make(map[string]struct{}, len(s.Payments))
	months := make([]string, 0, len(s.Payments))
	for _, payment := range s.Payments {
		if payment.Status != PaymentStatusPaid || strings.TrimSpace(payment.Month) == "" {
			continue
		}
		if _, ok := seen[payment.Month]; ok {
			continue
		}
		seen[payment.Month] = struct{}{}
		months = append(months, payment.Month)
	}
	return months
}

// HasPaid reports whether a paid payment for month is loaded on the student.
func (s Student) HasPaid(month string) bool {
	for _, payment := range s.Payments {
		if payment.Status == PaymentStatusPaid && payment.Month == month {
			return true
		}
	}
	return false
}
