package dto

import (
	"time"

	"github.com/noah-isme/feedesk-api/internal/models"
)

// Fee status labels used in the admin student overview.
const (
	FeesStatusPaid   = "paid"
	FeesStatusUnpaid = "unpaid"
)

// StudentOverview is one row of the admin student listing.
type StudentOverview struct {
	ID                 uint             `json:"id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	Phone              string           `json:"phone"`
	School             string           `json:"school"`
	Class              string           `json:"class"`
	MonthlyFee         int              `json:"monthly_fee"`
	Payments           []PaymentSummary `json:"payments"`
	PaidMonths         []string         `json:"paid_months"`
	LatestPaymentMonth *string          `json:"latest_payment_month"`
	FeesStatus         string           `json:"fees_status"`
	Revenue            int              `json:"revenue"`
}

// PaymentSummary is the compact payment shape embedded in the overview.
type PaymentSummary struct {
	ID     uint      `json:"id"`
	Amount int       `json:"amount"`
	Month  string    `json:"month"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// StudentResponse is a student profile with its payment history.
type StudentResponse struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	School     string            `json:"school"`
	Class      string            `json:"class"`
	MonthlyFee int               `json:"monthly_fee"`
	Payments   []PaymentResponse `json:"payments"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewStudentOverview builds the overview row from a student whose payments
// are loaded newest first.
func NewStudentOverview(student models.Student) StudentOverview {
	overview := StudentOverview{
		ID:         student.ID,
		Name:       student.Name,
		Email:      student.Email,
		Phone:      student.Phone,
		School:     student.School,
		Class:      student.Class,
		MonthlyFee: student.MonthlyFee,
		Payments:   make([]PaymentSummary, 0, len(student.Payments)),
		PaidMonths: make([]string, 0, len(student.Payments)),
		FeesStatus: FeesStatusUnpaid,
	}

	for _, payment := range student.Payments {
		if payment.Status != models.PaymentStatusPaid {
			continue
		}
		overview.Payments = append(overview.Payments, PaymentSummary{
			ID:     payment.ID,
			Amount: payment.Amount,
			Month:  payment.Month,
			Date:   payment.CreatedAt,
			Status: payment.Status,
		})
		overview.PaidMonths = append(overview.PaidMonths, payment.Month)
		overview.Revenue += payment.Amount
		if overview.LatestPaymentMonth == nil {
			month := payment.Month
			overview.LatestPaymentMonth = &month
			overview.FeesStatus = FeesStatusPaid
		}
	}

	return overview
}

// NewStudentResponse maps a student with preloaded payments.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:         student.ID,
		Name:       student.Name,
		Email:      student.Email,
		Phone:      student.Phone,
		School:     student.School,
		Class:      student.Class,
		MonthlyFee: student.MonthlyFee,
		Payments:   NewPaymentResponseSlice(student.Payments),
		CreatedAt:  student.CreatedAt,
	}
}
