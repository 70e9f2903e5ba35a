package dto

import (
	"time"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
)

// MarkPaidRequest records a cash payment for one student and month.
type MarkPaidRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Month     string `json:"month" validate:"required"`
}

// PaymentResponse is the API shape of a payment.
type PaymentResponse struct {
	ID           uint              `json:"id"`
	StudentID    uint              `json:"student_id"`
	StudentName  string            `json:"student_name,omitempty"`
	Month        string            `json:"month"`
	AcademicYear int               `json:"academic_year"`
	Session      string            `json:"session"`
	Amount       int               `json:"amount"`
	Status       string            `json:"status"`
	Mode         string            `json:"mode"`
	CreatedAt    time.Time         `json:"created_at"`
	Student      *StudentReference `json:"student,omitempty"`
}

// StudentReference identifies the payer in the all-payments listing.
type StudentReference struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`
	Phone string `json:"phone"`
}

// RevenueResponse carries the all-time paid total.
type RevenueResponse struct {
	TotalRevenue int64 `json:"total_revenue"`
}

// NewPaymentResponse maps a payment model.
func NewPaymentResponse(payment models.Payment) PaymentResponse {
	response := PaymentResponse{
		ID:           payment.ID,
		StudentID:    payment.StudentID,
		Month:        payment.Month,
		AcademicYear: payment.AcademicYear,
		Amount:       payment.Amount,
		Status:       payment.Status,
		Mode:         payment.Mode(),
		CreatedAt:    payment.CreatedAt,
	}
	if payment.AcademicYear != 0 {
		response.Session = academic.SessionLabel(payment.AcademicYear)
	}
	if payment.Student != nil {
		response.StudentName = payment.Student.Name
		response.Student = &StudentReference{
			ID:    payment.Student.ID,
			Name:  payment.Student.Name,
			Class: payment.Student.Class,
			Phone: payment.Student.Phone,
		}
	}
	return response
}

// NewPaymentResponseSlice maps a list of payments.
func NewPaymentResponseSlice(payments []models.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		responses = append(responses, NewPaymentResponse(payment))
	}
	return responses
}
