package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/feedesk-api/internal/models"
)

// PaymentRepository persists and aggregates fee payments.
type PaymentRepository interface {
	FindPaidPayment(ctx context.Context, studentID uint, month string, academicYear int) (*models.Payment, error)
	CreatePaidPayment(ctx context.Context, studentID uint, month string, academicYear int, amount int, mode string) (models.Payment, error)
	CountPaidPayments(ctx context.Context) (int64, error)
	SumPaidAmount(ctx context.Context) (int64, error)
	ListByStudent(ctx context.Context, studentID uint, academicYear int) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
	PaidMonths(ctx context.Context, studentID uint, academicYear int) ([]string, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository constructs a payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindPaidPayment(ctx context.Context, studentID uint, month string, academicYear int) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND month = ? AND academic_year = ? AND status = ?", studentID, month, academicYear, models.PaymentStatusPaid).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) CreatePaidPayment(ctx context.Context, studentID uint, month string, academicYear int, amount int, mode string) (models.Payment, error) {
	payment := models.Payment{
		StudentID:    studentID,
		Month:        month,
		AcademicYear: academicYear,
		Amount:       amount,
		Status:       models.PaymentStatusPaid,
		Metadata:     datatypes.JSONMap{"mode": mode},
	}
	if err := r.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return models.Payment{}, err
	}

	return payment, nil
}

func (r *paymentRepository) CountPaidPayments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPaid).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *paymentRepository) SumPaidAmount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *paymentRepository) ListByStudent(ctx context.Context, studentID uint, academicYear int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND academic_year = ?", studentID, academicYear).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ListAll(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) PaidMonths(ctx context.Context, studentID uint, academicYear int) ([]string, error) {
	var months []string
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("student_id = ? AND academic_year = ? AND status = ?", studentID, academicYear, models.PaymentStatusPaid).
		Distinct().
		Pluck("month", &months).Error
	if err != nil {
		return nil, err
	}

	return months, nil
}
