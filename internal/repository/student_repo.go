package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/feedesk-api/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	ListWithPayments(ctx context.Context) ([]models.Student, error)
	Delete(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Promote(ctx context.Context, id uint, class string, academicYear int) (bool, error)

	FindStudentByID(ctx context.Context, id uint) (*models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	ListStudentsWithPaidMonths(ctx context.Context, academicYear int) ([]models.Student, error)
	UpdateStudent(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error)
	BulkSetStudentFee(ctx context.Context, fee int) error
	CountStudents(ctx context.Context) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		First(&student, id).Error
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("id ASC").
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListWithPayments(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Student{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *studentRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password", hash)
}

// Promote moves the student to class unless a promotion for academicYear or
// later was already recorded. It reports whether a row changed.
func (r *studentRepository) Promote(ctx context.Context, id uint, class string, academicYear int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ? AND promoted_year < ?", id, academicYear).
		Updates(map[string]interface{}{"class": class, "promoted_year": academicYear})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *studentRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *studentRepository) FindStudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Payments", paidPayments(0)).
		First(&student, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &student, nil
}

func (r *studentRepository) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) ListStudentsWithPaidMonths(ctx context.Context, academicYear int) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Preload("Payments", paidPayments(academicYear)).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) UpdateStudent(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Student{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Student{}, gorm.ErrRecordNotFound
	}

	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) BulkSetStudentFee(ctx context.Context, fee int) error {
	return r.db.WithContext(ctx).
		Model(&models.Student{}).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Update("monthly_fee", fee).Error
}

func (r *studentRepository) CountStudents(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// paidPayments preloads paid payments oldest first, narrowed to academicYear
// unless it is zero.
func paidPayments(academicYear int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		query := db.Where("status = ?", models.PaymentStatusPaid)
		if academicYear != 0 {
			query = query.Where("academic_year = ?", academicYear)
		}
		return query.Order("created_at ASC, id ASC")
	}
}
