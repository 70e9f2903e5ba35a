package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
)

// PromotionService moves students who paid a full academic year up one class.
type PromotionService interface {
	PromoteIfEligible(ctx context.Context, studentID uint, academicYear int) (bool, error)
	PromoteAll(ctx context.Context, academicYear int) (int, error)
}

type promotionService struct {
	students repository.StudentRepository
	payments repository.PaymentRepository
	logger   zerolog.Logger
}

// NewPromotionService constructs the promotion service.
func NewPromotionService(students repository.StudentRepository, payments repository.PaymentRepository, logger zerolog.Logger) PromotionService {
	return &promotionService{
		students: students,
		payments: payments,
		logger:   logger.With().Str("component", "promotion_service").Logger(),
	}
}

// PromoteIfEligible promotes the student when every month of academicYear is
// paid and the class is numeric. A student is promoted at most once per
// academic year.
func (s *promotionService) PromoteIfEligible(ctx context.Context, studentID uint, academicYear int) (bool, error) {
	student, err := s.students.FindStudentByID(ctx, studentID)
	if err != nil {
		return false, err
	}
	if student == nil {
		return false, ErrStudentNotFound
	}

	paid, err := s.payments.PaidMonths(ctx, studentID, academicYear)
	if err != nil {
		return false, fmt.Errorf("load paid months: %w", err)
	}

	return s.promote(ctx, *student, paid, academicYear)
}

// PromoteAll promotes every eligible student for academicYear and returns how
// many were promoted. Per-student failures are logged and skipped.
func (s *promotionService) PromoteAll(ctx context.Context, academicYear int) (int, error) {
	students, err := s.students.ListStudentsWithPaidMonths(ctx, academicYear)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, student := range students {
		ok, err := s.promote(ctx, student, student.PaidMonths(), academicYear)
		if err != nil {
			s.logger.Error().Err(err).Uint("student_id", student.ID).Msg("promotion failed")
			continue
		}
		if ok {
			promoted++
		}
	}

	s.logger.Info().Int("academic_year", academicYear).Int("promoted", promoted).Msg("promotion run finished")
	return promoted, nil
}

func (s *promotionService) promote(ctx context.Context, student models.Student, paid []string, academicYear int) (bool, error) {
	if student.PromotedYear >= academicYear || !academic.FullYearPaid(paid) {
		return false, nil
	}

	current, err := strconv.Atoi(strings.TrimSpace(student.Class))
	if err != nil {
		s.logger.Debug().Uint("student_id", student.ID).Str("class", student.Class).Msg("class is not numeric, promotion skipped")
		return false, nil
	}

	next := strconv.Itoa(current + 1)
	ok, err := s.students.Promote(ctx, student.ID, next, academicYear)
	if err != nil {
		return false, fmt.Errorf("promote student: %w", err)
	}
	if ok {
		s.logger.Info().Uint("student_id", student.ID).Str("class", next).Int("academic_year", academicYear).Msg("student promoted")
	}
	return ok, nil
}
