package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
	"github.com/noah-isme/feedesk-api/internal/session"
)

// ErrStudentNotFound indicates the student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// StudentService exposes the student roster.
type StudentService interface {
	List(ctx context.Context) ([]dto.StudentOverview, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type studentService struct {
	students repository.StudentRepository
	sessions session.Store
	logger   zerolog.Logger
}

// NewStudentService constructs the student service. sessions may be nil.
func NewStudentService(students repository.StudentRepository, sessions session.Store, logger zerolog.Logger) StudentService {
	return &studentService{
		students: students,
		sessions: sessions,
		logger:   logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentOverview, error) {
	students, err := s.students.ListWithPayments(ctx)
	if err != nil {
		return nil, err
	}

	overview := make([]dto.StudentOverview, 0, len(students))
	for _, student := range students {
		overview = append(overview, dto.NewStudentOverview(student))
	}
	return overview, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

// Delete removes the student together with its payments and signs the
// student out everywhere.
func (s *studentService) Delete(ctx context.Context, id uint) error {
	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.Clear(ctx, models.RoleStudent, id); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", id).Msg("failed to clear student sessions")
		}
	}

	s.logger.Info().Uint("student_id", id).Msg("student deleted")
	return nil
}
