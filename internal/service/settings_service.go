package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/repository"
)

// SettingsService manages the institute-wide monthly fee.
type SettingsService interface {
	GetMonthlyFee(ctx context.Context) (dto.MonthlyFeeResponse, error)
	SetMonthlyFee(ctx context.Context, req dto.MonthlyFeeRequest) (dto.MonthlyFeeResponse, error)
	EnsureDefaults(ctx context.Context, fee int) error
}

type settingsService struct {
	settings  repository.SettingsRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(settings repository.SettingsRepository, students repository.StudentRepository, validator *validator.Validate, logger zerolog.Logger) SettingsService {
	return &settingsService{
		settings:  settings,
		students:  students,
		validator: validator,
		logger:    logger.With().Str("component", "settings_service").Logger(),
	}
}

func (s *settingsService) GetMonthlyFee(ctx context.Context) (dto.MonthlyFeeResponse, error) {
	fee, ok, err := s.settings.GetMonthlyFee(ctx)
	if err != nil {
		return dto.MonthlyFeeResponse{}, err
	}
	if !ok {
		return dto.MonthlyFeeResponse{}, ErrFeeNotConfigured
	}
	return dto.MonthlyFeeResponse{MonthlyFee: fee}, nil
}

// SetMonthlyFee stores the fee and copies it onto every student.
func (s *settingsService) SetMonthlyFee(ctx context.Context, req dto.MonthlyFeeRequest) (dto.MonthlyFeeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MonthlyFeeResponse{}, err
	}

	if err := s.settings.SetMonthlyFee(ctx, req.Fee); err != nil {
		return dto.MonthlyFeeResponse{}, fmt.Errorf("store monthly fee: %w", err)
	}
	if err := s.students.BulkSetStudentFee(ctx, req.Fee); err != nil {
		return dto.MonthlyFeeResponse{}, fmt.Errorf("apply monthly fee to students: %w", err)
	}

	s.logger.Info().Int("monthly_fee", req.Fee).Msg("monthly fee updated")
	return dto.MonthlyFeeResponse{MonthlyFee: req.Fee}, nil
}

// EnsureDefaults seeds the settings row when it does not exist yet.
func (s *settingsService) EnsureDefaults(ctx context.Context, fee int) error {
	created, err := s.settings.EnsureDefaults(ctx, fee)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if created {
		s.logger.Info().Int("monthly_fee", fee).Msg("default monthly fee seeded")
	}
	return nil
}
