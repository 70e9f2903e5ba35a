package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/observability"
	"github.com/noah-isme/feedesk-api/internal/repository"
)

// ReminderSender delivers fee reminders.
type ReminderSender interface {
	Enabled() bool
	SendReminder(ctx context.Context, student models.Student, dueMonths []string, monthlyFee int, academicYear int) error
}

// ReminderReport summarises one reminder run.
type ReminderReport struct {
	Skipped      bool `json:"skipped"`
	AcademicYear int  `json:"academic_year"`
	Students     int  `json:"students"`
	Sent         int  `json:"sent"`
	Failed       int  `json:"failed"`
}

// ReminderService sends the daily fee reminders.
type ReminderService interface {
	RunDaily(ctx context.Context) (ReminderReport, error)
}

type reminderService struct {
	students repository.StudentRepository
	settings repository.SettingsRepository
	sender   ReminderSender
	tracer   trace.Tracer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewReminderService constructs the reminder service.
func NewReminderService(students repository.StudentRepository, settings repository.SettingsRepository, sender ReminderSender, logger zerolog.Logger) ReminderService {
	return &reminderService{
		students: students,
		settings: settings,
		sender:   sender,
		tracer:   otel.Tracer("github.com/noah-isme/feedesk-api/internal/service/reminder"),
		logger:   logger.With().Str("component", "reminder_service").Logger(),
		now:      time.Now,
	}
}

// RunDaily reminds every student with months due up to the current month.
// Per-student failures are logged and counted, never returned.
func (s *reminderService) RunDaily(ctx context.Context) (ReminderReport, error) {
	if s.sender == nil || !s.sender.Enabled() {
		s.logger.Info().Msg("whatsapp not configured, reminder run skipped")
		observability.JobRuns().WithLabelValues("reminder", "skipped").Inc()
		return ReminderReport{Skipped: true}, nil
	}

	now := s.now()
	academicYear := academic.Year(now)

	ctx, span := s.tracer.Start(ctx, "jobs.reminder", trace.WithAttributes(attribute.Int("academic_year", academicYear)))
	defer span.End()

	report, err := s.run(ctx, now, academicYear)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.JobRuns().WithLabelValues("reminder", "failed").Inc()
		s.logger.Error().Err(err).Msg("reminder run failed")
		return report, err
	}

	span.SetAttributes(attribute.Int("reminder.sent", report.Sent), attribute.Int("reminder.failed", report.Failed))
	observability.JobRuns().WithLabelValues("reminder", "succeeded").Inc()
	s.logger.Info().
		Int("academic_year", academicYear).
		Int("students", report.Students).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("reminder run finished")
	return report, nil
}

func (s *reminderService) run(ctx context.Context, now time.Time, academicYear int) (ReminderReport, error) {
	report := ReminderReport{AcademicYear: academicYear}

	fee, _, err := s.settings.GetMonthlyFee(ctx)
	if err != nil {
		return report, err
	}

	students, err := s.students.ListStudentsWithPaidMonths(ctx, academicYear)
	if err != nil {
		return report, err
	}

	for _, student := range students {
		due := academic.DueMonths(now, student.PaidMonths())
		if len(due) == 0 {
			continue
		}
		report.Students++

		if err := s.sender.SendReminder(ctx, student, due, fee, academicYear); err != nil {
			report.Failed++
			if !errors.Is(err, ErrNoPhone) {
				s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("reminder failed")
			}
			continue
		}
		report.Sent++
	}

	return report, nil
}
