package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/assistant"
	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
)

var (
	// ErrInvalidMonth indicates the month is not one of the cycle months.
	ErrInvalidMonth = errors.New("month must be a full month name such as March")
	// ErrMonthAlreadyPaid indicates the month is already paid this academic year.
	ErrMonthAlreadyPaid = errors.New("this month is already paid")
	// ErrFeeNotConfigured indicates the monthly fee was never set.
	ErrFeeNotConfigured = errors.New("monthly fee is not configured")
)

const revenueCacheKey = "payments:revenue"

// PaymentService records cash payments and reports on them.
type PaymentService interface {
	MarkPaid(ctx context.Context, req dto.MarkPaidRequest) (dto.PaymentResponse, error)
	MyPayments(ctx context.Context, studentID uint) ([]dto.PaymentResponse, error)
	ListAll(ctx context.Context) ([]dto.PaymentResponse, error)
	Revenue(ctx context.Context) (dto.RevenueResponse, error)
	// Ledger returns the payment ledger handed to the admin assistant. It
	// keeps the revenue cache consistent with assistant-created payments.
	Ledger() assistant.PaymentLedger
	// Wait blocks until background fee-paid notifications have finished.
	Wait()
}

// PaymentServiceConfig carries the optional collaborators of the payment service.
type PaymentServiceConfig struct {
	Cache     *redis.Client
	CacheTTL  time.Duration
	Notifier  assistant.Notifier
	Promotion PromotionService
}

type paymentService struct {
	payments  repository.PaymentRepository
	students  repository.StudentRepository
	settings  repository.SettingsRepository
	notifier  assistant.Notifier
	promotion PromotionService
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
	inflight  sync.WaitGroup
}

// NewPaymentService constructs the payment service.
func NewPaymentService(payments repository.PaymentRepository, students repository.StudentRepository, settings repository.SettingsRepository, validator *validator.Validate, cfg PaymentServiceConfig, logger zerolog.Logger) PaymentService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &paymentService{
		payments:  payments,
		students:  students,
		settings:  settings,
		notifier:  cfg.Notifier,
		promotion: cfg.Promotion,
		validator: validator,
		cache:     cfg.Cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "payment_service").Logger(),
		now:       time.Now,
	}
}

// MarkPaid records a cash payment for the current academic year at the
// configured monthly fee. In February a fully paid student is promoted.
func (s *paymentService) MarkPaid(ctx context.Context, req dto.MarkPaidRequest) (dto.PaymentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PaymentResponse{}, err
	}

	month, ok := academic.ParseMonth(req.Month)
	if !ok {
		return dto.PaymentResponse{}, ErrInvalidMonth
	}

	student, err := s.students.FindStudentByID(ctx, req.StudentID)
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	if student == nil {
		return dto.PaymentResponse{}, ErrStudentNotFound
	}

	now := s.now()
	academicYear := academic.Year(now)

	existing, err := s.payments.FindPaidPayment(ctx, student.ID, month, academicYear)
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	if existing != nil {
		return dto.PaymentResponse{}, ErrMonthAlreadyPaid
	}

	fee, configured, err := s.settings.GetMonthlyFee(ctx)
	if err != nil {
		return dto.PaymentResponse{}, err
	}
	if !configured {
		return dto.PaymentResponse{}, ErrFeeNotConfigured
	}

	payment, err := s.payments.CreatePaidPayment(ctx, student.ID, month, academicYear, fee, models.PaymentModeCash)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("create payment: %w", err)
	}
	s.invalidateRevenue(ctx)

	s.logger.Info().
		Uint("student_id", student.ID).
		Str("month", month).
		Int("academic_year", academicYear).
		Int("amount", fee).
		Msg("payment marked paid")

	if s.promotion != nil && academic.IsFebruary(now) {
		if _, err := s.promotion.PromoteIfEligible(ctx, student.ID, academicYear); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("auto promotion failed")
		}
	}

	s.notify(ctx, *student, payment)

	return dto.NewPaymentResponse(payment), nil
}

// MyPayments lists the student's payments for the current academic year.
func (s *paymentService) MyPayments(ctx context.Context, studentID uint) ([]dto.PaymentResponse, error) {
	payments, err := s.payments.ListByStudent(ctx, studentID, academic.Year(s.now()))
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponseSlice(payments), nil
}

func (s *paymentService) ListAll(ctx context.Context) ([]dto.PaymentResponse, error) {
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponseSlice(payments), nil
}

// Revenue returns the all-time paid total, served from Redis when cached.
func (s *paymentService) Revenue(ctx context.Context) (dto.RevenueResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, revenueCacheKey).Result(); err == nil {
			if total, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				s.logger.Debug().Msg("revenue cache hit")
				return dto.RevenueResponse{TotalRevenue: total}, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read revenue cache")
		}
	}

	total, err := s.payments.SumPaidAmount(ctx)
	if err != nil {
		return dto.RevenueResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, revenueCacheKey, strconv.FormatInt(total, 10), s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store revenue cache")
		}
	}

	return dto.RevenueResponse{TotalRevenue: total}, nil
}

func (s *paymentService) Ledger() assistant.PaymentLedger {
	return &cachedLedger{PaymentRepository: s.payments, service: s}
}

func (s *paymentService) invalidateRevenue(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, revenueCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate revenue cache")
	}
}

func (s *paymentService) notify(ctx context.Context, student models.Student, payment models.Payment) {
	if s.notifier == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.notifier.NotifyFeePaid(detached, student, payment, models.PaymentModeCash); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Str("month", payment.Month).Msg("fee paid notification failed")
		}
	}()
}

func (s *paymentService) Wait() {
	s.inflight.Wait()
}

// cachedLedger drops the cached revenue whenever a payment is created.
type cachedLedger struct {
	repository.PaymentRepository
	service *paymentService
}

func (l *cachedLedger) CreatePaidPayment(ctx context.Context, studentID uint, month string, academicYear int, amount int, mode string) (models.Payment, error) {
	payment, err := l.PaymentRepository.CreatePaidPayment(ctx, studentID, month, academicYear, amount, mode)
	if err != nil {
		return models.Payment{}, err
	}
	l.service.invalidateRevenue(ctx)
	return payment, nil
}
