package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
)

type paymentFixture struct {
	db       *gorm.DB
	svc      PaymentService
	notifier *fakeNotifier
	cache    *redis.Client
}

func newPaymentFixture(t *testing.T, now time.Time) paymentFixture {
	t.Helper()
	mini := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := newTestDB(t)
	students := repository.NewStudentRepository(db)
	payments := repository.NewPaymentRepository(db)
	notifier := &fakeNotifier{enabled: true}

	svc := NewPaymentService(payments, students, repository.NewSettingsRepository(db), validator.New(), PaymentServiceConfig{
		Cache:     cache,
		CacheTTL:  time.Minute,
		Notifier:  notifier,
		Promotion: NewPromotionService(students, payments, zerolog.Nop()),
	}, zerolog.Nop())

	impl := svc.(*paymentService)
	impl.now = fixedClock(now)
	t.Cleanup(svc.Wait)

	return paymentFixture{db: db, svc: svc, notifier: notifier, cache: cache}
}

func TestPaymentServiceMarkPaid(t *testing.T) {
	fx := newPaymentFixture(t, time.Date(2024, time.November, 5, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	setMonthlyFee(t, fx.db, 700)
	student := createStudent(t, fx.db, models.Student{Name: "Asha", Class: "7", Phone: "9876543210", MonthlyFee: 600})

	response, err := fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID, Month: "november"})
	require.NoError(t, err)
	require.Equal(t, "November", response.Month)
	require.Equal(t, 2024, response.AcademicYear)
	require.Equal(t, "2024-2025", response.Session)
	require.Equal(t, 700, response.Amount)
	require.Equal(t, models.PaymentModeCash, response.Mode)
	require.Equal(t, models.PaymentStatusPaid, response.Status)

	fx.svc.Wait()
	require.Len(t, fx.notifier.paid, 1)
	require.Equal(t, "November", fx.notifier.paid[0].Month)

	_, err = fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID, Month: "November"})
	require.ErrorIs(t, err, ErrMonthAlreadyPaid)
}

func TestPaymentServiceMarkPaidValidation(t *testing.T) {
	fx := newPaymentFixture(t, time.Date(2024, time.November, 5, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	student := createStudent(t, fx.db, models.Student{Name: "Asha", Class: "7"})

	_, err := fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	_, err = fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID, Month: "Nov"})
	require.ErrorIs(t, err, ErrInvalidMonth)

	_, err = fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: 999, Month: "March"})
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID, Month: "March"})
	require.ErrorIs(t, err, ErrFeeNotConfigured)
	require.Empty(t, fx.notifier.paid)
}

func TestPaymentServiceMarkPaidPromotesInFebruary(t *testing.T) {
	fx := newPaymentFixture(t, time.Date(2025, time.February, 10, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	setMonthlyFee(t, fx.db, 600)
	student := createStudent(t, fx.db, models.Student{Name: "Asha", Class: "7"})
	createPaidPayments(t, fx.db, student.ID, 2024,
		"March", "April", "May", "June", "July", "August",
		"September", "October", "November", "December", "January")

	_, err := fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID, Month: "February"})
	require.NoError(t, err)

	var reloaded models.Student
	require.NoError(t, fx.db.First(&reloaded, student.ID).Error)
	require.Equal(t, "8", reloaded.Class)
	require.Equal(t, 2024, reloaded.PromotedYear)
}

func TestPaymentServiceWaitDrainsNotifications(t *testing.T) {
	fx := newPaymentFixture(t, time.Date(2024, time.November, 5, 10, 0, 0, 0, time.UTC))
	setMonthlyFee(t, fx.db, 600)
	student := createStudent(t, fx.db, models.Student{Name: "Asha", Class: "7", Phone: "9876543210"})
	fx.notifier.release = make(chan struct{})

	_, err := fx.svc.MarkPaid(context.Background(), dto.MarkPaidRequest{StudentID: student.ID, Month: "April"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		fx.svc.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("wait returned while a notification was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}

	close(fx.notifier.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the notification finished")
	}

	fx.notifier.mu.Lock()
	defer fx.notifier.mu.Unlock()
	require.Len(t, fx.notifier.paid, 1)
}

func TestPaymentServiceMyPaymentsScopesAcademicYear(t *testing.T) {
	fx := newPaymentFixture(t, time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC))
	student := createStudent(t, fx.db, models.Student{Name: "Asha", Class: "7"})
	createPaidPayments(t, fx.db, student.ID, 2024, "March", "April")
	createPaidPayments(t, fx.db, student.ID, 2023, "March")

	payments, err := fx.svc.MyPayments(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	for _, payment := range payments {
		require.Equal(t, 2024, payment.AcademicYear)
	}

	all, err := fx.svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.NotNil(t, all[0].Student)
	require.Equal(t, "Asha", all[0].StudentName)
}

func TestPaymentServiceRevenueCacheIsInvalidated(t *testing.T) {
	fx := newPaymentFixture(t, time.Date(2024, time.November, 5, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	setMonthlyFee(t, fx.db, 600)
	student := createStudent(t, fx.db, models.Student{Name: "Asha", Class: "7"})
	createPaidPayments(t, fx.db, student.ID, 2024, "March")

	revenue, err := fx.svc.Revenue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(600), revenue.TotalRevenue)

	cached, err := fx.cache.Get(ctx, revenueCacheKey).Result()
	require.NoError(t, err)
	require.Equal(t, "600", cached)

	_, err = fx.svc.MarkPaid(ctx, dto.MarkPaidRequest{StudentID: student.ID, Month: "April"})
	require.NoError(t, err)

	revenue, err = fx.svc.Revenue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1200), revenue.TotalRevenue)

	_, err = fx.svc.Ledger().CreatePaidPayment(ctx, student.ID, "May", 2024, 600, models.PaymentModeCash)
	require.NoError(t, err)
	require.Equal(t, int64(0), fx.cache.Exists(ctx, revenueCacheKey).Val())

	revenue, err = fx.svc.Revenue(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1800), revenue.TotalRevenue)
}
