package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/feedesk-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Admin{}, &models.Student{}, &models.Payment{}, &models.AppSettings{}))
	return db
}

func createStudent(t *testing.T, db *gorm.DB, student models.Student) models.Student {
	t.Helper()
	require.NoError(t, db.Create(&student).Error)
	return student
}

func createPaidPayments(t *testing.T, db *gorm.DB, studentID uint, academicYear int, months ...string) {
	t.Helper()
	for _, month := range months {
		payment := models.Payment{StudentID: studentID, Month: month, AcademicYear: academicYear, Amount: 600, Status: models.PaymentStatusPaid}
		require.NoError(t, db.Create(&payment).Error)
	}
}

func setMonthlyFee(t *testing.T, db *gorm.DB, fee int) {
	t.Helper()
	require.NoError(t, db.Create(&models.AppSettings{ID: models.AppSettingsID, MonthlyFee: fee}).Error)
}

func fixedClock(value time.Time) func() time.Time {
	return func() time.Time { return value }
}

type recordedReminder struct {
	StudentID    uint
	DueMonths    []string
	MonthlyFee   int
	AcademicYear int
}

type fakeNotifier struct {
	mu        sync.Mutex
	enabled   bool
	paid      []models.Payment
	reminders []recordedReminder
	failFor   map[uint]error
	release   chan struct{}
}

func (f *fakeNotifier) Enabled() bool {
	return f.enabled
}

func (f *fakeNotifier) NotifyFeePaid(_ context.Context, _ models.Student, payment models.Payment, _ string) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, payment)
	return nil
}

func (f *fakeNotifier) SendReminder(_ context.Context, student models.Student, dueMonths []string, monthlyFee int, academicYear int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[student.ID]; err != nil {
		return err
	}
	f.reminders = append(f.reminders, recordedReminder{
		StudentID:    student.ID,
		DueMonths:    dueMonths,
		MonthlyFee:   monthlyFee,
		AcademicYear: academicYear,
	})
	return nil
}
