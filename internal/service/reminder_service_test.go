package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
)

func TestReminderServiceSkipsWhenDisabled(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewReminderService(repository.NewStudentRepository(db), repository.NewSettingsRepository(db), notifier, zerolog.Nop())

	report, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	require.True(t, report.Skipped)
	require.Empty(t, notifier.reminders)
}

func TestReminderServiceRemindsStudentsWithDueMonths(t *testing.T) {
	db := newTestDB(t)
	setMonthlyFee(t, db, 600)

	upToDate := createStudent(t, db, models.Student{Name: "Asha", Phone: "9000000001"})
	behind := createStudent(t, db, models.Student{Name: "Rahul", Phone: "9000000002"})
	failing := createStudent(t, db, models.Student{Name: "Meera", Phone: "9000000003"})

	createPaidPayments(t, db, upToDate.ID, 2024, "March", "April", "May")
	createPaidPayments(t, db, behind.ID, 2024, "March")
	createPaidPayments(t, db, behind.ID, 2023, "April")

	notifier := &fakeNotifier{enabled: true, failFor: map[uint]error{failing.ID: errors.New("provider down")}}
	svc := NewReminderService(repository.NewStudentRepository(db), repository.NewSettingsRepository(db), notifier, zerolog.Nop())
	svc.(*reminderService).now = fixedClock(time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC))

	report, err := svc.RunDaily(context.Background())
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, 2024, report.AcademicYear)
	require.Equal(t, 2, report.Students)
	require.Equal(t, 1, report.Sent)
	require.Equal(t, 1, report.Failed)

	require.Len(t, notifier.reminders, 1)
	require.Equal(t, behind.ID, notifier.reminders[0].StudentID)
	require.Equal(t, []string{"April", "May"}, notifier.reminders[0].DueMonths)
	require.Equal(t, 600, notifier.reminders[0].MonthlyFee)
}
