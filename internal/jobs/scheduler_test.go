package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedesk-api/internal/config"
	"github.com/noah-isme/feedesk-api/internal/service"
)

type fakeReminders struct {
	runs int
	err  error
}

func (f *fakeReminders) RunDaily(context.Context) (service.ReminderReport, error) {
	f.runs++
	return service.ReminderReport{Sent: 1}, f.err
}

type fakePromotion struct {
	years []int
	err   error
}

func (f *fakePromotion) PromoteIfEligible(context.Context, uint, int) (bool, error) {
	return false, nil
}

func (f *fakePromotion) PromoteAll(_ context.Context, academicYear int) (int, error) {
	f.years = append(f.years, academicYear)
	return 2, f.err
}

var (
	dailyReminder   = config.ScheduleConfig{Cron: "0 9 * * *", Timezone: "Asia/Kolkata"}
	annualPromotion = config.ScheduleConfig{Cron: "0 0 1 3 *", Timezone: "Asia/Kolkata"}
)

func TestNewSchedulerRegistersJobs(t *testing.T) {
	scheduler, err := NewScheduler(dailyReminder, annualPromotion, &fakeReminders{}, &fakePromotion{}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, scheduler.cron.Entries(), 2)

	scheduler, err = NewScheduler(dailyReminder, annualPromotion, &fakeReminders{}, nil, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, scheduler.cron.Entries(), 1)
}

func TestNewSchedulerRejectsBadSchedules(t *testing.T) {
	_, err := NewScheduler(config.ScheduleConfig{Cron: "every day"}, annualPromotion, &fakeReminders{}, &fakePromotion{}, zerolog.Nop())
	require.Error(t, err)

	_, err = NewScheduler(config.ScheduleConfig{Cron: "0 9 * * *", Timezone: "Mars/Olympus"}, annualPromotion, &fakeReminders{}, &fakePromotion{}, zerolog.Nop())
	require.Error(t, err)
}

func TestRunPromotionTargetsFinishedYear(t *testing.T) {
	promotion := &fakePromotion{}
	scheduler, err := NewScheduler(dailyReminder, annualPromotion, &fakeReminders{}, promotion, zerolog.Nop())
	require.NoError(t, err)

	scheduler.now = func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) }
	scheduler.RunPromotion(context.Background())

	promotion.err = errors.New("db down")
	scheduler.now = func() time.Time { return time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC) }
	scheduler.RunPromotion(context.Background())

	require.Equal(t, []int{2024, 2024}, promotion.years)
}

func TestRunPromotionUsesScheduleTimezone(t *testing.T) {
	promotion := &fakePromotion{}
	scheduler, err := NewScheduler(dailyReminder, annualPromotion, &fakeReminders{}, promotion, zerolog.Nop())
	require.NoError(t, err)

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 00:00 IST on 1 March is still 28 February on a UTC host clock.
	fired := time.Date(2025, time.March, 1, 0, 0, 0, 0, kolkata).UTC()
	require.Equal(t, time.February, fired.Month())
	scheduler.now = func() time.Time { return fired }
	scheduler.RunPromotion(context.Background())

	require.Equal(t, []int{2024}, promotion.years)
}

func TestRunRemindersSwallowsErrors(t *testing.T) {
	reminders := &fakeReminders{err: errors.New("settings unavailable")}
	scheduler, err := NewScheduler(dailyReminder, annualPromotion, reminders, &fakePromotion{}, zerolog.Nop())
	require.NoError(t, err)

	scheduler.RunReminders(context.Background())
	require.Equal(t, 1, reminders.runs)
}

func TestStartAndStop(t *testing.T) {
	scheduler, err := NewScheduler(dailyReminder, annualPromotion, &fakeReminders{}, &fakePromotion{}, zerolog.Nop())
	require.NoError(t, err)

	scheduler.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scheduler.Stop(ctx)
}
