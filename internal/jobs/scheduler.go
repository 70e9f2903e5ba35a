// Package jobs runs the recurring fee jobs: the daily WhatsApp reminder and
// the annual class promotion.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/academic"
	"github.com/noah-isme/feedesk-api/internal/config"
	"github.com/noah-isme/feedesk-api/internal/observability"
	"github.com/noah-isme/feedesk-api/internal/service"
)

// Scheduler owns the cron runner for both jobs.
type Scheduler struct {
	cron         *cron.Cron
	reminders    service.ReminderService
	promotion    service.PromotionService
	promotionLoc *time.Location
	logger       zerolog.Logger
	now          func() time.Time
	timeout      time.Duration
}

// NewScheduler registers the reminder and promotion jobs. Each job runs in
// its own configured timezone.
func NewScheduler(reminder, promotion config.ScheduleConfig, reminders service.ReminderService, promotions service.PromotionService, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:         cron.New(),
		reminders:    reminders,
		promotion:    promotions,
		promotionLoc: time.Local,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		now:          time.Now,
		timeout:      10 * time.Minute,
	}

	if reminders != nil {
		if _, err := s.add("reminder", reminder, s.RunReminders); err != nil {
			return nil, err
		}
	}
	if promotions != nil {
		loc, err := s.add("promotion", promotion, s.RunPromotion)
		if err != nil {
			return nil, err
		}
		s.promotionLoc = loc
	}

	return s, nil
}

// add registers run under the schedule and returns the location the
// schedule fires in.
func (s *Scheduler) add(name string, schedule config.ScheduleConfig, run func(context.Context)) (*time.Location, error) {
	spec := schedule.Cron
	loc := time.Local
	if schedule.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(schedule.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid %s timezone: %w", name, err)
		}
		spec = fmt.Sprintf("CRON_TZ=%s %s", schedule.Timezone, schedule.Cron)
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid %s schedule %q: %w", name, schedule.Cron, err)
	}

	s.logger.Info().Str("job", name).Str("schedule", spec).Msg("job scheduled")
	return loc, nil
}

// Start launches the cron runner in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the runner and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stopped before running jobs finished")
	}
}

// RunReminders sends the daily reminders. The reminder service records its
// own run metrics.
func (s *Scheduler) RunReminders(ctx context.Context) {
	if _, err := s.reminders.RunDaily(ctx); err != nil {
		s.logger.Error().Err(err).Msg("reminder job failed")
	}
}

// RunPromotion promotes every student who paid the whole academic year that
// just ended. The year is read on the job's own calendar, not the host's.
func (s *Scheduler) RunPromotion(ctx context.Context) {
	year := academic.Year(s.now().In(s.promotionLoc)) - 1

	promoted, err := s.promotion.PromoteAll(ctx, year)
	if err != nil {
		observability.JobRuns().WithLabelValues("promotion", "failed").Inc()
		s.logger.Error().Err(err).Int("academic_year", year).Msg("promotion job failed")
		return
	}

	observability.JobRuns().WithLabelValues("promotion", "succeeded").Inc()
	s.logger.Info().Int("academic_year", year).Int("promoted", promoted).Msg("promotion job finished")
}
