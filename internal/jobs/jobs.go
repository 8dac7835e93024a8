// Package jobs runs the cron-driven background sweeps: the per-minute
// due-reminder check and periodic session cleanup.
package jobs

import (
	"context"
	"time"

	"medtrack/internal/domain"
	"medtrack/internal/schedule"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Notifier receives due occurrences found by the sweep. Delivery mechanics
// live behind this port and are not part of this system.
type Notifier interface {
	NotifyDose(ctx context.Context, r domain.Reminder, slot domain.TimeSlot, at time.Time) error
}

// LogNotifier logs due occurrences instead of delivering them.
type LogNotifier struct {
	Log *zap.SugaredLogger
}

// NotifyDose logs the occurrence.
func (n *LogNotifier) NotifyDose(ctx context.Context, r domain.Reminder, slot domain.TimeSlot, at time.Time) error {
	n.Log.Infow("dose due",
		"reminder_id", r.ID,
		"user_id", r.UserID,
		"medicine", r.MedicineName,
		"time", slot.ClockTime,
		"at", at,
	)
	return nil
}

// Runner owns the cron scheduler.
type Runner struct {
	cron      *cron.Cron
	reminders domain.ReminderRepository
	sessions  domain.SessionRepository
	notifier  Notifier
	log       *zap.SugaredLogger
}

// New creates a Runner over the given repositories.
func New(reminders domain.ReminderRepository, sessions domain.SessionRepository, notifier Notifier, log *zap.SugaredLogger) *Runner {
	return &Runner{
		cron:      cron.New(),
		reminders: reminders,
		sessions:  sessions,
		notifier:  notifier,
		log:       log,
	}
}

// Start schedules the sweeps. sweepSpec is a cron expression, normally
// "* * * * *" so a dose firing at HH:MM is seen within its minute.
func (r *Runner) Start(sweepSpec string) error {
	if _, err := r.cron.AddFunc(sweepSpec, func() { r.SweepDue(time.Now()) }); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc("@hourly", r.cleanupSessions); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

// SweepDue finds every occurrence scheduled for now's minute on a
// notification-enabled reminder and hands it to the notifier.
func (r *Runner) SweepDue(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reminders, err := r.reminders.ListActive(ctx)
	if err != nil {
		r.log.Errorw("sweep: list reminders", "error", err)
		return
	}

	minute := now.Hour()*60 + now.Minute()
	for i := range reminders {
		rem := &reminders[i]
		if !rem.NotificationsEnabled {
			continue
		}
		if !schedule.IsDueOn(rem, now) {
			continue
		}
		for _, slot := range rem.TimeSlots {
			if slot.Minute() != minute {
				continue
			}
			if err := r.notifier.NotifyDose(ctx, *rem, slot, now); err != nil {
				r.log.Errorw("sweep: notify", "reminder_id", rem.ID, "error", err)
			}
		}
	}
}

func (r *Runner) cleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.sessions.DeleteExpired(ctx); err != nil {
		r.log.Errorw("session cleanup", "error", err)
	}
}
