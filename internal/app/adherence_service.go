package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"medtrack/internal/domain"
	"medtrack/internal/schedule"
)

// The three expected toggle rejections. These are user-facing states, not
// failures, and must stay distinguishable from each other.
var (
	// ErrNotActiveToday indicates the reminder's date range or pause toggle excludes today.
	ErrNotActiveToday = errors.New("reminder not active today")
	// ErrNotScheduledToday indicates the recurrence rule skips today.
	ErrNotScheduledToday = errors.New("reminder not scheduled today")
	// ErrNoElapsedSlot indicates every time slot is still in the future.
	ErrNoElapsedSlot = errors.New("no medication time has passed yet today")
	// ErrSnoozeMinutesRequired indicates a snooze action without a duration.
	ErrSnoozeMinutesRequired = errors.New("snooze minutes required for snoozed action")
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
	minSnoozeMinutes    = 5
	maxSnoozeMinutes    = 60
)

// AdherenceService records and queries taken/not-taken state against the
// virtual occurrences the evaluator derives.
type AdherenceService struct {
	reminders domain.ReminderRepository
	events    domain.AdherenceRepository
}

// NewAdherenceService creates an AdherenceService backed by the given repositories.
func NewAdherenceService(reminders domain.ReminderRepository, events domain.AdherenceRepository) *AdherenceService {
	return &AdherenceService{reminders: reminders, events: events}
}

// ToggleTaken flips the taken state of the most recently due occurrence of
// the reminder. The target slot is recomputed from now on every call: the
// greatest clock time that has already elapsed today. The append-only log
// makes the call a strict alternator (taken, then not_taken, then taken)
// for as long as the selected instant stays the same.
func (s *AdherenceService) ToggleTaken(ctx context.Context, reminderID, userID int64, now time.Time) (*domain.AdherenceEvent, error) {
	r, err := s.getOwned(ctx, reminderID, userID)
	if err != nil {
		return nil, err
	}

	today := domain.DateOf(now)
	if !r.DateActive(today) {
		return nil, ErrNotActiveToday
	}
	if !schedule.IsDueOn(r, today) {
		return nil, ErrNotScheduledToday
	}
	slot, ok := schedule.LatestElapsedSlot(r, now)
	if !ok {
		return nil, ErrNoElapsedSlot
	}

	// The latest-event read and the append are one atomic repository
	// operation; doing the read here would let two concurrent toggles
	// both observe the same state and both append taken.
	return s.events.AppendToggle(ctx, reminderID, userID, schedule.InstantFor(today, slot), now)
}

// LogAction appends an explicit taken/snoozed/skipped event against the most
// recently due occurrence, with the same slot selection as ToggleTaken.
func (s *AdherenceService) LogAction(ctx context.Context, reminderID, userID int64, action domain.ActionType, snoozeMinutes *int, now time.Time) (*domain.AdherenceEvent, error) {
	if !action.Valid() || action == domain.ActionNotTaken {
		return nil, &domain.ValidationError{Field: "actionType", Reason: "must be taken, snoozed, or skipped"}
	}
	if action == domain.ActionSnoozed {
		if snoozeMinutes == nil {
			return nil, ErrSnoozeMinutesRequired
		}
		if *snoozeMinutes < minSnoozeMinutes || *snoozeMinutes > maxSnoozeMinutes {
			return nil, &domain.ValidationError{Field: "snoozeMinutes", Reason: fmt.Sprintf("must be between %d and %d", minSnoozeMinutes, maxSnoozeMinutes)}
		}
	} else {
		snoozeMinutes = nil
	}

	r, err := s.getOwned(ctx, reminderID, userID)
	if err != nil {
		return nil, err
	}

	today := domain.DateOf(now)
	if !r.DateActive(today) {
		return nil, ErrNotActiveToday
	}
	if !schedule.IsDueOn(r, today) {
		return nil, ErrNotScheduledToday
	}
	slot, ok := schedule.LatestElapsedSlot(r, now)
	if !ok {
		return nil, ErrNoElapsedSlot
	}

	t := now
	return s.events.Append(ctx, &domain.AdherenceEvent{
		ReminderID:    reminderID,
		UserID:        userID,
		ScheduledTime: schedule.InstantFor(today, slot),
		ActionTime:    &t,
		ActionType:    action,
		SnoozeMinutes: snoozeMinutes,
	})
}

// History returns the reminder's full append-only log, newest scheduled
// instant first. No status collapsing is applied.
func (s *AdherenceService) History(ctx context.Context, reminderID, userID int64, limit int) ([]domain.AdherenceEvent, error) {
	if _, err := s.getOwned(ctx, reminderID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	events, err := s.events.ListByReminder(ctx, reminderID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.AdherenceEvent{}
	}
	return events, nil
}

// MonthlyStats summarizes one month of adherence events for a user.
type MonthlyStats struct {
	Month         string  `json:"month"` // YYYY-MM
	TotalLogged   int     `json:"totalLogged"`
	TotalTaken    int     `json:"totalTaken"`
	TotalSnoozed  int     `json:"totalSnoozed"`
	TotalSkipped  int     `json:"totalSkipped"`
	AdherenceRate float64 `json:"adherenceRate"` // percent, 0-100
}

// Stats computes the monthly adherence rate from the event log.
func (s *AdherenceService) Stats(ctx context.Context, userID int64, year int, month time.Month, loc *time.Location) (*MonthlyStats, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)
	events, err := s.events.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	st := &MonthlyStats{Month: fmt.Sprintf("%04d-%02d", year, month)}
	for _, e := range events {
		st.TotalLogged++
		switch e.ActionType {
		case domain.ActionTaken:
			st.TotalTaken++
		case domain.ActionSnoozed:
			st.TotalSnoozed++
		case domain.ActionSkipped:
			st.TotalSkipped++
		}
	}
	if st.TotalLogged > 0 {
		st.AdherenceRate = math.Round(float64(st.TotalTaken)/float64(st.TotalLogged)*10000) / 100
	}
	return st, nil
}

// DayBreakdown is one day's action counts for chart rendering.
type DayBreakdown struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Taken   int    `json:"taken"`
	Snoozed int    `json:"snoozed"`
	Skipped int    `json:"skipped"`
}

// DailyBreakdown returns one entry per day of the month, including days
// without events.
func (s *AdherenceService) DailyBreakdown(ctx context.Context, userID int64, year int, month time.Month, loc *time.Location) ([]DayBreakdown, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)
	events, err := s.events.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	daysInMonth := to.AddDate(0, 0, -1).Day()
	out := make([]DayBreakdown, daysInMonth)
	for i := range out {
		out[i].Date = fmt.Sprintf("%04d-%02d-%02d", year, month, i+1)
	}
	for _, e := range events {
		d := e.ScheduledTime.In(loc).Day() - 1
		if d < 0 || d >= daysInMonth {
			continue
		}
		switch e.ActionType {
		case domain.ActionTaken:
			out[d].Taken++
		case domain.ActionSnoozed:
			out[d].Snoozed++
		case domain.ActionSkipped:
			out[d].Skipped++
		}
	}
	return out, nil
}

func (s *AdherenceService) getOwned(ctx context.Context, reminderID, userID int64) (*domain.Reminder, error) {
	r, err := s.reminders.GetByID(ctx, reminderID, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReminderNotFound
	}
	return r, nil
}
