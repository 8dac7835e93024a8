package app

import (
	"context"
	"time"

	"medtrack/internal/domain"
	"medtrack/internal/schedule"
)

// CalendarService assembles evaluator output and adherence state into the
// two read views: the weekly summary and the daily detail.
type CalendarService struct {
	reminders domain.ReminderRepository
	events    domain.AdherenceRepository
}

// NewCalendarService creates a CalendarService backed by the given repositories.
func NewCalendarService(reminders domain.ReminderRepository, events domain.AdherenceRepository) *CalendarService {
	return &CalendarService{reminders: reminders, events: events}
}

// CalendarDay is one date of the weekly summary.
type CalendarDay struct {
	Date          string   `json:"date"` // YYYY-MM-DD
	HasReminders  bool     `json:"hasReminders"`
	ReminderCount int      `json:"reminderCount"`
	Times         []string `json:"times"`
}

// WeeklyCalendar returns exactly 7 consecutive days, Monday through Sunday,
// for the week weekOffset weeks away from now's date.
func (s *CalendarService) WeeklyCalendar(ctx context.Context, userID int64, weekOffset int, now time.Time) ([]CalendarDay, error) {
	reminders, err := s.userReminders(ctx, userID)
	if err != nil {
		return nil, err
	}

	monday, sunday := schedule.WeekWindow(now, weekOffset)
	summaries := schedule.OccurrencesInRange(reminders, monday, sunday)

	out := make([]CalendarDay, 0, 7)
	for day := monday; !day.After(sunday); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		sum := summaries[key]
		times := sum.Times
		if times == nil {
			times = []string{}
		}
		out = append(out, CalendarDay{
			Date:          key,
			HasReminders:  sum.Count > 0,
			ReminderCount: sum.Count,
			Times:         times,
		})
	}
	return out, nil
}

// ScheduleEntry is one occurrence of the daily detail view, joined with its
// derived taken state.
type ScheduleEntry struct {
	ReminderID    int64           `json:"reminderId"`
	MedicineName  string          `json:"medicineName"`
	ClockTime     string          `json:"time"`
	Slot          domain.TimeSlot `json:"slot"`
	ScheduledTime time.Time       `json:"scheduledTime"`
	Taken         bool            `json:"taken"`
}

// DailySchedule expands the user's rules for one date and joins each
// occurrence with the latest adherence event for its instant. Status is
// taken iff the latest event says taken; absence of events means not taken.
func (s *CalendarService) DailySchedule(ctx context.Context, userID int64, date time.Time) ([]ScheduleEntry, error) {
	reminders, err := s.userReminders(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Reminder, len(reminders))
	for i := range reminders {
		byID[reminders[i].ID] = &reminders[i]
	}

	day := domain.DateOf(date)
	occs := schedule.OccurrencesOn(reminders, day)
	out := make([]ScheduleEntry, 0, len(occs))
	for _, o := range occs {
		instant := schedule.InstantFor(day, o.Slot)
		latest, err := s.events.LatestForInstant(ctx, o.ReminderID, instant)
		if err != nil {
			return nil, err
		}
		out = append(out, ScheduleEntry{
			ReminderID:    o.ReminderID,
			MedicineName:  byID[o.ReminderID].MedicineName,
			ClockTime:     o.ClockTime,
			Slot:          o.Slot,
			ScheduledTime: instant,
			Taken:         latest != nil && latest.ActionType == domain.ActionTaken,
		})
	}
	return out, nil
}

func (s *CalendarService) userReminders(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	return s.reminders.ListByUser(ctx, userID)
}
