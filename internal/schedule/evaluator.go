// Package schedule derives concrete medication occurrences from declarative
// recurrence rules. Everything here is pure: the current instant and the
// rules are always passed in, never read from an ambient clock, so callers
// and tests control time.
package schedule

import (
	"sort"
	"time"

	"medtrack/internal/domain"
)

// Occurrence is one virtual dosing instant derived from a reminder.
// Occurrences are never stored; they are recomputed on every read.
type Occurrence struct {
	ReminderID int64
	ClockTime  string
	SlotIndex  int
	Slot       domain.TimeSlot
}

// IsDueOn reports whether the reminder produces occurrences on the given
// calendar day. It assumes a validated reminder.
func IsDueOn(r *domain.Reminder, day time.Time) bool {
	if !r.DateActive(day) {
		return false
	}
	switch r.Frequency {
	case domain.FrequencyDaily, domain.FrequencyCustom:
		// Custom has no richer expansion rule yet and is treated as daily.
		return true
	case domain.FrequencyEveryOtherDay:
		return daysBetween(domain.DateOf(r.StartDate), domain.DateOf(day))%2 == 0
	case domain.FrequencyWeekly, domain.FrequencySpecificDays:
		wd := domain.Weekday(day)
		for _, d := range r.DaysOfWeek {
			if d == wd {
				return true
			}
		}
		return false
	}
	return false
}

// OccurrencesOn expands every due reminder into its day's occurrences,
// sorted ascending by clock time. Ties are broken by reminder ID and then
// slot index so output is deterministic when reminders share a clock time.
func OccurrencesOn(reminders []domain.Reminder, day time.Time) []Occurrence {
	var out []Occurrence
	for i := range reminders {
		r := &reminders[i]
		if !IsDueOn(r, day) {
			continue
		}
		for idx, slot := range r.TimeSlots {
			out = append(out, Occurrence{
				ReminderID: r.ID,
				ClockTime:  slot.ClockTime,
				SlotIndex:  idx,
				Slot:       slot,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if am, bm := a.Slot.Minute(), b.Slot.Minute(); am != bm {
			return am < bm
		}
		if a.ReminderID != b.ReminderID {
			return a.ReminderID < b.ReminderID
		}
		return a.SlotIndex < b.SlotIndex
	})
	return out
}

// DaySummary aggregates one date inside a range query.
type DaySummary struct {
	Count int
	Times []string // distinct clock times, ascending
}

// OccurrencesInRange maps each date in [start, end] (inclusive) to its
// occurrence count and the sorted set of distinct clock times. A reminder
// contributes to a date only when IsDueOn holds for that exact date, so
// partially overlapping date ranges are never double counted.
func OccurrencesInRange(reminders []domain.Reminder, start, end time.Time) map[string]DaySummary {
	out := make(map[string]DaySummary)
	for day := domain.DateOf(start); !day.After(domain.DateOf(end)); day = day.AddDate(0, 0, 1) {
		occs := OccurrencesOn(reminders, day)
		if len(occs) == 0 {
			continue
		}
		seen := make(map[string]bool, len(occs))
		times := make([]string, 0, len(occs))
		for _, o := range occs {
			if !seen[o.ClockTime] {
				seen[o.ClockTime] = true
				times = append(times, o.ClockTime)
			}
		}
		out[day.Format("2006-01-02")] = DaySummary{Count: len(occs), Times: times}
	}
	return out
}

// WeekWindow returns the Monday and Sunday bounding the week weekOffset
// weeks away from today. Offset 0 yields the most recent Monday ≤ today;
// weeks run Monday through Sunday regardless of locale.
func WeekWindow(today time.Time, weekOffset int) (monday, sunday time.Time) {
	d := domain.DateOf(today)
	monday = d.AddDate(0, 0, -domain.Weekday(d)+7*weekOffset)
	return monday, monday.AddDate(0, 0, 6)
}

// LatestElapsedSlot selects the slot with the greatest clock time that is
// not after now's time of day: the most recently due instant. ok is false
// when every slot is still in the future.
func LatestElapsedSlot(r *domain.Reminder, now time.Time) (slot domain.TimeSlot, ok bool) {
	nowMin := now.Hour()*60 + now.Minute()
	best := -1
	for _, ts := range r.TimeSlots {
		if m := ts.Minute(); m <= nowMin && m > best {
			best = m
			slot = ts
			ok = true
		}
	}
	return slot, ok
}

// InstantFor combines a calendar day with a slot clock time in the day's
// location. This is the join key adherence events are recorded under.
func InstantFor(day time.Time, slot domain.TimeSlot) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, slot.Minute()/60, slot.Minute()%60, 0, 0, day.Location())
}

func daysBetween(a, b time.Time) int {
	// Both arguments are date-truncated; divide on UTC days to stay
	// stable across DST transitions.
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	n := int(bu.Sub(au) / (24 * time.Hour))
	if n < 0 {
		return -n
	}
	return n
}
