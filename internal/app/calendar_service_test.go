package app_test

import (
	"context"
	"testing"
	"time"

	"medtrack/internal/adapter/memory"
	"medtrack/internal/app"
	"medtrack/internal/domain"
)

func TestWeeklyCalendarShape(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	seedReminder(t, db, dailyReminder("08:00", "20:00"))

	r := dailyReminder("12:00")
	r.Frequency = domain.FrequencyWeekly
	r.DaysOfWeek = []int{2} // Wednesday
	seedReminder(t, db, r)

	svc := app.NewCalendarService(db, db)
	now := at("10:00") // Monday 2026-03-02

	days, err := svc.WeeklyCalendar(ctx, 1, 0, now)
	if err != nil {
		t.Fatalf("weekly calendar: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}
	if days[0].Date != "2026-03-02" || days[6].Date != "2026-03-08" {
		t.Fatalf("week not Monday-anchored: %s .. %s", days[0].Date, days[6].Date)
	}

	// Monday: only the daily rule's two doses.
	if days[0].ReminderCount != 2 || !days[0].HasReminders {
		t.Fatalf("Monday: %+v", days[0])
	}
	// Wednesday picks up the weekly rule too.
	if days[2].ReminderCount != 3 {
		t.Fatalf("Wednesday count %d, want 3", days[2].ReminderCount)
	}
	wantTimes := []string{"08:00", "12:00", "20:00"}
	if len(days[2].Times) != len(wantTimes) {
		t.Fatalf("Wednesday times %v", days[2].Times)
	}
	for i, ts := range wantTimes {
		if days[2].Times[i] != ts {
			t.Fatalf("Wednesday times %v, want %v", days[2].Times, wantTimes)
		}
	}
}

func TestWeeklyCalendarOffsets(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	seedReminder(t, db, dailyReminder("08:00"))
	svc := app.NewCalendarService(db, db)
	now := at("10:00")

	next, err := svc.WeeklyCalendar(ctx, 1, 1, now)
	if err != nil {
		t.Fatal(err)
	}
	if next[0].Date != "2026-03-09" {
		t.Fatalf("next week starts %s, want 2026-03-09", next[0].Date)
	}

	prev, err := svc.WeeklyCalendar(ctx, 1, -1, now)
	if err != nil {
		t.Fatal(err)
	}
	if prev[0].Date != "2026-02-23" {
		t.Fatalf("previous week starts %s, want 2026-02-23", prev[0].Date)
	}
}

func TestWeeklyCalendarEmptyWeek(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	r := dailyReminder("08:00")
	end := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.Local)
	r.EndDate = &end
	seedReminder(t, db, r)

	svc := app.NewCalendarService(db, db)
	days, err := svc.WeeklyCalendar(ctx, 1, 0, at("10:00"))
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range days {
		if d.HasReminders || d.ReminderCount != 0 {
			t.Fatalf("expired rule leaked into %s: %+v", d.Date, d)
		}
		if d.Times == nil || len(d.Times) != 0 {
			t.Fatalf("times must be an empty list, got %#v", d.Times)
		}
	}
}

func TestDailyScheduleJoinsAdherence(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	rem := seedReminder(t, db, dailyReminder("07:00", "12:00", "18:00"))

	calSvc := app.NewCalendarService(db, db)
	adhSvc := app.NewAdherenceService(db, db)
	now := at("13:30")

	if _, err := adhSvc.ToggleTaken(ctx, rem.ID, 1, now); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	entries, err := calSvc.DailySchedule(ctx, 1, now)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		wantTaken := e.ClockTime == "12:00"
		if e.Taken != wantTaken {
			t.Fatalf("slot %s taken=%v, want %v", e.ClockTime, e.Taken, wantTaken)
		}
		if e.MedicineName != rem.MedicineName {
			t.Fatalf("medicine name %q", e.MedicineName)
		}
	}

	// Undo flips the derived status back without deleting history.
	if _, err := adhSvc.ToggleTaken(ctx, rem.ID, 1, now); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	entries, err = calSvc.DailySchedule(ctx, 1, now)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Taken {
			t.Fatalf("slot %s still taken after undo", e.ClockTime)
		}
	}
}

func TestDailyScheduleAfterDelete(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	rem := seedReminder(t, db, dailyReminder("07:00"))

	calSvc := app.NewCalendarService(db, db)
	remSvc := app.NewReminderService(db, db.NewMedicineRepo())

	entries, err := calSvc.DailySchedule(ctx, 1, at("10:00"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries before delete, want 1", len(entries))
	}

	if err := remSvc.Delete(ctx, rem.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries, err = calSvc.DailySchedule(ctx, 1, at("10:00"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("deleted rule still produces %d occurrences", len(entries))
	}
}
