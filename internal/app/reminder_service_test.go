package app_test

import (
	"context"
	"errors"
	"testing"

	"medtrack/internal/adapter/memory"
	"medtrack/internal/app"
	"medtrack/internal/domain"
)

func TestCreateReminderValidation(t *testing.T) {
	ctx := context.Background()
	base := func() domain.Reminder { return dailyReminder("08:00") }

	tests := []struct {
		name   string
		mutate func(*domain.Reminder)
		field  string
	}{
		{
			name:   "missing medicine name",
			mutate: func(r *domain.Reminder) { r.MedicineName = "" },
			field:  "medicineName",
		},
		{
			name:   "unknown frequency",
			mutate: func(r *domain.Reminder) { r.Frequency = "fortnightly" },
			field:  "frequency",
		},
		{
			name:   "no time slots",
			mutate: func(r *domain.Reminder) { r.TimeSlots = nil },
			field:  "timeSlots",
		},
		{
			name: "malformed clock time",
			mutate: func(r *domain.Reminder) {
				r.TimeSlots = []domain.TimeSlot{{ClockTime: "25:00"}}
			},
			field: "time",
		},
		{
			name: "weekly without days",
			mutate: func(r *domain.Reminder) {
				r.Frequency = domain.FrequencyWeekly
				r.DaysOfWeek = nil
			},
			field: "daysOfWeek",
		},
		{
			name: "day index out of range",
			mutate: func(r *domain.Reminder) {
				r.Frequency = domain.FrequencySpecificDays
				r.DaysOfWeek = []int{0, 7}
			},
			field: "daysOfWeek",
		},
		{
			name: "days given for daily rule",
			mutate: func(r *domain.Reminder) {
				r.DaysOfWeek = []int{0, 2}
			},
			field: "daysOfWeek",
		},
		{
			name: "end date before start date",
			mutate: func(r *domain.Reminder) {
				d := r.StartDate.AddDate(0, 0, -1)
				r.EndDate = &d
			},
			field: "endDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := memory.New()
			svc := app.NewReminderService(db, db.NewMedicineRepo())
			r := base()
			tt.mutate(&r)
			_, err := svc.Create(ctx, 1, &r)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestCreateReminderResolvesMedicine(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	db.AddMedicine(domain.Medicine{ID: 7, Name: "Metformin"})
	svc := app.NewReminderService(db, db.NewMedicineRepo())

	id := int64(7)
	r := dailyReminder("08:00")
	r.MedicineName = ""
	r.MedicineID = &id
	created, err := svc.Create(ctx, 1, &r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.MedicineName != "Metformin" {
		t.Fatalf("medicine name not backfilled: %q", created.MedicineName)
	}

	missing := int64(99)
	r2 := dailyReminder("08:00")
	r2.MedicineID = &missing
	if _, err := svc.Create(ctx, 1, &r2); err != app.ErrMedicineNotFound {
		t.Fatalf("got %v, want ErrMedicineNotFound", err)
	}
}

func TestUpdateReminderClearsStaleDays(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	svc := app.NewReminderService(db, db.NewMedicineRepo())

	r := dailyReminder("08:00")
	r.Frequency = domain.FrequencyWeekly
	r.DaysOfWeek = []int{0, 2, 4}
	created, err := svc.Create(ctx, 1, &r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	daily := domain.FrequencyDaily
	updated, err := svc.Update(ctx, created.ID, 1, app.ReminderPatch{Frequency: &daily})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Frequency != domain.FrequencyDaily {
		t.Fatalf("frequency not updated: %s", updated.Frequency)
	}
	if len(updated.DaysOfWeek) != 0 {
		t.Fatalf("day selection must be cleared on frequency change, got %v", updated.DaysOfWeek)
	}
}

func TestUpdateReminderRevalidates(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	svc := app.NewReminderService(db, db.NewMedicineRepo())

	r := dailyReminder("08:00")
	created, err := svc.Create(ctx, 1, &r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	weekly := domain.FrequencyWeekly
	_, err = svc.Update(ctx, created.ID, 1, app.ReminderPatch{Frequency: &weekly})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "daysOfWeek" {
		t.Fatalf("weekly patch without days must fail validation, got %v", err)
	}

	// Failed patch must not leak into storage.
	got, err := svc.Get(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Frequency != domain.FrequencyDaily {
		t.Fatalf("stored frequency changed after rejected patch: %s", got.Frequency)
	}
}

func TestListReminderPagination(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	svc := app.NewReminderService(db, db.NewMedicineRepo())

	for i := 0; i < 3; i++ {
		r := dailyReminder("08:00")
		if _, err := svc.Create(ctx, 1, &r); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	other := dailyReminder("08:00")
	if _, err := svc.Create(ctx, 2, &other); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.List(ctx, 1, domain.ReminderFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("total %d, want 3", total)
	}
	if len(items) != 2 {
		t.Fatalf("page size %d, want 2", len(items))
	}
	for _, it := range items {
		if it.UserID != 1 {
			t.Fatalf("leaked reminder of user %d", it.UserID)
		}
	}

	items, _, err = svc.List(ctx, 1, domain.ReminderFilter{Skip: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("page 2 size %d, want 1", len(items))
	}
}

func TestDeleteReminderRemovesAdherenceLog(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	remSvc := app.NewReminderService(db, db.NewMedicineRepo())
	adhSvc := app.NewAdherenceService(db, db)

	r := dailyReminder("07:00")
	created, err := remSvc.Create(ctx, 1, &r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := adhSvc.ToggleTaken(ctx, created.ID, 1, at("08:00")); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if err := remSvc.Delete(ctx, created.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := remSvc.Delete(ctx, created.ID, 1); err != app.ErrReminderNotFound {
		t.Fatalf("second delete: got %v, want ErrReminderNotFound", err)
	}

	events, err := db.ListByUserBetween(ctx, 1, at("00:00"), at("23:59"))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("adherence log must be removed with the reminder, %d events remain", len(events))
	}
}

func TestToggleActive(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	svc := app.NewReminderService(db, db.NewMedicineRepo())

	r := dailyReminder("08:00")
	created, err := svc.Create(ctx, 1, &r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	toggled, err := svc.ToggleActive(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("expected reminder to be paused")
	}
	toggled, err = svc.ToggleActive(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if !toggled.IsActive {
		t.Fatal("expected reminder to be active again")
	}

	if _, err := svc.ToggleActive(ctx, 99, 1); err != app.ErrReminderNotFound {
		t.Fatalf("got %v, want ErrReminderNotFound", err)
	}
}
