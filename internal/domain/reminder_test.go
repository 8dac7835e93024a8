package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeSlotUnmarshalLegacyString(t *testing.T) {
	var slots []TimeSlot
	if err := json.Unmarshal([]byte(`["08:00", "21:30"]`), &slots); err != nil {
		t.Fatalf("unmarshal legacy array: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots", len(slots))
	}
	if slots[0].ClockTime != "08:00" || slots[0].Period != "" || slots[0].Dose != "" {
		t.Fatalf("legacy slot not upgraded: %+v", slots[0])
	}

	var mixed []TimeSlot
	data := `["07:15", {"time": "12:00", "period": "noon", "dose": "1.5"}]`
	if err := json.Unmarshal([]byte(data), &mixed); err != nil {
		t.Fatalf("unmarshal mixed array: %v", err)
	}
	if mixed[0].ClockTime != "07:15" {
		t.Fatalf("mixed[0] = %+v", mixed[0])
	}
	if mixed[1].ClockTime != "12:00" || mixed[1].Period != "noon" || mixed[1].Dose != "1.5" {
		t.Fatalf("mixed[1] = %+v", mixed[1])
	}
}

func TestTimeSlotValidate(t *testing.T) {
	tests := []struct {
		name string
		slot TimeSlot
		ok   bool
	}{
		{"plain time", TimeSlot{ClockTime: "08:00"}, true},
		{"midnight", TimeSlot{ClockTime: "00:00"}, true},
		{"last minute", TimeSlot{ClockTime: "23:59"}, true},
		{"full slot", TimeSlot{ClockTime: "12:00", Period: "noon", Dose: "1.5"}, true},
		{"hour out of range", TimeSlot{ClockTime: "24:00"}, false},
		{"minute out of range", TimeSlot{ClockTime: "12:60"}, false},
		{"missing zero pad", TimeSlot{ClockTime: "8:00"}, false},
		{"not a time", TimeSlot{ClockTime: "noon"}, false},
		{"empty", TimeSlot{}, false},
		{"bad period", TimeSlot{ClockTime: "08:00", Period: "midnight"}, false},
		{"negative dose", TimeSlot{ClockTime: "08:00", Dose: "-1"}, false},
		{"non-numeric dose", TimeSlot{ClockTime: "08:00", Dose: "one"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.slot.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTimeSlotMinute(t *testing.T) {
	if got := (TimeSlot{ClockTime: "00:00"}).Minute(); got != 0 {
		t.Errorf("00:00 = %d", got)
	}
	if got := (TimeSlot{ClockTime: "13:45"}).Minute(); got != 825 {
		t.Errorf("13:45 = %d", got)
	}
}

func TestDateActive(t *testing.T) {
	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.Local)
	r := &Reminder{IsActive: true, StartDate: start, EndDate: &end}

	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 0, 0, 0, 0, time.Local)
	}

	if r.DateActive(day(9)) {
		t.Error("day before start must be inactive")
	}
	if !r.DateActive(day(10)) {
		t.Error("start date is inclusive")
	}
	if !r.DateActive(day(20)) {
		t.Error("end date is inclusive")
	}
	if r.DateActive(day(21)) {
		t.Error("day after end must be inactive")
	}

	// The date boundary holds even when the stored date and the query
	// carry different locations.
	utcStart := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	r2 := &Reminder{IsActive: true, StartDate: utcStart}
	if !r2.DateActive(day(10)) {
		t.Error("same calendar date in another location must count")
	}

	r.IsActive = false
	if r.DateActive(day(15)) {
		t.Error("paused reminders are never active")
	}
}

func TestWeekdayConvention(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := Weekday(monday.AddDate(0, 0, i)); got != i {
			t.Errorf("day %d: Weekday = %d", i, got)
		}
	}
}

func TestActionTypeValid(t *testing.T) {
	for _, a := range []ActionType{ActionTaken, ActionNotTaken, ActionSnoozed, ActionSkipped} {
		if !a.Valid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if ActionType("forgotten").Valid() {
		t.Error("unknown action should be invalid")
	}
}
