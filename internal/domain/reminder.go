// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"time"
)

// Frequency describes how a reminder recurs.
type Frequency string

// Supported recurrence frequencies.
const (
	FrequencyDaily         Frequency = "daily"
	FrequencyWeekly        Frequency = "weekly"
	FrequencyEveryOtherDay Frequency = "every_other_day"
	FrequencySpecificDays  Frequency = "specific_days"
	FrequencyCustom        Frequency = "custom"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyEveryOtherDay, FrequencySpecificDays, FrequencyCustom:
		return true
	}
	return false
}

// UsesDaysOfWeek reports whether the frequency requires an explicit weekday set.
func (f Frequency) UsesDaysOfWeek() bool {
	return f == FrequencyWeekly || f == FrequencySpecificDays
}

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// TimeSlot is one dosing instant within a day. Immutable once created;
// a reminder owns a non-empty ordered sequence of these, where the order
// is display order only.
type TimeSlot struct {
	ClockTime string `json:"time"`
	Period    string `json:"period,omitempty"` // morning, noon, afternoon, evening
	Dose      string `json:"dose,omitempty"`   // decimal as string, e.g. "1.5"
}

// UnmarshalJSON accepts both the structured form and the legacy bare
// "HH:MM" string form, upgrading the latter to a slot with no period
// and no dose.
func (t *TimeSlot) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TimeSlot{ClockTime: s}
		return nil
	}
	type plain TimeSlot
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = TimeSlot(p)
	return nil
}

// Validate checks the clock time format and the dose string.
func (t TimeSlot) Validate() error {
	if !clockRe.MatchString(t.ClockTime) {
		return &ValidationError{Field: "time", Reason: "must be HH:MM between 00:00 and 23:59, got " + strconv.Quote(t.ClockTime)}
	}
	switch t.Period {
	case "", "morning", "noon", "afternoon", "evening":
	default:
		return &ValidationError{Field: "period", Reason: "must be one of morning, noon, afternoon, evening"}
	}
	if t.Dose != "" {
		v, err := strconv.ParseFloat(t.Dose, 64)
		if err != nil || v < 0 {
			return &ValidationError{Field: "dose", Reason: "must be a non-negative number, got " + strconv.Quote(t.Dose)}
		}
	}
	return nil
}

// Minute returns the slot's clock time as minutes since midnight.
// Only meaningful on a validated slot.
func (t TimeSlot) Minute() int {
	h, _ := strconv.Atoi(t.ClockTime[:2])
	m, _ := strconv.Atoi(t.ClockTime[3:])
	return h*60 + m
}

// Reminder is a declarative medication schedule owned by a single user.
// Occurrences are never materialized; they are derived from the rule on read.
type Reminder struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"userId"`
	MedicineID           *int64     `json:"medicineId"`
	MedicineName         string     `json:"medicineName"`
	Dosage               string     `json:"dosage,omitempty"`
	Unit                 string     `json:"unit,omitempty"`
	MealTiming           string     `json:"mealTiming,omitempty"` // before_meal, after_meal; passed through
	Frequency            Frequency  `json:"frequency"`
	DaysOfWeek           []int      `json:"daysOfWeek,omitempty"` // Monday=0 .. Sunday=6
	StartDate            time.Time  `json:"startDate"`
	EndDate              *time.Time `json:"endDate"`
	TimeSlots            []TimeSlot `json:"timeSlots"`
	IsActive             bool       `json:"isActive"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// DateActive reports whether the reminder applies on the given day:
// the user has not paused it and day falls within [StartDate, EndDate].
// Only the calendar date of day is considered.
func (r *Reminder) DateActive(day time.Time) bool {
	if !r.IsActive {
		return false
	}
	// Compare calendar dates, not instants: stored dates and request dates
	// may carry different locations.
	d := dateKey(day)
	if d < dateKey(r.StartDate) {
		return false
	}
	if r.EndDate != nil && d > dateKey(*r.EndDate) {
		return false
	}
	return true
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// Validate enforces the write-time invariants. Evaluation code assumes
// a validated reminder and never re-checks these.
func (r *Reminder) Validate() error {
	if r.MedicineID == nil && r.MedicineName == "" {
		return &ValidationError{Field: "medicineName", Reason: "required when no medicine is linked"}
	}
	if !r.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: "unknown frequency " + strconv.Quote(string(r.Frequency))}
	}
	if r.Frequency.UsesDaysOfWeek() {
		if len(r.DaysOfWeek) == 0 {
			return &ValidationError{Field: "daysOfWeek", Reason: "required for " + string(r.Frequency) + " frequency"}
		}
	} else if len(r.DaysOfWeek) > 0 {
		return &ValidationError{Field: "daysOfWeek", Reason: "only allowed for weekly or specific_days frequency"}
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return &ValidationError{Field: "daysOfWeek", Reason: "days must be 0 (Monday) through 6 (Sunday)"}
		}
	}
	if r.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "required"}
	}
	if r.EndDate != nil && dateKey(*r.EndDate) < dateKey(r.StartDate) {
		return &ValidationError{Field: "endDate", Reason: "cannot be before start date"}
	}
	if len(r.TimeSlots) == 0 {
		return &ValidationError{Field: "timeSlots", Reason: "at least one time slot is required"}
	}
	for _, ts := range r.TimeSlots {
		if err := ts.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DateOf truncates t to its calendar date, preserving the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Weekday maps t's weekday to the Monday=0 .. Sunday=6 convention.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ReminderFilter narrows List results.
type ReminderFilter struct {
	Active    *bool
	Frequency Frequency
	Skip      int
	Limit     int
}

// ReminderRepository is the port for reminder persistence. All lookups are
// scoped to a user; a reminder owned by someone else behaves as absent.
// Delete cascades removal of the reminder's adherence log.
type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) (*Reminder, error)
	List(ctx context.Context, userID int64, f ReminderFilter) ([]Reminder, int, error)
	ListByUser(ctx context.Context, userID int64) ([]Reminder, error)
	GetByID(ctx context.Context, id, userID int64) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id, userID int64) (bool, error)
	ListActive(ctx context.Context) ([]Reminder, error)
}
