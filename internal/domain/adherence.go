package domain

import (
	"context"
	"time"
)

// ActionType classifies an adherence event.
type ActionType string

// Adherence actions. NotTaken is appended when a taken event is undone;
// the log is append-only, so undo supersedes rather than deletes.
const (
	ActionTaken    ActionType = "taken"
	ActionNotTaken ActionType = "not_taken"
	ActionSnoozed  ActionType = "snoozed"
	ActionSkipped  ActionType = "skipped"
)

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	switch a {
	case ActionTaken, ActionNotTaken, ActionSnoozed, ActionSkipped:
		return true
	}
	return false
}

// AdherenceEvent records one state transition for a virtual occurrence.
// ScheduledTime (calendar date + slot clock time) is the join key back to
// the occurrence; the current status of an occurrence is the latest event
// for its (ReminderID, ScheduledTime) pair, defaulting to not taken.
type AdherenceEvent struct {
	ID            int64      `json:"id"`
	ReminderID    int64      `json:"reminderId"`
	UserID        int64      `json:"userId"`
	ScheduledTime time.Time  `json:"scheduledTime"`
	ActionTime    *time.Time `json:"actionTime"`
	ActionType    ActionType `json:"actionType"`
	SnoozeMinutes *int       `json:"snoozeMinutes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// AdherenceRepository is the port for the append-only adherence log.
// AppendToggle owns the alternation decision: the latest-event read and the
// append must share one critical section, so two concurrent toggles for the
// same (ReminderID, ScheduledTime) pair can never both observe the same
// latest event and both append taken.
type AdherenceRepository interface {
	Append(ctx context.Context, e *AdherenceEvent) (*AdherenceEvent, error)
	// AppendToggle atomically reads the latest event for the instant and
	// appends its alternation: taken with ActionTime=now when no taken
	// event is current, not_taken otherwise.
	AppendToggle(ctx context.Context, reminderID, userID int64, scheduled, now time.Time) (*AdherenceEvent, error)
	LatestForInstant(ctx context.Context, reminderID int64, scheduled time.Time) (*AdherenceEvent, error)
	ListByReminder(ctx context.Context, reminderID int64, limit int) ([]AdherenceEvent, error)
	ListByReminderSince(ctx context.Context, reminderID int64, from time.Time) ([]AdherenceEvent, error)
	ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]AdherenceEvent, error)
}
