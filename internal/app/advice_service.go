package app

import (
	"context"
	"math"
	"time"

	"medtrack/internal/domain"
)

// AdviceGenerator is the port to the AI collaborator. Only the
// request/response contract lives here; model internals do not.
type AdviceGenerator interface {
	Generate(ctx context.Context, medicineName string, summary AdviceSummary) (string, error)
}

// AdviceSummary is the adherence digest handed to the generator.
type AdviceSummary struct {
	Days         int
	TotalLogged  int
	TotalTaken   int
	TotalSnoozed int
	TotalSkipped int
	Rate         float64 // percent
}

// Advice is a personalized recommendation derived from adherence behavior.
type Advice struct {
	MedicineName  string  `json:"medicineName"`
	AdviceText    string  `json:"adviceText"`
	AdherenceRate float64 `json:"adherenceRate"`
	TotalLogs     int     `json:"totalLogs"`
}

const adviceWindowDays = 30

// AdviceService produces adherence advice for a single reminder.
type AdviceService struct {
	reminders domain.ReminderRepository
	events    domain.AdherenceRepository
	gen       AdviceGenerator
}

// NewAdviceService creates an AdviceService backed by the given repositories
// and generator.
func NewAdviceService(reminders domain.ReminderRepository, events domain.AdherenceRepository, gen AdviceGenerator) *AdviceService {
	return &AdviceService{reminders: reminders, events: events, gen: gen}
}

// ForReminder summarizes the last 30 days of the reminder's adherence log
// and asks the generator for one advice paragraph.
func (s *AdviceService) ForReminder(ctx context.Context, reminderID, userID int64, now time.Time) (*Advice, error) {
	r, err := s.reminders.GetByID(ctx, reminderID, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReminderNotFound
	}

	// Bound the query by the window cutoff, not by an event count, so a
	// very active reminder cannot have its window silently truncated.
	cutoff := now.AddDate(0, 0, -adviceWindowDays)
	events, err := s.events.ListByReminderSince(ctx, reminderID, cutoff)
	if err != nil {
		return nil, err
	}

	sum := AdviceSummary{Days: adviceWindowDays}
	for _, e := range events {
		sum.TotalLogged++
		switch e.ActionType {
		case domain.ActionTaken:
			sum.TotalTaken++
		case domain.ActionSnoozed:
			sum.TotalSnoozed++
		case domain.ActionSkipped:
			sum.TotalSkipped++
		}
	}
	if sum.TotalLogged > 0 {
		sum.Rate = math.Round(float64(sum.TotalTaken)/float64(sum.TotalLogged)*10000) / 100
	}

	text, err := s.gen.Generate(ctx, r.MedicineName, sum)
	if err != nil {
		return nil, err
	}

	return &Advice{
		MedicineName:  r.MedicineName,
		AdviceText:    text,
		AdherenceRate: sum.Rate,
		TotalLogs:     sum.TotalLogged,
	}, nil
}
