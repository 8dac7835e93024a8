package app

import (
	"context"
	"errors"
	"time"

	"medtrack/internal/domain"
)

var (
	// ErrReminderNotFound indicates the reminder is absent or not owned by the caller.
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrMedicineNotFound indicates a linked medicine id does not exist in the catalog.
	ErrMedicineNotFound = errors.New("medicine not found")
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// ReminderService encapsulates medication reminder CRUD use cases.
type ReminderService struct {
	reminders domain.ReminderRepository
	medicines domain.MedicineRepository
}

// NewReminderService creates a ReminderService backed by the given repositories.
func NewReminderService(reminders domain.ReminderRepository, medicines domain.MedicineRepository) *ReminderService {
	return &ReminderService{reminders: reminders, medicines: medicines}
}

// Create validates and stores a new reminder for the user.
func (s *ReminderService) Create(ctx context.Context, userID int64, r *domain.Reminder) (*domain.Reminder, error) {
	r.UserID = userID
	r.IsActive = true
	r.StartDate = domain.DateOf(r.StartDate)
	if r.EndDate != nil {
		d := domain.DateOf(*r.EndDate)
		r.EndDate = &d
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.MedicineID != nil {
		med, err := s.medicines.GetByID(ctx, *r.MedicineID)
		if err != nil {
			return nil, err
		}
		if med == nil {
			return nil, ErrMedicineNotFound
		}
		if r.MedicineName == "" {
			r.MedicineName = med.Name
		}
	}
	return s.reminders.Create(ctx, r)
}

// List returns the user's reminders plus the total count before pagination.
func (s *ReminderService) List(ctx context.Context, userID int64, f domain.ReminderFilter) ([]domain.Reminder, int, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.reminders.List(ctx, userID, f)
}

// Get returns a single reminder, enforcing ownership.
func (s *ReminderService) Get(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	r, err := s.reminders.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReminderNotFound
	}
	return r, nil
}

// ReminderPatch carries the optional fields of a partial update. Nil means
// "leave unchanged"; ClearEndDate removes an existing end date.
type ReminderPatch struct {
	MedicineName         *string
	Dosage               *string
	Unit                 *string
	MealTiming           *string
	Frequency            *domain.Frequency
	DaysOfWeek           *[]int
	StartDate            *time.Time
	EndDate              *time.Time
	ClearEndDate         bool
	TimeSlots            []domain.TimeSlot
	IsActive             *bool
	NotificationsEnabled *bool
	Notes                *string
}

// Update applies a partial update and revalidates the whole rule, so a patch
// can never leave a reminder in a state the evaluator would reject.
func (s *ReminderService) Update(ctx context.Context, id, userID int64, p ReminderPatch) (*domain.Reminder, error) {
	r, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if p.MedicineName != nil {
		r.MedicineName = *p.MedicineName
	}
	if p.Dosage != nil {
		r.Dosage = *p.Dosage
	}
	if p.Unit != nil {
		r.Unit = *p.Unit
	}
	if p.MealTiming != nil {
		r.MealTiming = *p.MealTiming
	}
	if p.Frequency != nil {
		r.Frequency = *p.Frequency
		if !r.Frequency.UsesDaysOfWeek() {
			r.DaysOfWeek = nil
		}
	}
	if p.DaysOfWeek != nil {
		r.DaysOfWeek = *p.DaysOfWeek
	}
	if p.StartDate != nil {
		r.StartDate = domain.DateOf(*p.StartDate)
	}
	if p.ClearEndDate {
		r.EndDate = nil
	} else if p.EndDate != nil {
		d := domain.DateOf(*p.EndDate)
		r.EndDate = &d
	}
	if len(p.TimeSlots) > 0 {
		r.TimeSlots = p.TimeSlots
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
	if p.NotificationsEnabled != nil {
		r.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.reminders.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a reminder and, through the repository, its adherence log.
func (s *ReminderService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.reminders.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrReminderNotFound
	}
	return nil
}

// ToggleActive flips the user pause toggle, independent of the date range.
func (s *ReminderService) ToggleActive(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	r, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	r.IsActive = !r.IsActive
	if err := s.reminders.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
