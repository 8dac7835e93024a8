package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"medtrack/internal/app"
	"medtrack/internal/domain"
)

// writeServiceError maps service errors onto the stable wire taxonomy.
// Validation failures are 400, missing/unowned resources 404, the three
// expected toggle states 409 with distinct codes, everything else 500.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, app.ErrSnoozeMinutesRequired):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, app.ErrReminderNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrMedicineNotFound):
		writeError(w, http.StatusNotFound, "medicine_not_found", err)
	case errors.Is(err, app.ErrNotActiveToday):
		writeError(w, http.StatusConflict, "not_active_today", err)
	case errors.Is(err, app.ErrNotScheduledToday):
		writeError(w, http.StatusConflict, "not_scheduled_today", err)
	case errors.Is(err, app.ErrNoElapsedSlot):
		writeError(w, http.StatusConflict, "no_elapsed_slot", err)
	default:
		if s.log != nil {
			s.log.Errorw("internal error", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}

type reminderRequest struct {
	MedicineID   *int64            `json:"medicineId"`
	MedicineName string            `json:"medicineName"`
	Dosage       string            `json:"dosage"`
	Unit         string            `json:"unit"`
	MealTiming   string            `json:"mealTiming"`
	Frequency    domain.Frequency  `json:"frequency"`
	DaysOfWeek   []int             `json:"daysOfWeek"`
	StartDate    string            `json:"startDate"`
	EndDate      *string           `json:"endDate"`
	TimeSlots    []domain.TimeSlot `json:"timeSlots"`
	// Legacy clients send "times", historically a bare array of "HH:MM"
	// strings. TimeSlot itself upgrades the string form.
	Times                []domain.TimeSlot `json:"times"`
	NotificationsEnabled *bool             `json:"notificationsEnabled"`
	Notes                string            `json:"notes"`
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	var body reminderRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	slots := body.TimeSlots
	if len(slots) == 0 {
		slots = body.Times
	}

	rem := &domain.Reminder{
		MedicineID:           body.MedicineID,
		MedicineName:         body.MedicineName,
		Dosage:               body.Dosage,
		Unit:                 body.Unit,
		MealTiming:           body.MealTiming,
		Frequency:            body.Frequency,
		DaysOfWeek:           body.DaysOfWeek,
		TimeSlots:            slots,
		Notes:                body.Notes,
		NotificationsEnabled: true,
	}
	if body.NotificationsEnabled != nil {
		rem.NotificationsEnabled = *body.NotificationsEnabled
	}

	if body.StartDate == "" {
		writeError(w, http.StatusBadRequest, "validation_error", &domain.ValidationError{Field: "startDate", Reason: "required"})
		return
	}
	start, err := time.ParseInLocation("2006-01-02", body.StartDate, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", &domain.ValidationError{Field: "startDate", Reason: "must be YYYY-MM-DD"})
		return
	}
	rem.StartDate = start
	if body.EndDate != nil && *body.EndDate != "" {
		end, err := time.ParseInLocation("2006-01-02", *body.EndDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", &domain.ValidationError{Field: "endDate", Reason: "must be YYYY-MM-DD"})
			return
		}
		rem.EndDate = &end
	}

	created, err := s.reminders.Create(r.Context(), user.ID, rem)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	f := domain.ReminderFilter{
		Skip:      intQuery(r, "skip", 0),
		Limit:     intQuery(r, "limit", 0),
		Frequency: domain.Frequency(r.URL.Query().Get("frequency")),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true" || v == "1"
		f.Active = &active
	}

	items, total, err := s.reminders.List(r.Context(), user.ID, f)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rem, err := s.reminders.Get(r.Context(), id, user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

type reminderUpdateRequest struct {
	MedicineName         *string           `json:"medicineName"`
	Dosage               *string           `json:"dosage"`
	Unit                 *string           `json:"unit"`
	MealTiming           *string           `json:"mealTiming"`
	Frequency            *domain.Frequency `json:"frequency"`
	DaysOfWeek           *[]int            `json:"daysOfWeek"`
	StartDate            *string           `json:"startDate"`
	EndDate              *string           `json:"endDate"`
	ClearEndDate         bool              `json:"clearEndDate"`
	TimeSlots            []domain.TimeSlot `json:"timeSlots"`
	Times                []domain.TimeSlot `json:"times"`
	IsActive             *bool             `json:"isActive"`
	NotificationsEnabled *bool             `json:"notificationsEnabled"`
	Notes                *string           `json:"notes"`
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body reminderUpdateRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	patch := app.ReminderPatch{
		MedicineName:         body.MedicineName,
		Dosage:               body.Dosage,
		Unit:                 body.Unit,
		MealTiming:           body.MealTiming,
		Frequency:            body.Frequency,
		DaysOfWeek:           body.DaysOfWeek,
		ClearEndDate:         body.ClearEndDate,
		TimeSlots:            body.TimeSlots,
		IsActive:             body.IsActive,
		NotificationsEnabled: body.NotificationsEnabled,
		Notes:                body.Notes,
	}
	if len(patch.TimeSlots) == 0 {
		patch.TimeSlots = body.Times
	}
	if body.StartDate != nil {
		start, err := time.ParseInLocation("2006-01-02", *body.StartDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", &domain.ValidationError{Field: "startDate", Reason: "must be YYYY-MM-DD"})
			return
		}
		patch.StartDate = &start
	}
	if body.EndDate != nil {
		end, err := time.ParseInLocation("2006-01-02", *body.EndDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", &domain.ValidationError{Field: "endDate", Reason: "must be YYYY-MM-DD"})
			return
		}
		patch.EndDate = &end
	}

	rem, err := s.reminders.Update(r.Context(), id, user.ID, patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := s.reminders.Delete(r.Context(), id, user.ID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

func (s *Server) handleToggleActive(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rem, err := s.reminders.ToggleActive(r.Context(), id, user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleToggleTaken(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	event, err := s.adherence.ToggleTaken(r.Context(), id, user.ID, s.now())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleLogAction(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body struct {
		ActionType    domain.ActionType `json:"actionType"`
		SnoozeMinutes *int              `json:"snoozeMinutes"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	event, err := s.adherence.LogAction(r.Context(), id, user.ID, body.ActionType, body.SnoozeMinutes, s.now())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleAdherence(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	events, err := s.adherence.History(r.Context(), id, user.ID, intQuery(r, "limit", 0))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": events})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if s.advice == nil {
		writeError(w, http.StatusNotFound, "not_found", errors.New("advice is not configured"))
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	advice, err := s.advice.ForReminder(r.Context(), id, user.ID, s.now())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}
