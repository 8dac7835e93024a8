package adapthttp

import (
	"net/http"
	"time"
)

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	now := s.now()
	days, err := s.calendar.WeeklyCalendar(r.Context(), user.ID, signedIntQuery(r, "weekOffset", 0), now)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	now := s.now()
	date, err := dateQuery(r, "date", now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := s.calendar.DailySchedule(r.Context(), user.ID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format("2006-01-02"),
		"items": entries,
	})
}

func (s *Server) handleAdherenceStats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	now := s.now()
	year := intQuery(r, "year", now.Year())
	month := time.Month(intQuery(r, "month", int(now.Month())))
	if month < time.January || month > time.December {
		writeError(w, http.StatusBadRequest, "bad_request", errMonthRange)
		return
	}
	stats, err := s.adherence.Stats(r.Context(), user.ID, year, month, now.Location())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdherenceChart(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	now := s.now()
	year := intQuery(r, "year", now.Year())
	month := time.Month(intQuery(r, "month", int(now.Month())))
	if month < time.January || month > time.December {
		writeError(w, http.StatusBadRequest, "bad_request", errMonthRange)
		return
	}
	days, err := s.adherence.DailyBreakdown(r.Context(), user.ID, year, month, now.Location())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}
