// Package memory implements the domain repositories in memory for
// development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"medtrack/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu        sync.Mutex
	reminders map[int64]*domain.Reminder
	events    []domain.AdherenceEvent
	medicines map[int64]*domain.Medicine
	users     []*domain.User
	sessions  map[string]*domain.Session

	reminderIDCounter int64
	eventIDCounter    int64
	userIDCounter     int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		reminders: make(map[int64]*domain.Reminder),
		medicines: make(map[int64]*domain.Medicine),
		sessions:  make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.ReminderRepository = (*DB)(nil)
var _ domain.AdherenceRepository = (*DB)(nil)
var _ domain.MedicineRepository = (*MedicineRepo)(nil)
var _ domain.UserRepository = (*UserRepo)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- ReminderRepository ---

// Create stores a new reminder and assigns its id.
func (db *DB) Create(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.reminderIDCounter++
	cp := *r
	cp.ID = db.reminderIDCounter
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	db.reminders[cp.ID] = &cp

	out := cp
	return &out, nil
}

// List returns the user's reminders ordered newest first, plus the total
// count before pagination.
func (db *DB) List(ctx context.Context, userID int64, f domain.ReminderFilter) ([]domain.Reminder, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var all []domain.Reminder
	for _, r := range db.reminders {
		if r.UserID != userID {
			continue
		}
		if f.Active != nil && r.IsActive != *f.Active {
			continue
		}
		if f.Frequency != "" && r.Frequency != f.Frequency {
			continue
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if f.Skip >= len(all) {
		return []domain.Reminder{}, total, nil
	}
	all = all[f.Skip:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

// ListByUser returns all of a user's reminders, unpaginated.
func (db *DB) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Reminder
	for _, r := range db.reminders {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListActive returns every date-unexpired active reminder across all users.
func (db *DB) ListActive(ctx context.Context) ([]domain.Reminder, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Reminder
	for _, r := range db.reminders {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns a reminder scoped to a user, or nil when absent.
func (db *DB) GetByID(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.reminders[id]
	if !ok || r.UserID != userID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// Update replaces a stored reminder.
func (db *DB) Update(ctx context.Context, r *domain.Reminder) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	old, ok := db.reminders[r.ID]
	if !ok || old.UserID != r.UserID {
		return errors.New("reminder does not exist")
	}
	cp := *r
	cp.CreatedAt = old.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	db.reminders[r.ID] = &cp
	return nil
}

// Delete removes a reminder and its adherence log.
func (db *DB) Delete(ctx context.Context, id, userID int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.reminders[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(db.reminders, id)

	kept := make([]domain.AdherenceEvent, 0, len(db.events))
	for _, e := range db.events {
		if e.ReminderID != id {
			kept = append(kept, e)
		}
	}
	db.events = kept
	return true, nil
}

// --- AdherenceRepository ---

// Append adds an event to the log.
func (db *DB) Append(ctx context.Context, e *domain.AdherenceEvent) (*domain.AdherenceEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.appendLocked(*e), nil
}

// AppendToggle reads the latest event for the instant and appends its
// alternation. Read and append happen under one mutex hold, so concurrent
// toggles for the same instant serialize into taken, not_taken, taken.
func (db *DB) AppendToggle(ctx context.Context, reminderID, userID int64, scheduled, now time.Time) (*domain.AdherenceEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e := domain.AdherenceEvent{
		ReminderID:    reminderID,
		UserID:        userID,
		ScheduledTime: scheduled,
	}
	latest := db.latestForInstantLocked(reminderID, scheduled)
	if latest == nil || latest.ActionType != domain.ActionTaken {
		e.ActionType = domain.ActionTaken
		t := now
		e.ActionTime = &t
	} else {
		e.ActionType = domain.ActionNotTaken
	}
	return db.appendLocked(e), nil
}

// LatestForInstant returns the newest event for a (reminder, instant) pair.
func (db *DB) LatestForInstant(ctx context.Context, reminderID int64, scheduled time.Time) (*domain.AdherenceEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	latest := db.latestForInstantLocked(reminderID, scheduled)
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (db *DB) appendLocked(e domain.AdherenceEvent) *domain.AdherenceEvent {
	db.eventIDCounter++
	e.ID = db.eventIDCounter
	e.CreatedAt = time.Now().UTC()
	db.events = append(db.events, e)

	out := e
	return &out
}

func (db *DB) latestForInstantLocked(reminderID int64, scheduled time.Time) *domain.AdherenceEvent {
	var latest *domain.AdherenceEvent
	for i := range db.events {
		e := &db.events[i]
		if e.ReminderID != reminderID || !e.ScheduledTime.Equal(scheduled) {
			continue
		}
		if latest == nil || e.ID > latest.ID {
			latest = e
		}
	}
	return latest
}

// ListByReminder returns a reminder's events, newest scheduled time first.
func (db *DB) ListByReminder(ctx context.Context, reminderID int64, limit int) ([]domain.AdherenceEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.AdherenceEvent
	for _, e := range db.events {
		if e.ReminderID == reminderID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.After(out[j].ScheduledTime)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByReminderSince returns every event of a reminder with scheduled
// time at or after from, unbounded by count.
func (db *DB) ListByReminderSince(ctx context.Context, reminderID int64, from time.Time) ([]domain.AdherenceEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.AdherenceEvent
	for _, e := range db.events {
		if e.ReminderID == reminderID && !e.ScheduledTime.Before(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListByUserBetween returns a user's events with scheduled time in [from, to).
func (db *DB) ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]domain.AdherenceEvent, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.AdherenceEvent
	for _, e := range db.events {
		if e.UserID != userID {
			continue
		}
		if e.ScheduledTime.Before(from) || !e.ScheduledTime.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// --- MedicineRepository ---

// MedicineRepo implements catalog lookups.
type MedicineRepo struct {
	db *DB
}

// NewMedicineRepo wraps the DB as a MedicineRepository.
func (db *DB) NewMedicineRepo() *MedicineRepo {
	return &MedicineRepo{db: db}
}

// AddMedicine seeds a catalog entry. Intended for tests and development.
func (db *DB) AddMedicine(m domain.Medicine) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := m
	db.medicines[m.ID] = &cp
}

// GetByID resolves a catalog id, or nil when unknown.
func (r *MedicineRepo) GetByID(ctx context.Context, id int64) (*domain.Medicine, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.medicines[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// --- UserRepository ---

// UserRepo implements user persistence.
type UserRepo struct {
	db *DB
}

// NewUserRepo wraps the DB as a UserRepository.
func (db *DB) NewUserRepo() *UserRepo {
	return &UserRepo{db: db}
}

// GetByUsername retrieves a user by username, or nil when absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by id, or nil when absent.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	r.db.userIDCounter++
	u := &domain.User{
		ID:           r.db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.db.users = append(r.db.users, u)
	cp := *u
	return &cp, nil
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps the DB as a SessionRepository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
