package postgres

import (
	"context"
	"database/sql"

	"medtrack/internal/domain"
)

// MedicineRepo implements catalog lookups on DB.
type MedicineRepo struct {
	db *DB
}

// NewMedicineRepo wraps a DB as a MedicineRepository.
func NewMedicineRepo(db *DB) *MedicineRepo {
	return &MedicineRepo{db: db}
}

// GetByID resolves a catalog id, or nil when unknown.
func (r *MedicineRepo) GetByID(ctx context.Context, id int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, name, dosage, unit FROM medicines WHERE id = $1", id,
	).Scan(&m.ID, &m.Name, &m.Dosage, &m.Unit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
