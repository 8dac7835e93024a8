package domain

import "context"

// Medicine is a catalog entry a reminder may link to instead of carrying a
// free-text name. The catalog itself is maintained elsewhere; this side only
// resolves ids.
type Medicine struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// MedicineRepository is the port for catalog lookups.
type MedicineRepository interface {
	GetByID(ctx context.Context, id int64) (*Medicine, error)
}
