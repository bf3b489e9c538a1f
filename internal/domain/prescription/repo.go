package prescription

import (
	"context"

	"github.com/google/uuid"
)

// SearchParams filter the prescription listing.
type SearchParams struct {
	PatientID uuid.UUID
	DateFrom  string
	DateTo    string
}

// Repository provides prescription persistence, scoped to the owning doctor.
// Create and InsertMedicines are expected to run inside a transaction so a
// prescription and its lines commit together.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	InsertMedicines(ctx context.Context, prescriptionID uuid.UUID, medicines []Medicine) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	DeleteMedicines(ctx context.Context, prescriptionID uuid.UUID) error
	Delete(ctx context.Context, doctorID, id uuid.UUID) error
	Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Prescription, int, error)
	CountSince(ctx context.Context, doctorID uuid.UUID, date string) (int, error)
	Count(ctx context.Context, doctorID uuid.UUID) (int, error)
}
