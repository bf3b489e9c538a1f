package patient

import (
	"context"

	"github.com/google/uuid"
)

// SearchParams filter a doctor's panel listing.
type SearchParams struct {
	Status string
	Name   string // case-insensitive substring of first or last name
}

// Repository provides patient persistence, scoped to the owning doctor.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, doctorID, id uuid.UUID) error
	Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Patient, int, error)
	CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error)
}
