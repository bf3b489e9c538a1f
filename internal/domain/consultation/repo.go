package consultation

import (
	"context"

	"github.com/google/uuid"
)

// SearchParams filter the consultation listing.
type SearchParams struct {
	Status    string
	PatientID uuid.UUID
}

// Repository provides consultation persistence, scoped to the owning doctor.
type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error)
	GetByAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, doctorID, id uuid.UUID) error
	Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Consultation, int, error)
	CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error)
}
