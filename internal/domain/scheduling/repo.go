package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// SearchParams are the SQL-pushed listing predicates. DateFrom/DateTo are an
// inclusive civil date range; PatientName matches a case-insensitive
// substring of the patient's first or last name.
type SearchParams struct {
	Status      string
	DateFrom    string
	DateTo      string
	PatientName string
}

// Repository provides appointment persistence. Every method is scoped to a
// doctor so one doctor can never read or modify another's calendar.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status string) error
	Delete(ctx context.Context, doctorID, id uuid.UUID) error

	// LockDay serializes writers for one doctor-day until the surrounding
	// transaction ends. Row locks are not enough here: a day with no
	// conflicting rows gives two concurrent bookings nothing to contend on,
	// and both insert. The advisory lock covers the inserts themselves.
	LockDay(ctx context.Context, doctorID uuid.UUID, date string) error

	// ListForDay fetches all appointments for a doctor and date, in time
	// order. Booking calls it after LockDay so the overlap check sees every
	// committed row for the day.
	ListForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)

	Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error)
	// ListRange returns the scheduled and completed appointments in an
	// inclusive date range, for the calendar.
	ListRange(ctx context.Context, doctorID uuid.UUID, dateFrom, dateTo string) ([]*Appointment, error)
	CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error)
	CountForDate(ctx context.Context, doctorID uuid.UUID, date string) (int, error)
}
