package consultation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AppointmentLookup resolves an appointment owned by the doctor to its
// patient. Returning an error (not found, foreign doctor) blocks creation.
type AppointmentLookup func(ctx context.Context, doctorID, appointmentID uuid.UUID) (patientID uuid.UUID, err error)

// ValidationError marks errors caused by the caller's input, so handlers
// can keep them apart from server faults.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func invalidf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

type Service struct {
	repo        Repository
	appointment AppointmentLookup
}

func NewService(repo Repository, lookup AppointmentLookup) *Service {
	return &Service{repo: repo, appointment: lookup}
}

// Create opens a consultation for an appointment. The patient reference is
// denormalized from the appointment, never taken from the payload.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, c *Consultation) error {
	if c.AppointmentID == uuid.Nil {
		return invalidf("appointment_id is required")
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	if !ValidStatuses[c.Status] {
		return invalidf("invalid status: %s", c.Status)
	}

	patientID, err := s.appointment(ctx, doctorID, c.AppointmentID)
	if err != nil {
		return err
	}
	c.DoctorID = doctorID
	c.PatientID = patientID

	return s.repo.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) GetByAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Consultation, error) {
	return s.repo.GetByAppointment(ctx, doctorID, appointmentID)
}

// Update edits the clinical text and status. The appointment and patient
// bindings are immutable.
func (s *Service) Update(ctx context.Context, doctorID uuid.UUID, c *Consultation) error {
	stored, err := s.repo.GetByID(ctx, doctorID, c.ID)
	if err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = stored.Status
	}
	if !ValidStatuses[c.Status] {
		return invalidf("invalid status: %s", c.Status)
	}
	c.DoctorID = stored.DoctorID
	c.AppointmentID = stored.AppointmentID
	c.PatientID = stored.PatientID

	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.repo.Delete(ctx, doctorID, id)
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Consultation, int, error) {
	if params.Status != "" && !ValidStatuses[params.Status] {
		return nil, 0, invalidf("invalid status filter: %s", params.Status)
	}
	return s.repo.Search(ctx, doctorID, params, limit, offset)
}

func (s *Service) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, doctorID)
}
