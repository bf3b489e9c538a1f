package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcare/clinic/internal/platform/db"
)

// ErrInvalidStatus is returned by UpdateStatus for any target outside the
// four appointment statuses. The appointment is left untouched.
var ErrInvalidStatus = fmt.Errorf("status must be one of scheduled, completed, cancelled, no-show")

// ValidationError marks errors caused by the caller's input, so handlers
// can keep them apart from server faults.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func invalidf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

type Service struct {
	repo Repository

	// runTx wraps booking and rescheduling so the overlap check and the
	// write commit or roll back together.
	runTx func(ctx context.Context, fn func(ctx context.Context) error) error
	now   func() time.Time
}

func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{
		repo: repo,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
		now: time.Now,
	}
}

// Book validates and persists a new appointment in one transaction. The
// doctor-day is locked for the duration, so two concurrent bookings cannot
// both pass the overlap check even when the day starts empty.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if err := normalize(a); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockDay(ctx, a.DoctorID, a.ScheduledDate); err != nil {
			return err
		}
		existing, err := s.repo.ListForDay(ctx, a.DoctorID, a.ScheduledDate)
		if err != nil {
			return err
		}
		if err := Validate(a, existing, s.now()); err != nil {
			return err
		}
		return s.repo.Create(ctx, a)
	})
}

// Reschedule applies an edit to an existing appointment, re-running overlap
// validation against the target date with the appointment's own stored
// version excluded.
func (s *Service) Reschedule(ctx context.Context, doctorID uuid.UUID, a *Appointment) error {
	stored, err := s.repo.GetByID(ctx, doctorID, a.ID)
	if err != nil {
		return err
	}
	a.DoctorID = stored.DoctorID
	if a.Status == "" {
		a.Status = stored.Status
	}
	if err := normalize(a); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockDay(ctx, a.DoctorID, a.ScheduledDate); err != nil {
			return err
		}
		existing, err := s.repo.ListForDay(ctx, a.DoctorID, a.ScheduledDate)
		if err != nil {
			return err
		}
		if err := Validate(a, existing, s.now()); err != nil {
			return err
		}
		return s.repo.Update(ctx, a)
	})
}

// UpdateStatus force-sets an appointment's status. Any of the four values may
// move to any other (a completed visit can return to scheduled); anything
// else is rejected without touching the row.
func (s *Service) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status string) error {
	if !ValidStatuses[status] {
		return ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, doctorID, id, status)
}

// Cancel marks an appointment cancelled, freeing its slot for new bookings.
func (s *Service) Cancel(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, doctorID, id, StatusCancelled)
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.repo.Delete(ctx, doctorID, id)
}

// List returns a page of the doctor's appointments in listing order, with
// the optional filters pushed into the query.
func (s *Service) List(ctx context.Context, doctorID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error) {
	params := SearchParams{Status: f.Status, PatientName: f.PatientName}
	if f.DateBucket != "" {
		from, to, ok := BucketRange(f.DateBucket, s.now())
		if !ok {
			return nil, 0, invalidf("unknown date bucket: %s", f.DateBucket)
		}
		params.DateFrom, params.DateTo = from, to
	}
	return s.repo.Search(ctx, doctorID, params, limit, offset)
}

// ListByPatient returns a patient's appointment history in listing order.
func (s *Service) ListByPatient(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error) {
	appts, err := s.repo.ListByPatient(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	return SortForListing(appts, s.now()), nil
}

// CalendarMonth groups a month's appointments by civil date for the calendar
// view. Only scheduled and completed entries appear, each day ordered by
// time; days without appointments are absent from the map.
func (s *Service) CalendarMonth(ctx context.Context, doctorID uuid.UUID, year int, month time.Month) (map[string][]*Appointment, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)

	appts, err := s.repo.ListRange(ctx, doctorID, first.Format(dateLayout), last.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	days := make(map[string][]*Appointment)
	for _, a := range appts {
		if a.Status != StatusScheduled && a.Status != StatusCompleted {
			continue
		}
		days[a.ScheduledDate] = append(days[a.ScheduledDate], a)
	}
	for d := range days {
		day := days[d]
		sort.Slice(day, func(i, j int) bool { return day[i].ScheduledTime < day[j].ScheduledTime })
	}
	return days, nil
}

// Stats summarizes the doctor's calendar for the dashboard.
type Stats struct {
	Total     int            `json:"total"`
	Today     int            `json:"today"`
	ByStatus  map[string]int `json:"by_status"`
}

func (s *Service) Stats(ctx context.Context, doctorID uuid.UUID) (*Stats, error) {
	byStatus, err := s.repo.CountByStatus(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.CountForDate(ctx, doctorID, s.now().Format(dateLayout))
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	return &Stats{Total: total, Today: today, ByStatus: byStatus}, nil
}

// normalize applies defaults and checks field-level constraints before the
// overlap validation runs.
func normalize(a *Appointment) error {
	if a.DoctorID == uuid.Nil {
		return invalidf("doctor_id is required")
	}
	if a.PatientID == uuid.Nil {
		return invalidf("patient_id is required")
	}
	if a.AppointmentType == "" {
		a.AppointmentType = TypeCheckup
	}
	if !ValidTypes[a.AppointmentType] {
		return invalidf("invalid appointment type: %s", a.AppointmentType)
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !ValidStatuses[a.Status] {
		return ErrInvalidStatus
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = DefaultDurationMinutes
	}
	if a.DurationMinutes < 0 {
		return invalidf("duration must be positive")
	}
	if _, err := combineDateTime(a.ScheduledDate, a.ScheduledTime); err != nil {
		return invalidf("invalid date or time: %v", err)
	}
	return nil
}
