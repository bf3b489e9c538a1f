package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. New appointments start as scheduled; the status
// update endpoint may move an appointment to any of the four values.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// Appointment types.
const (
	TypeCheckup      = "checkup"
	TypeFollowup     = "followup"
	TypeConsultation = "consultation"
	TypeTest         = "test"
)

var ValidStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

var ValidTypes = map[string]bool{
	TypeCheckup:      true,
	TypeFollowup:     true,
	TypeConsultation: true,
	TypeTest:         true,
}

// DefaultDurationMinutes is used when a booking request omits the duration.
const DefaultDurationMinutes = 30

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Appointment is a single booked slot on a doctor's calendar. Dates are
// civil dates ("2006-01-02") and times are wall-clock minutes ("15:04");
// the clinic operates in a single timezone so no offset is stored.
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	AppointmentType string    `json:"appointment_type"`
	ScheduledDate   string    `json:"scheduled_date"`
	ScheduledTime   string    `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes"`
	// PatientName is populated on listings for display and name filtering.
	PatientName string    `json:"patient_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Start returns the appointment's start instant, combining the civil date
// and wall-clock time in the clinic's timezone.
func (a *Appointment) Start() (time.Time, error) {
	return combineDateTime(a.ScheduledDate, a.ScheduledTime)
}

// End returns the exclusive end instant: start plus duration.
func (a *Appointment) End() (time.Time, error) {
	start, err := a.Start()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.DurationMinutes) * time.Minute), nil
}

// IsPast reports whether the appointment's date is strictly before today.
func (a *Appointment) IsPast(today time.Time) bool {
	d, err := time.ParseInLocation(dateLayout, a.ScheduledDate, today.Location())
	if err != nil {
		return false
	}
	y, m, day := today.Date()
	return d.Before(time.Date(y, m, day, 0, 0, 0, 0, today.Location()))
}

func combineDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}
