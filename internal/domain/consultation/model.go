package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Consultation statuses.
const (
	StatusPending   = "pending"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

var ValidStatuses = map[string]bool{
	StatusPending:   true,
	StatusOngoing:   true,
	StatusCompleted: true,
}

// Consultation records the clinical outcome of one appointment. Each
// appointment has at most one consultation; doctor and patient references
// are denormalized from the appointment for direct querying.
type Consultation struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`

	ChiefComplaint string `json:"chief_complaint"`
	Diagnosis      string `json:"diagnosis"`
	TreatmentPlan  string `json:"treatment_plan"`
	Medications    string `json:"medications"`
	FollowUpNotes  string `json:"follow_up_notes"`

	Status string `json:"status"`
	// PatientName is populated on listings.
	PatientName string    `json:"patient_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
