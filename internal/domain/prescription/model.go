package prescription

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Prescription is a dated set of medicine line items issued by a doctor to
// one of their patients.
type Prescription struct {
	ID               uuid.UUID  `json:"id"`
	DoctorID         uuid.UUID  `json:"doctor_id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	PrescriptionDate string     `json:"prescription_date"` // "2006-01-02"
	Notes            string     `json:"notes"`
	Medicines        []Medicine `json:"medicines"`
	// PatientName is populated on listings.
	PatientName string    `json:"patient_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Medicine is one ordered line item. All dosage fields are free text, as
// written on a paper script.
type Medicine struct {
	ID             uuid.UUID `json:"id"`
	PrescriptionID uuid.UUID `json:"prescription_id"`
	Name           string    `json:"name"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Duration       string    `json:"duration"`
	Position       int       `json:"position"`
}
