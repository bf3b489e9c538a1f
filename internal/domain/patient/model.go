package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient lifecycle statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

var ValidStatuses = map[string]bool{
	StatusActive:   true,
	StatusInactive: true,
	StatusPending:  true,
}

// Genders recorded at registration.
var ValidGenders = map[string]bool{"M": true, "F": true, "O": true}

const dateLayout = "2006-01-02"

// Patient is one person in a doctor's panel. Every patient belongs to
// exactly one doctor; deleting the doctor cascades to the panel.
type Patient struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth string    `json:"date_of_birth"` // "2006-01-02"
	Gender      string    `json:"gender"`        // M, F, O

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`

	EmergencyContactName  string `json:"emergency_contact_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone"`

	MedicalHistory string `json:"medical_history"`
	Allergies      string `json:"allergies"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName concatenates first and last name for display.
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age returns whole years since the date of birth as of the reference time,
// or -1 when the date of birth is missing or malformed.
func (p *Patient) Age(at time.Time) int {
	dob, err := time.ParseInLocation(dateLayout, p.DateOfBirth, at.Location())
	if err != nil {
		return -1
	}
	years := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}
	if years < 0 {
		return -1
	}
	return years
}
