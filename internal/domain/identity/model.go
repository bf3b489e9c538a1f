package identity

import (
	"time"

	"github.com/google/uuid"
)

// Medical specialties offered at registration.
var ValidSpecialties = map[string]bool{
	"cardiology":  true,
	"dermatology": true,
	"orthopedics": true,
	"neurology":   true,
	"pediatrics":  true,
	"psychiatry":  true,
	"general":     true,
}

// Doctor is the authenticated principal. Every patient, appointment,
// consultation and prescription hangs off a doctor; deleting the account
// cascades through all of it.
type Doctor struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	// LicenseNumber is unique across the deployment.
	LicenseNumber string      `json:"license_number"`
	Specialty     string      `json:"specialty"`
	Phone         string      `json:"phone"`
	ClinicAddress string      `json:"clinic_address"`
	City          string      `json:"city"`
	Bio           string      `json:"bio"`
	Preferences   Preferences `json:"preferences"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Preferences holds per-doctor notification and display settings, stored as
// a single jsonb column.
type Preferences struct {
	EmailNotifications   bool   `json:"email_notifications"`
	AppointmentReminders bool   `json:"appointment_reminders"`
	Theme                string `json:"theme"`
	Language             string `json:"language"`
}

// DefaultPreferences applied at signup.
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications:   true,
		AppointmentReminders: true,
		Theme:                "light",
		Language:             "en",
	}
}

func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}
