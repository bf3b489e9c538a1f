package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medcare/clinic/internal/platform/auth"
)

// ErrInvalidCredentials covers both unknown email and wrong password so
// login failures do not reveal which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError marks errors caused by the caller's input, so handlers
// can keep them apart from server faults.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func invalidf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

type Service struct {
	repo   Repository
	issuer *auth.Issuer
}

func NewService(repo Repository, issuer *auth.Issuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// SignupInput is the registration payload.
type SignupInput struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	LicenseNumber string `json:"license_number"`
	Specialty     string `json:"specialty"`
	Phone         string `json:"phone"`
}

// Signup registers a doctor account and returns it with a session token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Doctor, string, error) {
	if err := validateSignup(in); err != nil {
		return nil, "", err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	d := &Doctor{
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:  hash,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		LicenseNumber: in.LicenseNumber,
		Specialty:     in.Specialty,
		Phone:         in.Phone,
		Preferences:   DefaultPreferences(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(d.ID, d.Email)
	if err != nil {
		return nil, "", err
	}
	return d, token, nil
}

// Login verifies credentials and returns the doctor with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Doctor, string, error) {
	d, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !auth.VerifyPassword(d.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(d.ID, d.Email)
	if err != nil {
		return nil, "", err
	}
	return d, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// ProfileUpdate carries the mutable profile fields. Empty fields keep their
// stored value; email and license number are fixed after signup.
type ProfileUpdate struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Specialty     string `json:"specialty"`
	Phone         string `json:"phone"`
	ClinicAddress string `json:"clinic_address"`
	City          string `json:"city"`
	Bio           string `json:"bio"`
}

// UpdateProfile changes mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != "" {
		d.FirstName = in.FirstName
	}
	if in.LastName != "" {
		d.LastName = in.LastName
	}
	if in.Specialty != "" {
		if !ValidSpecialties[in.Specialty] {
			return nil, invalidf("unknown specialty: %s", in.Specialty)
		}
		d.Specialty = in.Specialty
	}
	if in.Phone != "" {
		d.Phone = in.Phone
	}
	if in.ClinicAddress != "" {
		d.ClinicAddress = in.ClinicAddress
	}
	if in.City != "" {
		d.City = in.City
	}
	if in.Bio != "" {
		d.Bio = in.Bio
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(d.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *Service) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs Preferences) error {
	return s.repo.UpdatePreferences(ctx, id, prefs)
}

// DeleteAccount removes the doctor; patients, appointments, consultations and
// prescriptions go with it via cascading foreign keys.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID, password string) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(d.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return s.repo.Delete(ctx, id)
}

func validateSignup(in SignupInput) error {
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return invalidf("a valid email is required")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return invalidf("first and last name are required")
	}
	if strings.TrimSpace(in.LicenseNumber) == "" {
		return invalidf("license_number is required")
	}
	if in.Specialty == "" {
		return invalidf("specialty is required")
	}
	if !ValidSpecialties[in.Specialty] {
		return invalidf("unknown specialty: %s", in.Specialty)
	}
	return nil
}
