package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ValidationError marks errors caused by the caller's input, so handlers
// can keep them apart from server faults.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func invalidf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Update(ctx context.Context, doctorID uuid.UUID, p *Patient) error {
	stored, err := s.repo.GetByID(ctx, doctorID, p.ID)
	if err != nil {
		return err
	}
	p.DoctorID = stored.DoctorID
	if p.Status == "" {
		p.Status = stored.Status
	}
	if err := validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.repo.Delete(ctx, doctorID, id)
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Patient, int, error) {
	if params.Status != "" && !ValidStatuses[params.Status] {
		return nil, 0, invalidf("invalid status filter: %s", params.Status)
	}
	return s.repo.Search(ctx, doctorID, params, limit, offset)
}

func (s *Service) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, doctorID)
}

func validate(p *Patient) error {
	if p.DoctorID == uuid.Nil {
		return invalidf("doctor_id is required")
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return invalidf("first and last name are required")
	}
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return invalidf("a valid email is required")
	}
	if p.Gender != "" && !ValidGenders[p.Gender] {
		return invalidf("gender must be M, F or O")
	}
	if p.Status != "" && !ValidStatuses[p.Status] {
		return invalidf("invalid status: %s", p.Status)
	}
	if p.DateOfBirth != "" {
		dob, err := time.ParseInLocation(dateLayout, p.DateOfBirth, time.Local)
		if err != nil {
			return invalidf("date_of_birth must be YYYY-MM-DD")
		}
		if dob.After(time.Now()) {
			return invalidf("date_of_birth cannot be in the future")
		}
	}
	return nil
}
