package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcare/clinic/internal/platform/db"
	"github.com/medcare/clinic/internal/platform/pdf"
)

// ErrNoMedicines is returned when a prescription carries no usable line items.
var ErrNoMedicines = errors.New("a prescription needs at least one medicine")

// ValidationError marks errors caused by the caller's input, so handlers
// can keep them apart from server faults.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func invalidf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}

// DoctorInfo carries the prescriber fields printed on the PDF header.
type DoctorInfo struct {
	Name          string
	Specialty     string
	LicenseNumber string
	Email         string
	Phone         string
}

// PatientInfo carries the patient fields printed on the PDF header.
type PatientInfo struct {
	Name   string
	Gender string
	Age    int
}

// DoctorLookup resolves the prescriber for PDF rendering.
type DoctorLookup func(ctx context.Context, doctorID uuid.UUID) (DoctorInfo, error)

// PatientLookup resolves a patient owned by the doctor for PDF rendering.
type PatientLookup func(ctx context.Context, doctorID, patientID uuid.UUID) (PatientInfo, error)

type Service struct {
	repo          Repository
	lookupDoctor  DoctorLookup
	lookupPatient PatientLookup
	clinicName    string

	runTx func(ctx context.Context, fn func(ctx context.Context) error) error
	now   func() time.Time
}

func NewService(repo Repository, pool *pgxpool.Pool, doctors DoctorLookup, patients PatientLookup, clinicName string) *Service {
	return &Service{
		repo:          repo,
		lookupDoctor:  doctors,
		lookupPatient: patients,
		clinicName:    clinicName,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
		now: time.Now,
	}
}

// Create stores a prescription and its medicines in one transaction,
// so a partial write never leaves a prescription without lines.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if err := s.normalize(ctx, p); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.repo.InsertMedicines(ctx, p.ID, p.Medicines)
	})
}

// Update replaces the prescription fields and its full medicine list.
func (s *Service) Update(ctx context.Context, p *Prescription) error {
	stored, err := s.repo.GetByID(ctx, p.DoctorID, p.ID)
	if err != nil {
		return err
	}
	if p.PatientID == uuid.Nil {
		p.PatientID = stored.PatientID
	}
	if err := s.normalize(ctx, p); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		if err := s.repo.DeleteMedicines(ctx, p.ID); err != nil {
			return err
		}
		return s.repo.InsertMedicines(ctx, p.ID, p.Medicines)
	})
}

func (s *Service) Get(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, doctorID, id)
}

func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.repo.Delete(ctx, doctorID, id)
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.Search(ctx, doctorID, params, limit, offset)
}

// Stats reports lifetime and current-month prescription counts.
type Stats struct {
	Total     int `json:"total"`
	ThisMonth int `json:"this_month"`
}

func (s *Service) Stats(ctx context.Context, doctorID uuid.UUID) (*Stats, error) {
	total, err := s.repo.Count(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	month, err := s.repo.CountSince(ctx, doctorID, monthStart.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	return &Stats{Total: total, ThisMonth: month}, nil
}

// BuildPDF renders the printable prescription document.
func (s *Service) BuildPDF(ctx context.Context, doctorID, id uuid.UUID) ([]byte, error) {
	p, err := s.repo.GetByID(ctx, doctorID, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.lookupDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	pat, err := s.lookupPatient(ctx, doctorID, p.PatientID)
	if err != nil {
		return nil, err
	}

	data := pdf.Prescription{
		ClinicName:    s.clinicName,
		Date:          p.PrescriptionDate,
		DoctorName:    doc.Name,
		Specialty:     doc.Specialty,
		LicenseNumber: doc.LicenseNumber,
		DoctorEmail:   doc.Email,
		DoctorPhone:   doc.Phone,
		PatientName:   pat.Name,
		PatientGender: pat.Gender,
		PatientAge:    pat.Age,
		Notes:         p.Notes,
	}
	for _, m := range p.Medicines {
		data.Medicines = append(data.Medicines, pdf.MedicineLine{
			Name:      m.Name,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Duration:  m.Duration,
		})
	}
	return pdf.RenderPrescription(data)
}

func (s *Service) normalize(ctx context.Context, p *Prescription) error {
	if p.DoctorID == uuid.Nil {
		return invalidf("doctor is required")
	}
	if p.PatientID == uuid.Nil {
		return invalidf("patient is required")
	}
	if p.PrescriptionDate == "" {
		p.PrescriptionDate = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, p.PrescriptionDate); err != nil {
		return invalidf("invalid prescription date %q", p.PrescriptionDate)
	}

	kept := p.Medicines[:0]
	for _, m := range p.Medicines {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		kept = append(kept, m)
	}
	p.Medicines = kept
	if len(p.Medicines) == 0 {
		return ErrNoMedicines
	}
	return nil
}
