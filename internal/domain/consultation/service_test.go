package consultation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	consults map[uuid.UUID]*Consultation
	order    []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{consults: make(map[uuid.UUID]*Consultation)}
}

func (m *mockRepo) all() []*Consultation {
	out := make([]*Consultation, 0, len(m.order))
	for _, id := range m.order {
		if c, ok := m.consults[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockRepo) Create(ctx context.Context, c *Consultation) error {
	for _, existing := range m.consults {
		if existing.AppointmentID == c.AppointmentID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	c.ID = uuid.New()
	cp := *c
	m.consults[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	c, ok := m.consults[id]
	if !ok || c.DoctorID != doctorID {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetByAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Consultation, error) {
	for _, c := range m.consults {
		if c.AppointmentID == appointmentID && c.DoctorID == doctorID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) Update(ctx context.Context, c *Consultation) error {
	stored, ok := m.consults[c.ID]
	if !ok || stored.DoctorID != c.DoctorID {
		return pgx.ErrNoRows
	}
	cp := *c
	m.consults[c.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	c, ok := m.consults[id]
	if !ok || c.DoctorID != doctorID {
		return pgx.ErrNoRows
	}
	delete(m.consults, id)
	return nil
}

func (m *mockRepo) Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Consultation, int, error) {
	var out []*Consultation
	for _, c := range m.all() {
		if c.DoctorID != doctorID {
			continue
		}
		if params.Status != "" && c.Status != params.Status {
			continue
		}
		if params.PatientID != uuid.Nil && c.PatientID != params.PatientID {
			continue
		}
		out = append(out, c)
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (m *mockRepo) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	counts := make(map[string]int)
	for _, c := range m.all() {
		if c.DoctorID == doctorID {
			counts[c.Status]++
		}
	}
	return counts, nil
}

// knownAppointments maps appointment ID to (doctor, patient) for the lookup stub.
type apptEntry struct {
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newTestService(appts map[uuid.UUID]apptEntry) (*Service, *mockRepo) {
	repo := newMockRepo()
	lookup := func(ctx context.Context, doctorID, appointmentID uuid.UUID) (uuid.UUID, error) {
		e, ok := appts[appointmentID]
		if !ok || e.doctorID != doctorID {
			return uuid.Nil, pgx.ErrNoRows
		}
		return e.patientID, nil
	}
	return NewService(repo, lookup), repo
}

func TestCreateDenormalizesFromAppointment(t *testing.T) {
	doctorID, patientID, apptID := uuid.New(), uuid.New(), uuid.New()
	svc, _ := newTestService(map[uuid.UUID]apptEntry{apptID: {doctorID, patientID}})

	c := &Consultation{
		AppointmentID:  apptID,
		PatientID:      uuid.New(), // payload value must be ignored
		ChiefComplaint: "persistent cough",
	}
	if err := svc.Create(context.Background(), doctorID, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.PatientID != patientID {
		t.Errorf("expected patient from appointment, got %s", c.PatientID)
	}
	if c.DoctorID != doctorID {
		t.Errorf("expected doctor from auth context, got %s", c.DoctorID)
	}
	if c.Status != StatusPending {
		t.Errorf("expected default status pending, got %s", c.Status)
	}
}

func TestCreateRequiresOwnedAppointment(t *testing.T) {
	doctorID, patientID, apptID := uuid.New(), uuid.New(), uuid.New()
	svc, repo := newTestService(map[uuid.UUID]apptEntry{apptID: {doctorID, patientID}})

	c := &Consultation{AppointmentID: apptID}
	if err := svc.Create(context.Background(), uuid.New(), c); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for foreign appointment, got %v", err)
	}
	if len(repo.consults) != 0 {
		t.Fatal("nothing should be persisted")
	}

	missing := &Consultation{AppointmentID: uuid.New()}
	if err := svc.Create(context.Background(), doctorID, missing); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for unknown appointment, got %v", err)
	}
}

func TestCreateOnePerAppointment(t *testing.T) {
	doctorID, patientID, apptID := uuid.New(), uuid.New(), uuid.New()
	svc, _ := newTestService(map[uuid.UUID]apptEntry{apptID: {doctorID, patientID}})

	first := &Consultation{AppointmentID: apptID}
	if err := svc.Create(context.Background(), doctorID, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &Consultation{AppointmentID: apptID}
	if err := svc.Create(context.Background(), doctorID, second); err == nil {
		t.Fatal("expected error for second consultation on the same appointment")
	}
}

func TestUpdateKeepsBindings(t *testing.T) {
	doctorID, patientID, apptID := uuid.New(), uuid.New(), uuid.New()
	svc, _ := newTestService(map[uuid.UUID]apptEntry{apptID: {doctorID, patientID}})

	c := &Consultation{AppointmentID: apptID, ChiefComplaint: "cough"}
	if err := svc.Create(context.Background(), doctorID, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited := *c
	edited.Diagnosis = "bronchitis"
	edited.Status = StatusCompleted
	edited.AppointmentID = uuid.New() // must be ignored
	edited.PatientID = uuid.New()     // must be ignored

	if err := svc.Update(context.Background(), doctorID, &edited); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edited.AppointmentID != apptID || edited.PatientID != patientID {
		t.Error("appointment and patient bindings must be immutable")
	}

	got, err := svc.Get(context.Background(), doctorID, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Diagnosis != "bronchitis" || got.Status != StatusCompleted {
		t.Errorf("expected updated fields, got %+v", got)
	}
}

func TestUpdateRejectsBadStatus(t *testing.T) {
	doctorID, patientID, apptID := uuid.New(), uuid.New(), uuid.New()
	svc, _ := newTestService(map[uuid.UUID]apptEntry{apptID: {doctorID, patientID}})

	c := &Consultation{AppointmentID: apptID}
	if err := svc.Create(context.Background(), doctorID, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited := *c
	edited.Status = "archived"
	if err := svc.Update(context.Background(), doctorID, &edited); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestGetByAppointment(t *testing.T) {
	doctorID, patientID, apptID := uuid.New(), uuid.New(), uuid.New()
	svc, _ := newTestService(map[uuid.UUID]apptEntry{apptID: {doctorID, patientID}})

	c := &Consultation{AppointmentID: apptID}
	if err := svc.Create(context.Background(), doctorID, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetByAppointment(context.Background(), doctorID, apptID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != c.ID {
		t.Error("expected the consultation for the appointment")
	}

	if _, err := svc.GetByAppointment(context.Background(), uuid.New(), apptID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for foreign doctor, got %v", err)
	}
}

func TestListFiltersByStatusAndPatient(t *testing.T) {
	doctorID := uuid.New()
	patientA, patientB := uuid.New(), uuid.New()
	apptA, apptB := uuid.New(), uuid.New()
	svc, _ := newTestService(map[uuid.UUID]apptEntry{
		apptA: {doctorID, patientA},
		apptB: {doctorID, patientB},
	})

	a := &Consultation{AppointmentID: apptA, Status: StatusOngoing}
	b := &Consultation{AppointmentID: apptB, Status: StatusCompleted}
	for _, c := range []*Consultation{a, b} {
		if err := svc.Create(context.Background(), doctorID, c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, total, err := svc.List(context.Background(), doctorID, SearchParams{Status: StatusOngoing}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].ID != a.ID {
		t.Fatalf("expected the ongoing consultation only, got %d", total)
	}

	items, total, err = svc.List(context.Background(), doctorID, SearchParams{PatientID: patientB}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].ID != b.ID {
		t.Fatalf("expected patient B's consultation only, got %d", total)
	}

	if _, _, err := svc.List(context.Background(), doctorID, SearchParams{Status: "bogus"}, 20, 0); err == nil {
		t.Error("expected error for invalid status filter")
	}
}
