package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
	order []uuid.UUID
	today time.Time

	dayLocks  int
	createErr error
}

func newMockRepo(today time.Time) *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment), today: today}
}

func (m *mockRepo) all() []*Appointment {
	out := make([]*Appointment, 0, len(m.order))
	for _, id := range m.order {
		if a, ok := m.appts[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New()
	cp := *a
	m.appts[a.ID] = &cp
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.DoctorID != doctorID {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(ctx context.Context, a *Appointment) error {
	stored, ok := m.appts[a.ID]
	if !ok || stored.DoctorID != a.DoctorID {
		return pgx.ErrNoRows
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status string) error {
	a, ok := m.appts[id]
	if !ok || a.DoctorID != doctorID {
		return pgx.ErrNoRows
	}
	a.Status = status
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	a, ok := m.appts[id]
	if !ok || a.DoctorID != doctorID {
		return pgx.ErrNoRows
	}
	delete(m.appts, id)
	return nil
}

func (m *mockRepo) LockDay(ctx context.Context, doctorID uuid.UUID, date string) error {
	m.dayLocks++
	return nil
}

func (m *mockRepo) ListForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.all() {
		if a.DoctorID == doctorID && a.ScheduledDate == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Appointment, int, error) {
	var scoped []*Appointment
	for _, a := range m.all() {
		if a.DoctorID != doctorID {
			continue
		}
		if params.Status != "" && a.Status != params.Status {
			continue
		}
		if params.DateFrom != "" && a.ScheduledDate < params.DateFrom {
			continue
		}
		if params.DateTo != "" && a.ScheduledDate > params.DateTo {
			continue
		}
		scoped = append(scoped, a)
	}
	scoped = Filter{PatientName: params.PatientName}.Apply(scoped, m.today)
	sorted := SortForListing(scoped, m.today)

	total := len(sorted)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return sorted[offset:end], total, nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.all() {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListRange(ctx context.Context, doctorID uuid.UUID, dateFrom, dateTo string) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.all() {
		if a.DoctorID == doctorID && a.ScheduledDate >= dateFrom && a.ScheduledDate <= dateTo {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	counts := make(map[string]int)
	for _, a := range m.all() {
		if a.DoctorID == doctorID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *mockRepo) CountForDate(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	n := 0
	for _, a := range m.all() {
		if a.DoctorID == doctorID && a.ScheduledDate == date {
			n++
		}
	}
	return n, nil
}

func newTestService(now time.Time) (*Service, *mockRepo) {
	repo := newMockRepo(now)
	svc := &Service{
		repo: repo,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		now: func() time.Time { return now },
	}
	return svc, repo
}

func TestBookPersistsValidAppointment(t *testing.T) {
	svc, repo := newTestService(testNow)

	a := appt("2024-06-10", "09:00", 30, "")
	a.ID = uuid.Nil
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID == uuid.Nil {
		t.Fatal("expected an ID to be assigned")
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected default status scheduled, got %s", a.Status)
	}
	if len(repo.appts) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(repo.appts))
	}
	if repo.dayLocks != 1 {
		t.Errorf("expected the day lock to be taken before the overlap check, got %d locks", repo.dayLocks)
	}
}

func TestBookAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(testNow)

	a := appt("2024-06-10", "09:00", 0, "")
	a.AppointmentType = ""
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("expected default duration %d, got %d", DefaultDurationMinutes, a.DurationMinutes)
	}
	if a.AppointmentType != TypeCheckup {
		t.Errorf("expected default type checkup, got %s", a.AppointmentType)
	}
}

func TestBookRejectsOverlapWithoutWrite(t *testing.T) {
	svc, repo := newTestService(testNow)
	doctorID := uuid.New()

	first := appt("2024-06-10", "09:00", 30, StatusScheduled)
	first.DoctorID = doctorID
	if err := svc.Book(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := appt("2024-06-10", "09:15", 30, StatusScheduled)
	second.DoctorID = doctorID
	err := svc.Book(context.Background(), second)

	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
	if want := "there is already an appointment from 09:00 to 09:30 on 2024-06-10"; overlap.Error() != want {
		t.Errorf("expected %q, got %q", want, overlap.Error())
	}
	if len(repo.appts) != 1 {
		t.Fatalf("overlap rejection must not persist, got %d stored", len(repo.appts))
	}
}

func TestBookAllowsBackToBack(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	first := appt("2024-06-10", "09:00", 30, StatusScheduled)
	first.DoctorID = doctorID
	if err := svc.Book(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := appt("2024-06-10", "09:30", 30, StatusScheduled)
	next.DoctorID = doctorID
	if err := svc.Book(context.Background(), next); err != nil {
		t.Fatalf("unexpected error for back-to-back booking: %v", err)
	}
}

func TestBookAllowsSlotOfCancelledAppointment(t *testing.T) {
	svc, repo := newTestService(testNow)
	doctorID := uuid.New()

	old := appt("2024-06-10", "09:00", 30, StatusScheduled)
	old.DoctorID = doctorID
	if err := svc.Book(context.Background(), old); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Cancel(context.Background(), doctorID, old.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	replacement := appt("2024-06-10", "09:00", 30, StatusScheduled)
	replacement.DoctorID = doctorID
	if err := svc.Book(context.Background(), replacement); err != nil {
		t.Fatalf("expected cancelled slot to be free, got %v", err)
	}
	if len(repo.appts) != 2 {
		t.Fatalf("expected 2 stored appointments, got %d", len(repo.appts))
	}
}

func TestBookDoesNotConflictAcrossDoctors(t *testing.T) {
	svc, _ := newTestService(testNow)

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherDoctor := appt("2024-06-10", "09:00", 30, StatusScheduled)
	if err := svc.Book(context.Background(), otherDoctor); err != nil {
		t.Fatalf("expected no conflict across doctors, got %v", err)
	}
}

func TestBookRejectsPastStart(t *testing.T) {
	svc, repo := newTestService(testNow)

	a := appt("2024-05-20", "09:00", 30, StatusScheduled)
	err := svc.Book(context.Background(), a)

	var past *PastDateError
	if !errors.As(err, &past) {
		t.Fatalf("expected PastDateError, got %v", err)
	}
	if len(repo.appts) != 0 {
		t.Fatal("past booking must not persist")
	}
}

func TestBookRejectsInvalidFields(t *testing.T) {
	svc, _ := newTestService(testNow)

	badType := appt("2024-06-10", "09:00", 30, StatusScheduled)
	badType.AppointmentType = "surgery"
	if err := svc.Book(context.Background(), badType); err == nil {
		t.Error("expected error for unknown appointment type")
	}

	negative := appt("2024-06-10", "09:00", -15, StatusScheduled)
	if err := svc.Book(context.Background(), negative); err == nil {
		t.Error("expected error for negative duration")
	}

	noPatient := appt("2024-06-10", "09:00", 30, StatusScheduled)
	noPatient.PatientID = uuid.Nil
	if err := svc.Book(context.Background(), noPatient); err == nil {
		t.Error("expected error for missing patient")
	}
}

func TestRescheduleExcludesSelf(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	a.DoctorID = doctorID
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Nudge the same appointment 15 minutes later; it overlaps its own old
	// slot, which must not count as a conflict.
	edited := *a
	edited.ScheduledTime = "09:15"
	if err := svc.Reschedule(context.Background(), doctorID, &edited); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Get(context.Background(), doctorID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ScheduledTime != "09:15" {
		t.Errorf("expected rescheduled time 09:15, got %s", got.ScheduledTime)
	}
}

func TestRescheduleConflictsWithOthers(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	blocker := appt("2024-06-10", "10:00", 30, StatusScheduled)
	blocker.DoctorID = doctorID
	if err := svc.Book(context.Background(), blocker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	a.DoctorID = doctorID
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited := *a
	edited.ScheduledTime = "10:15"
	err := svc.Reschedule(context.Background(), doctorID, &edited)

	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
}

func TestRescheduleUnknownAppointment(t *testing.T) {
	svc, _ := newTestService(testNow)

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	if err := svc.Reschedule(context.Background(), a.DoctorID, a); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}

func TestRescheduleOtherDoctorsAppointment(t *testing.T) {
	svc, _ := newTestService(testNow)

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited := *a
	edited.ScheduledTime = "11:00"
	if err := svc.Reschedule(context.Background(), uuid.New(), &edited); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for foreign appointment, got %v", err)
	}
}

func TestUpdateStatusPermissiveTransitions(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	a.DoctorID = doctorID
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Any of the four values may move to any other, including reversals.
	sequence := []string{StatusCompleted, StatusScheduled, StatusNoShow, StatusCancelled, StatusScheduled}
	for _, status := range sequence {
		if err := svc.UpdateStatus(context.Background(), doctorID, a.ID, status); err != nil {
			t.Fatalf("transition to %s: unexpected error: %v", status, err)
		}
		got, err := svc.Get(context.Background(), doctorID, a.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != status {
			t.Errorf("expected status %s, got %s", status, got.Status)
		}
	}
}

func TestUpdateStatusRejectsUnknownWithoutMutation(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	a.DoctorID = doctorID
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, bad := range []string{"rescheduled", "NOSHOW", "Scheduled", ""} {
		if err := svc.UpdateStatus(context.Background(), doctorID, a.ID, bad); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("status %q: expected ErrInvalidStatus, got %v", bad, err)
		}
	}

	got, err := svc.Get(context.Background(), doctorID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusScheduled {
		t.Errorf("rejected update must not mutate, status is %s", got.Status)
	}
}

func TestListTranslatesDateBucket(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	inWeek := appt("2024-06-05", "09:00", 30, StatusScheduled)
	inWeek.DoctorID = doctorID
	outOfWeek := appt("2024-06-20", "09:00", 30, StatusScheduled)
	outOfWeek.DoctorID = doctorID
	for _, a := range []*Appointment{inWeek, outOfWeek} {
		if err := svc.Book(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, total, err := svc.List(context.Background(), doctorID, Filter{DateBucket: "week"}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != inWeek.ID {
		t.Fatalf("expected only the in-week appointment, got %d", total)
	}

	if _, _, err := svc.List(context.Background(), doctorID, Filter{DateBucket: "quarter"}, 20, 0); err == nil {
		t.Error("expected error for unknown bucket")
	}
}

func TestCalendarMonthGroupsByDay(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	morning := appt("2024-06-10", "09:00", 30, StatusScheduled)
	afternoon := appt("2024-06-10", "14:00", 30, StatusScheduled)
	otherDay := appt("2024-06-12", "09:00", 30, StatusScheduled)
	for _, a := range []*Appointment{afternoon, morning, otherDay} {
		a.DoctorID = doctorID
		if err := svc.Book(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	days, err := svc.CalendarMonth(context.Background(), doctorID, 2024, time.June)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected 2 days with appointments, got %d", len(days))
	}
	day := days["2024-06-10"]
	if len(day) != 2 || day[0].ScheduledTime != "09:00" || day[1].ScheduledTime != "14:00" {
		t.Fatalf("expected 2024-06-10 sorted by time, got %+v", day)
	}
}

func TestCalendarMonthFiltersStatusAndOrdersByTime(t *testing.T) {
	svc, repo := newTestService(testNow)
	doctorID := uuid.New()

	completed := appt("2024-06-10", "10:00", 30, StatusCompleted)
	scheduled := appt("2024-06-10", "11:00", 30, StatusScheduled)
	cancelled := appt("2024-06-10", "09:00", 30, StatusCancelled)
	noShow := appt("2024-06-10", "08:00", 30, StatusNoShow)
	for _, a := range []*Appointment{scheduled, cancelled, noShow, completed} {
		a.DoctorID = doctorID
		a.ID = uuid.New()
		cp := *a
		repo.appts[a.ID] = &cp
		repo.order = append(repo.order, a.ID)
	}

	days, err := svc.CalendarMonth(context.Background(), doctorID, 2024, time.June)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	day := days["2024-06-10"]
	if len(day) != 2 {
		t.Fatalf("expected only scheduled and completed appointments, got %d", len(day))
	}
	if day[0].ScheduledTime != "10:00" || day[1].ScheduledTime != "11:00" {
		t.Fatalf("expected ordering by time regardless of status, got %s then %s",
			day[0].ScheduledTime, day[1].ScheduledTime)
	}
}

func TestRescheduleLocksDay(t *testing.T) {
	svc, repo := newTestService(testNow)
	doctorID := uuid.New()

	a := appt("2024-06-10", "09:00", 30, StatusScheduled)
	a.DoctorID = doctorID
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.dayLocks = 0

	edited := *a
	edited.ScheduledTime = "10:00"
	if err := svc.Reschedule(context.Background(), doctorID, &edited); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.dayLocks != 1 {
		t.Errorf("expected the target day to be locked before the overlap check, got %d locks", repo.dayLocks)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(testNow)
	doctorID := uuid.New()

	today := appt("2024-06-01", "15:00", 30, StatusScheduled)
	future := appt("2024-06-10", "09:00", 30, StatusScheduled)
	for _, a := range []*Appointment{today, future} {
		a.DoctorID = doctorID
		if err := svc.Book(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := svc.UpdateStatus(context.Background(), doctorID, future.ID, StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := svc.Stats(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("expected total 2, got %d", stats.Total)
	}
	if stats.Today != 1 {
		t.Errorf("expected 1 appointment today, got %d", stats.Today)
	}
	if stats.ByStatus[StatusScheduled] != 1 || stats.ByStatus[StatusCompleted] != 1 {
		t.Errorf("unexpected status counts: %+v", stats.ByStatus)
	}
}
