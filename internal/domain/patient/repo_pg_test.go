package patient

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeRow feeds canned column values into scanPatient the way a pgx row
// would, letting the NULL handling be checked without a database.
type fakeRow struct {
	dob *time.Time
}

func (r fakeRow) Scan(dest ...interface{}) error {
	*dest[0].(*uuid.UUID) = uuid.New()
	*dest[1].(*uuid.UUID) = uuid.New()
	*dest[2].(*string) = "John"
	*dest[3].(*string) = "Smith"
	*dest[4].(*string) = "john@example.com"
	*dest[6].(**time.Time) = r.dob
	*dest[7].(*string) = "M"
	*dest[8].(*string) = "1 Main St"
	*dest[9].(*string) = "Springfield"
	*dest[10].(*string) = "IL"
	*dest[11].(*string) = "62701"
	*dest[16].(*string) = StatusActive
	*dest[17].(*time.Time) = time.Now()
	*dest[18].(*time.Time) = time.Now()
	return nil
}

func TestScanPatientNullDateOfBirth(t *testing.T) {
	p, err := scanPatient(fakeRow{dob: nil})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if p.DateOfBirth != "" {
		t.Fatalf("NULL date_of_birth should scan to empty, got %q", p.DateOfBirth)
	}
	if p.Age(time.Now()) != -1 {
		t.Fatal("age of a patient without a date of birth should be -1")
	}
	if p.City != "Springfield" || p.State != "IL" || p.ZipCode != "62701" {
		t.Errorf("address columns misaligned: %q %q %q", p.City, p.State, p.ZipCode)
	}
}

func TestScanPatientSetDateOfBirth(t *testing.T) {
	born := time.Date(1984, 3, 7, 0, 0, 0, 0, time.Local)
	p, err := scanPatient(fakeRow{dob: &born})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if p.DateOfBirth != "1984-03-07" {
		t.Fatalf("expected 1984-03-07, got %q", p.DateOfBirth)
	}
}

func TestDOBArgMapsEmptyToNull(t *testing.T) {
	if got := dobArg(""); got != nil {
		t.Fatalf("empty date of birth must bind as NULL, got %v", got)
	}
	if got := dobArg("1984-03-07"); got != "1984-03-07" {
		t.Fatalf("set date of birth must pass through, got %v", got)
	}
}
