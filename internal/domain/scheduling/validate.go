package scheduling

import (
	"fmt"
	"time"
)

// OverlapError is returned when a candidate appointment's time interval
// intersects an existing appointment on the same doctor's calendar. It
// carries the conflicting slot's window for display.
type OverlapError struct {
	ConflictStart string // "15:04"
	ConflictEnd   string
	Date          string // "2006-01-02"
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("there is already an appointment from %s to %s on %s", e.ConflictStart, e.ConflictEnd, e.Date)
}

// PastDateError is returned when a candidate appointment starts before the
// current moment.
type PastDateError struct{}

func (*PastDateError) Error() string {
	return "cannot schedule an appointment in the past"
}

// Validate checks a candidate appointment against the existing appointments
// on the same doctor's calendar for the same date. Intervals are half-open,
// [start, start+duration), so back-to-back appointments do not conflict.
// Cancelled appointments and the candidate's own stored version (matched by
// ID, for edits) are ignored. The function is pure: it never mutates the
// candidate or the comparison set.
func Validate(candidate *Appointment, existing []*Appointment, now time.Time) error {
	candStart, err := candidate.Start()
	if err != nil {
		return err
	}
	candEnd, err := candidate.End()
	if err != nil {
		return err
	}

	if candStart.Before(now) {
		return &PastDateError{}
	}

	for _, ex := range existing {
		if ex.ID == candidate.ID {
			continue
		}
		if ex.Status == StatusCancelled {
			continue
		}

		exStart, err := ex.Start()
		if err != nil {
			return err
		}
		exEnd, err := ex.End()
		if err != nil {
			return err
		}

		// No overlap when one interval ends at or before the other starts.
		if !candEnd.After(exStart) || !candStart.Before(exEnd) {
			continue
		}

		return &OverlapError{
			ConflictStart: exStart.Format(timeLayout),
			ConflictEnd:   exEnd.Format(timeLayout),
			Date:          ex.ScheduledDate,
		}
	}

	return nil
}
