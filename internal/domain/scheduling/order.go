package scheduling

import (
	"sort"
	"strings"
	"time"
)

// StatusPriority maps a status to its listing ordinal. Active work sorts
// first, then finished visits, then cancellations, then anything else.
func StatusPriority(status string) int {
	switch status {
	case StatusScheduled:
		return 0
	case StatusCompleted:
		return 1
	case StatusCancelled:
		return 2
	default:
		return 3
	}
}

// SortForListing returns a new slice sorted by the composite listing key:
// status priority, then future-or-today before past, then date ascending,
// then time ascending. The sort is stable, so appointments that tie on the
// full key keep their original relative order.
func SortForListing(appts []*Appointment, today time.Time) []*Appointment {
	out := make([]*Appointment, len(appts))
	copy(out, appts)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		pa, pb := StatusPriority(a.Status), StatusPriority(b.Status)
		if pa != pb {
			return pa < pb
		}

		ba, bb := 0, 0
		if a.IsPast(today) {
			ba = 1
		}
		if b.IsPast(today) {
			bb = 1
		}
		if ba != bb {
			return ba < bb
		}

		if a.ScheduledDate != b.ScheduledDate {
			return a.ScheduledDate < b.ScheduledDate
		}
		return a.ScheduledTime < b.ScheduledTime
	})

	return out
}

// Filter holds optional listing predicates. Zero values mean "no filtering";
// set fields compose with AND.
type Filter struct {
	Status      string
	DateBucket  string // today, tomorrow, week, month
	PatientName string // case-insensitive substring of the patient's name
}

// BucketRange resolves a named date bucket to an inclusive civil date range
// relative to today. Returns ok=false for an unknown bucket name.
func BucketRange(bucket string, today time.Time) (from, to string, ok bool) {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	switch bucket {
	case "today":
		return start.Format(dateLayout), start.Format(dateLayout), true
	case "tomorrow":
		t := start.AddDate(0, 0, 1)
		return t.Format(dateLayout), t.Format(dateLayout), true
	case "week":
		return start.Format(dateLayout), start.AddDate(0, 0, 7).Format(dateLayout), true
	case "month":
		return start.Format(dateLayout), start.AddDate(0, 0, 30).Format(dateLayout), true
	default:
		return "", "", false
	}
}

// Apply filters a set of appointments in memory. Used for views that already
// hold a fetched collection (calendar, patient detail); the main listing
// pushes the same predicates into SQL.
func (f Filter) Apply(appts []*Appointment, today time.Time) []*Appointment {
	var from, to string
	var bucketed bool
	if f.DateBucket != "" {
		from, to, bucketed = BucketRange(f.DateBucket, today)
		if !bucketed {
			return nil
		}
	}

	name := strings.ToLower(f.PatientName)

	var out []*Appointment
	for _, a := range appts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if bucketed && (a.ScheduledDate < from || a.ScheduledDate > to) {
			continue
		}
		if name != "" && !nameMatches(a.PatientName, name) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// nameMatches reports whether needle is a substring of any single name part.
// Matching per part keeps this filter aligned with the SQL listing, which
// tests first and last name as separate columns; a needle spanning the space
// between them never matches.
func nameMatches(full, needle string) bool {
	for _, part := range strings.Fields(strings.ToLower(full)) {
		if strings.Contains(part, needle) {
			return true
		}
	}
	return false
}
