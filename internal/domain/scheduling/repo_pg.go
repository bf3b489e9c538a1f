package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcare/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `a.id, a.doctor_id, a.patient_id, a.appointment_type, a.scheduled_date,
	a.scheduled_time, a.duration_minutes, a.status, a.notes, a.created_at, a.updated_at`

// Stable composite listing order: lifecycle stage, then future-or-today
// before past, then soonest first. created_at and id break remaining ties.
const apptOrder = `
	CASE a.status WHEN 'scheduled' THEN 0 WHEN 'completed' THEN 1 WHEN 'cancelled' THEN 2 ELSE 3 END,
	CASE WHEN a.scheduled_date < CURRENT_DATE THEN 1 ELSE 0 END,
	a.scheduled_date, a.scheduled_time, a.created_at, a.id`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.AppointmentType, &date,
		&a.ScheduledTime, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ScheduledDate = date.Format(dateLayout)
	return &a, nil
}

func scanApptWithPatient(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.AppointmentType, &date,
		&a.ScheduledTime, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		&a.PatientName)
	if err != nil {
		return nil, err
	}
	a.ScheduledDate = date.Format(dateLayout)
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, doctor_id, patient_id, appointment_type,
			scheduled_date, scheduled_time, duration_minutes, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.PatientID, a.AppointmentType,
		a.ScheduledDate, a.ScheduledTime, a.DurationMinutes, a.Status, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Appointment, error) {
	return scanApptWithPatient(r.conn(ctx).QueryRow(ctx, `
		SELECT `+apptCols+`, p.first_name || ' ' || p.last_name
		FROM appointment a
		JOIN patient p ON p.id = a.patient_id
		WHERE a.id = $1 AND a.doctor_id = $2`, id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET patient_id=$3, appointment_type=$4, scheduled_date=$5,
			scheduled_time=$6, duration_minutes=$7, status=$8, notes=$9, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2`,
		a.ID, a.DoctorID, a.PatientID, a.AppointmentType, a.ScheduledDate,
		a.ScheduledTime, a.DurationMinutes, a.Status, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, doctorID, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $3, updated_at = NOW()
		WHERE id = $1 AND doctor_id = $2`, id, doctorID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) LockDay(ctx context.Context, doctorID uuid.UUID, date string) error {
	// pg_advisory_xact_lock releases on commit or rollback; hashing the
	// doctor-day key spreads the lock space over the bigint domain.
	_, err := r.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, doctorID.String()+":"+date)
	return err
}

func (r *repoPG) ListForDay(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment a
		WHERE a.doctor_id = $1 AND a.scheduled_date = $2
		ORDER BY a.scheduled_time`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppts(rows, scanAppt)
}

func (r *repoPG) Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Appointment, int, error) {
	where := ` FROM appointment a JOIN patient p ON p.id = a.patient_id WHERE a.doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2

	if params.Status != "" {
		where += fmt.Sprintf(` AND a.status = $%d`, idx)
		args = append(args, params.Status)
		idx++
	}
	if params.DateFrom != "" {
		where += fmt.Sprintf(` AND a.scheduled_date >= $%d`, idx)
		args = append(args, params.DateFrom)
		idx++
	}
	if params.DateTo != "" {
		where += fmt.Sprintf(` AND a.scheduled_date <= $%d`, idx)
		args = append(args, params.DateTo)
		idx++
	}
	if params.PatientName != "" {
		where += fmt.Sprintf(` AND (p.first_name ILIKE '%%' || $%d || '%%' OR p.last_name ILIKE '%%' || $%d || '%%')`, idx, idx)
		args = append(args, params.PatientName)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + `, p.first_name || ' ' || p.last_name` + where +
		` ORDER BY` + apptOrder +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectAppts(rows, scanApptWithPatient)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+`, p.first_name || ' ' || p.last_name
		FROM appointment a
		JOIN patient p ON p.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.patient_id = $2
		ORDER BY a.scheduled_date DESC, a.scheduled_time DESC`, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppts(rows, scanApptWithPatient)
}

func (r *repoPG) ListRange(ctx context.Context, doctorID uuid.UUID, dateFrom, dateTo string) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+`, p.first_name || ' ' || p.last_name
		FROM appointment a
		JOIN patient p ON p.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.scheduled_date BETWEEN $2 AND $3
			AND a.status IN ('scheduled', 'completed')
		ORDER BY a.scheduled_date, a.scheduled_time`, doctorID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppts(rows, scanApptWithPatient)
}

func (r *repoPG) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, COUNT(*) FROM appointment WHERE doctor_id = $1 GROUP BY status`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) CountForDate(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment WHERE doctor_id = $1 AND scheduled_date = $2`, doctorID, date).Scan(&n)
	return n, err
}

func collectAppts(rows pgx.Rows, scan func(pgx.Row) (*Appointment, error)) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
