package consultation

import (
	"context"
	"fmt"

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

const consultCols = `c.id, c.appointment_id, c.doctor_id, c.patient_id, c.chief_complaint,
	c.diagnosis, c.treatment_plan, c.medications, c.follow_up_notes, c.status,
	c.created_at, c.updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.AppointmentID, &c.DoctorID, &c.PatientID, &c.ChiefComplaint,
		&c.Diagnosis, &c.TreatmentPlan, &c.Medications, &c.FollowUpNotes, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanConsultationWithPatient(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.AppointmentID, &c.DoctorID, &c.PatientID, &c.ChiefComplaint,
		&c.Diagnosis, &c.TreatmentPlan, &c.Medications, &c.FollowUpNotes, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &c.PatientName)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	c.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultation (id, appointment_id, doctor_id, patient_id, chief_complaint,
			diagnosis, treatment_plan, medications, follow_up_notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		c.ID, c.AppointmentID, c.DoctorID, c.PatientID, c.ChiefComplaint,
		c.Diagnosis, c.TreatmentPlan, c.Medications, c.FollowUpNotes, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultCols+` FROM consultation c WHERE c.id = $1 AND c.doctor_id = $2`, id, doctorID))
}

func (r *repoPG) GetByAppointment(ctx context.Context, doctorID, appointmentID uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultCols+` FROM consultation c WHERE c.appointment_id = $1 AND c.doctor_id = $2`,
		appointmentID, doctorID))
}

func (r *repoPG) Update(ctx context.Context, c *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET chief_complaint=$3, diagnosis=$4, treatment_plan=$5,
			medications=$6, follow_up_notes=$7, status=$8, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2`,
		c.ID, c.DoctorID, c.ChiefComplaint, c.Diagnosis, c.TreatmentPlan,
		c.Medications, c.FollowUpNotes, c.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM consultation WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Consultation, int, error) {
	where := ` FROM consultation c JOIN patient p ON p.id = c.patient_id WHERE c.doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2

	if params.Status != "" {
		where += fmt.Sprintf(` AND c.status = $%d`, idx)
		args = append(args, params.Status)
		idx++
	}
	if params.PatientID != uuid.Nil {
		where += fmt.Sprintf(` AND c.patient_id = $%d`, idx)
		args = append(args, params.PatientID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + consultCols + `, p.first_name || ' ' || p.last_name` + where +
		fmt.Sprintf(` ORDER BY c.created_at DESC, c.id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultationWithPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM consultation WHERE doctor_id = $1 GROUP BY status`, doctorID)
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
