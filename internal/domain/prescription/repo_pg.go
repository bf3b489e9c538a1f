package prescription

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

const rxCols = `r.id, r.doctor_id, r.patient_id, r.prescription_date, r.notes, r.created_at, r.updated_at`

func scanPrescription(row pgx.Row, withPatient bool) (*Prescription, error) {
	var p Prescription
	var date time.Time
	dest := []interface{}{&p.ID, &p.DoctorID, &p.PatientID, &date, &p.Notes, &p.CreatedAt, &p.UpdatedAt}
	if withPatient {
		dest = append(dest, &p.PatientName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.PrescriptionDate = date.Format(dateLayout)
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (id, doctor_id, patient_id, prescription_date, notes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		p.ID, p.DoctorID, p.PatientID, p.PrescriptionDate, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) InsertMedicines(ctx context.Context, prescriptionID uuid.UUID, medicines []Medicine) error {
	for i := range medicines {
		m := &medicines[i]
		m.ID = uuid.New()
		m.PrescriptionID = prescriptionID
		m.Position = i
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_medicine (id, prescription_id, name, dosage, frequency, duration, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			m.ID, m.PrescriptionID, m.Name, m.Dosage, m.Frequency, m.Duration, m.Position)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `
		SELECT `+rxCols+`, pt.first_name || ' ' || pt.last_name
		FROM prescription r
		JOIN patient pt ON pt.id = r.patient_id
		WHERE r.id = $1 AND r.doctor_id = $2`, id, doctorID), true)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, name, dosage, frequency, duration, position
		FROM prescription_medicine WHERE prescription_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.PrescriptionID, &m.Name, &m.Dosage, &m.Frequency, &m.Duration, &m.Position); err != nil {
			return nil, err
		}
		p.Medicines = append(p.Medicines, m)
	}
	return p, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET patient_id=$3, prescription_date=$4, notes=$5, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2`,
		p.ID, p.DoctorID, p.PatientID, p.PrescriptionDate, p.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) DeleteMedicines(ctx context.Context, prescriptionID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_medicine WHERE prescription_id = $1`, prescriptionID)
	return err
}

func (r *repoPG) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Prescription, int, error) {
	where := ` FROM prescription r JOIN patient pt ON pt.id = r.patient_id WHERE r.doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2

	if params.PatientID != uuid.Nil {
		where += fmt.Sprintf(` AND r.patient_id = $%d`, idx)
		args = append(args, params.PatientID)
		idx++
	}
	if params.DateFrom != "" {
		where += fmt.Sprintf(` AND r.prescription_date >= $%d`, idx)
		args = append(args, params.DateFrom)
		idx++
	}
	if params.DateTo != "" {
		where += fmt.Sprintf(` AND r.prescription_date <= $%d`, idx)
		args = append(args, params.DateTo)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + rxCols + `, pt.first_name || ' ' || pt.last_name` + where +
		fmt.Sprintf(` ORDER BY r.prescription_date DESC, r.created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows, true)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CountSince(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE doctor_id = $1 AND prescription_date >= $2`,
		doctorID, date).Scan(&n)
	return n, err
}

func (r *repoPG) Count(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}
