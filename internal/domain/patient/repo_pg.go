package patient

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

const patientCols = `id, doctor_id, first_name, last_name, email, phone, date_of_birth, gender,
	address, city, state, zip_code, emergency_contact_name, emergency_contact_phone,
	medical_history, allergies, status, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob *time.Time
	err := row.Scan(&p.ID, &p.DoctorID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &dob, &p.Gender,
		&p.Address, &p.City, &p.State, &p.ZipCode, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.MedicalHistory, &p.Allergies, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dob != nil {
		p.DateOfBirth = dob.Format(dateLayout)
	}
	return &p, nil
}

// dobArg maps the optional date-of-birth string to a DATE parameter. The
// column is nullable; an unset date must go in as NULL, not "".
func dobArg(dob string) interface{} {
	if dob == "" {
		return nil
	}
	return dob
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, doctor_id, first_name, last_name, email, phone, date_of_birth,
			gender, address, city, state, zip_code, emergency_contact_name, emergency_contact_phone,
			medical_history, allergies, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`,
		p.ID, p.DoctorID, p.FirstName, p.LastName, p.Email, p.Phone, dobArg(p.DateOfBirth),
		p.Gender, p.Address, p.City, p.State, p.ZipCode, p.EmergencyContactName, p.EmergencyContactPhone,
		p.MedicalHistory, p.Allergies, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND doctor_id = $2`, id, doctorID))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET first_name=$3, last_name=$4, email=$5, phone=$6, date_of_birth=$7,
			gender=$8, address=$9, city=$10, state=$11, zip_code=$12,
			emergency_contact_name=$13, emergency_contact_phone=$14,
			medical_history=$15, allergies=$16, status=$17, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2`,
		p.ID, p.DoctorID, p.FirstName, p.LastName, p.Email, p.Phone, dobArg(p.DateOfBirth),
		p.Gender, p.Address, p.City, p.State, p.ZipCode,
		p.EmergencyContactName, p.EmergencyContactPhone,
		p.MedicalHistory, p.Allergies, p.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, doctorID uuid.UUID, params SearchParams, limit, offset int) ([]*Patient, int, error) {
	where := ` FROM patient WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2

	if params.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, params.Status)
		idx++
	}
	if params.Name != "" {
		where += fmt.Sprintf(` AND (first_name ILIKE '%%' || $%d || '%%' OR last_name ILIKE '%%' || $%d || '%%')`, idx, idx)
		args = append(args, params.Name)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + where +
		fmt.Sprintf(` ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CountByStatus(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM patient WHERE doctor_id = $1 GROUP BY status`, doctorID)
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
