package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// -- Doctor Repository --

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn() queryable { return r.pool }

const doctorCols = `license, name, specialty, weekdays, start_time, end_time, room, created_at, updated_at`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var weekdays []int16
	err := row.Scan(&d.License, &d.Name, &d.Specialty, &weekdays, &d.StartTime, &d.EndTime,
		&d.Room, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Weekdays = weekdaysFromInts(weekdays)
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn().QueryRow(ctx, `
		INSERT INTO doctor (license, name, specialty, weekdays, start_time, end_time, room)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		d.License, d.Name, d.Specialty, weekdaysToInts(d.Weekdays), d.StartTime, d.EndTime, d.Room,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("doctor %s: %w", d.License, ErrAlreadyExists)
	}
	return err
}

func (r *doctorRepoPG) GetByLicense(ctx context.Context, license string) (*Doctor, error) {
	return r.scanDoctor(r.conn().QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE license = $1`, license))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn().Exec(ctx, `
		UPDATE doctor SET name=$2, specialty=$3, weekdays=$4, start_time=$5, end_time=$6, room=$7,
			updated_at=NOW()
		WHERE license = $1`,
		d.License, d.Name, d.Specialty, weekdaysToInts(d.Weekdays), d.StartTime, d.EndTime, d.Room)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, license string) error {
	tag, err := r.conn().Exec(ctx, `DELETE FROM doctor WHERE license = $1`, license)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn().QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn().Query(ctx, `SELECT `+doctorCols+` FROM doctor ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// -- Patient Repository --

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn() queryable { return r.pool }

const patientCols = `national_id, name, birth_date, address, phone, medical_history, created_at, updated_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.NationalID, &p.Name, &p.BirthDate, &p.Address, &p.Phone, &p.MedicalHistory,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn().QueryRow(ctx, `
		INSERT INTO patient (national_id, name, birth_date, address, phone, medical_history)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		p.NationalID, p.Name, p.BirthDate, p.Address, p.Phone, p.MedicalHistory,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("patient %s: %w", p.NationalID, ErrAlreadyExists)
	}
	return err
}

func (r *patientRepoPG) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	return r.scanPatient(r.conn().QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE national_id = $1`, nationalID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn().Exec(ctx, `
		UPDATE patient SET name=$2, birth_date=$3, address=$4, phone=$5, medical_history=$6,
			updated_at=NOW()
		WHERE national_id = $1`,
		p.NationalID, p.Name, p.BirthDate, p.Address, p.Phone, p.MedicalHistory)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, nationalID string) error {
	tag, err := r.conn().Exec(ctx, `DELETE FROM patient WHERE national_id = $1`, nationalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn().QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn().Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func weekdaysToInts(days []time.Weekday) []int16 {
	out := make([]int16, len(days))
	for i, d := range days {
		out[i] = int16(d)
	}
	return out
}

func weekdaysFromInts(in []int16) []time.Weekday {
	out := make([]time.Weekday, len(in))
	for i, d := range in {
		out[i] = time.Weekday(d)
	}
	return out
}
