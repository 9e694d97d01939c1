package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// activeSlotIndex is the partial unique index that keeps two active
// appointments off the same doctor and instant.
const activeSlotIndex = "appointment_active_slot_uq"

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn() queryable { return r.pool }

const apptCols = `id, doctor_license, patient_national_id, scheduled_at, notes, status, created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var code string
	err := row.Scan(&a.ID, &a.DoctorLicense, &a.PatientNationalID, &a.ScheduledAt, &a.Notes, &code,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.status, err = ParseStatusCode(code); err != nil {
		return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	return &a, nil
}

func (r *appointmentRepoPG) collect(rows pgx.Rows, err error) ([]*Appointment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn().QueryRow(ctx, `
		INSERT INTO appointment (id, doctor_license, patient_national_id, scheduled_at, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorLicense, a.PatientNationalID, a.ScheduledAt, a.Notes, a.status.Code(),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, activeSlotIndex) {
		return fmt.Errorf("%w: doctor %s at %s: %w", ErrSlotUnavailable, a.DoctorLicense,
			a.ScheduledAt.Format(time.RFC3339), err)
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn().QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn().QueryRow(ctx, `
		UPDATE appointment SET notes=$2, status=$3, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Notes, a.status.Code(),
	).Scan(&a.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err, activeSlotIndex):
		return fmt.Errorf("%w: %w", ErrSlotUnavailable, err)
	}
	return err
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn().Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*Appointment, error) {
	return r.collect(r.conn().Query(ctx, `SELECT `+apptCols+` FROM appointment ORDER BY scheduled_at`))
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, license string) ([]*Appointment, error) {
	return r.collect(r.conn().Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE doctor_license = $1 ORDER BY scheduled_at`, license))
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, nationalID string) ([]*Appointment, error) {
	return r.collect(r.conn().Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE patient_national_id = $1 ORDER BY scheduled_at`, nationalID))
}

func (r *appointmentRepoPG) ListActiveByDoctorOn(ctx context.Context, license string, date time.Time) ([]*Appointment, error) {
	start, end := dayBounds(date)
	return r.collect(r.conn().Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE doctor_license = $1 AND scheduled_at >= $2 AND scheduled_at < $3 AND status = ANY($4)
		ORDER BY scheduled_at`,
		license, start, end, activeStatusCodes()))
}
