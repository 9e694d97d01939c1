package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/db"
)

// appointmentRow is the MySQL layout of an appointment. Status holds the
// single-letter code.
type appointmentRow struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)"`
	DoctorLicense     string    `gorm:"size:20;not null;index:idx_appointment_doctor_time"`
	PatientNationalID string    `gorm:"size:14;not null;index"`
	ScheduledAt       time.Time `gorm:"not null;index:idx_appointment_doctor_time"`
	Notes             string    `gorm:"type:text"`
	Status            string    `gorm:"type:char(1);not null;default:'A'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (appointmentRow) TableName() string { return "appointment" }

// MySQLModels lists the gorm models owned by this package, for AutoMigrate.
func MySQLModels() []interface{} {
	return []interface{}{&appointmentRow{}}
}

type appointmentRepoMySQL struct{ db *gorm.DB }

func NewAppointmentRepoMySQL(gdb *gorm.DB) AppointmentRepository {
	return &appointmentRepoMySQL{db: gdb}
}

func (r *appointmentRepoMySQL) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	row := appointmentToRow(a)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	a.CreatedAt, a.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *appointmentRepoMySQL) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var row appointmentRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error; err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rowToAppointment(row)
}

func (r *appointmentRepoMySQL) Update(ctx context.Context, a *Appointment) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&appointmentRow{}).Where("id = ?", a.ID.String()).Updates(map[string]interface{}{
		"notes":      a.Notes,
		"status":     a.status.Code(),
		"updated_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&appointmentRow{}).Where("id = ?", a.ID.String()).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	a.UpdatedAt = now
	return nil
}

func (r *appointmentRepoMySQL) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&appointmentRow{}, "id = ?", id.String())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoMySQL) find(tx *gorm.DB) ([]*Appointment, error) {
	var rows []appointmentRow
	if err := tx.Order("scheduled_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*Appointment, 0, len(rows))
	for _, row := range rows {
		a, err := rowToAppointment(row)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *appointmentRepoMySQL) List(ctx context.Context) ([]*Appointment, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *appointmentRepoMySQL) ListByDoctor(ctx context.Context, license string) ([]*Appointment, error) {
	return r.find(r.db.WithContext(ctx).Where("doctor_license = ?", license))
}

func (r *appointmentRepoMySQL) ListByPatient(ctx context.Context, nationalID string) ([]*Appointment, error) {
	return r.find(r.db.WithContext(ctx).Where("patient_national_id = ?", nationalID))
}

func (r *appointmentRepoMySQL) ListActiveByDoctorOn(ctx context.Context, license string, date time.Time) ([]*Appointment, error) {
	return r.find(activeOn(r.db.WithContext(ctx), license, date))
}

// activeOn scopes tx to the doctor's SCHEDULED and COMPLETED appointments on
// date's calendar day, in date's location.
func activeOn(tx *gorm.DB, license string, date time.Time) *gorm.DB {
	start, end := dayBounds(date)
	return tx.Where("doctor_license = ? AND scheduled_at >= ? AND scheduled_at < ? AND status IN ?",
		license, start, end, activeStatusCodes())
}

func appointmentToRow(a *Appointment) appointmentRow {
	return appointmentRow{
		ID:                a.ID.String(),
		DoctorLicense:     a.DoctorLicense,
		PatientNationalID: a.PatientNationalID,
		ScheduledAt:       a.ScheduledAt,
		Notes:             a.Notes,
		Status:            a.status.Code(),
	}
}

func rowToAppointment(row appointmentRow) (*Appointment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("appointment id %q: %w", row.ID, err)
	}
	status, err := ParseStatusCode(row.Status)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", row.ID, err)
	}
	return &Appointment{
		ID:                id,
		DoctorLicense:     row.DoctorLicense,
		PatientNationalID: row.PatientNationalID,
		ScheduledAt:       row.ScheduledAt,
		Notes:             row.Notes,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
		status:            status,
	}, nil
}
