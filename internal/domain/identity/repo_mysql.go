package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/db"
)

// doctorRow is the MySQL layout of a doctor. Weekdays are stored as a
// comma separated list of weekday numbers.
type doctorRow struct {
	License   string `gorm:"primaryKey;size:20"`
	Name      string `gorm:"size:120;not null"`
	Specialty string `gorm:"size:80"`
	Weekdays  string `gorm:"size:20"`
	StartTime string `gorm:"size:5;not null"`
	EndTime   string `gorm:"size:5;not null"`
	Room      string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (doctorRow) TableName() string { return "doctor" }

type patientRow struct {
	NationalID     string    `gorm:"primaryKey;size:14"`
	Name           string    `gorm:"size:120;not null"`
	BirthDate      time.Time `gorm:"type:date"`
	Address        string    `gorm:"size:255"`
	Phone          string    `gorm:"size:20"`
	MedicalHistory string    `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (patientRow) TableName() string { return "patient" }

// MySQLModels lists the gorm models owned by this package, for AutoMigrate.
func MySQLModels() []interface{} {
	return []interface{}{&doctorRow{}, &patientRow{}}
}

// -- Doctor Repository --

type doctorRepoMySQL struct{ db *gorm.DB }

func NewDoctorRepoMySQL(gdb *gorm.DB) DoctorRepository { return &doctorRepoMySQL{db: gdb} }

func (r *doctorRepoMySQL) Create(ctx context.Context, d *Doctor) error {
	row := doctorToRow(d)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("doctor %s: %w", d.License, ErrAlreadyExists)
		}
		return err
	}
	d.CreatedAt, d.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *doctorRepoMySQL) GetByLicense(ctx context.Context, license string) (*Doctor, error) {
	var row doctorRow
	if err := r.db.WithContext(ctx).First(&row, "license = ?", license).Error; err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rowToDoctor(row), nil
}

func (r *doctorRepoMySQL) Update(ctx context.Context, d *Doctor) error {
	row := doctorToRow(d)
	res := r.db.WithContext(ctx).Model(&doctorRow{}).Where("license = ?", d.License).Updates(map[string]interface{}{
		"name":       row.Name,
		"specialty":  row.Specialty,
		"weekdays":   row.Weekdays,
		"start_time": row.StartTime,
		"end_time":   row.EndTime,
		"room":       row.Room,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.exists(ctx, d.License)
	}
	return nil
}

// MySQL counts unchanged rows as unaffected.
func (r *doctorRepoMySQL) exists(ctx context.Context, license string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&doctorRow{}).Where("license = ?", license).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoMySQL) Delete(ctx context.Context, license string) error {
	res := r.db.WithContext(ctx).Delete(&doctorRow{}, "license = ?", license)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoMySQL) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&doctorRow{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []doctorRow
	if err := r.db.WithContext(ctx).Order("name").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]*Doctor, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToDoctor(row))
	}
	return items, int(total), nil
}

func doctorToRow(d *Doctor) doctorRow {
	days := make([]string, len(d.Weekdays))
	for i, w := range d.Weekdays {
		days[i] = strconv.Itoa(int(w))
	}
	return doctorRow{
		License:   d.License,
		Name:      d.Name,
		Specialty: d.Specialty,
		Weekdays:  strings.Join(days, ","),
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Room:      d.Room,
	}
}

func rowToDoctor(row doctorRow) *Doctor {
	d := &Doctor{
		License:   row.License,
		Name:      row.Name,
		Specialty: row.Specialty,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Room:      row.Room,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for _, part := range strings.Split(row.Weekdays, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		d.Weekdays = append(d.Weekdays, time.Weekday(n))
	}
	return d
}

// -- Patient Repository --

type patientRepoMySQL struct{ db *gorm.DB }

func NewPatientRepoMySQL(gdb *gorm.DB) PatientRepository { return &patientRepoMySQL{db: gdb} }

func (r *patientRepoMySQL) Create(ctx context.Context, p *Patient) error {
	row := patientToRow(p)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("patient %s: %w", p.NationalID, ErrAlreadyExists)
		}
		return err
	}
	p.CreatedAt, p.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *patientRepoMySQL) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	var row patientRow
	if err := r.db.WithContext(ctx).First(&row, "national_id = ?", nationalID).Error; err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rowToPatient(row), nil
}

func (r *patientRepoMySQL) Update(ctx context.Context, p *Patient) error {
	res := r.db.WithContext(ctx).Model(&patientRow{}).Where("national_id = ?", p.NationalID).Updates(map[string]interface{}{
		"name":            p.Name,
		"birth_date":      p.BirthDate,
		"address":         p.Address,
		"phone":           p.Phone,
		"medical_history": p.MedicalHistory,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&patientRow{}).Where("national_id = ?", p.NationalID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (r *patientRepoMySQL) Delete(ctx context.Context, nationalID string) error {
	res := r.db.WithContext(ctx).Delete(&patientRow{}, "national_id = ?", nationalID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoMySQL) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&patientRow{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []patientRow
	if err := r.db.WithContext(ctx).Order("name").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]*Patient, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToPatient(row))
	}
	return items, int(total), nil
}

func patientToRow(p *Patient) patientRow {
	return patientRow{
		NationalID:     p.NationalID,
		Name:           p.Name,
		BirthDate:      p.BirthDate,
		Address:        p.Address,
		Phone:          p.Phone,
		MedicalHistory: p.MedicalHistory,
	}
}

func rowToPatient(row patientRow) *Patient {
	return &Patient{
		NationalID:     row.NationalID,
		Name:           row.Name,
		BirthDate:      row.BirthDate,
		Address:        row.Address,
		Phone:          row.Phone,
		MedicalHistory: row.MedicalHistory,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
