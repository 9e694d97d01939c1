package identity

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
	now      func() time.Time
}

func NewService(doctors DoctorRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients, now: time.Now}
}

// -- Doctor --

func (s *Service) validateDoctor(d *Doctor) error {
	d.License = strings.TrimSpace(d.License)
	d.Name = strings.TrimSpace(d.Name)
	if d.License == "" {
		return fmt.Errorf("%w: license is required", ErrValidation)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	start, end, err := d.Hours()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start_time %s must be before end_time %s", ErrValidation, d.StartTime, d.EndTime)
	}
	seen := make(map[time.Weekday]bool, len(d.Weekdays))
	for _, w := range d.Weekdays {
		if w < time.Sunday || w > time.Saturday {
			return fmt.Errorf("%w: invalid weekday %d", ErrValidation, w)
		}
		if seen[w] {
			return fmt.Errorf("%w: duplicate weekday %s", ErrValidation, w)
		}
		seen[w] = true
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if err := s.validateDoctor(d); err != nil {
		return err
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, license string) (*Doctor, error) {
	return s.doctors.GetByLicense(ctx, license)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if err := s.validateDoctor(d); err != nil {
		return err
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, license string) error {
	return s.doctors.Delete(ctx, license)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// -- Patient --

func (s *Service) validatePatient(p *Patient) error {
	p.NationalID = strings.TrimSpace(p.NationalID)
	p.Name = strings.TrimSpace(p.Name)
	if p.NationalID == "" {
		return fmt.Errorf("%w: national_id is required", ErrValidation)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.BirthDate.After(s.now()) {
		return fmt.Errorf("%w: birth_date cannot be in the future", ErrValidation)
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := s.validatePatient(p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, nationalID string) (*Patient, error) {
	return s.patients.GetByNationalID(ctx, nationalID)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := s.validatePatient(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, nationalID string) error {
	return s.patients.Delete(ctx, nationalID)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
