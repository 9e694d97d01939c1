package identity

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
)

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByLicense(ctx context.Context, license string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, license string) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, nationalID string) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
