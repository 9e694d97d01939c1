package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository is the appointment side of the record store. Create
// assigns the surrogate id. Lookups of a missing id return ErrNotFound.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, license string) ([]*Appointment, error)
	ListByPatient(ctx context.Context, nationalID string) ([]*Appointment, error)
	// ListActiveByDoctorOn returns the doctor's SCHEDULED and COMPLETED
	// appointments falling on date's calendar day in date's location.
	ListActiveByDoctorOn(ctx context.Context, license string, date time.Time) ([]*Appointment, error)
}
