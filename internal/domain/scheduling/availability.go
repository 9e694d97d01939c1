package scheduling

import (
	"context"
	"time"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/identity"
)

// Resolver answers which slots of the grid are still open for a doctor on a
// given day. It never writes.
type Resolver struct {
	appointments AppointmentRepository
}

func NewResolver(appointments AppointmentRepository) *Resolver {
	return &Resolver{appointments: appointments}
}

// AvailableSlots returns the slot grid minus the times already taken by the
// doctor's SCHEDULED or COMPLETED appointments on date's calendar day, in grid
// order. Without a doctor or a date the whole grid is returned. Store errors
// are returned unchanged.
func (r *Resolver) AvailableSlots(ctx context.Context, doctor *identity.Doctor, date time.Time) ([]string, error) {
	if doctor == nil || date.IsZero() {
		return SlotGrid(), nil
	}
	taken, err := r.takenSlots(ctx, doctor.License, date)
	if err != nil {
		return nil, err
	}
	open := make([]string, 0, len(slotGrid))
	for _, slot := range slotGrid {
		if !taken[slot] {
			open = append(open, slot)
		}
	}
	return open, nil
}

func (r *Resolver) takenSlots(ctx context.Context, license string, date time.Time) (map[string]bool, error) {
	appts, err := r.appointments.ListActiveByDoctorOn(ctx, license, date)
	if err != nil {
		return nil, err
	}
	loc := date.Location()
	taken := make(map[string]bool, len(appts))
	for _, a := range appts {
		at := a.ScheduledAt.In(loc)
		if a.DoctorLicense != license || !a.status.Active() || !sameDay(at, date) {
			continue
		}
		taken[SlotOf(at)] = true
	}
	return taken, nil
}

// conflicting returns the active appointment of the doctor at exactly at's
// minute, if any.
func (r *Resolver) conflicting(ctx context.Context, license string, at time.Time) (*Appointment, error) {
	appts, err := r.appointments.ListActiveByDoctorOn(ctx, license, at)
	if err != nil {
		return nil, err
	}
	want := at.Truncate(time.Minute)
	for _, a := range appts {
		if a.DoctorLicense == license && a.status.Active() && a.ScheduledAt.Truncate(time.Minute).Equal(want) {
			return a, nil
		}
	}
	return nil, nil
}
