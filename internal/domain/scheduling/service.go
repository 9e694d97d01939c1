package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/domain/identity"
	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/metrics"
)

// Directory resolves the doctor and patient an appointment refers to.
// identity.Service satisfies it.
type Directory interface {
	GetDoctor(ctx context.Context, license string) (*identity.Doctor, error)
	GetPatient(ctx context.Context, nationalID string) (*identity.Patient, error)
}

// Service is the appointment lifecycle manager. It validates creation and
// the SCHEDULED -> COMPLETED | CANCELLED | NO_SHOW transitions and leaves
// persistence to the repository.
type Service struct {
	appointments AppointmentRepository
	directory    Directory
	resolver     *Resolver
	notifier     ConfirmationSender
	logger       zerolog.Logger
	now          func() time.Time
	loc          *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now as the reference for "the past".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the clinic's time zone, used for calendar days and
// confirmation messages.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithNotifier(n ConfirmationSender) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(appts AppointmentRepository, dir Directory, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		appointments: appts,
		directory:    dir,
		resolver:     NewResolver(appts),
		logger:       logger.With().Str("component", "scheduling").Logger(),
		now:          time.Now,
		loc:          time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the clinic's time zone.
func (s *Service) Location() *time.Location { return s.loc }

// -- Availability --

// AvailableSlots reads date as a calendar day in the clinic's time zone,
// whatever location the caller built it in.
func (s *Service) AvailableSlots(ctx context.Context, doctor *identity.Doctor, date time.Time) ([]string, error) {
	return s.resolver.AvailableSlots(ctx, doctor, s.clinicDay(date))
}

// clinicDay moves the calendar date of t to midnight in the clinic zone.
func (s *Service) clinicDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// AvailableSlotsByLicense resolves the doctor first. An unknown doctor yields
// the full grid, like an unselected one.
func (s *Service) AvailableSlotsByLicense(ctx context.Context, license string, date time.Time) ([]string, error) {
	if license == "" {
		return SlotGrid(), nil
	}
	doctor, err := s.directory.GetDoctor(ctx, license)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return SlotGrid(), nil
		}
		return nil, err
	}
	return s.AvailableSlots(ctx, doctor, date)
}

// -- Creation --

// Schedule books doctor for patient at the given instant with status
// SCHEDULED. The instant must not be in the past, must fall on a slot of the
// grid in the clinic's time zone, and the doctor must not already hold an
// active appointment at that minute.
func (s *Service) Schedule(ctx context.Context, doctor *identity.Doctor, patient *identity.Patient, at time.Time, notes string) (*Appointment, error) {
	switch {
	case doctor == nil:
		return nil, &SchedulingError{Reason: "doctor is required"}
	case patient == nil:
		return nil, &SchedulingError{Reason: "patient is required"}
	case at.IsZero():
		return nil, &SchedulingError{Reason: "date and time are required"}
	case at.Before(s.now()):
		return nil, &SchedulingError{Reason: "cannot schedule in the past"}
	}

	at = at.In(s.loc)
	if at.Second() != 0 || at.Nanosecond() != 0 || !IsGridSlot(SlotOf(at)) {
		return nil, &SchedulingError{Reason: fmt.Sprintf("%s is not a bookable time", at.Format("15:04:05"))}
	}
	existing, err := s.resolver.conflicting(ctx, doctor.License, at)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: doctor %s already has appointment %s at %s",
			ErrSlotUnavailable, doctor.License, existing.ID, at.Format(time.RFC3339))
	}

	a := &Appointment{
		DoctorLicense:     doctor.License,
		PatientNationalID: patient.NationalID,
		ScheduledAt:       at,
		Notes:             notes,
		status:            StatusScheduled,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	a.Doctor, a.Patient = doctor, patient

	metrics.AppointmentsScheduled.Inc()
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor", a.DoctorLicense).
		Str("patient", a.PatientNationalID).
		Time("scheduled_at", a.ScheduledAt).
		Msg("appointment scheduled")
	return a, nil
}

// ScheduleByKeys resolves both references before scheduling. A reference that
// cannot be resolved fails the request.
func (s *Service) ScheduleByKeys(ctx context.Context, license, nationalID string, at time.Time, notes string) (*Appointment, error) {
	doctor, err := s.directory.GetDoctor(ctx, license)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: %w", license, err)
	}
	patient, err := s.directory.GetPatient(ctx, nationalID)
	if err != nil {
		return nil, fmt.Errorf("patient %s: %w", nationalID, err)
	}
	return s.Schedule(ctx, doctor, patient, at, notes)
}

// -- Transitions --

// Complete moves a SCHEDULED appointment to COMPLETED and replaces its notes.
func (s *Service) Complete(ctx context.Context, a *Appointment, notes string) error {
	return s.transition(ctx, a, StatusCompleted, func(next *Appointment) error {
		next.Notes = notes
		return nil
	})
}

// Cancel moves a SCHEDULED appointment to CANCELLED, releasing its slot.
func (s *Service) Cancel(ctx context.Context, a *Appointment) error {
	return s.transition(ctx, a, StatusCancelled, nil)
}

// MarkNoShow moves a SCHEDULED appointment whose time has passed to NO_SHOW.
func (s *Service) MarkNoShow(ctx context.Context, a *Appointment) error {
	return s.transition(ctx, a, StatusNoShow, func(next *Appointment) error {
		if next.ScheduledAt.After(s.now()) {
			return &TransitionError{From: next.status, To: StatusNoShow, Reason: "appointment time has not passed"}
		}
		return nil
	})
}

// transition persists a copy of a in the target status and only updates a
// once the store accepts it.
func (s *Service) transition(ctx context.Context, a *Appointment, to Status, prepare func(next *Appointment) error) error {
	if a == nil {
		return &TransitionError{To: to, Reason: "no appointment"}
	}
	if a.status != StatusScheduled {
		return &TransitionError{From: a.status, To: to}
	}
	next := *a
	if prepare != nil {
		if err := prepare(&next); err != nil {
			return err
		}
	}
	next.status = to
	if err := s.appointments.Update(ctx, &next); err != nil {
		return err
	}
	*a = next

	metrics.AppointmentTransitions.WithLabelValues(to.String()).Inc()
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Stringer("status", to).
		Msg("appointment status changed")
	return nil
}

// UpdateNotes rewrites the notes regardless of status.
func (s *Service) UpdateNotes(ctx context.Context, a *Appointment, notes string) error {
	if a == nil {
		return ErrNotFound
	}
	next := *a
	next.Notes = notes
	if err := s.appointments.Update(ctx, &next); err != nil {
		return err
	}
	*a = next
	return nil
}

// -- Reads --

func (s *Service) hydrate(ctx context.Context, a *Appointment) error {
	doctor, err := s.directory.GetDoctor(ctx, a.DoctorLicense)
	if err != nil {
		return fmt.Errorf("doctor %s: %w", a.DoctorLicense, err)
	}
	patient, err := s.directory.GetPatient(ctx, a.PatientNationalID)
	if err != nil {
		return fmt.Errorf("patient %s: %w", a.PatientNationalID, err)
	}
	a.Doctor, a.Patient = doctor, patient
	return nil
}

// hydrateAll drops, with a warning, appointments whose doctor or patient no
// longer exists. Any other lookup error aborts the load.
func (s *Service) hydrateAll(ctx context.Context, items []*Appointment) ([]*Appointment, error) {
	out := make([]*Appointment, 0, len(items))
	for _, a := range items {
		if err := s.hydrate(ctx, a); err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				s.logger.Warn().Err(err).
					Str("appointment_id", a.ID.String()).
					Msg("skipping appointment with unresolved reference")
				continue
			}
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAppointment loads one appointment with its doctor and patient. A missing
// reference is an error.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	items, err := s.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, items)
}

func (s *Service) ListByDoctor(ctx context.Context, license string) ([]*Appointment, error) {
	items, err := s.appointments.ListByDoctor(ctx, license)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, items)
}

func (s *Service) ListByPatient(ctx context.Context, nationalID string) ([]*Appointment, error) {
	items, err := s.appointments.ListByPatient(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, items)
}

// DeleteAppointment removes the record without any lifecycle check.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}
