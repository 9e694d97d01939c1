package scheduling

import "context"

// ConfirmationLayout formats the appointment time in confirmation messages.
const ConfirmationLayout = "02/01/2006 15:04"

// ConfirmationSender delivers a best-effort appointment confirmation and
// reports whether it went out.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, address, patientName, doctorName, formattedDateTime string) bool
}

// NotifyConfirmation sends the confirmation for a freshly scheduled
// appointment. Failure is logged and reported, never returned: the booking
// stands either way.
func (s *Service) NotifyConfirmation(ctx context.Context, a *Appointment, address string) bool {
	if s.notifier == nil || a == nil || address == "" {
		return false
	}
	if a.Doctor == nil || a.Patient == nil {
		if err := s.hydrate(ctx, a); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("confirmation not sent")
			return false
		}
	}
	when := a.ScheduledAt.In(s.loc).Format(ConfirmationLayout)
	ok := s.notifier.SendConfirmation(ctx, address, a.Patient.Name, a.Doctor.Name, when)
	if !ok {
		s.logger.Warn().Str("appointment_id", a.ID.String()).Str("address", address).Msg("confirmation delivery failed")
	}
	return ok
}
