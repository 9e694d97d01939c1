package notification

import "context"

// ConfirmationSender sends appointment confirmations through the
// appointment-confirmation template. It never returns an error: the outcome
// is recorded on the notification and reported as a bool.
type ConfirmationSender struct {
	manager *NotificationManager
}

func NewConfirmationSender(m *NotificationManager) *ConfirmationSender {
	return &ConfirmationSender{manager: m}
}

func (s *ConfirmationSender) SendConfirmation(ctx context.Context, address, patientName, doctorName, formattedDateTime string) bool {
	if address == "" {
		return false
	}
	_, err := s.manager.SendFromTemplate(ctx, TemplateAppointmentConfirmation, map[string]string{
		"patient_name": patientName,
		"doctor_name":  doctorName,
		"date_time":    formattedDateTime,
	}, address)
	return err == nil
}
