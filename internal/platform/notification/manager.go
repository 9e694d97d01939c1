package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Renan-Portela/Clinica-Medica-sub000/internal/platform/metrics"
)

// NotificationManager orchestrates sending, storage, and retrieval of
// notifications.
type NotificationManager struct {
	emailSender EmailSender
	templates   *TemplateEngine
	store       Store
	logger      zerolog.Logger
}

// NewNotificationManager constructs a NotificationManager.
func NewNotificationManager(email EmailSender, tpl *TemplateEngine, store Store, logger zerolog.Logger) *NotificationManager {
	return &NotificationManager{
		emailSender: email,
		templates:   tpl,
		store:       store,
		logger:      logger.With().Str("component", "notification").Logger(),
	}
}

func (m *NotificationManager) deliver(ctx context.Context, n *Notification) error {
	n.Attempts++
	var sendErr error
	switch n.Type {
	case TypeEmail:
		sendErr = m.emailSender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	default:
		sendErr = fmt.Errorf("unsupported notification type: %s", n.Type)
	}

	if sendErr != nil {
		n.Status = StatusFailed
		n.Error = sendErr.Error()
		m.logger.Warn().Err(sendErr).Str("notification_id", n.ID).Str("recipient", n.Recipient).Msg("notification failed")
	} else {
		n.Status = StatusSent
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	metrics.Notifications.WithLabelValues(string(n.Type), n.Status).Inc()
	return sendErr
}

// Send dispatches a notification, assigns an ID and timestamps, and records
// the outcome in the store. The delivery error, if any, is returned after the
// record is saved. A failed save is reported as ErrNotRecorded.
func (m *NotificationManager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = StatusPending

	sendErr := m.deliver(ctx, n)
	if err := m.store.Save(ctx, n); err != nil {
		m.logger.Error().Err(err).Str("notification_id", n.ID).Msg("notification not recorded")
		return errors.Join(sendErr, fmt.Errorf("%w: %w", ErrNotRecorded, err))
	}
	return sendErr
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *NotificationManager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	tpl, ok := m.templates.Lookup(templateID)
	if !ok {
		return nil, fmt.Errorf("render template: template %q not found", templateID)
	}
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Type:         tpl.Type,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// GetNotification retrieves a notification by ID.
func (m *NotificationManager) GetNotification(ctx context.Context, id string) (*Notification, error) {
	return m.store.Get(ctx, id)
}

// ListByRecipient returns the most recent notifications for a recipient, up to limit.
func (m *NotificationManager) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*Notification, error) {
	return m.store.ListByRecipient(ctx, recipient, limit)
}

// Retry re-sends a failed notification. Returns an error if the notification is
// not in "failed" status.
func (m *NotificationManager) Retry(ctx context.Context, id string) (*Notification, error) {
	n, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != StatusFailed {
		return n, fmt.Errorf("%w: %s is %s", ErrNotRetryable, id, n.Status)
	}

	sendErr := m.deliver(ctx, n)
	if err := m.store.Save(ctx, n); err != nil {
		return n, errors.Join(sendErr, fmt.Errorf("%w: %w", ErrNotRecorded, err))
	}
	return n, sendErr
}

// NotificationStats returns counts of notifications grouped by status.
func (m *NotificationManager) NotificationStats(ctx context.Context) (map[string]int, error) {
	return m.store.Stats(ctx)
}
