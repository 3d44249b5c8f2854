package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"radiantbloom/internal/domain"
	"radiantbloom/internal/events"
	"radiantbloom/internal/metrics"
	"radiantbloom/internal/models"

	"github.com/rs/zerolog"
)

const sendTimeout = 10 * time.Second

// Dispatcher turns booking lifecycle events into customer e-mail,
// admin e-mail and staff chat alerts. Every attempt lands in the
// notification log; delivery failures never propagate to the caller.
type Dispatcher struct {
	store      domain.Store
	mailer     domain.Mailer
	admin      domain.AdminNotifier
	adminEmail string
	logger     *zerolog.Logger
}

func NewDispatcher(store domain.Store, mailer domain.Mailer, admin domain.AdminNotifier, adminEmail string, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		mailer:     mailer,
		admin:      admin,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Attach subscribes the dispatcher to the booking lifecycle events.
func (d *Dispatcher) Attach(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, d.onBookingCreated)
	for _, eventType := range []string{
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventBookingCompleted,
	} {
		bus.Subscribe(eventType, d.onStatusChanged)
	}
	bus.Subscribe(events.EventNewsletterSubscribed, d.onNewsletterSubscribed)
}

func (d *Dispatcher) onBookingCreated(event *events.Event) error {
	payload, err := decodePayload(event)
	if err != nil {
		d.logger.Warn().Err(err).Str("event", event.Type).Msg("skipping malformed event payload")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	subject := fmt.Sprintf("Your booking %s is received", payload.ConfirmationCode)
	d.sendEmail(ctx, payload, models.EventBookingReceivedCustomer, payload.CustomerEmail, subject, customerReceivedBody(payload))

	if d.adminEmail != "" {
		adminSubject := fmt.Sprintf("New booking: %s on %s", payload.ServiceName, payload.StartTime.Format("2006-01-02 15:04"))
		d.sendEmail(ctx, payload, models.EventBookingReceivedAdmin, d.adminEmail, adminSubject, adminReceivedBody(payload))
	}

	d.sendChatAlert(ctx, payload)
	return nil
}

func (d *Dispatcher) onStatusChanged(event *events.Event) error {
	payload, err := decodePayload(event)
	if err != nil {
		d.logger.Warn().Err(err).Str("event", event.Type).Msg("skipping malformed event payload")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	subject := fmt.Sprintf("Booking %s update: %s", payload.ConfirmationCode, payload.Status)
	d.sendEmail(ctx, payload, models.EventBookingStatusUpdate, payload.CustomerEmail, subject, statusChangedBody(payload))
	return nil
}

func (d *Dispatcher) onNewsletterSubscribed(event *events.Event) error {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.Email == "" {
		d.logger.Warn().Err(err).Str("event", event.Type).Msg("skipping malformed event payload")
		return nil
	}
	if d.mailer == nil || d.adminEmail == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	entry := &models.NotificationLog{
		EventType: models.EventNewsletterSignup,
		Recipient: d.adminEmail,
		Status:    models.NotificationSent,
	}
	body := fmt.Sprintf("<p>New newsletter subscriber: <b>%s</b></p>", payload.Email)
	if err := d.mailer.Send(ctx, d.adminEmail, "New newsletter subscriber", body); err != nil {
		entry.Status = models.NotificationFailed
		entry.Detail = err.Error()
		d.logger.Warn().Err(err).Msg("newsletter alert delivery failed")
	}
	metrics.IncNotification("email", entry.Status)

	if err := d.store.LogNotification(ctx, entry); err != nil {
		d.logger.Warn().Err(err).Msg("failed to write notification log")
	}
	return nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, payload events.BookingEventPayload, eventType, to, subject, body string) {
	if d.mailer == nil || to == "" {
		return
	}

	entry := &models.NotificationLog{
		BookingID: payload.BookingID,
		EventType: eventType,
		Recipient: to,
		Status:    models.NotificationSent,
	}

	if err := d.mailer.Send(ctx, to, subject, body); err != nil {
		entry.Status = models.NotificationFailed
		entry.Detail = err.Error()
		d.logger.Warn().Err(err).Str("recipient", to).Str("event", eventType).Msg("email delivery failed")
	}
	metrics.IncNotification("email", entry.Status)

	if err := d.store.LogNotification(ctx, entry); err != nil {
		d.logger.Warn().Err(err).Msg("failed to write notification log")
	}
}

func (d *Dispatcher) sendChatAlert(ctx context.Context, payload events.BookingEventPayload) {
	if d.admin == nil {
		return
	}

	text := fmt.Sprintf("<b>New booking</b>\n%s\n%s\n%s, %s",
		payload.ServiceName,
		payload.CustomerName,
		payload.StartTime.Format("2006-01-02 15:04"),
		payload.ConfirmationCode,
	)

	status := models.NotificationSent
	var detail string
	if err := d.admin.Notify(ctx, text); err != nil {
		status = models.NotificationFailed
		detail = err.Error()
		d.logger.Warn().Err(err).Msg("chat alert delivery failed")
	}
	metrics.IncNotification("telegram", status)

	entry := &models.NotificationLog{
		BookingID: payload.BookingID,
		EventType: models.EventBookingReceivedAdmin,
		Recipient: "staff-chat",
		Status:    status,
		Detail:    detail,
	}
	if err := d.store.LogNotification(ctx, entry); err != nil {
		d.logger.Warn().Err(err).Msg("failed to write notification log")
	}
}

func decodePayload(event *events.Event) (events.BookingEventPayload, error) {
	var payload events.BookingEventPayload
	err := json.Unmarshal(event.Payload, &payload)
	return payload, err
}

func customerReceivedBody(p events.BookingEventPayload) string {
	return fmt.Sprintf(
		"<p>Hello %s,</p><p>We received your booking for <b>%s</b> on %s.</p><p>Your confirmation code is <b>%s</b>. We will confirm your appointment shortly.</p>",
		p.CustomerName, p.ServiceName, p.StartTime.Format("Monday, 2 January 2006 at 15:04"), p.ConfirmationCode,
	)
}

func adminReceivedBody(p events.BookingEventPayload) string {
	return fmt.Sprintf(
		"<p>New booking %s</p><ul><li>Service: %s</li><li>Customer: %s (%s)</li><li>Start: %s</li></ul>",
		p.ConfirmationCode, p.ServiceName, p.CustomerName, p.CustomerEmail, p.StartTime.Format(time.RFC3339),
	)
}

func statusChangedBody(p events.BookingEventPayload) string {
	return fmt.Sprintf(
		"<p>Hello %s,</p><p>Your booking <b>%s</b> for %s is now <b>%s</b>.</p>",
		p.CustomerName, p.ConfirmationCode, p.ServiceName, p.Status,
	)
}
