// Package booking runs the multi-system booking sequence: reserve the slot,
// create the calendar event, commit the slot, send the confirmation email.
// The calendar call deliberately precedes the store commit so a slot is
// never consumed without an externally visible booking; the price is a
// possible event-without-commit window that must be reconciled by hand.
package booking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

type Saga struct {
	store    contractx.AppointmentStore
	calendar contractx.Calendar
	mail     contractx.EmailSender
}

func New(store contractx.AppointmentStore, calendar contractx.Calendar, mail contractx.EmailSender) (*Saga, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: appointment store is required", contractx.ErrValidation)
	}
	if calendar == nil {
		return nil, fmt.Errorf("%w: calendar is required", contractx.ErrValidation)
	}
	if mail == nil {
		return nil, fmt.Errorf("%w: email sender is required", contractx.ErrValidation)
	}
	return &Saga{store: store, calendar: calendar, mail: mail}, nil
}

// Book converts a free slot into a confirmed, calendared, notified booking.
// Failure semantics per step:
//   - reserve: ErrSlotUnavailable, nothing happened, terminal.
//   - calendar: ErrCalendar, store untouched, the whole saga is retry-safe.
//   - commit: ErrBookingPending with the event id, must not be auto-retried.
//   - email: never fails the booking; the outcome is appended to the text.
func (s *Saga) Book(ctx context.Context, req contractx.BookingRequest) (string, error) {
	slotID, err := s.store.ReserveSlot(ctx, req.DoctorID, req.Start, req.End)
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf("Appointment with Doctor %s", req.DoctorID)
	description := fmt.Sprintf("Patient: %s\nEmail: %s", req.PatientName, req.PatientEmail)
	eventID, link, err := s.calendar.CreateEvent(ctx, summary, description, req.Start, req.End)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrCalendar, err)
	}

	if err := s.store.ConsumeSlot(ctx, slotID); err != nil {
		log.Error().
			Int64("slot_id", slotID).
			Str("event_id", eventID).
			Err(err).
			Msg("slot commit failed after calendar event creation")
		return "", fmt.Errorf("%w: event_id=%s: %v", contractx.ErrBookingPending, eventID, err)
	}

	emailStatus := s.sendConfirmation(ctx, req, link)

	return fmt.Sprintf(
		"Appointment scheduled successfully!\nEvent ID: %s\nCalendar Link: %s\n%s",
		eventID, link, emailStatus,
	), nil
}

func (s *Saga) sendConfirmation(ctx context.Context, req contractx.BookingRequest, link string) string {
	const layout = "2006-01-02T15:04:05"
	body := fmt.Sprintf(`Dear %s,

Your appointment has been confirmed!

Details:
- Doctor: %s
- Date/Time: %s to %s
- Calendar Event: %s

Thank you for booking with us.

Best regards,
Medical Appointment System`,
		req.PatientName, req.DoctorID, req.Start.Format(layout), req.End.Format(layout), link)

	messageID, err := s.mail.Send(ctx, req.PatientEmail, "Appointment Confirmation", body)
	if err != nil {
		log.Warn().Str("to", req.PatientEmail).Err(err).Msg("confirmation email failed")
		return fmt.Sprintf("Error sending email: %v", err)
	}
	return fmt.Sprintf("Email sent successfully! Message ID: %s", messageID)
}
