package contract

import (
	"context"
	"time"
)

// AppointmentStore is the slice of the record store the booking saga needs.
type AppointmentStore interface {
	ReserveSlot(ctx context.Context, doctorID string, start, end time.Time) (int64, error)
	ConsumeSlot(ctx context.Context, slotID int64) error
}

// Calendar creates externally visible events. The returned id and link come
// from the provider.
type Calendar interface {
	CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (eventID, link string, err error)
}

// EmailSender delivers a confirmation email and returns the provider's
// message id.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (messageID string, err error)
}

// ChatNotifier posts plain text to the chat-ops sink.
type ChatNotifier interface {
	Post(ctx context.Context, text string) error
}
