package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

type fakeAppointments struct {
	reserveID  int64
	reserveErr error
	consumeErr error
	reserved   int
	consumed   []int64
}

func (f *fakeAppointments) ReserveSlot(_ context.Context, _ string, _, _ time.Time) (int64, error) {
	f.reserved++
	if f.reserveErr != nil {
		return 0, f.reserveErr
	}
	return f.reserveID, nil
}

func (f *fakeAppointments) ConsumeSlot(_ context.Context, slotID int64) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.consumed = append(f.consumed, slotID)
	return nil
}

type fakeCalendar struct {
	eventID string
	link    string
	err     error
	created int
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _, _ string, _, _ time.Time) (string, string, error) {
	f.created++
	if f.err != nil {
		return "", "", f.err
	}
	return f.eventID, f.link, nil
}

type fakeMail struct {
	messageID string
	err       error
	sent      int
}

func (f *fakeMail) Send(_ context.Context, _, _, _ string) (string, error) {
	f.sent++
	if f.err != nil {
		return "", f.err
	}
	return f.messageID, nil
}

func testRequest() contractx.BookingRequest {
	return contractx.BookingRequest{
		DoctorID:     "doc1",
		Start:        time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		End:          time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
		PatientName:  "Alice",
		PatientEmail: "alice@example.com",
	}
}

func TestBookSuccess(t *testing.T) {
	t.Parallel()

	store := &fakeAppointments{reserveID: 42}
	cal := &fakeCalendar{eventID: "evt-1", link: "https://cal/evt-1"}
	mail := &fakeMail{messageID: "msg-9"}

	saga, err := New(store, cal, mail)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := saga.Book(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if !strings.Contains(got, "Appointment scheduled successfully!") {
		t.Fatalf("unexpected confirmation: %q", got)
	}
	if !strings.Contains(got, "evt-1") || !strings.Contains(got, "https://cal/evt-1") {
		t.Fatalf("confirmation missing event details: %q", got)
	}
	if !strings.Contains(got, "Message ID: msg-9") {
		t.Fatalf("confirmation missing email status: %q", got)
	}
	if len(store.consumed) != 1 || store.consumed[0] != 42 {
		t.Fatalf("expected slot 42 consumed, got %v", store.consumed)
	}
}

func TestBookSlotUnavailableNoSideEffects(t *testing.T) {
	t.Parallel()

	store := &fakeAppointments{reserveErr: contractx.ErrSlotUnavailable}
	cal := &fakeCalendar{}
	mail := &fakeMail{}

	saga, _ := New(store, cal, mail)

	_, err := saga.Book(context.Background(), testRequest())
	if !errors.Is(err, contractx.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	if cal.created != 0 {
		t.Fatalf("calendar event created despite unavailable slot")
	}
	if mail.sent != 0 {
		t.Fatalf("email sent despite unavailable slot")
	}
}

func TestBookCalendarFailureLeavesSlotUncommitted(t *testing.T) {
	t.Parallel()

	store := &fakeAppointments{reserveID: 42}
	cal := &fakeCalendar{err: errors.New("quota exceeded")}
	mail := &fakeMail{}

	saga, _ := New(store, cal, mail)

	_, err := saga.Book(context.Background(), testRequest())
	if !errors.Is(err, contractx.ErrCalendar) {
		t.Fatalf("expected ErrCalendar, got %v", err)
	}
	if len(store.consumed) != 0 {
		t.Fatalf("slot committed despite calendar failure: %v", store.consumed)
	}
	if mail.sent != 0 {
		t.Fatalf("email sent despite calendar failure")
	}
}

func TestBookCommitFailureIsPending(t *testing.T) {
	t.Parallel()

	store := &fakeAppointments{reserveID: 42, consumeErr: errors.New("connection reset")}
	cal := &fakeCalendar{eventID: "evt-7", link: "https://cal/evt-7"}
	mail := &fakeMail{}

	saga, _ := New(store, cal, mail)

	_, err := saga.Book(context.Background(), testRequest())
	if !errors.Is(err, contractx.ErrBookingPending) {
		t.Fatalf("expected ErrBookingPending, got %v", err)
	}
	if !strings.Contains(err.Error(), "evt-7") {
		t.Fatalf("pending error missing event id: %v", err)
	}
	if mail.sent != 0 {
		t.Fatalf("email sent despite uncommitted booking")
	}
}

func TestBookEmailFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	store := &fakeAppointments{reserveID: 42}
	cal := &fakeCalendar{eventID: "evt-1", link: "https://cal/evt-1"}
	mail := &fakeMail{err: errors.New("smtp down")}

	saga, _ := New(store, cal, mail)

	got, err := saga.Book(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if !strings.Contains(got, "Appointment scheduled successfully!") {
		t.Fatalf("booking should succeed despite email failure: %q", got)
	}
	if !strings.Contains(got, "Error sending email:") {
		t.Fatalf("confirmation missing email failure status: %q", got)
	}
	if len(store.consumed) != 1 {
		t.Fatalf("slot should be committed, got %v", store.consumed)
	}
}
