// Package report builds a doctor's daily and weekly appointment summary
// straight from the record store. No reasoning engine involved.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

const divider = "----------------------------------------"

// BookedLister is the slice of the record store the generator reads.
type BookedLister interface {
	BookedOn(ctx context.Context, doctorID string, day time.Time) ([]contractx.Slot, error)
	BookedBetween(ctx context.Context, doctorID string, from, to time.Time) ([]contractx.Slot, error)
}

type Option func(*Generator)

func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

type Generator struct {
	store    BookedLister
	notifier contractx.ChatNotifier
	now      func() time.Time
}

func New(store BookedLister, notifier contractx.ChatNotifier, opts ...Option) (*Generator, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: record store is required", contractx.ErrValidation)
	}
	g := &Generator{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Generate renders today's booked appointments and the next seven days'
// booked appointments grouped by date, chronologically.
func (g *Generator) Generate(ctx context.Context, doctorID string) (string, error) {
	if strings.TrimSpace(doctorID) == "" {
		return "", fmt.Errorf("%w: doctor id is required", contractx.ErrValidation)
	}

	today := g.now()
	weekEnd := today.AddDate(0, 0, 7)

	todaySlots, err := g.store.BookedOn(ctx, doctorID, today)
	if err != nil {
		return "", err
	}
	weekSlots, err := g.store.BookedBetween(ctx, doctorID, today, weekEnd)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TODAY'S REPORT (%s)\n%s\n\n", today.Format("Monday, January 02, 2006"), divider)

	b.WriteString("SCHEDULED APPOINTMENTS TODAY\n")
	if len(todaySlots) == 0 {
		b.WriteString("  No appointments scheduled for today.\n")
	}
	for _, slot := range todaySlots {
		fmt.Fprintf(&b, "  - %s - %s\n", slot.Start.Format("15:04"), slot.End.Format("15:04"))
	}

	fmt.Fprintf(&b, "\n%s\n\nAPPOINTMENTS SCHEDULED FOR THE WEEK\n", divider)
	if len(weekSlots) == 0 {
		b.WriteString("  No appointments scheduled for the week.\n")
	}
	var currentDate string
	for _, slot := range weekSlots {
		date := slot.Start.Format("2006-01-02")
		if date != currentDate {
			currentDate = date
			fmt.Fprintf(&b, "\n  %s:\n", slot.Start.Format("Monday, January 02"))
		}
		fmt.Fprintf(&b, "    - %s - %s\n", slot.Start.Format("15:04"), slot.End.Format("15:04"))
	}

	fmt.Fprintf(&b, "\n%s", divider)
	return b.String(), nil
}

// GenerateAndNotify optionally forwards the report to the chat-ops sink.
// Sink failure becomes a status string, never an error.
func (g *Generator) GenerateAndNotify(ctx context.Context, doctorID string, notify bool) (contractx.ReportResult, error) {
	report, err := g.Generate(ctx, doctorID)
	if err != nil {
		return contractx.ReportResult{}, err
	}

	result := contractx.ReportResult{Report: report}
	if !notify {
		return result, nil
	}
	if g.notifier == nil {
		result.NotifyStatus = "Slack webhook not configured."
		return result, nil
	}
	if err := g.notifier.Post(ctx, report); err != nil {
		log.Warn().Str("doctor_id", doctorID).Err(err).Msg("report notification failed")
		result.NotifyStatus = fmt.Sprintf("Slack error: %v", err)
		return result, nil
	}
	result.NotifyStatus = "Slack notification sent successfully!"
	return result, nil
}
