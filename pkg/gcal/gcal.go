// Package gcal creates Google Calendar events for confirmed bookings.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Config struct {
	CredentialsFile string `envconfig:"CREDENTIALS_FILE" split_words:"true"`
	CalendarID      string `envconfig:"CALENDAR_ID" split_words:"true" default:"primary"`
	Timezone        string `envconfig:"TIMEZONE" split_words:"true" default:"Asia/Kolkata"`
}

type Client struct {
	svc        *calendar.Service
	calendarID string
	timezone   string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	credentials := strings.TrimSpace(cfg.CredentialsFile)
	if credentials == "" {
		return nil, errors.New("gcal credentials file is required")
	}

	svc, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentials),
		option.WithScopes(calendar.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("gcal: create service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: cfg.CalendarID,
		timezone:   cfg.Timezone,
	}, nil
}

// CreateEvent inserts one event and returns its id and html link.
func (c *Client) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, string, error) {
	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("gcal: insert event: %w", err)
	}
	return created.Id, created.HtmlLink, nil
}
