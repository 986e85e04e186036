package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

type Config struct {
	DSN          string `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"8"`
}

// Store is the bun-backed record store. Connections are pooled by
// database/sql; each operation acquires and releases one.
type Store struct {
	db *bun.DB
}

func Connect(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return New(bun.NewDB(sqldb, pgdialect.New())), nil
}

// New wraps an existing bun handle. Used directly by tests.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Authenticate matches the exact (login_id, password, type) tuple the way
// the login endpoint expects. No row means ErrAuth.
func (s *Store) Authenticate(ctx context.Context, loginID, password, typ string) (*contractx.User, error) {
	user := new(User)
	err := s.db.NewSelect().
		Model(user).
		Where("login_id = ?", loginID).
		Where("password = ?", password).
		Where("type = ?", typ).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contractx.ErrAuth
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return &contractx.User{LoginID: user.LoginID, Type: user.Type}, nil
}

func (s *Store) AvailableSlots(ctx context.Context, doctorID string) ([]contractx.Slot, error) {
	var appts []Appointment
	err := s.db.NewSelect().
		Model(&appts).
		Where("doctorid = ?", doctorID).
		Where("available = TRUE").
		Order("starttime ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("available slots: %w", err)
	}
	return toSlots(appts), nil
}

// ReserveSlot locates the matching free slot inside a transaction and
// returns its id. The slot is not consumed yet; ConsumeSlot commits it
// after the calendar event exists.
func (s *Store) ReserveSlot(ctx context.Context, doctorID string, start, end time.Time) (int64, error) {
	var slotID int64
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		appt := new(Appointment)
		err := tx.NewSelect().
			Model(appt).
			Column("id").
			Where("doctorid = ?", doctorID).
			Where("starttime = ?", start).
			Where("endtime = ?", end).
			Where("available = TRUE").
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.ErrSlotUnavailable
		}
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}
		slotID = appt.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return slotID, nil
}

func (s *Store) ConsumeSlot(ctx context.Context, slotID int64) error {
	res, err := s.db.NewUpdate().
		Model((*Appointment)(nil)).
		Set("available = FALSE").
		Where("id = ?", slotID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("consume slot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("consume slot: no row for id=%d", slotID)
	}
	return nil
}

// BookedOn returns consumed slots starting on the given day, in start order.
func (s *Store) BookedOn(ctx context.Context, doctorID string, day time.Time) ([]contractx.Slot, error) {
	var appts []Appointment
	err := s.db.NewSelect().
		Model(&appts).
		Where("doctorid = ?", doctorID).
		Where("DATE(starttime) = DATE(?)", day).
		Where("available = FALSE").
		Order("starttime ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("booked on: %w", err)
	}
	return toSlots(appts), nil
}

// BookedBetween returns consumed slots with DATE(starttime) in (from, to],
// in start order. Used for the seven-day report window.
func (s *Store) BookedBetween(ctx context.Context, doctorID string, from, to time.Time) ([]contractx.Slot, error) {
	var appts []Appointment
	err := s.db.NewSelect().
		Model(&appts).
		Where("doctorid = ?", doctorID).
		Where("DATE(starttime) > DATE(?)", from).
		Where("DATE(starttime) <= DATE(?)", to).
		Where("available = FALSE").
		Order("starttime ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("booked between: %w", err)
	}
	return toSlots(appts), nil
}

// TableInfo renders the public schema of the tables the query generator may
// reference. Prompting context only, never shown to users.
func (s *Store) TableInfo(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name IN ('appointments', 'users')
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return "", fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var (
		b       strings.Builder
		current string
		first   bool
	)
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return "", fmt.Errorf("table info scan: %w", err)
		}
		if table != current {
			if current != "" {
				b.WriteString(")\n")
			}
			current = table
			first = true
			b.WriteString(table)
			b.WriteString(" (")
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(column)
		b.WriteString(" ")
		b.WriteString(dataType)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("table info rows: %w", err)
	}
	if current != "" {
		b.WriteString(")")
	}
	return b.String(), nil
}

// ReadOnlyQuery executes an already-validated SELECT and renders the rows as
// tab-separated text. The validation gate in agent/query is the only caller.
func (s *Store) ReadOnlyQuery(ctx context.Context, query string) (string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("query columns: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	for i := range values {
		values[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return "", fmt.Errorf("query scan: %w", err)
		}
		b.WriteString("\n")
		for i, v := range values {
			if i > 0 {
				b.WriteString("\t")
			}
			b.WriteString(renderValue(*(v.(*any))))
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("query rows: %w", err)
	}
	return b.String(), nil
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}

func toSlots(appts []Appointment) []contractx.Slot {
	slots := make([]contractx.Slot, 0, len(appts))
	for _, a := range appts {
		slots = append(slots, contractx.Slot{
			ID:        a.ID,
			DoctorID:  a.DoctorID,
			Start:     a.StartTime,
			End:       a.EndTime,
			Available: a.Available,
		})
	}
	return slots
}
