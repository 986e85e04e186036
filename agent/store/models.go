package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Appointment mirrors the seeded schedule table. Slots are created
// externally; this service only flips available to false.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID        int64     `bun:"id,pk,autoincrement"`
	DoctorID  string    `bun:"doctorid"`
	StartTime time.Time `bun:"starttime"`
	EndTime   time.Time `bun:"endtime"`
	Available bool      `bun:"available"`
}

type User struct {
	bun.BaseModel `bun:"table:users"`

	LoginID  string `bun:"login_id,pk"`
	Password string `bun:"password"`
	Type     string `bun:"type"`
}
