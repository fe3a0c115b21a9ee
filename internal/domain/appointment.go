package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultDuration is the length of every appointment slot. Slots have a
// fixed size; EndTime is always StartTime + DefaultDuration.
const DefaultDuration = time.Hour

// ConflictBuffer is the symmetric padding applied around a candidate slot
// before checking for overlaps, so back-to-back bookings keep slack.
const ConflictBuffer = 30 * time.Minute

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
)

// ParseAppointmentStatus maps an incoming status value onto the closed
// enum. Unknown values are rejected at the boundary.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	switch AppointmentStatus(s) {
	case StatusScheduled, StatusCompleted:
		return AppointmentStatus(s), true
	}
	return "", false
}

func (s AppointmentStatus) IsValid() bool {
	_, ok := ParseAppointmentStatus(string(s))
	return ok
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID          uuid.UUID         `bun:"id,pk,type:uuid"`
	ProviderID  uuid.UUID         `bun:"provider_id,notnull,type:uuid"`
	RequesterID uuid.UUID         `bun:"requester_id,notnull,type:uuid"`
	StartTime   time.Time         `bun:"start_time,notnull"`
	EndTime     time.Time         `bun:"end_time,notnull"`
	Status      AppointmentStatus `bun:"status,notnull"`
	CreatedAt   time.Time         `bun:"created_at,notnull"`
	UpdatedAt   time.Time         `bun:"updated_at,notnull"`

	Requester *Requester `bun:"rel:belongs-to,join:requester_id=id"`
}

// Window returns the slot the appointment occupies.
func (a *Appointment) Window() TimeWindow {
	return TimeWindow{Start: a.StartTime, End: a.EndTime}
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
