package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carebook/internal/domain"
)

// ScheduleTx is the view of the store inside a per-provider transaction.
// The provider's schedule is locked for the duration, so reads done here
// cannot be invalidated by a concurrent booking before the write lands.
type ScheduleTx interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListProviderInRange(ctx context.Context, providerID uuid.UUID, rangeStart, rangeEnd time.Time) ([]domain.Appointment, error)
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointmentTime(ctx context.Context, id uuid.UUID, start, end time.Time) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	ProviderExists(ctx context.Context, id uuid.UUID) (bool, error)
	RequesterExists(ctx context.Context, id uuid.UUID) (bool, error)
}
