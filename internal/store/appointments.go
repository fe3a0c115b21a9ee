package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carebook/internal/domain"
)

// AppointmentRepository is the durable store of appointment records. Read
// queries run against the pool directly; every mutation goes through
// InProviderTransaction so the conflict-check-then-write sequence is
// serialized per provider.
type AppointmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Appointment, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Appointment, error)
	ListByProviderForDay(ctx context.Context, providerID uuid.UUID, dayStart, dayEnd time.Time, requesterName string) ([]domain.Appointment, error)
	ListByRequesterAndStatus(ctx context.Context, requesterID uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error)
	DeleteAllByProvider(ctx context.Context, providerID uuid.UUID) error

	InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx ScheduleTx) error) error
}
