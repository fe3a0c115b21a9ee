package store

import (
	"context"

	"github.com/google/uuid"

	"carebook/internal/domain"
)

// PrescriptionRepository stores issued prescriptions keyed by appointment.
// Create returns ErrConflict when a prescription already exists for the
// appointment.
type PrescriptionRepository interface {
	Create(ctx context.Context, p domain.Prescription) (domain.Prescription, error)
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Prescription, error)
}
