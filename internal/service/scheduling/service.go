package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/store"
)

// Service owns the appointment lifecycle: booking, rescheduling,
// cancellation, status changes, and the read-side lookups. Every mutation
// runs inside a per-provider transaction so the conflict check and the
// write cannot be interleaved with another booking for the same provider.
type Service struct {
	repo store.AppointmentRepository
}

func NewService(repo store.AppointmentRepository) *Service {
	return &Service{repo: repo}
}

type BookInput struct {
	ProviderID  uuid.UUID
	RequesterID uuid.UUID
	StartTime   time.Time
}

// Book reserves a one-hour slot with the provider. The referenced provider
// and requester must exist, the start must be strictly in the future, and
// the slot must clear the buffered conflict check.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	if in.ProviderID == uuid.Nil {
		return domain.Appointment{}, validationError("provider_id is required")
	}
	if in.RequesterID == uuid.Nil {
		return domain.Appointment{}, validationError("requester_id is required")
	}

	start := in.StartTime.UTC()
	if !start.After(time.Now().UTC()) {
		return domain.Appointment{}, ErrStartNotFuture
	}

	var out domain.Appointment
	err := s.repo.InProviderTransaction(ctx, in.ProviderID, func(ctx context.Context, tx store.ScheduleTx) error {
		ok, err := tx.ProviderExists(ctx, in.ProviderID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidProvider
		}

		ok, err = tx.RequesterExists(ctx, in.RequesterID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidRequester
		}

		window := domain.NewTimeWindow(start, domain.DefaultDuration)
		conflict, err := hasConflict(ctx, tx, in.ProviderID, window, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrProviderUnavailable
		}

		created, err := tx.CreateAppointment(ctx, domain.Appointment{
			ProviderID:  in.ProviderID,
			RequesterID: in.RequesterID,
			StartTime:   window.Start,
			EndTime:     window.End,
			Status:      domain.StatusScheduled,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrProviderUnavailable
			}
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

// Reschedule moves a scheduled appointment to a new start time. Only the
// requester who booked it may move it, and the new slot must clear the
// conflict check with the appointment's own slot excluded.
func (s *Service) Reschedule(ctx context.Context, appointmentID uuid.UUID, newStart time.Time, requesterID uuid.UUID) (domain.Appointment, error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	current, err := s.repo.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrNotFound
		}
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.repo.InProviderTransaction(ctx, current.ProviderID, func(ctx context.Context, tx store.ScheduleTx) error {
		appt, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if appt.RequesterID != requesterID {
			return ErrUnauthorized
		}
		if appt.Status != domain.StatusScheduled {
			return ErrNotReschedulable
		}

		window := domain.NewTimeWindow(newStart, domain.DefaultDuration)
		conflict, err := hasConflict(ctx, tx, appt.ProviderID, window, appt.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrConflict
		}

		if err := tx.UpdateAppointmentTime(ctx, appt.ID, window.Start, window.End); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrConflict
			}
			return err
		}

		appt.StartTime = window.Start
		appt.EndTime = window.End
		out = appt
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

// Cancel removes a scheduled appointment. Cancellation is a hard delete;
// there is no cancelled status, only absence.
func (s *Service) Cancel(ctx context.Context, appointmentID, requesterID uuid.UUID) error {
	if appointmentID == uuid.Nil {
		return validationError("appointment_id is required")
	}

	current, err := s.repo.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.repo.InProviderTransaction(ctx, current.ProviderID, func(ctx context.Context, tx store.ScheduleTx) error {
		appt, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if appt.RequesterID != requesterID {
			return ErrUnauthorized
		}
		if appt.Status != domain.StatusScheduled {
			return ErrNotCancellable
		}

		return tx.DeleteAppointment(ctx, appt.ID)
	})
}

// ChangeStatus sets the appointment's status. There is no ownership check:
// this path is invoked by trusted provider-side callers (for example the
// prescriptions service after issuing a prescription).
func (s *Service) ChangeStatus(ctx context.Context, appointmentID uuid.UUID, newStatus domain.AppointmentStatus) (domain.Appointment, error) {
	if !newStatus.IsValid() {
		return domain.Appointment{}, ErrInvalidStatus
	}

	current, err := s.repo.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, ErrNotFound
		}
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.repo.InProviderTransaction(ctx, current.ProviderID, func(ctx context.Context, tx store.ScheduleTx) error {
		appt, err := tx.GetAppointment(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.UpdateAppointmentStatus(ctx, appt.ID, newStatus); err != nil {
			return err
		}
		appt.Status = newStatus
		out = appt
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

// hasConflict reports whether another live appointment for the provider
// collides with the candidate window under the buffer policy. The store
// query filters on start_time, so the left edge is padded by a full slot
// plus the buffer to catch appointments that began before the candidate
// window but still reach into it. The overlap predicate is then applied
// per record, which keeps the exact-boundary cases right.
func hasConflict(ctx context.Context, tx store.ScheduleTx, providerID uuid.UUID, window domain.TimeWindow, exclude uuid.UUID) (bool, error) {
	rangeStart := window.Start.Add(-(domain.DefaultDuration + domain.ConflictBuffer))
	rangeEnd := window.End.Add(domain.ConflictBuffer)

	rows, err := tx.ListProviderInRange(ctx, providerID, rangeStart, rangeEnd)
	if err != nil {
		return false, err
	}

	for _, a := range rows {
		if exclude != uuid.Nil && a.ID == exclude {
			continue
		}
		if window.Overlaps(a.Window(), domain.ConflictBuffer) {
			return true, nil
		}
	}
	return false, nil
}
