package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"carebook/internal/domain"
)

// Read-side lookups. Authorization is the calling layer's concern; an
// empty result is a valid outcome, not an error.

func (s *Service) ByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Appointment, error) {
	if requesterID == uuid.Nil {
		return nil, validationError("requester_id is required")
	}
	return s.repo.ListByRequester(ctx, requesterID)
}

func (s *Service) ByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Appointment, error) {
	if providerID == uuid.Nil {
		return nil, validationError("provider_id is required")
	}
	return s.repo.ListByProvider(ctx, providerID)
}

// ByProviderAndDate lists a provider's appointments within the calendar
// day, earliest first. A non-empty requesterName restricts the result to
// requesters whose name contains it, case-insensitively.
func (s *Service) ByProviderAndDate(ctx context.Context, providerID uuid.UUID, date string, requesterName string) ([]domain.Appointment, error) {
	if providerID == uuid.Nil {
		return nil, validationError("provider_id is required")
	}

	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return nil, validationError("date must be formatted as YYYY-MM-DD")
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.UTC)

	return s.repo.ListByProviderForDay(ctx, providerID, dayStart, dayEnd, requesterName)
}

func (s *Service) ByRequesterAndStatus(ctx context.Context, requesterID uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	if requesterID == uuid.Nil {
		return nil, validationError("requester_id is required")
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByRequesterAndStatus(ctx, requesterID, status)
}
