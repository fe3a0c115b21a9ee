package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/store"
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrRequesterNotFound = errors.New("requester not found")
	ErrEmailTaken        = errors.New("email is already registered")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Service manages the provider and requester records that appointments
// reference. Removing a provider also removes the provider's appointments.
type Service struct {
	repo  store.DirectoryRepository
	appts store.AppointmentRepository
}

func NewService(repo store.DirectoryRepository, appts store.AppointmentRepository) *Service {
	return &Service{repo: repo, appts: appts}
}

type ProviderInput struct {
	Name      string
	Specialty string
	Email     string
	Phone     string
}

func (s *Service) RegisterProvider(ctx context.Context, in ProviderInput) (domain.Provider, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Provider{}, validationError("name is required")
	}
	specialty := strings.TrimSpace(in.Specialty)
	if specialty == "" {
		return domain.Provider{}, validationError("specialty is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.Provider{}, validationError("email is required")
	}

	if _, err := s.repo.FindProviderByEmail(ctx, email); err == nil {
		return domain.Provider{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Provider{}, err
	}

	p, err := s.repo.CreateProvider(ctx, domain.Provider{
		Name:      name,
		Specialty: specialty,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Provider{}, ErrEmailTaken
		}
		return domain.Provider{}, err
	}
	return p, nil
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error) {
	p, err := s.repo.GetProvider(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Provider{}, ErrProviderNotFound
		}
		return domain.Provider{}, err
	}
	return p, nil
}

func (s *Service) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	return s.repo.ListProviders(ctx)
}

// RemoveProvider deletes the provider record and every appointment booked
// against it.
func (s *Service) RemoveProvider(ctx context.Context, id uuid.UUID) error {
	if err := s.appts.DeleteAllByProvider(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProvider(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProviderNotFound
		}
		return err
	}
	return nil
}

type RequesterInput struct {
	Name  string
	Email string
	Phone string
}

func (s *Service) RegisterRequester(ctx context.Context, in RequesterInput) (domain.Requester, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Requester{}, validationError("name is required")
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.Requester{}, validationError("email is required")
	}

	r, err := s.repo.CreateRequester(ctx, domain.Requester{
		Name:  name,
		Email: email,
		Phone: strings.TrimSpace(in.Phone),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Requester{}, ErrEmailTaken
		}
		return domain.Requester{}, err
	}
	return r, nil
}

func (s *Service) GetRequester(ctx context.Context, id uuid.UUID) (domain.Requester, error) {
	r, err := s.repo.GetRequester(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Requester{}, ErrRequesterNotFound
		}
		return domain.Requester{}, err
	}
	return r, nil
}
