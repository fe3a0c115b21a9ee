package prescriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/store"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlreadyIssued       = errors.New("prescription already exists for this appointment")
	ErrPrescriptionNotFound = errors.New("no prescription found for this appointment")
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

// statusChanger is the slice of the scheduling service this package needs:
// issuing a prescription completes the underlying visit.
type statusChanger interface {
	ChangeStatus(ctx context.Context, appointmentID uuid.UUID, newStatus domain.AppointmentStatus) (domain.Appointment, error)
}

type Service struct {
	repo       store.PrescriptionRepository
	appts      store.AppointmentRepository
	scheduling statusChanger
}

func NewService(repo store.PrescriptionRepository, appts store.AppointmentRepository, scheduling statusChanger) *Service {
	return &Service{repo: repo, appts: appts, scheduling: scheduling}
}

type IssueInput struct {
	AppointmentID uuid.UUID
	Medication    string
	Dosage        string
	DoctorNotes   string
}

// Issue writes a prescription against the appointment and marks the
// appointment completed. At most one prescription per appointment.
func (s *Service) Issue(ctx context.Context, in IssueInput) (domain.Prescription, error) {
	medication := strings.TrimSpace(in.Medication)
	if medication == "" {
		return domain.Prescription{}, validationError("medication is required")
	}
	dosage := strings.TrimSpace(in.Dosage)
	if dosage == "" {
		return domain.Prescription{}, validationError("dosage is required")
	}

	appt, err := s.appts.FindByID(ctx, in.AppointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Prescription{}, ErrAppointmentNotFound
		}
		return domain.Prescription{}, err
	}

	patientName := ""
	if appt.Requester != nil {
		patientName = appt.Requester.Name
	}

	created, err := s.repo.Create(ctx, domain.Prescription{
		AppointmentID: appt.ID,
		PatientName:   patientName,
		Medication:    medication,
		Dosage:        dosage,
		DoctorNotes:   strings.TrimSpace(in.DoctorNotes),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Prescription{}, ErrAlreadyIssued
		}
		return domain.Prescription{}, err
	}

	if _, err := s.scheduling.ChangeStatus(ctx, appt.ID, domain.StatusCompleted); err != nil {
		return domain.Prescription{}, fmt.Errorf("completing appointment %s: %w", appt.ID, err)
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, appointmentID uuid.UUID) (domain.Prescription, error) {
	p, err := s.repo.FindByAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Prescription{}, ErrPrescriptionNotFound
		}
		return domain.Prescription{}, err
	}
	return p, nil
}
