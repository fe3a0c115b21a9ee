package domain

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is issued by a provider against a visit. At most one
// prescription exists per appointment. Stored in the document store,
// not postgres.
type Prescription struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	PatientName   string
	Medication    string
	Dosage        string
	DoctorNotes   string
	CreatedAt     time.Time
}
