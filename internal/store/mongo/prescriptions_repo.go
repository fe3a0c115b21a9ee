package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carebook/internal/domain"
	"carebook/internal/store"
)

const prescriptionsCollection = "prescriptions"

// prescriptionDoc is the collection-level shape. UUIDs travel as strings
// so documents stay readable and indexable without driver-specific binary
// subtypes.
type prescriptionDoc struct {
	ID            string    `bson:"id"`
	AppointmentID string    `bson:"appointment_id"`
	PatientName   string    `bson:"patient_name"`
	Medication    string    `bson:"medication"`
	Dosage        string    `bson:"dosage"`
	DoctorNotes   string    `bson:"doctor_notes,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

type PrescriptionRepo struct {
	coll *mongo.Collection
}

// NewPrescriptionRepo binds the repository to the prescriptions collection
// and ensures the one-prescription-per-appointment index.
func NewPrescriptionRepo(ctx context.Context, db *mongo.Database) (*PrescriptionRepo, error) {
	coll := db.Collection(prescriptionsCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "appointment_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ensuring prescription index: %w", err)
	}

	return &PrescriptionRepo{coll: coll}, nil
}

func (r *PrescriptionRepo) Create(ctx context.Context, p domain.Prescription) (domain.Prescription, error) {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Prescription{}, err
		}
		p.ID = id
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	doc := prescriptionDoc{
		ID:            p.ID.String(),
		AppointmentID: p.AppointmentID.String(),
		PatientName:   p.PatientName,
		Medication:    p.Medication,
		Dosage:        p.Dosage,
		DoctorNotes:   p.DoctorNotes,
		CreatedAt:     p.CreatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Prescription{}, store.ErrConflict
		}
		return domain.Prescription{}, fmt.Errorf("inserting prescription: %w", err)
	}
	return p, nil
}

func (r *PrescriptionRepo) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Prescription, error) {
	var doc prescriptionDoc
	err := r.coll.FindOne(ctx, bson.M{"appointment_id": appointmentID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Prescription{}, store.ErrNotFound
		}
		return domain.Prescription{}, fmt.Errorf("fetching prescription: %w", err)
	}
	return docToPrescription(doc)
}

func docToPrescription(doc prescriptionDoc) (domain.Prescription, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Prescription{}, fmt.Errorf("malformed prescription id %q: %w", doc.ID, err)
	}
	apptID, err := uuid.Parse(doc.AppointmentID)
	if err != nil {
		return domain.Prescription{}, fmt.Errorf("malformed appointment id %q: %w", doc.AppointmentID, err)
	}
	return domain.Prescription{
		ID:            id,
		AppointmentID: apptID,
		PatientName:   doc.PatientName,
		Medication:    doc.Medication,
		Dosage:        doc.Dosage,
		DoctorNotes:   doc.DoctorNotes,
		CreatedAt:     doc.CreatedAt,
	}, nil
}
