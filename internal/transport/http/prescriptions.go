package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/metrics"
	"carebook/internal/service/prescriptions"
)

type prescriptionService interface {
	Issue(ctx context.Context, in prescriptions.IssueInput) (domain.Prescription, error)
	Get(ctx context.Context, appointmentID uuid.UUID) (domain.Prescription, error)
}

type PrescriptionsHandler struct {
	svc       prescriptionService
	log       *slog.Logger
	collector *metrics.Collector
}

func NewPrescriptionsHandler(svc prescriptionService, log *slog.Logger, collector *metrics.Collector) *PrescriptionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PrescriptionsHandler{
		svc:       svc,
		log:       log.With(slog.String("component", "http.prescriptions")),
		collector: collector,
	}
}

type prescriptionPayload struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	Medication    string `json:"medication"`
	Dosage        string `json:"dosage"`
	DoctorNotes   string `json:"doctor_notes,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toPrescriptionPayload(p domain.Prescription) prescriptionPayload {
	return prescriptionPayload{
		ID:            p.ID.String(),
		AppointmentID: p.AppointmentID.String(),
		PatientName:   p.PatientName,
		Medication:    p.Medication,
		Dosage:        p.Dosage,
		DoctorNotes:   p.DoctorNotes,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

type issuePrescriptionRequest struct {
	Medication  string `json:"medication"`
	Dosage      string `json:"dosage"`
	DoctorNotes string `json:"doctor_notes"`
}

func (h *PrescriptionsHandler) Issue(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Issue"))

	appointmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req issuePrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Issue(c.Request.Context(), prescriptions.IssueInput{
		AppointmentID: appointmentID,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
	})
	if err != nil {
		log.Warn("prescription rejected", slog.Any("err", err), slog.String("appointment_id", appointmentID.String()))
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.PrescriptionsIssued.Inc()
	}
	log.Info("prescription issued",
		slog.String("prescription_id", p.ID.String()),
		slog.String("appointment_id", p.AppointmentID.String()),
	)
	respondCreated(c, toPrescriptionPayload(p))
}

func (h *PrescriptionsHandler) Get(c *gin.Context) {
	appointmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if appointmentID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "invalid appointment id")
		return
	}

	p, err := h.svc.Get(c.Request.Context(), appointmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toPrescriptionPayload(p))
}
