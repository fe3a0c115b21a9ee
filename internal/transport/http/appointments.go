package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/metrics"
	"carebook/internal/service/scheduling"
)

type schedulingService interface {
	Book(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error)
	Reschedule(ctx context.Context, appointmentID uuid.UUID, newStart time.Time, requesterID uuid.UUID) (domain.Appointment, error)
	Cancel(ctx context.Context, appointmentID, requesterID uuid.UUID) error
	ChangeStatus(ctx context.Context, appointmentID uuid.UUID, newStatus domain.AppointmentStatus) (domain.Appointment, error)
	ByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Appointment, error)
	ByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Appointment, error)
	ByProviderAndDate(ctx context.Context, providerID uuid.UUID, date, requesterName string) ([]domain.Appointment, error)
	ByRequesterAndStatus(ctx context.Context, requesterID uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error)
}

type AppointmentsHandler struct {
	svc       schedulingService
	log       *slog.Logger
	collector *metrics.Collector
}

func NewAppointmentsHandler(svc schedulingService, log *slog.Logger, collector *metrics.Collector) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc:       svc,
		log:       log.With(slog.String("component", "http.appointments")),
		collector: collector,
	}
}

type bookRequest struct {
	ProviderID string `json:"provider_id"`
	StartTime  string `json:"start_time"`
}

func (h *AppointmentsHandler) Book(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Book"))

	claims, ok := claimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing credentials")
		return
	}

	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid provider_id: must be a UUID")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid start_time: must be RFC 3339")
		return
	}

	appt, err := h.svc.Book(c.Request.Context(), scheduling.BookInput{
		ProviderID:  providerID,
		RequesterID: claims.SubjectID,
		StartTime:   start,
	})
	if err != nil {
		h.countBooking(err)
		log.Warn("booking rejected",
			slog.Any("err", err),
			slog.String("provider_id", providerID.String()),
			slog.String("requester_id", claims.SubjectID.String()),
		)
		respondServiceError(c, err)
		return
	}

	h.countBooking(nil)
	log.Info("appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("provider_id", appt.ProviderID.String()),
		slog.Time("start_time", appt.StartTime),
	)
	respondCreated(c, toAppointmentPayload(appt))
}

type rescheduleRequest struct {
	StartTime string `json:"start_time"`
}

func (h *AppointmentsHandler) Reschedule(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Reschedule"))

	claims, ok := claimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing credentials")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req rescheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid start_time: must be RFC 3339")
		return
	}

	appt, err := h.svc.Reschedule(c.Request.Context(), id, start, claims.SubjectID)
	if err != nil {
		h.countReschedule(err)
		log.Warn("reschedule rejected", slog.Any("err", err), slog.String("appointment_id", id.String()))
		respondServiceError(c, err)
		return
	}

	h.countReschedule(nil)
	log.Info("appointment rescheduled",
		slog.String("appointment_id", appt.ID.String()),
		slog.Time("start_time", appt.StartTime),
	)
	respondOK(c, toAppointmentPayload(appt))
}

func (h *AppointmentsHandler) Cancel(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Cancel"))

	claims, ok := claimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing credentials")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), id, claims.SubjectID); err != nil {
		log.Warn("cancel rejected", slog.Any("err", err), slog.String("appointment_id", id.String()))
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.CancellationsTotal.Inc()
	}
	log.Info("appointment cancelled", slog.String("appointment_id", id.String()))
	respondOK(c, gin.H{"appointment_id": id.String(), "status": "cancelled"})
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *AppointmentsHandler) ChangeStatus(c *gin.Context) {
	log := h.log.With(slog.String("handler", "ChangeStatus"))

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req changeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, ok := domain.ParseAppointmentStatus(strings.TrimSpace(req.Status))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid status: must be scheduled or completed")
		return
	}

	appt, err := h.svc.ChangeStatus(c.Request.Context(), id, status)
	if err != nil {
		log.Warn("status change rejected", slog.Any("err", err), slog.String("appointment_id", id.String()))
		respondServiceError(c, err)
		return
	}

	log.Info("appointment status changed",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("status", string(appt.Status)),
	)
	respondOK(c, toAppointmentPayload(appt))
}

// ListMine returns the caller's appointments, most recent first, or the
// subset with the requested status, earliest first.
func (h *AppointmentsHandler) ListMine(c *gin.Context) {
	log := h.log.With(slog.String("handler", "ListMine"))

	claims, ok := claimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing credentials")
		return
	}

	var (
		appts []domain.Appointment
		err   error
	)
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, valid := domain.ParseAppointmentStatus(raw)
		if !valid {
			respondError(c, http.StatusBadRequest, "invalid status: must be scheduled or completed")
			return
		}
		appts, err = h.svc.ByRequesterAndStatus(c.Request.Context(), claims.SubjectID, status)
	} else {
		appts, err = h.svc.ByRequester(c.Request.Context(), claims.SubjectID)
	}
	if err != nil {
		log.Error("listing appointments failed", slog.Any("err", err), slog.String("requester_id", claims.SubjectID.String()))
		respondServiceError(c, err)
		return
	}

	respondOK(c, toAppointmentPayloads(appts))
}

// ListForProvider returns a provider's appointments. With ?date= the
// result is limited to that calendar day (ascending) and may be narrowed
// further with ?requester_name=.
func (h *AppointmentsHandler) ListForProvider(c *gin.Context) {
	log := h.log.With(slog.String("handler", "ListForProvider"))

	providerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var (
		appts []domain.Appointment
		err   error
	)
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		appts, err = h.svc.ByProviderAndDate(c.Request.Context(), providerID, date, c.Query("requester_name"))
	} else {
		appts, err = h.svc.ByProvider(c.Request.Context(), providerID)
	}
	if err != nil {
		log.Error("listing provider appointments failed", slog.Any("err", err), slog.String("provider_id", providerID.String()))
		respondServiceError(c, err)
		return
	}

	respondOK(c, toAppointmentPayloads(appts))
}

func (h *AppointmentsHandler) countBooking(err error) {
	if h.collector == nil {
		return
	}
	h.collector.BookingsTotal.WithLabelValues(outcomeLabel(err)).Inc()
}

func (h *AppointmentsHandler) countReschedule(err error) {
	if h.collector == nil {
		return
	}
	h.collector.ReschedulesTotal.WithLabelValues(outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case err == scheduling.ErrProviderUnavailable, err == scheduling.ErrConflict:
		return "conflict"
	default:
		return "rejected"
	}
}
