package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/service/directory"
	"carebook/internal/service/prescriptions"
	"carebook/internal/service/scheduling"
)

type apiResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type appointmentPayload struct {
	ID            string `json:"id"`
	ProviderID    string `json:"provider_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

func toAppointmentPayload(a domain.Appointment) appointmentPayload {
	p := appointmentPayload{
		ID:          a.ID.String(),
		ProviderID:  a.ProviderID.String(),
		RequesterID: a.RequesterID.String(),
		StartTime:   a.StartTime.UTC().Format(time.RFC3339),
		EndTime:     a.EndTime.UTC().Format(time.RFC3339),
		Status:      string(a.Status),
	}
	if a.Requester != nil {
		p.RequesterName = a.Requester.Name
	}
	return p
}

func toAppointmentPayloads(appts []domain.Appointment) []appointmentPayload {
	out := make([]appointmentPayload, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentPayload(a))
	}
	return out
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, apiResponse{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, apiResponse{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Error: message})
}

// respondServiceError maps the closed set of business-rule errors onto
// HTTP statuses. Anything unrecognized is a storage failure and surfaces
// as a 500 without leaking internals.
func respondServiceError(c *gin.Context, err error) {
	var schedValidation *scheduling.ValidationError
	var dirValidation *directory.ValidationError
	var rxValidation *prescriptions.ValidationError
	if errors.As(err, &schedValidation) || errors.As(err, &dirValidation) || errors.As(err, &rxValidation) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case errors.Is(err, scheduling.ErrNotFound),
		errors.Is(err, directory.ErrProviderNotFound),
		errors.Is(err, directory.ErrRequesterNotFound),
		errors.Is(err, prescriptions.ErrAppointmentNotFound),
		errors.Is(err, prescriptions.ErrPrescriptionNotFound):
		respondError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, scheduling.ErrUnauthorized):
		respondError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, scheduling.ErrProviderUnavailable),
		errors.Is(err, scheduling.ErrConflict),
		errors.Is(err, directory.ErrEmailTaken),
		errors.Is(err, prescriptions.ErrAlreadyIssued):
		respondError(c, http.StatusConflict, err.Error())

	case errors.Is(err, scheduling.ErrInvalidProvider),
		errors.Is(err, scheduling.ErrInvalidRequester),
		errors.Is(err, scheduling.ErrStartNotFuture),
		errors.Is(err, scheduling.ErrInvalidStatus),
		errors.Is(err, scheduling.ErrNotReschedulable),
		errors.Is(err, scheduling.ErrNotCancellable):
		respondError(c, http.StatusBadRequest, err.Error())

	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func parseUUIDParam(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
