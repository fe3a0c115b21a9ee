package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carebook/internal/domain"
	"carebook/internal/service/directory"
)

type directoryService interface {
	RegisterProvider(ctx context.Context, in directory.ProviderInput) (domain.Provider, error)
	GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error)
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	RemoveProvider(ctx context.Context, id uuid.UUID) error
	RegisterRequester(ctx context.Context, in directory.RequesterInput) (domain.Requester, error)
	GetRequester(ctx context.Context, id uuid.UUID) (domain.Requester, error)
}

type DirectoryHandler struct {
	svc directoryService
	log *slog.Logger
}

func NewDirectoryHandler(svc directoryService, log *slog.Logger) *DirectoryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DirectoryHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.directory")),
	}
}

type providerPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

func toProviderPayload(p domain.Provider) providerPayload {
	return providerPayload{
		ID:        p.ID.String(),
		Name:      p.Name,
		Specialty: p.Specialty,
		Email:     p.Email,
		Phone:     p.Phone,
	}
}

type requesterPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type registerProviderRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (h *DirectoryHandler) RegisterProvider(c *gin.Context) {
	var req registerProviderRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.RegisterProvider(c.Request.Context(), directory.ProviderInput{
		Name:      req.Name,
		Specialty: req.Specialty,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.log.Info("provider registered",
		slog.String("provider_id", p.ID.String()),
		slog.String("specialty", p.Specialty),
	)
	respondCreated(c, toProviderPayload(p))
}

func (h *DirectoryHandler) GetProvider(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetProvider(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toProviderPayload(p))
}

func (h *DirectoryHandler) ListProviders(c *gin.Context) {
	providers, err := h.svc.ListProviders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]providerPayload, 0, len(providers))
	for _, p := range providers {
		out = append(out, toProviderPayload(p))
	}
	respondOK(c, out)
}

func (h *DirectoryHandler) RemoveProvider(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.RemoveProvider(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	h.log.Info("provider removed", slog.String("provider_id", id.String()))
	respondOK(c, gin.H{"provider_id": id.String(), "status": "removed"})
}

type registerRequesterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *DirectoryHandler) RegisterRequester(c *gin.Context) {
	var req registerRequesterRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.RegisterRequester(c.Request.Context(), directory.RequesterInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.log.Info("requester registered", slog.String("requester_id", r.ID.String()))
	respondCreated(c, requesterPayload{
		ID:    r.ID.String(),
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	})
}

func (h *DirectoryHandler) GetRequester(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.GetRequester(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, requesterPayload{
		ID:    r.ID.String(),
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	})
}
