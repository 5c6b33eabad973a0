package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vcissuer/internal/issuance/models"
	"vcissuer/internal/issuance/service"
	"vcissuer/internal/participants"
	platformmw "vcissuer/internal/platform/middleware"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/httputil"
)

// Service is the issuance administration surface.
type Service interface {
	CreateDefinition(ctx context.Context, def *models.CredentialDefinition) (*models.CredentialDefinition, error)
	UpdateDefinition(ctx context.Context, def *models.CredentialDefinition) (*models.CredentialDefinition, error)
	GetDefinition(ctx context.Context, participantContextID, id string) (*models.CredentialDefinition, error)
	ListDefinitions(ctx context.Context, participantContextID string) ([]*models.CredentialDefinition, error)
	DeleteDefinition(ctx context.Context, participantContextID, id string) error
	RegisterHolder(ctx context.Context, holder *participants.Holder) (*participants.Holder, error)
	RequestIssuance(ctx context.Context, req service.IssuanceRequest) (*models.Process, error)
	GetProcess(ctx context.Context, id string) (*models.Process, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes; callers wrap r with the admin guard.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/participants/{pid}", func(r chi.Router) {
		r.Get("/definitions", h.handleListDefinitions)
		r.Post("/definitions", h.handleCreateDefinition)
		r.Get("/definitions/{id}", h.handleGetDefinition)
		r.Put("/definitions/{id}", h.handleUpdateDefinition)
		r.Delete("/definitions/{id}", h.handleDeleteDefinition)
		r.Post("/holders", h.handleRegisterHolder)
		r.Post("/issuance", h.handleRequestIssuance)
	})
	r.Get("/admin/issuance/{id}", h.handleGetProcess)
}

func (h *Handler) handleCreateDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid := chi.URLParam(r, "pid")

	req, ok := httputil.DecodeAndPrepare[definitionRequest](w, r, h.logger)
	if !ok {
		return
	}
	def, err := h.service.CreateDefinition(ctx, req.toModel(pid))
	if err != nil {
		h.fail(w, r, "failed to create credential definition", err, "participant_context_id", pid)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDefinitionResponse(def))
}

func (h *Handler) handleUpdateDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid := chi.URLParam(r, "pid")
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[definitionRequest](w, r, h.logger)
	if !ok {
		return
	}
	req.ID = id
	def, err := h.service.UpdateDefinition(ctx, req.toModel(pid))
	if err != nil {
		h.fail(w, r, "failed to update credential definition", err, "definition_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDefinitionResponse(def))
}

func (h *Handler) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "pid")
	id := chi.URLParam(r, "id")

	def, err := h.service.GetDefinition(r.Context(), pid, id)
	if err != nil {
		h.fail(w, r, "failed to load credential definition", err, "definition_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDefinitionResponse(def))
}

func (h *Handler) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "pid")

	defs, err := h.service.ListDefinitions(r.Context(), pid)
	if err != nil {
		h.fail(w, r, "failed to list credential definitions", err, "participant_context_id", pid)
		return
	}
	resp := definitionListResponse{Definitions: make([]definitionResponse, 0, len(defs))}
	for _, d := range defs {
		resp.Definitions = append(resp.Definitions, toDefinitionResponse(d))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDeleteDefinition(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "pid")
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteDefinition(r.Context(), pid, id); err != nil {
		h.fail(w, r, "failed to delete credential definition", err, "definition_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegisterHolder(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "pid")

	req, ok := httputil.DecodeAndPrepare[holderRequest](w, r, h.logger)
	if !ok {
		return
	}
	holder, err := h.service.RegisterHolder(r.Context(), req.toModel(pid))
	if err != nil {
		h.fail(w, r, "failed to register holder", err, "participant_context_id", pid)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, holder)
}

func (h *Handler) handleRequestIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid := chi.URLParam(r, "pid")

	req, ok := httputil.DecodeAndPrepare[issuanceRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.service.RequestIssuance(ctx, service.IssuanceRequest{
		ParticipantContextID: pid,
		HolderID:             req.HolderID,
		HolderPID:            req.HolderPID,
		Formats:              req.CredentialFormats,
		Claims:               req.Claims,
	})
	if err != nil {
		h.fail(w, r, "failed to request issuance", err, "participant_context_id", pid)
		return
	}
	h.logger.InfoContext(ctx, "issuance requested by operator",
		"request_id", middleware.GetReqID(ctx),
		"process_id", p.ID,
		"actor", platformmw.AdminActorID(ctx),
	)
	httputil.WriteJSON(w, http.StatusAccepted, toProcessResponse(p))
}

func (h *Handler) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.GetProcess(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to load issuance process", err, "process_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProcessResponse(p))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	ctx := r.Context()
	attrs = append(attrs, "request_id", middleware.GetReqID(ctx), "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
