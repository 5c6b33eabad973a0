package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/store"
	platformmw "vcissuer/internal/platform/middleware"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/httputil"
	"vcissuer/pkg/platform/query"
)

// Service is the credential status surface exposed to operators.
type Service interface {
	RevokeCredential(ctx context.Context, credentialID string) error
	SuspendCredential(ctx context.Context, credentialID, reason string) error
	ResumeCredential(ctx context.Context, credentialID, reason string) error
	GetCredentialStatus(ctx context.Context, credentialID string) (string, error)
	GetCredentialByID(ctx context.Context, credentialID string) (*models.VerifiableCredentialResource, error)
	QueryCredentials(ctx context.Context, participantContextID string, spec query.Spec) ([]*models.VerifiableCredentialResource, error)
}

// Handler serves the admin credential endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes; callers wrap r with the admin guard.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/credentials/{id}", h.handleGetCredential)
	r.Get("/admin/credentials/{id}/status", h.handleGetStatus)
	r.Post("/admin/credentials/{id}/revoke", h.handleRevoke)
	r.Post("/admin/credentials/{id}/suspend", h.handleSuspend)
	r.Post("/admin/credentials/{id}/resume", h.handleResume)
	r.Get("/admin/participants/{pid}/credentials", h.handleListCredentials)
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	cred, err := h.service.GetCredentialByID(ctx, id)
	if err != nil {
		h.fail(w, r, "failed to load credential", err, "credential_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(cred))
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	status, err := h.service.GetCredentialStatus(ctx, id)
	if err != nil {
		h.fail(w, r, "failed to read credential status", err, "credential_id", id)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		CredentialID: id,
		Status:       status,
		Revoked:      status == models.StatusPurposeRevocation,
	})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.service.RevokeCredential(ctx, id); err != nil {
		h.fail(w, r, "failed to revoke credential", err, "credential_id", id)
		return
	}
	h.logger.InfoContext(ctx, "credential revoked by operator",
		"request_id", middleware.GetReqID(ctx),
		"credential_id", id,
		"actor", platformmw.AdminActorID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.SuspendCredential, "failed to suspend credential")
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.ResumeCredential, "failed to resume credential")
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) error, failure string) {
	id := chi.URLParam(r, "id")

	reason := ""
	if r.ContentLength > 0 {
		req, ok := httputil.DecodeAndPrepare[reasonRequest](w, r, h.logger)
		if !ok {
			return
		}
		reason = req.Reason
	}
	if err := op(r.Context(), id, reason); err != nil {
		h.fail(w, r, failure, err, "credential_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pid := chi.URLParam(r, "pid")

	spec, err := filtersFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	found, err := h.service.QueryCredentials(ctx, pid, spec)
	if err != nil {
		h.fail(w, r, "failed to query credentials", err, "participant_context_id", pid)
		return
	}

	resp := listResponse{Credentials: make([]credentialResponse, 0, len(found))}
	for _, c := range found {
		resp.Credentials = append(resp.Credentials, toCredentialResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// filtersFromQuery turns ?state=&holderId=&statusLists= into a query spec.
// Status-list credentials are hidden unless statusLists=true.
func filtersFromQuery(r *http.Request) (query.Spec, error) {
	q := r.URL.Query()
	spec := query.Where(store.FieldIsStatusList, strings.EqualFold(q.Get("statusLists"), "true"))
	if raw := q.Get("state"); raw != "" {
		state, err := models.ParseVcStatus(raw)
		if err != nil {
			return query.Spec{}, dErrors.New(dErrors.CodeBadRequest, "invalid state filter")
		}
		spec = spec.And(store.FieldState, state)
	}
	if holder := q.Get("holderId"); holder != "" {
		spec = spec.And(store.FieldHolderID, holder)
	}
	return spec, nil
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
