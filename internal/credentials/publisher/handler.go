package publisher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vcissuer/internal/credentials/models"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/httputil"
	"vcissuer/pkg/platform/sentinel"
)

const contentTypeVCJWT = "application/vc+jwt"

// CredentialFinder loads status-list credentials from the store.
type CredentialFinder interface {
	FindByID(ctx context.Context, id string) (*models.VerifiableCredentialResource, error)
}

// RawLookup is a faster source for the signed form, e.g. RedisPublisher.
type RawLookup interface {
	Lookup(ctx context.Context, id string) (string, bool, error)
}

// Handler resolves published status-list credentials.
type Handler struct {
	credentials CredentialFinder
	raw         RawLookup
	logger      *slog.Logger
}

// NewHandler builds the resolution handler; raw may be nil.
func NewHandler(credentials CredentialFinder, raw RawLookup, logger *slog.Logger) *Handler {
	return &Handler{credentials: credentials, raw: raw, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get(PathPrefix+"{id}", h.handleGetStatusList)
}

func (h *Handler) handleGetStatusList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	if !wantsJSON && h.raw != nil {
		raw, ok, err := h.raw.Lookup(ctx, id)
		if err != nil {
			h.logger.WarnContext(ctx, "status list cache lookup failed, falling back to store",
				"request_id", middleware.GetReqID(ctx),
				"status_list_id", id,
				"error", err,
			)
		}
		if ok {
			writeJWT(w, raw)
			return
		}
	}

	list, err := h.credentials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "status list credential not found"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to load status list credential",
			"request_id", middleware.GetReqID(ctx),
			"status_list_id", id,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load status list credential"))
		return
	}
	if !list.IsStatusList() || !list.StatusList.Published {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "status list credential not found"))
		return
	}

	if wantsJSON || list.Credential.RawVC == "" {
		httputil.WriteJSON(w, http.StatusOK, list.Credential.Credential)
		return
	}
	writeJWT(w, list.Credential.RawVC)
}

func writeJWT(w http.ResponseWriter, raw string) {
	w.Header().Set("Content-Type", contentTypeVCJWT)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(raw))
}
