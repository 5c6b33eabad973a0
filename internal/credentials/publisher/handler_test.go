package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/store"
)

type stubLookup struct {
	raw map[string]string
	err error
}

func (s stubLookup) Lookup(_ context.Context, id string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	raw, ok := s.raw[id]
	return raw, ok, nil
}

type HandlerSuite struct {
	suite.Suite
	store  *store.InMemoryStore
	router *chi.Mux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.router = chi.NewRouter()
	NewHandler(s.store, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)

	s.seed("sl-1", true)
	s.seed("sl-draft", false)
	s.Require().NoError(s.store.Create(context.Background(), &models.VerifiableCredentialResource{
		ID:         "holder-cred",
		State:      models.VcStatusIssued,
		Credential: models.VerifiableCredentialContainer{RawVC: "h.h.h", Format: models.FormatVC1JWT},
	}))
}

func (s *HandlerSuite) seed(id string, published bool) {
	s.Require().NoError(s.store.Create(context.Background(), &models.VerifiableCredentialResource{
		ID:                   id,
		ParticipantContextID: "issuer",
		State:                models.VcStatusIssued,
		Credential: models.VerifiableCredentialContainer{
			RawVC:  "jwt-" + id,
			Format: models.FormatVC1JWT,
			Credential: models.VerifiableCredential{
				ID:     "urn:uuid:" + id,
				Type:   []string{models.TypeVerifiableCredential, models.TypeBitstringStatusListCredential},
				Issuer: models.Issuer{ID: "did:example:issuer"},
			},
		},
		StatusList: &models.StatusListMetadata{Purpose: models.StatusPurposeRevocation, BitstringSize: 8, Published: published},
	}))
}

func (s *HandlerSuite) get(path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestServesJWTByDefault() {
	rec := s.get("/statuslist/sl-1", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(contentTypeVCJWT, rec.Header().Get("Content-Type"))
	s.Equal("jwt-sl-1", rec.Body.String())
}

func (s *HandlerSuite) TestServesJSONOnRequest() {
	rec := s.get("/statuslist/sl-1", "application/json")
	s.Equal(http.StatusOK, rec.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("urn:uuid:sl-1", body["id"])
	s.Equal("did:example:issuer", body["issuer"])
}

func (s *HandlerSuite) TestNotFound() {
	for _, path := range []string{"/statuslist/missing", "/statuslist/sl-draft", "/statuslist/holder-cred"} {
		rec := s.get(path, "")
		s.Equal(http.StatusNotFound, rec.Code, path)
	}
}

func (s *HandlerSuite) TestPrefersRawLookup() {
	router := chi.NewRouter()
	NewHandler(s.store, stubLookup{raw: map[string]string{"sl-1": "cached-jwt"}}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/statuslist/sl-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal("cached-jwt", rec.Body.String())

	router = chi.NewRouter()
	NewHandler(s.store, stubLookup{err: errors.New("redis down")}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statuslist/sl-1", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("jwt-sl-1", rec.Body.String(), "falls back to the store")
}
