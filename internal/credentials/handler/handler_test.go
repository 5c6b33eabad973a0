package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vcissuer/internal/credentials/handler/mocks"
	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/store"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/query"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  *chi.Mux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) errorBody(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) TestRevoke() {
	s.Run("success is 204", func() {
		s.service.EXPECT().RevokeCredential(gomock.Any(), "cred-1").Return(nil)
		rec := s.do(http.MethodPost, "/admin/credentials/cred-1/revoke", "")
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("service detail is surfaced unmodified", func() {
		msg := "Credential did not contain a credentialStatus object with 'statusPurpose = revocation'"
		s.service.EXPECT().RevokeCredential(gomock.Any(), "cred-2").Return(dErrors.New(dErrors.CodeBadRequest, msg))
		rec := s.do(http.MethodPost, "/admin/credentials/cred-2/revoke", "")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(msg, s.errorBody(rec)["error_description"])
	})

	s.Run("conflict maps to 409", func() {
		s.service.EXPECT().RevokeCredential(gomock.Any(), "cred-3").Return(dErrors.New(dErrors.CodeConflict, "busy"))
		rec := s.do(http.MethodPost, "/admin/credentials/cred-3/revoke", "")
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("missing credential maps to 404", func() {
		s.service.EXPECT().RevokeCredential(gomock.Any(), "nope").Return(dErrors.New(dErrors.CodeNotFound, "credential 'nope' not found"))
		rec := s.do(http.MethodPost, "/admin/credentials/nope/revoke", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestSuspendPassesTrimmedReason() {
	s.service.EXPECT().SuspendCredential(gomock.Any(), "cred-1", "under review").
		Return(dErrors.New(dErrors.CodeUnsupported, "suspending credentials is not supported"))

	rec := s.do(http.MethodPost, "/admin/credentials/cred-1/suspend", `{"reason":"  under review "}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("unsupported_operation", s.errorBody(rec)["error"])
}

func (s *HandlerSuite) TestResumeWithoutBody() {
	s.service.EXPECT().ResumeCredential(gomock.Any(), "cred-1", "").Return(nil)
	rec := s.do(http.MethodPost, "/admin/credentials/cred-1/resume", "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestGetStatus() {
	s.service.EXPECT().GetCredentialStatus(gomock.Any(), "cred-1").Return(models.StatusPurposeRevocation, nil)

	rec := s.do(http.MethodGet, "/admin/credentials/cred-1/status", "")

	s.Require().Equal(http.StatusOK, rec.Code)
	var body statusResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(statusResponse{CredentialID: "cred-1", Status: "revocation", Revoked: true}, body)
}

func (s *HandlerSuite) TestGetCredential() {
	s.service.EXPECT().GetCredentialByID(gomock.Any(), "cred-1").Return(&models.VerifiableCredentialResource{
		ID:                   "cred-1",
		ParticipantContextID: "issuer",
		HolderID:             "did:example:holder",
		State:                models.VcStatusIssued,
		Credential:           models.VerifiableCredentialContainer{RawVC: "a.b.c", Format: models.FormatVC1JWT},
	}, nil)

	rec := s.do(http.MethodGet, "/admin/credentials/cred-1", "")

	s.Require().Equal(http.StatusOK, rec.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("cred-1", body["id"])
	s.Equal("VC1_0_JWT", body["format"])
	s.Equal("a.b.c", body["rawVc"])
	s.Equal("ISSUED", body["state"])
}

func (s *HandlerSuite) TestListCredentials() {
	s.Run("filters are translated into the query", func() {
		want := query.Where(store.FieldIsStatusList, false).
			And(store.FieldState, models.VcStatusRevoked).
			And(store.FieldHolderID, "did:example:holder")
		s.service.EXPECT().QueryCredentials(gomock.Any(), "issuer", want).
			Return([]*models.VerifiableCredentialResource{{ID: "cred-1"}, {ID: "cred-2"}}, nil)

		rec := s.do(http.MethodGet, "/admin/participants/issuer/credentials?state=revoked&holderId=did:example:holder", "")

		s.Require().Equal(http.StatusOK, rec.Code)
		var body listResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Len(body.Credentials, 2)
	})

	s.Run("unknown state is a bad request", func() {
		rec := s.do(http.MethodGet, "/admin/participants/issuer/credentials?state=lost", "")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid state filter", s.errorBody(rec)["error_description"])
	})

	s.Run("empty result is an empty array", func() {
		s.service.EXPECT().QueryCredentials(gomock.Any(), "other", gomock.Any()).Return(nil, nil)
		rec := s.do(http.MethodGet, "/admin/participants/other/credentials", "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"credentials":[]}`, rec.Body.String())
	})
}
