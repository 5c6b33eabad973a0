package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/handler/mocks"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/issuance/service"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
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

func (s *HandlerSuite) TestCreateDefinition() {
	s.Run("defaults the format and parses validity", func() {
		s.service.EXPECT().CreateDefinition(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, def *models.CredentialDefinition) (*models.CredentialDefinition, error) {
				s.Equal("issuer", def.ParticipantContextID)
				s.Equal("MembershipCredential", def.CredentialType)
				s.Equal(credmodels.FormatVC1JWT, def.Format)
				s.Equal(720*time.Hour, def.Validity)
				def.ID = "generated"
				return def, nil
			})

		rec := s.do(http.MethodPost, "/admin/participants/issuer/definitions",
			`{"credentialType":" MembershipCredential ","validity":"720h"}`)

		s.Require().Equal(http.StatusCreated, rec.Code)
		var body definitionResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("generated", body.ID)
		s.Equal("720h0m0s", body.Validity)
	})

	s.Run("missing type is rejected before the service", func() {
		rec := s.do(http.MethodPost, "/admin/participants/issuer/definitions", `{"format":"VC1_0_JWT"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("bad validity is rejected", func() {
		rec := s.do(http.MethodPost, "/admin/participants/issuer/definitions", `{"credentialType":"X","validity":"a year"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("duplicate type is 409", func() {
		s.service.EXPECT().CreateDefinition(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "A credential definition for type 'X' already exists"))
		rec := s.do(http.MethodPost, "/admin/participants/issuer/definitions", `{"credentialType":"X"}`)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestDefinitionLookup() {
	def := &models.CredentialDefinition{ID: "membership", ParticipantContextID: "issuer", CredentialType: "MembershipCredential", Format: credmodels.FormatVC1JWT}

	s.service.EXPECT().GetDefinition(gomock.Any(), "issuer", "membership").Return(def, nil)
	rec := s.do(http.MethodGet, "/admin/participants/issuer/definitions/membership", "")
	s.Equal(http.StatusOK, rec.Code)

	s.service.EXPECT().GetDefinition(gomock.Any(), "issuer", "nope").Return(nil, dErrors.New(dErrors.CodeNotFound, "Credential definition 'nope' not found"))
	rec = s.do(http.MethodGet, "/admin/participants/issuer/definitions/nope", "")
	s.Equal(http.StatusNotFound, rec.Code)

	s.service.EXPECT().ListDefinitions(gomock.Any(), "issuer").Return([]*models.CredentialDefinition{def}, nil)
	rec = s.do(http.MethodGet, "/admin/participants/issuer/definitions", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var list definitionListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Len(list.Definitions, 1)

	s.service.EXPECT().DeleteDefinition(gomock.Any(), "issuer", "membership").Return(nil)
	rec = s.do(http.MethodDelete, "/admin/participants/issuer/definitions/membership", "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestUpdateDefinitionUsesPathID() {
	s.service.EXPECT().UpdateDefinition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, def *models.CredentialDefinition) (*models.CredentialDefinition, error) {
			s.Equal("membership", def.ID)
			return def, nil
		})
	rec := s.do(http.MethodPut, "/admin/participants/issuer/definitions/membership", `{"id":"ignored","credentialType":"MembershipCredential"}`)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestRegisterHolder() {
	s.service.EXPECT().RegisterHolder(gomock.Any(), &participants.Holder{
		ParticipantContextID: "issuer",
		HolderID:             "alice",
		DID:                  "did:example:alice",
		StorageURL:           "https://wallet.example/alice",
	}).DoAndReturn(func(_ any, h *participants.Holder) (*participants.Holder, error) { return h, nil })

	rec := s.do(http.MethodPost, "/admin/participants/issuer/holders",
		`{"holderId":"alice","did":"did:example:alice","storageUrl":" https://wallet.example/alice "}`)
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *HandlerSuite) TestRequestIssuance() {
	s.Run("definition ids and formats are merged", func() {
		s.service.EXPECT().RequestIssuance(gomock.Any(), service.IssuanceRequest{
			ParticipantContextID: "issuer",
			HolderID:             "alice",
			Formats: map[string]credmodels.CredentialFormat{
				"membership": "",
				"degree":     credmodels.FormatVC1JWT,
			},
			Claims: map[string]any{"credentialSubject": map[string]any{"level": "gold"}},
		}).Return(&models.Process{
			ID: "process-1", ParticipantContextID: "issuer", HolderID: "alice",
			State: models.StateApproved, StateCount: 1,
		}, nil)

		rec := s.do(http.MethodPost, "/admin/participants/issuer/issuance", `{
			"holderId":"alice",
			"credentialDefinitions":["membership"," membership ",""],
			"credentialFormats":{"degree":"VC1_0_JWT"},
			"claims":{"credentialSubject":{"level":"gold"}}
		}`)

		s.Require().Equal(http.StatusAccepted, rec.Code)
		var body processResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("process-1", body.ID)
		s.Equal("APPROVED", body.State)
	})

	s.Run("request size is bounded", func() {
		ids := make([]string, 0, 21)
		for i := range 21 {
			ids = append(ids, fmt.Sprintf("%q", fmt.Sprintf("def-%d", i)))
		}
		rec := s.do(http.MethodPost, "/admin/participants/issuer/issuance",
			`{"holderId":"alice","credentialDefinitions":[`+strings.Join(ids, ",")+`]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("no definitions is rejected", func() {
		rec := s.do(http.MethodPost, "/admin/participants/issuer/issuance", `{"holderId":"alice"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestGetProcess() {
	s.service.EXPECT().GetProcess(gomock.Any(), "process-1").Return(&models.Process{
		ID: "process-1", State: models.StateErrored, StateCount: 1, ErrorDetail: "GENERATING: boom",
	}, nil)
	rec := s.do(http.MethodGet, "/admin/issuance/process-1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var body processResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("ERRORED", body.State)
	s.Equal("GENERATING: boom", body.ErrorDetail)

	s.service.EXPECT().GetProcess(gomock.Any(), "missing").Return(nil, dErrors.New(dErrors.CodeNotFound, "Issuance process 'missing' not found"))
	rec = s.do(http.MethodGet, "/admin/issuance/missing", "")
	s.Equal(http.StatusNotFound, rec.Code)
}
