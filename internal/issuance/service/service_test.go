package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/issuance/store"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	processes *store.InMemoryProcessStore
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s.processes = store.NewInMemoryProcessStore()
	directory := participants.NewDirectory(participants.NewInMemoryHolderStore(),
		participants.Participant{ID: "issuer", DID: "did:example:issuer"},
		participants.Participant{ID: "other", DID: "did:example:other"},
	)
	ids := []string{"process-1", "process-2"}
	s.service = New(s.processes, store.NewInMemoryDefinitionStore(), directory,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
	)

	_, err := s.service.CreateDefinition(s.ctx, &models.CredentialDefinition{
		ID:                   "membership",
		ParticipantContextID: "issuer",
		CredentialType:       "MembershipCredential",
		Format:               credmodels.FormatVC1JWT,
		Validity:             time.Hour,
	})
	s.Require().NoError(err)
	_, err = s.service.RegisterHolder(s.ctx, &participants.Holder{
		ParticipantContextID: "issuer",
		HolderID:             "alice",
		DID:                  "did:example:alice",
		StorageURL:           "https://wallet.example/alice",
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestDefinitionConflicts() {
	_, err := s.service.CreateDefinition(s.ctx, &models.CredentialDefinition{
		ID: "membership", ParticipantContextID: "issuer", CredentialType: "Other", Format: credmodels.FormatVC1JWT,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.CreateDefinition(s.ctx, &models.CredentialDefinition{
		ID: "membership-2", ParticipantContextID: "issuer", CredentialType: "MembershipCredential", Format: credmodels.FormatVC1JWT,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.CreateDefinition(s.ctx, &models.CredentialDefinition{
		ID: "bad", ParticipantContextID: "issuer", CredentialType: "X", Format: "PDF",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestDefinitionsAreScopedToParticipant() {
	_, err := s.service.GetDefinition(s.ctx, "other", "membership")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(s.service.DeleteDefinition(s.ctx, "other", "membership"), dErrors.CodeNotFound))

	defs, err := s.service.ListDefinitions(s.ctx, "issuer")
	s.Require().NoError(err)
	s.Len(defs, 1)

	s.Require().NoError(s.service.DeleteDefinition(s.ctx, "issuer", "membership"))
	_, err = s.service.GetDefinition(s.ctx, "issuer", "membership")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateDefinition() {
	updated, err := s.service.UpdateDefinition(s.ctx, &models.CredentialDefinition{
		ID: "membership", ParticipantContextID: "issuer", CredentialType: "MembershipCredential",
		Format: credmodels.FormatVC1JWT, Validity: 48 * time.Hour,
	})
	s.Require().NoError(err)
	s.Equal(48*time.Hour, updated.Validity)

	_, err = s.service.UpdateDefinition(s.ctx, &models.CredentialDefinition{
		ID: "missing", ParticipantContextID: "issuer", CredentialType: "X", Format: credmodels.FormatVC1JWT,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRequestIssuanceCreatesApprovedProcess() {
	p, err := s.service.RequestIssuance(s.ctx, IssuanceRequest{
		ParticipantContextID: "issuer",
		HolderID:             "alice",
		HolderPID:            "holder-pid",
		Formats:              map[string]credmodels.CredentialFormat{"membership": ""},
		Claims:               map[string]any{"credentialSubject": map[string]any{"level": "gold"}},
	})
	s.Require().NoError(err)
	s.Equal("process-1", p.ID)
	s.Equal(models.StateApproved, p.State)
	s.Equal(1, p.StateCount)
	s.Equal(credmodels.FormatVC1JWT, p.CredentialFormats["membership"])

	stored, err := s.service.GetProcess(s.ctx, "process-1")
	s.Require().NoError(err)
	s.Equal(models.StateApproved, stored.State)
	s.Equal(s.now, stored.StateTimestamp)
}

func (s *ServiceSuite) TestRequestIssuanceRejectsUnknownReferences() {
	tests := []struct {
		name string
		req  IssuanceRequest
		code dErrors.Code
	}{
		{"unknown holder", IssuanceRequest{ParticipantContextID: "issuer", HolderID: "bob",
			Formats: map[string]credmodels.CredentialFormat{"membership": credmodels.FormatVC1JWT}}, dErrors.CodeNotFound},
		{"unknown definition", IssuanceRequest{ParticipantContextID: "issuer", HolderID: "alice",
			Formats: map[string]credmodels.CredentialFormat{"nope": credmodels.FormatVC1JWT}}, dErrors.CodeNotFound},
		{"no definitions", IssuanceRequest{ParticipantContextID: "issuer", HolderID: "alice"}, dErrors.CodeValidation},
		{"missing holder", IssuanceRequest{ParticipantContextID: "issuer"}, dErrors.CodeValidation},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.RequestIssuance(s.ctx, tt.req)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := s.service.GetProcess(s.ctx, "process-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
