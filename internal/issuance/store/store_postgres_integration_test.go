//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/issuance/store"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	"vcissuer/pkg/testutil"
	"vcissuer/pkg/testutil/containers"
)

type PostgresIssuanceSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	processes   *store.PostgresProcessStore
	definitions *store.PostgresDefinitionStore
	ctx         context.Context
}

func TestPostgresIssuanceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIssuanceSuite))
}

func (s *PostgresIssuanceSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.processes = store.NewPostgresProcessStore(s.postgres.DB,
		store.WithLease(store.LeaseConfig{Holder: "engine-a", Duration: time.Minute}))
	s.definitions = store.NewPostgresDefinitionStore(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresIssuanceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresIssuanceSuite) approved(id string, age time.Duration) *models.Process {
	return testutil.NewProcessBuilder(id).StateSince(time.Now(), age).Build()
}

func (s *PostgresIssuanceSuite) TestProcessRoundTrip() {
	s.Require().NoError(s.processes.Create(s.ctx, s.approved("p1", 0)))
	s.ErrorIs(s.processes.Create(s.ctx, s.approved("p1", 0)), sentinel.ErrAlreadyExists)

	found, err := s.processes.FindByID(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(models.StateApproved, found.State)
	s.Equal(credmodels.FormatVC1JWT, found.CredentialFormats["membership"])
	s.Equal([]string{"membership"}, found.CredentialDefinitions)
	s.Equal("gold", found.Claims["credentialSubject"].(map[string]any)["level"])

	_, err = s.processes.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresIssuanceSuite) TestNextNotLeased() {
	s.Require().NoError(s.processes.Create(s.ctx, s.approved("young", time.Second)))
	s.Require().NoError(s.processes.Create(s.ctx, s.approved("old", time.Hour)))

	first, err := s.processes.NextNotLeased(s.ctx, 1, models.StateApproved)
	s.Require().NoError(err)
	s.Require().Len(first, 1)
	s.Equal("old", first[0].ID)

	second, err := s.processes.NextNotLeased(s.ctx, 5, models.StateApproved, models.StateCreated)
	s.Require().NoError(err)
	s.Require().Len(second, 1)
	s.Equal("young", second[0].ID)

	other := store.NewPostgresProcessStore(s.postgres.DB, store.WithLease(store.LeaseConfig{Holder: "engine-b"}))
	s.ErrorIs(other.Save(s.ctx, first[0]), sentinel.ErrLeased)
	s.ErrorIs(other.BreakLease(s.ctx, "old"), sentinel.ErrLeased)

	p := first[0]
	s.Require().NoError(p.TransitionToDelivered(time.Now()))
	s.Require().NoError(s.processes.Save(s.ctx, p))

	delivered, err := other.Query(s.ctx, query.Where(store.FieldState, models.StateDelivered))
	s.Require().NoError(err)
	s.Require().Len(delivered, 1)
	s.Equal("old", delivered[0].ID)

	s.Require().NoError(s.processes.BreakLease(s.ctx, "young"))
	again, err := other.NextNotLeased(s.ctx, 5, models.StateApproved)
	s.Require().NoError(err)
	s.Len(again, 1)
}

func (s *PostgresIssuanceSuite) TestDefinitions() {
	d := testutil.NewDefinitionBuilder().
		WithSchema(`{"type":"object"}`).
		WithMapping("level", "credentialSubject.level", true).
		Build()
	s.Require().NoError(s.definitions.Create(s.ctx, d))

	dup := d.Clone()
	s.ErrorIs(s.definitions.Create(s.ctx, dup), sentinel.ErrAlreadyExists)
	sameType := d.Clone()
	sameType.ID = "membership-2"
	s.ErrorIs(s.definitions.Create(s.ctx, sameType), sentinel.ErrConflict)

	found, err := s.definitions.FindByID(s.ctx, "membership")
	s.Require().NoError(err)
	s.Equal(48*time.Hour, found.Validity)
	s.Equal(d.Mappings, found.Mappings)
	s.Empty(found.JSONSchemaURL)

	found.CredentialType = "GoldMembershipCredential"
	s.Require().NoError(s.definitions.Update(s.ctx, found))
	listed, err := s.definitions.Query(s.ctx, query.Where(store.FieldCredentialType, "GoldMembershipCredential"))
	s.Require().NoError(err)
	s.Len(listed, 1)

	s.Require().NoError(s.definitions.Delete(s.ctx, "membership"))
	s.ErrorIs(s.definitions.Delete(s.ctx, "membership"), sentinel.ErrNotFound)
}
