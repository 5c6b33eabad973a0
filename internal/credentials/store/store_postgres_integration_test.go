//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/store"
	"vcissuer/internal/platform/database"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	"vcissuer/pkg/testutil"
	"vcissuer/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresStoreSuite) newStatusList(id string, active bool, size int) *models.VerifiableCredentialResource {
	return &models.VerifiableCredentialResource{
		ID:                   id,
		ParticipantContextID: "issuer",
		IssuerID:             "did:example:issuer",
		State:                models.VcStatusIssued,
		Credential: models.VerifiableCredentialContainer{
			RawVC:  "header.payload.sig",
			Format: models.FormatVC1JWT,
			Credential: models.VerifiableCredential{
				Context: []string{models.ContextCredentialsV2},
				Type:    []string{models.TypeVerifiableCredential, models.TypeBitstringStatusListCredential},
				Issuer:  models.Issuer{ID: "did:example:issuer"},
				CredentialSubject: []models.CredentialSubject{{
					ID:     id + "#list",
					Claims: map[string]any{"type": models.TypeBitstringStatusList, "encodedList": "uH4sI"},
				}},
			},
		},
		StatusList: &models.StatusListMetadata{
			Purpose:       models.StatusPurposeRevocation,
			BitstringSize: size,
			Active:        active,
			Published:     true,
			PublicURL:     "http://localhost/statuslist/" + id,
		},
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	sl := s.newStatusList("sl-1", true, 16)
	s.Require().NoError(s.store.Create(s.ctx, sl))
	s.Equal(1, sl.Version)

	got, err := s.store.FindByID(s.ctx, "sl-1")
	s.Require().NoError(err)
	s.Equal("header.payload.sig", got.Credential.RawVC)
	s.Equal("sl-1#list", got.Credential.Credential.HolderID())
	s.Require().NotNil(got.StatusList)
	s.True(got.StatusList.Active)
	s.Equal(16, got.StatusList.BitstringSize)

	s.ErrorIs(s.store.Create(s.ctx, s.newStatusList("sl-1", false, 16)), sentinel.ErrAlreadyExists)
	_, err = s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPartialUniqueIndexOnActiveList() {
	s.Require().NoError(s.store.Create(s.ctx, s.newStatusList("sl-1", true, 16)))
	s.ErrorIs(s.store.Create(s.ctx, s.newStatusList("sl-2", true, 16)), sentinel.ErrConflict)
	s.NoError(s.store.Create(s.ctx, s.newStatusList("sl-3", false, 16)))
}

func (s *PostgresStoreSuite) TestVersionedUpdateLeavesIndexAlone() {
	s.Require().NoError(s.store.Create(s.ctx, s.newStatusList("sl-1", true, 16)))
	stale, err := s.store.FindByID(s.ctx, "sl-1")
	s.Require().NoError(err)

	s.Require().NoError(s.store.IncrementStatusListIndex(s.ctx, "sl-1", 0))

	stale.StatusList.Active = false
	s.Require().NoError(s.store.Update(s.ctx, stale))
	s.Equal(2, stale.Version)
	s.Equal(1, stale.StatusList.CurrentIndex)

	stale.Version = 1
	s.ErrorIs(s.store.Update(s.ctx, stale), sentinel.ErrConflict)

	missing := s.newStatusList("nope", false, 16)
	missing.Version = 1
	s.ErrorIs(s.store.Update(s.ctx, missing), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentIncrement() {
	const size = 32
	s.Require().NoError(s.store.Create(s.ctx, s.newStatusList("sl-1", true, size)))

	result := testutil.RunConcurrent(size*2, func(int) error {
		for {
			current, err := s.store.FindByID(s.ctx, "sl-1")
			if err != nil {
				return err
			}
			if current.StatusList.IsFull() {
				return sentinel.ErrConflict
			}
			if err := s.store.IncrementStatusListIndex(s.ctx, "sl-1", current.StatusList.CurrentIndex); err == nil {
				return nil
			}
		}
	})
	s.Equal(int32(size), result.Successes)
	s.Equal(int32(size), result.Conflicts)

	got, err := s.store.FindByID(s.ctx, "sl-1")
	s.Require().NoError(err)
	s.Equal(size, got.StatusList.CurrentIndex)
}

func (s *PostgresStoreSuite) TestQueryAndTransactionJoin() {
	runner := database.NewTxRunner(s.postgres.DB, 0)
	err := runner.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, s.newStatusList("sl-1", true, 16)); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	s.ErrorIs(err, sql.ErrTxDone)
	_, err = s.store.FindByID(s.ctx, "sl-1")
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled back with the transaction")

	s.Require().NoError(s.store.Create(s.ctx, s.newStatusList("sl-2", true, 16)))
	found, err := s.store.Query(s.ctx, query.Where(store.FieldStatusListPublicURL, "http://localhost/statuslist/sl-2"))
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("sl-2", found[0].ID)

	lists, err := s.store.Query(s.ctx, query.Where(store.FieldIsStatusList, true).And(store.FieldStatusListActive, true))
	s.Require().NoError(err)
	s.Len(lists, 1)
}
