package generator_test

//go:generate mockgen -source=registry.go -destination=mocks/generator_mock.go -package=mocks Generator,KeyProvider

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/generator"
	"vcissuer/internal/issuance/generator/mocks"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type RegistrySuite struct {
	suite.Suite
	ctx      context.Context
	keys     *generator.InMemoryKeyProvider
	key      *generator.KeyPair
	registry *generator.Registry
	def      *models.CredentialDefinition
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	dir := participants.NewDirectory(participants.NewInMemoryHolderStore(),
		participants.Participant{ID: "issuer", DID: "did:example:issuer"})
	s.Require().NoError(dir.RegisterHolder(s.ctx, &participants.Holder{
		ParticipantContextID: "issuer",
		HolderID:             "holderId",
		DID:                  "did:example:holder",
		StorageURL:           "https://wallet.example/credentials",
	}))

	s.keys = generator.NewInMemoryKeyProvider()
	var err error
	s.key, err = s.keys.Generate("issuer", "key-1")
	s.Require().NoError(err)

	s.registry = generator.NewRegistry(s.keys, dir, generator.NewJWTGenerator(func() time.Time { return fixedNow }))
	s.def = &models.CredentialDefinition{
		ID:                   "membership",
		ParticipantContextID: "issuer",
		CredentialType:       "MembershipCredential",
		Format:               credmodels.FormatVC1JWT,
		Validity:             24 * time.Hour,
	}
}

func (s *RegistrySuite) request() models.GenerationRequest {
	return models.GenerationRequest{Definition: s.def, Format: credmodels.FormatVC1JWT}
}

func (s *RegistrySuite) parse(raw string) (*jwt.Token, *generator.CredentialClaims) {
	claims := &generator.CredentialClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return &s.key.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return fixedNow }))
	s.Require().NoError(err)
	return token, claims
}

func (s *RegistrySuite) TestGenerateJWTCredential() {
	claims := map[string]any{"credentialSubject": map[string]any{"level": "gold"}}

	out, err := s.registry.GenerateCredentials(s.ctx, "issuer", "holderId", []models.GenerationRequest{s.request()}, claims)
	s.Require().NoError(err)
	s.Require().Len(out, 1)

	c := out[0]
	s.Equal(credmodels.FormatVC1JWT, c.Format)
	s.Equal([]string{"VerifiableCredential", "MembershipCredential"}, c.Credential.Type)
	s.Equal("did:example:issuer", c.Credential.Issuer.ID)
	s.Equal("did:example:holder", c.Credential.HolderID())
	s.Equal("gold", c.Credential.CredentialSubject[0].Claims["level"])
	s.Require().NotNil(c.Credential.ExpirationDate)
	s.Equal(fixedNow.Add(24*time.Hour), *c.Credential.ExpirationDate)

	token, jc := s.parse(c.RawVC)
	s.Equal("did:example:issuer#key-1", token.Header["kid"])
	s.Equal("did:example:issuer", jc.Issuer)
	s.Equal("did:example:holder", jc.Subject)
	s.NotEmpty(jc.ID)
	s.Equal(fixedNow, jc.NotBefore.Time.UTC())
	s.Equal(c.Credential.ID, jc.VC["id"])
	s.Equal(map[string]any{"id": "did:example:holder", "level": "gold"}, jc.VC["credentialSubject"])
}

func (s *RegistrySuite) TestNoValidityLeavesExpirationUnset() {
	s.def.Validity = 0
	claims := map[string]any{"credentialSubject": map[string]any{"level": "gold"}}

	c, err := s.registry.GenerateCredential(s.ctx, "issuer", "holderId", s.request(), claims)
	s.Require().NoError(err)
	s.Nil(c.Credential.ExpirationDate)

	_, jc := s.parse(c.RawVC)
	s.Nil(jc.ExpiresAt)
	s.NotContains(jc.VC, "expirationDate")
}

func (s *RegistrySuite) TestNoHolderIssuesToParticipant() {
	claims := map[string]any{"credentialSubject": map[string]any{}}
	c, err := s.registry.GenerateCredential(s.ctx, "issuer", "", s.request(), claims)
	s.Require().NoError(err)
	s.Equal("did:example:issuer", c.Credential.HolderID())
}

func (s *RegistrySuite) TestMappingsApplied() {
	s.def.Mappings = []models.Mapping{
		{Input: "member.level", Output: "credentialSubject.membership.level", Required: true},
		{Input: "nickname", Output: "credentialSubject.nickname"},
	}
	claims := map[string]any{"member": map[string]any{"level": "silver"}, "ignored": true}

	c, err := s.registry.GenerateCredential(s.ctx, "issuer", "holderId", s.request(), claims)
	s.Require().NoError(err)
	s.Equal(map[string]any{"membership": map[string]any{"level": "silver"}}, c.Credential.CredentialSubject[0].Claims)

	_, err = s.registry.GenerateCredential(s.ctx, "issuer", "holderId", s.request(), map[string]any{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *RegistrySuite) TestSchemaValidation() {
	s.def.JSONSchema = `{"type":"object","required":["level"],"properties":{"level":{"enum":["gold","silver"]}}}`

	_, err := s.registry.GenerateCredential(s.ctx, "issuer", "holderId", s.request(),
		map[string]any{"credentialSubject": map[string]any{"level": "bronze"}})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.registry.GenerateCredential(s.ctx, "issuer", "holderId", s.request(),
		map[string]any{"credentialSubject": map[string]any{"level": "gold"}})
	s.NoError(err)
}

func (s *RegistrySuite) TestFailures() {
	tests := []struct {
		name     string
		pid      string
		holder   string
		format   credmodels.CredentialFormat
		claims   map[string]any
		code     dErrors.Code
		contains string
	}{
		{name: "missing subject", pid: "issuer", holder: "holderId", format: credmodels.FormatVC1JWT,
			claims: map[string]any{"foo": "bar"}, code: dErrors.CodeBadRequest, contains: "Missing credentialSubject in claims"},
		{name: "no generator", pid: "issuer", holder: "holderId", format: credmodels.FormatVC2JOSE,
			claims: map[string]any{"credentialSubject": map[string]any{}}, code: dErrors.CodeBadRequest, contains: "No generator found for format VC2_0_JOSE"},
		{name: "unknown participant", pid: "ghost", holder: "holderId", format: credmodels.FormatVC1JWT,
			claims: map[string]any{"credentialSubject": map[string]any{}}, code: dErrors.CodeNotFound},
		{name: "unknown holder", pid: "issuer", holder: "nobody", format: credmodels.FormatVC1JWT,
			claims: map[string]any{"credentialSubject": map[string]any{}}, code: dErrors.CodeNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := models.GenerationRequest{Definition: s.def, Format: tt.format}
			_, err := s.registry.GenerateCredential(s.ctx, tt.pid, tt.holder, req, tt.claims)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
			if tt.contains != "" {
				s.Contains(err.Error(), tt.contains)
			}
		})
	}
}

func (s *RegistrySuite) TestSignCredentialKeepsQualifiedKeyID() {
	s.key.KeyID = "did:example:issuer#primary"
	vc := credmodels.VerifiableCredential{
		Context:           []string{credmodels.ContextCredentialsV2},
		ID:                "urn:uuid:list",
		Type:              []string{credmodels.TypeVerifiableCredential, credmodels.TypeBitstringStatusListCredential},
		Issuer:            credmodels.Issuer{ID: "did:example:issuer"},
		IssuanceDate:      fixedNow,
		CredentialSubject: []credmodels.CredentialSubject{{ID: "urn:uuid:list#list"}},
	}

	c, err := s.registry.SignCredential(s.ctx, "issuer", vc, credmodels.FormatVC1JWT)
	s.Require().NoError(err)
	s.Equal(vc, c.Credential)

	token, jc := s.parse(c.RawVC)
	s.Equal("did:example:issuer#primary", token.Header["kid"])
	s.Nil(jc.ExpiresAt)

	_, err = s.registry.SignCredential(s.ctx, "issuer", vc, credmodels.FormatVC1LD)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestRegistryDispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)
	keys := mocks.NewMockKeyProvider(ctrl)
	dir := participants.NewDirectory(participants.NewInMemoryHolderStore(),
		participants.Participant{ID: "issuer", DID: "did:example:issuer"})
	key := &generator.KeyPair{KeyID: "key-1"}

	gen.EXPECT().Format().Return(credmodels.FormatVC2SDJWT)
	r := generator.NewRegistry(keys, dir, gen)

	t.Run("key lookup failure", func(t *testing.T) {
		keys.EXPECT().ActiveKey(gomock.Any(), "issuer").Return(nil, errors.New("vault sealed"))
		_, err := r.SignCredential(context.Background(), "issuer", credmodels.VerifiableCredential{}, credmodels.FormatVC2SDJWT)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Error obtaining private key for participant 'issuer': vault sealed")
	})

	t.Run("first failure aborts the batch", func(t *testing.T) {
		def := &models.CredentialDefinition{ID: "d1", CredentialType: "T"}
		req := models.GenerationRequest{Definition: def, Format: credmodels.FormatVC2SDJWT}
		claims := map[string]any{"credentialSubject": map[string]any{}}

		keys.EXPECT().ActiveKey(gomock.Any(), "issuer").Return(key, nil).Times(2)
		gomock.InOrder(
			gen.EXPECT().Generate(gomock.Any(), def, key, "did:example:issuer", "did:example:issuer", claims).
				Return(&credmodels.VerifiableCredentialContainer{Format: credmodels.FormatVC2SDJWT}, nil),
			gen.EXPECT().Generate(gomock.Any(), def, key, "did:example:issuer", "did:example:issuer", claims).
				Return(nil, dErrors.New(dErrors.CodeInternal, "hsm offline")),
		)

		out, err := r.GenerateCredentials(context.Background(), "issuer", "", []models.GenerationRequest{req, req, req}, claims)
		require.Error(t, err)
		assert.Nil(t, out)
		assert.Equal(t, "hsm offline", err.Error())
	})
}

func TestParseECPrivateKeyPEM(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	sec1, err := x509.MarshalECPrivateKey(priv)
	require.NoError(t, err)
	parsed, err := generator.ParseECPrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1}))
	require.NoError(t, err)
	assert.True(t, priv.Equal(parsed))

	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	parsed, err = generator.ParseECPrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}))
	require.NoError(t, err)
	assert.True(t, priv.Equal(parsed))

	_, err = generator.ParseECPrivateKeyPEM([]byte("garbage"))
	assert.Error(t, err)
}
