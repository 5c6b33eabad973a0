package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	dErrors "vcissuer/pkg/domain-errors"
)

const (
	claimCredentialSubject = "credentialSubject"
	claimCredentialStatus  = "credentialStatus"
)

// CredentialClaims is the payload of a VC-JWT.
type CredentialClaims struct {
	VC map[string]any `json:"vc"`
	jwt.RegisteredClaims
}

// JWTGenerator issues VC 1.1 credentials secured as ES256 JWTs.
type JWTGenerator struct {
	now func() time.Time
}

func NewJWTGenerator(now func() time.Time) *JWTGenerator {
	if now == nil {
		now = time.Now
	}
	return &JWTGenerator{now: now}
}

func (g *JWTGenerator) Format() credmodels.CredentialFormat {
	return credmodels.FormatVC1JWT
}

func (g *JWTGenerator) Generate(ctx context.Context, def *models.CredentialDefinition, key *KeyPair, issuerDID, holderDID string, claims map[string]any) (*credmodels.VerifiableCredentialContainer, error) {
	raw, ok := claims[claimCredentialSubject]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Missing credentialSubject in claims")
	}
	subject, ok := raw.(map[string]any)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credentialSubject claim must be an object")
	}
	if err := validateSubject(def, subject); err != nil {
		return nil, err
	}

	now := g.now().UTC().Truncate(time.Second)
	vc := credmodels.VerifiableCredential{
		Context:           []string{credmodels.ContextCredentialsV1},
		ID:                "urn:uuid:" + uuid.NewString(),
		Type:              []string{credmodels.TypeVerifiableCredential, def.CredentialType},
		Issuer:            credmodels.Issuer{ID: issuerDID},
		IssuanceDate:      now,
		CredentialSubject: []credmodels.CredentialSubject{{ID: holderDID, Claims: subject}},
	}
	if def.Validity > 0 {
		expires := now.Add(def.Validity)
		vc.ExpirationDate = &expires
	}
	if status, ok := statusFromClaims(claims); ok {
		vc.CredentialStatus = []credmodels.CredentialStatus{status}
	}

	token, err := g.Sign(ctx, vc, key)
	if err != nil {
		return nil, err
	}
	return &credmodels.VerifiableCredentialContainer{
		RawVC:      token,
		Format:     credmodels.FormatVC1JWT,
		Credential: vc,
	}, nil
}

// Sign encodes vc as the "vc" claim of a JWT signed by key.
func (g *JWTGenerator) Sign(_ context.Context, vc credmodels.VerifiableCredential, key *KeyPair) (string, error) {
	if key == nil || key.PrivateKey == nil {
		return "", dErrors.New(dErrors.CodeInternal, "no signing key")
	}
	if len(vc.CredentialSubject) > 1 {
		return "", dErrors.New(dErrors.CodeBadRequest, "Only one credential subject is supported")
	}
	body, err := json.Marshal(vc)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential")
	}
	var vcClaim map[string]any
	if err := json.Unmarshal(body, &vcClaim); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential")
	}

	claims := CredentialClaims{
		VC: vcClaim,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    vc.Issuer.ID,
			Subject:   vc.HolderID(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(g.now()),
			NotBefore: jwt.NewNumericDate(vc.IssuanceDate),
		},
	}
	if vc.ExpirationDate != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*vc.ExpirationDate)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = composeKeyID(vc.Issuer.ID, key.KeyID)
	signed, err := token.SignedString(key.PrivateKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to sign credential: %s", err))
	}
	return signed, nil
}

// composeKeyID qualifies a bare key id with the issuer DID.
func composeKeyID(issuer, keyID string) string {
	if strings.HasPrefix(keyID, issuer) {
		return keyID
	}
	return issuer + "#" + keyID
}

func statusFromClaims(claims map[string]any) (credmodels.CredentialStatus, bool) {
	raw, ok := claims[claimCredentialStatus].(map[string]any)
	if !ok {
		return credmodels.CredentialStatus{}, false
	}
	props := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != "id" && k != "type" {
			props[k] = v
		}
	}
	id, _ := raw["id"].(string)
	typ, _ := raw["type"].(string)
	return credmodels.CredentialStatus{ID: id, Type: typ, Properties: props}, true
}
