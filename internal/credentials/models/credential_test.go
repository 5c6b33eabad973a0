package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialJSON_FlattensSubjectAndStatus(t *testing.T) {
	vc := VerifiableCredential{
		Context:      []string{ContextCredentialsV1},
		ID:           "urn:uuid:1",
		Type:         []string{TypeVerifiableCredential, "MembershipCredential"},
		Issuer:       Issuer{ID: "did:example:issuer"},
		IssuanceDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CredentialSubject: []CredentialSubject{{
			ID:     "did:example:holder",
			Claims: map[string]any{"membershipLevel": "gold"},
		}},
		CredentialStatus: []CredentialStatus{StatusListCredentialEntry{
			StatusListIndex: 42,
			CredentialURL:   "https://issuer.example/statuslist/abc",
		}.CredentialStatus(StatusPurposeRevocation)},
	}

	data, err := json.Marshal(vc)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "did:example:issuer", doc["issuer"])
	subject := doc["credentialSubject"].(map[string]any)
	assert.Equal(t, "did:example:holder", subject["id"])
	assert.Equal(t, "gold", subject["membershipLevel"])
	status := doc["credentialStatus"].(map[string]any)
	assert.Equal(t, "https://issuer.example/statuslist/abc#42", status["id"])
	assert.Equal(t, "42", status["statusListIndex"])
	assert.Equal(t, TypeBitstringStatusListEntry, status["type"])

	var back VerifiableCredential
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "did:example:holder", back.HolderID())
	got, ok := back.StatusByPurpose(StatusPurposeRevocation)
	require.True(t, ok)
	assert.Equal(t, "https://issuer.example/statuslist/abc", got.Property("statusListCredential"))
}

func TestCredentialJSON_AcceptsArraysAndIssuerObjects(t *testing.T) {
	doc := `{
		"@context": ["https://www.w3.org/2018/credentials/v1"],
		"type": ["VerifiableCredential"],
		"issuer": {"id": "did:example:issuer", "name": "Example"},
		"issuanceDate": "2026-01-01T00:00:00Z",
		"credentialSubject": [{"id": "did:example:a"}, {"id": "did:example:b"}]
	}`
	var vc VerifiableCredential
	require.NoError(t, json.Unmarshal([]byte(doc), &vc))
	assert.Equal(t, "did:example:issuer", vc.Issuer.ID)
	assert.Equal(t, "Example", vc.Issuer.Properties["name"])
	require.Len(t, vc.CredentialSubject, 2)
	assert.Empty(t, vc.CredentialStatus)
}

func TestResourceClone_IsDeep(t *testing.T) {
	r := &VerifiableCredentialResource{
		ID: "sl-1",
		Credential: VerifiableCredentialContainer{Credential: VerifiableCredential{
			CredentialSubject: []CredentialSubject{{Claims: map[string]any{"encodedList": "u"}}},
		}},
		StatusList: &StatusListMetadata{CurrentIndex: 1, BitstringSize: 8},
	}
	cp := r.Clone()
	cp.StatusList.CurrentIndex = 8
	cp.Credential.Credential.CredentialSubject[0].Claims["encodedList"] = "changed"

	assert.Equal(t, 1, r.StatusList.CurrentIndex)
	assert.Equal(t, "u", r.Credential.Credential.CredentialSubject[0].Claims["encodedList"])
	assert.True(t, cp.StatusList.IsFull())
}
