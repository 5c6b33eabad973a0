package models

import (
	"fmt"
	"strings"
	"time"
)

// CredentialFormat is the serialization a credential is issued in.
type CredentialFormat string

const (
	FormatVC1JWT   CredentialFormat = "VC1_0_JWT"
	FormatVC1LD    CredentialFormat = "VC1_0_LD"
	FormatVC2JOSE  CredentialFormat = "VC2_0_JOSE"
	FormatVC2SDJWT CredentialFormat = "VC2_0_SD_JWT"
)

// ParseCredentialFormat accepts the canonical names case-insensitively.
func ParseCredentialFormat(s string) (CredentialFormat, error) {
	switch f := CredentialFormat(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatVC1JWT, FormatVC1LD, FormatVC2JOSE, FormatVC2SDJWT:
		return f, nil
	default:
		return "", fmt.Errorf("unknown credential format %q", s)
	}
}

// VcStatus is the lifecycle state of an issued credential.
type VcStatus string

const (
	VcStatusIssued      VcStatus = "ISSUED"
	VcStatusRevoked     VcStatus = "REVOKED"
	VcStatusSuspended   VcStatus = "SUSPENDED"
	VcStatusExpired     VcStatus = "EXPIRED"
	VcStatusNotYetValid VcStatus = "NOT_YET_VALID"
)

// ParseVcStatus validates a state name.
func ParseVcStatus(s string) (VcStatus, error) {
	switch v := VcStatus(strings.ToUpper(s)); v {
	case VcStatusIssued, VcStatusRevoked, VcStatusSuspended, VcStatusExpired, VcStatusNotYetValid:
		return v, nil
	default:
		return "", fmt.Errorf("unknown credential state %q", s)
	}
}

// Status purposes.
const (
	StatusPurposeRevocation = "revocation"
	StatusPurposeSuspension = "suspension"
)

// VerifiableCredentialContainer holds a credential in raw signed and structured form.
type VerifiableCredentialContainer struct {
	RawVC      string               `json:"rawVc,omitempty"`
	Format     CredentialFormat     `json:"format"`
	Credential VerifiableCredential `json:"credential"`
}

// StatusListMetadata marks a resource as a bitstring status-list credential.
type StatusListMetadata struct {
	Purpose       string `json:"statusPurpose"`
	CurrentIndex  int    `json:"currentIndex"`
	BitstringSize int    `json:"bitstringSize"`
	Active        bool   `json:"isActive"`
	Published     bool   `json:"published"`
	PublicURL     string `json:"publicUrl,omitempty"`
}

// IsFull reports whether every slot has been handed out.
func (m StatusListMetadata) IsFull() bool {
	return m.CurrentIndex >= m.BitstringSize
}

// VerifiableCredentialResource is the persisted record of one issued credential,
// holder credentials and status-list credentials alike.
type VerifiableCredentialResource struct {
	ID                   string                        `json:"id"`
	ParticipantContextID string                        `json:"participantContextId"`
	IssuerID             string                        `json:"issuerId"`
	HolderID             string                        `json:"holderId"`
	State                VcStatus                      `json:"state"`
	Credential           VerifiableCredentialContainer `json:"verifiableCredential"`
	StatusList           *StatusListMetadata           `json:"statusList,omitempty"`
	Version              int                           `json:"version"`
	CreatedAt            time.Time                     `json:"createdAt"`
	UpdatedAt            time.Time                     `json:"updatedAt"`
}

// IsStatusList reports whether the resource is a status-list credential.
func (r *VerifiableCredentialResource) IsStatusList() bool {
	return r.StatusList != nil
}

// Clone returns a deep copy.
func (r *VerifiableCredentialResource) Clone() *VerifiableCredentialResource {
	if r == nil {
		return nil
	}
	out := *r
	out.Credential.Credential = r.Credential.Credential.Clone()
	if r.StatusList != nil {
		sl := *r.StatusList
		out.StatusList = &sl
	}
	return &out
}

// StatusListCredentialEntry binds a holder credential's status slot to a
// status-list credential: the slot index and the list's public URL.
type StatusListCredentialEntry struct {
	StatusListIndex      int
	CredentialURL        string
	StatusListCredential *VerifiableCredentialResource
}

// CredentialStatus renders the W3C BitstringStatusListEntry for this slot.
func (e StatusListCredentialEntry) CredentialStatus(purpose string) CredentialStatus {
	index := fmt.Sprintf("%d", e.StatusListIndex)
	return CredentialStatus{
		ID:   e.CredentialURL + "#" + index,
		Type: TypeBitstringStatusListEntry,
		Properties: map[string]any{
			"statusPurpose":        purpose,
			"statusListIndex":      index,
			"statusListCredential": e.CredentialURL,
		},
	}
}
