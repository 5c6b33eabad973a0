package handler

import (
	"strings"
	"time"

	"vcissuer/internal/credentials/models"
)

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (r *reasonRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

type statusResponse struct {
	CredentialID string `json:"credentialId"`
	Status       string `json:"status"`
	Revoked      bool   `json:"revoked"`
}

type credentialResponse struct {
	ID                   string                      `json:"id"`
	ParticipantContextID string                      `json:"participantContextId"`
	IssuerID             string                      `json:"issuerId"`
	HolderID             string                      `json:"holderId"`
	State                models.VcStatus             `json:"state"`
	Format               models.CredentialFormat     `json:"format"`
	RawVC                string                      `json:"rawVc,omitempty"`
	Credential           models.VerifiableCredential `json:"credential"`
	StatusList           *models.StatusListMetadata  `json:"statusList,omitempty"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
}

type listResponse struct {
	Credentials []credentialResponse `json:"credentials"`
}

func toCredentialResponse(r *models.VerifiableCredentialResource) credentialResponse {
	return credentialResponse{
		ID:                   r.ID,
		ParticipantContextID: r.ParticipantContextID,
		IssuerID:             r.IssuerID,
		HolderID:             r.HolderID,
		State:                r.State,
		Format:               r.Credential.Format,
		RawVC:                r.Credential.RawVC,
		Credential:           r.Credential.Credential,
		StatusList:           r.StatusList,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}
