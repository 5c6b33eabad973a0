package handler

import (
	"maps"
	"slices"
	"strings"
	"time"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
	strutil "vcissuer/pkg/platform/strings"
	"vcissuer/pkg/platform/validation"
)

type definitionRequest struct {
	ID             string                      `json:"id"`
	CredentialType string                      `json:"credentialType"`
	Format         credmodels.CredentialFormat `json:"format"`
	JSONSchema     string                      `json:"jsonSchema"`
	JSONSchemaURL  string                      `json:"jsonSchemaUrl"`
	Validity       string                      `json:"validity"`
	Mappings       []models.Mapping            `json:"mappings"`
}

func (r *definitionRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.CredentialType = strings.TrimSpace(r.CredentialType)
	r.Validity = strings.TrimSpace(r.Validity)
	if r.Format == "" {
		r.Format = credmodels.FormatVC1JWT
	}
}

func (r *definitionRequest) Validate() error {
	if r.CredentialType == "" {
		return dErrors.New(dErrors.CodeValidation, "credentialType is required")
	}
	if err := validation.First(
		validation.CheckStringLength("id", r.ID, validation.MaxIDLength),
		validation.CheckStringLength("credentialType", r.CredentialType, validation.MaxCredentialTypeLength),
		validation.CheckStringLength("jsonSchema", r.JSONSchema, validation.MaxSchemaLength),
		validation.CheckStringLength("jsonSchemaUrl", r.JSONSchemaURL, validation.MaxURLLength),
		validation.CheckSliceCount("mappings", len(r.Mappings), validation.MaxMappings),
	); err != nil {
		return err
	}
	if r.Validity != "" {
		if _, err := time.ParseDuration(r.Validity); err != nil {
			return dErrors.New(dErrors.CodeValidation, "validity must be a duration such as 720h")
		}
	}
	return nil
}

func (r *definitionRequest) toModel(participantContextID string) *models.CredentialDefinition {
	validity, _ := time.ParseDuration(r.Validity)
	return &models.CredentialDefinition{
		ID:                   r.ID,
		ParticipantContextID: participantContextID,
		CredentialType:       r.CredentialType,
		Format:               r.Format,
		JSONSchema:           r.JSONSchema,
		JSONSchemaURL:        r.JSONSchemaURL,
		Validity:             validity,
		Mappings:             r.Mappings,
	}
}

type definitionResponse struct {
	ID                   string                      `json:"id"`
	ParticipantContextID string                      `json:"participantContextId"`
	CredentialType       string                      `json:"credentialType"`
	Format               credmodels.CredentialFormat `json:"format"`
	JSONSchema           string                      `json:"jsonSchema,omitempty"`
	JSONSchemaURL        string                      `json:"jsonSchemaUrl,omitempty"`
	Validity             string                      `json:"validity,omitempty"`
	Mappings             []models.Mapping            `json:"mappings,omitempty"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
}

func toDefinitionResponse(d *models.CredentialDefinition) definitionResponse {
	resp := definitionResponse{
		ID:                   d.ID,
		ParticipantContextID: d.ParticipantContextID,
		CredentialType:       d.CredentialType,
		Format:               d.Format,
		JSONSchema:           d.JSONSchema,
		JSONSchemaURL:        d.JSONSchemaURL,
		Mappings:             d.Mappings,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.Validity > 0 {
		resp.Validity = d.Validity.String()
	}
	return resp
}

type definitionListResponse struct {
	Definitions []definitionResponse `json:"definitions"`
}

type holderRequest struct {
	HolderID   string `json:"holderId"`
	DID        string `json:"did"`
	StorageURL string `json:"storageUrl"`
}

func (r *holderRequest) Normalize() {
	r.HolderID = strings.TrimSpace(r.HolderID)
	r.DID = strings.TrimSpace(r.DID)
	r.StorageURL = strings.TrimSpace(r.StorageURL)
}

func (r *holderRequest) Validate() error {
	return validation.First(
		validation.CheckStringLength("holderId", r.HolderID, validation.MaxIDLength),
		validation.CheckStringLength("did", r.DID, validation.MaxURLLength),
		validation.CheckStringLength("storageUrl", r.StorageURL, validation.MaxURLLength),
	)
}

func (r *holderRequest) toModel(participantContextID string) *participants.Holder {
	return &participants.Holder{
		ParticipantContextID: participantContextID,
		HolderID:             r.HolderID,
		DID:                  r.DID,
		StorageURL:           r.StorageURL,
	}
}

// issuanceRequest names the definitions to issue either as a format map or
// as a plain id list using each definition's default format.
type issuanceRequest struct {
	HolderID              string                                 `json:"holderId"`
	HolderPID             string                                 `json:"holderPid"`
	CredentialDefinitions []string                               `json:"credentialDefinitions"`
	CredentialFormats     map[string]credmodels.CredentialFormat `json:"credentialFormats"`
	Claims                map[string]any                         `json:"claims"`
}

func (r *issuanceRequest) Normalize() {
	r.HolderID = strings.TrimSpace(r.HolderID)
	r.CredentialDefinitions = strutil.DedupeAndTrim(r.CredentialDefinitions)
	if r.CredentialFormats == nil {
		r.CredentialFormats = make(map[string]credmodels.CredentialFormat, len(r.CredentialDefinitions))
	}
	for _, id := range r.CredentialDefinitions {
		if _, ok := r.CredentialFormats[id]; !ok {
			r.CredentialFormats[id] = ""
		}
	}
}

func (r *issuanceRequest) Validate() error {
	if r.HolderID == "" {
		return dErrors.New(dErrors.CodeValidation, "holderId is required")
	}
	if len(r.CredentialFormats) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one credential definition is required")
	}
	return validation.First(
		validation.CheckStringLength("holderId", r.HolderID, validation.MaxIDLength),
		validation.CheckSliceCount("credential definitions", len(r.CredentialFormats), validation.MaxDefinitionsPerIssuance),
		validation.CheckEachStringLength("credential definition id", slices.Collect(maps.Keys(r.CredentialFormats)), validation.MaxIDLength),
	)
}

type processResponse struct {
	ID                   string                                 `json:"id"`
	ParticipantContextID string                                 `json:"participantContextId"`
	HolderID             string                                 `json:"holderId"`
	HolderPID            string                                 `json:"holderPid,omitempty"`
	State                string                                 `json:"state"`
	StateCount           int                                    `json:"stateCount"`
	StateTimestamp       time.Time                              `json:"stateTimestamp"`
	CredentialFormats    map[string]credmodels.CredentialFormat `json:"credentialFormats"`
	ErrorDetail          string                                 `json:"errorDetail,omitempty"`
	CreatedAt            time.Time                              `json:"createdAt"`
	UpdatedAt            time.Time                              `json:"updatedAt"`
}

func toProcessResponse(p *models.Process) processResponse {
	return processResponse{
		ID:                   p.ID,
		ParticipantContextID: p.ParticipantContextID,
		HolderID:             p.HolderID,
		HolderPID:            p.HolderPID,
		State:                p.State.String(),
		StateCount:           p.StateCount,
		StateTimestamp:       p.StateTimestamp,
		CredentialFormats:    p.CredentialFormats,
		ErrorDetail:          p.ErrorDetail,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
