package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	credmodels "vcissuer/internal/credentials/models"
	dErrors "vcissuer/pkg/domain-errors"
)

// Mapping copies a claim from the issuance request into the generated credential.
// Input and Output are dot-separated paths; Output paths usually start with
// "credentialSubject.".
type Mapping struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Required bool   `json:"required"`
}

// CredentialDefinition describes one issuable credential type of a participant.
type CredentialDefinition struct {
	ID                   string                      `json:"id"`
	ParticipantContextID string                      `json:"participantContextId"`
	CredentialType       string                      `json:"credentialType"`
	Format               credmodels.CredentialFormat `json:"format"`
	JSONSchema           string                      `json:"jsonSchema,omitempty"`
	JSONSchemaURL        string                      `json:"jsonSchemaUrl,omitempty"`
	Validity             time.Duration               `json:"-"`
	Mappings             []Mapping                   `json:"mappings,omitempty"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
}

func (d *CredentialDefinition) Validate() error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return dErrors.New(dErrors.CodeValidation, "credential definition id is required")
	case strings.TrimSpace(d.ParticipantContextID) == "":
		return dErrors.New(dErrors.CodeValidation, "participant context id is required")
	case strings.TrimSpace(d.CredentialType) == "":
		return dErrors.New(dErrors.CodeValidation, "credential type is required")
	case d.Validity < 0:
		return dErrors.New(dErrors.CodeValidation, "validity must not be negative")
	}
	if _, err := credmodels.ParseCredentialFormat(string(d.Format)); err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	for i, m := range d.Mappings {
		if m.Input == "" || m.Output == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("mapping %d needs both input and output", i))
		}
	}
	if d.JSONSchema != "" {
		if _, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(d.JSONSchema)); err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid json schema: %s", err))
		}
	}
	return nil
}

func (d *CredentialDefinition) Clone() *CredentialDefinition {
	if d == nil {
		return nil
	}
	out := *d
	out.Mappings = append([]Mapping(nil), d.Mappings...)
	return &out
}

// GenerationRequest asks a generator for one credential of a definition.
type GenerationRequest struct {
	Definition *CredentialDefinition
	Format     credmodels.CredentialFormat
}
