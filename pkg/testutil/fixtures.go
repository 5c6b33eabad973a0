package testutil

import (
	"time"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
)

// TestIDs provides fixed identifiers shared by store and service tests.
var TestIDs = struct {
	Participant1 string
	Participant2 string
	Holder1      string
	HolderPID1   string
	Definition1  string
}{
	Participant1: "issuer",
	Participant2: "other",
	Holder1:      "holder",
	HolderPID1:   "pid-1",
	Definition1:  "membership",
}

// DefinitionBuilder provides a fluent interface for building test credential definitions.
type DefinitionBuilder struct {
	def *models.CredentialDefinition
}

// NewDefinitionBuilder creates a DefinitionBuilder with sensible defaults.
func NewDefinitionBuilder() *DefinitionBuilder {
	return &DefinitionBuilder{
		def: &models.CredentialDefinition{
			ID:                   TestIDs.Definition1,
			ParticipantContextID: TestIDs.Participant1,
			CredentialType:       "MembershipCredential",
			Format:               credmodels.FormatVC1JWT,
			Validity:             48 * time.Hour,
		},
	}
}

func (b *DefinitionBuilder) WithID(id string) *DefinitionBuilder {
	b.def.ID = id
	return b
}

func (b *DefinitionBuilder) WithParticipant(pid string) *DefinitionBuilder {
	b.def.ParticipantContextID = pid
	return b
}

func (b *DefinitionBuilder) WithType(credentialType string) *DefinitionBuilder {
	b.def.CredentialType = credentialType
	return b
}

func (b *DefinitionBuilder) WithSchema(schema string) *DefinitionBuilder {
	b.def.JSONSchema = schema
	return b
}

func (b *DefinitionBuilder) WithMapping(input, output string, required bool) *DefinitionBuilder {
	b.def.Mappings = append(b.def.Mappings, models.Mapping{Input: input, Output: output, Required: required})
	return b
}

func (b *DefinitionBuilder) Build() *models.CredentialDefinition {
	return b.def
}

// ProcessBuilder provides a fluent interface for building test issuance processes.
type ProcessBuilder struct {
	process *models.Process
}

// NewProcessBuilder creates an approved process for the default definition.
func NewProcessBuilder(id string) *ProcessBuilder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &ProcessBuilder{
		process: &models.Process{
			ID:                    id,
			ParticipantContextID:  TestIDs.Participant1,
			HolderID:              TestIDs.Holder1,
			HolderPID:             TestIDs.HolderPID1,
			State:                 models.StateApproved,
			StateCount:            1,
			StateTimestamp:        now,
			CredentialFormats:     map[string]credmodels.CredentialFormat{TestIDs.Definition1: credmodels.FormatVC1JWT},
			CredentialDefinitions: []string{TestIDs.Definition1},
			Claims:                map[string]any{"credentialSubject": map[string]any{"level": "gold"}},
			CreatedAt:             now,
			UpdatedAt:             now,
		},
	}
}

func (b *ProcessBuilder) WithParticipant(pid string) *ProcessBuilder {
	b.process.ParticipantContextID = pid
	return b
}

func (b *ProcessBuilder) WithState(state models.State, count int) *ProcessBuilder {
	b.process.State = state
	b.process.StateCount = count
	return b
}

// StateSince backdates the state timestamp relative to now.
func (b *ProcessBuilder) StateSince(now time.Time, age time.Duration) *ProcessBuilder {
	b.process.StateTimestamp = now.Add(-age).UTC().Truncate(time.Microsecond)
	return b
}

func (b *ProcessBuilder) WithClaims(claims map[string]any) *ProcessBuilder {
	b.process.Claims = claims
	return b
}

func (b *ProcessBuilder) Build() *models.Process {
	return b.process
}
