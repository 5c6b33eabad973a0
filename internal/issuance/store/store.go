// Package store persists issuance processes and credential definitions.
//
// Process stores hand out leases: a process returned by NextNotLeased is
// invisible to other callers until Save or BreakLease releases it, or until
// the lease expires.
package store

import (
	"context"
	"time"

	"vcissuer/internal/issuance/models"
	"vcissuer/pkg/platform/query"
)

// Queryable fields.
const (
	FieldID                   = "id"
	FieldParticipantContextID = "participantContextId"
	FieldHolderID             = "holderId"
	FieldState                = "state"
	FieldCredentialType       = "credentialType"
	FieldStateTimestamp       = "stateTimestamp"
	FieldCreatedAt            = "createdAt"
)

// ProcessStore persists issuance processes.
type ProcessStore interface {
	Create(ctx context.Context, p *models.Process) error
	// Save writes p and releases the caller's lease. It fails with
	// sentinel.ErrLeased when another holder owns an unexpired lease.
	Save(ctx context.Context, p *models.Process) error
	FindByID(ctx context.Context, id string) (*models.Process, error)
	Query(ctx context.Context, spec query.Spec) ([]*models.Process, error)
	// NextNotLeased leases up to limit processes in one of states, oldest
	// state transition first.
	NextNotLeased(ctx context.Context, limit int, states ...models.State) ([]*models.Process, error)
	BreakLease(ctx context.Context, id string) error
}

// DefinitionStore persists credential definitions. Creating a second
// definition for the same (participant, credential type) is a conflict.
type DefinitionStore interface {
	Create(ctx context.Context, d *models.CredentialDefinition) error
	Update(ctx context.Context, d *models.CredentialDefinition) error
	FindByID(ctx context.Context, id string) (*models.CredentialDefinition, error)
	Query(ctx context.Context, spec query.Spec) ([]*models.CredentialDefinition, error)
	Delete(ctx context.Context, id string) error
}

// LeaseConfig identifies the lease holder and bounds how long a lease lives.
type LeaseConfig struct {
	Holder   string
	Duration time.Duration
}

// DefaultLease is used when a store is built without WithLease.
var DefaultLease = LeaseConfig{Holder: "vcissuer", Duration: time.Minute}

type processOptions struct {
	lease LeaseConfig
	now   func() time.Time
}

// ProcessOption configures a process store.
type ProcessOption func(*processOptions)

func WithLease(cfg LeaseConfig) ProcessOption {
	return func(o *processOptions) {
		if cfg.Holder != "" {
			o.lease.Holder = cfg.Holder
		}
		if cfg.Duration > 0 {
			o.lease.Duration = cfg.Duration
		}
	}
}

func WithClock(now func() time.Time) ProcessOption {
	return func(o *processOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func buildProcessOptions(opts []ProcessOption) processOptions {
	o := processOptions{lease: DefaultLease, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func processAccessor(p *models.Process, field string) (any, bool) {
	switch field {
	case FieldID:
		return p.ID, true
	case FieldParticipantContextID:
		return p.ParticipantContextID, true
	case FieldHolderID:
		return p.HolderID, true
	case FieldState:
		return p.State, true
	case FieldStateTimestamp:
		return p.StateTimestamp, true
	case FieldCreatedAt:
		return p.CreatedAt, true
	default:
		return nil, false
	}
}

var processColumns = query.Columns{
	FieldID:                   "id",
	FieldParticipantContextID: "participant_context_id",
	FieldHolderID:             "holder_id",
	FieldState:                "state",
	FieldStateTimestamp:       "state_timestamp",
	FieldCreatedAt:            "created_at",
}

func definitionAccessor(d *models.CredentialDefinition, field string) (any, bool) {
	switch field {
	case FieldID:
		return d.ID, true
	case FieldParticipantContextID:
		return d.ParticipantContextID, true
	case FieldCredentialType:
		return d.CredentialType, true
	case FieldCreatedAt:
		return d.CreatedAt, true
	default:
		return nil, false
	}
}

var definitionColumns = query.Columns{
	FieldID:                   "id",
	FieldParticipantContextID: "participant_context_id",
	FieldCredentialType:       "credential_type",
	FieldCreatedAt:            "created_at",
}
