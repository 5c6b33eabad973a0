// Package generator turns issuance claims into signed credentials, one
// Generator per credential format.
package generator

import (
	"context"
	"fmt"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
)

// Generator creates and signs credentials of one format.
type Generator interface {
	Format() credmodels.CredentialFormat
	Generate(ctx context.Context, def *models.CredentialDefinition, key *KeyPair, issuerDID, holderDID string, claims map[string]any) (*credmodels.VerifiableCredentialContainer, error)
	Sign(ctx context.Context, vc credmodels.VerifiableCredential, key *KeyPair) (string, error)
}

// Participants resolves issuer and holder DIDs.
type Participants interface {
	DID(ctx context.Context, participantContextID string) (string, error)
	Holder(ctx context.Context, participantContextID, holderID string) (*participants.Holder, error)
}

// Registry dispatches generation and signing to the generator registered for
// a format.
type Registry struct {
	generators   map[credmodels.CredentialFormat]Generator
	keys         KeyProvider
	participants Participants
}

func NewRegistry(keys KeyProvider, participants Participants, generators ...Generator) *Registry {
	r := &Registry{
		generators:   make(map[credmodels.CredentialFormat]Generator),
		keys:         keys,
		participants: participants,
	}
	for _, g := range generators {
		r.Register(g)
	}
	return r
}

func (r *Registry) Register(g Generator) {
	r.generators[g.Format()] = g
}

// GenerateCredentials produces one credential per request. Any failure fails
// the whole batch.
func (r *Registry) GenerateCredentials(ctx context.Context, participantContextID, holderID string, requests []models.GenerationRequest, claims map[string]any) ([]*credmodels.VerifiableCredentialContainer, error) {
	out := make([]*credmodels.VerifiableCredentialContainer, 0, len(requests))
	for _, req := range requests {
		c, err := r.GenerateCredential(ctx, participantContextID, holderID, req, claims)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GenerateCredential maps claims through the definition and generates one
// credential. An empty holderID issues to the participant itself.
func (r *Registry) GenerateCredential(ctx context.Context, participantContextID, holderID string, req models.GenerationRequest, claims map[string]any) (*credmodels.VerifiableCredentialContainer, error) {
	if req.Definition == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "generation request has no credential definition")
	}
	mapped, err := ApplyMappings(req.Definition.Mappings, claims)
	if err != nil {
		return nil, err
	}
	g, err := r.generator(req.Format)
	if err != nil {
		return nil, err
	}

	issuerDID, err := r.participants.DID(ctx, participantContextID)
	if err != nil {
		return nil, err
	}
	holderDID := issuerDID
	if holderID != "" {
		holder, err := r.participants.Holder(ctx, participantContextID, holderID)
		if err != nil {
			return nil, err
		}
		holderDID = holder.DID
	}
	key, err := r.activeKey(ctx, participantContextID)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, req.Definition, key, issuerDID, holderDID, mapped)
}

// SignCredential signs an already built credential, e.g. after a
// credentialStatus entry was attached or a status bit flipped.
func (r *Registry) SignCredential(ctx context.Context, participantContextID string, vc credmodels.VerifiableCredential, format credmodels.CredentialFormat) (*credmodels.VerifiableCredentialContainer, error) {
	g, err := r.generator(format)
	if err != nil {
		return nil, err
	}
	key, err := r.activeKey(ctx, participantContextID)
	if err != nil {
		return nil, err
	}
	token, err := g.Sign(ctx, vc, key)
	if err != nil {
		return nil, err
	}
	return &credmodels.VerifiableCredentialContainer{RawVC: token, Format: format, Credential: vc}, nil
}

func (r *Registry) generator(format credmodels.CredentialFormat) (Generator, error) {
	g, ok := r.generators[format]
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("No generator found for format %s", format))
	}
	return g, nil
}

func (r *Registry) activeKey(ctx context.Context, participantContextID string) (*KeyPair, error) {
	key, err := r.keys.ActiveKey(ctx, participantContextID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal,
			fmt.Sprintf("Error obtaining private key for participant '%s': %s", participantContextID, err))
	}
	return key, nil
}
