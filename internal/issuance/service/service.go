// Package service is the administrative surface of the issuance engine:
// credential definitions, holders and new issuance requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/issuance/store"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
)

// Holders registers and resolves credential recipients.
type Holders interface {
	RegisterHolder(ctx context.Context, holder *participants.Holder) error
	Holder(ctx context.Context, participantContextID, holderID string) (*participants.Holder, error)
}

// IssuanceRequest asks for credentials of one or more definitions. A
// definition mapped to an empty format is issued in its default format.
type IssuanceRequest struct {
	ParticipantContextID string
	HolderID             string
	HolderPID            string
	Formats              map[string]credmodels.CredentialFormat
	Claims               map[string]any
}

type Service struct {
	processes   store.ProcessStore
	definitions store.DefinitionStore
	holders     Holders
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func New(processes store.ProcessStore, definitions store.DefinitionStore, holders Holders, opts ...Option) *Service {
	s := &Service{
		processes:   processes,
		definitions: definitions,
		holders:     holders,
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateDefinition(ctx context.Context, def *models.CredentialDefinition) (*models.CredentialDefinition, error) {
	if def.ID == "" {
		def.ID = s.newID()
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := s.definitions.Create(ctx, def); err != nil {
		return nil, definitionError(err, def)
	}
	s.logger.InfoContext(ctx, "credential definition created",
		"definition_id", def.ID,
		"participant_context_id", def.ParticipantContextID,
		"credential_type", def.CredentialType,
	)
	return def, nil
}

func (s *Service) UpdateDefinition(ctx context.Context, def *models.CredentialDefinition) (*models.CredentialDefinition, error) {
	if _, err := s.GetDefinition(ctx, def.ParticipantContextID, def.ID); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := s.definitions.Update(ctx, def); err != nil {
		return nil, definitionError(err, def)
	}
	return def, nil
}

// GetDefinition hides definitions of other participants behind not-found.
func (s *Service) GetDefinition(ctx context.Context, participantContextID, id string) (*models.CredentialDefinition, error) {
	def, err := s.definitions.FindByID(ctx, id)
	if err == nil && def.ParticipantContextID != participantContextID {
		err = sentinel.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("Credential definition '%s' not found", id))
	}
	return def, nil
}

func (s *Service) ListDefinitions(ctx context.Context, participantContextID string) ([]*models.CredentialDefinition, error) {
	found, err := s.definitions.Query(ctx, query.Where(store.FieldParticipantContextID, participantContextID))
	if err != nil {
		return nil, storeError(err, "failed to list credential definitions")
	}
	return found, nil
}

func (s *Service) DeleteDefinition(ctx context.Context, participantContextID, id string) error {
	if _, err := s.GetDefinition(ctx, participantContextID, id); err != nil {
		return err
	}
	if err := s.definitions.Delete(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("Credential definition '%s' not found", id))
	}
	return nil
}

func (s *Service) RegisterHolder(ctx context.Context, holder *participants.Holder) (*participants.Holder, error) {
	if err := s.holders.RegisterHolder(ctx, holder); err != nil {
		return nil, err
	}
	return holder, nil
}

// RequestIssuance records an APPROVED process for the engine to pick up.
// Every referenced definition and the holder must exist up front.
func (s *Service) RequestIssuance(ctx context.Context, req IssuanceRequest) (*models.Process, error) {
	if strings.TrimSpace(req.HolderID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "holder id is required")
	}
	if _, err := s.holders.Holder(ctx, req.ParticipantContextID, req.HolderID); err != nil {
		return nil, err
	}

	formats := make(map[string]credmodels.CredentialFormat, len(req.Formats))
	for defID, format := range req.Formats {
		def, err := s.GetDefinition(ctx, req.ParticipantContextID, defID)
		if err != nil {
			return nil, err
		}
		if format == "" {
			format = def.Format
		}
		formats[defID] = format
	}

	now := s.now()
	p, err := models.NewProcess(s.newID(), req.ParticipantContextID, req.HolderID, req.HolderPID, formats, req.Claims, now)
	if err != nil {
		return nil, err
	}
	if err := p.TransitionToApproved(now); err != nil {
		return nil, err
	}
	if err := s.processes.Create(ctx, p); err != nil {
		return nil, storeError(err, fmt.Sprintf("failed to create issuance process %s", p.ID))
	}
	s.logger.InfoContext(ctx, "issuance process approved",
		"process_id", p.ID,
		"participant_context_id", p.ParticipantContextID,
		"holder_id", p.HolderID,
		"definitions", len(formats),
	)
	return p, nil
}

func (s *Service) GetProcess(ctx context.Context, id string) (*models.Process, error) {
	p, err := s.processes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("Issuance process '%s' not found", id))
	}
	return p, nil
}

func definitionError(err error, def *models.CredentialDefinition) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("Credential definition '%s' already exists", def.ID))
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict,
			fmt.Sprintf("A credential definition for type '%s' already exists", def.CredentialType))
	default:
		return storeError(err, fmt.Sprintf("Credential definition '%s' not found", def.ID))
	}
}

func storeError(err error, msg string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrAlreadyExists):
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("%s: %s", msg, err))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("%s: %s", msg, err))
	}
}
