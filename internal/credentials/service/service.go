// Package service attaches status-list entries to new credentials and drives
// the revocation lifecycle of issued ones.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vcissuer/internal/credentials/metrics"
	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/statuslist"
	"vcissuer/internal/credentials/store"
	"vcissuer/internal/events"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	"vcissuer/pkg/platform/tracer"
	txcontext "vcissuer/pkg/platform/tx"
)

const (
	maxIndexAttempts  = 5
	maxRevokeAttempts = 3
)

// StatusListManager allocates status-list slots and republishes lists.
type StatusListManager interface {
	GetActiveCredential(ctx context.Context, participantContextID string) (*models.StatusListCredentialEntry, error)
	IncrementIndex(ctx context.Context, entry *models.StatusListCredentialEntry) error
	Publish(ctx context.Context, list *models.VerifiableCredentialResource) (string, error)
}

// Signer re-signs a status-list credential after a bit flip.
type Signer interface {
	SignCredential(ctx context.Context, participantContextID string, credential models.VerifiableCredential, format models.CredentialFormat) (*models.VerifiableCredentialContainer, error)
}

// InfoFactories looks up the accessor for a credentialStatus type.
type InfoFactories interface {
	InfoFactory(statusType string) (statuslist.InfoFactory, bool)
}

// Service is the credential status service.
type Service struct {
	store   store.Store
	tx      txcontext.Runner
	manager StatusListManager
	signer  Signer
	infos   InfoFactories
	events  events.Emitter
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

type Option func(*Service)

func WithEvents(e events.Emitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(credentials store.Store, runner txcontext.Runner, manager StatusListManager, signer Signer, infos InfoFactories, opts ...Option) *Service {
	s := &Service{
		store:   credentials,
		tx:      runner,
		manager: manager,
		signer:  signer,
		infos:   infos,
		events:  events.Discard{},
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCredential reserves a revocation slot for credential and returns a copy
// carrying the matching credentialStatus entry. Lost index races are retried
// against a freshly read active list.
func (s *Service) AddCredential(ctx context.Context, participantContextID string, credential models.VerifiableCredential) (models.VerifiableCredential, error) {
	var lastErr error
	for attempt := 1; attempt <= maxIndexAttempts; attempt++ {
		entry, err := s.manager.GetActiveCredential(ctx, participantContextID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				lastErr = err
				continue
			}
			return models.VerifiableCredential{}, err
		}

		if err := s.manager.IncrementIndex(ctx, entry); err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				lastErr = err
				s.logger.DebugContext(ctx, "status list index taken, retrying",
					"participant_context_id", participantContextID,
					"status_list_id", entry.StatusListCredential.ID,
					"attempt", attempt,
				)
				continue
			}
			return models.VerifiableCredential{}, err
		}

		out := credential.Clone()
		out.CredentialStatus = withoutPurpose(out.CredentialStatus, models.StatusPurposeRevocation)
		out.CredentialStatus = append(out.CredentialStatus, entry.CredentialStatus(models.StatusPurposeRevocation))
		return out, nil
	}
	return models.VerifiableCredential{}, dErrors.Wrap(lastErr, dErrors.CodeConflict,
		fmt.Sprintf("could not allocate a status list index after %d attempts", maxIndexAttempts))
}

// RevokeCredential sets the revocation bit of a holder credential, re-signs and
// republishes its status list and marks the credential REVOKED, all in one
// transaction. Revoking twice is a no-op.
func (s *Service) RevokeCredential(ctx context.Context, credentialID string) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanStatusListRevoke)
	defer func() { span.End(err) }()

	holder, err := s.findCredential(ctx, credentialID)
	if err != nil {
		return err
	}
	span.SetAttributes(tracer.String(tracer.AttrParticipantContext, holder.ParticipantContextID))
	txCtx := txcontext.WithShardKey(ctx, holder.ParticipantContextID)

	for attempt := 1; ; attempt++ {
		var previous *models.VerifiableCredentialResource
		err = s.tx.RunInTx(txCtx, func(ctx context.Context) error {
			var rerr error
			previous, rerr = s.revoke(ctx, credentialID)
			return rerr
		})
		if err != nil && previous != nil {
			s.restorePublication(ctx, previous)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) || attempt >= maxRevokeAttempts {
			return storeError(err, fmt.Sprintf("failed to revoke credential '%s'", credentialID))
		}
		if s.metrics != nil {
			s.metrics.RevokeConflicts.Inc()
		}
		s.logger.InfoContext(ctx, "concurrent status list update, retrying revocation",
			"credential_id", credentialID,
			"attempt", attempt,
		)
	}
}

// revoke signs and publishes the flipped status list before touching the
// store, so a signing or publishing failure leaves nothing to undo. Once the
// new list is public it returns the previous list; the caller republishes it
// if the transaction does not commit.
func (s *Service) revoke(ctx context.Context, credentialID string) (*models.VerifiableCredentialResource, error) {
	holder, err := s.findCredential(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	info, err := s.revocationInfo(ctx, holder)
	if err != nil {
		return nil, err
	}
	status, err := info.Status()
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(status, models.StatusPurposeRevocation) {
		if holder.State == models.VcStatusRevoked {
			s.logger.InfoContext(ctx, "credential already revoked", "credential_id", credentialID)
			return nil, nil
		}
		holder.State = models.VcStatusRevoked
		return nil, s.store.Update(ctx, holder)
	}

	list := info.StatusListCredential()
	previous := list.Clone()
	if err := info.SetStatus(true); err != nil {
		return nil, err
	}
	signed, err := s.signer.SignCredential(ctx, list.ParticipantContextID, list.Credential.Credential, list.Credential.Format)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal,
			fmt.Sprintf("Error signing BitstringStatusListCredential: %s", err))
	}
	list.Credential = *signed
	if _, err := s.manager.Publish(ctx, list); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, list); err != nil {
		return previous, err
	}
	holder.State = models.VcStatusRevoked
	if err := s.store.Update(ctx, holder); err != nil {
		return previous, err
	}
	if err := s.events.Emit(ctx, events.NewCredentialRevoked(holder.ID, holder.ParticipantContextID, list.ID, info.Index())); err != nil {
		return previous, err
	}

	if s.metrics != nil {
		s.metrics.CredentialsRevoked.WithLabelValues(holder.ParticipantContextID).Inc()
	}
	s.logger.InfoContext(ctx, "credential revoked",
		"credential_id", credentialID,
		"status_list_id", list.ID,
		"status_list_index", info.Index(),
	)
	return previous, nil
}

// restorePublication puts the last committed form of a status list back on
// its public endpoint after a revocation failed to persist.
func (s *Service) restorePublication(ctx context.Context, previous *models.VerifiableCredentialResource) {
	if _, err := s.manager.Publish(ctx, previous); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore published status list after aborted revocation",
			"status_list_id", previous.ID,
			"error", err,
		)
	}
}

// SuspendCredential is not supported by bitstring revocation lists.
func (s *Service) SuspendCredential(_ context.Context, _ string, _ string) error {
	return dErrors.New(dErrors.CodeUnsupported, "suspending credentials is not supported by this status list implementation")
}

// ResumeCredential is not supported by bitstring revocation lists.
func (s *Service) ResumeCredential(_ context.Context, _ string, _ string) error {
	return dErrors.New(dErrors.CodeUnsupported, "resuming credentials is not supported by this status list implementation")
}

// GetCredentialStatus returns "revocation" for a revoked credential and "" otherwise.
func (s *Service) GetCredentialStatus(ctx context.Context, credentialID string) (string, error) {
	holder, err := s.findCredential(ctx, credentialID)
	if err != nil {
		return "", err
	}
	info, err := s.revocationInfo(ctx, holder)
	if err != nil {
		return "", err
	}
	return info.Status()
}

func (s *Service) GetCredentialByID(ctx context.Context, credentialID string) (*models.VerifiableCredentialResource, error) {
	return s.findCredential(ctx, credentialID)
}

// QueryCredentials lists a participant's credentials matching spec.
func (s *Service) QueryCredentials(ctx context.Context, participantContextID string, spec query.Spec) ([]*models.VerifiableCredentialResource, error) {
	spec.Filters = append([]query.Criterion{{
		Field: store.FieldParticipantContextID, Operator: query.OpEqual, Value: participantContextID,
	}}, spec.Filters...)
	found, err := s.store.Query(ctx, spec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid credential query: %s", err))
	}
	return found, nil
}

func (s *Service) findCredential(ctx context.Context, credentialID string) (*models.VerifiableCredentialResource, error) {
	cred, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("credential '%s' not found", credentialID))
	}
	return cred, nil
}

func (s *Service) revocationInfo(ctx context.Context, holder *models.VerifiableCredentialResource) (statuslist.Info, error) {
	status, ok := holder.Credential.Credential.StatusByPurpose(models.StatusPurposeRevocation)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			"Credential did not contain a credentialStatus object with 'statusPurpose = revocation'")
	}
	factory, ok := s.infos.InfoFactory(status.Type)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("No StatusList implementation for type '%s' found.", status.Type))
	}
	return factory(ctx, status)
}

// storeError maps store sentinels onto domain codes. Domain errors pass
// through untouched so their detail reaches the caller unmodified.
func storeError(err error, msg string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, fmt.Sprintf("%s: %s", msg, err))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("%s: %s", msg, err))
	}
}

func withoutPurpose(statuses []models.CredentialStatus, purpose string) []models.CredentialStatus {
	out := statuses[:0]
	for _, st := range statuses {
		if st.StatusPurpose() != purpose {
			out = append(out, st)
		}
	}
	return out
}
