// Package statuslist allocates slots in bitstring status-list credentials,
// rotates a participant's active list when it fills up and reads or flips the
// status bits of issued credentials.
package statuslist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vcissuer/internal/credentials/metrics"
	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/store"
	"vcissuer/internal/events"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	"vcissuer/pkg/platform/tracer"
	txcontext "vcissuer/pkg/platform/tx"
)

const (
	DefaultBitstringSize = 16 * 1024
	DefaultValidity      = 365 * 24 * time.Hour
)

// Signer turns a structured credential into its signed container.
type Signer interface {
	SignCredential(ctx context.Context, participantContextID string, credential models.VerifiableCredential, format models.CredentialFormat) (*models.VerifiableCredentialContainer, error)
}

// Publisher makes a status-list credential resolvable at a public URL.
type Publisher interface {
	Publish(ctx context.Context, resource *models.VerifiableCredentialResource) (string, error)
	Unpublish(ctx context.Context, resource *models.VerifiableCredentialResource) error
}

// DIDResolver returns the DID a participant signs as.
type DIDResolver interface {
	DID(ctx context.Context, participantContextID string) (string, error)
}

// Manager owns creation and rotation of status-list credentials and the
// single active list per participant.
type Manager struct {
	store        store.Store
	tx           txcontext.Runner
	signer       Signer
	publisher    Publisher
	participants DIDResolver
	events       events.Emitter
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	logger       *slog.Logger

	bitstringSize int
	validity      time.Duration
	now           func() time.Time
}

type Option func(*Manager)

func WithBitstringSize(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.bitstringSize = size
		}
	}
}

func WithValidity(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.validity = d
		}
	}
}

func WithEvents(e events.Emitter) Option {
	return func(m *Manager) {
		m.events = e
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(credentials store.Store, runner txcontext.Runner, signer Signer, publisher Publisher, participants DIDResolver, opts ...Option) *Manager {
	m := &Manager{
		store:         credentials,
		tx:            runner,
		signer:        signer,
		publisher:     publisher,
		participants:  participants,
		events:        events.Discard{},
		tracer:        tracer.NewNoop(),
		logger:        slog.Default(),
		bitstringSize: DefaultBitstringSize,
		validity:      DefaultValidity,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetActiveCredential returns the participant's active, non-full status list
// and the next free index in it. When there is none a new list is signed,
// published and stored as active in one step; the old list loses the marker.
func (m *Manager) GetActiveCredential(ctx context.Context, participantContextID string) (*models.StatusListCredentialEntry, error) {
	active, err := m.store.Query(ctx, query.Where(store.FieldParticipantContextID, participantContextID).
		And(store.FieldIsStatusList, true).
		And(store.FieldStatusListActive, true).
		And(store.FieldStatusListPurpose, models.StatusPurposeRevocation))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to query status lists: %s", err))
	}
	for _, list := range active {
		if !list.StatusList.IsFull() {
			return entryFor(list), nil
		}
	}
	return m.rotate(ctx, participantContextID, active)
}

// IncrementIndex claims entry.StatusListIndex with a single compare-and-swap.
// A lost race surfaces as CodeConflict and is safe to retry from
// GetActiveCredential.
func (m *Manager) IncrementIndex(ctx context.Context, entry *models.StatusListCredentialEntry) error {
	if entry == nil || entry.StatusListCredential == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "status list entry is required")
	}
	list := entry.StatusListCredential
	err := m.store.IncrementStatusListIndex(ctx, list.ID, entry.StatusListIndex)
	switch {
	case err == nil:
		if m.metrics != nil {
			m.metrics.IndexAllocations.WithLabelValues(list.ParticipantContextID).Inc()
		}
		return nil
	case errors.Is(err, sentinel.ErrConflict):
		if m.metrics != nil {
			m.metrics.IndexConflicts.WithLabelValues(list.ParticipantContextID).Inc()
		}
		return dErrors.Wrap(err, dErrors.CodeConflict,
			fmt.Sprintf("status list '%s' index %d is no longer free", list.ID, entry.StatusListIndex))
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("status list credential '%s' not found", list.ID))
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to increment status list index: %s", err))
	}
}

// Publish pushes the current signed form of a status list to its publisher,
// e.g. after a bit flip.
func (m *Manager) Publish(ctx context.Context, list *models.VerifiableCredentialResource) (string, error) {
	start := time.Now()
	url, err := m.publisher.Publish(ctx, list)
	if m.metrics != nil {
		m.metrics.PublishLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("failed to publish status list credential '%s': %s", list.ID, err))
	}
	return url, nil
}

func (m *Manager) rotate(ctx context.Context, participantContextID string, previous []*models.VerifiableCredentialResource) (_ *models.StatusListCredentialEntry, err error) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanStatusListRotate, tracer.String(tracer.AttrParticipantContext, participantContextID))
	defer func() { span.End(err) }()

	did, err := m.participants.DID(ctx, participantContextID)
	if err != nil {
		return nil, err
	}

	list, err := m.newStatusList(ctx, participantContextID, did)
	if err != nil {
		m.rotateFailed("sign")
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrStatusListID, list.ID))

	url, err := m.Publish(ctx, list)
	if err != nil {
		m.rotateFailed("publish")
		return nil, err
	}
	list.StatusList.Published = true
	list.StatusList.PublicURL = url

	var previousID string
	err = m.tx.RunInTx(txcontext.WithShardKey(ctx, participantContextID), func(ctx context.Context) error {
		for _, old := range previous {
			old.StatusList.Active = false
			if err := m.store.Update(ctx, old); err != nil {
				return err
			}
			previousID = old.ID
		}
		if err := m.store.Create(ctx, list); err != nil {
			return err
		}
		return m.events.Emit(ctx, events.NewStatusListRotated(list.ID, participantContextID, previousID, url))
	})
	if err != nil {
		m.rotateFailed("persist")
		if uerr := m.publisher.Unpublish(ctx, list); uerr != nil {
			m.logger.WarnContext(ctx, "failed to unpublish abandoned status list",
				"status_list_id", list.ID,
				"error", uerr,
			)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict,
				fmt.Sprintf("concurrent status list rotation for participant '%s'", participantContextID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to store status list credential: %s", err))
	}

	if m.metrics != nil {
		m.metrics.StatusListRotations.WithLabelValues(participantContextID).Inc()
	}
	m.logger.InfoContext(ctx, "status list credential rotated",
		"participant_context_id", participantContextID,
		"status_list_id", list.ID,
		"previous_status_list_id", previousID,
		"public_url", url,
	)
	return entryFor(list), nil
}

func (m *Manager) newStatusList(ctx context.Context, participantContextID, did string) (*models.VerifiableCredentialResource, error) {
	encoded, err := NewBitstring(m.bitstringSize).Encode()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode empty bitstring")
	}

	id := uuid.NewString()
	now := m.now().UTC().Truncate(time.Second)
	expires := now.Add(m.validity)
	credential := models.VerifiableCredential{
		Context:        []string{models.ContextCredentialsV2},
		ID:             "urn:uuid:" + id,
		Type:           []string{models.TypeVerifiableCredential, models.TypeBitstringStatusListCredential},
		Issuer:         models.Issuer{ID: did},
		IssuanceDate:   now,
		ExpirationDate: &expires,
		CredentialSubject: []models.CredentialSubject{{
			ID: "urn:uuid:" + id + "#list",
			Claims: map[string]any{
				"type":          models.TypeBitstringStatusList,
				"statusPurpose": models.StatusPurposeRevocation,
				"encodedList":   encoded,
			},
		}},
	}

	signed, err := m.signer.SignCredential(ctx, participantContextID, credential, models.FormatVC1JWT)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to sign status list credential: %s", err))
	}

	return &models.VerifiableCredentialResource{
		ID:                   id,
		ParticipantContextID: participantContextID,
		IssuerID:             did,
		HolderID:             did,
		State:                models.VcStatusIssued,
		Credential:           *signed,
		StatusList: &models.StatusListMetadata{
			Purpose:       models.StatusPurposeRevocation,
			BitstringSize: m.bitstringSize,
			Active:        true,
		},
	}, nil
}

func (m *Manager) rotateFailed(stage string) {
	if m.metrics != nil {
		m.metrics.StatusListRotateFailure.WithLabelValues(stage).Inc()
	}
}

func entryFor(list *models.VerifiableCredentialResource) *models.StatusListCredentialEntry {
	return &models.StatusListCredentialEntry{
		StatusListIndex:      list.StatusList.CurrentIndex,
		CredentialURL:        list.StatusList.PublicURL,
		StatusListCredential: list,
	}
}
