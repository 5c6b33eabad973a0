// Package manager runs the issuance state machine: it leases APPROVED
// processes, generates and stores their credentials and hands them to the
// holder, retrying with exponential backoff until the attempt budget is spent.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	credmodels "vcissuer/internal/credentials/models"
	credstore "vcissuer/internal/credentials/store"
	"vcissuer/internal/events"
	"vcissuer/internal/issuance/metrics"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/issuance/store"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	"vcissuer/pkg/platform/tracer"
	txcontext "vcissuer/pkg/platform/tx"
)

// Generator produces and signs credentials.
type Generator interface {
	GenerateCredentials(ctx context.Context, participantContextID, holderID string, requests []models.GenerationRequest, claims map[string]any) ([]*credmodels.VerifiableCredentialContainer, error)
	SignCredential(ctx context.Context, participantContextID string, credential credmodels.VerifiableCredential, format credmodels.CredentialFormat) (*credmodels.VerifiableCredentialContainer, error)
}

// StatusService attaches a status-list entry to a fresh credential.
type StatusService interface {
	AddCredential(ctx context.Context, participantContextID string, credential credmodels.VerifiableCredential) (credmodels.VerifiableCredential, error)
}

// Delivery hands signed credentials to the holder.
type Delivery interface {
	DeliverCredentials(ctx context.Context, process *models.Process, credentials []*credmodels.VerifiableCredentialContainer) error
}

// WaitStrategy configures the exponential delay between attempts.
type WaitStrategy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultWaitStrategy doubles from one second up to five minutes.
var DefaultWaitStrategy = WaitStrategy{Initial: time.Second, Max: 5 * time.Minute, Multiplier: 2}

// Manager polls for APPROVED processes and drives them to DELIVERED or ERRORED.
type Manager struct {
	processes   store.ProcessStore
	definitions store.DefinitionStore
	credentials credstore.Store
	generator   Generator
	status      StatusService
	delivery    Delivery
	tx          txcontext.Runner
	events      events.Emitter
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
	now         func() time.Time

	retryLimit   int
	batchSize    int
	concurrency  int
	pollInterval time.Duration
	wait         WaitStrategy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Manager)

// WithRetryLimit sets how many retries follow the first failed attempt.
func WithRetryLimit(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.retryLimit = n
		}
	}
}

func WithBatchSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

func WithWaitStrategy(w WaitStrategy) Option {
	return func(m *Manager) {
		if w.Initial > 0 {
			m.wait.Initial = w.Initial
		}
		if w.Max > 0 {
			m.wait.Max = w.Max
		}
		if w.Multiplier >= 1 {
			m.wait.Multiplier = w.Multiplier
		}
	}
}

func WithTxRunner(r txcontext.Runner) Option {
	return func(m *Manager) {
		m.tx = r
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

func New(
	processes store.ProcessStore,
	definitions store.DefinitionStore,
	credentials credstore.Store,
	generator Generator,
	status StatusService,
	delivery Delivery,
	opts ...Option,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		processes:    processes,
		definitions:  definitions,
		credentials:  credentials,
		generator:    generator,
		status:       status,
		delivery:     delivery,
		tx:           txcontext.NewInMemoryRunner(),
		events:       events.Discard{},
		tracer:       tracer.NewNoop(),
		logger:       slog.Default(),
		now:          time.Now,
		retryLimit:   3,
		batchSize:    5,
		concurrency:  4,
		pollInterval: time.Second,
		wait:         DefaultWaitStrategy,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins the polling loop in a background goroutine.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.run()
}

func (m *Manager) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(m.ctx)
		}
	}
}

// Stop stops leasing new processes and waits for the in-flight batch.
func (m *Manager) Stop(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce leases one batch and processes it. It returns the number of
// processes that were attempted; deferred ones are not counted.
func (m *Manager) RunOnce(ctx context.Context) int {
	leased, err := m.processes.NextNotLeased(ctx, m.batchSize, models.StateApproved)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to lease issuance processes", "error", err)
		if m.metrics != nil {
			m.metrics.PollErrors.Inc()
		}
		return 0
	}
	if len(leased) == 0 {
		return 0
	}
	if m.metrics != nil {
		m.metrics.ProcessesLeased.Add(float64(len(leased)))
	}

	// Processing runs detached from ctx so a shutdown lets the batch finish.
	work := context.WithoutCancel(ctx)
	var (
		g        errgroup.Group
		mu       sync.Mutex
		attempts int
	)
	g.SetLimit(m.concurrency)
	for _, p := range leased {
		g.Go(func() error {
			if m.handle(work, p) {
				mu.Lock()
				attempts++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return attempts
}

// handle reports whether an attempt was made.
func (m *Manager) handle(ctx context.Context, p *models.Process) bool {
	if wait := m.remainingDelay(p); wait > 0 {
		if err := m.processes.BreakLease(ctx, p.ID); err != nil {
			m.logger.WarnContext(ctx, "failed to release deferred issuance process", "process_id", p.ID, "error", err)
		}
		if m.metrics != nil {
			m.metrics.AttemptsDeferred.Inc()
		}
		return false
	}
	m.attempt(ctx, p)
	return true
}

// remainingDelay is how long a retried process still has to wait. The n-th
// retry waits the n-th interval of the exponential curve.
func (m *Manager) remainingDelay(p *models.Process) time.Duration {
	retries := p.StateCount - 1
	if retries <= 0 {
		return 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.wait.Initial
	b.MaxInterval = m.wait.Max
	b.Multiplier = m.wait.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	var delay time.Duration
	for range retries {
		delay = b.NextBackOff()
	}
	return p.StateTimestamp.Add(delay).Sub(m.now())
}

func (m *Manager) attempt(ctx context.Context, p *models.Process) {
	start := m.now()
	ctx, span := m.tracer.Start(ctx, tracer.SpanIssuanceAttempt,
		tracer.String(tracer.AttrProcessID, p.ID),
		tracer.String(tracer.AttrParticipantContext, p.ParticipantContextID),
		tracer.Int(tracer.AttrStateCount, p.StateCount),
	)

	credentials, phase, err := m.issue(ctx, p)
	if err == nil {
		phase = models.StateDelivering
		err = m.deliver(ctx, p, credentials)
	}
	span.End(err)

	if err != nil {
		m.logger.WarnContext(ctx, "issuance attempt failed",
			"process_id", p.ID,
			"phase", phase.String(),
			"attempt", p.StateCount,
			"error", err,
		)
		if m.metrics != nil {
			m.metrics.IncrementAttemptFailure(phase.String())
			m.metrics.ObserveAttempt("failure", m.now().Sub(start))
		}
		m.onFailure(ctx, p, phase, err)
		return
	}

	if m.metrics != nil {
		m.metrics.ObserveAttempt("success", m.now().Sub(start))
	}
	m.onDelivered(ctx, p, credentials)
}

type pending struct {
	resourceID string
	definition *models.CredentialDefinition
}

// issue returns the signed credentials of every definition the process asks
// for. Credentials persisted by an earlier attempt are re-signed instead of
// generated again, so retries never allocate a second status slot.
func (m *Manager) issue(ctx context.Context, p *models.Process) ([]*credmodels.VerifiableCredentialContainer, models.State, error) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanIssuanceGenerate, tracer.String(tracer.AttrProcessID, p.ID))
	var err error
	defer func() { span.End(err) }()

	var (
		out      []*credmodels.VerifiableCredentialContainer
		requests []models.GenerationRequest
		missing  []pending
	)
	for _, defID := range p.DefinitionIDs() {
		var def *models.CredentialDefinition
		if def, err = m.resolveDefinition(ctx, p, defID); err != nil {
			return nil, models.StateGenerating, err
		}
		resourceID := ResourceID(p.ID, defID)
		existing, findErr := m.credentials.FindByID(ctx, resourceID)
		switch {
		case findErr == nil:
			var signed *credmodels.VerifiableCredentialContainer
			signed, err = m.generator.SignCredential(ctx, p.ParticipantContextID, existing.Credential.Credential, existing.Credential.Format)
			if err != nil {
				return nil, models.StateGenerating, err
			}
			out = append(out, signed)
		case errors.Is(findErr, sentinel.ErrNotFound):
			format := def.Format
			if f, ok := p.CredentialFormats[defID]; ok {
				format = f
			}
			requests = append(requests, models.GenerationRequest{Definition: def, Format: format})
			missing = append(missing, pending{resourceID: resourceID, definition: def})
		default:
			err = dErrors.Wrap(findErr, dErrors.CodeInternal, fmt.Sprintf("failed to look up credential %s", resourceID))
			return nil, models.StateGenerating, err
		}
	}
	if len(requests) == 0 {
		span.SetAttributes(tracer.Int(tracer.AttrCredentialCount, len(out)))
		return out, models.StateGenerating, nil
	}

	var generated []*credmodels.VerifiableCredentialContainer
	generated, err = m.generator.GenerateCredentials(ctx, p.ParticipantContextID, p.HolderID, requests, p.Claims)
	if err != nil {
		return nil, models.StateGenerating, err
	}
	if len(generated) != len(requests) {
		err = dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("generator returned %d credentials for %d requests", len(generated), len(requests)))
		return nil, models.StateGenerating, err
	}

	for i, container := range generated {
		var signed *credmodels.VerifiableCredentialContainer
		if signed, err = m.store(ctx, p, missing[i].resourceID, container); err != nil {
			return nil, models.StateGenerating, err
		}
		out = append(out, signed)
	}
	span.SetAttributes(tracer.Int(tracer.AttrCredentialCount, len(out)))
	return out, models.StateGenerating, nil
}

func (m *Manager) resolveDefinition(ctx context.Context, p *models.Process, defID string) (*models.CredentialDefinition, error) {
	found, err := m.definitions.Query(ctx, query.Where(store.FieldID, defID).And(store.FieldParticipantContextID, p.ParticipantContextID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to query credential definition '%s'", defID))
	}
	if len(found) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("Credential definition '%s' not found", defID))
	}
	return found[0], nil
}

// store attaches the status entry, signs the final form and persists the
// resource without its raw representation.
func (m *Manager) store(ctx context.Context, p *models.Process, resourceID string, container *credmodels.VerifiableCredentialContainer) (*credmodels.VerifiableCredentialContainer, error) {
	vc, err := m.status.AddCredential(ctx, p.ParticipantContextID, container.Credential)
	if err != nil {
		return nil, err
	}
	signed, err := m.generator.SignCredential(ctx, p.ParticipantContextID, vc, container.Format)
	if err != nil {
		return nil, err
	}

	resource := &credmodels.VerifiableCredentialResource{
		ID:                   resourceID,
		ParticipantContextID: p.ParticipantContextID,
		IssuerID:             signed.Credential.Issuer.ID,
		HolderID:             signed.Credential.HolderID(),
		State:                credmodels.VcStatusIssued,
		Credential: credmodels.VerifiableCredentialContainer{
			Format:     signed.Format,
			Credential: signed.Credential,
		},
	}
	if err := m.credentials.Create(ctx, resource); err != nil && !errors.Is(err, sentinel.ErrAlreadyExists) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to store credential %s", resourceID))
	}
	if m.metrics != nil {
		m.metrics.IncrementCredentialsIssued(string(signed.Format))
	}
	return signed, nil
}

func (m *Manager) deliver(ctx context.Context, p *models.Process, credentials []*credmodels.VerifiableCredentialContainer) (err error) {
	ctx, span := m.tracer.Start(ctx, tracer.SpanIssuanceDeliver,
		tracer.String(tracer.AttrProcessID, p.ID),
		tracer.Int(tracer.AttrCredentialCount, len(credentials)),
	)
	defer func() { span.End(err) }()
	return m.delivery.DeliverCredentials(ctx, p, credentials)
}

func (m *Manager) onDelivered(ctx context.Context, p *models.Process, credentials []*credmodels.VerifiableCredentialContainer) {
	ids := make([]string, 0, len(credentials))
	for _, c := range credentials {
		ids = append(ids, c.Credential.ID)
	}
	err := m.tx.RunInTx(txcontext.WithShardKey(ctx, p.ID), func(ctx context.Context) error {
		if err := p.TransitionToDelivered(m.now()); err != nil {
			return err
		}
		if err := m.processes.Save(ctx, p); err != nil {
			return err
		}
		return m.events.Emit(ctx, events.NewIssuanceDelivered(p.ID, p.ParticipantContextID, p.HolderID, ids))
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to persist delivered issuance process", "process_id", p.ID, "error", err)
		return
	}
	if m.metrics != nil {
		m.metrics.ProcessesDelivered.Inc()
	}
	m.logger.InfoContext(ctx, "issuance process delivered",
		"process_id", p.ID,
		"participant_context_id", p.ParticipantContextID,
		"credentials", len(credentials),
	)
}

// onFailure re-queues the process, or marks it ERRORED once the retry budget
// is spent.
func (m *Manager) onFailure(ctx context.Context, p *models.Process, phase models.State, cause error) {
	detail := fmt.Sprintf("%s: %s", phase, cause)
	attempts := p.StateCount
	final := attempts > m.retryLimit

	err := m.tx.RunInTx(txcontext.WithShardKey(ctx, p.ID), func(ctx context.Context) error {
		if final {
			if err := p.TransitionToErrored(m.now(), detail); err != nil {
				return err
			}
		} else {
			if err := p.TransitionToApproved(m.now()); err != nil {
				return err
			}
			p.ErrorDetail = detail
		}
		if err := m.processes.Save(ctx, p); err != nil {
			return err
		}
		if final {
			return m.events.Emit(ctx, events.NewIssuanceErrored(p.ID, p.ParticipantContextID, attempts, detail))
		}
		return nil
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to persist failed issuance attempt", "process_id", p.ID, "error", err)
		return
	}
	if final {
		if m.metrics != nil {
			m.metrics.ProcessesErrored.Inc()
		}
		m.logger.ErrorContext(ctx, "issuance process errored", "process_id", p.ID, "error", detail)
	}
}

// ResourceID derives the credential resource id for one definition of a
// process, stable across attempts.
func ResourceID(processID, definitionID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("vcissuer:issuance:"+processID+"/"+definitionID)).String()
}
