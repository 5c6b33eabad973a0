// Package delivery pushes issued credentials to the holder's credential
// storage endpoint.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/circuit"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Participants resolves the issuer DID and the holder's storage endpoint.
type Participants interface {
	DID(ctx context.Context, participantContextID string) (string, error)
	Holder(ctx context.Context, participantContextID, holderID string) (*participants.Holder, error)
}

// CredentialMessage is the body posted to a holder's storage endpoint.
type CredentialMessage struct {
	Type        string              `json:"type"`
	IssuerPID   string              `json:"issuerPid"`
	HolderPID   string              `json:"holderPid"`
	IssuerDID   string              `json:"issuerDid"`
	Status      string              `json:"status"`
	Credentials []CredentialPayload `json:"credentials"`
}

type CredentialPayload struct {
	CredentialType string                      `json:"credentialType"`
	Format         credmodels.CredentialFormat `json:"format"`
	Payload        string                      `json:"payload"`
}

// Client posts credential messages. Each storage endpoint has its own
// circuit breaker so one unreachable wallet does not fail other holders.
type Client struct {
	http           HTTPDoer
	participants   Participants
	breakerOptions []circuit.Option
	logger         *slog.Logger

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithBreakerOptions configures the breakers created per storage endpoint.
func WithBreakerOptions(opts ...circuit.Option) Option {
	return func(c *Client) {
		c.breakerOptions = append(c.breakerOptions, opts...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(participants Participants, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		http:         &http.Client{Timeout: timeout},
		participants: participants,
		logger:       slog.Default(),
		breakers:     make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeliverCredentials sends every credential of the process in one message.
// Any non-2xx answer is a failure.
func (c *Client) DeliverCredentials(ctx context.Context, process *models.Process, credentials []*credmodels.VerifiableCredentialContainer) error {
	issuerDID, err := c.participants.DID(ctx, process.ParticipantContextID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("Error delivering credentials: %s", err))
	}
	holder, err := c.participants.Holder(ctx, process.ParticipantContextID, process.HolderID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("Error delivering credentials: %s", err))
	}

	msg := CredentialMessage{
		Type:        "CredentialMessage",
		IssuerPID:   process.ID,
		HolderPID:   process.HolderPID,
		IssuerDID:   issuerDID,
		Status:      string(credmodels.VcStatusIssued),
		Credentials: make([]CredentialPayload, 0, len(credentials)),
	}
	for _, cred := range credentials {
		msg.Credentials = append(msg.Credentials, CredentialPayload{
			CredentialType: credentialType(cred.Credential),
			Format:         cred.Format,
			Payload:        cred.RawVC,
		})
	}

	breaker := c.breaker(holder.StorageURL)
	if !breaker.Allow() {
		return dErrors.New(dErrors.CodeUnavailable, "Error delivering credentials: circuit open")
	}
	err = c.send(ctx, holder.StorageURL, msg)
	if err != nil {
		if breaker.RecordFailure() {
			c.logger.WarnContext(ctx, "credential delivery circuit opened",
				"holder_id", holder.HolderID,
				"storage_url", holder.StorageURL,
				"error", err,
			)
		}
		return err
	}
	if breaker.RecordSuccess() {
		c.logger.InfoContext(ctx, "credential delivery circuit closed", "storage_url", holder.StorageURL)
	}
	return nil
}

// breaker returns the breaker of a storage endpoint, creating it on first use.
func (c *Client) breaker(storageURL string) *circuit.Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[storageURL]
	if !ok {
		b = circuit.New("credential-delivery:"+storageURL, c.breakerOptions...)
		c.breakers[storageURL] = b
	}
	return b
}

// CircuitState reports the breaker state of a storage endpoint. Endpoints
// never called are closed.
func (c *Client) CircuitState(storageURL string) circuit.State {
	c.mu.Lock()
	b, ok := c.breakers[storageURL]
	c.mu.Unlock()
	if !ok {
		return circuit.StateClosed
	}
	return b.State()
}

func (c *Client) send(ctx context.Context, url string, msg CredentialMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential message")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("Error writing credentials: %s", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, fmt.Sprintf("Error writing credentials: %s", err))
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("Error writing credentials: %s", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("Credential Message failed: HTTP %d", resp.StatusCode))
	}
	return nil
}

// credentialType is the most specific type of the credential.
func credentialType(vc credmodels.VerifiableCredential) string {
	for i := len(vc.Type) - 1; i >= 0; i-- {
		if vc.Type[i] != credmodels.TypeVerifiableCredential {
			return vc.Type[i]
		}
	}
	return credmodels.TypeVerifiableCredential
}
