package delivery

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/internal/participants"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/circuit"
)

func setup(t *testing.T, storageURL string) (*participants.Directory, *models.Process) {
	t.Helper()
	dir := participants.NewDirectory(participants.NewInMemoryHolderStore(),
		participants.Participant{ID: "issuer", DID: "did:example:issuer"})
	require.NoError(t, dir.RegisterHolder(context.Background(), &participants.Holder{
		ParticipantContextID: "issuer",
		HolderID:             "holderId",
		DID:                  "did:example:holder",
		StorageURL:           storageURL,
	}))
	return dir, &models.Process{
		ID:                   "process-1",
		ParticipantContextID: "issuer",
		HolderID:             "holderId",
		HolderPID:            "holder-pid",
		State:                models.StateApproved,
	}
}

func credential() *credmodels.VerifiableCredentialContainer {
	return &credmodels.VerifiableCredentialContainer{
		RawVC:  "header.payload.signature",
		Format: credmodels.FormatVC1JWT,
		Credential: credmodels.VerifiableCredential{
			Type: []string{credmodels.TypeVerifiableCredential, "MembershipCredential"},
		},
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeliverCredentials(t *testing.T) {
	var got CredentialMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	dir, process := setup(t, srv.URL+"/credentials")
	c := New(dir, time.Second, WithLogger(quiet()))

	require.NoError(t, c.DeliverCredentials(context.Background(), process, []*credmodels.VerifiableCredentialContainer{credential()}))
	assert.Equal(t, CredentialMessage{
		Type:      "CredentialMessage",
		IssuerPID: "process-1",
		HolderPID: "holder-pid",
		IssuerDID: "did:example:issuer",
		Status:    "ISSUED",
		Credentials: []CredentialPayload{{
			CredentialType: "MembershipCredential",
			Format:         credmodels.FormatVC1JWT,
			Payload:        "header.payload.signature",
		}},
	}, got)
}

func TestDeliverCredentialsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	dir, process := setup(t, srv.URL)
	c := New(dir, time.Second, WithLogger(quiet()))

	err := c.DeliverCredentials(context.Background(), process, []*credmodels.VerifiableCredentialContainer{credential()})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Equal(t, "Credential Message failed: HTTP 502", err.Error())
}

func TestDeliverCredentialsUnknownHolder(t *testing.T) {
	dir, process := setup(t, "https://wallet.example")
	process.HolderID = "nobody"
	c := New(dir, time.Second, WithLogger(quiet()))

	err := c.DeliverCredentials(context.Background(), process, nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dir, process := setup(t, srv.URL)
	c := New(dir, time.Second,
		WithBreakerOptions(
			circuit.WithFailureThreshold(2),
			circuit.WithCooldown(time.Minute),
			circuit.WithClock(func() time.Time { return now })),
		WithLogger(quiet()))
	creds := []*credmodels.VerifiableCredentialContainer{credential()}

	require.Error(t, c.DeliverCredentials(context.Background(), process, creds))
	require.Error(t, c.DeliverCredentials(context.Background(), process, creds))
	assert.Equal(t, circuit.StateOpen, c.CircuitState(srv.URL))

	err := c.DeliverCredentials(context.Background(), process, creds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenCircuitDoesNotBlockOtherHolders(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	var delivered atomic.Int32
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		delivered.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer healthy.Close()

	dir, failing := setup(t, broken.URL)
	require.NoError(t, dir.RegisterHolder(context.Background(), &participants.Holder{
		ParticipantContextID: "issuer",
		HolderID:             "other-holder",
		DID:                  "did:example:other",
		StorageURL:           healthy.URL,
	}))
	working := &models.Process{
		ID:                   "process-2",
		ParticipantContextID: "issuer",
		HolderID:             "other-holder",
		HolderPID:            "other-pid",
		State:                models.StateApproved,
	}
	c := New(dir, time.Second, WithLogger(quiet()))
	creds := []*credmodels.VerifiableCredentialContainer{credential()}

	for range 5 {
		require.Error(t, c.DeliverCredentials(context.Background(), failing, creds))
	}
	assert.Equal(t, circuit.StateOpen, c.CircuitState(broken.URL))

	require.NoError(t, c.DeliverCredentials(context.Background(), working, creds))
	assert.Equal(t, int32(1), delivered.Load())
	assert.Equal(t, circuit.StateClosed, c.CircuitState(healthy.URL))
}
