package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/delivery"
	"vcissuer/internal/platform/config"
)

type wallet struct {
	mu       sync.Mutex
	messages []delivery.CredentialMessage
}

func (w *wallet) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	var msg delivery.CredentialMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.mu.Unlock()
	rw.WriteHeader(http.StatusOK)
}

// TestInMemoryIssuanceFlow drives the wired application through issuance,
// revocation and status-list resolution without external infrastructure.
func TestInMemoryIssuanceFlow(t *testing.T) {
	ctx := context.Background()
	holderWallet := &wallet{}
	walletServer := httptest.NewServer(holderWallet)
	defer walletServer.Close()

	cfg := config.FromEnv()
	cfg.Database.URL = ""
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = ""
	cfg.StatusList.Publisher = "local"
	cfg.StatusList.BaseURL = "https://issuer.example"
	cfg.Server.AdminToken = "admin-secret"
	cfg.Issuer.SigningKeyPEM = ""
	cfg.Issuer.ParticipantContextID = "issuer"

	app, err := build(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	call := func(method, target, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)
		req.Header.Set("X-Admin-Token", "admin-secret")
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		return rec
	}

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/issuance/any", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code, "admin routes need the token")

	rec = call(http.MethodPost, "/admin/participants/issuer/holders",
		`{"holderId":"alice","did":"did:example:alice","storageUrl":"`+walletServer.URL+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(http.MethodPost, "/admin/participants/issuer/definitions",
		`{"id":"membership","credentialType":"MembershipCredential","validity":"720h"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(http.MethodPost, "/admin/participants/issuer/issuance",
		`{"holderId":"alice","credentialDefinitions":["membership"],"claims":{"credentialSubject":{"level":"gold"}}}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var process struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &process))
	assert.Equal(t, "APPROVED", process.State)

	require.Equal(t, 1, app.engine.RunOnce(ctx))

	rec = call(http.MethodGet, "/admin/issuance/"+process.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &process))
	assert.Equal(t, "DELIVERED", process.State)

	holderWallet.mu.Lock()
	require.Len(t, holderWallet.messages, 1)
	msg := holderWallet.messages[0]
	holderWallet.mu.Unlock()
	require.Len(t, msg.Credentials, 1)
	assert.Equal(t, "MembershipCredential", msg.Credentials[0].CredentialType)
	assert.Len(t, strings.Split(msg.Credentials[0].Payload, "."), 3)

	rec = call(http.MethodGet, "/admin/participants/issuer/credentials?holderId=did:example:alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Credentials []struct {
			ID         string                          `json:"id"`
			State      string                          `json:"state"`
			RawVC      string                          `json:"rawVc"`
			Credential credmodels.VerifiableCredential `json:"credential"`
		} `json:"credentials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Credentials, 1)
	issued := list.Credentials[0]
	assert.Equal(t, "ISSUED", issued.State)
	assert.Empty(t, issued.RawVC)
	require.Len(t, issued.Credential.CredentialStatus, 1)
	listURL := issued.Credential.CredentialStatus[0].Property("statusListCredential")
	require.True(t, strings.HasPrefix(listURL, "https://issuer.example/statuslist/"), listURL)

	rec = call(http.MethodPost, "/admin/credentials/"+issued.ID+"/revoke", "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = call(http.MethodGet, "/admin/credentials/"+issued.ID+"/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Revoked bool `json:"revoked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Revoked)

	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statuslist/"+path.Base(listURL), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vc+jwt", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
