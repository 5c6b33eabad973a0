package generator

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"

	dErrors "vcissuer/pkg/domain-errors"
)

// KeyPair is a participant's signing key. KeyID is either a fragment ("key-1")
// or a full DID URL.
type KeyPair struct {
	KeyID      string
	PrivateKey *ecdsa.PrivateKey
}

// KeyProvider returns the active signing key of a participant.
type KeyProvider interface {
	ActiveKey(ctx context.Context, participantContextID string) (*KeyPair, error)
}

// InMemoryKeyProvider holds one P-256 key per participant.
type InMemoryKeyProvider struct {
	mu   sync.RWMutex
	keys map[string]*KeyPair
}

func NewInMemoryKeyProvider() *InMemoryKeyProvider {
	return &InMemoryKeyProvider{keys: make(map[string]*KeyPair)}
}

func (p *InMemoryKeyProvider) Add(participantContextID string, key *KeyPair) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[participantContextID] = key
}

// Generate creates and activates a fresh P-256 key for the participant.
func (p *InMemoryKeyProvider) Generate(participantContextID, keyID string) (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate P-256 key: %w", err)
	}
	key := &KeyPair{KeyID: keyID, PrivateKey: priv}
	p.Add(participantContextID, key)
	return key, nil
}

func (p *InMemoryKeyProvider) ActiveKey(_ context.Context, participantContextID string) (*KeyPair, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	key, ok := p.keys[participantContextID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("No active key pair found for participant '%s'", participantContextID))
	}
	return key, nil
}

// ParseECPrivateKeyPEM accepts SEC 1 ("EC PRIVATE KEY") and PKCS #8 encodings.
func ParseECPrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	switch block.Type {
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		ec, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("PKCS #8 key is %T, want ECDSA", key)
		}
		return ec, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}
