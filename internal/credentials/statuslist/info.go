package statuslist

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"vcissuer/internal/credentials/models"
	"vcissuer/internal/credentials/store"
	dErrors "vcissuer/pkg/domain-errors"
	"vcissuer/pkg/platform/query"
)

// Info reads and writes one holder credential's flag inside the status-list
// credential its credentialStatus entry points at.
type Info interface {
	// Status returns the status purpose when the bit is set, "" otherwise.
	Status() (string, error)
	// SetStatus flips the bit and rewrites the encodedList of the status-list
	// credential held by this Info. Nothing is persisted.
	SetStatus(value bool) error
	Index() int
	StatusListCredential() *models.VerifiableCredentialResource
}

// InfoFactory derives an Info from a credentialStatus entry.
type InfoFactory func(ctx context.Context, status models.CredentialStatus) (Info, error)

// InfoFactoryRegistry maps credentialStatus types to factories.
type InfoFactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]InfoFactory
}

func NewInfoFactoryRegistry() *InfoFactoryRegistry {
	return &InfoFactoryRegistry{factories: make(map[string]InfoFactory)}
}

func (r *InfoFactoryRegistry) Register(statusType string, factory InfoFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[statusType] = factory
}

func (r *InfoFactoryRegistry) InfoFactory(statusType string) (InfoFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[statusType]
	return f, ok
}

// NewBitstringInfoFactory resolves BitstringStatusListEntry objects against
// status-list credentials in credentials, matched by public URL.
func NewBitstringInfoFactory(credentials store.Store) InfoFactory {
	return func(ctx context.Context, status models.CredentialStatus) (Info, error) {
		index, err := strconv.Atoi(status.Property("statusListIndex"))
		if err != nil || index < 0 {
			return nil, dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("invalid statusListIndex '%s'", status.Property("statusListIndex")))
		}
		url := status.Property("statusListCredential")
		if url == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "credentialStatus has no statusListCredential")
		}
		found, err := credentials.Query(ctx, query.Where(store.FieldStatusListPublicURL, url))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query status list credentials")
		}
		if len(found) == 0 {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("status list credential '%s' not found", url))
		}
		return &bitstringInfo{index: index, resource: found[0]}, nil
	}
}

type bitstringInfo struct {
	index    int
	resource *models.VerifiableCredentialResource
}

func (b *bitstringInfo) Index() int { return b.index }

func (b *bitstringInfo) StatusListCredential() *models.VerifiableCredentialResource {
	return b.resource
}

func (b *bitstringInfo) Status() (string, error) {
	bits, subject, err := b.decode()
	if err != nil {
		return "", err
	}
	set, err := bits.Get(b.index)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}
	if !set {
		return "", nil
	}
	if purpose, _ := subject.Claims["statusPurpose"].(string); purpose != "" {
		return purpose, nil
	}
	return models.StatusPurposeRevocation, nil
}

func (b *bitstringInfo) SetStatus(value bool) error {
	bits, subject, err := b.decode()
	if err != nil {
		return err
	}
	if err := bits.Set(b.index, value); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}
	encoded, err := bits.Encode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, err.Error())
	}
	subject.Claims["encodedList"] = encoded
	return nil
}

func (b *bitstringInfo) decode() (*Bitstring, *models.CredentialSubject, error) {
	subjects := b.resource.Credential.Credential.CredentialSubject
	if len(subjects) == 0 || subjects[0].Claims == nil {
		return nil, nil, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("status list credential '%s' has no credentialSubject", b.resource.ID))
	}
	subject := &subjects[0]
	encoded, _ := subject.Claims["encodedList"].(string)
	bits, err := DecodeBitstring(encoded)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal,
			fmt.Sprintf("Failed to decode compressed BitString: '%s'", err))
	}
	return bits, subject, nil
}
