// Package participants tracks issuer participant contexts and the holders
// they issue to.
package participants

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	dErrors "vcissuer/pkg/domain-errors"
)

// Participant is an issuer tenant and the DID it signs as.
type Participant struct {
	ID  string
	DID string
}

// Holder is a credential recipient registered with a participant.
type Holder struct {
	ParticipantContextID string    `json:"participantContextId"`
	HolderID             string    `json:"holderId"`
	DID                  string    `json:"did"`
	StorageURL           string    `json:"storageUrl"`
	CreatedAt            time.Time `json:"createdAt"`
}

func (h *Holder) Validate() error {
	if strings.TrimSpace(h.HolderID) == "" {
		return dErrors.New(dErrors.CodeValidation, "holderId is required")
	}
	if !strings.HasPrefix(h.DID, "did:") {
		return dErrors.New(dErrors.CodeValidation, "holder did must start with 'did:'")
	}
	if !strings.HasPrefix(h.StorageURL, "http://") && !strings.HasPrefix(h.StorageURL, "https://") {
		return dErrors.New(dErrors.CodeValidation, "storageUrl must be an http(s) URL")
	}
	return nil
}

// HolderStore persists holders.
type HolderStore interface {
	Save(ctx context.Context, holder *Holder) error
	Find(ctx context.Context, participantContextID, holderID string) (*Holder, error)
}

// Directory resolves participants and their holders.
type Directory struct {
	mu           sync.RWMutex
	participants map[string]Participant
	holders      HolderStore
	now          func() time.Time
}

func NewDirectory(holders HolderStore, seed ...Participant) *Directory {
	d := &Directory{
		participants: make(map[string]Participant, len(seed)),
		holders:      holders,
		now:          time.Now,
	}
	for _, p := range seed {
		d.participants[p.ID] = p
	}
	return d
}

func (d *Directory) RegisterParticipant(p Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[p.ID] = p
}

// DID returns the signing DID of a participant.
func (d *Directory) DID(_ context.Context, participantContextID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.participants[participantContextID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("participant context '%s' not found", participantContextID))
	}
	return p.DID, nil
}

func (d *Directory) RegisterHolder(ctx context.Context, holder *Holder) error {
	if _, err := d.DID(ctx, holder.ParticipantContextID); err != nil {
		return err
	}
	if err := holder.Validate(); err != nil {
		return err
	}
	if holder.CreatedAt.IsZero() {
		holder.CreatedAt = d.now()
	}
	if err := d.holders.Save(ctx, holder); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save holder")
	}
	return nil
}

func (d *Directory) Holder(ctx context.Context, participantContextID, holderID string) (*Holder, error) {
	h, err := d.holders.Find(ctx, participantContextID, holderID)
	if err != nil {
		return nil, err
	}
	return h, nil
}
