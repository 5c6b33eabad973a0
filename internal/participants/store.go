package participants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	dErrors "vcissuer/pkg/domain-errors"
	txcontext "vcissuer/pkg/platform/tx"
)

type holderKey struct{ participant, holder string }

// InMemoryHolderStore keeps holders in a map.
type InMemoryHolderStore struct {
	mu      sync.RWMutex
	holders map[holderKey]Holder
}

func NewInMemoryHolderStore() *InMemoryHolderStore {
	return &InMemoryHolderStore{holders: make(map[holderKey]Holder)}
}

func (s *InMemoryHolderStore) Save(_ context.Context, h *Holder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders[holderKey{h.ParticipantContextID, h.HolderID}] = *h
	return nil
}

func (s *InMemoryHolderStore) Find(_ context.Context, participantContextID, holderID string) (*Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holders[holderKey{participantContextID, holderID}]
	if !ok {
		return nil, holderNotFound(participantContextID, holderID)
	}
	return &h, nil
}

// PostgresHolderStore persists holders in the holders table.
type PostgresHolderStore struct {
	db *sql.DB
}

func NewPostgresHolderStore(db *sql.DB) *PostgresHolderStore {
	return &PostgresHolderStore{db: db}
}

func (s *PostgresHolderStore) Save(ctx context.Context, h *Holder) error {
	var exec interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		exec = tx
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO holders (participant_context_id, holder_id, did, storage_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (participant_context_id, holder_id)
		DO UPDATE SET did = EXCLUDED.did, storage_url = EXCLUDED.storage_url`,
		h.ParticipantContextID, h.HolderID, h.DID, h.StorageURL, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("save holder: %w", err)
	}
	return nil
}

func (s *PostgresHolderStore) Find(ctx context.Context, participantContextID, holderID string) (*Holder, error) {
	h := Holder{ParticipantContextID: participantContextID, HolderID: holderID}
	err := s.db.QueryRowContext(ctx, `
		SELECT did, storage_url, created_at FROM holders
		WHERE participant_context_id = $1 AND holder_id = $2`,
		participantContextID, holderID).Scan(&h.DID, &h.StorageURL, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, holderNotFound(participantContextID, holderID)
		}
		return nil, fmt.Errorf("find holder: %w", err)
	}
	return &h, nil
}

func holderNotFound(participantContextID, holderID string) error {
	return dErrors.New(dErrors.CodeNotFound,
		fmt.Sprintf("holder '%s' not registered with participant '%s'", holderID, participantContextID))
}

var (
	_ HolderStore = (*InMemoryHolderStore)(nil)
	_ HolderStore = (*PostgresHolderStore)(nil)
)
