package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vcissuer/internal/issuance/models"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
)

// InMemoryDefinitionStore keeps credential definitions in a map.
type InMemoryDefinitionStore struct {
	mu          sync.RWMutex
	definitions map[string]*models.CredentialDefinition
	now         func() time.Time
}

func NewInMemoryDefinitionStore() *InMemoryDefinitionStore {
	return &InMemoryDefinitionStore{
		definitions: make(map[string]*models.CredentialDefinition),
		now:         time.Now,
	}
}

func (s *InMemoryDefinitionStore) Create(_ context.Context, d *models.CredentialDefinition) error {
	if d == nil {
		return fmt.Errorf("credential definition is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[d.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	if s.typeTaken(d) {
		return fmt.Errorf("credential type %s of %s: %w", d.CredentialType, d.ParticipantContextID, sentinel.ErrConflict)
	}
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	s.definitions[d.ID] = d.Clone()
	return nil
}

func (s *InMemoryDefinitionStore) Update(_ context.Context, d *models.CredentialDefinition) error {
	if d == nil {
		return fmt.Errorf("credential definition is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.definitions[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.typeTaken(d) {
		return fmt.Errorf("credential type %s of %s: %w", d.CredentialType, d.ParticipantContextID, sentinel.ErrConflict)
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = s.now()
	s.definitions[d.ID] = d.Clone()
	return nil
}

func (s *InMemoryDefinitionStore) FindByID(_ context.Context, id string) (*models.CredentialDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.definitions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *InMemoryDefinitionStore) Query(_ context.Context, spec query.Spec) ([]*models.CredentialDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if spec.SortBy == "" {
		spec.SortBy = FieldCreatedAt
	}
	all := make([]*models.CredentialDefinition, 0, len(s.definitions))
	for _, d := range s.definitions {
		all = append(all, d)
	}
	found, err := query.Apply(all, spec, definitionAccessor)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CredentialDefinition, len(found))
	for i, d := range found {
		out[i] = d.Clone()
	}
	return out, nil
}

func (s *InMemoryDefinitionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.definitions, id)
	return nil
}

func (s *InMemoryDefinitionStore) typeTaken(d *models.CredentialDefinition) bool {
	for id, other := range s.definitions {
		if id != d.ID && other.ParticipantContextID == d.ParticipantContextID && other.CredentialType == d.CredentialType {
			return true
		}
	}
	return false
}
