package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vcissuer/internal/credentials/models"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
)

// InMemoryStore keeps credential resources in a map. Reads and writes copy so
// callers never alias stored state.
type InMemoryStore struct {
	mu        sync.RWMutex
	resources map[string]*models.VerifiableCredentialResource
	now       func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		resources: make(map[string]*models.VerifiableCredentialResource),
		now:       time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, resource *models.VerifiableCredentialResource) error {
	if resource == nil {
		return fmt.Errorf("credential resource is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[resource.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	if s.activeListTaken(resource) {
		return fmt.Errorf("active status list exists for %s: %w", resource.ParticipantContextID, sentinel.ErrConflict)
	}
	now := s.now()
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = now
	}
	resource.UpdatedAt = now
	resource.Version = 1
	s.resources[resource.ID] = resource.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, resource *models.VerifiableCredentialResource) error {
	if resource == nil {
		return fmt.Errorf("credential resource is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.resources[resource.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Version != resource.Version {
		return fmt.Errorf("credential %s version %d, stored %d: %w", resource.ID, resource.Version, existing.Version, sentinel.ErrConflict)
	}
	if s.activeListTaken(resource) {
		return fmt.Errorf("active status list exists for %s: %w", resource.ParticipantContextID, sentinel.ErrConflict)
	}

	updated := resource.Clone()
	if updated.StatusList != nil && existing.StatusList != nil {
		updated.StatusList.CurrentIndex = existing.StatusList.CurrentIndex
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()
	updated.Version = existing.Version + 1
	s.resources[resource.ID] = updated

	resource.Version = updated.Version
	resource.UpdatedAt = updated.UpdatedAt
	if resource.StatusList != nil && updated.StatusList != nil {
		resource.StatusList.CurrentIndex = updated.StatusList.CurrentIndex
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.VerifiableCredentialResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) Query(_ context.Context, spec query.Spec) ([]*models.VerifiableCredentialResource, error) {
	s.mu.RLock()
	all := make([]*models.VerifiableCredentialResource, 0, len(s.resources))
	for _, r := range s.resources {
		all = append(all, r)
	}
	s.mu.RUnlock()

	if spec.SortBy == "" {
		spec.SortBy = FieldCreatedAt
	}
	matched, err := query.Apply(all, spec, accessor)
	if err != nil {
		return nil, err
	}
	out := make([]*models.VerifiableCredentialResource, len(matched))
	for i, r := range matched {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.StatusList != nil && r.StatusList.CurrentIndex > 0 {
		return fmt.Errorf("status list %s is referenced by issued credentials: %w", id, sentinel.ErrInvalidState)
	}
	delete(s.resources, id)
	return nil
}

func (s *InMemoryStore) IncrementStatusListIndex(_ context.Context, id string, expected int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok || r.StatusList == nil {
		return sentinel.ErrNotFound
	}
	sl := r.StatusList
	if sl.CurrentIndex != expected || sl.CurrentIndex >= sl.BitstringSize {
		return fmt.Errorf("status list %s index %d, expected %d: %w", id, sl.CurrentIndex, expected, sentinel.ErrConflict)
	}
	sl.CurrentIndex++
	r.UpdatedAt = s.now()
	return nil
}

// activeListTaken reports whether another resource already holds the active
// marker for resource's participant and purpose. Callers hold s.mu.
func (s *InMemoryStore) activeListTaken(resource *models.VerifiableCredentialResource) bool {
	if resource.StatusList == nil || !resource.StatusList.Active {
		return false
	}
	for id, other := range s.resources {
		if id == resource.ID || other.StatusList == nil || !other.StatusList.Active {
			continue
		}
		if other.ParticipantContextID == resource.ParticipantContextID &&
			other.StatusList.Purpose == resource.StatusList.Purpose {
			return true
		}
	}
	return false
}

var _ Store = (*InMemoryStore)(nil)
