package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"vcissuer/internal/issuance/models"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
)

type lease struct {
	holder  string
	expires time.Time
}

// InMemoryProcessStore keeps processes and their leases in maps.
type InMemoryProcessStore struct {
	mu        sync.Mutex
	processes map[string]*models.Process
	leases    map[string]lease
	opts      processOptions
}

func NewInMemoryProcessStore(opts ...ProcessOption) *InMemoryProcessStore {
	return &InMemoryProcessStore{
		processes: make(map[string]*models.Process),
		leases:    make(map[string]lease),
		opts:      buildProcessOptions(opts),
	}
}

func (s *InMemoryProcessStore) Create(_ context.Context, p *models.Process) error {
	if p == nil {
		return fmt.Errorf("issuance process is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[p.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	now := s.opts.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.StateTimestamp.IsZero() {
		p.StateTimestamp = now
	}
	p.UpdatedAt = now
	s.processes[p.ID] = p.Clone()
	return nil
}

func (s *InMemoryProcessStore) Save(_ context.Context, p *models.Process) error {
	if p == nil {
		return fmt.Errorf("issuance process is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.leasedByOther(p.ID) {
		return fmt.Errorf("issuance process %s: %w", p.ID, sentinel.ErrLeased)
	}
	p.UpdatedAt = s.opts.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}
	s.processes[p.ID] = p.Clone()
	delete(s.leases, p.ID)
	return nil
}

func (s *InMemoryProcessStore) FindByID(_ context.Context, id string) (*models.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.processes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryProcessStore) Query(_ context.Context, spec query.Spec) ([]*models.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.SortBy == "" {
		spec.SortBy = FieldCreatedAt
	}
	all := make([]*models.Process, 0, len(s.processes))
	for _, p := range s.processes {
		all = append(all, p)
	}
	found, err := query.Apply(all, spec, processAccessor)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Process, len(found))
	for i, p := range found {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *InMemoryProcessStore) NextNotLeased(_ context.Context, limit int, states ...models.State) ([]*models.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	var eligible []*models.Process
	for id, p := range s.processes {
		if !slices.Contains(states, p.State) {
			continue
		}
		if l, ok := s.leases[id]; ok && l.expires.After(now) {
			continue
		}
		eligible = append(eligible, p)
	}
	slices.SortFunc(eligible, func(a, b *models.Process) int {
		return a.StateTimestamp.Compare(b.StateTimestamp)
	})
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}

	out := make([]*models.Process, len(eligible))
	for i, p := range eligible {
		s.leases[p.ID] = lease{holder: s.opts.lease.Holder, expires: now.Add(s.opts.lease.Duration)}
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *InMemoryProcessStore) BreakLease(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processes[id]; !ok {
		return sentinel.ErrNotFound
	}
	if s.leasedByOther(id) {
		return fmt.Errorf("issuance process %s: %w", id, sentinel.ErrLeased)
	}
	delete(s.leases, id)
	return nil
}

func (s *InMemoryProcessStore) leasedByOther(id string) bool {
	l, ok := s.leases[id]
	return ok && l.holder != s.opts.lease.Holder && l.expires.After(s.opts.now())
}
