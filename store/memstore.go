package store

import (
	"sync"

	"github.com/tidwall/btree"

	"github.com/openweb3-io/pkpkit/types"
)

// MemStore keeps bindings in an ordered in-memory tree. Nothing survives
// the process; it backs tests and ephemeral deployments that hold no
// local state on disk.
type MemStore struct {
	mu       sync.RWMutex
	bindings btree.Map[string, *types.Binding]
	order    []string
}

var _ Store = &MemStore{}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Get(id string) (*types.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	binding, ok := s.bindings.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return binding, nil
}

func (s *MemStore) Put(binding *types.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bindings.Get(binding.User.ID); ok {
		return ErrExists
	}
	s.bindings.Set(binding.User.ID, binding)
	s.order = append(s.order, binding.User.ID)
	return nil
}

func (s *MemStore) All() ([]*types.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Binding, 0, len(s.order))
	for _, id := range s.order {
		if binding, ok := s.bindings.Get(id); ok {
			out = append(out, binding)
		}
	}
	return out, nil
}

func (s *MemStore) Close() error {
	return nil
}
