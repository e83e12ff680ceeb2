// Package memory holds profiles in process memory. Used by tests and as the
// "memory" store backend for local development; conversational context is
// lost on restart and not shared across instances.
package memory

import (
	"context"
	"sync"

	"github.com/eigolab/kaiwa/core"
)

type Store struct {
	mu       sync.Mutex
	profiles map[string]*core.Profile
}

func New() *Store {
	return &Store{profiles: make(map[string]*core.Profile)}
}

func (s *Store) GetOrCreate(_ context.Context, userID string) (*core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = core.NewProfile(userID)
		s.profiles[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (s *Store) Update(_ context.Context, userID string, patch core.ProfilePatch) (*core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	p.Apply(patch)
	cp := *p
	return &cp, nil
}

func (s *Store) Close() error { return nil }
