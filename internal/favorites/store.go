// Package favorites holds the per-identity set of favorited venue ids.
// Favorites are non-critical: a load failure yields an empty set and a
// persist failure is logged, with the in-memory set staying authoritative
// for the session.
package favorites

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"localvibe/internal/identity"
	"localvibe/internal/kvstore"
	"localvibe/internal/scoped"
)

const baseName = "favorites"

// Store is an insertion-ordered set of location ids, reloaded wholesale on
// every identity change and persisted as a full snapshot on every toggle.
type Store struct {
	scoped *scoped.Store
	logger *slog.Logger

	mu  sync.Mutex
	id  identity.Identity
	ids []string
}

// New creates a favorites store bound to the backend.
func New(backend kvstore.Backend, logger *slog.Logger) (*Store, error) {
	if backend == nil {
		return nil, errors.New("favorites: backend must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	sc, err := scoped.New(backend, baseName, logger)
	if err != nil {
		return nil, err
	}
	return &Store{scoped: sc, logger: logger}, nil
}

// Load replaces the in-memory set with whatever is persisted for the given
// identity. Missing or unreadable data yields an empty set; the identity
// switch itself never fails.
func (s *Store) Load(ctx context.Context, id identity.Identity) {
	var ids []string
	if _, err := s.scoped.Load(ctx, id, &ids); err != nil {
		s.logger.Warn("failed to load favorites", "err", err)
		ids = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.ids = ids
}

// IsFavorite reports membership against the current in-memory set.
func (s *Store) IsFavorite(locationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.ids {
		if id == locationID {
			return true
		}
	}
	return false
}

// IDs returns a copy of the set in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Toggle flips membership for the id, updates the in-memory set before
// returning, and persists the full snapshot best-effort. It returns the new
// membership state. Each call reads the current set under the lock, so
// rapid sequential toggles never act on a stale snapshot.
func (s *Store) Toggle(ctx context.Context, locationID string) bool {
	s.mu.Lock()
	found := false
	next := s.ids[:0:0]
	for _, id := range s.ids {
		if id == locationID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, locationID)
	}
	s.ids = next
	id := s.id
	snapshot := make([]string, len(next))
	copy(snapshot, next)
	s.mu.Unlock()

	s.scoped.SaveBestEffort(ctx, id, snapshot)
	return !found
}
