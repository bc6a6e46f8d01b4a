// Package scoped implements the identity-scoped persistence pattern shared
// by the favorites, transcript, and reservation stores: a base name bound to
// a key-value backend, with JSON load/save against the key derived from the
// active identity.
package scoped

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"localvibe/internal/identity"
	"localvibe/internal/kvstore"
)

// Store resolves per-identity keys for one base name and moves JSON values
// in and out of the backend. It holds no identity itself; every call takes
// the active identity explicitly.
type Store struct {
	backend  kvstore.Backend
	base     string
	guestKey string
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithGuestKey overrides the guest key. The transcript store uses this to
// keep reading the historical unsuffixed "chat_messages" key.
func WithGuestKey(key string) Option {
	return func(s *Store) {
		s.guestKey = key
	}
}

// New creates a Store for the given base name. A nil backend or empty base
// is a wiring bug and fails fast.
func New(backend kvstore.Backend, base string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("scoped: backend must not be nil")
	}
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("scoped: base name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, base: base, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the storage key for the given identity.
func (s *Store) Key(id identity.Identity) string {
	if id.IsGuest() && s.guestKey != "" {
		return s.guestKey
	}
	return id.StorageKey(s.base)
}

// Load decodes the stored value for the identity into v. It reports
// ok=false when the key has never been written. A decode failure is
// returned so callers can choose their own safe default.
func (s *Store) Load(ctx context.Context, id identity.Identity, v any) (bool, error) {
	key := s.Key(id)
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("scoped: load %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("scoped: decode %q: %w", key, err)
	}
	return true, nil
}

// Raw returns the stored text for the identity without decoding it.
func (s *Store) Raw(ctx context.Context, id identity.Identity) (string, bool, error) {
	key := s.Key(id)
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("scoped: load %q: %w", key, err)
	}
	return raw, ok, nil
}

// Save encodes v and writes it under the identity's key.
func (s *Store) Save(ctx context.Context, id identity.Identity, v any) error {
	key := s.Key(id)
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("scoped: encode %q: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("scoped: save %q: %w", key, err)
	}
	return nil
}

// SaveBestEffort persists v and logs instead of returning on failure. The
// in-memory state stays authoritative for the session either way.
func (s *Store) SaveBestEffort(ctx context.Context, id identity.Identity, v any) {
	if err := s.Save(ctx, id, v); err != nil {
		s.logger.Warn("best-effort persist failed", "key", s.Key(id), "err", err)
	}
}

// Remove deletes the identity's key.
func (s *Store) Remove(ctx context.Context, id identity.Identity) error {
	key := s.Key(id)
	if err := s.backend.Remove(ctx, key); err != nil {
		return fmt.Errorf("scoped: remove %q: %w", key, err)
	}
	return nil
}
