// Package reservations is the append-only per-identity reservation log,
// written as a side effect of a successful messaging hand-off. Stored data
// carries an explicit schema version; pre-envelope and obsolete formats are
// migrated or discarded at load time.
package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"localvibe/internal/domain"
	"localvibe/internal/identity"
	"localvibe/internal/kvstore"
	"localvibe/internal/scoped"
)

const (
	baseName      = "reservations"
	schemaVersion = 1
)

// envelope is the persisted representation. Earlier releases stored a bare
// JSON array (migrated in place) and, before that, a numeric count string
// (discarded).
type envelope struct {
	SchemaVersion int                  `json:"schemaVersion"`
	Records       []domain.Reservation `json:"records"`
}

// Log reads and appends reservation records. Append is the only mutator;
// display ordering (e.g. most-recent-first) is the caller's concern.
type Log struct {
	scoped *scoped.Store
	logger *slog.Logger
}

// New creates a reservation log bound to the backend.
func New(backend kvstore.Backend, logger *slog.Logger) (*Log, error) {
	if backend == nil {
		return nil, errors.New("reservations: backend must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	sc, err := scoped.New(backend, baseName, logger)
	if err != nil {
		return nil, err
	}
	return &Log{scoped: sc, logger: logger}, nil
}

// List returns the persisted records for the identity in append order. Any
// unreadable or obsolete stored value is deleted and an empty list
// returned; List never fails the caller.
func (l *Log) List(ctx context.Context, id identity.Identity) []domain.Reservation {
	return l.load(ctx, id)
}

// Append pushes a record onto the identity's log and writes the whole list
// back. Best-effort: a failure is logged and must not fail the hand-off
// action it accompanies.
func (l *Log) Append(ctx context.Context, id identity.Identity, rec domain.Reservation) {
	records := append(l.load(ctx, id), rec)
	l.scoped.SaveBestEffort(ctx, id, envelope{SchemaVersion: schemaVersion, Records: records})
}

func (l *Log) load(ctx context.Context, id identity.Identity) []domain.Reservation {
	raw, ok, err := l.scoped.Raw(ctx, id)
	if err != nil {
		l.logger.Warn("failed to read reservations", "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err == nil && env.SchemaVersion >= 1 {
		return env.Records
	}

	// Pre-envelope releases stored the bare record array. Rewrite it under
	// the current schema so the sniffing never runs again for this key.
	var legacy []domain.Reservation
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil {
		l.scoped.SaveBestEffort(ctx, id, envelope{SchemaVersion: schemaVersion, Records: legacy})
		return legacy
	}

	// Obsolete numeric-count format or corrupt data: drop the key.
	l.logger.Warn("discarding unreadable reservation data", "key", l.scoped.Key(id))
	if err := l.scoped.Remove(ctx, id); err != nil {
		l.logger.Warn("failed to remove unreadable reservation data", "err", err)
	}
	return nil
}
