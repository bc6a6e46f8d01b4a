// Package kvstore defines the key-value persistence backend shared by every
// identity-scoped store, together with in-memory and file-backed
// implementations. Values are JSON text; the backend is partitioned by key
// and knows nothing about identities.
package kvstore

import "context"

// Backend is the minimal persistence surface a store needs. Get reports
// ok=false for a key that has never been written; that is not an error.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
