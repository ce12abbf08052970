// Package vault provides the encrypted blob store that backs all persisted
// panel state. Records are opaque JSON blobs keyed by filename; callers never
// see ciphertext, and the store never interprets the JSON it holds.
package vault

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no blob exists under the requested key.
var ErrNotFound = errors.New("vault: not found")

// Vault reads and writes encrypted JSON blobs under filename keys. Keys may
// contain a single directory prefix (e.g. "users/alice-admin.json").
type Vault interface {
	// Load decrypts the blob under key into out. Returns ErrNotFound when
	// the key does not exist.
	Load(ctx context.Context, key string, out any) error

	// Save serializes v to JSON, encrypts it, and writes it under key,
	// replacing any existing blob.
	Save(ctx context.Context, key string, v any) error

	// Delete removes the blob under key. Returns ErrNotFound when the key
	// does not exist.
	Delete(ctx context.Context, key string) error

	// Rename moves the blob from oldKey to newKey without re-encrypting.
	// Returns ErrNotFound when oldKey does not exist.
	Rename(ctx context.Context, oldKey, newKey string) error

	// List returns the keys under the given directory prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
