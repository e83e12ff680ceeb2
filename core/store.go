package core

import (
	"context"
	"errors"
)

// ErrStoreUnavailable means the backing store could not be reached. Depending
// on configuration the engine either fails the turn or degrades to default
// in-memory values for the read path.
var ErrStoreUnavailable = errors.New("profile store unavailable")

// ErrProfileNotFound is returned by Update for an unknown user id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists per-user profiles keyed by the external user id.
//
// GetOrCreate must be idempotent under concurrent first contact: duplicate
// insert attempts for the same id must never produce two profiles. Backends
// enforce this with a uniqueness constraint, not the caller.
type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, patch ProfilePatch) (*Profile, error)
	Close() error
}
