package core

import (
	"context"
	"errors"
)

// History keeps every settled snapshot of the tracked stacks.
type History interface {
	// Append stores snapshot as the newest entry of its key.
	Append(ctx context.Context, snapshot StateSnapshot) error

	// Latest returns the most recent snapshot for key.
	Latest(ctx context.Context, key string) (StateSnapshot, error)

	// Version returns the newest snapshot for key with the given content version.
	Version(ctx context.Context, key, version string) (StateSnapshot, error)

	// ListVersions returns versions for key, newest first.
	ListVersions(ctx context.Context, key string) ([]string, error)

	// ListKeys returns all keys with at least one snapshot.
	ListKeys(ctx context.Context) ([]string, error)
}

var ErrNotFound = errors.New("snapshot not found")
