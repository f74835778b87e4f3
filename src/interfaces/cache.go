package interfaces

import (
	"context"

	"mse-observer/src/models"
)

// -----------------------------------------------------------------------------
// ISnapshotCache holds the last accepted snapshot.
// -----------------------------------------------------------------------------

type ISnapshotCache interface {

	// Init prepares the cache; it must be called before use.
	Init(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Get returns the cached snapshot and whether one exists.
	Get(ctx context.Context) (models.MSnapshot, bool)

	// -----------------------------------------------------------------------------

	// Set replaces the cached snapshot.
	Set(ctx context.Context, snapshot models.MSnapshot) error

	// -----------------------------------------------------------------------------

	// Clear drops the cached snapshot.
	Clear(ctx context.Context) error
}
