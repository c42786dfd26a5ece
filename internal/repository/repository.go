package repository

import (
	"context"

	"giveawaybot/internal/domain"
)

// SnapshotStore persists the full registry state.
// Load on an empty store returns a fresh snapshot and no error.
type SnapshotStore interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snapshot *domain.Snapshot) error
}
