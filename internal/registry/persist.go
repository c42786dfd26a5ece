package registry

import (
	"context"
	"fmt"

	"giveawaybot/internal/domain"

	"go.uber.org/zap"
)

// commitLocked bumps the state version and copies the durable state out.
// The caller holds mu for writing and calls persist after releasing it.
func (r *Registry) commitLocked() (*domain.Snapshot, uint64) {
	r.version++
	r.refreshGauge()
	return r.snapshotLocked(), r.version
}

// persist writes a committed snapshot unless a newer one is already stored.
// Failures are logged and counted; the next mutation retries with full state.
func (r *Registry) persist(snap *domain.Snapshot, version uint64) {
	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.saveTimeout)
	defer cancel()

	if err := r.save(ctx, snap, version); err != nil {
		r.metrics.PersistenceFailures.Inc()
		r.logger.Error("Failed to save snapshot",
			zap.Uint64("version", version),
			zap.Error(err),
		)
	}
}

func (r *Registry) save(ctx context.Context, snap *domain.Snapshot, version uint64) error {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if version <= r.savedVersion {
		return nil
	}
	if err := r.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	r.savedVersion = version
	return nil
}

// Flush writes the current state if it has not been stored yet.
// Called once on shutdown.
func (r *Registry) Flush(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	r.mu.RLock()
	snap, version := r.snapshotLocked(), r.version
	r.mu.RUnlock()

	if err := r.save(ctx, snap, version); err != nil {
		r.metrics.PersistenceFailures.Inc()
		return err
	}
	return nil
}
