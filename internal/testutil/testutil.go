package testutil

import (
	"context"
	"sync"
	"time"

	"giveawaybot/internal/domain"

	"go.uber.org/zap"
)

// Epoch is the fixed start time used by fake clocks in tests
var Epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestGiveaway creates an open giveaway in chatID ending after d
func NewTestGiveaway(id string, chatID int64, winners, minEntries int, d time.Duration) *domain.Giveaway {
	return &domain.Giveaway{
		ID:           id,
		ChatID:       chatID,
		MessageID:    100,
		Title:        "Test giveaway",
		Prize:        "Prize",
		Conditions:   "None",
		CreatorID:    1,
		WinnersCount: winners,
		MinEntries:   minEntries,
		EndsAt:       Epoch.Add(d),
		Participants: domain.IDSet{},
		Status:       domain.StatusOpen,
		Host:         "Host",
		CreatedAt:    Epoch,
	}
}

// MemoryStore is an in-memory repository.SnapshotStore that records every save
type MemoryStore struct {
	mu    sync.Mutex
	snap  *domain.Snapshot
	saves []*domain.Snapshot
	err   error
}

// NewMemoryStore creates a store preloaded with snap; nil means empty
func NewMemoryStore(snap *domain.Snapshot) *MemoryStore {
	return &MemoryStore{snap: snap}
}

func (s *MemoryStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil {
		return domain.NewSnapshot(), nil
	}
	return cloneSnapshot(s.snap), nil
}

func (s *MemoryStore) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.snap = cloneSnapshot(snapshot)
	s.saves = append(s.saves, s.snap)
	return nil
}

// FailWith makes subsequent saves return err; nil restores normal behavior
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Saved returns the last stored snapshot
func (s *MemoryStore) Saved() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil
	}
	return cloneSnapshot(s.snap)
}

// SaveCount returns the number of successful saves
func (s *MemoryStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func cloneSnapshot(snap *domain.Snapshot) *domain.Snapshot {
	out := &domain.Snapshot{
		Settings:  snap.Settings.Clone(),
		Giveaways: make(map[string]*domain.Giveaway, len(snap.Giveaways)),
	}
	for id, g := range snap.Giveaways {
		out.Giveaways[id] = g.Clone()
	}
	return out
}
