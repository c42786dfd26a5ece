// Package registry owns every mutable piece of bot state: giveaway records,
// global settings and wizard sessions. All access goes through one lock;
// callers only ever see copies.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/lifecycle"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

const defaultSaveTimeout = 5 * time.Second

// JoinResult is the outcome of a join attempt
type JoinResult int

const (
	Joined JoinResult = iota
	AlreadyJoined
	NotOpen
	NotFound
)

func (r JoinResult) String() string {
	switch r {
	case Joined:
		return "joined"
	case AlreadyJoined:
		return "already_joined"
	case NotOpen:
		return "not_open"
	default:
		return "not_found"
	}
}

// Options configures a Registry. Only Store is required for durability;
// everything else has a default.
type Options struct {
	Store       repository.SnapshotStore
	Engine      *lifecycle.Engine
	Clock       clock.PassiveClock
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	SaveTimeout time.Duration
	// Strict panics on internal invariant violations instead of logging them
	Strict bool
	// NewID overrides identifier generation
	NewID func() (string, error)
}

// Registry is the single owner of giveaway state
type Registry struct {
	mu        sync.RWMutex
	giveaways map[string]*domain.Giveaway
	settings  domain.Settings
	sessions  map[int64]*domain.WizardSession
	version   uint64

	saveMu       sync.Mutex
	savedVersion uint64

	store       repository.SnapshotStore
	engine      *lifecycle.Engine
	clock       clock.PassiveClock
	logger      *zap.Logger
	metrics     *metrics.Metrics
	saveTimeout time.Duration
	strict      bool
	newID       func() (string, error)
}

// New creates an empty registry
func New(opts Options) *Registry {
	r := &Registry{
		giveaways:   map[string]*domain.Giveaway{},
		settings:    domain.DefaultSettings(),
		sessions:    map[int64]*domain.WizardSession{},
		store:       opts.Store,
		engine:      opts.Engine,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		saveTimeout: opts.SaveTimeout,
		strict:      opts.Strict,
		newID:       opts.NewID,
	}
	if r.engine == nil {
		r.engine = lifecycle.NewEngine(nil)
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.metrics == nil {
		r.metrics = metrics.NewNop()
	}
	if r.saveTimeout <= 0 {
		r.saveTimeout = defaultSaveTimeout
	}
	if r.newID == nil {
		r.newID = newUUID
	}
	return r
}

// newUUID returns a time-ordered identifier
func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewID generates a fresh giveaway identifier
func (r *Registry) NewID() (string, error) {
	return r.newID()
}

// Load replaces the in-memory state with the stored snapshot.
// It must run before any request handling or reconciliation starts.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	snap, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	r.mu.Lock()
	r.restoreLocked(snap)
	r.version++
	version := r.version
	r.mu.Unlock()

	r.saveMu.Lock()
	r.savedVersion = version
	r.saveMu.Unlock()

	r.logger.Info("Registry loaded",
		zap.Int("giveaways", len(snap.Giveaways)),
		zap.Int("operators", len(snap.Settings.Operators)),
	)
	return nil
}

// Snapshot exports a deep copy of the durable state
func (r *Registry) Snapshot() *domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Restore fully replaces the durable state. Wizard sessions are dropped.
func (r *Registry) Restore(snap *domain.Snapshot) {
	r.mu.Lock()
	r.restoreLocked(snap)
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
}

func (r *Registry) restoreLocked(snap *domain.Snapshot) {
	if snap == nil {
		snap = domain.NewSnapshot()
	}
	snap.Normalize()

	r.settings = snap.Settings.Clone()
	r.giveaways = make(map[string]*domain.Giveaway, len(snap.Giveaways))
	for id, g := range snap.Giveaways {
		if !g.Status.Valid() {
			r.violation(fmt.Errorf("giveaway %s has unknown status %q: %w", id, g.Status, domain.ErrInvalidTransition))
			continue
		}
		r.giveaways[id] = g.Clone()
	}
	r.sessions = map[int64]*domain.WizardSession{}
	r.refreshGauge()
}

func (r *Registry) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Settings:  r.settings.Clone(),
		Giveaways: make(map[string]*domain.Giveaway, len(r.giveaways)),
	}
	for id, g := range r.giveaways {
		snap.Giveaways[id] = g.Clone()
	}
	return snap
}

// Create inserts a new open giveaway and returns its identifier
func (r *Registry) Create(g *domain.Giveaway) (string, error) {
	if g == nil {
		return "", domain.ErrInvalidGiveaway
	}
	if err := g.Validate(); err != nil {
		return "", err
	}

	rec := g.Clone()
	if rec.ID == "" {
		id, err := r.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		rec.ID = id
	}
	rec.Status = domain.StatusOpen
	rec.Winners = nil
	rec.ResolvedAt = nil
	if rec.Participants == nil {
		rec.Participants = domain.IDSet{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock.Now().UTC()
	}

	r.mu.Lock()
	if _, exists := r.giveaways[rec.ID]; exists {
		r.mu.Unlock()
		return "", fmt.Errorf("giveaway %s: %w", rec.ID, domain.ErrDuplicateID)
	}
	r.giveaways[rec.ID] = rec
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)

	r.logger.Info("Giveaway created",
		zap.String("giveaway_id", rec.ID),
		zap.Int64("chat_id", rec.ChatID),
		zap.Time("ends_at", rec.EndsAt),
	)
	return rec.ID, nil
}

// Get returns a copy of the giveaway
func (r *Registry) Get(id string) (*domain.Giveaway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.giveaways[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// Join registers a participant while the giveaway is open
func (r *Registry) Join(id string, userID int64) JoinResult {
	r.mu.Lock()
	g, ok := r.giveaways[id]
	if !ok {
		r.mu.Unlock()
		return NotFound
	}
	if g.Status != domain.StatusOpen {
		r.mu.Unlock()
		return NotOpen
	}
	if g.Participants.Has(userID) {
		r.mu.Unlock()
		return AlreadyJoined
	}
	g.Participants[userID] = struct{}{}
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.metrics.Joins.Inc()
	r.persist(s, v)
	return Joined
}

// Transition moves a giveaway along an allowed lifecycle edge
func (r *Registry) Transition(id string, next domain.Status) error {
	r.mu.Lock()
	g, ok := r.giveaways[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("giveaway %s: %w", id, domain.ErrNotFound)
	}
	if err := r.setStatusLocked(g, next); err != nil {
		r.mu.Unlock()
		return err
	}
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return nil
}

// SetHost changes the display host of an open giveaway
func (r *Registry) SetHost(id, host string) (*domain.Giveaway, error) {
	r.mu.Lock()
	g, ok := r.giveaways[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("giveaway %s: %w", id, domain.ErrNotFound)
	}
	if g.Status != domain.StatusOpen {
		r.mu.Unlock()
		return nil, fmt.Errorf("giveaway %s: %w", id, domain.ErrNotOpen)
	}
	g.Host = host
	out := g.Clone()
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return out, nil
}

// SetMessageID records the display message of a giveaway
func (r *Registry) SetMessageID(id string, messageID int) error {
	r.mu.Lock()
	g, ok := r.giveaways[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("giveaway %s: %w", id, domain.ErrNotFound)
	}
	g.MessageID = messageID
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return nil
}

// ListByHost returns giveaways posted to chatID, most recent first.
// With no statuses every record matches.
func (r *Registry) ListByHost(chatID int64, statuses ...domain.Status) []*domain.Giveaway {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Giveaway
	for _, g := range r.giveaways {
		if g.ChatID != chatID || !matchStatus(g.Status, statuses) {
			continue
		}
		out = append(out, g.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ListActiveByHost returns open giveaways posted to chatID, most recent first
func (r *Registry) ListActiveByHost(chatID int64) []*domain.Giveaway {
	return r.ListByHost(chatID, domain.StatusOpen)
}

// OpenIDs returns the identifiers of all open giveaways
func (r *Registry) OpenIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.giveaways))
	for id, g := range r.giveaways {
		if g.Status == domain.StatusOpen {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Prune deletes terminal giveaways that ended before cutoff and returns how
// many were removed. Records without ResolvedAt are aged by EndsAt.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	removed := 0
	for id, g := range r.giveaways {
		if !g.Status.Terminal() {
			continue
		}
		ended := g.EndsAt
		if g.ResolvedAt != nil {
			ended = *g.ResolvedAt
		}
		if ended.Before(cutoff) {
			delete(r.giveaways, id)
			removed++
		}
	}
	if removed == 0 {
		r.mu.Unlock()
		return 0
	}
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return removed
}

func matchStatus(s domain.Status, statuses []domain.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if s == want {
			return true
		}
	}
	return false
}

// setStatusLocked applies a status change, stamping ResolvedAt on terminal states
func (r *Registry) setStatusLocked(g *domain.Giveaway, next domain.Status) error {
	if !g.Status.CanTransitionTo(next) {
		return fmt.Errorf("giveaway %s: %s -> %s: %w", g.ID, g.Status, next, domain.ErrInvalidTransition)
	}
	g.Status = next
	if next.Terminal() {
		now := r.clock.Now().UTC()
		g.ResolvedAt = &now
	}
	return nil
}

// violation reports a broken internal invariant
func (r *Registry) violation(err error) {
	r.logger.Error("Invariant violation", zap.Error(err))
	if r.strict {
		panic(err)
	}
}

func (r *Registry) refreshGauge() {
	open := 0
	for _, g := range r.giveaways {
		if g.Status == domain.StatusOpen {
			open++
		}
	}
	r.metrics.Open.Set(float64(open))
}
