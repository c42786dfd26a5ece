package service

import (
	"context"
	"errors"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

// ReconcileConfig sets the loop cadences
type ReconcileConfig struct {
	PollInterval    time.Duration
	RefreshInterval time.Duration
	// RefreshPacing is the minimum gap between two card edits; zero disables pacing
	RefreshPacing time.Duration
}

// ReconcileService advances expired giveaways and refreshes open cards
type ReconcileService struct {
	registry *registry.Registry
	dispatch *dispatcher
	clock    clock.WithTicker
	cfg      ReconcileConfig
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger

	lastRefresh  time.Time
	refreshQueue []string
}

// NewReconcileService creates the reconciliation loop
func NewReconcileService(reg *registry.Registry, notifier Notifier, clk clock.WithTicker, cfg ReconcileConfig, m *metrics.Metrics, logger *zap.Logger) *ReconcileService {
	limit := rate.Inf
	if cfg.RefreshPacing > 0 {
		limit = rate.Every(cfg.RefreshPacing)
	}

	return &ReconcileService{
		registry: reg,
		dispatch: &dispatcher{notifier: notifier, logger: logger, metrics: m},
		clock:    clk,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		metrics:  m,
		logger:   logger,
	}
}

// Run ticks every PollInterval until ctx is done
func (s *ReconcileService) Run(ctx context.Context) error {
	s.logger.Info("Reconciliation loop started",
		zap.Duration("poll_interval", s.cfg.PollInterval),
		zap.Duration("refresh_interval", s.cfg.RefreshInterval),
	)

	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.Tick(ctx, s.clock.Now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reconciliation loop stopped")
			return nil
		case now := <-ticker.C():
			s.Tick(ctx, now)
		}
	}
}

// Tick runs one reconciliation pass. A failure on one giveaway never stops
// the pass for the others.
func (s *ReconcileService) Tick(ctx context.Context, now time.Time) {
	for _, id := range s.registry.OpenIDs() {
		if ctx.Err() != nil {
			return
		}

		step, err := s.registry.Reconcile(id, now)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error("Failed to reconcile giveaway", zap.String("giveaway_id", id), zap.Error(err))
			}
			continue
		}
		s.dispatch.deliver(ctx, step)
	}
	s.metrics.ReconcileTicks.Inc()

	if len(s.refreshQueue) == 0 && (s.lastRefresh.IsZero() || now.Sub(s.lastRefresh) >= s.cfg.RefreshInterval) {
		s.refreshQueue = s.registry.OpenIDs()
		s.lastRefresh = now
	}
	if len(s.refreshQueue) > 0 {
		s.refreshOpen(ctx)
	}
}

// refreshOpen edits queued cards, paced by the limiter. A pass never runs
// longer than one poll interval; cards left over are edited on the next tick.
func (s *ReconcileService) refreshOpen(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, s.cfg.PollInterval)
	defer cancel()

	for len(s.refreshQueue) > 0 {
		if err := s.limiter.Wait(passCtx); err != nil {
			return
		}

		id := s.refreshQueue[0]
		s.refreshQueue = s.refreshQueue[1:]

		g, ok := s.registry.Get(id)
		if !ok || g.Status != domain.StatusOpen {
			continue
		}
		s.dispatch.refresh(ctx, g)
	}
}
