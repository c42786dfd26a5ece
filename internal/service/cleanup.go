package service

import (
	"time"

	"giveawaybot/internal/registry"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

// CleanupService drops finished giveaways past the retention window
type CleanupService struct {
	registry  *registry.Registry
	clock     clock.PassiveClock
	retention time.Duration
	logger    *zap.Logger
}

// NewCleanupService creates a cleanup service. A zero retention keeps everything.
func NewCleanupService(reg *registry.Registry, clk clock.PassiveClock, retention time.Duration, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		registry:  reg,
		clock:     clk,
		retention: retention,
		logger:    logger,
	}
}

// CleanupOldData removes resolved and cancelled giveaways older than the retention
func (s *CleanupService) CleanupOldData() int {
	if s.retention <= 0 {
		return 0
	}

	cutoff := s.clock.Now().Add(-s.retention)
	removed := s.registry.Prune(cutoff)

	s.logger.Info("Cleanup completed",
		zap.Duration("retention", s.retention),
		zap.Int("removed", removed),
	)
	return removed
}
