package service

import (
	"context"
	"fmt"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

// WizardService drives the giveaway creation form
type WizardService struct {
	registry *registry.Registry
	notifier Notifier
	dispatch *dispatcher
	clock    clock.PassiveClock
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewWizardService creates a new wizard service
func NewWizardService(reg *registry.Registry, notifier Notifier, clk clock.PassiveClock, m *metrics.Metrics, logger *zap.Logger) *WizardService {
	return &WizardService{
		registry: reg,
		notifier: notifier,
		dispatch: &dispatcher{notifier: notifier, logger: logger, metrics: m},
		clock:    clk,
		metrics:  m,
		logger:   logger,
	}
}

// Start opens a new session, replacing any session in progress
func (s *WizardService) Start(creatorID int64, fallbackHost string) *domain.WizardSession {
	return s.registry.StartWizard(creatorID, fallbackHost)
}

// Input feeds one answer to the creator's session
func (s *WizardService) Input(creatorID int64, text string) (*domain.WizardSession, error) {
	return s.registry.WizardInput(creatorID, text)
}

// Active reports whether the creator has a session in progress
func (s *WizardService) Active(creatorID int64) bool {
	_, ok := s.registry.Wizard(creatorID)
	return ok
}

// Abort drops the creator's session
func (s *WizardService) Abort(creatorID int64) bool {
	return s.registry.EndWizard(creatorID)
}

// Destinations returns the chats a giveaway can be posted to
func (s *WizardService) Destinations() map[int64]string {
	return s.registry.Destinations()
}

// Finish posts the giveaway built from the creator's session to chatID and
// registers it. When posting fails the session is kept so the creator can
// pick another chat.
func (s *WizardService) Finish(ctx context.Context, creatorID, chatID int64) (*domain.Giveaway, error) {
	session, ok := s.registry.Wizard(creatorID)
	if !ok {
		return nil, domain.ErrNoSession
	}
	if !session.Ready {
		return nil, domain.ErrWizardIncomplete
	}
	if _, known := s.registry.Destinations()[chatID]; !known {
		return nil, fmt.Errorf("chat %d: %w", chatID, domain.ErrUnknownDestination)
	}

	id, err := s.registry.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	g, err := session.Build(id, chatID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	messageID, err := s.notifier.Publish(ctx, g)
	if err != nil {
		s.metrics.NotificationFailed("publish")
		s.logger.Warn("Failed to publish giveaway",
			zap.String("giveaway_id", id),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrNotification, err)
	}
	g.MessageID = messageID

	if _, err := s.registry.FinishWizard(creatorID, g); err != nil {
		// The card is live but unregistered, so mark it cancelled.
		s.logger.Warn("Failed to register published giveaway",
			zap.String("giveaway_id", id),
			zap.Int64("creator_id", creatorID),
			zap.Error(err),
		)
		s.dispatch.report("mark_cancelled", g, s.notifier.MarkCancelled(ctx, g))
		return nil, err
	}

	s.logger.Info("Giveaway published",
		zap.String("giveaway_id", id),
		zap.Int64("chat_id", chatID),
		zap.Int64("creator_id", creatorID),
	)
	return g, nil
}
