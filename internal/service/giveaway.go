package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"

	"go.uber.org/zap"
)

// GiveawayService handles operator commands and participant joins
type GiveawayService struct {
	registry *registry.Registry
	dispatch *dispatcher
	logger   *zap.Logger
}

// NewGiveawayService creates a new giveaway service
func NewGiveawayService(reg *registry.Registry, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *GiveawayService {
	return &GiveawayService{
		registry: reg,
		dispatch: &dispatcher{notifier: notifier, logger: logger, metrics: m},
		logger:   logger,
	}
}

// Join registers a participant and refreshes the card on success
func (s *GiveawayService) Join(ctx context.Context, giveawayID string, userID int64) registry.JoinResult {
	result := s.registry.Join(giveawayID, userID)
	if result != registry.Joined {
		return result
	}

	if g, ok := s.registry.Get(giveawayID); ok {
		s.dispatch.refresh(ctx, g)
	}
	return result
}

// Roll resolves the giveaway waiting in chatID: one awaiting manual
// resolution first, else the most recent open one.
func (s *GiveawayService) Roll(ctx context.Context, chatID int64) (registry.Step, error) {
	target := s.rollTarget(chatID)
	if target == nil {
		return registry.Step{}, fmt.Errorf("chat %d: %w", chatID, domain.ErrNotFound)
	}

	step, err := s.registry.Roll(target.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyResolved) {
			s.logger.Info("Roll lost race", zap.String("giveaway_id", target.ID))
		}
		return registry.Step{}, err
	}

	s.dispatch.deliver(ctx, step)
	return step, nil
}

func (s *GiveawayService) rollTarget(chatID int64) *domain.Giveaway {
	if awaiting := s.registry.ListByHost(chatID, domain.StatusAwaitingManual); len(awaiting) > 0 {
		return awaiting[0]
	}
	if open := s.registry.ListActiveByHost(chatID); len(open) > 0 {
		return open[0]
	}
	return nil
}

// Reroll draws one extra winner for the latest resolved giveaway in chatID
func (s *GiveawayService) Reroll(ctx context.Context, chatID int64) (int64, error) {
	resolved := s.registry.ListByHost(chatID, domain.StatusResolved)
	if len(resolved) == 0 {
		return 0, fmt.Errorf("chat %d: %w", chatID, domain.ErrNotFound)
	}

	winner, g, err := s.registry.Reroll(resolved[0].ID)
	if err != nil {
		return 0, err
	}

	s.dispatch.report("announce", g, s.dispatch.notifier.Announce(ctx, g, []int64{winner}, true))
	return winner, nil
}

// CancelTarget returns the active giveaway in chatID awaiting cancel confirmation
func (s *GiveawayService) CancelTarget(chatID int64) (*domain.Giveaway, error) {
	active := s.registry.ListActiveByHost(chatID)
	if len(active) == 0 {
		return nil, fmt.Errorf("chat %d: %w", chatID, domain.ErrNotFound)
	}
	return active[0], nil
}

// ConfirmCancel cancels the giveaway and marks its card
func (s *GiveawayService) ConfirmCancel(ctx context.Context, giveawayID string) (*domain.Giveaway, error) {
	g, err := s.registry.Cancel(giveawayID)
	if err != nil {
		return nil, err
	}

	s.dispatch.report("mark_cancelled", g, s.dispatch.notifier.MarkCancelled(ctx, g))
	return g, nil
}

// SetHost renames the host of the active giveaway in chatID. Without one it
// stores name as the caller's default host; the returned giveaway is nil then.
func (s *GiveawayService) SetHost(ctx context.Context, chatID, userID int64, name string) (*domain.Giveaway, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	active := s.registry.ListActiveByHost(chatID)
	if len(active) == 0 {
		s.registry.SetDefaultHost(userID, name)
		return nil, nil
	}

	g, err := s.registry.SetHost(active[0].ID, name)
	if err != nil {
		return nil, err
	}

	s.dispatch.refresh(ctx, g)
	return g, nil
}

// AutoResolve reports the auto-resolve toggle
func (s *GiveawayService) AutoResolve() bool {
	return s.registry.AutoResolve()
}

// SetAutoResolve changes the auto-resolve toggle
func (s *GiveawayService) SetAutoResolve(enabled bool) {
	s.registry.SetAutoResolve(enabled)
}

// SetBanner stores the banner used for new cards and announcements
func (s *GiveawayService) SetBanner(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.ErrInvalidInput
	}
	s.registry.SetBanner(ref)
	return nil
}

// TrackDestination remembers a chat the bot is a member of
func (s *GiveawayService) TrackDestination(chatID int64, title string) {
	s.registry.TrackDestination(chatID, title)
}

// Destinations returns the known chats
func (s *GiveawayService) Destinations() map[int64]string {
	return s.registry.Destinations()
}
