package service

import (
	"context"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/lifecycle"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"

	"go.uber.org/zap"
)

// Notifier delivers giveaway updates to chats. Every call is best effort:
// errors are logged and counted by the caller, never retried.
type Notifier interface {
	// Publish posts the giveaway card and returns its message id
	Publish(ctx context.Context, g *domain.Giveaway) (int, error)
	Announce(ctx context.Context, g *domain.Giveaway, winners []int64, reroll bool) error
	Refresh(ctx context.Context, g *domain.Giveaway) error
	NotifyExpired(ctx context.Context, g *domain.Giveaway) error
	NotifyCancelled(ctx context.Context, g *domain.Giveaway, reason error) error
	MarkCancelled(ctx context.Context, g *domain.Giveaway) error
}

// dispatcher turns registry steps into notifications and swallows failures
type dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// deliver sends the notification a step calls for
func (d *dispatcher) deliver(ctx context.Context, step registry.Step) {
	g := step.Giveaway
	if g == nil {
		return
	}

	switch {
	case step.Action == lifecycle.EnterAwaitingManual:
		d.report("expired", g, d.notifier.NotifyExpired(ctx, g))
	case step.Action == lifecycle.NoAction:
	case step.Outcome.Cancelled():
		d.report("cancelled", g, d.notifier.NotifyCancelled(ctx, g, step.Outcome.Reason))
	case step.Outcome.Status == domain.StatusResolved:
		d.report("announce", g, d.notifier.Announce(ctx, g, step.Outcome.Winners, false))
	}
}

func (d *dispatcher) refresh(ctx context.Context, g *domain.Giveaway) {
	d.report("refresh", g, d.notifier.Refresh(ctx, g))
}

func (d *dispatcher) report(kind string, g *domain.Giveaway, err error) {
	if err == nil {
		return
	}
	d.metrics.NotificationFailed(kind)
	d.logger.Warn("Notification failed",
		zap.String("kind", kind),
		zap.String("giveaway_id", g.ID),
		zap.Int64("chat_id", g.ChatID),
		zap.Error(err),
	)
}
