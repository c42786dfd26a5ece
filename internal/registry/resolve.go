package registry

import (
	"fmt"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/lifecycle"

	"go.uber.org/zap"
)

// Step is the result of applying one lifecycle action to a giveaway
type Step struct {
	Action  lifecycle.Action
	Outcome lifecycle.Outcome
	// Giveaway is a copy of the record after the step
	Giveaway *domain.Giveaway
}

// Reconcile decides and applies the due action for one giveaway.
// Decision, draw and status change happen under a single lock hold, so a
// concurrent Roll cannot resolve the same record twice.
func (r *Registry) Reconcile(id string, now time.Time) (Step, error) {
	r.mu.Lock()
	g, ok := r.giveaways[id]
	if !ok {
		r.mu.Unlock()
		return Step{}, fmt.Errorf("giveaway %s: %w", id, domain.ErrNotFound)
	}

	step := Step{Action: r.engine.Decide(g, now, r.settings.AutoResolve)}

	switch step.Action {
	case lifecycle.NoAction:
		step.Giveaway = g.Clone()
		r.mu.Unlock()
		return step, nil

	case lifecycle.ResolveNow:
		outcome, err := r.resolveLocked(g)
		if err != nil {
			r.mu.Unlock()
			return Step{}, err
		}
		step.Outcome = outcome

	case lifecycle.EnterAwaitingManual:
		if err := r.setStatusLocked(g, domain.StatusAwaitingManual); err != nil {
			r.violation(err)
			r.mu.Unlock()
			return Step{}, err
		}
		step.Outcome = lifecycle.Outcome{Status: domain.StatusAwaitingManual}
		r.metrics.Resolution("awaiting_manual")
	}

	step.Giveaway = g.Clone()
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)

	r.logger.Info("Giveaway reconciled",
		zap.String("giveaway_id", id),
		zap.Stringer("action", step.Action),
		zap.String("status", string(step.Giveaway.Status)),
	)
	return step, nil
}

// Roll resolves an open or awaiting giveaway immediately.
// A record that is already terminal yields ErrAlreadyResolved.
func (r *Registry) Roll(id string) (Step, error) {
	r.mu.Lock()
	g, ok := r.giveaways[id]
	if !ok {
		r.mu.Unlock()
		return Step{}, fmt.Errorf("giveaway %s: %w", id, domain.ErrNotFound)
	}

	outcome, err := r.resolveLocked(g)
	if err != nil {
		r.mu.Unlock()
		return Step{}, err
	}

	step := Step{
		Action:   lifecycle.ResolveNow,
		Outcome:  outcome,
		Giveaway: g.Clone(),
	}
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)

	r.logger.Info("Giveaway rolled",
		zap.String("giveaway_id", id),
		zap.String("status", string(outcome.Status)),
		zap.Int("winners", len(outcome.Winners)),
	)
	return step, nil
}

func (r *Registry) resolveLocked(g *domain.Giveaway) (lifecycle.Outcome, error) {
	outcome, err := r.engine.Resolve(g)
	if err != nil {
		return lifecycle.Outcome{}, err
	}

	if err := r.setStatusLocked(g, outcome.Status); err != nil {
		r.violation(err)
		return lifecycle.Outcome{}, err
	}
	if len(outcome.Winners) > 0 {
		g.Winners = append([]int64(nil), outcome.Winners...)
	}

	r.metrics.Resolution(string(outcome.Status))
	return outcome, nil
}

// Reroll draws one extra winner from a resolved giveaway without changing it
func (r *Registry) Reroll(id string) (int64, *domain.Giveaway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.giveaways[id]
	if !ok {
		return 0, nil, fmt.Errorf("giveaway %s: %w", id, domain.ErrNotFound)
	}

	winner, err := r.engine.Reroll(g)
	if err != nil {
		return 0, nil, err
	}
	return winner, g.Clone(), nil
}

// Cancel moves an open giveaway to cancelled on operator request
func (r *Registry) Cancel(id string) (*domain.Giveaway, error) {
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
	if err := r.setStatusLocked(g, domain.StatusCancelled); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	out := g.Clone()
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)

	r.logger.Info("Giveaway cancelled", zap.String("giveaway_id", id))
	return out, nil
}
