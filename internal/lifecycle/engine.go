// Package lifecycle holds the pure decision logic of a giveaway: when it
// should be resolved and what resolving it produces. Nothing here performs
// I/O or mutates a record; the registry applies the returned outcomes.
package lifecycle

import (
	"fmt"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/random"
)

// Action is the next step the reconciliation loop should take for a record
type Action int

const (
	NoAction Action = iota
	ResolveNow
	EnterAwaitingManual
)

func (a Action) String() string {
	switch a {
	case ResolveNow:
		return "resolve_now"
	case EnterAwaitingManual:
		return "enter_awaiting_manual"
	default:
		return "no_action"
	}
}

// Sampler draws k distinct members of pool
type Sampler func(pool []int64, k int) ([]int64, error)

// Outcome is the result of resolving a giveaway
type Outcome struct {
	Status  domain.Status
	Winners []int64
	// Reason is set when the giveaway is cancelled instead of resolved
	Reason error
}

// Cancelled reports whether the outcome is a cancellation
func (o Outcome) Cancelled() bool {
	return o.Status == domain.StatusCancelled
}

// Engine decides and resolves giveaways. The zero value uses crypto-random sampling.
type Engine struct {
	sample Sampler
}

// NewEngine creates an engine with the given sampler; nil selects the default
func NewEngine(sample Sampler) *Engine {
	return &Engine{sample: sample}
}

func (e *Engine) sampler() Sampler {
	if e == nil || e.sample == nil {
		return random.Sample[int64]
	}
	return e.sample
}

// Decide returns the action due for g at now.
// An awaiting record is no longer OPEN, so a second poll after entering that
// state yields NoAction.
func (e *Engine) Decide(g *domain.Giveaway, now time.Time, autoResolve bool) Action {
	if g.Status != domain.StatusOpen {
		return NoAction
	}
	if !g.Expired(now) {
		return NoAction
	}
	if autoResolve {
		return ResolveNow
	}
	return EnterAwaitingManual
}

// Resolve draws winners for an open or awaiting giveaway, or cancels it when
// it has fewer participants than its minimum.
func (e *Engine) Resolve(g *domain.Giveaway) (Outcome, error) {
	if g.Status.Terminal() {
		return Outcome{}, domain.ErrAlreadyResolved
	}

	if g.EntryCount() < g.MinEntries {
		return Outcome{
			Status:  domain.StatusCancelled,
			Winners: []int64{},
			Reason:  domain.ErrInsufficientEntries,
		}, nil
	}

	k := g.WinnersCount
	if n := g.EntryCount(); n < k {
		k = n
	}

	winners, err := e.draw(g, k)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Status: domain.StatusResolved, Winners: winners}, nil
}

// Reroll draws one new winner from the full participant pool of a resolved
// giveaway. Earlier winners stay eligible.
func (e *Engine) Reroll(g *domain.Giveaway) (int64, error) {
	if g.Status != domain.StatusResolved {
		return 0, domain.ErrNotResolved
	}
	if g.EntryCount() == 0 {
		return 0, domain.ErrNoParticipants
	}

	winners, err := e.draw(g, 1)
	if err != nil {
		return 0, err
	}
	return winners[0], nil
}

func (e *Engine) draw(g *domain.Giveaway, k int) ([]int64, error) {
	winners, err := e.sampler()(g.Participants.Slice(), k)
	if err != nil {
		return nil, fmt.Errorf("draw winners for %s: %w", g.ID, err)
	}
	return winners, nil
}
