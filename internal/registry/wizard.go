package registry

import (
	"fmt"

	"giveawaybot/internal/domain"
)

// StartWizard opens a fresh session for creatorID, replacing any previous one.
// The host defaults to the creator's stored host name, else fallbackHost.
func (r *Registry) StartWizard(creatorID int64, fallbackHost string) *domain.WizardSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	host := fallbackHost
	if name, ok := r.settings.HostNames[creatorID]; ok && name != "" {
		host = name
	}

	session := domain.NewWizardSession(creatorID, host)
	r.sessions[creatorID] = session
	return session.Clone()
}

// Wizard returns a copy of the creator's session
func (r *Registry) Wizard(creatorID int64) (*domain.WizardSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[creatorID]
	if !ok {
		return nil, false
	}
	return session.Clone(), true
}

// WizardInput feeds one answer to the creator's session. On ErrInvalidInput
// the returned session still sits on the same step.
func (r *Registry) WizardInput(creatorID int64, input string) (*domain.WizardSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[creatorID]
	if !ok {
		return nil, domain.ErrNoSession
	}

	err := session.Apply(input)
	return session.Clone(), err
}

// EndWizard drops the creator's session; false if there was none
func (r *Registry) EndWizard(creatorID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[creatorID]; !ok {
		return false
	}
	delete(r.sessions, creatorID)
	return true
}

// FinishWizard inserts the giveaway built from a session and ends the session
// in one step.
func (r *Registry) FinishWizard(creatorID int64, g *domain.Giveaway) (string, error) {
	if g == nil || g.ID == "" {
		return "", domain.ErrInvalidGiveaway
	}
	if err := g.Validate(); err != nil {
		return "", err
	}

	rec := g.Clone()
	rec.Status = domain.StatusOpen
	if rec.Participants == nil {
		rec.Participants = domain.IDSet{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock.Now().UTC()
	}

	r.mu.Lock()
	if _, ok := r.sessions[creatorID]; !ok {
		r.mu.Unlock()
		return "", domain.ErrNoSession
	}
	if _, exists := r.giveaways[rec.ID]; exists {
		r.mu.Unlock()
		return "", fmt.Errorf("giveaway %s: %w", rec.ID, domain.ErrDuplicateID)
	}
	r.giveaways[rec.ID] = rec
	delete(r.sessions, creatorID)
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return rec.ID, nil
}
