package registry

import (
	"go.uber.org/zap"
)

// AutoResolve reports whether expired giveaways are resolved without an operator
func (r *Registry) AutoResolve() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.AutoResolve
}

// SetAutoResolve toggles automatic resolution
func (r *Registry) SetAutoResolve(enabled bool) {
	r.mu.Lock()
	r.settings.AutoResolve = enabled
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	r.logger.Info("Auto-resolve changed", zap.Bool("enabled", enabled))
}

// Banner returns the configured banner reference, empty when unset
func (r *Registry) Banner() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.Banner
}

// SetBanner stores a banner reference (file id or URL)
func (r *Registry) SetBanner(banner string) {
	r.mu.Lock()
	r.settings.Banner = banner
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
}

// IsOperator reports membership in the approved operator set
func (r *Registry) IsOperator(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.Operators.Has(userID)
}

// GrantOperator approves userID; false if already approved
func (r *Registry) GrantOperator(userID int64) bool {
	r.mu.Lock()
	if r.settings.Operators.Has(userID) {
		r.mu.Unlock()
		return false
	}
	r.settings.Operators[userID] = struct{}{}
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return true
}

// RevokeOperator removes userID; false if it was not approved
func (r *Registry) RevokeOperator(userID int64) bool {
	r.mu.Lock()
	if !r.settings.Operators.Has(userID) {
		r.mu.Unlock()
		return false
	}
	delete(r.settings.Operators, userID)
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	return true
}

// Operators lists approved operators in ascending order
func (r *Registry) Operators() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.Operators.Slice()
}

// TrackDestination remembers a chat the bot has seen.
// Nothing is saved unless the chat is new or was renamed.
func (r *Registry) TrackDestination(chatID int64, title string) {
	r.mu.Lock()
	if current, ok := r.settings.Destinations[chatID]; ok && current == title {
		r.mu.Unlock()
		return
	}
	r.settings.Destinations[chatID] = title
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
	r.logger.Debug("Destination tracked", zap.Int64("chat_id", chatID), zap.String("title", title))
}

// Destinations returns a copy of the known destination directory
func (r *Registry) Destinations() map[int64]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int64]string, len(r.settings.Destinations))
	for id, title := range r.settings.Destinations {
		out[id] = title
	}
	return out
}

// HostName returns the default host name of a creator
func (r *Registry) HostName(userID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.settings.HostNames[userID]
	return name, ok
}

// SetDefaultHost stores the host name used to seed new wizard sessions
func (r *Registry) SetDefaultHost(userID int64, name string) {
	r.mu.Lock()
	r.settings.HostNames[userID] = name
	s, v := r.commitLocked()
	r.mu.Unlock()

	r.persist(s, v)
}
