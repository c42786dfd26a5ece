package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Status represents the lifecycle state of a giveaway
type Status string

const (
	StatusOpen           Status = "open"
	StatusAwaitingManual Status = "awaiting_manual_resolution"
	StatusResolved       Status = "resolved"
	StatusCancelled      Status = "cancelled"
)

// transitions lists the allowed edges of the lifecycle
var transitions = map[Status][]Status{
	StatusOpen:           {StatusAwaitingManual, StatusResolved, StatusCancelled},
	StatusAwaitingManual: {StatusResolved, StatusCancelled},
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAwaitingManual, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// CanTransitionTo reports whether next is an allowed edge from s
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IDSet is an unordered set of user identities, serialized as a sorted list
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given ids
func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the members in ascending order
func (s IDSet) Slice() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns an independent copy
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON implements json.Unmarshaler
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// Giveaway is the durable record of one contest
type Giveaway struct {
	ID           string     `json:"id"`
	ChatID       int64      `json:"chat_id"`
	MessageID    int        `json:"message_id"`
	Title        string     `json:"title"`
	Prize        string     `json:"prize"`
	Conditions   string     `json:"conditions"`
	CreatorID    int64      `json:"creator_id"`
	WinnersCount int        `json:"winners_count"`
	MinEntries   int        `json:"min_entries"`
	EndsAt       time.Time  `json:"ends_at"`
	Participants IDSet      `json:"participants"`
	Status       Status     `json:"status"`
	Host         string     `json:"host"`
	Winners      []int64    `json:"winners,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// Validate checks the creation-time invariants
func (g *Giveaway) Validate() error {
	switch {
	case g.WinnersCount < 1:
		return ErrInvalidGiveaway
	case g.MinEntries < 0:
		return ErrInvalidGiveaway
	case g.EndsAt.IsZero():
		return ErrInvalidGiveaway
	}
	return nil
}

// Expired reports whether the expiry instant has been reached
func (g *Giveaway) Expired(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

// EntryCount returns the number of participants
func (g *Giveaway) EntryCount() int {
	return len(g.Participants)
}

// Clone returns a deep copy safe to hand out of the registry
func (g *Giveaway) Clone() *Giveaway {
	c := *g
	c.Participants = g.Participants.Clone()
	if g.Winners != nil {
		c.Winners = append([]int64(nil), g.Winners...)
	}
	if g.ResolvedAt != nil {
		t := *g.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// Settings holds the global bot settings persisted with the registry
type Settings struct {
	AutoResolve  bool             `json:"auto_resolve"`
	Banner       string           `json:"banner,omitempty"`
	Operators    IDSet            `json:"operators"`
	Destinations map[int64]string `json:"destinations"`
	HostNames    map[int64]string `json:"host_names"`
}

// DefaultSettings returns settings for a fresh installation
func DefaultSettings() Settings {
	return Settings{
		AutoResolve:  true,
		Operators:    IDSet{},
		Destinations: map[int64]string{},
		HostNames:    map[int64]string{},
	}
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	c := s
	c.Operators = s.Operators.Clone()
	c.Destinations = make(map[int64]string, len(s.Destinations))
	for k, v := range s.Destinations {
		c.Destinations[k] = v
	}
	c.HostNames = make(map[int64]string, len(s.HostNames))
	for k, v := range s.HostNames {
		c.HostNames[k] = v
	}
	return c
}

// Snapshot is the durable unit: every giveaway plus the global settings
type Snapshot struct {
	Settings  Settings             `json:"settings"`
	Giveaways map[string]*Giveaway `json:"giveaways"`
}

// NewSnapshot returns an empty snapshot with default settings
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Settings:  DefaultSettings(),
		Giveaways: map[string]*Giveaway{},
	}
}

// Normalize fills nil collections left by decoders
func (s *Snapshot) Normalize() {
	if s.Giveaways == nil {
		s.Giveaways = map[string]*Giveaway{}
	}
	if s.Settings.Operators == nil {
		s.Settings.Operators = IDSet{}
	}
	if s.Settings.Destinations == nil {
		s.Settings.Destinations = map[int64]string{}
	}
	if s.Settings.HostNames == nil {
		s.Settings.HostNames = map[int64]string{}
	}
	for id, g := range s.Giveaways {
		if g.Participants == nil {
			g.Participants = IDSet{}
		}
		if g.ID == "" {
			g.ID = id
		}
	}
}
