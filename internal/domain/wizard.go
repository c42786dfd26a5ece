package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// WizardStep is the position of a creator in the creation form
type WizardStep int

const (
	StepTitle WizardStep = iota + 1
	StepPrize
	StepConditions
	StepDuration
	StepWinners
	StepMinEntries
)

// MaxDurationMinutes caps the giveaway duration at one year
const MaxDurationMinutes = 365 * 24 * 60

// WizardSession holds the partial giveaway of one creator.
// Sessions live in memory only.
type WizardSession struct {
	CreatorID  int64
	Step       WizardStep
	Host       string
	Title      string
	Prize      string
	Conditions string
	Duration   time.Duration
	Winners    int
	MinEntries int
	// Ready is set once the last step accepted its input; the session then
	// waits for a destination.
	Ready bool
}

// NewWizardSession starts a session at the first step
func NewWizardSession(creatorID int64, host string) *WizardSession {
	return &WizardSession{
		CreatorID: creatorID,
		Step:      StepTitle,
		Host:      host,
	}
}

// Apply feeds one answer to the current step. Invalid numeric answers leave
// the session untouched and return ErrInvalidInput.
func (w *WizardSession) Apply(input string) error {
	input = strings.TrimSpace(input)

	switch w.Step {
	case StepTitle:
		if input == "" {
			return ErrInvalidInput
		}
		w.Title = input
		w.Step = StepPrize
	case StepPrize:
		if input == "" {
			return ErrInvalidInput
		}
		w.Prize = input
		w.Step = StepConditions
	case StepConditions:
		if input == "" {
			input = "None"
		}
		w.Conditions = input
		w.Step = StepDuration
	case StepDuration:
		minutes, err := parseNumber(input, 1, MaxDurationMinutes)
		if err != nil {
			return err
		}
		w.Duration = time.Duration(minutes) * time.Minute
		w.Step = StepWinners
	case StepWinners:
		n, err := parseNumber(input, 1, math.MaxInt32)
		if err != nil {
			return err
		}
		w.Winners = n
		w.Step = StepMinEntries
	case StepMinEntries:
		n, err := parseNumber(input, 0, math.MaxInt32)
		if err != nil {
			return err
		}
		w.MinEntries = n
		w.Ready = true
	default:
		return fmt.Errorf("unknown wizard step %d: %w", w.Step, ErrInvalidInput)
	}

	return nil
}

// Build turns a completed session into a giveaway for the given destination
func (w *WizardSession) Build(id string, chatID int64, now time.Time) (*Giveaway, error) {
	if !w.Ready {
		return nil, ErrWizardIncomplete
	}
	return &Giveaway{
		ID:           id,
		ChatID:       chatID,
		Title:        w.Title,
		Prize:        w.Prize,
		Conditions:   w.Conditions,
		CreatorID:    w.CreatorID,
		WinnersCount: w.Winners,
		MinEntries:   w.MinEntries,
		EndsAt:       now.Add(w.Duration).UTC(),
		Participants: IDSet{},
		Status:       StatusOpen,
		Host:         w.Host,
		CreatedAt:    now.UTC(),
	}, nil
}

// Clone returns a copy
func (w *WizardSession) Clone() *WizardSession {
	c := *w
	return &c
}

func parseNumber(input string, min, max int) (int, error) {
	n, err := strconv.Atoi(input)
	if err != nil || n < min || n > max {
		return 0, ErrInvalidInput
	}
	return n, nil
}
