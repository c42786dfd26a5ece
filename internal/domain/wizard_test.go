package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardSession_Apply(t *testing.T) {
	w := NewWizardSession(42, "Admin")

	steps := []struct {
		input    string
		expected WizardStep
	}{
		{input: "Summer drop", expected: StepPrize},
		{input: "Nitro", expected: StepConditions},
		{input: "Join the channel", expected: StepDuration},
		{input: "10", expected: StepWinners},
		{input: "2", expected: StepMinEntries},
		{input: "3", expected: StepMinEntries},
	}

	for _, s := range steps {
		require.NoError(t, w.Apply(s.input))
		assert.Equal(t, s.expected, w.Step)
	}

	assert.True(t, w.Ready)
	assert.Equal(t, "Summer drop", w.Title)
	assert.Equal(t, "Nitro", w.Prize)
	assert.Equal(t, "Join the channel", w.Conditions)
	assert.Equal(t, 10*time.Minute, w.Duration)
	assert.Equal(t, 2, w.Winners)
	assert.Equal(t, 3, w.MinEntries)
}

func TestWizardSession_ApplyRejectsInvalidNumbers(t *testing.T) {
	tests := []struct {
		name  string
		step  WizardStep
		input string
	}{
		{name: "non numeric duration", step: StepDuration, input: "ten"},
		{name: "zero duration", step: StepDuration, input: "0"},
		{name: "negative duration", step: StepDuration, input: "-5"},
		{name: "duration past one year", step: StepDuration, input: "525601"},
		{name: "overflowing duration", step: StepDuration, input: "200000000"},
		{name: "non numeric winners", step: StepWinners, input: "two"},
		{name: "zero winners", step: StepWinners, input: "0"},
		{name: "negative min entries", step: StepMinEntries, input: "-1"},
		{name: "decimal min entries", step: StepMinEntries, input: "1.5"},
		{name: "empty title", step: StepTitle, input: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWizardSession(1, "Admin")
			w.Step = tt.step

			err := w.Apply(tt.input)

			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tt.step, w.Step)
			assert.False(t, w.Ready)
		})
	}
}

func TestWizardSession_LongestDurationExpiresInFuture(t *testing.T) {
	w := NewWizardSession(1, "Admin")
	w.Step = StepDuration
	require.NoError(t, w.Apply("525600"))
	w.Step = StepMinEntries
	w.Winners = 1
	require.NoError(t, w.Apply("0"))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := w.Build("id", -1, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(365*24*time.Hour), g.EndsAt)
	assert.False(t, g.Expired(now))
}

func TestWizardSession_ZeroMinEntriesAccepted(t *testing.T) {
	w := NewWizardSession(1, "Admin")
	w.Step = StepMinEntries

	require.NoError(t, w.Apply("0"))
	assert.True(t, w.Ready)
	assert.Equal(t, 0, w.MinEntries)
}

func TestWizardSession_EmptyConditionsDefault(t *testing.T) {
	w := NewWizardSession(1, "Admin")
	w.Step = StepConditions

	require.NoError(t, w.Apply(""))
	assert.Equal(t, "None", w.Conditions)
}

func TestWizardSession_Build(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	w := NewWizardSession(42, "Host")
	_, err := w.Build("id", -100, now)
	assert.ErrorIs(t, err, ErrWizardIncomplete)

	w.Title, w.Prize, w.Conditions = "t", "p", "c"
	w.Duration = 10 * time.Minute
	w.Winners = 2
	w.MinEntries = 3
	w.Ready = true

	g, err := w.Build("id", -100, now)
	require.NoError(t, err)
	assert.Equal(t, "id", g.ID)
	assert.Equal(t, int64(-100), g.ChatID)
	assert.Equal(t, now.Add(10*time.Minute), g.EndsAt)
	assert.Equal(t, StatusOpen, g.Status)
	assert.Equal(t, "Host", g.Host)
	assert.Equal(t, int64(42), g.CreatorID)
	assert.Equal(t, 2, g.WinnersCount)
	assert.Equal(t, 3, g.MinEntries)
	assert.Empty(t, g.Participants)
}
