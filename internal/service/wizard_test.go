package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (e *env) wizard() *WizardService {
	return NewWizardService(e.reg, e.notifier, e.clock, e.metrics, testutil.NewTestLogger())
}

func completeWizard(t *testing.T, svc *WizardService, creatorID int64) {
	t.Helper()
	svc.Start(creatorID, "Admin")
	for _, input := range []string{"Summer", "Book", "Be nice", "10", "2", "3"} {
		_, err := svc.Input(creatorID, input)
		require.NoError(t, err)
	}
}

func TestWizardService_Steps(t *testing.T) {
	e := newEnv(t)
	svc := e.wizard()

	session := svc.Start(42, "Admin")
	assert.Equal(t, domain.StepTitle, session.Step)
	assert.Equal(t, "Admin", session.Host)
	assert.True(t, svc.Active(42))

	tests := []struct {
		name         string
		input        string
		expectedStep domain.WizardStep
		expectedErr  error
	}{
		{name: "title", input: "Summer", expectedStep: domain.StepPrize},
		{name: "prize", input: "Book", expectedStep: domain.StepConditions},
		{name: "conditions", input: "Be nice", expectedStep: domain.StepDuration},
		{name: "non-numeric duration", input: "ten", expectedStep: domain.StepDuration, expectedErr: domain.ErrInvalidInput},
		{name: "zero duration", input: "0", expectedStep: domain.StepDuration, expectedErr: domain.ErrInvalidInput},
		{name: "duration", input: "10", expectedStep: domain.StepWinners},
		{name: "negative winners", input: "-1", expectedStep: domain.StepWinners, expectedErr: domain.ErrInvalidInput},
		{name: "winners", input: "2", expectedStep: domain.StepMinEntries},
		{name: "min entries", input: "0", expectedStep: domain.StepMinEntries},
	}

	for _, tt := range tests {
		session, err := svc.Input(42, tt.input)
		if tt.expectedErr != nil {
			assert.ErrorIs(t, err, tt.expectedErr, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
		assert.Equal(t, tt.expectedStep, session.Step, tt.name)
	}

	session, _ = svc.Input(42, "ignored")
	assert.True(t, session.Ready)

	assert.True(t, svc.Abort(42))
	assert.False(t, svc.Active(42))
}

func TestWizardService_Finish(t *testing.T) {
	e := newEnv(t)
	e.reg.TrackDestination(chatID, "Main")
	svc := e.wizard()
	completeWizard(t, svc, 42)

	e.notifier.On("Publish", mock.Anything, mock.MatchedBy(func(g *domain.Giveaway) bool {
		return g.ChatID == chatID && g.Title == "Summer" && g.ID != ""
	})).Return(555, nil).Once()

	g, err := svc.Finish(context.Background(), 42, chatID)
	require.NoError(t, err)

	assert.Equal(t, 555, g.MessageID)
	assert.Equal(t, testutil.Epoch.Add(10*time.Minute), g.EndsAt)
	assert.False(t, svc.Active(42))

	stored, ok := e.reg.Get(g.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusOpen, stored.Status)
	assert.Equal(t, 555, stored.MessageID)
	assert.Equal(t, 2, stored.WinnersCount)
	assert.Equal(t, 3, stored.MinEntries)
	assert.Equal(t, "Admin", stored.Host)

	e.notifier.AssertExpectations(t)
}

func TestWizardService_FinishPublishFailureKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.reg.TrackDestination(chatID, "Main")
	e.reg.TrackDestination(-2002, "Second")
	svc := e.wizard()
	completeWizard(t, svc, 42)

	e.notifier.On("Publish", mock.Anything, mock.MatchedBy(func(g *domain.Giveaway) bool {
		return g.ChatID == chatID
	})).Return(0, errors.New("not enough rights")).Once()
	e.notifier.On("Publish", mock.Anything, mock.MatchedBy(func(g *domain.Giveaway) bool {
		return g.ChatID == -2002
	})).Return(9, nil).Once()

	_, err := svc.Finish(context.Background(), 42, chatID)
	assert.ErrorIs(t, err, domain.ErrNotification)
	assert.True(t, svc.Active(42))
	assert.Empty(t, e.reg.ListByHost(chatID))
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.NotificationFailures.WithLabelValues("publish")))

	g, err := svc.Finish(context.Background(), 42, -2002)
	require.NoError(t, err)
	assert.Equal(t, int64(-2002), g.ChatID)

	e.notifier.AssertExpectations(t)
}

func TestWizardService_FinishSessionLostAfterPublish(t *testing.T) {
	e := newEnv(t)
	e.reg.TrackDestination(chatID, "Main")
	svc := e.wizard()
	completeWizard(t, svc, 42)

	var published *domain.Giveaway
	e.notifier.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).(*domain.Giveaway)
		svc.Abort(42)
	}).Return(77, nil).Once()
	e.notifier.On("MarkCancelled", mock.Anything, mock.MatchedBy(func(g *domain.Giveaway) bool {
		return g.ID == published.ID && g.MessageID == 77
	})).Return(nil).Once()

	_, err := svc.Finish(context.Background(), 42, chatID)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, ok := e.reg.Get(published.ID)
	assert.False(t, ok)
	e.notifier.AssertExpectations(t)
}

func TestWizardService_FinishErrors(t *testing.T) {
	e := newEnv(t)
	e.reg.TrackDestination(chatID, "Main")
	svc := e.wizard()

	_, err := svc.Finish(context.Background(), 42, chatID)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	svc.Start(42, "Admin")
	_, err = svc.Finish(context.Background(), 42, chatID)
	assert.ErrorIs(t, err, domain.ErrWizardIncomplete)

	completeWizard(t, svc, 42)
	_, err = svc.Finish(context.Background(), 42, -9999)
	assert.ErrorIs(t, err, domain.ErrUnknownDestination)

	e.notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
