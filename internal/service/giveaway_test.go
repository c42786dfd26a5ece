package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"
	"giveawaybot/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

const chatID int64 = -1001

type env struct {
	reg      *registry.Registry
	store    *testutil.MemoryStore
	clock    *clocktesting.FakeClock
	metrics  *metrics.Metrics
	notifier *testutil.MockNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		store:    testutil.NewMemoryStore(nil),
		clock:    clocktesting.NewFakeClock(testutil.Epoch),
		metrics:  metrics.New(prometheus.NewRegistry()),
		notifier: new(testutil.MockNotifier),
	}
	e.reg = registry.New(registry.Options{
		Store:   e.store,
		Clock:   e.clock,
		Logger:  testutil.NewTestLogger(),
		Metrics: e.metrics,
		Strict:  true,
	})
	return e
}

// seed creates an open giveaway created at the current fake time
func (e *env) seed(t *testing.T, id string, chat int64, winners, minEntries int, participants ...int64) {
	t.Helper()
	g := testutil.NewTestGiveaway(id, chat, winners, minEntries, 10*time.Minute)
	g.CreatedAt = e.clock.Now()
	_, err := e.reg.Create(g)
	require.NoError(t, err)
	for _, p := range participants {
		require.Equal(t, registry.Joined, e.reg.Join(id, p))
	}
}

func (e *env) giveaways() *GiveawayService {
	return NewGiveawayService(e.reg, e.notifier, e.metrics, testutil.NewTestLogger())
}

func withID(id string) interface{} {
	return mock.MatchedBy(func(g *domain.Giveaway) bool { return g.ID == id })
}

func TestGiveawayService_Join(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "a", chatID, 1, 0)
	e.notifier.On("Refresh", mock.Anything, withID("a")).Return(nil).Once()

	svc := e.giveaways()

	assert.Equal(t, registry.Joined, svc.Join(context.Background(), "a", 5))
	assert.Equal(t, registry.AlreadyJoined, svc.Join(context.Background(), "a", 5))
	assert.Equal(t, registry.NotFound, svc.Join(context.Background(), "missing", 5))

	e.notifier.AssertExpectations(t)
}

func TestGiveawayService_JoinRefreshFailureIsSwallowed(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "a", chatID, 1, 0)
	e.notifier.On("Refresh", mock.Anything, withID("a")).Return(errors.New("message not modified"))

	result := e.giveaways().Join(context.Background(), "a", 5)

	assert.Equal(t, registry.Joined, result)
	assert.Equal(t, 1.0, promtest.ToFloat64(e.metrics.NotificationFailures.WithLabelValues("refresh")))
}

func TestGiveawayService_RollTargetsAwaitingFirst(t *testing.T) {
	e := newEnv(t)
	e.reg.SetAutoResolve(false)
	e.seed(t, "awaiting", chatID, 1, 0, 1)
	e.clock.Step(time.Minute)
	e.seed(t, "open", chatID, 1, 0, 2)

	e.clock.Step(9 * time.Minute)
	_, err := e.reg.Reconcile("awaiting", e.clock.Now())
	require.NoError(t, err)

	e.notifier.On("Announce", mock.Anything, withID("awaiting"), []int64{1}, false).Return(nil).Once()

	step, err := e.giveaways().Roll(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, "awaiting", step.Giveaway.ID)
	assert.Equal(t, domain.StatusResolved, step.Giveaway.Status)

	g, _ := e.reg.Get("open")
	assert.Equal(t, domain.StatusOpen, g.Status)
	e.notifier.AssertExpectations(t)
}

func TestGiveawayService_RollMostRecentOpen(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "older", chatID, 1, 0, 1)
	e.clock.Step(time.Minute)
	e.seed(t, "newer", chatID, 1, 0, 2)

	e.notifier.On("Announce", mock.Anything, withID("newer"), []int64{2}, false).Return(nil).Once()

	step, err := e.giveaways().Roll(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, "newer", step.Giveaway.ID)
	e.notifier.AssertExpectations(t)
}

func TestGiveawayService_RollInsufficientEntries(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "a", chatID, 2, 3, 1, 2)

	e.notifier.On("NotifyCancelled", mock.Anything, withID("a"), domain.ErrInsufficientEntries).Return(nil).Once()

	step, err := e.giveaways().Roll(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, step.Giveaway.Status)
	assert.Empty(t, step.Outcome.Winners)
	e.notifier.AssertExpectations(t)
}

func TestGiveawayService_RollNothing(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "elsewhere", -2002, 1, 0)

	_, err := e.giveaways().Roll(context.Background(), chatID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	e.notifier.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGiveawayService_Reroll(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "a", chatID, 1, 0, 1, 2, 3)
	_, err := e.reg.Roll("a")
	require.NoError(t, err)

	e.notifier.On("Announce", mock.Anything, withID("a"), mock.AnythingOfType("[]int64"), true).Return(nil).Once()

	winner, err := e.giveaways().Reroll(context.Background(), chatID)
	require.NoError(t, err)
	assert.Contains(t, []int64{1, 2, 3}, winner)

	g, _ := e.reg.Get("a")
	assert.Equal(t, domain.StatusResolved, g.Status)
	e.notifier.AssertExpectations(t)
}

func TestGiveawayService_RerollErrors(t *testing.T) {
	e := newEnv(t)
	svc := e.giveaways()

	_, err := svc.Reroll(context.Background(), chatID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	e.seed(t, "empty", chatID, 1, 0)
	e.notifier.On("Announce", mock.Anything, mock.Anything, mock.Anything, false).Return(nil)
	_, err = svc.Roll(context.Background(), chatID)
	require.NoError(t, err)

	_, err = svc.Reroll(context.Background(), chatID)
	assert.ErrorIs(t, err, domain.ErrNoParticipants)
}

func TestGiveawayService_Cancel(t *testing.T) {
	e := newEnv(t)
	svc := e.giveaways()

	_, err := svc.CancelTarget(chatID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	e.seed(t, "a", chatID, 1, 0)
	target, err := svc.CancelTarget(chatID)
	require.NoError(t, err)
	assert.Equal(t, "a", target.ID)

	e.notifier.On("MarkCancelled", mock.Anything, withID("a")).Return(errors.New("message to edit not found")).Once()

	g, err := svc.ConfirmCancel(context.Background(), "a")
	require.NoError(t, err, "card edit failures do not undo the cancel")
	assert.Equal(t, domain.StatusCancelled, g.Status)

	_, err = svc.ConfirmCancel(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrNotOpen)

	e.notifier.AssertExpectations(t)
}

func TestGiveawayService_SetHost(t *testing.T) {
	t.Run("updates active giveaway", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t, "a", chatID, 1, 0)
		e.notifier.On("Refresh", mock.Anything, mock.MatchedBy(func(g *domain.Giveaway) bool {
			return g.ID == "a" && g.Host == "Carol"
		})).Return(nil).Once()

		g, err := e.giveaways().SetHost(context.Background(), chatID, 42, "  Carol ")
		require.NoError(t, err)
		require.NotNil(t, g)
		assert.Equal(t, "Carol", g.Host)

		_, stored := e.reg.HostName(42)
		assert.False(t, stored)
		e.notifier.AssertExpectations(t)
	})

	t.Run("stores default without active giveaway", func(t *testing.T) {
		e := newEnv(t)

		g, err := e.giveaways().SetHost(context.Background(), chatID, 42, "Carol")
		require.NoError(t, err)
		assert.Nil(t, g)

		name, ok := e.reg.HostName(42)
		assert.True(t, ok)
		assert.Equal(t, "Carol", name)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.giveaways().SetHost(context.Background(), chatID, 42, " ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestGiveawayService_Settings(t *testing.T) {
	e := newEnv(t)
	svc := e.giveaways()

	assert.True(t, svc.AutoResolve())
	svc.SetAutoResolve(false)
	assert.False(t, svc.AutoResolve())

	assert.ErrorIs(t, svc.SetBanner(""), domain.ErrInvalidInput)
	require.NoError(t, svc.SetBanner("AgACAgIAAxkBAAIB"))
	assert.Equal(t, "AgACAgIAAxkBAAIB", e.reg.Banner())

	svc.TrackDestination(chatID, "Main")
	assert.Equal(t, map[int64]string{chatID: "Main"}, svc.Destinations())
}
