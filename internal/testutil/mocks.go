package testutil

import (
	"context"

	"giveawaybot/internal/domain"

	"github.com/stretchr/testify/mock"
	tele "gopkg.in/telebot.v3"
)

// MockNotifier is a mock for service.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, g *domain.Giveaway) (int, error) {
	args := m.Called(ctx, g)
	return args.Int(0), args.Error(1)
}

func (m *MockNotifier) Announce(ctx context.Context, g *domain.Giveaway, winners []int64, reroll bool) error {
	args := m.Called(ctx, g, winners, reroll)
	return args.Error(0)
}

func (m *MockNotifier) Refresh(ctx context.Context, g *domain.Giveaway) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockNotifier) NotifyExpired(ctx context.Context, g *domain.Giveaway) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockNotifier) NotifyCancelled(ctx context.Context, g *domain.Giveaway, reason error) error {
	args := m.Called(ctx, g, reason)
	return args.Error(0)
}

func (m *MockNotifier) MarkCancelled(ctx context.Context, g *domain.Giveaway) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

// MockSnapshotStore is a mock for repository.SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// MockOperatorStore is a mock for service.OperatorStore
type MockOperatorStore struct {
	mock.Mock
}

func (m *MockOperatorStore) IsOperator(userID int64) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *MockOperatorStore) GrantOperator(userID int64) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *MockOperatorStore) RevokeOperator(userID int64) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *MockOperatorStore) Operators() []int64 {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]int64)
}

// MockHandleResolver is a mock for service.HandleResolver
type MockHandleResolver struct {
	mock.Mock
}

func (m *MockHandleResolver) ResolveHandle(ctx context.Context, handle string) (int64, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(int64), args.Error(1)
}

// MockSender is a mock for the subset of *tele.Bot the notifier uses
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	args := m.Called(to, what, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tele.Message), args.Error(1)
}

func (m *MockSender) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	args := m.Called(msg, what, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tele.Message), args.Error(1)
}

func (m *MockSender) EditCaption(msg tele.Editable, caption string, opts ...interface{}) (*tele.Message, error) {
	args := m.Called(msg, caption, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tele.Message), args.Error(1)
}

func (m *MockSender) Pin(msg tele.Editable, opts ...interface{}) error {
	args := m.Called(msg, opts)
	return args.Error(0)
}

func (m *MockSender) ChatByID(id int64) (*tele.Chat, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tele.Chat), args.Error(1)
}

func (m *MockSender) ChatByUsername(name string) (*tele.Chat, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tele.Chat), args.Error(1)
}
