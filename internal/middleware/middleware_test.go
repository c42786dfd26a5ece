package middleware

import (
	"testing"

	"giveawaybot/internal/i18n"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"
	"giveawaybot/internal/service"
	"giveawaybot/internal/testutil"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
)

const ownerID int64 = 1000

func newAuth(operators ...int64) *service.AuthService {
	store := new(testutil.MockOperatorStore)
	store.On("IsOperator", ownerID).Return(false).Maybe()
	for _, id := range operators {
		store.On("IsOperator", id).Return(true)
	}
	store.On("IsOperator", int64(13)).Return(false).Maybe()
	return service.NewAuthService(store, new(testutil.MockHandleResolver), ownerID, testutil.NewTestLogger())
}

func passthrough(called *bool) tele.HandlerFunc {
	return func(tele.Context) error {
		*called = true
		return nil
	}
}

func TestOperatorOnly(t *testing.T) {
	tr := i18n.NewTranslator("en", testutil.NewTestLogger())

	tests := []struct {
		name         string
		userID       int64
		callback     bool
		expectCalled bool
	}{
		{name: "owner", userID: ownerID, expectCalled: true},
		{name: "operator", userID: 42, expectCalled: true},
		{name: "stranger message", userID: 13, expectCalled: false},
		{name: "stranger button", userID: 13, callback: true, expectCalled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c *testutil.FakeContext
			if tt.callback {
				c = testutil.NewCallbackContext(tt.userID, testutil.GroupChat(-1, "G"), "confirm_cancel", "abc")
			} else {
				c = testutil.NewMessageContext(tt.userID, testutil.PrivateChat(tt.userID), "/help")
			}

			called := false
			err := OperatorOnly(newAuth(42), tr, testutil.NewTestLogger())(passthrough(&called))(c)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectCalled, called)
			switch {
			case tt.expectCalled:
				assert.Empty(t, c.Sent)
			case tt.callback:
				assert.Equal(t, "⛔ Access Denied", c.LastResponse())
				assert.True(t, c.Responses[0].ShowAlert)
			default:
				assert.Contains(t, c.LastText(), "ACCESS DENIED")
			}
		})
	}
}

func TestOwnerOnly(t *testing.T) {
	tr := i18n.NewTranslator("en", testutil.NewTestLogger())
	mw := OwnerOnly(newAuth(42), tr, testutil.NewTestLogger())

	called := false
	c := testutil.NewMessageContext(ownerID, testutil.PrivateChat(ownerID), "/adminlist")
	assert.NoError(t, mw(passthrough(&called))(c))
	assert.True(t, called)

	called = false
	c = testutil.NewMessageContext(42, testutil.PrivateChat(42), "/adminlist")
	assert.NoError(t, mw(passthrough(&called))(c))
	assert.False(t, called, "operators are not owners")
	assert.Equal(t, "⛔ Only the owner can do that.", c.LastText())
}

func TestTrackDestinations(t *testing.T) {
	reg := registry.New(registry.Options{Store: testutil.NewMemoryStore(nil), Strict: true})
	giveaways := service.NewGiveawayService(reg, new(testutil.MockNotifier), metrics.NewNop(), testutil.NewTestLogger())
	mw := TrackDestinations(giveaways)

	called := false
	for _, c := range []*testutil.FakeContext{
		testutil.NewMessageContext(5, testutil.GroupChat(-1001, "Main"), "hello"),
		testutil.NewMessageContext(5, testutil.PrivateChat(5), "hello"),
		testutil.NewMessageContext(5, &tele.Chat{ID: -1002, Type: tele.ChatGroup, Title: "Small"}, "hi"),
	} {
		assert.NoError(t, mw(passthrough(&called))(c))
	}

	assert.True(t, called)
	assert.Equal(t, map[int64]string{-1001: "Main", -1002: "Small"}, reg.Destinations())
}
