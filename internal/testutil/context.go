package testutil

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

// FakeContext is a tele.Context backed by plain fields. It records what a
// handler sends; methods it does not override panic through the nil embed.
type FakeContext struct {
	tele.Context

	User        *tele.User
	ChatValue   *tele.Chat
	Msg         *tele.Message
	CallbackVal *tele.Callback

	Sent      []interface{}
	Edited    []interface{}
	Responses []*tele.CallbackResponse
	Deleted   bool
}

// NewMessageContext builds a context for a text message from userID in chat.
// The text is split into command and payload like telebot does.
func NewMessageContext(userID int64, chat *tele.Chat, text string) *FakeContext {
	msg := &tele.Message{ID: 1, Text: text, Chat: chat, Sender: &tele.User{ID: userID}}
	if strings.HasPrefix(text, "/") {
		if i := strings.IndexByte(text, ' '); i > 0 {
			msg.Payload = strings.TrimSpace(text[i+1:])
		}
	}
	return &FakeContext{User: msg.Sender, ChatValue: chat, Msg: msg}
}

// NewCallbackContext builds a context for a button press carrying data
func NewCallbackContext(userID int64, chat *tele.Chat, unique, data string) *FakeContext {
	msg := &tele.Message{ID: 2, Chat: chat}
	return &FakeContext{
		User:        &tele.User{ID: userID},
		ChatValue:   chat,
		Msg:         msg,
		CallbackVal: &tele.Callback{ID: "cb", Unique: unique, Data: data, Message: msg},
	}
}

// PrivateChat returns the private chat with userID
func PrivateChat(userID int64) *tele.Chat {
	return &tele.Chat{ID: userID, Type: tele.ChatPrivate}
}

// GroupChat returns a supergroup
func GroupChat(chatID int64, title string) *tele.Chat {
	return &tele.Chat{ID: chatID, Type: tele.ChatSuperGroup, Title: title}
}

func (c *FakeContext) Sender() *tele.User       { return c.User }
func (c *FakeContext) Chat() *tele.Chat         { return c.ChatValue }
func (c *FakeContext) Message() *tele.Message   { return c.Msg }
func (c *FakeContext) Callback() *tele.Callback { return c.CallbackVal }

func (c *FakeContext) Text() string {
	if c.Msg == nil {
		return ""
	}
	return c.Msg.Text
}

func (c *FakeContext) Data() string {
	if c.CallbackVal != nil {
		return c.CallbackVal.Data
	}
	if c.Msg != nil {
		return c.Msg.Payload
	}
	return ""
}

func (c *FakeContext) Args() []string {
	return strings.Fields(c.Data())
}

func (c *FakeContext) Send(what interface{}, opts ...interface{}) error {
	c.Sent = append(c.Sent, what)
	return nil
}

func (c *FakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.Edited = append(c.Edited, what)
	return nil
}

func (c *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.Responses = append(c.Responses, resp...)
	return nil
}

func (c *FakeContext) Delete() error {
	c.Deleted = true
	return nil
}

// LastText returns the last sent string, or "" if none
func (c *FakeContext) LastText() string {
	for i := len(c.Sent) - 1; i >= 0; i-- {
		if s, ok := c.Sent[i].(string); ok {
			return s
		}
	}
	return ""
}

// LastResponse returns the text of the last callback answer
func (c *FakeContext) LastResponse() string {
	if len(c.Responses) == 0 {
		return ""
	}
	return c.Responses[len(c.Responses)-1].Text
}
