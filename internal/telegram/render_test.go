package telegram

import (
	"testing"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/i18n"
	"giveawaybot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func newRenderer() *Renderer {
	tr := i18n.NewTranslator("en", testutil.NewTestLogger())
	return NewRenderer(tr, clocktesting.NewFakeClock(testutil.Epoch))
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{name: "expired", d: -time.Minute, expected: ""},
		{name: "zero", d: 0, expected: ""},
		{name: "under a minute", d: 30 * time.Second, expected: "0m"},
		{name: "minutes", d: 5 * time.Minute, expected: "5m"},
		{name: "hours", d: 2*time.Hour + 5*time.Minute, expected: "2h, 5m"},
		{name: "days", d: 26*time.Hour + 5*time.Minute, expected: "1d, 2h, 5m"},
		{name: "whole day", d: 24 * time.Hour, expected: "1d, 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatRemaining(tt.d))
		})
	}
}

func TestMention(t *testing.T) {
	assert.Equal(t, `<a href="tg://user?id=42">Tom &amp; Jerry</a>`, Mention(42, "Tom & Jerry"))
}

func TestRenderer_Card(t *testing.T) {
	r := newRenderer()

	g := testutil.NewTestGiveaway("a", -1001, 2, 0, 90*time.Minute)
	g.Title = "Summer"
	g.Prize = "<script>"
	g.Participants = domain.NewIDSet(1, 2, 3)

	card := r.Card(g)

	assert.Contains(t, card, "<b>Summer</b>")
	assert.Contains(t, card, "&lt;script&gt;")
	assert.Contains(t, card, "<b>Entries:</b> 3")
	assert.Contains(t, card, "<b>Winners:</b> 2")
	assert.Contains(t, card, "<b>Ends In:</b> 1h, 30m")
}

func TestRenderer_CardAfterExpiry(t *testing.T) {
	r := newRenderer()

	g := testutil.NewTestGiveaway("a", -1001, 1, 0, -time.Minute)
	g.Host = ""

	card := r.Card(g)

	assert.Contains(t, card, "<b>Ends In:</b> Ended")
	assert.Contains(t, card, "<b>Hosted By:</b> Unknown")
}

func TestRenderer_Announcement(t *testing.T) {
	r := newRenderer()
	g := testutil.NewTestGiveaway("a", -1001, 2, 0, time.Minute)

	text := r.Announcement(g, []string{Mention(1, "Ann"), Mention(2, "Bob")}, false)
	assert.Contains(t, text, "GIVEAWAY ENDED")
	assert.Contains(t, text, `<a href="tg://user?id=1">Ann</a>, <a href="tg://user?id=2">Bob</a>`)

	text = r.Announcement(g, []string{Mention(1, "Ann")}, true)
	assert.Contains(t, text, "REROLL RESULT")
}

func TestRenderer_JoinMarkup(t *testing.T) {
	markup := newRenderer().JoinMarkup("abc")

	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 1)
	btn := markup.InlineKeyboard[0][0]
	assert.Equal(t, "join", btn.Unique)
	assert.Equal(t, "abc", btn.Data)
}

func TestBannerFile(t *testing.T) {
	assert.Equal(t, "https://example.com/b.png", bannerFile("https://example.com/b.png").FileURL)
	assert.Equal(t, "AgACAgIAAxkB", bannerFile("AgACAgIAAxkB").FileID)
}
