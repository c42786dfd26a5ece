package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/i18n"

	tele "gopkg.in/telebot.v3"
	"k8s.io/utils/clock"
)

const joinUnique = "join"

// FormatRemaining renders a positive duration as "1d, 2h, 5m".
// Non-positive durations render as an empty string.
func FormatRemaining(d time.Duration) string {
	total := int64(d / time.Second)
	if total <= 0 {
		return ""
	}

	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, ", ")
}

// Mention renders an HTML link to a user profile
func Mention(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}

// Renderer builds message texts and keyboards
type Renderer struct {
	tr    *i18n.Translator
	clock clock.PassiveClock
}

// NewRenderer creates a renderer
func NewRenderer(tr *i18n.Translator, clk clock.PassiveClock) *Renderer {
	return &Renderer{tr: tr, clock: clk}
}

// T exposes the catalog to callers that share the renderer
func (r *Renderer) T(key string, data map[string]any) string {
	return r.tr.T(key, data)
}

// Card renders the live giveaway card
func (r *Renderer) Card(g *domain.Giveaway) string {
	endsIn := FormatRemaining(g.EndsAt.Sub(r.clock.Now()))
	if endsIn == "" || g.Status != domain.StatusOpen {
		endsIn = r.tr.T("time_ended", nil)
	}

	return r.tr.T("card", map[string]any{
		"Title":      html.EscapeString(g.Title),
		"Prize":      html.EscapeString(g.Prize),
		"Host":       r.host(g),
		"Conditions": html.EscapeString(g.Conditions),
		"Entries":    g.EntryCount(),
		"Winners":    g.WinnersCount,
		"EndsIn":     endsIn,
	})
}

// Announcement renders the winners message. mentions are already HTML.
func (r *Renderer) Announcement(g *domain.Giveaway, mentions []string, reroll bool) string {
	header := r.tr.T("announce_ended", nil)
	if reroll {
		header = r.tr.T("announce_reroll", nil)
	}

	return r.tr.T("announce", map[string]any{
		"Header":  header,
		"Prize":   html.EscapeString(g.Prize),
		"Host":    r.host(g),
		"Winners": strings.Join(mentions, ", "),
	})
}

// JoinMarkup returns the participate button for a giveaway card
func (r *Renderer) JoinMarkup(giveawayID string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(r.tr.T("card_join", nil), joinUnique, giveawayID)))
	return markup
}

func (r *Renderer) host(g *domain.Giveaway) string {
	if g.Host == "" {
		return r.tr.T("host_unknown", nil)
	}
	return html.EscapeString(g.Host)
}

// bannerFile accepts either an http(s) URL or a file id
func bannerFile(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.File{FileID: ref}
}
