package handler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"giveawaybot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleHelp handles /start and /help
func (h *Handler) handleHelp(c tele.Context) error {
	h.logger.Info("User opened help",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("username", c.Sender().Username),
	)
	return h.reply(c, "help", nil)
}

// handleHost starts the creation wizard
func (h *Handler) handleHost(c tele.Context) error {
	if c.Chat().Type != tele.ChatPrivate {
		return h.reply(c, "host_private_only", nil)
	}

	session := h.wizard.Start(c.Sender().ID, displayName(c.Sender()))
	h.logger.Info("Wizard started", zap.Int64("user_id", c.Sender().ID))
	return h.reply(c, "wizard_started", map[string]any{"Host": session.Host})
}

func (h *Handler) handleAbort(c tele.Context) error {
	if !h.wizard.Abort(c.Sender().ID) {
		return h.reply(c, "wizard_no_session", nil)
	}
	return h.reply(c, "wizard_aborted", nil)
}

// handleSetHost renames the host of the active giveaway, or stores a default
func (h *Handler) handleSetHost(c tele.Context) error {
	name := strings.TrimSpace(c.Message().Payload)
	if name == "" {
		return h.reply(c, "sethost_usage", nil)
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	g, err := h.giveaways.SetHost(ctx, c.Chat().ID, c.Sender().ID, name)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return h.reply(c, "sethost_usage", nil)
	case err != nil:
		return h.fail(c, "Failed to set host", err)
	case g != nil:
		return h.reply(c, "host_updated", map[string]any{"Host": g.Host})
	}
	return h.reply(c, "default_host_saved", map[string]any{"Host": name})
}

// handleCancel asks for confirmation before cancelling the active giveaway
func (h *Handler) handleCancel(c tele.Context) error {
	target, err := h.giveaways.CancelTarget(c.Chat().ID)
	if err != nil {
		return h.reply(c, "no_active_giveaway", nil)
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data(h.tr.T("btn_cancel_yes", nil), btnConfirmCancel.Unique, target.ID),
		markup.Data(h.tr.T("btn_cancel_no", nil), btnCancelNo.Unique),
	))
	return c.Send(h.tr.T("confirm_cancel", nil), markup, tele.ModeHTML)
}

// handleRoll resolves the waiting giveaway; the announcement is posted by the service
func (h *Handler) handleRoll(c tele.Context) error {
	ctx, cancel := h.requestContext()
	defer cancel()

	step, err := h.giveaways.Roll(ctx, c.Chat().ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return h.reply(c, "nothing_to_roll", nil)
	case errors.Is(err, domain.ErrAlreadyResolved):
		return h.reply(c, "already_resolved", nil)
	case err != nil:
		return h.fail(c, "Failed to roll", err)
	}

	h.logger.Info("Manual roll",
		zap.String("giveaway_id", step.Giveaway.ID),
		zap.String("status", string(step.Giveaway.Status)),
		zap.Int64("user_id", c.Sender().ID),
	)
	return nil
}

func (h *Handler) handleReroll(c tele.Context) error {
	ctx, cancel := h.requestContext()
	defer cancel()

	_, err := h.giveaways.Reroll(ctx, c.Chat().ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return h.reply(c, "no_ended_giveaway", nil)
	case errors.Is(err, domain.ErrNoParticipants):
		return h.reply(c, "no_participants", nil)
	case err != nil:
		return h.fail(c, "Failed to reroll", err)
	}
	return nil
}

// handleAutoChoose shows or toggles auto-resolve
func (h *Handler) handleAutoChoose(c tele.Context) error {
	arg := strings.TrimSpace(c.Message().Payload)
	if arg == "" {
		state := "OFF"
		if h.giveaways.AutoResolve() {
			state = "ON"
		}
		return h.reply(c, "autochoose_status", map[string]any{"State": state})
	}

	enabled, ok := parseToggle(arg)
	if !ok {
		return h.reply(c, "autochoose_usage", nil)
	}

	h.giveaways.SetAutoResolve(enabled)
	h.logger.Info("Auto-resolve changed", zap.Bool("enabled", enabled), zap.Int64("user_id", c.Sender().ID))
	if enabled {
		return h.reply(c, "autochoose_on", nil)
	}
	return h.reply(c, "autochoose_off", nil)
}

// handleSetBanner takes a replied-to photo or an image URL
func (h *Handler) handleSetBanner(c tele.Context) error {
	msg := c.Message()
	if msg.ReplyTo != nil && msg.ReplyTo.Photo != nil {
		if err := h.giveaways.SetBanner(msg.ReplyTo.Photo.FileID); err != nil {
			return h.reply(c, "banner_usage", nil)
		}
		return h.reply(c, "banner_updated", nil)
	}

	url := strings.TrimSpace(msg.Payload)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return h.reply(c, "banner_usage", nil)
	}
	if err := h.giveaways.SetBanner(url); err != nil {
		return h.reply(c, "banner_usage", nil)
	}
	return h.reply(c, "banner_url_updated", nil)
}

func (h *Handler) handleMyGroups(c tele.Context) error {
	groups := h.giveaways.Destinations()
	if len(groups) == 0 {
		return h.reply(c, "no_known_groups", nil)
	}
	return h.reply(c, "known_groups", map[string]any{"Groups": formatGroups(groups)})
}

// parseToggle accepts on/off style arguments
func parseToggle(arg string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "yes", "true", "1":
		return true, true
	case "off", "no", "false", "0":
		return false, true
	}
	return false, false
}

// formatGroups lists destinations ordered by title
func formatGroups(groups map[int64]string) string {
	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if groups[ids[i]] != groups[ids[j]] {
			return groups[ids[i]] < groups[ids[j]]
		}
		return ids[i] < ids[j]
	})

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("• %s (<code>%d</code>)", escape(groups[id]), id))
	}
	return strings.Join(lines, "\n")
}
