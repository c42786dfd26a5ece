package handler

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"giveawaybot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// stepPrompts maps the step a session moved to onto the next question
var stepPrompts = map[domain.WizardStep]string{
	domain.StepPrize:      "wizard_title_set",
	domain.StepConditions: "wizard_prize_set",
	domain.StepDuration:   "wizard_conditions_set",
	domain.StepWinners:    "wizard_duration_set",
	domain.StepMinEntries: "wizard_winners_set",
}

// handleText feeds private messages to the creator's wizard session
func (h *Handler) handleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if c.Chat() == nil || c.Chat().Type != tele.ChatPrivate || c.Sender() == nil {
		return nil
	}
	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	userID := c.Sender().ID
	if !h.wizard.Active(userID) {
		if h.auth.IsAuthorized(userID) {
			return h.reply(c, "use_host", nil)
		}
		return nil
	}

	session, err := h.wizard.Input(userID, text)
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return h.reply(c, "use_host", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		if session.Ready {
			return h.sendGroupPicker(c, userID)
		}
		if numericStep(session.Step) {
			return h.reply(c, "wizard_number_please", nil)
		}
		return h.reply(c, "wizard_text_please", nil)
	case err != nil:
		return h.fail(c, "Failed to apply wizard input", err)
	}

	h.logger.Debug("Wizard step accepted",
		zap.Int64("user_id", userID),
		zap.Int("step", int(session.Step)),
		zap.Bool("ready", session.Ready),
	)

	if session.Ready {
		return h.sendGroupPicker(c, userID)
	}
	return h.reply(c, stepPrompts[session.Step], nil)
}

// sendGroupPicker offers every known group as a destination
func (h *Handler) sendGroupPicker(c tele.Context, userID int64) error {
	groups := h.wizard.Destinations()
	if len(groups) == 0 {
		return h.reply(c, "wizard_no_groups", nil)
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return groups[ids[i]] < groups[ids[j]] })

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(ids))
	for _, id := range ids {
		btn := markup.Data(groups[id], btnWizardSelect.Unique, strconv.FormatInt(userID, 10), strconv.FormatInt(id, 10))
		rows = append(rows, markup.Row(btn))
	}
	markup.Inline(rows...)

	return c.Send(h.tr.T("wizard_select_group", nil), markup, tele.ModeHTML)
}

func numericStep(step domain.WizardStep) bool {
	return step == domain.StepDuration || step == domain.StepWinners || step == domain.StepMinEntries
}
