package handler

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"giveawaybot/internal/domain"
	"giveawaybot/internal/registry"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError treats "message is not modified" as success since another
// callback already edited the message
func (h *Handler) handleEditError(err error, c tele.Context) error {
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback",
			zap.Int64("user_id", c.Sender().ID),
			zap.String("callback_id", c.Callback().ID),
		)
		return nil
	}

	h.logger.Warn("Failed to edit message",
		zap.Error(err),
		zap.Int64("user_id", c.Sender().ID),
		zap.String("callback_id", c.Callback().ID),
	)
	return err
}

// handleJoin adds the presser to the giveaway behind the card
func (h *Handler) handleJoin(c tele.Context) error {
	giveawayID := cleanCallbackData(c.Callback().Data)

	ctx, cancel := h.requestContext()
	defer cancel()

	result := h.giveaways.Join(ctx, giveawayID, c.Sender().ID)
	h.logger.Debug("Join pressed",
		zap.String("giveaway_id", giveawayID),
		zap.Int64("user_id", c.Sender().ID),
		zap.Stringer("result", result),
	)

	switch result {
	case registry.Joined:
		return h.answer(c, "cb_joined", false)
	case registry.AlreadyJoined:
		return h.answer(c, "cb_already_in", false)
	}
	return h.answer(c, "cb_ended", false)
}

func (h *Handler) handleConfirmCancel(c tele.Context) error {
	giveawayID := cleanCallbackData(c.Callback().Data)

	ctx, cancel := h.requestContext()
	defer cancel()

	g, err := h.giveaways.ConfirmCancel(ctx, giveawayID)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotOpen):
		return h.answer(c, "cb_gone", false)
	case err != nil:
		return h.fail(c, "Failed to cancel giveaway", err)
	}

	h.logger.Info("Giveaway cancelled by operator",
		zap.String("giveaway_id", g.ID),
		zap.Int64("user_id", c.Sender().ID),
	)
	if err := c.Delete(); err != nil {
		h.logger.Debug("Failed to delete confirmation", zap.Error(err))
	}
	return h.answer(c, "cb_cancelled", false)
}

func (h *Handler) handleCancelNo(c tele.Context) error {
	if err := c.Delete(); err != nil {
		h.logger.Debug("Failed to delete confirmation", zap.Error(err))
	}
	return h.answer(c, "cb_back", false)
}

// handleWizardSelect publishes the creator's giveaway to the picked group
func (h *Handler) handleWizardSelect(c tele.Context) error {
	creatorID, chatID, err := parseWizardSelect(cleanCallbackData(c.Callback().Data))
	if err != nil {
		return h.answer(c, "cb_expired", false)
	}
	if creatorID != c.Sender().ID {
		return h.answer(c, "cb_not_yours", true)
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	g, err := h.wizard.Finish(ctx, creatorID, chatID)
	switch {
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, domain.ErrWizardIncomplete):
		return h.answer(c, "cb_expired", false)
	case errors.Is(err, domain.ErrUnknownDestination):
		return h.answer(c, "cb_unknown_group", true)
	case errors.Is(err, domain.ErrNotification):
		return h.answer(c, "cb_publish_failed", true)
	case err != nil:
		return h.fail(c, "Failed to finish wizard", err)
	}

	group := h.giveaways.Destinations()[g.ChatID]
	text := h.tr.T("wizard_published", map[string]any{"Group": escape(group)})
	if err := h.handleEditError(c.Edit(text, tele.ModeHTML), c); err != nil {
		if sendErr := c.Send(text, tele.ModeHTML); sendErr != nil {
			h.logger.Warn("Failed to confirm publish", zap.Error(sendErr))
		}
	}
	return h.answer(c, "cb_live", false)
}

// parseWizardSelect splits "creator|chat" button data
func parseWizardSelect(data string) (int64, int64, error) {
	creator, chat, ok := strings.Cut(data, "|")
	if !ok {
		return 0, 0, domain.ErrInvalidInput
	}

	creatorID, err := strconv.ParseInt(creator, 10, 64)
	if err != nil {
		return 0, 0, domain.ErrInvalidInput
	}
	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return 0, 0, domain.ErrInvalidInput
	}
	return creatorID, chatID, nil
}
