package handler

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"giveawaybot/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleApprove grants operator rights to a @handle or numeric id
func (h *Handler) handleApprove(c tele.Context) error {
	ref := strings.TrimSpace(c.Message().Payload)
	if ref == "" {
		return h.reply(c, "approve_usage", nil)
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	id, added, err := h.auth.Grant(ctx, c.Sender().ID, ref)
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return h.reply(c, "owner_only", nil)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		return h.reply(c, "user_not_found", nil)
	case err != nil:
		return h.fail(c, "Failed to approve user", err)
	case !added:
		return h.reply(c, "already_approved", map[string]any{"ID": id})
	}

	h.logger.Info("Operator approved", zap.Int64("operator_id", id))
	return h.reply(c, "approved", map[string]any{"ID": id})
}

func (h *Handler) handleUnapprove(c tele.Context) error {
	ref := strings.TrimSpace(c.Message().Payload)
	if ref == "" {
		return h.reply(c, "unapprove_usage", nil)
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	id, err := h.auth.Revoke(ctx, c.Sender().ID, ref)
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return h.reply(c, "owner_only", nil)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		return h.reply(c, "unapprove_failed", nil)
	case err != nil:
		return h.fail(c, "Failed to unapprove user", err)
	}

	h.logger.Info("Operator removed", zap.Int64("operator_id", id))
	return h.reply(c, "unapproved", map[string]any{"ID": id})
}

func (h *Handler) handleAdminList(c tele.Context) error {
	ids, err := h.auth.Operators(c.Sender().ID)
	if err != nil {
		return h.reply(c, "owner_only", nil)
	}
	if len(ids) == 0 {
		return h.reply(c, "no_admins", nil)
	}

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("• <code>%d</code>", id))
	}
	return h.reply(c, "admin_list", map[string]any{"Admins": strings.Join(lines, "\n")})
}

func escape(s string) string {
	return html.EscapeString(s)
}
