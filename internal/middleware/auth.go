package middleware

import (
	"giveawaybot/internal/i18n"
	"giveawaybot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// OperatorOnly lets through the owner and approved operators
func OperatorOnly(authService *service.AuthService, tr *i18n.Translator, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || !authService.IsAuthorized(sender.ID) {
				logger.Debug("Rejected unauthorized user", zap.Int64("user_id", senderID(c)))
				return deny(c, tr, "access_denied")
			}
			return next(c)
		}
	}
}

// OwnerOnly lets through the super-operator only
func OwnerOnly(authService *service.AuthService, tr *i18n.Translator, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || !authService.IsOwner(sender.ID) {
				logger.Debug("Rejected non-owner", zap.Int64("user_id", senderID(c)))
				return deny(c, tr, "owner_only")
			}
			return next(c)
		}
	}
}

func deny(c tele.Context, tr *i18n.Translator, key string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: tr.T("cb_denied", nil), ShowAlert: true})
	}
	return c.Send(tr.T(key, nil), tele.ModeHTML)
}

func senderID(c tele.Context) int64 {
	if c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}
