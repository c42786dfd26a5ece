package middleware

import (
	"giveawaybot/internal/service"

	tele "gopkg.in/telebot.v3"
)

// TrackDestinations remembers every group the bot sees traffic from
func TrackDestinations(giveaways *service.GiveawayService) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if chat := c.Chat(); chat != nil && isGroup(chat) {
				giveaways.TrackDestination(chat.ID, chat.Title)
			}
			return next(c)
		}
	}
}

func isGroup(chat *tele.Chat) bool {
	return chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup
}
