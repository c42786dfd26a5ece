package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"giveawaybot/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

var errNoCard = errors.New("giveaway has no card message")

// Sender is the subset of *tele.Bot used to talk to chats
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditCaption(msg tele.Editable, caption string, opts ...interface{}) (*tele.Message, error)
	Pin(msg tele.Editable, opts ...interface{}) error
	ChatByID(id int64) (*tele.Chat, error)
	ChatByUsername(name string) (*tele.Chat, error)
}

// BannerSource provides the operator-configured banner, empty if unset
type BannerSource interface {
	Banner() string
}

// Notifier posts and edits giveaway messages
type Notifier struct {
	bot           Sender
	render        *Renderer
	banners       BannerSource
	defaultBanner string
	names         *lru.Cache[int64, string]
	logger        *zap.Logger
}

// NewNotifier creates a notifier. nameCacheSize bounds the winner display name cache.
func NewNotifier(bot Sender, render *Renderer, banners BannerSource, defaultBanner string, nameCacheSize int, logger *zap.Logger) (*Notifier, error) {
	names, err := lru.New[int64, string](nameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create name cache: %w", err)
	}

	return &Notifier{
		bot:           bot,
		render:        render,
		banners:       banners,
		defaultBanner: defaultBanner,
		names:         names,
		logger:        logger,
	}, nil
}

// Publish posts the card, pins it and returns its message id
func (n *Notifier) Publish(ctx context.Context, g *domain.Giveaway) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	text := n.render.Card(g)
	var what interface{} = text
	if banner := n.banners.Banner(); banner != "" {
		what = &tele.Photo{File: bannerFile(banner), Caption: text}
	}

	msg, err := n.bot.Send(tele.ChatID(g.ChatID), what, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: n.render.JoinMarkup(g.ID),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send card: %w", err)
	}

	if err := n.bot.Pin(msg); err != nil {
		n.logger.Warn("Failed to pin card",
			zap.String("giveaway_id", g.ID),
			zap.Int64("chat_id", g.ChatID),
			zap.Error(err),
		)
	}

	return msg.ID, nil
}

// Announce posts the winners. The first announcement is pinned, rerolls are not.
func (n *Notifier) Announce(ctx context.Context, g *domain.Giveaway, winners []int64, reroll bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mentions := make([]string, 0, len(winners))
	for _, id := range winners {
		mentions = append(mentions, Mention(id, n.displayName(id)))
	}
	text := n.render.Announcement(g, mentions, reroll)

	banner := n.banners.Banner()
	if banner == "" {
		banner = n.defaultBanner
	}
	var what interface{} = text
	if banner != "" {
		what = &tele.Photo{File: bannerFile(banner), Caption: text}
	}

	msg, err := n.bot.Send(tele.ChatID(g.ChatID), what, &tele.SendOptions{ParseMode: tele.ModeHTML})
	if err != nil {
		return fmt.Errorf("failed to send announcement: %w", err)
	}

	if !reroll {
		if err := n.bot.Pin(msg); err != nil {
			n.logger.Warn("Failed to pin announcement", zap.String("giveaway_id", g.ID), zap.Error(err))
		}
	}
	return nil
}

// Refresh re-renders the card in place
func (n *Notifier) Refresh(ctx context.Context, g *domain.Giveaway) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.editCard(g, n.render.Card(g), n.render.JoinMarkup(g.ID))
}

// NotifyExpired tells the destination that an operator has to roll
func (n *Notifier) NotifyExpired(ctx context.Context, g *domain.Giveaway) error {
	return n.send(ctx, g.ChatID, n.render.T("notify_expired", nil))
}

// NotifyCancelled tells the destination the giveaway was dropped
func (n *Notifier) NotifyCancelled(ctx context.Context, g *domain.Giveaway, reason error) error {
	n.logger.Info("Giveaway cancelled",
		zap.String("giveaway_id", g.ID),
		zap.Int("entries", g.EntryCount()),
		zap.Int("min_entries", g.MinEntries),
		zap.NamedError("reason", reason),
	)
	return n.send(ctx, g.ChatID, n.render.T("notify_cancelled", nil))
}

// MarkCancelled replaces the card with the cancelled banner and drops the button
func (n *Notifier) MarkCancelled(ctx context.Context, g *domain.Giveaway) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.editCard(g, n.render.T("card_cancelled", nil), nil)
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Send(tele.ChatID(chatID), text, tele.ModeHTML); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// editCard edits the caption first since cards with a banner are photos,
// then falls back to a text edit
func (n *Notifier) editCard(g *domain.Giveaway, text string, markup *tele.ReplyMarkup) error {
	if g.MessageID == 0 {
		return errNoCard
	}

	card := tele.StoredMessage{MessageID: strconv.Itoa(g.MessageID), ChatID: g.ChatID}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}

	_, captionErr := n.bot.EditCaption(card, text, opts)
	if captionErr == nil || notModified(captionErr) {
		return nil
	}

	_, err := n.bot.Edit(card, text, opts)
	if err == nil || notModified(err) {
		return nil
	}
	return fmt.Errorf("failed to edit card: %w", errors.Join(captionErr, err))
}

// displayName resolves a user's name once and caches it
func (n *Notifier) displayName(userID int64) string {
	if name, ok := n.names.Get(userID); ok {
		return name
	}

	name := fmt.Sprintf("user_%d", userID)
	chat, err := n.bot.ChatByID(userID)
	if err != nil {
		n.logger.Debug("Failed to resolve winner name", zap.Int64("user_id", userID), zap.Error(err))
		return name
	}

	switch {
	case chat.FirstName != "":
		name = strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	case chat.Username != "":
		name = "@" + chat.Username
	}
	n.names.Add(userID, name)
	return name
}

// notModified reports Telegram's answer to an edit that changes nothing
func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
