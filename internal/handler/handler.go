package handler

import (
	"context"
	"time"

	"giveawaybot/internal/i18n"
	"giveawaybot/internal/middleware"
	"giveawaybot/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const requestTimeout = 15 * time.Second

// Handler manages all bot interactions
type Handler struct {
	bot       *tele.Bot
	auth      *service.AuthService
	giveaways *service.GiveawayService
	wizard    *service.WizardService
	tr        *i18n.Translator
	logger    *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	auth *service.AuthService,
	giveaways *service.GiveawayService,
	wizard *service.WizardService,
	tr *i18n.Translator,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:       bot,
		auth:      auth,
		giveaways: giveaways,
		wizard:    wizard,
		tr:        tr,
		logger:    logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Use(middleware.TrackDestinations(h.giveaways))

	// Anyone may join
	h.bot.Handle(&btnJoin, h.handleJoin)
	h.bot.Handle(tele.OnText, h.handleText)

	operators := h.bot.Group()
	operators.Use(middleware.OperatorOnly(h.auth, h.tr, h.logger))
	operators.Handle("/start", h.handleHelp)
	operators.Handle("/help", h.handleHelp)
	operators.Handle("/host", h.handleHost)
	operators.Handle("/abort", h.handleAbort)
	operators.Handle("/sethost", h.handleSetHost)
	operators.Handle("/cancel", h.handleCancel)
	operators.Handle("/roll", h.handleRoll)
	operators.Handle("/reroll", h.handleReroll)
	operators.Handle("/autochoose", h.handleAutoChoose)
	operators.Handle("/setbanner", h.handleSetBanner)
	operators.Handle("/my_groups", h.handleMyGroups)
	operators.Handle(&btnConfirmCancel, h.handleConfirmCancel)
	operators.Handle(&btnCancelNo, h.handleCancelNo)
	operators.Handle(&btnWizardSelect, h.handleWizardSelect)

	owner := h.bot.Group()
	owner.Use(middleware.OwnerOnly(h.auth, h.tr, h.logger))
	owner.Handle("/approve", h.handleApprove)
	owner.Handle("/unapprove", h.handleUnapprove)
	owner.Handle("/adminlist", h.handleAdminList)
}

// Inline keyboard buttons
var (
	btnJoin          = tele.Btn{Unique: "join"}
	btnConfirmCancel = tele.Btn{Unique: "confirm_cancel"}
	btnCancelNo      = tele.Btn{Unique: "cancel_no"}
	btnWizardSelect  = tele.Btn{Unique: "wizard_select"}
)

func (h *Handler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func (h *Handler) reply(c tele.Context, key string, data map[string]any) error {
	return c.Send(h.tr.T(key, data), tele.ModeHTML)
}

func (h *Handler) answer(c tele.Context, key string, alert bool) error {
	return c.Respond(&tele.CallbackResponse{Text: h.tr.T(key, nil), ShowAlert: alert})
}

// fail logs an unexpected error and shows the generic apology
func (h *Handler) fail(c tele.Context, msg string, err error) error {
	h.logger.Error(msg, zap.Error(err), zap.Int64("user_id", c.Sender().ID))
	if c.Callback() != nil {
		return h.answer(c, "error_generic", true)
	}
	return h.reply(c, "error_generic", nil)
}

// displayName is the default host name for a creator without a stored one
func displayName(u *tele.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Admin"
}
