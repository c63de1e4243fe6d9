// Package bot adapts inbound Telegram intents (commands, button presses,
// free-text replies) onto booking state machine transitions.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"setbook/internal/booking"
	"setbook/internal/metrics"
	"setbook/internal/models"
)

// Limits configures per-user inbound throttling.
type Limits struct {
	PerUserPerMinute int
	Burst            int
}

// Bot routes Telegram updates to the booking service.
type Bot struct {
	tg          TelegramClient
	service     *booking.Service
	sessions    *sessionStore
	limiters    *userLimiters
	adminChatID int64
	adminUserID string // admin chat ID with a leading "-" stripped
	logger      *zerolog.Logger
}

// New wires the router. adminChatID is the raw configured identity, possibly
// a negative group chat ID.
func New(tg TelegramClient, service *booking.Service, adminChatID string, limits Limits, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	chatID, err := strconv.ParseInt(adminChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse admin chat id %q: %w", adminChatID, err)
	}
	if limits.PerUserPerMinute <= 0 {
		limits.PerUserPerMinute = 20
	}
	if limits.Burst <= 0 {
		limits.Burst = 5
	}
	return &Bot{
		tg:          tg,
		service:     service,
		sessions:    newSessionStore(),
		limiters:    newUserLimiters(limits.PerUserPerMinute, limits.Burst),
		adminChatID: chatID,
		adminUserID: strings.TrimPrefix(adminChatID, "-"),
		logger:      logger,
	}, nil
}

// Start begins polling updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("booking bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.HandleUpdate(updateCtx, &update)
		}
	}
}

// HandleUpdate dispatches one update. Panics are recovered here so a broken
// intent never takes the process down or leaves a half-applied reply.
func (b *Bot) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", r).Msg("update handler panicked")
			if chatID, ok := updateChatID(update); ok {
				b.reply(chatID, "Something went wrong. Please try again or contact the admin.")
			}
		}
	}()

	if update.CallbackQuery != nil {
		if !b.allow(update.CallbackQuery.From.ID) {
			return
		}
		zerolog.Ctx(ctx).Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil && update.Message.From != nil {
		if !b.allow(update.Message.From.ID) {
			return
		}
		zerolog.Ctx(ctx).Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
		return
	}
}

func (b *Bot) allow(userID int64) bool {
	if b.limiters.allow(userID) {
		return true
	}
	metrics.IncDroppedUpdate()
	return false
}

func updateChatID(update *tgbotapi.Update) (int64, bool) {
	if update.Message != nil {
		return update.Message.Chat.ID, true
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	identity := identityFrom(msg.From)
	r := messageResponder{tg: b.tg, chatID: chatID}

	switch msg.Command() {
	case "start":
		b.handleStart(chatID)
	case "book":
		b.handleBookCommand(ctx, userID, chatID, identity, msg.CommandArguments(), r)
	case "edit_book":
		b.handleEditCommand(ctx, userID, chatID, identity, msg.CommandArguments(), r)
	case "cancel_booking":
		b.handleCancelCommand(ctx, userID, chatID, identity, r)
	case "summary":
		if !b.requireAdmin(userID, r) {
			return
		}
		b.handleSummary(ctx, r)
	case "reset":
		if !b.requireAdmin(userID, r) {
			return
		}
		b.handleResetCommand(userID, chatID)
	case "send_message":
		if !b.requireAdmin(userID, r) {
			return
		}
		b.handleSendMessage(ctx, msg.CommandArguments(), r)
	case "export":
		if !b.requireAdmin(userID, r) {
			return
		}
		b.handleExport(ctx, chatID, r)
	default:
		b.reply(chatID, "Unknown command. Try /book, /edit_book or /cancel_booking.")
	}
}

// handleText resumes a pending session with a free-text reply.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	r := messageResponder{tg: b.tg, chatID: chatID}

	sess, ok := b.sessions.get(userID)
	if !ok {
		b.reply(chatID, "Please start with a command first: /book, /edit_book or /cancel_booking.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch sess.Action {
	case actionBookQuantity:
		sets, err := parseSets(text)
		if err != nil {
			b.reply(chatID, "Please enter a valid number. Example: <code>5</code>")
			return
		}
		b.doBook(ctx, userID, sess.Identity, sets, r)
	case actionEditDelta:
		delta, err := parseDelta(text)
		if err != nil {
			b.reply(chatID, "Please use the right format. Example: <code>+2</code> or <code>-1</code>")
			return
		}
		b.doEdit(ctx, userID, sess.Identity, delta, r)
	default:
		// Confirmation flows only accept button presses.
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	_ = b.answerCallback(cq.ID)

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	r := editResponder{tg: b.tg, chatID: chatID, messageID: cq.Message.MessageID}
	data := cq.Data

	sess, ok := b.sessions.get(userID)
	if !ok {
		_ = r.Respond("Session expired. Please run the command again.")
		return
	}

	switch {
	case data == "edit_manual":
		if sess.Action != actionEditDelta {
			b.expired(userID, r)
			return
		}
		_ = r.Respond("How many sets to add or remove? (Example: <code>+2</code> or <code>-1</code>)")
	case strings.HasPrefix(data, "edit_"):
		if sess.Action != actionEditDelta {
			b.expired(userID, r)
			return
		}
		delta, err := parseDelta(strings.TrimPrefix(data, "edit_"))
		if err != nil {
			zerolog.Ctx(ctx).Warn().Str("data", data).Msg("malformed edit callback")
			return
		}
		b.doEdit(ctx, userID, sess.Identity, delta, r)
	case data == "cancel_yes":
		if sess.Action != actionCancelConfirm {
			b.expired(userID, r)
			return
		}
		b.doCancel(ctx, userID, sess.Identity, r)
	case data == "cancel_no":
		b.sessions.end(userID)
		_ = r.Respond("✅ Your booking stays as it is.")
	case data == "reset_confirm":
		if sess.Action != actionResetConfirm || !b.isAdmin(userID) {
			b.expired(userID, r)
			return
		}
		b.service.ResetAll(ctx)
		b.sessions.end(userID)
		_ = r.Respond("🔁 <b>All bookings have been reset.</b>\nNew bookings can be made now.")
	case data == "reset_cancel":
		b.sessions.end(userID)
		_ = r.Respond("✅ Reset cancelled.")
	}
}

func (b *Bot) expired(userID int64, r Responder) {
	b.sessions.end(userID)
	_ = r.Respond("Session expired. Please run the command again.")
}

func (b *Bot) isAdmin(userID int64) bool {
	return strconv.FormatInt(userID, 10) == b.adminUserID
}

func (b *Bot) requireAdmin(userID int64, r Responder) bool {
	if b.isAdmin(userID) {
		return true
	}
	_ = r.Respond("❌ This command is for the admin only.")
	return false
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send reply failed")
	}
}

func (b *Bot) answerCallback(id string) error {
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}

func identityFrom(user *tgbotapi.User) models.Identity {
	username := "No username"
	if user.UserName != "" {
		username = "@" + user.UserName
	}
	fullName := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if fullName == "" {
		fullName = "Unknown"
	}
	return models.Identity{Username: username, FullName: fullName}
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
