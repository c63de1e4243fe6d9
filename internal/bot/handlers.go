package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"setbook/internal/booking"
	"setbook/internal/models"
)

// parseSets parses a booking quantity. Range validation (sets > 0) belongs
// to the state machine, not the parser.
func parseSets(text string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(text))
}

// parseDelta parses a signed quantity change, accepting "+2", "-1" and "2".
func parseDelta(text string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(text))
}

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID,
		"<b>Hi! 🙏 I am your set booking bot.</b>\n\n"+
			"<b>Available commands:</b>\n"+
			"📦 /book — make a new booking\n"+
			"✏️ /edit_book — change your existing booking\n"+
			"❌ /cancel_booking — cancel your booking\n\n"+
			"Use any command to get started!")
}

func (b *Bot) handleBookCommand(ctx context.Context, userID, chatID int64, identity models.Identity, args string, r Responder) {
	args = strings.TrimSpace(args)
	if args != "" {
		sets, err := parseSets(strings.Fields(args)[0])
		if err != nil {
			b.reply(chatID, "Please enter a number. Example: <code>/book 5</code>")
			return
		}
		b.doBook(ctx, userID, identity, sets, r)
		return
	}

	b.sessions.begin(userID, session{Action: actionBookQuantity, Identity: identity})
	b.reply(chatID, "How many sets would you like to book? (Example: <code>1</code>)")
}

func (b *Bot) doBook(ctx context.Context, userID int64, identity models.Identity, sets int, r Responder) {
	rec, ts, err := b.service.Book(ctx, userKey(userID), identity, sets)
	if err != nil {
		if errors.Is(err, booking.ErrNonPositiveSets) {
			_ = r.Respond("Please enter a positive number of sets. Example: <code>/book 5</code>")
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("book failed")
		_ = r.Respond("Could not create the booking. Please try again.")
		return
	}

	b.sessions.end(userID)
	_ = r.Respond(fmt.Sprintf(
		"✔️ <b>Your booking is confirmed!</b>\n"+
			"📦 Total sets: <b>%d</b>\n"+
			"🕒 Booking time: %s\n\n"+
			"✅ The admin has been notified.",
		rec.Sets, ts))
}

func (b *Bot) handleEditCommand(ctx context.Context, userID, chatID int64, identity models.Identity, args string, r Responder) {
	rec, ok := b.service.Current(ctx, userKey(userID))
	if !ok || !rec.IsActive() {
		b.reply(chatID, "You have no active booking yet. Please use <code>/book</code> first.")
		return
	}

	args = strings.TrimSpace(args)
	if args != "" {
		delta, err := parseDelta(strings.Fields(args)[0])
		if err != nil {
			b.reply(chatID, "Please use the right format. Example: <code>/edit_book +2</code> or <code>/edit_book -1</code>")
			return
		}
		b.doEdit(ctx, userID, identity, delta, r)
		return
	}

	b.sessions.begin(userID, session{Action: actionEditDelta, Identity: identity})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"You currently have <b>%d</b> set(s) booked.\n"+
			"How many sets to add or remove?\n"+
			"(+ to add, - to remove)\n"+
			"Example: <code>+2</code> or <code>-1</code>",
		rec.Sets))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+1", "edit_+1"),
			tgbotapi.NewInlineKeyboardButtonData("-1", "edit_-1"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+2", "edit_+2"),
			tgbotapi.NewInlineKeyboardButtonData("-2", "edit_-2"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Type it yourself", "edit_manual"),
		),
	)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send edit prompt failed")
	}
}

func (b *Bot) doEdit(ctx context.Context, userID int64, identity models.Identity, delta int, r Responder) {
	res, err := b.service.Edit(ctx, userKey(userID), identity, delta)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNoActiveBooking):
			_ = r.Respond("You have no active booking. Please use <code>/book</code> first.")
		case errors.Is(err, booking.ErrNegativeTotal):
			// Session stays so the user can try a different delta.
			_ = r.Respond("Error: total sets cannot go below zero.")
		default:
			zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("edit failed")
			_ = r.Respond("Could not update the booking. Please try again.")
		}
		return
	}

	b.sessions.end(userID)

	verb := "Add"
	amount := delta
	if delta < 0 {
		verb = "Remove"
		amount = -delta
	}
	_ = r.Respond(fmt.Sprintf(
		"✔️ <b>Booking updated!</b>\n"+
			"Before: <b>%d</b> set(s)\n"+
			"Change: <b>%s %d</b> set(s)\n"+
			"✅ New total: <b>%d</b> set(s)\n"+
			"🕒 %s",
		res.Before, verb, amount, res.After, res.Timestamp))
}

func (b *Bot) handleCancelCommand(ctx context.Context, userID, chatID int64, identity models.Identity, _ Responder) {
	rec, ok := b.service.Current(ctx, userKey(userID))
	if !ok || !rec.IsActive() {
		b.reply(chatID, "You have no active booking.")
		return
	}

	b.sessions.begin(userID, session{Action: actionCancelConfirm, Identity: identity, Sets: rec.Sets})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Do you want to cancel your booking of <b>%d</b> set(s)?\n"+
			"⚠️ This action cannot be undone!",
		rec.Sets))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, cancel it", "cancel_yes"),
			tgbotapi.NewInlineKeyboardButtonData("❌ No, keep it", "cancel_no"),
		),
	)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send cancel prompt failed")
	}
}

func (b *Bot) doCancel(ctx context.Context, userID int64, identity models.Identity, r Responder) {
	res, err := b.service.Cancel(ctx, userKey(userID), identity)
	if err != nil {
		if errors.Is(err, booking.ErrNoActiveBooking) {
			b.sessions.end(userID)
			_ = r.Respond("You have no active booking.")
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("cancel failed")
		_ = r.Respond("Could not cancel the booking. Please try again.")
		return
	}

	b.sessions.end(userID)
	_ = r.Respond(fmt.Sprintf(
		"❌ <b>Your booking has been cancelled.</b>\n"+
			"🕒 %s\n\n"+
			"✅ The admin has been notified.",
		res.Timestamp))
}

func (b *Bot) handleSummary(ctx context.Context, r Responder) {
	sum := b.service.Summarize(ctx)

	var sb strings.Builder
	sb.WriteString("📋 <b>Booking summary:</b>\n\n")

	if len(sum.Active) > 0 {
		sb.WriteString("<b>🚀 Active bookings:</b>\n")
		for _, a := range sum.Active {
			sb.WriteString(fmt.Sprintf("👤 %s (<a href='tg://user?id=%s'>%s</a>) — <b>%d</b> sets\n",
				a.FullName, a.UserID, a.Username, a.Sets))
		}
	} else {
		sb.WriteString("No active bookings available.\n")
	}

	if len(sum.Cancelled) > 0 {
		sb.WriteString("\n<b>🗑️ Cancelled bookings:</b>\n")
		for _, c := range sum.Cancelled {
			sb.WriteString(fmt.Sprintf("❌ %s (<a href='tg://user?id=%s'>%s</a>) — cancelled (was: %d sets)\n",
				c.FullName, c.UserID, c.Username, c.SetsBeforeCancel))
		}
	}

	sb.WriteString(fmt.Sprintf("\n<b>Total active sets: %d</b>", sum.TotalActiveSets))
	_ = r.Respond(sb.String())
}

func (b *Bot) handleResetCommand(userID, chatID int64) {
	b.sessions.begin(userID, session{Action: actionResetConfirm})

	msg := tgbotapi.NewMessage(chatID,
		"⚠️ <b>Do you really want to reset all bookings?</b>\n"+
			"This wipes all data and cannot be undone.")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, reset", "reset_confirm"),
			tgbotapi.NewInlineKeyboardButtonData("❌ No, cancel", "reset_cancel"),
		),
	)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send reset prompt failed")
	}
}

func (b *Bot) handleSendMessage(ctx context.Context, args string, r Responder) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		_ = r.Respond("❌ Use the right format: <code>/send_message &lt;username&gt; &lt;your message&gt;</code>\n" +
			"Example: <code>/send_message @example_user Hello!</code>")
		return
	}

	target := fields[0]
	text := strings.Join(fields[1:], " ")

	userID, _, err := b.service.FindByUsername(ctx, target)
	if err != nil {
		if errors.Is(err, booking.ErrUserNotFound) {
			zerolog.Ctx(ctx).Warn().Str("username", target).Msg("broadcast target not found")
			_ = r.Respond(fmt.Sprintf(
				"❌ User <b>%s</b> not found. Check the username, or make sure the user has talked to the bot before.",
				target))
			return
		}
		_ = r.Respond("Could not look up the user. Please try again.")
		return
	}

	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("stored user id is not numeric")
		_ = r.Respond("Could not deliver the message.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("username", target).Msg("broadcast delivery failed")
		_ = r.Respond(fmt.Sprintf("❌ Error while sending the message: %v", err))
		return
	}

	zerolog.Ctx(ctx).Info().Str("username", target).Str("user_id", userID).Msg("broadcast delivered")
	_ = r.Respond(fmt.Sprintf("✔️ Message sent to <b>%s</b> (ID: %s).", target, userID))
}
