package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"setbook/internal/booking"
	"setbook/internal/metrics"
)

// adminNotifier delivers booking events to the admin chat. Delivery is fire
// and forget: a failed send is logged and counted, never surfaced to the
// mutation that triggered it.
type adminNotifier struct {
	tg     TelegramClient
	chatID int64
	logger *zerolog.Logger
}

// NewAdminNotifier builds the booking.Notifier backed by the admin chat.
func NewAdminNotifier(tg TelegramClient, adminChatID int64, logger *zerolog.Logger) booking.Notifier {
	return &adminNotifier{tg: tg, chatID: adminChatID, logger: logger}
}

func (n *adminNotifier) BookingCreated(ctx context.Context, ev booking.CreatedEvent) {
	n.send(ctx, fmt.Sprintf(
		"📦 <b>New booking!</b>\n"+
			"👤 User: %s (%s)\n"+
			"🔢 Sets: %d\n"+
			"🕒 %s",
		ev.Identity.FullName, ev.Identity.Username, ev.Sets, ev.Timestamp))
}

func (n *adminNotifier) BookingEdited(ctx context.Context, ev booking.EditEvent) {
	n.send(ctx, fmt.Sprintf(
		"🔄 <b>Booking edited!</b>\n"+
			"👤 User: %s (%s)\n"+
			"🔢 Before: %d → Now: %d\n"+
			"🕒 %s",
		ev.Identity.FullName, ev.Identity.Username, ev.Before, ev.After, ev.Timestamp))
}

func (n *adminNotifier) BookingCancelled(ctx context.Context, ev booking.CancelEvent) {
	n.send(ctx, fmt.Sprintf(
		"❌ <b>Booking cancelled!</b>\n"+
			"👤 User: %s (%s)\n"+
			"🔢 Was: %d sets\n"+
			"🕒 %s",
		ev.Identity.FullName, ev.Identity.Username, ev.Sets, ev.Timestamp))
}

func (n *adminNotifier) send(ctx context.Context, text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.tg.Send(msg); err != nil {
		metrics.IncNotifyError()
		zerolog.Ctx(ctx).Error().Err(err).Msg("admin notification failed")
	}
}
