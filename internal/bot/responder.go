package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Responder is how a handler's outcome reaches the user. Command and
// free-text handlers reply with a fresh message; callback handlers edit the
// message carrying the pressed button. Flow handlers receive one of these
// explicitly so both entry paths share the same code.
type Responder interface {
	Respond(text string) error
}

type messageResponder struct {
	tg     TelegramClient
	chatID int64
}

func (r messageResponder) Respond(text string) error {
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.tg.Send(msg)
	return err
}

type editResponder struct {
	tg        TelegramClient
	chatID    int64
	messageID int
}

func (r editResponder) Respond(text string) error {
	edit := tgbotapi.NewEditMessageText(r.chatID, r.messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := r.tg.Send(edit)
	return err
}
