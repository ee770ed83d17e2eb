// internal/bot/telegram.go
package bot

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram adapts the Telegram Bot API to the Transport interface and
// feeds inbound updates to the controller.
type Telegram struct {
	api *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on Telegram account %s", api.Self.UserName)
	return &Telegram{api: api}, nil
}

// Username returns the bot's own Telegram username.
func (t *Telegram) Username() string {
	return t.api.Self.UserName
}

func (t *Telegram) Send(chatID int64, text string, kb Keyboard) (MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = toMarkup(kb)
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (t *Telegram) Edit(ref MessageRef, text string, kb Keyboard) error {
	var edit tgbotapi.Chattable
	if kb != nil {
		markup := toMarkup(kb)
		e := tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, text, markup)
		edit = e
	} else {
		edit = tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	}
	_, err := t.api.Send(edit)
	return err
}

func (t *Telegram) Delete(ref MessageRef) error {
	_, err := t.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}

func toMarkup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Run consumes Telegram updates until the context is cancelled. Each
// event is dispatched on its own goroutine; the controller's per-identity
// lock serializes same-user events so a slow panel call stalls only the
// issuing user's flow.
func (t *Telegram) Run(ctx context.Context, ctrl *Controller) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)

	log.Info("Listening for Telegram updates")
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			ev, ok := t.toEvent(update)
			if !ok {
				continue
			}
			go ctrl.Handle(ctx, ev)
		}
	}
}

// toEvent maps a raw update to a controller event. Callback queries are
// answered here so buttons stop their loading spinner regardless of what
// the controller does with the event.
func (t *Telegram) toEvent(update tgbotapi.Update) (Event, bool) {
	if cb := update.CallbackQuery; cb != nil {
		if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Debugf("Failed to answer callback query: %v", err)
		}
		if cb.Message == nil {
			return Event{}, false
		}
		return Event{
			Identity: cb.From.ID,
			Kind:     EventCallback,
			Data:     cb.Data,
			Origin:   MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID},
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return Event{}, false
	}
	ref := MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID}

	if msg.IsCommand() {
		return Event{
			Identity: msg.From.ID,
			Kind:     EventCommand,
			Command:  msg.Command(),
			Args:     strings.TrimSpace(msg.CommandArguments()),
			Message:  ref,
		}, true
	}
	if msg.Text != "" {
		return Event{
			Identity: msg.From.ID,
			Kind:     EventText,
			Text:     msg.Text,
			Message:  ref,
		}, true
	}
	return Event{}, false
}
