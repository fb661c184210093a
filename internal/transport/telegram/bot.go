// Package telegram delivers chat updates to the conversation engine over
// the Telegram Bot API, in either long-polling or webhook mode.
package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/config"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/conversation"
)

// Bot bridges Telegram updates and the conversation engine.
type Bot struct {
	api    *tgbotapi.BotAPI
	engine *conversation.Engine
	cfg    config.TelegramConfig
	logger logger.Logger
	seq    *sequencer
}

func New(cfg config.TelegramConfig, engine *conversation.Engine, log logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		api:    api,
		engine: engine,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "telegram"}),
	}
	b.seq = newSequencer(b.handleUpdate)
	return b, nil
}

// RunPolling consumes updates via long polling until ctx is cancelled.
// Any previously registered webhook is removed first; Telegram refuses
// getUpdates while one is active.
func (b *Bot) RunPolling(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return err
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.cfg.PollTimeout

	updates := b.api.GetUpdatesChan(updateCfg)
	b.logger.Info("polling for updates", map[string]interface{}{
		"username": b.api.Self.UserName,
	})

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			// One worker per chat: a chat's updates are applied in arrival
			// order while a slow search in one chat never blocks the others.
			b.seq.dispatch(ctx, update.Message.Chat.ID, update)
		}
	}
}

// handleUpdate maps one Telegram update onto a conversation event and
// delivers the engine's replies. Non-message updates are ignored.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	ev := conversation.Event{
		Key:  strconv.FormatInt(msg.Chat.ID, 10),
		Kind: conversation.EventText,
		Text: msg.Text,
	}
	if msg.IsCommand() {
		ev.Kind = conversation.EventCommand
		ev.Text = msg.Command()
	}

	for _, reply := range b.engine.HandleEvent(ctx, ev) {
		b.send(msg.Chat.ID, reply)
	}
}

func (b *Bot) send(chatID int64, reply conversation.Reply) {
	out := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Options) > 0 {
		out.ReplyMarkup = optionKeyboard(reply.Options)
	} else {
		out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := b.api.Send(out); err != nil {
		b.logger.WithError(err).Error("failed to send message", map[string]interface{}{
			"chatId": chatID,
		})
	}
}

// optionKeyboard lays options out one per row so long city names stay
// readable on narrow screens.
func optionKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, len(options))
	for i, option := range options {
		rows[i] = tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(option))
	}
	return tgbotapi.NewOneTimeReplyKeyboard(rows...)
}
