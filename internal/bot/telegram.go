package bot

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/shared"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink delivers messages through the Telegram Bot API.
type TelegramSink struct {
	api *tgbotapi.BotAPI
}

// NewTelegramSink creates a sink over an authenticated Bot API client.
func NewTelegramSink(api *tgbotapi.BotAPI) *TelegramSink {
	return &TelegramSink{api: api}
}

func (s *TelegramSink) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (s *TelegramSink) SendPhoto(chatID int64, photoURL, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	if _, err := s.api.Send(photo); err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// EventFromUpdate converts a Telegram update into an Event. Updates without a
// usable message (edits, callbacks, service messages without text) are skipped.
func EventFromUpdate(update tgbotapi.Update) (Event, bool) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return Event{}, false
	}
	return Event{
		ID:   msg.MessageID,
		Chat: Chat{ID: msg.Chat.ID, Type: msg.Chat.Type},
		From: User{ID: msg.From.ID, Username: msg.From.UserName},
		Text: msg.Text,
	}, true
}

// Poll consumes updates via long polling until the context is cancelled.
// Webhook deployments use the HTTP server instead.
func (b *Bot) Poll(ctx context.Context, api *tgbotapi.BotAPI, logger *log.Logger) error {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := tgbotapi.NewUpdate(0)
	config.Timeout = 30
	updates := api.GetUpdatesChan(config)
	defer api.StopReceivingUpdates()

	logger.Info("polling for updates", "bot", api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			ev, usable := EventFromUpdate(update)
			if !usable {
				continue
			}
			if err := b.HandleEvent(ctx, ev); err != nil {
				logger.Error("event handling failed", "chat", ev.Chat.ID, "error", err)
			}
		}
	}
}
