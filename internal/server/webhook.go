package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxUpdateBytes caps the accepted webhook payload size.
const maxUpdateBytes = 1 << 20

// eventHandler processes one decoded chat event.
type eventHandler interface {
	HandleEvent(ctx context.Context, ev bot.Event) error
}

// WebhookHandler ingests Telegram webhook updates.
//
// Telegram expects a fast 200; event processing runs in a goroutine and its
// failures surface through the bot's own error reporting, never the response.
type WebhookHandler struct {
	events eventHandler
	secret string // X-Telegram-Bot-Api-Secret-Token, empty disables the check
	logger *log.Logger

	// base context for detached event processing, so in-flight events stop
	// with the server rather than with the request
	baseCtx context.Context
}

// NewWebhookHandler creates a webhook handler. baseCtx bounds the lifetime of
// spawned event processing; nil means context.Background.
func NewWebhookHandler(baseCtx context.Context, events eventHandler, secret string, logger *log.Logger) *WebhookHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &WebhookHandler{baseCtx: baseCtx, events: events, secret: secret, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *WebhookHandler) Routes() []string {
	return []string{"/webhook"}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.secret != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		h.logger.Warn("rejecting malformed update", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ev, usable := bot.EventFromUpdate(update)
	if usable {
		go func() {
			if err := h.events.HandleEvent(h.baseCtx, ev); err != nil {
				h.logger.Error("event handling failed", "chat", ev.Chat.ID, "error", err)
			}
		}()
	}

	w.WriteHeader(http.StatusOK)
}
