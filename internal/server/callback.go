package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/auth"
	"golang.org/x/oauth2"
)

// linker completes the account-linking handshake for a state/code pair.
type linker interface {
	CompleteLink(ctx context.Context, state, code string) (*auth.StateRecord, error)
}

// notifier delivers a confirmation back to the chat that started the link.
type notifier interface {
	SendMessage(chatID int64, text string) error
}

// LinkCallbackHandler terminates the account-linking redirect for chat users.
//
// Unlike the one-shot [BootstrapHandler], this handler stays mounted for the
// server's lifetime: each callback is validated against its own one-time state
// record, so replay protection lives in the state store, not here.
type LinkCallbackHandler struct {
	accounts linker
	notify   notifier
	logger   *log.Logger
}

// NewLinkCallbackHandler creates the account-linking callback handler.
// notify may be nil when no chat confirmation is wanted.
func NewLinkCallbackHandler(accounts linker, notify notifier, logger *log.Logger) *LinkCallbackHandler {
	return &LinkCallbackHandler{accounts: accounts, notify: notify, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *LinkCallbackHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *LinkCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam)
		writeResultPage(w, http.StatusBadRequest, "Authorization Failed",
			"Spotify reported: "+errParam+". You can close this window and try /link again.")
		return
	}

	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		writeResultPage(w, http.StatusBadRequest, "Authorization Failed",
			"The callback is missing its state or code parameter.")
		return
	}

	record, err := h.accounts.CompleteLink(r.Context(), state, code)
	if err != nil {
		h.logger.Warn("link completion failed", "error", err)
		writeResultPage(w, http.StatusBadRequest, "Authorization Failed",
			"The link could not be completed. The request may have expired; send /link again for a fresh one.")
		return
	}

	h.logger.Info("account linked", "principal", record.Principal, "chat", record.ChatID)
	if h.notify != nil && record.ChatID != 0 {
		if err := h.notify.SendMessage(record.ChatID, "Your Spotify account is connected. Links you post are now added under your name."); err != nil {
			h.logger.Warn("failed to confirm link in chat", "chat", record.ChatID, "error", err)
		}
	}

	writeResultPage(w, http.StatusOK, "✓ Account Connected",
		"You can close this window and return to the chat.")
}

// BootstrapResult contains the result of the one-shot bootstrap flow.
type BootstrapResult struct {
	Token *oauth2.Token
	err   error
}

func (b *BootstrapResult) Error() error {
	return b.err
}

// BootstrapHandler handles the OAuth2 callback for the operator's one-time
// token bootstrap. Implements the Handler interface for registration with a
// Router.
//
// It only processes one callback to prevent replay attacks; the outcome is
// delivered through a channel to the waiting CLI command.
type BootstrapHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan BootstrapResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewBootstrapHandler creates a bootstrap handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewBootstrapHandler(config *oauth2.Config, state string) *BootstrapHandler {
	return &BootstrapHandler{
		config:     config,
		state:      state,
		resultChan: make(chan BootstrapResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *BootstrapHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(BootstrapResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(BootstrapResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.Send(BootstrapResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(BootstrapResult{Token: token})
	writeResultPage(w, http.StatusOK, "✓ Authorization Successful",
		"You can close this window and return to the terminal.")
}

// Send sends the bootstrap result through the channel (only once).
func (h *BootstrapHandler) Send(result BootstrapResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *BootstrapHandler) Result() <-chan BootstrapResult {
	return h.resultChan
}

func writeResultPage(w http.ResponseWriter, status int, heading, detail string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`, heading, heading, detail)
}
