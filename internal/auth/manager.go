// package auth owns the OAuth credential lifecycle for the bot-default
// principal and every linked end user.
//
// Credentials live in the durable store under credential:<principal>; the
// three-legged linking handshake runs through one-time state records under
// oauth_state:<token>. Concurrent refreshes for one principal are not mutually
// excluded: the provider tolerates a stale refresh token presented twice, and
// the last writer wins on the stored credential.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

var scopes = []string{
	"playlist-modify-public",
	"playlist-modify-private",
}

// Manager implements the credential lifecycle: get-or-refresh, the linking
// handshake, and unlinking.
type Manager struct {
	kv     store.KV
	config *oauth2.Config
	logger *log.Logger
	now    func() time.Time

	// Long-lived pair for the bot-default principal, used to seed an empty
	// store and as a one-shot fallback after a failed refresh.
	fallbackAccess  string
	fallbackRefresh string
}

// ManagerOpts contains configuration options for creating a Manager.
type ManagerOpts struct {
	KV              store.KV
	ClientID        string
	ClientSecret    string
	RedirectURI     string
	FallbackAccess  string
	FallbackRefresh string
	Logger          *log.Logger

	// Endpoint overrides the provider token/authorize URLs in tests.
	Endpoint *oauth2.Endpoint
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewManager creates a Manager with the provided options.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.KV == nil {
		return nil, fmt.Errorf("%w: store required", shared.ErrInvalidConfig)
	}
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret required", shared.ErrMissingCredentials)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	endpoint := oauth2.Endpoint{AuthURL: spotifyAuthURL, TokenURL: spotifyTokenURL}
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}

	return &Manager{
		kv:              opts.KV,
		config:          config,
		logger:          opts.Logger,
		now:             opts.Now,
		fallbackAccess:  opts.FallbackAccess,
		fallbackRefresh: opts.FallbackRefresh,
	}, nil
}

// AccessToken returns a usable access token for the principal.
//
// A non-expired stored credential is returned as-is. An expired one is
// refreshed and persisted; the stored refresh token is replaced only when the
// provider issued a new one. An end-user principal with no credential fails
// with [shared.ErrNotLinked] — the caller decides whether to retry as the
// bot-default principal, never this method. The bot-default principal falls
// back once to the statically configured long-lived token after a failed
// refresh, logging the degraded state.
func (m *Manager) AccessToken(ctx context.Context, principal string) (string, error) {
	cred, ok, err := loadCredential(ctx, m.kv, principal)
	if err != nil {
		return "", err
	}

	if !ok {
		if principal != DefaultPrincipal {
			return "", fmt.Errorf("%w: %s", shared.ErrNotLinked, principal)
		}
		if m.fallbackRefresh == "" && m.fallbackAccess == "" {
			return "", fmt.Errorf("%w: no stored or configured default credential", shared.ErrRefreshFailed)
		}
		// Seed from the configured pair with expires_at in the past, forcing
		// an immediate refresh below.
		cred = &Credential{
			Principal:    DefaultPrincipal,
			AccessToken:  m.fallbackAccess,
			RefreshToken: m.fallbackRefresh,
		}
	}

	if !cred.IsExpired(m.now()) {
		return cred.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, cred)
	if err == nil {
		return refreshed.AccessToken, nil
	}

	if principal == DefaultPrincipal && m.fallbackAccess != "" {
		m.logger.Warn("default credential refresh failed, using static fallback token",
			"error", err)
		return m.fallbackAccess, nil
	}

	return "", err
}

// refresh exchanges the credential's refresh token for a new token pair and
// persists the result. A failed refresh never touches the stored credential.
func (m *Manager) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoRefreshToken, cred.Principal)
	}

	stale := &oauth2.Token{
		RefreshToken: cred.RefreshToken,
		Expiry:       time.Unix(0, 0),
	}
	token, err := m.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	next := &Credential{
		Principal:    cred.Principal,
		AccessToken:  token.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    token.Expiry.UnixMilli(),
		UpdatedAt:    m.now().UnixMilli(),
	}
	if token.RefreshToken != "" {
		next.RefreshToken = token.RefreshToken
	}

	if err := saveCredential(ctx, m.kv, next); err != nil {
		return nil, err
	}

	m.logger.Info("refreshed credential", "principal", cred.Principal)
	return next, nil
}

// Linked reports whether a principal has a stored credential.
func (m *Manager) Linked(ctx context.Context, principal string) (bool, error) {
	_, ok, err := loadCredential(ctx, m.kv, principal)
	return ok, err
}

// Unlink deletes the principal's stored credential.
func (m *Manager) Unlink(ctx context.Context, principal string) error {
	if err := m.kv.Delete(ctx, store.CredentialKey(principal)); err != nil {
		return fmt.Errorf("failed to unlink %s: %w", principal, err)
	}
	return nil
}

// SeedDefault writes the configured fallback pair as the bot-default
// credential when the store holds none, marked already expired so the first
// use refreshes it.
func (m *Manager) SeedDefault(ctx context.Context) error {
	_, ok, err := loadCredential(ctx, m.kv, DefaultPrincipal)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if m.fallbackAccess == "" && m.fallbackRefresh == "" {
		return nil
	}

	return saveCredential(ctx, m.kv, &Credential{
		Principal:    DefaultPrincipal,
		AccessToken:  m.fallbackAccess,
		RefreshToken: m.fallbackRefresh,
		UpdatedAt:    m.now().UnixMilli(),
	})
}

// IsNotLinked reports whether err is the missing-credential failure.
func IsNotLinked(err error) bool {
	return errors.Is(err, shared.ErrNotLinked)
}
