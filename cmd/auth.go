package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mixtaper/internal/auth"
	"github.com/desertthunder/mixtaper/internal/server"
	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Bootstrap performs the operator's one-time OAuth2 flow for the bot account.
//
// Starts a local HTTP server, opens the browser for authorization, exchanges
// the code, prints the token pair for the config file and (with --seed)
// stores it as the bot-default credential.
func (r *Runner) Bootstrap(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd.String("config"))

	if r.config.Spotify.ClientID == "" || r.config.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify.client_id and spotify.client_secret must be set", shared.ErrMissingConfig)
	}

	token, err := r.doOAuth(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("fallback_access_token = %q\n", token.AccessToken)
	r.writePlain("fallback_refresh_token = %q\n\n", token.RefreshToken)
	r.writePlain("Add these to the [spotify] section of your config file.\n")

	if !cmd.Bool("seed") {
		return nil
	}

	kv, err := r.openStore()
	if err != nil {
		r.logger.Warnf("skipping credential seed, store unavailable %v", err)
		return nil
	}

	accounts, err := auth.NewManager(auth.ManagerOpts{
		KV:              kv,
		ClientID:        r.config.Spotify.ClientID,
		ClientSecret:    r.config.Spotify.ClientSecret,
		RedirectURI:     r.config.Spotify.RedirectURI,
		FallbackAccess:  token.AccessToken,
		FallbackRefresh: token.RefreshToken,
		Logger:          r.logger,
	})
	if err != nil {
		return err
	}
	if err := accounts.SeedDefault(ctx); err != nil {
		return fmt.Errorf("failed to seed default credential: %w", err)
	}

	r.writePlain("✓ Bot-default credential stored\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context) (*oauth2.Token, error) {
	state := shared.GenerateStateToken(24)

	config := &oauth2.Config{
		ClientID:     r.config.Spotify.ClientID,
		ClientSecret: r.config.Spotify.ClientSecret,
		RedirectURL:  r.config.Spotify.RedirectURI,
		Scopes:       []string{"playlist-modify-public", "playlist-modify-private"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.spotify.com/authorize",
			TokenURL: "https://accounts.spotify.com/api/token",
		},
	}

	authURL := config.AuthCodeURL(state)
	handler := server.NewBootstrapHandler(config, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.BootstrapResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("authorization timed out after 2 minutes")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
