package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/auth"
	"github.com/desertthunder/mixtaper/internal/bot"
	"github.com/desertthunder/mixtaper/internal/links"
	"github.com/desertthunder/mixtaper/internal/match"
	"github.com/desertthunder/mixtaper/internal/playlist"
	"github.com/desertthunder/mixtaper/internal/server"
	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/urfave/cli/v3"
)

// Serve wires the full pipeline and runs the bot until interrupted.
//
// Webhook mode registers the public webhook with Telegram and serves it next
// to the OAuth callback; polling mode skips webhook registration and pulls
// updates over long polling while the HTTP server still handles callbacks.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd.String("config"))
	if err := r.config.Validate(); err != nil {
		return err
	}

	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	usePolling := cmd.Bool("polling") || r.config.Telegram.UsePolling

	kv, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	accounts, err := auth.NewManager(auth.ManagerOpts{
		KV:              kv,
		ClientID:        r.config.Spotify.ClientID,
		ClientSecret:    r.config.Spotify.ClientSecret,
		RedirectURI:     r.config.Spotify.RedirectURI,
		FallbackAccess:  r.config.Spotify.FallbackAccessToken,
		FallbackRefresh: r.config.Spotify.FallbackRefreshToken,
		Logger:          r.logger,
	})
	if err != nil {
		return err
	}
	if err := accounts.SeedDefault(ctx); err != nil {
		r.logger.Warn("failed to seed default credential", "error", err)
	}

	catalog, err := services.NewSpotifyService(services.SpotifyOpts{
		Tokens:     accounts,
		HTTPClient: r.httpClient,
	})
	if err != nil {
		return err
	}

	channels := store.NewChannelStore(kv)
	updater, err := playlist.NewUpdater(playlist.UpdaterOpts{
		Catalog:         catalog,
		Channels:        channels,
		DefaultPlaylist: r.config.Spotify.DefaultPlaylistID,
		Logger:          r.logger,
	})
	if err != nil {
		return err
	}

	api, err := tgbotapi.NewBotAPI(r.config.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}
	sink := bot.NewTelegramSink(api)

	b, err := bot.New(bot.Opts{
		Accounts:     accounts,
		Resolver:     links.NewResolver(r.httpClient, r.logger),
		Matcher:      match.NewMatcher(r.httpClient, catalog, r.logger),
		Submitter:    updater,
		Info:         catalog,
		Channels:     channels,
		Usage:        store.NewUsageStore(kv),
		Sink:         sink,
		Logger:       r.logger,
		Admins:       r.config.Telegram.Admins,
		ErrorChannel: r.config.Telegram.ErrorChannel,
		EchoEnabled:  r.config.Telegram.EchoEnabled,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	secret := cmd.String("webhook-secret")

	router := server.NewBasicRouter()
	router.Use(server.RecoverMiddleware(r.logger), server.LoggingMiddleware(r.logger))
	router.Handler(server.NewLinkCallbackHandler(accounts, sink, r.logger))

	var ping func() error
	if redisStore, ok := kv.(*store.RedisStore); ok {
		ping = func() error { return redisStore.Ping(ctx) }
	}
	router.Handler(server.NewHealthHandler(ping))

	if !usePolling {
		router.Handler(server.NewWebhookHandler(ctx, b, secret, r.logger))
		if err := r.registerWebhook(api, secret); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: router}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting http server", "addr", addr, "polling", usePolling)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	if usePolling {
		go func() {
			if err := b.Poll(ctx, api, r.logger); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("polling stopped", "error", err)
			}
		}()
	}

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}

// registerWebhook points Telegram at the public webhook URL.
func (r *Runner) registerWebhook(api *tgbotapi.BotAPI, secret string) error {
	if r.config.Telegram.WebhookDomain == "" {
		return fmt.Errorf("%w: telegram.webhook_domain required for webhook mode", shared.ErrInvalidConfig)
	}

	webhookURL := fmt.Sprintf("https://%s/webhook", r.config.Telegram.WebhookDomain)

	// setWebhook called directly so the secret_token parameter can be passed
	params := tgbotapi.Params{"url": webhookURL}
	if secret != "" {
		params["secret_token"] = secret
	}
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	r.logger.Info("webhook registered", "url", webhookURL)
	return nil
}
