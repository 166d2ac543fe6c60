// package bot routes chat events: slash commands and the passive
// link-collection pipeline.
package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/auth"
	"github.com/desertthunder/mixtaper/internal/formatter"
	"github.com/desertthunder/mixtaper/internal/links"
	"github.com/desertthunder/mixtaper/internal/playlist"
	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
)

// Chat identifies where an event happened.
type Chat struct {
	ID   int64
	Type string
}

// User identifies who sent an event.
type User struct {
	ID       int64
	Username string
}

// Event is the provider-neutral form of one incoming message.
type Event struct {
	ID   int
	Chat Chat
	From User
	Text string
}

// Sink delivers outbound messages.
type Sink interface {
	SendMessage(chatID int64, text string) error
	SendPhoto(chatID int64, photoURL, caption string) error
}

// resolver turns a short-link candidate into a canonical reference.
type resolver interface {
	Resolve(ctx context.Context, c links.Candidate) (links.Resolved, bool)
}

// matcher turns a cross-provider candidate into a canonical reference.
type matcher interface {
	Match(ctx context.Context, c links.Candidate) (links.Resolved, bool)
}

// submitter inserts resolved references into the chat's playlist.
type submitter interface {
	Add(ctx context.Context, principal string, chatID int64, items []links.Resolved) (*playlist.Result, error)
}

// infoProvider summarizes a reference for the echo path.
type infoProvider interface {
	Info(ctx context.Context, kind, id string) (*services.TrackInfo, error)
}

// Bot wires the pipeline stages behind the chat surface.
type Bot struct {
	accounts  *auth.Manager
	resolver  resolver
	matcher   matcher
	submitter submitter
	info      infoProvider
	channels  *store.ChannelStore
	usage     *store.UsageStore
	sink      Sink
	logger    *log.Logger

	admins       []int64
	errorChannel int64
	echoEnabled  bool
}

// Opts contains configuration options for creating a Bot.
type Opts struct {
	Accounts  *auth.Manager
	Resolver  resolver
	Matcher   matcher
	Submitter submitter
	Info      infoProvider
	Channels  *store.ChannelStore
	Usage     *store.UsageStore
	Sink      Sink
	Logger    *log.Logger

	Admins       []int64
	ErrorChannel int64
	EchoEnabled  bool
}

// New creates a Bot.
func New(opts Opts) (*Bot, error) {
	if opts.Accounts == nil || opts.Submitter == nil || opts.Sink == nil {
		return nil, fmt.Errorf("%w: accounts, submitter and sink required", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Bot{
		accounts:     opts.Accounts,
		resolver:     opts.Resolver,
		matcher:      opts.Matcher,
		submitter:    opts.Submitter,
		info:         opts.Info,
		channels:     opts.Channels,
		usage:        opts.Usage,
		sink:         opts.Sink,
		logger:       opts.Logger,
		admins:       opts.Admins,
		errorChannel: opts.ErrorChannel,
		echoEnabled:  opts.EchoEnabled,
	}, nil
}

// Principal derives the credential principal for a chat user.
func Principal(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// HandleEvent dispatches one incoming event: slash commands explicitly,
// everything else through the passive link pipeline.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) error {
	if strings.HasPrefix(ev.Text, "/") {
		return b.handleCommand(ctx, ev)
	}
	return b.handleLinks(ctx, ev)
}

func (b *Bot) handleCommand(ctx context.Context, ev Event) error {
	fields := strings.Fields(ev.Text)
	command, _, _ := strings.Cut(fields[0], "@") // strip bot-name suffix

	switch command {
	case "/start", "/help":
		return b.sink.SendMessage(ev.Chat.ID, formatter.Welcome())
	case "/link":
		return b.commandLink(ctx, ev)
	case "/unlink":
		return b.commandUnlink(ctx, ev)
	case "/stats":
		return b.commandStats(ctx, ev)
	case "/setplaylist":
		return b.commandSetPlaylist(ctx, ev, fields[1:])
	default:
		b.logger.Debug("ignoring unknown command", "command", command, "chat", ev.Chat.ID)
		return nil
	}
}

func (b *Bot) commandLink(ctx context.Context, ev Event) error {
	authURL, err := b.accounts.BeginLink(ctx, Principal(ev.From.ID), ev.Chat.ID)
	if err != nil {
		b.reportError("starting account link", err)
		return b.sink.SendMessage(ev.Chat.ID, "Could not start linking right now, try again later.")
	}
	return b.sink.SendMessage(ev.Chat.ID, formatter.LinkPrompt(authURL))
}

func (b *Bot) commandUnlink(ctx context.Context, ev Event) error {
	principal := Principal(ev.From.ID)

	linked, err := b.accounts.Linked(ctx, principal)
	if err != nil {
		b.reportError("checking link status", err)
		return b.sink.SendMessage(ev.Chat.ID, "Could not check your account right now.")
	}
	if !linked {
		return b.sink.SendMessage(ev.Chat.ID, "No Spotify account is linked.")
	}
	if err := b.accounts.Unlink(ctx, principal); err != nil {
		b.reportError("unlinking account", err)
		return b.sink.SendMessage(ev.Chat.ID, "Could not unlink your account right now.")
	}
	return b.sink.SendMessage(ev.Chat.ID, "Your Spotify account has been disconnected.")
}

func (b *Bot) commandStats(ctx context.Context, ev Event) error {
	if b.usage == nil {
		return b.sink.SendMessage(ev.Chat.ID, "Stats are not enabled.")
	}
	stats, err := b.usage.Stats(ctx, ev.From.ID)
	if err != nil {
		b.reportError("reading usage stats", err)
		return b.sink.SendMessage(ev.Chat.ID, "Could not read your stats right now.")
	}
	return b.sink.SendMessage(ev.Chat.ID, formatter.UsageStats(stats))
}

func (b *Bot) commandSetPlaylist(ctx context.Context, ev Event, args []string) error {
	if !slices.Contains(b.admins, ev.From.ID) {
		b.logger.Warn("refusing playlist change", "user", ev.From.ID, "chat", ev.Chat.ID,
			"error", shared.ErrNotAuthorized)
		return b.sink.SendMessage(ev.Chat.ID, "Only admins can change the playlist for this chat.")
	}
	if b.channels == nil {
		return b.sink.SendMessage(ev.Chat.ID, "Per-chat playlists are not enabled.")
	}
	if len(args) == 0 {
		return b.sink.SendMessage(ev.Chat.ID, "Usage: /setplaylist <playlist-id> (or \"default\" to reset)")
	}

	if args[0] == "default" {
		if err := b.channels.Remove(ctx, ev.Chat.ID); err != nil {
			b.reportError("resetting chat playlist", err)
			return b.sink.SendMessage(ev.Chat.ID, "Could not reset the playlist right now.")
		}
		return b.sink.SendMessage(ev.Chat.ID, "This chat now uses the default playlist.")
	}

	if err := b.channels.SetPlaylistID(ctx, ev.Chat.ID, args[0]); err != nil {
		b.reportError("setting chat playlist", err)
		return b.sink.SendMessage(ev.Chat.ID, "Could not set the playlist right now.")
	}
	return b.sink.SendMessage(ev.Chat.ID, fmt.Sprintf("This chat now collects into playlist %s.", args[0]))
}

// handleLinks runs the passive pipeline: extract candidates, resolve each one
// independently, then submit whatever survived as a single batch.
func (b *Bot) handleLinks(ctx context.Context, ev Event) error {
	candidates := links.Extract(ev.Text)
	if len(candidates) == 0 {
		return nil
	}

	b.recordUsage(ctx, ev.From.ID, store.UsageFieldSubmitted, int64(len(candidates)))

	resolved := b.resolveAll(ctx, candidates)
	if len(resolved) == 0 {
		return nil
	}

	result, senderErr, err := b.submit(ctx, ev, resolved)
	if err != nil {
		if senderErr && errors.Is(err, shared.ErrRefreshFailed) {
			// The sender's stored credential can no longer refresh; only a
			// fresh handshake fixes that.
			b.logger.Warn("sender credential refresh failed", "user", ev.From.ID, "error", err)
			return b.sink.SendMessage(ev.Chat.ID, formatter.RelinkNotice())
		}
		b.reportError("adding tracks", err)
		return err
	}

	if len(result.URIs) > 0 {
		b.recordUsage(ctx, ev.From.ID, store.UsageFieldAdded, int64(len(result.URIs)))
	}

	// The passive path stays silent unless echoes are switched on.
	if b.echoEnabled {
		if len(result.URIs) > 0 {
			if err := b.sink.SendMessage(ev.Chat.ID, formatter.AddedSummary(len(result.URIs), "")); err != nil {
				b.logger.Warn("failed to send confirmation", "chat", ev.Chat.ID, "error", err)
			}
		}
		b.echo(ctx, ev.Chat.ID, resolved)
	}
	return nil
}

// resolveAll applies the per-kind resolution stage to every candidate,
// preserving scan order. Failures drop the single candidate only.
func (b *Bot) resolveAll(ctx context.Context, candidates []links.Candidate) []links.Resolved {
	var resolved []links.Resolved
	for _, c := range candidates {
		switch {
		case c.IsShortLink:
			if b.resolver == nil {
				continue
			}
			if r, ok := b.resolver.Resolve(ctx, c); ok {
				resolved = append(resolved, r)
			}
		case c.Provider == links.ProviderYouTube:
			if b.matcher == nil {
				continue
			}
			if r, ok := b.matcher.Match(ctx, c); ok {
				resolved = append(resolved, r)
			}
		default:
			if r, ok := c.AsResolved(); ok {
				resolved = append(resolved, r)
			}
		}
	}
	return resolved
}

// submit runs the batch insert as the sender, falling back once to the
// bot-default principal when the sender has no linked account.
//
// senderErr reports whether the returned error came from the sender's own
// attempt, so credential failures on the fallback are never pinned on the
// sender.
func (b *Bot) submit(ctx context.Context, ev Event, resolved []links.Resolved) (result *playlist.Result, senderErr bool, err error) {
	result, err = b.submitter.Add(ctx, Principal(ev.From.ID), ev.Chat.ID, resolved)
	if err == nil {
		return result, false, nil
	}
	if !errors.Is(err, shared.ErrNotLinked) {
		return nil, true, err
	}

	b.logger.Debug("sender not linked, submitting as bot", "user", ev.From.ID)
	result, err = b.submitter.Add(ctx, auth.DefaultPrincipal, ev.Chat.ID, resolved)
	return result, false, err
}

// echo posts a summary card for each resolved reference. Failures are soft.
func (b *Bot) echo(ctx context.Context, chatID int64, resolved []links.Resolved) {
	if b.info == nil {
		return
	}
	for _, item := range resolved {
		info, err := b.info.Info(ctx, string(item.Kind), item.ID)
		if err != nil {
			b.logger.Warn("skipping echo", "kind", item.Kind, "id", item.ID, "error", err)
			continue
		}

		caption := formatter.Caption(info)
		if info.ArtworkURL != "" {
			err = b.sink.SendPhoto(chatID, info.ArtworkURL, caption)
		} else {
			err = b.sink.SendMessage(chatID, caption)
		}
		if err != nil {
			b.logger.Warn("failed to send echo", "chat", chatID, "error", err)
		}
	}
}

func (b *Bot) recordUsage(ctx context.Context, userID int64, field string, delta int64) {
	if b.usage == nil {
		return
	}
	if err := b.usage.Record(ctx, userID, field, delta); err != nil {
		b.logger.Warn("failed to record usage", "user", userID, "field", field, "error", err)
	}
}

// reportError notifies the operator channel about a pipeline failure.
func (b *Bot) reportError(context string, err error) {
	b.logger.Error(context, "error", err)
	if b.errorChannel == 0 {
		return
	}
	if sendErr := b.sink.SendMessage(b.errorChannel, formatter.ErrorReport(context, err)); sendErr != nil {
		b.logger.Warn("failed to report error", "error", sendErr)
	}
}
