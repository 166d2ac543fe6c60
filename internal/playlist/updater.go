// package playlist turns resolved references into playlist mutations
package playlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/links"
	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
)

// Updater collects track URIs from resolved references and submits them to the
// target playlist as a single head insert.
type Updater struct {
	catalog         services.Catalog
	channels        *store.ChannelStore
	defaultPlaylist string
	logger          *log.Logger
}

// UpdaterOpts contains configuration options for creating an Updater.
type UpdaterOpts struct {
	Catalog         services.Catalog
	Channels        *store.ChannelStore
	DefaultPlaylist string
	Logger          *log.Logger
}

// NewUpdater creates an Updater.
func NewUpdater(opts UpdaterOpts) (*Updater, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog required", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Updater{
		catalog:         opts.Catalog,
		channels:        opts.Channels,
		defaultPlaylist: opts.DefaultPlaylist,
		logger:          opts.Logger,
	}, nil
}

// Result summarizes one submission.
type Result struct {
	PlaylistID string
	URIs       []string // URIs submitted, in scan order
	Skipped    int      // references that produced no URI
}

// TargetPlaylist picks the playlist for a chat: the channel's configured
// override when one exists, otherwise the default playlist.
func (u *Updater) TargetPlaylist(ctx context.Context, chatID int64) (string, error) {
	if u.channels != nil {
		id, ok, err := u.channels.PlaylistID(ctx, chatID)
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}
	if u.defaultPlaylist == "" {
		return "", fmt.Errorf("%w: no playlist configured for chat %d", shared.ErrPlaylistNotFound, chatID)
	}
	return u.defaultPlaylist, nil
}

// Add expands the resolved references into track URIs and inserts them at the
// head of the chat's target playlist in one batch.
//
// Albums contribute their full listing in page order; playlist references
// contribute nothing. Duplicates within the batch are preserved, and the
// insert is attempted exactly once.
func (u *Updater) Add(ctx context.Context, principal string, chatID int64, items []links.Resolved) (*Result, error) {
	playlistID, err := u.TargetPlaylist(ctx, chatID)
	if err != nil {
		return nil, err
	}

	result := &Result{PlaylistID: playlistID}
	for _, item := range items {
		switch item.Kind {
		case links.KindTrack:
			result.URIs = append(result.URIs, item.URI())
		case links.KindAlbum:
			tracks, err := u.catalog.AlbumTracks(ctx, item.ID)
			if err != nil {
				u.logger.Warn("skipping album, expansion failed", "album", item.ID, "error", err)
				result.Skipped++
				continue
			}
			for _, track := range tracks {
				result.URIs = append(result.URIs, track.URI)
			}
		default:
			u.logger.Debug("skipping non-addable reference", "kind", item.Kind, "id", item.ID)
			result.Skipped++
		}
	}

	if len(result.URIs) == 0 {
		return result, nil
	}

	if err := u.catalog.AddTracksToPlaylist(ctx, principal, playlistID, result.URIs, 0); err != nil {
		if errors.Is(err, shared.ErrNotLinked) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrSubmissionFailed, err)
	}

	u.logger.Info("added tracks to playlist",
		"playlist", playlistID, "count", len(result.URIs), "chat", chatID, "principal", principal)
	return result, nil
}
