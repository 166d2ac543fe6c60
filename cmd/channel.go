package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
	"github.com/urfave/cli/v3"
)

func parseChatArg(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("chat")
	if raw == "" {
		return 0, fmt.Errorf("%w: chat id", shared.ErrMissingArgument)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: chat id must be numeric, got %q", shared.ErrInvalidInput, raw)
	}
	return chatID, nil
}

// ChannelSet points a chat at a playlist override.
func (r *Runner) ChannelSet(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd.String("config"))

	chatID, err := parseChatArg(cmd)
	if err != nil {
		return err
	}
	playlistID := cmd.StringArg("playlist")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	kv, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if err := store.NewChannelStore(kv).SetPlaylistID(ctx, chatID, playlistID); err != nil {
		return err
	}
	return r.writePlain("✓ Chat %d now collects into playlist %s\n", chatID, playlistID)
}

// ChannelRemove resets a chat to the default playlist.
func (r *Runner) ChannelRemove(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd.String("config"))

	chatID, err := parseChatArg(cmd)
	if err != nil {
		return err
	}

	kv, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if err := store.NewChannelStore(kv).Remove(ctx, chatID); err != nil {
		return err
	}
	return r.writePlain("✓ Chat %d now uses the default playlist\n", chatID)
}

// ChannelShow prints a chat's playlist override.
func (r *Runner) ChannelShow(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd.String("config"))

	chatID, err := parseChatArg(cmd)
	if err != nil {
		return err
	}

	kv, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	playlistID, ok, err := store.NewChannelStore(kv).PlaylistID(ctx, chatID)
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("Chat %d uses the default playlist (%s)\n", chatID, r.config.Spotify.DefaultPlaylistID)
	}
	return r.writePlain("Chat %d collects into playlist %s\n", chatID, playlistID)
}
