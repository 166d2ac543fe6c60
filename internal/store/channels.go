package store

import (
	"context"
	"fmt"
)

// ChannelStore maps chat channels to playlist overrides.
//
// An absent mapping means the caller falls back to the globally configured
// default playlist; a present mapping always wins. Entries have no TTL.
type ChannelStore struct {
	kv KV
}

// NewChannelStore creates a ChannelStore over the given KV.
func NewChannelStore(kv KV) *ChannelStore {
	return &ChannelStore{kv: kv}
}

// PlaylistID returns the playlist override for a channel, or ok=false if the
// channel has no mapping.
func (c *ChannelStore) PlaylistID(ctx context.Context, channelID int64) (string, bool, error) {
	value, ok, err := c.kv.Get(ctx, ChannelPlaylistKey(channelID))
	if err != nil {
		return "", false, fmt.Errorf("failed to read channel mapping: %w", err)
	}
	return value, ok, nil
}

// SetPlaylistID creates or overwrites the playlist mapping for a channel.
func (c *ChannelStore) SetPlaylistID(ctx context.Context, channelID int64, playlistID string) error {
	if err := c.kv.Set(ctx, ChannelPlaylistKey(channelID), playlistID); err != nil {
		return fmt.Errorf("failed to write channel mapping: %w", err)
	}
	return nil
}

// Remove deletes the playlist mapping for a channel.
func (c *ChannelStore) Remove(ctx context.Context, channelID int64) error {
	if err := c.kv.Delete(ctx, ChannelPlaylistKey(channelID)); err != nil {
		return fmt.Errorf("failed to remove channel mapping: %w", err)
	}
	return nil
}
