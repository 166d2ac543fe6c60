// package services defines the client for the provider catalog API
//
// Spotify Web API over HTTP with per-principal bearer tokens
package services

import (
	"context"
)

// TokenProvider supplies an access token for a principal before each request.
//
// Implemented by the auth token manager; a failed lookup propagates as-is so
// callers can react to the missing-credential case.
type TokenProvider interface {
	AccessToken(ctx context.Context, principal string) (string, error)
}

// Catalog defines the provider operations the pipeline needs: lookups for the
// echo path, album expansion, one-shot search, and the batched insert.
type Catalog interface {
	// Track retrieves a single track by ID.
	Track(ctx context.Context, trackID string) (*SpotifyTrack, error)

	// Album retrieves an album by ID.
	Album(ctx context.Context, albumID string) (*SpotifyAlbum, error)

	// AlbumTracks retrieves an album's full track listing, fetching pages
	// until exhausted and preserving page order.
	AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error)

	// Playlist retrieves a playlist by ID (read-only, used for echoes).
	Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error)

	// SearchTrack issues one catalog search and returns the first result.
	SearchTrack(ctx context.Context, title, artist string) (*SpotifyTrack, error)

	// AddTracksToPlaylist submits one batched insert at the given position,
	// authorized as the supplied principal.
	AddTracksToPlaylist(ctx context.Context, principal, playlistID string, uris []string, position int) error
}

// TrackInfo is the provider-neutral content summary used for echoes.
type TrackInfo struct {
	Name        string
	Artists     []string
	Album       string
	TrackCount  int // albums and playlists only
	ArtworkURL  string
	ExternalURL string
}
