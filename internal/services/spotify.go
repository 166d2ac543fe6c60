// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/mixtaper/internal/auth"
	"github.com/desertthunder/mixtaper/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// albumTracksPageSize is the provider's maximum page size for album listings.
const albumTracksPageSize = 50

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"`
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// Owner identifies a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyPaginatedTracks represents one page of an album's track listing.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyTrack `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// Tokens come from a [TokenProvider] per request; reads run as the bot-default
// principal, writes as whichever principal the caller names.
type SpotifyService struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
}

// SpotifyOpts contains configuration options for creating a SpotifyService.
type SpotifyOpts struct {
	Tokens     TokenProvider
	HTTPClient *http.Client
	BaseURL    string  // override for tests
	RateLimit  float64 // requests per second, 0 means default
}

// NewSpotifyService creates a new Spotify catalog client.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token provider required", shared.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}

	return &SpotifyService{
		baseURL:    opts.BaseURL,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API as the
// given principal.
func (s *SpotifyService) doRequest(ctx context.Context, principal, method, endpoint string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	token, err := s.tokens.AccessToken(ctx, principal)
	if err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the given principal's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, principal string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, principal, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, auth.DefaultPrincipal, http.MethodGet, endpoint, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Album retrieves an album by ID.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	endpoint := fmt.Sprintf("/albums/%s", albumID)
	if err := s.doRequest(ctx, auth.DefaultPrincipal, http.MethodGet, endpoint, nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// AlbumTracks retrieves an album's complete track listing.
//
// Pages of up to 50 are fetched until the provider reports no further page;
// page order is preserved.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error) {
	var all []SpotifyTrack
	offset := 0

	for {
		endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", albumID, albumTracksPageSize, offset)

		var page SpotifyPaginatedTracks
		if err := s.doRequest(ctx, auth.DefaultPrincipal, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.Next == nil {
			break
		}
		offset += albumTracksPageSize
	}

	return all, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, auth.DefaultPrincipal, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// SearchTrack searches the catalog for a track by title and optional artist.
//
// Exactly one query is issued and the first returned track is accepted
// unconditionally; no result yields [shared.ErrTrackNotFound].
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*SpotifyTrack, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", shared.ErrInvalidInput)
	}

	query := title
	if artist != "" {
		query = artist + " " + title
	}
	endpoint := "/search?type=track&limit=1&q=" + url.QueryEscape(query)

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, auth.DefaultPrincipal, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, query)
	}

	return &response.Tracks.Items[0], nil
}

// AddTracksToPlaylist submits one batched insert at the given position.
//
// No retry on failure: a lost response cannot be told apart from a lost
// request, and retrying risks a duplicate head insert.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, principal, playlistID string, uris []string, position int) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{
		"uris":     uris,
		"position": position,
	}

	if err := s.doRequest(ctx, principal, http.MethodPost, endpoint, body, nil); err != nil {
		return err
	}
	return nil
}

// PlaylistContainsTrack reports whether a playlist already holds a track URI.
//
// Helper for callers that want a pre-submission membership check; the default
// pipeline does not use it and accepts duplicate insertion.
func (s *SpotifyService) PlaylistContainsTrack(ctx context.Context, playlistID, trackURI string) (bool, error) {
	offset := 0
	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?fields=items(track(uri)),next&limit=%d&offset=%d",
			playlistID, albumTracksPageSize, offset)

		var page struct {
			Items []struct {
				Track struct {
					URI string `json:"uri"`
				} `json:"track"`
			} `json:"items"`
			Next *string `json:"next"`
		}
		if err := s.doRequest(ctx, auth.DefaultPrincipal, http.MethodGet, endpoint, nil, &page); err != nil {
			return false, err
		}

		for _, item := range page.Items {
			if item.Track.URI == trackURI {
				return true, nil
			}
		}

		if page.Next == nil {
			return false, nil
		}
		offset += albumTracksPageSize
	}
}

// Info summarizes any supported reference for the echo path.
func (s *SpotifyService) Info(ctx context.Context, kind, id string) (*TrackInfo, error) {
	switch kind {
	case "track":
		track, err := s.Track(ctx, id)
		if err != nil {
			return nil, err
		}
		return trackInfo(track), nil
	case "album":
		album, err := s.Album(ctx, id)
		if err != nil {
			return nil, err
		}
		info := &TrackInfo{
			Name:        album.Name,
			TrackCount:  album.TotalTracks,
			ExternalURL: album.ExternalURLs.Spotify,
		}
		for _, a := range album.Artists {
			info.Artists = append(info.Artists, a.Name)
		}
		if len(album.Images) > 0 {
			info.ArtworkURL = album.Images[0].URL
		}
		return info, nil
	case "playlist":
		playlist, err := s.Playlist(ctx, id)
		if err != nil {
			return nil, err
		}
		info := &TrackInfo{
			Name:        playlist.Name,
			TrackCount:  playlist.Tracks.Total,
			ExternalURL: playlist.ExternalURLs.Spotify,
		}
		if playlist.Owner.DisplayName != "" {
			info.Artists = []string{playlist.Owner.DisplayName}
		}
		if len(playlist.Images) > 0 {
			info.ArtworkURL = playlist.Images[0].URL
		}
		return info, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %q", shared.ErrInvalidInput, kind)
	}
}

func trackInfo(track *SpotifyTrack) *TrackInfo {
	info := &TrackInfo{
		Name:        track.Name,
		Album:       track.Album.Name,
		ExternalURL: track.ExternalURLs.Spotify,
	}
	for _, a := range track.Artists {
		info.Artists = append(info.Artists, a.Name)
	}
	if len(track.Album.Images) > 0 {
		info.ArtworkURL = track.Album.Images[0].URL
	}
	return info
}
