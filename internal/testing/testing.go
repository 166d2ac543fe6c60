// package testing contains shared testing utilities
package testing

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/shared"
)

// MockCatalog is a test double for [services.Catalog] that records the calls
// it receives.
type MockCatalog struct {
	Tracks    map[string]*services.SpotifyTrack
	Albums    map[string][]services.SpotifyTrack
	AlbumErr  error
	SearchHit *services.SpotifyTrack
	SearchErr error
	AddErr    error

	AlbumCalls  int
	SearchCalls int
	LastTitle   string
	LastArtist  string

	AddCalls  int
	AddedAs   string
	AddedTo   string
	AddedURIs []string
	AddedAt   int
}

func (m *MockCatalog) Track(_ context.Context, trackID string) (*services.SpotifyTrack, error) {
	if track, ok := m.Tracks[trackID]; ok {
		return track, nil
	}
	return nil, shared.ErrTrackNotFound
}

func (m *MockCatalog) Album(_ context.Context, albumID string) (*services.SpotifyAlbum, error) {
	return &services.SpotifyAlbum{ID: albumID}, nil
}

func (m *MockCatalog) AlbumTracks(_ context.Context, albumID string) ([]services.SpotifyTrack, error) {
	m.AlbumCalls++
	if m.AlbumErr != nil {
		return nil, m.AlbumErr
	}
	return m.Albums[albumID], nil
}

func (m *MockCatalog) Playlist(_ context.Context, playlistID string) (*services.SpotifyPlaylist, error) {
	return &services.SpotifyPlaylist{ID: playlistID}, nil
}

func (m *MockCatalog) SearchTrack(_ context.Context, title, artist string) (*services.SpotifyTrack, error) {
	m.SearchCalls++
	m.LastTitle = title
	m.LastArtist = artist
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if m.SearchHit == nil {
		return nil, shared.ErrTrackNotFound
	}
	return m.SearchHit, nil
}

func (m *MockCatalog) AddTracksToPlaylist(_ context.Context, principal, playlistID string, uris []string, position int) error {
	m.AddCalls++
	m.AddedAs = principal
	m.AddedTo = playlistID
	m.AddedURIs = uris
	m.AddedAt = position
	return m.AddErr
}

// StaticTokens is a test double for [services.TokenProvider] that records the
// principals it was asked for.
type StaticTokens struct {
	Token string
	Err   error
	Calls []string
}

func (s *StaticTokens) AccessToken(_ context.Context, principal string) (string, error) {
	s.Calls = append(s.Calls, principal)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Token, nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
