package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/shared"
	tu "github.com/desertthunder/mixtaper/internal/testing"
)

func newTestService(t *testing.T, handler http.Handler) (*services.SpotifyService, *tu.StaticTokens, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := &tu.StaticTokens{Token: "test-access-token"}
	service, err := services.NewSpotifyService(services.SpotifyOpts{
		Tokens:    tokens,
		BaseURL:   srv.URL,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, tokens, srv
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Track Lookup", func(t *testing.T) {
		service, tokens, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tracks/4uLU6hMCjMI75M1A2tKUQC" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
				t.Errorf("unexpected auth header: %s", got)
			}
			json.NewEncoder(w).Encode(services.SpotifyTrack{
				ID:      "4uLU6hMCjMI75M1A2tKUQC",
				Name:    "Never Gonna Give You Up",
				Artists: []services.SpotifyArtist{{Name: "Rick Astley"}},
				URI:     "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			})
		}))

		track, err := service.Track(ctx, "4uLU6hMCjMI75M1A2tKUQC")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track.Name != "Never Gonna Give You Up" {
			t.Errorf("unexpected track name: %s", track.Name)
		}
		if len(tokens.Calls) != 1 || tokens.Calls[0] != "default" {
			t.Errorf("expected one default-principal token fetch, got %v", tokens.Calls)
		}
	})

	t.Run("Album Tracks Paginates In Order", func(t *testing.T) {
		// 53 tracks across two pages of 50
		const total = 53
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			offset := 0
			fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
			if r.URL.Query().Get("limit") != "50" {
				t.Errorf("unexpected limit: %s", r.URL.Query().Get("limit"))
			}

			page := services.SpotifyPaginatedTracks{Total: total, Limit: 50, Offset: offset}
			for i := offset; i < total && i < offset+50; i++ {
				page.Items = append(page.Items, services.SpotifyTrack{ID: fmt.Sprintf("track-%02d", i)})
			}
			if offset+50 < total {
				next := srv.URL + fmt.Sprintf("/albums/album-1/tracks?limit=50&offset=%d", offset+50)
				page.Next = &next
			}
			json.NewEncoder(w).Encode(page)
		}))
		t.Cleanup(srv.Close)

		tokens := &tu.StaticTokens{Token: "test-access-token"}
		service, err := services.NewSpotifyService(services.SpotifyOpts{Tokens: tokens, BaseURL: srv.URL, RateLimit: 1000})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		all, err := service.AlbumTracks(ctx, "album-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != total {
			t.Fatalf("expected %d tracks, got %d", total, len(all))
		}
		for i, track := range all {
			if want := fmt.Sprintf("track-%02d", i); track.ID != want {
				t.Errorf("track %d out of order: got %s", i, track.ID)
			}
		}
	})

	t.Run("Search Returns First Hit", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "Rick Astley Never Gonna Give You Up" {
				t.Errorf("unexpected query: %q", got)
			}
			if r.URL.Query().Get("limit") != "1" {
				t.Errorf("expected limit=1, got %s", r.URL.Query().Get("limit"))
			}
			fmt.Fprint(w, `{"tracks":{"items":[{"id":"first","uri":"spotify:track:first"},{"id":"second"}]}}`)
		}))

		track, err := service.SearchTrack(ctx, "Never Gonna Give You Up", "Rick Astley")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track.ID != "first" {
			t.Errorf("expected first result, got %s", track.ID)
		}
	})

	t.Run("Search No Result", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tracks":{"items":[]}}`)
		}))

		_, err := service.SearchTrack(ctx, "nonexistent", "")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Add Tracks Head Insert", func(t *testing.T) {
		var body map[string]any
		service, tokens, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/playlists/pl-1/tracks" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"snapshot_id":"abc"}`)
		}))

		err := service.AddTracksToPlaylist(ctx, "user-42", "pl-1",
			[]string{"spotify:track:a", "spotify:track:b", "spotify:track:a"}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if body["position"] != float64(0) {
			t.Errorf("expected position 0, got %v", body["position"])
		}
		uris, _ := body["uris"].([]any)
		if len(uris) != 3 || uris[2] != "spotify:track:a" {
			t.Errorf("expected duplicate-preserving batch, got %v", uris)
		}
		if len(tokens.Calls) != 1 || tokens.Calls[0] != "user-42" {
			t.Errorf("expected write as user-42, got %v", tokens.Calls)
		}
	})

	t.Run("Add Tracks Empty Batch Rejected", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for an empty batch")
		}))
		err := service.AddTracksToPlaylist(ctx, "user-42", "pl-1", nil, 0)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("API Error Status", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		_, err := service.Track(ctx, "nope")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Transport Failure Propagates", func(t *testing.T) {
		errBoom := errors.New("connection reset")
		service, err := services.NewSpotifyService(services.SpotifyOpts{
			Tokens:     &tu.StaticTokens{Token: "test-access-token"},
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errBoom)},
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := service.Track(ctx, "any"); !errors.Is(err, errBoom) {
			t.Errorf("expected transport error to surface, got %v", err)
		}
	})

	t.Run("Token Failure Propagates", func(t *testing.T) {
		service, tokens, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected without a token")
		}))
		tokens.Err = shared.ErrNotLinked

		err := service.AddTracksToPlaylist(ctx, "user-42", "pl-1", []string{"spotify:track:a"}, 0)
		if !errors.Is(err, shared.ErrNotLinked) {
			t.Errorf("expected ErrNotLinked, got %v", err)
		}
	})

	t.Run("Playlist Contains Track", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[{"track":{"uri":"spotify:track:a"}},{"track":{"uri":"spotify:track:b"}}],"next":null}`)
		}))

		found, err := service.PlaylistContainsTrack(ctx, "pl-1", "spotify:track:b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Error("expected track to be found")
		}
		missing, err := service.PlaylistContainsTrack(ctx, "pl-1", "spotify:track:z")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if missing {
			t.Error("expected track to be absent")
		}
	})

	t.Run("Info For Album", func(t *testing.T) {
		service, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(services.SpotifyAlbum{
				ID:          "album-1",
				Name:        "Whenever You Need Somebody",
				Artists:     []services.SpotifyArtist{{Name: "Rick Astley"}},
				TotalTracks: 10,
				Images:      []services.SpotifyImage{{URL: "https://img.example/cover.jpg"}},
			})
		}))

		info, err := service.Info(ctx, "album", "album-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Name != "Whenever You Need Somebody" || info.TrackCount != 10 {
			t.Errorf("unexpected info: %+v", info)
		}
		if info.ArtworkURL != "https://img.example/cover.jpg" {
			t.Errorf("unexpected artwork: %s", info.ArtworkURL)
		}
	})
}
