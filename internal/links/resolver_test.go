package links

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/shared"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func shortCandidate(url string) Candidate {
	return Candidate{URL: url, Provider: ProviderSpotify, ShortToken: "tok", IsShortLink: true}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Redirect To Track", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=xyz", http.StatusFound)
		}))
		defer srv.Close()

		resolver := NewResolver(nil, quietLogger())
		resolved, ok := resolver.Resolve(ctx, shortCandidate(srv.URL))
		if !ok {
			t.Fatal("expected resolution to succeed")
		}
		if resolved.Kind != KindTrack || resolved.ID != "4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("unexpected resolution: %+v", resolved)
		}
		if resolved.OriginURL != srv.URL {
			t.Errorf("expected origin URL to be the short link, got %s", resolved.OriginURL)
		}
	})

	t.Run("Redirect To Unsupported Type Drops Quietly", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://open.spotify.com/artist/0OdUWJ0sBjDrqHygGUXeCF", http.StatusFound)
		}))
		defer srv.Close()

		resolver := NewResolver(nil, quietLogger())
		if _, ok := resolver.Resolve(ctx, shortCandidate(srv.URL)); ok {
			t.Error("expected unsupported target to be dropped")
		}
	})

	t.Run("Redirect Off Canonical Host Drops Quietly", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://example.com/track/AAAA111", http.StatusFound)
		}))
		defer srv.Close()

		resolver := NewResolver(nil, quietLogger())
		if _, ok := resolver.Resolve(ctx, shortCandidate(srv.URL)); ok {
			t.Error("expected foreign host target to be dropped")
		}
	})

	t.Run("No Redirect Drops Quietly", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		var logged bytes.Buffer
		resolver := NewResolver(nil, log.New(&logged))
		if _, ok := resolver.Resolve(ctx, shortCandidate(srv.URL)); ok {
			t.Error("expected non-redirect response to be dropped")
		}
		if !strings.Contains(logged.String(), shared.ErrResolutionFailed.Error()) {
			t.Errorf("expected drop log to carry the resolution error, got: %s", logged.String())
		}
	})

	t.Run("Network Failure Drops Quietly", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // dead endpoint

		resolver := NewResolver(nil, quietLogger())
		if _, ok := resolver.Resolve(ctx, shortCandidate(srv.URL)); ok {
			t.Error("expected network failure to be dropped")
		}
	})

	t.Run("Redirect Is Not Followed", func(t *testing.T) {
		followed := false
		var srv *httptest.Server
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/target" {
				followed = true
				return
			}
			http.Redirect(w, r, srv.URL+"/target", http.StatusFound)
		}))
		defer srv.Close()

		resolver := NewResolver(nil, quietLogger())
		resolver.Resolve(ctx, shortCandidate(srv.URL))
		if followed {
			t.Error("resolver must not fetch the redirect target")
		}
	})

	t.Run("Non Short Candidate Rejected", func(t *testing.T) {
		resolver := NewResolver(nil, quietLogger())
		direct := Candidate{URL: "https://open.spotify.com/track/AAA", Provider: ProviderSpotify, Kind: KindTrack, ID: "AAA"}
		if _, ok := resolver.Resolve(ctx, direct); ok {
			t.Error("expected non-short candidate to be rejected")
		}
	})
}
