package links

import "testing"

func TestExtract(t *testing.T) {
	t.Run("Single Track Link", func(t *testing.T) {
		text := "Check out this song https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"
		candidates := Extract(text)

		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(candidates))
		}
		c := candidates[0]
		if c.Provider != ProviderSpotify || c.Kind != KindTrack {
			t.Errorf("unexpected candidate: %+v", c)
		}
		if c.ID != "4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("expected ID 4uLU6hMCjMI75M1A2tKUQC, got %s", c.ID)
		}
	})

	t.Run("Duplicates Preserved In Order", func(t *testing.T) {
		text := "https://open.spotify.com/track/AAAA111 and https://open.spotify.com/track/AAAA111"
		candidates := Extract(text)

		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		for i, c := range candidates {
			if c.ID != "AAAA111" {
				t.Errorf("candidate %d: expected ID AAAA111, got %s", i, c.ID)
			}
		}
	})

	t.Run("Multiple Lines Multiple Kinds", func(t *testing.T) {
		text := `Here are some great songs:
https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC
and an album https://open.spotify.com/album/1BxfuPKGuaTgP7aM0Bbdwr
plus a playlist https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M`
		candidates := Extract(text)

		if len(candidates) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(candidates))
		}
		wantKinds := []Kind{KindTrack, KindAlbum, KindPlaylist}
		for i, want := range wantKinds {
			if candidates[i].Kind != want {
				t.Errorf("candidate %d: expected kind %s, got %s", i, want, candidates[i].Kind)
			}
		}
	})

	t.Run("Query Strings Ignored For ID", func(t *testing.T) {
		text := "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123&utm_source=copy-link"
		candidates := Extract(text)

		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(candidates))
		}
		if candidates[0].ID != "4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("expected query-free ID, got %s", candidates[0].ID)
		}
	})

	t.Run("Intl Prefix", func(t *testing.T) {
		text := "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC"
		candidates := Extract(text)

		if len(candidates) != 1 || candidates[0].ID != "4uLU6hMCjMI75M1A2tKUQC" {
			t.Fatalf("expected intl-prefixed track to match, got %+v", candidates)
		}
	})

	t.Run("Short Link", func(t *testing.T) {
		text := "listen https://spotify.link/AbCdEf123"
		candidates := Extract(text)

		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(candidates))
		}
		c := candidates[0]
		if !c.IsShortLink || c.ShortToken != "AbCdEf123" {
			t.Errorf("unexpected short link candidate: %+v", c)
		}
		if _, ok := c.AsResolved(); ok {
			t.Error("short link must not resolve without a network hop")
		}
	})

	t.Run("YouTube Shapes", func(t *testing.T) {
		tc := []struct {
			name string
			text string
			want string
		}{
			{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"watch with params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"short host", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"shorts", "https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"music host", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
			{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				candidates := Extract(tt.text)
				if len(candidates) != 1 {
					t.Fatalf("expected 1 candidate, got %d", len(candidates))
				}
				c := candidates[0]
				if c.Provider != ProviderYouTube || c.ID != tt.want {
					t.Errorf("unexpected candidate: %+v", c)
				}
			})
		}
	})

	t.Run("Mixed Providers Keep Scan Order", func(t *testing.T) {
		text := "https://open.spotify.com/track/AAA111 https://youtu.be/dQw4w9WgXcQ https://spotify.link/sss"
		candidates := Extract(text)

		if len(candidates) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(candidates))
		}
		if candidates[0].Provider != ProviderSpotify ||
			candidates[1].Provider != ProviderYouTube ||
			!candidates[2].IsShortLink {
			t.Errorf("candidates out of order: %+v", candidates)
		}
	})

	t.Run("No Links", func(t *testing.T) {
		if got := Extract("This is just regular text with no music links"); len(got) != 0 {
			t.Errorf("expected no candidates, got %+v", got)
		}
	})

	t.Run("Empty Text", func(t *testing.T) {
		if got := Extract(""); len(got) != 0 {
			t.Errorf("expected no candidates, got %+v", got)
		}
	})
}

func TestResolvedURI(t *testing.T) {
	r := Resolved{Provider: ProviderSpotify, Kind: KindTrack, ID: "AAAA111"}
	if got := r.URI(); got != "spotify:track:AAAA111" {
		t.Errorf("expected spotify:track:AAAA111, got %s", got)
	}
}
