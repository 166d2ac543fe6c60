// package links recognizes music links in free text and resolves short links
// to canonical references.
//
// Extraction is a dumb single pass: order preserving, never deduplicating,
// and never filtering by content type — unsupported kinds are dropped later,
// at resolution and playlist-update time, so repeated mentions keep their
// positional meaning for downstream consumers.
package links

import (
	"regexp"
	"strings"
)

// Provider identifies the service a link points at.
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderYouTube Provider = "youtube"
)

// Kind is the content type carried by a canonical link.
type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindPlaylist Kind = "playlist"
)

// Candidate is one recognized link occurrence, in input order.
//
// Exactly one of two shapes: a canonical reference (Provider+Kind+ID) or a
// short link (ShortToken set, IsShortLink true) that still needs resolution.
// YouTube candidates carry the video ID and no Kind.
type Candidate struct {
	URL         string
	Provider    Provider
	Kind        Kind
	ID          string
	ShortToken  string
	IsShortLink bool
}

// Resolved is a canonical reference ready for the playlist stage.
//
// ID is set only after successful resolution, never inferred.
type Resolved struct {
	Provider  Provider
	Kind      Kind
	ID        string
	OriginURL string
}

// URI returns the provider URI form for a track reference.
func (r Resolved) URI() string {
	return "spotify:" + string(r.Kind) + ":" + r.ID
}

var (
	spotifyCanonicalRe = regexp.MustCompile(`https?://open\.spotify\.com/(?:intl-[a-zA-Z-]+/)?(track|album|playlist)/([A-Za-z0-9]+)`)
	spotifyShortRe     = regexp.MustCompile(`https?://spotify\.link/([A-Za-z0-9]+)`)

	// The several host/path shapes a YouTube video link shows up in.
	youtubeWatchRe  = regexp.MustCompile(`https?://(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:[^\s]*&)?v=([A-Za-z0-9_-]{6,})`)
	youtubeShortRe  = regexp.MustCompile(`https?://youtu\.be/([A-Za-z0-9_-]{6,})`)
	youtubeShortsRe = regexp.MustCompile(`https?://(?:www\.|m\.)?youtube\.com/shorts/([A-Za-z0-9_-]{6,})`)
)

// Extract scans text for provider links in one pass.
//
// The result preserves duplicate occurrences and original order; query
// strings on canonical links are ignored for identification but kept in URL.
func Extract(text string) []Candidate {
	var candidates []Candidate
	if text == "" {
		return candidates
	}

	for _, line := range strings.Split(text, "\n") {
		for _, word := range strings.Fields(line) {
			if c, ok := matchWord(word); ok {
				candidates = append(candidates, c)
			}
		}
	}

	return candidates
}

func matchWord(word string) (Candidate, bool) {
	if m := spotifyCanonicalRe.FindStringSubmatch(word); m != nil {
		return Candidate{
			URL:      m[0],
			Provider: ProviderSpotify,
			Kind:     Kind(m[1]),
			ID:       m[2],
		}, true
	}

	if m := spotifyShortRe.FindStringSubmatch(word); m != nil {
		return Candidate{
			URL:         m[0],
			Provider:    ProviderSpotify,
			ShortToken:  m[1],
			IsShortLink: true,
		}, true
	}

	for _, re := range []*regexp.Regexp{youtubeWatchRe, youtubeShortRe, youtubeShortsRe} {
		if m := re.FindStringSubmatch(word); m != nil {
			return Candidate{
				URL:      m[0],
				Provider: ProviderYouTube,
				ID:       m[1],
			}, true
		}
	}

	return Candidate{}, false
}

// AsResolved converts a canonical candidate directly, without any network
// round trip. Short links and foreign videos return ok=false.
func (c Candidate) AsResolved() (Resolved, bool) {
	if c.IsShortLink || c.Provider != ProviderSpotify || c.ID == "" {
		return Resolved{}, false
	}
	return Resolved{
		Provider:  c.Provider,
		Kind:      c.Kind,
		ID:        c.ID,
		OriginURL: c.URL,
	}, true
}
