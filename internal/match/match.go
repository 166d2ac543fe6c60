// package match translates video links into catalog tracks
//
// Video pages are scraped for structured metadata, which seeds a single
// catalog search whose first hit is taken as the match.
package match

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/links"
	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/shared"
)

// maxPageBytes caps how much of a video page is read while hunting metadata.
const maxPageBytes = 2 << 20

// Searcher is the one catalog operation matching needs.
type Searcher interface {
	SearchTrack(ctx context.Context, title, artist string) (*services.SpotifyTrack, error)
}

// Matcher resolves cross-provider candidates to catalog tracks.
//
// All failures are soft: an unmatched candidate is logged and dropped,
// never retried, and never aborts the surrounding batch.
type Matcher struct {
	client   *http.Client
	searcher Searcher
	logger   *log.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(client *http.Client, searcher Searcher, logger *log.Logger) *Matcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Matcher{client: client, searcher: searcher, logger: logger}
}

// Match fetches the candidate's page, extracts title metadata and issues one
// catalog search. The first search hit is authoritative.
func (m *Matcher) Match(ctx context.Context, c links.Candidate) (links.Resolved, bool) {
	if c.Provider != links.ProviderYouTube {
		return links.Resolved{}, false
	}

	meta, ok := m.fetchMetadata(ctx, c.URL)
	if !ok {
		return links.Resolved{}, false
	}

	track, err := m.searcher.SearchTrack(ctx, meta.Title, meta.Artist)
	if err != nil {
		m.logger.Warn("dropping unmatched video", "url", c.URL, "title", meta.Title, "error", err)
		return links.Resolved{}, false
	}

	return links.Resolved{
		Provider:  links.ProviderSpotify,
		Kind:      links.KindTrack,
		ID:        track.ID,
		OriginURL: c.URL,
	}, true
}

// VideoMetadata is the title information scraped from a video page.
type VideoMetadata struct {
	Title  string
	Artist string
}

func (m *Matcher) fetchMetadata(ctx context.Context, pageURL string) (VideoMetadata, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		m.logger.Warn("dropping video candidate", "url", pageURL, "error", err)
		return VideoMetadata{}, false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn("dropping video candidate", "url", pageURL, "error", err)
		return VideoMetadata{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.Warn("dropping video candidate",
			"url", pageURL, "error", fmt.Errorf("%w: status %d", shared.ErrResolutionFailed, resp.StatusCode))
		return VideoMetadata{}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		m.logger.Warn("dropping video candidate", "url", pageURL, "error", err)
		return VideoMetadata{}, false
	}

	meta, ok := ParseMetadata(string(body))
	if !ok {
		m.logger.Warn("dropping video candidate",
			"url", pageURL, "error", fmt.Errorf("%w: no usable title", shared.ErrResolutionFailed))
		return VideoMetadata{}, false
	}
	return meta, true
}

var (
	ldJSONRe  = regexp.MustCompile(`(?s)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)
	ogTitleRe = regexp.MustCompile(`<meta[^>]*property="og:title"[^>]*content="([^"]*)"`)
	titleRe   = regexp.MustCompile(`(?s)<title[^>]*>(.*?)</title>`)
)

// ParseMetadata extracts track metadata from a video page.
//
// Structured JSON-LD MusicRecording data wins outright; only when it is
// absent does the display title get parsed, with the "Artist - Title"
// convention as a best effort.
func ParseMetadata(page string) (VideoMetadata, bool) {
	if meta, ok := parseMusicRecording(page); ok {
		return meta, true
	}

	title := displayTitle(page)
	if title == "" {
		return VideoMetadata{}, false
	}

	if artist, rest, found := strings.Cut(title, " - "); found &&
		strings.TrimSpace(artist) != "" && strings.TrimSpace(rest) != "" {
		return VideoMetadata{Title: strings.TrimSpace(rest), Artist: strings.TrimSpace(artist)}, true
	}
	return VideoMetadata{Title: title}, true
}

type ldRecording struct {
	Type     string `json:"@type"`
	Name     string `json:"name"`
	ByArtist struct {
		Name string `json:"name"`
	} `json:"byArtist"`
}

func parseMusicRecording(page string) (VideoMetadata, bool) {
	for _, m := range ldJSONRe.FindAllStringSubmatch(page, -1) {
		raw := strings.TrimSpace(m[1])

		var single ldRecording
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			if meta, ok := recordingMeta(single); ok {
				return meta, true
			}
		}

		var many []ldRecording
		if err := json.Unmarshal([]byte(raw), &many); err == nil {
			for _, rec := range many {
				if meta, ok := recordingMeta(rec); ok {
					return meta, true
				}
			}
		}
	}
	return VideoMetadata{}, false
}

func recordingMeta(rec ldRecording) (VideoMetadata, bool) {
	if rec.Type != "MusicRecording" || rec.Name == "" {
		return VideoMetadata{}, false
	}
	return VideoMetadata{Title: rec.Name, Artist: rec.ByArtist.Name}, true
}

func displayTitle(page string) string {
	var title string
	if m := ogTitleRe.FindStringSubmatch(page); m != nil {
		title = m[1]
	} else if m := titleRe.FindStringSubmatch(page); m != nil {
		title = m[1]
	}

	title = strings.TrimSpace(title)
	title = strings.TrimSuffix(title, " - YouTube Music")
	title = strings.TrimSuffix(title, " - YouTube")
	return strings.TrimSpace(title)
}
