package links

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtaper/internal/shared"
)

// Resolver turns opaque short links into canonical references by following a
// single redirect hop.
//
// Every failure is soft: the candidate is dropped and logged, never retried,
// and never aborts the surrounding batch.
type Resolver struct {
	client *http.Client
	logger *log.Logger
}

// NewResolver creates a Resolver. The supplied client's transport is reused,
// but redirects are never followed — only the Location header matters.
func NewResolver(client *http.Client, logger *log.Logger) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	noFollow := &http.Client{
		Transport: client.Transport,
		Timeout:   client.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Resolver{client: noFollow, logger: logger}
}

// Resolve issues a redirect-only request for a short-link candidate and
// inspects the Location target.
//
// Only redirects landing on the canonical host with a recognized content
// type segment are accepted; anything else returns ok=false.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (Resolved, bool) {
	if !c.IsShortLink {
		return Resolved{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		r.logger.Warn("dropping short link", "url", c.URL, "error", err)
		return Resolved{}, false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("dropping short link", "url", c.URL, "error", err)
		return Resolved{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		r.logger.Warn("dropping short link",
			"url", c.URL, "error", fmt.Errorf("%w: status %d without redirect", shared.ErrResolutionFailed, resp.StatusCode))
		return Resolved{}, false
	}

	location := resp.Header.Get("Location")
	m := spotifyCanonicalRe.FindStringSubmatch(location)
	if m == nil {
		r.logger.Warn("dropping short link",
			"url", c.URL, "error", fmt.Errorf("%w: unsupported target %q", shared.ErrResolutionFailed, location))
		return Resolved{}, false
	}

	return Resolved{
		Provider:  ProviderSpotify,
		Kind:      Kind(m[1]),
		ID:        m[2],
		OriginURL: c.URL,
	}, true
}
