// package formatter renders chat-facing text for bot replies (captions, stats, command output)
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/desertthunder/mixtaper/internal/services"
	"github.com/desertthunder/mixtaper/internal/store"
)

// Caption renders the echo caption for a catalog item.
func Caption(info *services.TrackInfo) string {
	var buf bytes.Buffer

	buf.WriteString(info.Name)
	if len(info.Artists) > 0 {
		buf.WriteString(fmt.Sprintf("\n%s", strings.Join(info.Artists, ", ")))
	}
	if info.Album != "" {
		buf.WriteString(fmt.Sprintf("\n%s", info.Album))
	}
	if info.TrackCount > 0 {
		buf.WriteString(fmt.Sprintf("\n%d tracks", info.TrackCount))
	}
	if info.ExternalURL != "" {
		buf.WriteString(fmt.Sprintf("\n%s", info.ExternalURL))
	}

	return buf.String()
}

// AddedSummary renders the confirmation sent after a submission.
func AddedSummary(count int, playlistName string) string {
	noun := "tracks"
	if count == 1 {
		noun = "track"
	}
	if playlistName == "" {
		return fmt.Sprintf("Added %d %s to the playlist.", count, noun)
	}
	return fmt.Sprintf("Added %d %s to %s.", count, noun, playlistName)
}

// UsageStats renders a user's submission counters.
func UsageStats(stats store.UsageStats) string {
	var buf bytes.Buffer
	buf.WriteString("Your stats:\n")
	buf.WriteString(fmt.Sprintf("Links submitted: %d\n", stats.Submitted))
	buf.WriteString(fmt.Sprintf("Tracks added: %d", stats.Added))
	return buf.String()
}

// RelinkNotice renders the message sent when a user's stored credential can
// no longer be refreshed.
func RelinkNotice() string {
	return "Your Spotify connection has expired. Send /link to reconnect your account."
}

// LinkPrompt renders the message carrying an account-link URL.
func LinkPrompt(authURL string) string {
	return fmt.Sprintf("Connect your Spotify account so your submissions carry your name:\n%s\n\nThe link expires in 10 minutes.", authURL)
}

// Welcome renders the /start reply.
func Welcome() string {
	return strings.Join([]string{
		"Hi! Drop Spotify or YouTube links in this chat and I'll collect the tracks into the mixtape playlist.",
		"",
		"/link — connect your Spotify account",
		"/unlink — disconnect it",
		"/stats — your submission counters",
	}, "\n")
}

// ErrorReport renders an operator-channel error notice.
func ErrorReport(context string, err error) string {
	return fmt.Sprintf("⚠️ %s: %v", context, err)
}
