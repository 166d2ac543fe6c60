package store

import "strconv"

const (
	// KeyPrefixCredential is the prefix for per-principal credential records
	KeyPrefixCredential = "credential:"
	// KeyPrefixOAuthState is the prefix for one-time OAuth state records
	KeyPrefixOAuthState = "oauth_state:"
	// KeyPrefixChannelPlaylist is the prefix for channel → playlist mappings
	KeyPrefixChannelPlaylist = "channel_playlist:"
	// KeyPrefixUsage is the prefix for per-user usage counters
	KeyPrefixUsage = "usage:"
)

// CredentialKey returns the store key for a principal's credential.
func CredentialKey(principal string) string {
	return KeyPrefixCredential + principal
}

// OAuthStateKey returns the store key for a one-time state token.
func OAuthStateKey(token string) string {
	return KeyPrefixOAuthState + token
}

// ChannelPlaylistKey returns the store key for a channel's playlist override.
func ChannelPlaylistKey(channelID int64) string {
	return KeyPrefixChannelPlaylist + strconv.FormatInt(channelID, 10)
}

// UsageKey returns the store key for one of a user's usage counters.
func UsageKey(userID int64, field string) string {
	return KeyPrefixUsage + strconv.FormatInt(userID, 10) + ":" + field
}
