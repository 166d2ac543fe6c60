package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Credential lifecycle errors
	ErrNotLinked      = fmt.Errorf("no linked credential")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrInvalidState   = fmt.Errorf("invalid or expired state token")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")

	// Pipeline errors
	ErrResolutionFailed = fmt.Errorf("link resolution failed")
	ErrSubmissionFailed = fmt.Errorf("playlist submission failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrNotAuthorized   = fmt.Errorf("not authorized")
)
