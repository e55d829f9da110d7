package shared

import "errors"

// Sentinel errors shared by every package. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrMissingConfig      = errors.New("configuration not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")

	ErrAuthFailed       = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenExpired     = errors.New("access token expired")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrTimeout          = errors.New("operation timed out")

	ErrAPIRequest         = errors.New("API request failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPlaylistNotFound   = errors.New("playlist not found")

	ErrManifestNotFound = errors.New("manifest not found")
	ErrManifestCorrupt  = errors.New("manifest corrupt")
	ErrLocked           = errors.New("resource is locked by another process")

	ErrDownloadFailed = errors.New("download failed")

	ErrMissingArgument     = errors.New("missing required argument")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidFlag         = errors.New("invalid flag value")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// authErrors end a sync cycle instead of failing a single playlist.
var authErrors = []error{ErrTokenExpired, ErrNotAuthenticated, ErrAuthFailed, ErrRefreshFailed, ErrMissingCredentials}

// IsAuthError reports whether err means the stored credentials can no longer be used.
func IsAuthError(err error) bool {
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
