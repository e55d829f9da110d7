// Package services defines the [Service] interface for remote music providers and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh. Every refreshed
// token is handed to the callback registered with [SpotifyService.SetTokenRefreshCallback] so the
// caller can persist it.
//
// Requests are throttled by a [rate.Limiter] and each one is bounded by the request timeout.
// Nothing is retried here: a failed call fails the playlist and the next sync cycle tries again.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : the API rejected the token (HTTP 401)
//   - [shared.ErrRefreshFailed] : the token endpoint refused the refresh token
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrServiceUnavailable] : Spotify answered with a 5xx, also wrapped in ErrAPIRequest
//   - [shared.ErrAPIRequest] : any other failed request
//
// # API Mappings
//
// Spotify playlist items are mapped to [models.Track]. Episodes, local files, null items, items
// without an ID and tracks carrying placeholder metadata never leave this package.
package services
