// Package server runs the short-lived HTTP listener that completes Spotify's OAuth2 authorization code flow.
//
// [BasicRouter] registers routes as [http.ServeMux] method patterns, so a POST to the callback gets a 405.
// Middleware added with Use wraps every handler registered afterwards; the first one added runs first.
//
// [OAuthHandler] serves the redirect path. It checks the state token, trades the code for a token and
// reports the outcome once through [OAuthHandler.Result]. Later callbacks are refused with a 400.
//
// `spotsync auth` passes both to [WaitForCallback] on the configured host and port (localhost:8888 by default)
// and stores the token once the redirect arrives.
package server
