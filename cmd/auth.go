package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotsync/internal/server"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the configured callback address, opens the browser for user authorization,
// and saves the exchanged token to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	creds := config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := r.newSpotifyService(config)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, config, svc, cmd.Bool("no-browser"), cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: spotsync playlists\n")
	return nil
}

// doOAuth waits for the browser to hit the callback URL and returns the exchanged token.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, svc *services.SpotifyService, noBrowser bool, timeout time.Duration) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler, err := server.NewOAuthHandler(svc.Exchange, config.Credentials.Spotify.RedirectURI, state)
	if err != nil {
		return nil, err
	}
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	if timeout <= 0 {
		timeout = authTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	authURL := svc.GetAuthURL(state)
	r.logger.Info("waiting for OAuth callback", "addr", addr)

	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	result, err := server.WaitForCallback(ctx, addr, router, handler)
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus reports whether a token is stored and, when one is, which account it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	tok := config.Credentials.Spotify.Token()
	if tok == nil {
		r.writePlain("✗ Not authenticated. Run 'spotsync auth' to sign in.\n")
		return nil
	}

	r.writePlain("Token: stored\n")
	if !tok.Expiry.IsZero() {
		r.writePlain("Access token expires: %s\n", shared.RelativeTime(tok.Expiry))
	}

	src, err := r.source(ctx, config)
	if err != nil {
		return err
	}
	profiler, ok := src.(interface {
		UserProfile(ctx context.Context) (*services.SpotifyUser, error)
	})
	if !ok {
		return nil
	}

	user, err := profiler.UserProfile(ctx)
	if err != nil {
		r.writePlain("Authentication: ✗ %v\n", err)
		return err
	}
	r.writePlain("Authentication: ✓ %s (%s)\n", user.DisplayName, user.ID)
	return nil
}
