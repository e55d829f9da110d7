// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	playlistPageSize = 50
	itemsPageSize    = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyTrack represents a Spotify track or episode as it appears inside a playlist item.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // "track" or "episode"
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	IsLocal bool            `json:"is_local"`
	URI     string          `json:"uri"`
	Episode bool            `json:"episode"` // set on episodes returned in track form
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyPlaylistItem represents a track within a playlist context. Track is nil for unavailable items.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedItems represents a page of playlist items.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Public bool                 `json:"public"`
	Tracks simplePlaylistTracks `json:"tracks"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and [rate.Limiter] to pace requests.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	timeout    time.Duration
	onRefresh  func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		baseURL:    spotifyBaseURL,
		timeout:    30 * time.Second,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetTokenRefreshCallback registers fn to receive every token obtained through a refresh.
// It must be called before authenticating.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onRefresh = fn
}

// SetRateLimit paces API requests to rps requests per second.
func (s *SpotifyService) SetRateLimit(rps float64) {
	if rps <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// SetRequestTimeout bounds each API request. Zero disables the bound.
func (s *SpotifyService) SetRequestTimeout(d time.Duration) {
	s.timeout = d
}

// SetEndpoints points the service at alternate API and token URLs.
func (s *SpotifyService) SetEndpoints(apiURL, tokenURL string) {
	if apiURL != "" {
		s.baseURL = apiURL
	}
	if tokenURL != "" {
		s.config.Endpoint.TokenURL = tokenURL
	}
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and authenticates the service with it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	s.AuthenticateToken(ctx, token)
	return token, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
// Expects either an "auth_code", or an "access_token" and/or "refresh_token" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if authCode := credentials["auth_code"]; authCode != "" {
		_, err := s.Exchange(ctx, authCode)
		return err
	}

	accessToken, refreshToken := credentials["access_token"], credentials["refresh_token"]
	if accessToken == "" && refreshToken == "" {
		return fmt.Errorf("%w: run the auth command to log in", shared.ErrNotAuthenticated)
	}

	s.AuthenticateToken(ctx, &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"})
	return nil
}

// AuthenticateToken authenticates with a stored token. The token is refreshed automatically
// once it expires, and immediately if its expiry is unknown and a refresh token is available.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) {
	tok := *token
	if tok.Expiry.IsZero() && tok.RefreshToken != "" {
		tok.Expiry = time.Unix(1, 0)
	}
	s.token = &tok

	src := &refreshableTokenSource{
		source:   oauth2.ReuseTokenSource(&tok, s.config.TokenSource(ctx, &tok)),
		last:     tok.AccessToken,
		callback: s.onRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, src)
}

// refreshableTokenSource passes each newly minted access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	tok, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := tok.AccessToken != r.last
	r.last = tok.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.notify(tok)
	}
	return tok, nil
}

// notify runs the callback, containing any panic so a broken persistence hook never breaks a request.
func (r *refreshableTokenSource) notify(tok *oauth2.Token) {
	defer func() { _ = recover() }()
	r.callback(tok)
}

// doRequest performs an authenticated GET request against the Spotify API and decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		switch {
		case errors.As(err, &retrieveErr):
			return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		case errors.Is(err, context.DeadlineExceeded):
			return fmt.Errorf("%w: %w: GET %s", shared.ErrAPIRequest, shared.ErrTimeout, endpoint)
		default:
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: GET %s", shared.ErrTokenExpired, endpoint)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: GET %s", shared.ErrPlaylistNotFound, endpoint)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w: GET %s: status %d", shared.ErrAPIRequest, shared.ErrServiceUnavailable, endpoint, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: GET %s: status %d: %s", shared.ErrAPIRequest, endpoint, resp.StatusCode, body)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PlaylistPage retrieves one page of the current user's playlists.
func (s *SpotifyService) PlaylistPage(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > playlistPageSize {
		limit = playlistPageSize
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ItemsPage retrieves one page of a playlist's items.
func (s *SpotifyService) ItemsPage(ctx context.Context, playlistID string, offset int) (*SpotifyPaginatedItems, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&additional_types=track",
		url.PathEscape(playlistID), itemsPageSize, offset)

	var response SpotifyPaginatedItems
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// UserPlaylists implements [Service].
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit int) ([]models.PlaylistRef, error) {
	var refs []models.PlaylistRef
	offset := 0

	for {
		pageSize := playlistPageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-len(refs))
		}

		response, err := s.PlaylistPage(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			if sp.ID == "" {
				continue
			}
			refs = append(refs, models.PlaylistRef{ID: sp.ID, Name: sp.Name, TrackCount: sp.Tracks.Total})
			if limit > 0 && len(refs) >= limit {
				return refs, nil
			}
		}

		if response.Next == nil || len(response.Items) == 0 {
			return refs, nil
		}
		offset += len(response.Items)
	}
}

// PlaylistTracks implements [Service].
func (s *SpotifyService) PlaylistTracks(ctx context.Context, ref models.PlaylistRef) ([]models.Track, error) {
	var tracks []models.Track
	seen := make(map[string]struct{})
	offset := 0

	for {
		response, err := s.ItemsPage(ctx, ref.ID, offset)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", ref.Name, err)
		}

		for _, item := range response.Items {
			track, ok := toTrack(item)
			if !ok {
				continue
			}
			if _, dup := seen[track.ID]; dup {
				continue
			}
			seen[track.ID] = struct{}{}
			tracks = append(tracks, track)
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
		offset += len(response.Items)
	}

	if tracks == nil {
		tracks = []models.Track{}
	}
	return tracks, nil
}

// toTrack maps a playlist item to a [models.Track], reporting false for items that are not mirrorable tracks.
func toTrack(item SpotifyPlaylistItem) (models.Track, bool) {
	st := item.Track
	if st == nil || item.IsLocal || st.IsLocal {
		return models.Track{}, false
	}
	if st.Type != "" && st.Type != "track" {
		return models.Track{}, false
	}
	// With additional_types=track, episodes come back shaped like tracks.
	if st.Episode || strings.HasPrefix(st.URI, "spotify:episode:") {
		return models.Track{}, false
	}

	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	track := models.Track{
		ID:      st.ID,
		Title:   st.Name,
		Artists: artists,
		Album:   st.Album.Name,
	}
	return track, track.Valid()
}
