package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for a token.
type Exchanger func(ctx context.Context, code string) (*oauth2.Token, error)

// OAuthResult is what a single callback produced: a token or the reason there is none.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// CallbackError describes a rejected callback. Status is the HTTP code the browser saw.
type CallbackError struct {
	Status int
	Reason string
	Err    error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth callback: %s: %v", e.Reason, e.Err)
	}
	return "oauth callback: " + e.Reason
}

func (e *CallbackError) Unwrap() error { return e.Err }

var errAlreadyHandled = errors.New("callback already processed")

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; display: grid; place-items: center; height: 100vh; margin: 0; background: #121212; color: #eee; }
main { text-align: center; }
h1 { color: {{if .OK}}#1DB954{{else}}#E22134{{end}}; }
</style>
</head>
<body><main><h1>{{.Title}}</h1><p>{{.Message}}</p></main></body>
</html>
`))

type pageData struct {
	OK      bool
	Title   string
	Message string
}

// OAuthHandler serves the redirect URI of the authorization code flow.
//
// It accepts exactly one callback. The outcome, good or bad, is delivered once on [OAuthHandler.Result].
type OAuthHandler struct {
	exchange Exchanger
	path     string
	state    string

	hit     atomic.Bool
	once    sync.Once
	results chan OAuthResult
}

// NewOAuthHandler builds a handler for the path of redirectURI. state must match the value sent with the
// authorization URL.
func NewOAuthHandler(exchange Exchanger, redirectURI, state string) (*OAuthHandler, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return &OAuthHandler{
		exchange: exchange,
		path:     path,
		state:    state,
		results:  make(chan OAuthResult, 1),
	}, nil
}

// Routes returns the redirect path.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		http.Error(w, errAlreadyHandled.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.authorize(r)
	if err != nil {
		h.Send(OAuthResult{err: err})
		status := http.StatusInternalServerError
		var cbErr *CallbackError
		if errors.As(err, &cbErr) {
			status = cbErr.Status
		}
		render(w, status, pageData{Title: "Authorization failed", Message: err.Error()})
		return
	}

	h.Send(OAuthResult{Token: token})
	render(w, http.StatusOK, pageData{
		OK:      true,
		Title:   "spotsync authorized",
		Message: "spotsync can now read your playlists. You can close this window.",
	})
}

func (h *OAuthHandler) authorize(r *http.Request) (*oauth2.Token, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return nil, &CallbackError{Status: http.StatusBadRequest, Reason: "state mismatch"}
	}
	if reason := q.Get("error"); reason != "" {
		if desc := q.Get("error_description"); desc != "" {
			reason += " (" + desc + ")"
		}
		return nil, &CallbackError{Status: http.StatusBadRequest, Reason: "authorization denied: " + reason}
	}
	code := q.Get("code")
	if code == "" {
		return nil, &CallbackError{Status: http.StatusBadRequest, Reason: "missing authorization code"}
	}

	token, err := h.exchange(r.Context(), code)
	if err != nil {
		return nil, &CallbackError{Status: http.StatusInternalServerError, Reason: "token exchange failed", Err: err}
	}
	return token, nil
}

func render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, data)
}

// Send delivers result unless one was already delivered. The channel is closed afterwards.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields the single outcome of the flow.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
