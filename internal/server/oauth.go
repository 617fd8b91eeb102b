package server

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/mtfs/internal/shared"
	"golang.org/x/oauth2"
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><title>mtfs</title>
<style>body{font-family:sans-serif;display:flex;align-items:center;justify-content:center;height:100vh;margin:0}h1{color:{{if .OK}}#1DB954{{else}}#C0392B{{end}}}</style>
</head>
<body><div><h1>{{.Title}}</h1><p>{{.Message}}</p></div></body>
</html>
`))

// OAuthResult is the outcome of one authorization attempt.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler receives the authorization code callback and exchanges it for a token.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	path    string
	results chan OAuthResult
	once    sync.Once
	mu      sync.Mutex
	handled bool
}

// NewOAuthHandler creates a handler for config's redirect URI. state must be the value sent in the authorization URL.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	path := "/callback"
	if u, err := url.Parse(config.RedirectURL); err == nil && u.Path != "" {
		path = u.Path
	}
	return &OAuthHandler{
		config:  config,
		state:   state,
		path:    path,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the redirect URI's path.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the callback and delivers its result. Only the first callback is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.handled {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.handled = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err))
		return
	}

	h.Send(OAuthResult{Token: token})
	h.render(w, http.StatusOK, true, "Authorization Successful", "You can close this window and return to the terminal.")
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.Send(OAuthResult{err: err})
	h.render(w, status, false, "Authorization Failed", err.Error())
}

func (h *OAuthHandler) render(w http.ResponseWriter, status int, ok bool, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	resultPage.Execute(w, struct {
		OK             bool
		Title, Message string
	}{ok, title, message})
}

// Send delivers result; only the first call has an effect.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
