package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultAuthTimeout bounds how long [Authorize] waits for the browser callback.
const DefaultAuthTimeout = 2 * time.Minute

// AuthOptions configures one [Authorize] run.
type AuthOptions struct {
	// Open presents the authorization URL to the user, typically by launching a browser.
	// When it is nil or fails, the URL is only logged.
	Open    func(url string) error
	Timeout time.Duration
	Logger  *log.Logger
}

// Authorize runs the authorization-code flow: it serves the callback on ln, asks the user to visit the
// authorization URL and waits for the resulting token. The listener is closed before returning.
func Authorize(ctx context.Context, config *oauth2.Config, ln net.Listener, opts AuthOptions) (*oauth2.Token, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	handler := NewOAuthHandler(config, state)
	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("callback server shutdown", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Info("waiting for authorization", "callback", ln.Addr().String())
	if opts.Open == nil {
		logger.Info("open this URL in your browser", "url", authURL)
	} else if err := opts.Open(authURL); err != nil {
		logger.Warn("could not open browser", "error", err)
		logger.Info("open this URL in your browser", "url", authURL)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return result.Token, nil
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
