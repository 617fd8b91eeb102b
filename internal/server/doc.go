// Package server runs the short-lived local HTTP server that receives the OAuth callback during `mtfs auth`.
//
// # Routing
//
// [BasicRouter] wraps [http.ServeMux] with a middleware stack. [Middleware] wraps handlers in reverse
// order (last added executes first). Handlers implementing [Handler] register their own routes.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the redirect URI's path. It validates the state parameter, exchanges the
// authorization code for a token and delivers exactly one [OAuthResult]; later callbacks are rejected.
//
// The server lives only for the duration of the login and is shut down once a result arrives.
package server
