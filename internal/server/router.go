package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// BasicRouter implements [Router] on top of [http.ServeMux].
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use adds [Middleware] to the stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for requests matching method and path.
// Other methods on the same path get 405 from the mux.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, r.Apply(handler))
}

// Handler registers every route of handler. Routes answer GET requests only.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(http.MethodGet, route, handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware; the last added runs innermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs each request at debug level. Query strings are omitted since they carry OAuth codes.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("callback request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
		})
	}
}
