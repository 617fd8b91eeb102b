// Package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel parses level (debug, info, warn, error) and applies it to l.
//
// An empty level leaves the logger untouched.
func SetLogLevel(l *log.Logger, level string) error {
	if level == "" {
		return nil
	}
	ll, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, level)
	}
	l.SetLevel(ll)
	return nil
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns a random URL-safe token for the OAuth state parameter.
func GenerateState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
