package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the launcher for the current platform.
func browserCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens the default system browser on an http(s) URL.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidArgument, rawURL)
	}

	cmd, err := browserCommand(getRuntime(), u.String())
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
