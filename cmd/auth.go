package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/mtfs/internal/server"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Auth performs the OAuth2 authorization-code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization and saves the exchanged tokens into the config.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	oauthConfig, err := services.NewOAuthConfig(r.config.Credentials.Spotify)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	opts := server.AuthOptions{Logger: r.logger}
	if !cmd.Bool("no-browser") {
		opts.Open = shared.OpenBrowser
	}

	token, err := server.Authorize(ctx, oauthConfig, ln, opts)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: mtfs playlists\n")
	return nil
}
