package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mtfs",
		Usage:   "Archive Spotify playlists into weekly snapshots",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
