package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded example when it is missing and migrates the archive store when enabled.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
		r.writePlain("✓ Config written to %s\n", configPath)
	}

	db, err := shared.OpenArchiveStore(r.config.Database)
	switch {
	case errors.Is(err, shared.ErrStoreDisabled):
		r.logger.Info("archive store disabled, skipping migrations")
	case err != nil:
		return fmt.Errorf("failed to set up database: %w", err)
	default:
		db.Close()
		r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
		r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	}

	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
	r.writePlain("2. Run 'mtfs auth' to authorize access to your library\n")
	return nil
}
