package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtfs/internal/formatter"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the self-created playlists, optionally as an archive job file.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	playlists, err := engine.Locator.FindAllSelfCreated(ctx)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("csv"):
		return formatter.WriteArchiveJobs(r.output, formatter.JobsFromPlaylists(playlists))
	case cmd.Bool("json"):
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists\n")
	}
	formatter.PlaylistTable(r.output, playlists)
	return nil
}

// SearchTrack reports whether a track is liked and lists the owned playlists containing it.
func (r *Runner) SearchTrack(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("id")
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	result, err := engine.Search.FindTrack(ctx, trackID, cmd.Bool("with-archived"))
	if err != nil {
		return err
	}

	formatter.SearchTable(r.output, result)
	return nil
}

// ArtistCatalog collects an artist's catalog into a new playlist, or appends it to the given one.
func (r *Runner) ArtistCatalog(ctx context.Context, cmd *cli.Command) error {
	artistID := cmd.StringArg("artist")
	if artistID == "" {
		return fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		artist, tracks, err := engine.Catalog.Tracks(ctx, artistID)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", formatter.Styles.Title(artist.Name))
		formatter.CatalogTable(r.output, tracks)
		return nil
	}

	result, err := engine.Catalog.Build(ctx, artistID, cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	formatter.CatalogTable(r.output, result.Tracks)
	verb := "Added to"
	if result.Created {
		verb = "Created"
	}
	return r.writePlain("%s\n", formatter.Styles.OK(fmt.Sprintf("✓ %s playlist %s with %d tracks of %s", verb, result.PlaylistID, len(result.Tracks), result.Artist.Name)))
}
