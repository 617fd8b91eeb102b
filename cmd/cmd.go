// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes the example config and prepares the archive store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and run database migrations",
		Action: r.Setup,
	}
}

// authCommand runs the Spotify OAuth2 flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Auth,
	}
}

// archiveCommand handles archival of playlists and management of the archives.
func archiveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Archive playlists and manage archived copies",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Archive playlists from a comma-separated id list or a ';'-delimited CSV file",
				ArgsUsage: "<ids|file.csv>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "input",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "mail",
						Usage: "Mail a report when playlists were archived",
					},
				},
				Action: r.ArchiveRun,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List archived playlists",
				Action:  r.ArchiveList,
			},
			{
				Name:  "delete",
				Usage: "Unfollow every archived playlist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompts",
					},
				},
				Action: r.ArchiveDelete,
			},
			{
				Name:  "history",
				Usage: "List stored archive records (requires the database)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only records of this source playlist id",
					},
					&cli.IntFlag{
						Name:  "year",
						Usage: "Only records of this ISO year",
					},
					&cli.IntFlag{
						Name:  "week",
						Usage: "Only records of this ISO week",
					},
				},
				Action: r.ArchiveHistory,
			},
		},
	}
}

// playlistsCommand lists the playlists created by the user.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List self-created playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Write an archive job file instead of a table",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// searchCommand searches the user's library.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the library",
		Commands: []*cli.Command{
			{
				Name:      "track",
				Usage:     "Report whether a track is liked and which owned playlists contain it",
				ArgsUsage: "<trackId>",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "with-archived",
						Usage: "Also search archived playlists",
					},
				},
				Action: r.SearchTrack,
			},
		},
	}
}

// artistCommand handles artist operations.
func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "Artist operations",
		Commands: []*cli.Command{
			{
				Name:      "catalog",
				Usage:     "Collect every track of an artist into a playlist",
				ArgsUsage: "<artistId> [playlistId]",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "artist",
					},
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the catalog without creating a playlist",
					},
				},
				Action: r.ArtistCatalog,
			},
		},
	}
}
