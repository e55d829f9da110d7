// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Also append logs to this file",
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write a starter config file and initialize the history database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles Spotify sign-in
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: authTimeout,
			},
		},
		Action: r.Auth,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the stored token and the account it belongs to",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// syncCommand handles the scheduler and single cycles
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror playlists into the song directory",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run sync cycles forever, one every interval_days",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SyncRun,
			},
			{
				Name:  "once",
				Usage: "Run a single sync cycle and exit",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the cycle report as JSON",
					},
				},
				Action: r.SyncOnce,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List Spotify playlists and their local manifests",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to list (default: sync.playlist_limit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Playlists,
	}
}

// manifestCommand handles local manifest inspection
func manifestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "manifest",
		Aliases: []string{"m"},
		Usage:   "Inspect local playlist manifests",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List manifests with their track counts",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ManifestList,
			},
			{
				Name:  "show",
				Usage: "Print the tracks recorded for a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (txt, csv, markdown, json)",
						Value: "txt",
					},
				},
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.ManifestShow,
			},
			{
				Name:  "export",
				Usage: "Write a playlist manifest to a file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, txt, json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (default: <playlist>.<ext>)",
					},
				},
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.ManifestExport,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync cycles",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of cycles to show",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "playlists",
				Usage: "Include per-playlist outcomes",
			},
		},
		Action: r.History,
	}
}

func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "browse",
		Usage:  "Browse manifests and run a sync cycle in the terminal UI",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Browse,
	}
}
