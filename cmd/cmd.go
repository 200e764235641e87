// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "ytsync",
		Usage:   "Sync a directory of \"name [tags].mp3\" files to YouTube Music uploads and playlists",
		Version: "0.1.0",
		Writer:  r.output,
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
		Before:   r.configure,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, libraryCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// syncCommand reconciles the remote catalog with the music directory
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Upload/delete songs and rebuild single-letter playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "library",
				Aliases: []string{"upload", "l"},
				Usage:   "Sync uploaded songs with the music directory",
			},
			&cli.BoolFlag{
				Name:    "playlists",
				Aliases: []string{"update", "p"},
				Usage:   "Sync single-letter playlists with file name tags",
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Music directory (default: library.music_dir or ~/Music)",
			},
			&cli.DurationFlag{
				Name:  "settle",
				Usage: "Wait between uploading songs and editing playlists (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would change without changing anything",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:    "tui",
				Aliases: []string{"i"},
				Usage:   "Review the plan and follow progress in an interactive view",
			},
		},
		Action: r.Sync,
	}
}

// libraryCommand inspects the local music directory
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Local music directory operations",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List songs and their tags",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Music directory (default: library.music_dir or ~/Music)",
					},
					&cli.BoolFlag{
						Name:    "metadata",
						Aliases: []string{"m"},
						Usage:   "Read embedded title and artist tags",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LibraryList,
			},
		},
	}
}

// historyCommand lists recorded sync runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (running, succeeded, failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Write the runs to a CSV file",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
