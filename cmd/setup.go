package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const timeFormat = time.RFC3339

func (r *Runner) configFile() string {
	if r.configPath != "" {
		return r.configPath
	}
	return "config.toml"
}

// SetupConfig writes the config template if no config file exists yet.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlain("Set library.music_dir and credentials.youtube.headers_path, then run 'ytsync sync --library --playlists'\n")
	return nil
}

// SetupDatabase initializes the history database and runs migrations.
//
// Creates the config file from the template first when it does not exist.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.configFile()

	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using current settings", "error", err)
		} else if config, err := shared.LoadConfig(path); err == nil {
			r.config = config
		}
	}

	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}
