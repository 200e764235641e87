package main

import (
	"context"
	"os"

	"github.com/desertthunder/ytsync/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		loaded, err := shared.LoadConfig("config.toml")
		if err != nil {
			logger.Fatalf("invalid config.toml: %v", err)
		}
		config = loaded
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
