package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog is built from the config on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// configure runs before every command: applies --verbose and loads an explicit --config.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	shared.SetLogLevel(r.logger, shared.LogLevel(cmd.Bool("verbose")))

	if !cmd.IsSet("config") {
		return ctx, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, fmt.Errorf("%w: %s: %v", shared.ErrMissingConfig, path, err)
	}
	r.config = config
	r.configPath = path
	r.logger.Debug("loaded config", "path", path)
	return ctx, nil
}

// catalogFor returns the injected catalog or builds the YouTube Music proxy client from config.
func (r *Runner) catalogFor(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	yt := r.config.Credentials.YouTube
	svc := services.NewYouTubeService(services.YouTubeOpts{
		BaseURL:           yt.ProxyURL,
		HTTPClient:        r.httpClient,
		RequestsPerSecond: yt.RequestsPerSecond,
	})

	if yt.HeadersPath != "" {
		if err := svc.Authenticate(ctx, map[string]string{"auth_file": yt.HeadersPath}); err != nil {
			return nil, err
		}
	} else {
		r.logger.Warn("no headers_path configured, relying on the proxy's own credentials")
	}

	r.logger.Debug("using catalog", "service", svc.Name(), "proxy", yt.ProxyURL)
	r.catalog = svc
	return svc, nil
}

// drainProgress logs updates until progress is closed; the returned channel closes when done.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchMembers:
				r.logger.Debug(update.Message, "phase", update.Phase)
			default:
				r.logger.Info(update.Message, "phase", update.Phase)
			}
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
