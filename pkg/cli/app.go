package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"profile-extract-go/pkg/cli/client"
	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/logger"
)

// App holds what every command needs: the loaded config, where it came
// from, and the logger.
type App struct {
	cfg        *config.Config
	configPath string
	log        *logger.Logger

	// flags shared by every command
	configFlag string
	debug      bool
	logFile    string
}

// NewApp returns an App whose config is loaded lazily by the root command.
func NewApp() *App {
	return &App{}
}

// NewRootCmd creates the root command and wires every subcommand.
func NewRootCmd() *cobra.Command {
	return NewApp().RootCmd()
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// RootCmd builds the command tree bound to a.
func (a *App) RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "profile-extract",
		Short:         "Extract structured profiles from profile URLs",
		Long:          "profile-extract validates profile URLs and runs them through the fetch, analyze and extract stages, one at a time or in bulk.",
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.cleanup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFlag, "config", "", "config file (default ~/.config/profile-extract/config.toml)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level to stderr")
	cmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to this file (default tmp/cli-<timestamp>.log)")

	cmd.AddCommand(
		a.newValidateCmd(),
		a.newRunCmd(),
		a.newTUICmd(),
		a.newRemoteCmd(),
		a.newScraperCmd(),
		a.newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Check a few URLs without processing them
  profile-extract validate https://www.linkedin.com/in/someone https://github.com/someone

  # Process URLs locally and print a table
  profile-extract run https://github.com/someone https://www.imdb.com/name/nm0000001

  # Process a URL list in bulk and export CSV
  profile-extract run --file urls.txt --concurrency 4 --format csv --output results.csv

  # Open the interactive terminal UI
  profile-extract tui

  # Set configuration values
  profile-extract config set batch.max_concurrent=4`

func (a *App) setup(cmd *cobra.Command) error {
	path := a.configFlag
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.configPath = path

	opts := logger.Options{Level: cfg.CLI.LogLevel}
	switch {
	case a.debug:
		opts.Level = zerolog.DebugLevel.String()
		opts.Console = true
		opts.Out = cmd.ErrOrStderr()
	case a.logFile != "":
		opts.File = a.logFile
	case cfg.CLI.LogFile != "":
		opts.File = cfg.CLI.LogFile
	default:
		opts.File = logger.DefaultCLIFile()
	}

	log, err := logger.New(opts)
	if err != nil {
		return err
	}
	a.log = log
	a.log.Debug().Str("command", cmd.CommandPath()).Str("config", path).Msg("cli started")
	return nil
}

func (a *App) cleanup() error {
	if a.log == nil {
		return nil
	}
	return a.log.Close()
}

// getClient returns an API client for the configured server
func (a *App) getClient() (*client.Client, error) {
	if a.cfg.CLI.BaseURL == "" {
		return nil, fmt.Errorf("API base URL not configured (set cli.base_url)")
	}
	return client.NewClient(a.cfg.CLI.BaseURL, a.cfg.CLI.APIKey), nil
}

func (a *App) componentLog(component string) zerolog.Logger {
	return a.log.Component(component)
}
