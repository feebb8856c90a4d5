// Package cli implements the gh-chk command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ghchk "github.com/yasuyuky/gh-chk"
	"github.com/yasuyuky/gh-chk/credentials"
	"github.com/yasuyuky/gh-chk/internal/logging"
)

// App holds the process environment the commands run against.
type App struct {
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string

	// Color enables ANSI colors in text output.
	Color bool
}

// Execute runs the CLI with the real process environment and returns the
// exit code.
func Execute(ctx context.Context, args []string) int {
	app := &App{
		Out:    os.Stdout,
		Err:    os.Stderr,
		Getenv: os.Getenv,
		Color:  !color.NoColor,
	}

	return app.Run(ctx, args)
}

// Run executes args and returns the exit code: 0 on success, 1 when any item
// failed or the command could not run.
func (a *App) Run(ctx context.Context, args []string) int {
	cmd := a.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)

	if err := cmd.ExecuteContext(ctx); err != nil {
		// Item failures are already part of the report.
		if !errors.Is(err, ghchk.ErrItemsFailed) {
			fmt.Fprintln(a.Err, "error:", err)
		}

		return 1
	}

	return 0
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
}

// NewRootCommand builds the command tree.
func (a *App) NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "gh-chk",
		Short:         "Check GitHub issues and pull requests from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gh-chk/config.yml)")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", logging.FormatText, "log format: text or json")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	root.AddCommand(a.newTrackCommand(g))

	return root
}

func (a *App) newLogger(g *globalFlags) (*logging.SlogLogger, error) {
	level, err := logging.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		level = slog.LevelDebug
	}

	return logging.New(a.Err, g.logFormat, level)
}

// defaultConfigPath is the YAML config read when --config is not given.
func (a *App) defaultConfigPath() string {
	return filepath.Join(credentials.ConfigDir(a.Getenv), "gh-chk", "config.yml")
}

// defaultStorePath is the snapshot directory used when no store is configured.
func (a *App) defaultStorePath() string {
	return filepath.Join(credentials.ConfigDir(a.Getenv), "gh-chk", "assignees")
}

// loadConfig reads the config file. A missing default file is not an error;
// a missing explicit one is.
func (a *App) loadConfig(g *globalFlags) (ghchk.Config, error) {
	path, explicit := g.configPath, g.configPath != ""
	if !explicit {
		path = a.defaultConfigPath()
	}

	cfg, err := ghchk.LoadConfigFile(path)
	if err != nil {
		if !explicit && ghchk.IsConfigNotExist(err) {
			return ghchk.DefaultConfig(), nil
		}

		return ghchk.Config{}, err
	}

	return cfg, nil
}
