// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/spmkit/spm/internal/app"
	"github.com/spmkit/spm/internal/config"
	"github.com/spmkit/spm/internal/issue"
	"github.com/spmkit/spm/pkg/merge"
)

type (
	// App wires CLI services and shared dependencies. All Cobra command
	// handlers receive an App reference and delegate through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		// verbose and configPath are bound to the global flags.
		verbose    bool
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// session is the per-invocation state of a command that touches archives.
	session struct {
		cfg     *config.Config
		service *app.Service
		verbose bool
		// style is the glamour style for issue cards.
		style string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads configuration honoring --config and the working
// directory's .env file. Failures are linked to the config issue card.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.configPath,
		EnvFile:        config.DefaultEnvFile,
	})
	if err == nil {
		return cfg, nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		ae.IssueID = issue.ConfigLoadFailedId
		return nil, err
	}
	return nil, issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// open loads configuration, builds the service and puts the logger into
// cmd's context.
func (a *App) open(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		// Issue cards still render with the default scheme.
		return &session{verbose: a.verbose, style: issueStyle(config.ColorSchemeAuto)}, err
	}

	s := &session{
		cfg:     cfg,
		verbose: a.verbose || cfg.UI.Verbose,
		style:   issueStyle(cfg.UI.ColorScheme),
	}
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "spm"})
	if s.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	cmd.SetContext(log.WithContext(ctx, logger))
	s.service = app.New(serviceOptions(cfg))
	return s, nil
}

// fail renders err and returns the ExitError for a RunE handler.
func (a *App) fail(cmd *cobra.Command, s *session, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return renderError(a.stderr, err, s.verbose, s.style)
}

// serviceOptions converts configuration into app.Options.
func serviceOptions(cfg *config.Config) app.Options {
	return app.Options{
		TempDir: string(cfg.TempDir),
		Exclude: cfg.Archive.ExcludeGlobs(),
		Merge: merge.Options{
			PrivateMarker:  string(cfg.Merge.PrivateMarker),
			HiddenMarker:   string(cfg.Merge.HiddenMarker),
			ResetPositions: cfg.Merge.ResetPositions,
		},
		HostSprite:   cfg.Defaults.HostSprite,
		ModuleSprite: cfg.Defaults.ModuleSprite,
	}
}
