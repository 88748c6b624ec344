// Package commands implements CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-soql/internal/config"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/debug"
	"github.com/satishbabariya/prisma-soql/internal/utils/container"
)

// App carries state shared by every command.
type App struct {
	configFile string
	schemaPath string
	transport  string
	debug      bool
	logFormat  string

	fs        afero.Fs
	loader    *config.Loader
	cfg       *config.Config
	container *container.Container
	opts      []container.Option
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand(version, commit string) *cobra.Command {
	return newRootCommand(&App{fs: config.AppFs}, version, commit)
}

func newRootCommand(a *App, version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:           "prisma-soql",
		Short:         "Query and modify remote records through model metadata",
		Long:          "prisma-soql translates model queries into SOQL and runs batched writes with per-record error reporting",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to config file (default searches ., $HOME and $HOME/.config/prisma-soql)")
	flags.StringVar(&a.schemaPath, "schema", "", "Path to schema file")
	flags.StringVar(&a.transport, "transport", "", "Transport to use (rest or sandbox)")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (text or json)")

	root.AddCommand(NewTranslateCommand(a))
	root.AddCommand(NewQueryCommand(a))
	root.AddCommand(NewCountCommand(a))
	root.AddCommand(NewCreateCommand(a))
	root.AddCommand(NewUpdateCommand(a))
	root.AddCommand(NewDeleteCommand(a))
	root.AddCommand(NewLoginCommand(a))
	root.AddCommand(NewValidateCommand(a))
	root.AddCommand(NewVersionCommand(version, commit))

	return root
}

// load reads the configuration and applies flag overrides.
func (a *App) load() error {
	a.loader = config.NewLoader(a.fs)
	if a.schemaPath != "" {
		a.loader.Set("schema_path", a.schemaPath)
	}
	if a.transport != "" {
		a.loader.Set("transport", a.transport)
	}
	if a.debug {
		a.loader.Set("debug", true)
	}
	if a.logFormat != "" {
		a.loader.Set("log_format", a.logFormat)
	}

	cfg, err := a.loader.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	debug.Configure(debug.Options{Enabled: cfg.Debug, Format: cfg.LogFormat})
	return nil
}

// Container returns the dependency container, creating it on first use.
func (a *App) Container() (*container.Container, error) {
	if a.container != nil {
		return a.container, nil
	}
	opts := append([]container.Option{container.WithFs(a.fs)}, a.opts...)
	c, err := container.NewContainer(a.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	a.container = c
	return c, nil
}

// model resolves a model by name from the schema.
func (a *App) model(name string) (*schemadomain.Model, error) {
	c, err := a.Container()
	if err != nil {
		return nil, err
	}
	return c.Registry().GetModel(name)
}

func (a *App) close(ctx context.Context) error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close(ctx)
	a.container = nil
	return err
}
