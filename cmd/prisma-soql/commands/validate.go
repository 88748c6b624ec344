package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	"github.com/satishbabariya/prisma-soql/internal/ui"
	"github.com/satishbabariya/prisma-soql/internal/watch"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(a *App) *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the schema file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.SchemaPath
			check := func() error {
				return a.validateSchema(path)
			}

			if !watchMode {
				return check()
			}

			w, err := watch.NewWatcher(path, check)
			if err != nil {
				return err
			}
			ui.PrintInfo("Watching %s (Ctrl+C to stop)", path)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watchMode, "watch", false, "Validate again whenever the schema changes")

	return cmd
}

func (a *App) validateSchema(path string) error {
	registry, err := schema.LoadFile(a.fs, path)
	if err != nil {
		ui.PrintError("%v", err)
		return err
	}

	naming := schema.DefaultNaming{}
	var rows [][]string
	for _, m := range registry.Models() {
		key := "-"
		if k := m.KeyProperty(); k != nil {
			key = k.Name
		}
		fields := make([]string, 0, len(m.Properties))
		for _, p := range m.Properties {
			fields = append(fields, schema.ResolveField(naming, m, p))
		}
		rows = append(rows, []string{m.Name, schema.ResolveStorage(naming, m), key, strings.Join(fields, ", ")})
	}

	ui.PrintSuccess("Schema %s is valid (%d models)", path, len(rows))
	if err := ui.PrintTable([]string{"Model", "Object", "Key", "Fields"}, rows); err != nil {
		return fmt.Errorf("failed to render models: %w", err)
	}
	return nil
}
