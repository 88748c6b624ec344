package commands

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/prisma-soql/internal/core/mutation/reconciler"
	"github.com/satishbabariya/prisma-soql/internal/core/query/filter"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/ui"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(a *App) *cobra.Command {
	var (
		sets []string
		file string
	)

	cmd := &cobra.Command{
		Use:   "create <model>",
		Short: "Create records",
		Long:  "Create one record from --set pairs, or many from a YAML list given with --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(args[0])
			if err != nil {
				return err
			}

			records, err := a.recordsFromInput(model, sets, file)
			if err != nil {
				return err
			}

			c, err := a.Container()
			if err != nil {
				return err
			}
			svc, err := c.Service(cmd.Context())
			if err != nil {
				return err
			}

			resources := make([]resource.Resource, len(records))
			for i, r := range records {
				resources[i] = r
			}
			n, err := svc.Create(cmd.Context(), resources)
			if err != nil {
				return err
			}

			ui.PrintBatch("create", len(records), n)
			key := model.SerialKey()
			for i, r := range records {
				if !r.Valid() {
					ui.PrintFieldErrors(fmt.Sprintf("record %d rejected", i+1), r.FieldErrors())
					continue
				}
				if key != nil {
					ui.PrintSuccess("record %d created: %v", i+1, r.Get(key))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Property assignment, e.g. --set name=Acme (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a list of records")

	return cmd
}

func (a *App) recordsFromInput(model *schemadomain.Model, sets []string, file string) ([]*resource.Record, error) {
	switch {
	case file != "" && len(sets) > 0:
		return nil, errors.New("use either --set or --file")
	case file != "":
		return loadRecords(a.fs, model, file)
	case len(sets) > 0:
		attrs, err := filter.ParseAssignments(model, sets)
		if err != nil {
			return nil, err
		}
		r := resource.NewRecord(model)
		for _, attr := range attrs {
			r.Set(attr.Property, attr.Value)
		}
		return []*resource.Record{r}, nil
	default:
		return nil, errors.New("nothing to create: pass --set or --file")
	}
}

// loadRecords reads a YAML list of property maps.
func loadRecords(fs afero.Fs, model *schemadomain.Model, path string) ([]*resource.Record, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid records file %s: %w", path, err)
	}

	records := make([]*resource.Record, 0, len(raw))
	for i, values := range raw {
		for name := range values {
			if model.Property(name) == nil {
				return nil, fmt.Errorf("record %d: unknown property %s.%s", i+1, model.Name, name)
			}
		}
		records = append(records, resource.NewRecordFrom(model, values))
	}
	return records, nil
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(a *App) *cobra.Command {
	var (
		flags queryFlags
		sets  []string
	)

	cmd := &cobra.Command{
		Use:   "update <model>",
		Short: "Update matching records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(args[0])
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				return errors.New("nothing to update: pass --set")
			}
			attrs, err := filter.ParseAssignments(model, sets)
			if err != nil {
				return err
			}
			query, err := flags.build(model, false)
			if err != nil {
				return err
			}

			c, err := a.Container()
			if err != nil {
				return err
			}
			svc, err := c.Service(cmd.Context())
			if err != nil {
				return err
			}

			report, err := svc.UpdateReport(cmd.Context(), attrs, query)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Property assignment, e.g. --set stage=Won (repeatable)")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(a *App) *cobra.Command {
	var (
		flags queryFlags
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "delete <model>",
		Short: "Delete matching records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(args[0])
			if err != nil {
				return err
			}
			query, err := flags.build(model, false)
			if err != nil {
				return err
			}

			c, err := a.Container()
			if err != nil {
				return err
			}
			svc, err := c.Service(cmd.Context())
			if err != nil {
				return err
			}

			if !yes {
				countQuery, err := flags.build(model, true)
				if err != nil {
					return err
				}
				matching, err := svc.Aggregate(cmd.Context(), countQuery)
				if err != nil {
					return err
				}
				if matching == 0 {
					ui.PrintInfo("No %s records match", model.Name)
					return nil
				}

				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete %d %s records?", matching, model.Name),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					ui.PrintWarning("Aborted")
					return nil
				}
			}

			report, err := svc.DeleteReport(cmd.Context(), query)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// printReport prints the batch summary and the errors of every rejected
// record. Errors that name no field are listed under their status code.
func printReport(report *reconciler.Report) {
	ui.PrintBatch(string(report.Operation), report.Submitted, report.Succeeded)
	for _, f := range report.Failures {
		errs := make(map[string][]string)
		for _, detail := range f.Errors {
			if len(detail.Fields) == 0 {
				errs[detail.StatusCode] = append(errs[detail.StatusCode], detail.Message)
				continue
			}
			for _, field := range detail.Fields {
				errs[field] = append(errs[field], detail.Message)
			}
		}
		ui.PrintFieldErrors(fmt.Sprintf("record %s rejected", f.ID), errs)
	}
}
