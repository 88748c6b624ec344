package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-soql/internal/core/query/builder"
	"github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/query/filter"
	"github.com/satishbabariya/prisma-soql/internal/core/query/mapper"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/ui"
)

// queryFlags are the filter flags shared by the read and write commands.
type queryFlags struct {
	where  string
	fields []string
	order  string
	limit  int
}

func (f *queryFlags) register(cmd *cobra.Command, selecting bool) {
	cmd.Flags().StringVarP(&f.where, "where", "w", "", `Filter, e.g. "name = 'Acme' AND amount >= 10"`)
	if selecting {
		cmd.Flags().StringSliceVarP(&f.fields, "select", "s", nil, "Properties to return (default all)")
		cmd.Flags().StringVarP(&f.order, "order", "o", "", `Ordering, e.g. "name desc"`)
		cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "Maximum number of records")
	}
}

// build turns the flags into a query on model.
func (f *queryFlags) build(model *schemadomain.Model, count bool) (*domain.Query, error) {
	b := builder.NewQueryBuilder(model)
	switch {
	case count:
		b.Count()
	case len(f.fields) > 0:
		b.Select(f.fields...)
	}
	if f.limit > 0 {
		b.Take(f.limit)
	}

	query, err := b.Build()
	if err != nil {
		return nil, err
	}

	conditions, err := filter.Parse(model, f.where)
	if err != nil {
		return nil, err
	}
	query.Conditions = append(query.Conditions, conditions...)

	if f.order != "" {
		order, err := filter.ParseOrder(model, f.order)
		if err != nil {
			return nil, err
		}
		query.Ordering = []domain.OrderBy{order}
	}
	return query, nil
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(a *App) *cobra.Command {
	var (
		flags   queryFlags
		count   bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "translate <model>",
		Short: "Print the SOQL for a query without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(args[0])
			if err != nil {
				return err
			}
			query, err := flags.build(model, count)
			if err != nil {
				return err
			}

			c, err := a.Container()
			if err != nil {
				return err
			}
			compiled, err := c.Compiler().Compile(cmd.Context(), query)
			if err != nil {
				return err
			}

			if explain {
				return ui.PrintMarkdown(explainMarkdown(compiled))
			}
			fmt.Fprintln(ui.Out, compiled.SOQL)
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().BoolVar(&count, "count", false, "Translate as count()")
	cmd.Flags().BoolVar(&explain, "explain", false, "Describe the column mapping")

	return cmd
}

// explainMarkdown documents a compiled query.
func explainMarkdown(compiled *domain.CompiledQuery) string {
	var b strings.Builder
	m := compiled.Mapping

	fmt.Fprintf(&b, "# %s\n\n", m.Model.Name)
	fmt.Fprintf(&b, "Storage object: `%s`\n\n", m.StorageName)
	fmt.Fprintf(&b, "```sql\n%s\n```\n\n", compiled.SOQL)

	if m.Aggregate {
		b.WriteString("The answer is a record count.\n")
		return b.String()
	}

	b.WriteString("| # | Property | Column | Type |\n|---|---|---|---|\n")
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", f.Index, f.Property.Name, f.Column, f.Property.Type)
	}
	return b.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(a *App) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query <model>",
		Short: "Read records",
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

			rows, err := svc.Read(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				ui.PrintInfo("No %s records found", model.Name)
				return nil
			}
			return ui.PrintTable(rowTable(model, rows))
		},
	}

	flags.register(cmd, true)
	return cmd
}

// rowTable lays out rows in model property order.
func rowTable(model *schemadomain.Model, rows []mapper.Row) ([]string, [][]string) {
	var columns []string
	for _, p := range model.Properties {
		for _, row := range rows {
			if _, ok := row[p]; ok {
				columns = append(columns, p.Name)
				break
			}
		}
	}

	records := make([]map[string]any, len(rows))
	for i, row := range rows {
		records[i] = make(map[string]any, len(row))
		for p, v := range row {
			records[i][p.Name] = v
		}
	}
	return ui.RecordTable(columns, records)
}

// NewCountCommand creates the count command.
func NewCountCommand(a *App) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "count <model>",
		Short: "Count matching records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.model(args[0])
			if err != nil {
				return err
			}
			query, err := flags.build(model, true)
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

			n, err := svc.Aggregate(cmd.Context(), query)
			if err != nil {
				return err
			}
			fmt.Fprintln(ui.Out, n)
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}
