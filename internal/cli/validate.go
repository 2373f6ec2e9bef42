package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/estatekit/internal/core"
	"github.com/JonMunkholm/estatekit/internal/dataset"
)

func (a *app) newValidateCommand() *cobra.Command {
	var (
		columns string
		rows    bool
	)

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a dataset header has the required columns",
		Long: `Read only the header of FILE and check it against the required columns.
Without --columns the housing schema (or DATA_REQUIRED_COLUMNS) is used.
With --rows the whole file is loaded and every cell is checked against the
housing field types. Exits non-zero when any check fails.`,
		Example: `  estatekit validate train.csv
  estatekit validate train.csv --columns Id,SalePrice,PoolQC
  estatekit validate train.csv --rows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			required := dataset.ParseColumns(columns).Names()
			validate := a.service.Validate
			if rows {
				validate = a.service.ValidateRows
			}
			rep, err := validate(cmd.Context(), args[0], required)
			if err != nil {
				return err
			}

			printValidation(cmd.OutOrStdout(), rep)
			if !rep.Valid {
				return errSilent
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated required columns")
	cmd.Flags().BoolVar(&rows, "rows", false, "also check every cell against the housing field types")
	return cmd
}

func printValidation(w io.Writer, rep *core.ValidationReport) {
	if len(rep.Missing) == 0 {
		_, _ = fmt.Fprintf(w, "%s: ok, all %d required columns present\n", rep.File, len(rep.Required))
	} else {
		_, _ = fmt.Fprintf(w, "%s: missing %d of %d required columns: %s\n",
			rep.File, len(rep.Missing), len(rep.Required), strings.Join(rep.Missing, ", "))
	}
	if rep.Rows == nil {
		return
	}
	if rep.Rows.Valid() {
		_, _ = fmt.Fprintf(w, "%s: ok, %d rows match their field types\n", rep.File, rep.Rows.Rows)
		return
	}

	_, _ = fmt.Fprintf(w, "%s: %d problems in %d rows\n", rep.File, rep.Rows.Total, rep.Rows.Rows)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"row", "column", "value", "problem"})
	for _, v := range rep.Rows.Violations {
		t.AppendRow(table.Row{v.Row, v.Column, v.Value, v.Message})
	}
	if rep.Rows.Truncated {
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d more not shown", rep.Rows.Total-len(rep.Rows.Violations))})
	}
	t.Render()
}
