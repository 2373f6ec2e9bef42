package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/estatekit/internal/dataset"
	"github.com/JonMunkholm/estatekit/internal/describe"
	"github.com/JonMunkholm/estatekit/internal/report"
)

func (a *app) newDescribeCommand() *cobra.Command {
	var (
		columns    string
		percentile int
		format     string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Summarize dataset columns",
		Long: `Load and clean FILE, then report per column: value count, none ratio and
mode, plus min, max, mean, median and the requested percentile for numeric
columns. Without --columns every column is summarized.

Column names may be given as in the file header or in cleaned form.`,
		Example: `  estatekit describe train.csv
  estatekit describe train.csv --columns SalePrice,LotArea --percentile 95
  estatekit describe train.csv --format xlsx --out summary.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if !cmd.Flags().Changed("percentile") {
				percentile = a.cfg.Report.Percentile
			}
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Report.Format
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("%w: %v", describe.ErrInvalidArgument, err)
			}
			if f.Binary() && (out == "" || out == "-") {
				return fmt.Errorf("%w: %s output needs --out", describe.ErrInvalidArgument, f)
			}

			an, err := a.service.Describe(cmd.Context(), args[0], dataset.ParseColumns(columns), percentile)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeOut()) }()

			return report.Write(w, an.Summary, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&columns, "columns", "", "comma-separated columns to summarize (default all)")
	flags.IntVarP(&percentile, "percentile", "p", 90, "percentile to report, 1-100 (env REPORT_PERCENTILE)")
	flags.StringVarP(&format, "format", "f", "table", "output format: table, markdown, csv, json, yaml, xlsx (env REPORT_FORMAT)")
	flags.StringVarP(&out, "out", "o", "", "output path (default stdout)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(report.Formats))
		for i, f := range report.Formats {
			names[i] = string(f)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
