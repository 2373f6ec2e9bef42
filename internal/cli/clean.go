package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/estatekit/internal/logging"
	"github.com/JonMunkholm/estatekit/internal/report"
)

func (a *app) newCleanCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "clean FILE",
		Short: "Write the cleaned dataset as CSV",
		Long: `Load FILE, normalize column names to snake_case, mark missing cells and
convert numeric text, then write the result as CSV. Missing cells are
written back as the configured missing token.`,
		Example: `  estatekit clean train.csv --out data/train_clean.csv
  estatekit clean train.csv > train_clean.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			res, err := a.service.Clean(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, closeOut()) }()

			if err := report.WriteDataset(w, res.Data, a.cfg.Data.MissingToken); err != nil {
				return err
			}
			if out != "" && out != "-" {
				logging.WithFields(cmd.Context(), "run_id", res.RunID).Info("cleaned dataset written",
					"path", out,
					"rows", res.Data.Len(),
					"columns", len(res.Data.Columns()),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default stdout)")
	return cmd
}
