package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/estatekit/internal/dataset"
)

// WriteDataset writes ds as CSV with cleaned column names. Absent values
// are written as missing, so the output loads back to the same dataset.
func WriteDataset(w io.Writer, ds *dataset.Dataset, missing string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ds.Records(missing)); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
