package cmd

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CraigKelly/bvsel/model"
)

var synthRows int
var synthEffects []float64
var synthNoise float64
var synthOut string

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic dataset with known effects as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer sp.close()

		ds, err := model.Synthetic(sp.gen, synthRows, synthEffects, synthNoise)
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		if synthOut != "" && synthOut != "-" {
			f, err := os.Create(synthOut)
			if err != nil {
				return errors.Wrapf(err, "Could not create %s", synthOut)
			}
			defer f.Close()
			out = f
		}

		if err := writeCSV(out, ds); err != nil {
			return err
		}
		if synthOut != "" && synthOut != "-" {
			sp.out.Printf("Wrote %d rows to %s\n", synthRows, synthOut)
		}
		return nil
	},
}

func init() {
	synthCmd.Flags().IntVarP(&synthRows, "rows", "n", 100, "Number of observations")
	synthCmd.Flags().Float64SliceVar(&synthEffects, "effects", []float64{2.0, 0.0, 0.0}, "True coefficient of each predictor")
	synthCmd.Flags().Float64Var(&synthNoise, "noise", 0.1, "Noise standard deviation")
	synthCmd.Flags().StringVarP(&synthOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(synthCmd)
}

// writeCSV writes the predictors then the response, with a header row
func writeCSV(out io.Writer, ds *model.Dataset) error {
	w := csv.NewWriter(out)

	header := append(ds.Names(), ds.Response)
	if err := w.Write(header); err != nil {
		return err
	}

	n, p := ds.Dims()
	rec := make([]string, p+1)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			rec[j] = strconv.FormatFloat(ds.X.At(i, j), 'g', -1, 64)
		}
		rec[p] = strconv.FormatFloat(ds.Y[i], 'g', -1, 64)
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
