package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CraigKelly/bvsel/crossval"
	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
)

var cvData dataOptions
var cvMethods []string
var cvFolds int

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "K-fold cross-validated RMSE of every method against OLS",
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer sp.close()

		ds, err := loadDataset(sp, &cvData)
		if err != nil {
			return err
		}
		_, err = crossValidateAll(sp, ds, cvMethods, cvFolds)
		return err
	},
}

func init() {
	dataFlags(cvCmd, &cvData)
	cvCmd.Flags().StringSliceVar(&cvMethods, "methods", allMethods, "Methods to cross validate")
	cvCmd.Flags().IntVarP(&cvFolds, "folds", "k", 5, "Number of folds")
	rootCmd.AddCommand(cvCmd)
}

// crossValidateAll scores OLS and then each method on the same folds
func crossValidateAll(sp *startupParams, ds *model.Dataset, methods []string, k int) ([]*crossval.Report, error) {
	fitters := []crossval.Fitter{crossval.OLS{}}
	for _, method := range methods {
		build, err := builderFor(method, sp.conf, sp.log, sp.mon.Progress)
		if err != nil {
			return nil, err
		}
		gen, err := sp.gen.Spawn()
		if err != nil {
			return nil, err
		}
		fitters = append(fitters, &crossval.PosteriorMean{Method: method, Build: build, Gen: gen})
	}

	// Every fitter sees the same folds
	foldSeed := sp.gen.Int63()

	sp.out.Printf("\n== %d-fold cross validation (RMSE on the standardized response)\n", k)
	sp.out.Printf("%-8s %10s %10s  %s\n", "Method", "Mean", "SD", "Folds")

	reports := make([]*crossval.Report, 0, len(fitters))
	for _, f := range fitters {
		gen, err := rand.NewGenerator(foldSeed)
		if err != nil {
			return nil, err
		}

		rep, err := crossval.CrossValidate(ds, k, gen, f)
		if err != nil {
			return nil, err
		}
		sp.log.Debug("Cross validated", zap.String("method", rep.Method), zap.Float64s("rmse", rep.RMSE))
		sp.out.Printf("%-8s %10.4f %10.4f  %s\n", rep.Method, rep.MeanRMSE, rep.SDRMSE, formatFloats(rep.RMSE))
		reports = append(reports, rep)
	}

	return reports, nil
}

func formatFloats(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, " ")
}
