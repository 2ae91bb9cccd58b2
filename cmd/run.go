package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/CraigKelly/bvsel/compare"
	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/posterior"
	"github.com/CraigKelly/bvsel/sampler"
)

var runData dataOptions
var runMethods []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fit every method to a dataset, summarize and compare",
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, err := newStartupParams(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer sp.close()

		ds, err := loadDataset(sp, &runData)
		if err != nil {
			return err
		}
		_, err = runAll(sp, ds, runMethods)
		return err
	},
}

func init() {
	dataFlags(runCmd, &runData)
	runCmd.Flags().StringSliceVar(&runMethods, "methods", allMethods, "Methods to fit")
	rootCmd.AddCommand(runCmd)
}

// fit is everything we know about one method after a run
type fit struct {
	Result    *sampler.Result
	Summary   *posterior.Table
	Inclusion []float64 // SSVS only
	LogPost   []float64
	PEff      float64
	DIC       float64
	WAIC      *compare.WAIC
}

// runAll runs the methods concurrently and reports on every complete run. A
// failed run is still reported as incomplete and its error returned.
func runAll(sp *startupParams, ds *model.Dataset, methods []string) ([]*fit, error) {
	samplers, err := buildSamplers(sp, ds, methods)
	if err != nil {
		return nil, err
	}

	sp.log.Info("Running samplers",
		zap.Strings("methods", methods),
		zap.Int("iterations", sp.conf.Iterations),
		zap.Int("burn_in", sp.conf.BurnIn),
		zap.Int64("seed", sp.seed),
	)
	results, runErr := sampler.RunAll(samplers...)
	if runErr != nil {
		sp.log.Error("Sampling failed", zap.Error(runErr))
	}

	iv, err := posterior.NewInterval(sp.conf.Interval)
	if err != nil {
		return nil, err
	}

	fits := make([]*fit, 0, len(results))
	for _, res := range results {
		sp.mon.Finished(res)
		if res == nil {
			continue
		}
		if !res.Complete {
			sp.out.Printf("\n== %s INCOMPLETE after %d of %d iterations\n", res.Method, res.Iterations, sp.conf.Iterations)
			continue
		}

		f, err := analyze(ds, res, iv, sp.conf.PriorSD)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not analyze %s", res.Method)
		}
		fits = append(fits, f)
		coefReport(sp, ds, f)
	}

	if len(fits) > 0 {
		comparisonReport(sp, fits)
	}
	return fits, incomplete(results, runErr)
}

// incomplete is the error for a run where some method stopped early. The
// sampling error is preferred when there is one.
func incomplete(results []*sampler.Result, runErr error) error {
	if sampler.Complete(results) {
		return runErr
	}
	if runErr != nil {
		return runErr
	}

	done := 0
	for _, res := range results {
		if res != nil && res.Complete {
			done++
		}
	}
	return errors.Errorf("Only %d of %d methods completed", done, len(results))
}

// analyze summarizes a complete run and scores it
func analyze(ds *model.Dataset, res *sampler.Result, iv posterior.Interval, priorSD float64) (*fit, error) {
	beta := res.Matrix(sampler.TraceBeta)
	summary, err := posterior.Summarize(beta, ds.Names(), iv)
	if err != nil {
		return nil, err
	}

	f := &fit{Result: res, Summary: summary}

	_, p := ds.Dims()
	post := &compare.Posterior{
		X:       ds.X,
		Y:       ds.Y,
		Beta:    beta,
		PriorSD: priorSD,
	}

	switch res.Method {
	case "ridge":
		// tau_sq is a variance
		post.Precision = compare.PrecisionFromVariance(res.Column(sampler.TraceTauSq, 0))
		f.PEff = float64(p)
	case "lasso":
		post.Precision = compare.Constant(res.Len(), 1.0)
		f.PEff = float64(p)
	case "ssvs":
		post.Precision = res.Column(sampler.TraceTauE, 0)
		post.Intercept = res.Column(sampler.TraceIntercept, 0)
		f.Inclusion, err = posterior.InclusionProbabilities(res.Matrix(sampler.TraceDelta))
		if err != nil {
			return nil, err
		}
		f.PEff = floats.Sum(f.Inclusion) + 1.0
	default:
		return nil, errors.Wrapf(model.ErrConfiguration, "No posterior for method %s", res.Method)
	}

	f.LogPost, err = post.LogPosterior()
	if err != nil {
		return nil, err
	}
	f.DIC = compare.DIC(f.LogPost, f.PEff)

	ll, err := post.LogLikelihood()
	if err != nil {
		return nil, err
	}
	f.WAIC, err = compare.NewWAIC(ll)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// coefReport writes the coefficient table of one method
func coefReport(sp *startupParams, ds *model.Dataset, f *fit) {
	res := f.Result
	iv := f.Summary.Interval
	sp.out.Printf("\n== %s: %d iterations, %d retained, %v, %s intervals\n",
		res.Method, res.Iterations, res.Len(), res.Elapsed, pct(iv.Level()))

	header := fmt.Sprintf("%-16s %9s %9s %9s %9s %9s %4s",
		"Predictor", "Mean", "Median", pct(iv.Lower), pct(iv.Upper), "Raw", "Sig")
	if f.Inclusion != nil {
		header += fmt.Sprintf(" %7s", "P(in)")
	}
	sp.out.Println(header)

	for j, row := range f.Summary.Rows {
		sig := ""
		if row.Significant {
			sig = "*"
		}
		raw := ds.Predictors[j].Unscale(row.Mean) * ds.YScale
		line := fmt.Sprintf("%-16s %9.4f %9.4f %9.4f %9.4f %9.4f %4s",
			row.Name, row.Mean, row.Median, row.Lower, row.Upper, raw, sig)
		if f.Inclusion != nil {
			line += fmt.Sprintf(" %7.3f", f.Inclusion[j])
		}
		sp.out.Println(line)
	}

	if sig := f.Summary.Significant(); len(sig) > 0 {
		sp.out.Printf("Significant: %v\n", sig)
	} else {
		sp.out.Printf("Significant: none\n")
	}
}

// pct labels a quantile column
func pct(p float64) string {
	return fmt.Sprintf("%.1f%%", 100.0*p)
}

// comparisonReport writes the information criteria and the pairwise log
// Bayes factors
func comparisonReport(sp *startupParams, fits []*fit) {
	sp.out.Printf("\n== Model comparison\n")
	sp.out.Printf("%-8s %12s %8s %12s %12s %10s\n", "Method", "DIC", "pEff", "WAIC", "LPPD", "pWAIC")
	for _, f := range fits {
		sp.out.Printf("%-8s %12.3f %8.3f %12.3f %12.3f %10.3f\n",
			f.Result.Method, f.DIC, f.PEff, f.WAIC.WAIC, f.WAIC.LPPD, f.WAIC.PWAIC)
	}

	if len(fits) < 2 {
		return
	}
	sp.out.Printf("\nLog Bayes factors (row over column)\n")
	header := fmt.Sprintf("%-8s", "")
	for _, f := range fits {
		header += fmt.Sprintf(" %12s", f.Result.Method)
	}
	sp.out.Println(header)
	for _, a := range fits {
		line := fmt.Sprintf("%-8s", a.Result.Method)
		for _, b := range fits {
			line += fmt.Sprintf(" %12.3f", compare.LogBayesFactor(a.LogPost, b.LogPost))
		}
		sp.out.Println(line)
	}
}
