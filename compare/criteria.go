package compare

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/CraigKelly/bvsel/model"
)

// finite returns the finite entries of x. Non-finite log densities are
// dropped silently before any aggregation.
func finite(x []float64) []float64 {
	keep := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			keep = append(keep, v)
		}
	}
	return keep
}

// DIC is the deviance information criterion -2*mean(logPost) + 2*pEff, taken
// over the finite entries of logPost. NaN when there are none.
func DIC(logPost []float64, pEff float64) float64 {
	keep := finite(logPost)
	if len(keep) < 1 {
		return math.NaN()
	}
	return -2.0*stat.Mean(keep, nil) + 2.0*pEff
}

// LogBayesFactor is sum(a) - sum(b) over the finite entries of each
func LogBayesFactor(a, b []float64) float64 {
	return floats.Sum(finite(a)) - floats.Sum(finite(b))
}

// BayesFactor is exp(LogBayesFactor(a, b)). It overflows quickly; prefer the
// log form for anything but small differences.
func BayesFactor(a, b []float64) float64 {
	return math.Exp(LogBayesFactor(a, b))
}

// WAIC is the widely applicable information criterion of a log-likelihood
// matrix
type WAIC struct {
	LPPD         float64 // Log pointwise predictive density
	PWAIC        float64 // Effective number of parameters
	WAIC         float64 // -2 * (LPPD - PWAIC)
	Observations int     // Observations with at least one finite draw
}

// NewWAIC computes WAIC from a draws x observations log-likelihood matrix.
// For each observation the non-finite draws are dropped; an observation with
// no finite draws is skipped entirely and one with a single draw contributes
// no variance.
func NewWAIC(ll mat.Matrix) (*WAIC, error) {
	if ll == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "No log-likelihood matrix")
	}

	rows, cols := ll.Dims()
	w := &WAIC{}
	col := make([]float64, rows)
	for i := 0; i < cols; i++ {
		mat.Col(col, i, ll)
		keep := finite(col)
		if len(keep) < 1 {
			continue
		}

		w.Observations++
		w.LPPD += floats.LogSumExp(keep) - math.Log(float64(len(keep)))
		if len(keep) > 1 {
			w.PWAIC += stat.Variance(keep, nil)
		}
	}

	if w.Observations < 1 {
		return nil, errors.Wrapf(model.ErrNonFinite, "No finite log-likelihood values in %d x %d matrix", rows, cols)
	}

	w.WAIC = -2.0 * (w.LPPD - w.PWAIC)
	return w, nil
}
