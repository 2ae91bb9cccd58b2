package compare

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/bvsel/model"
)

// Posterior pairs a set of retained draws with the data they were fit to, for
// computing per-draw log densities under a Gaussian likelihood.
type Posterior struct {
	X         mat.Matrix // n x p design matrix
	Y         []float64  // n responses
	Beta      mat.Matrix // draws x p coefficient trace
	Intercept []float64  // Intercept per draw; nil means zero
	Precision []float64  // Residual precision per draw
	PriorSD   float64    // SD of the zero-mean normal prior on every coefficient
}

// Check makes sure every piece lines up
func (p *Posterior) Check() error {
	if p.X == nil || p.Beta == nil {
		return errors.Wrapf(model.ErrConfiguration, "Posterior requires a design matrix and a coefficient trace")
	}

	n, px := p.X.Dims()
	draws, pb := p.Beta.Dims()
	if px != pb {
		return errors.Wrapf(model.ErrConfiguration, "Design has %d columns but trace has %d", px, pb)
	}
	if len(p.Y) != n {
		return errors.Wrapf(model.ErrConfiguration, "Design has %d rows but %d responses", n, len(p.Y))
	}
	if len(p.Precision) != draws {
		return errors.Wrapf(model.ErrConfiguration, "Trace has %d draws but %d precisions", draws, len(p.Precision))
	}
	if p.Intercept != nil && len(p.Intercept) != draws {
		return errors.Wrapf(model.ErrConfiguration, "Trace has %d draws but %d intercepts", draws, len(p.Intercept))
	}
	if !(p.PriorSD > 0) {
		return errors.Wrapf(model.ErrConfiguration, "Prior SD must be > 0, got %v", p.PriorSD)
	}

	return nil
}

// LogLikelihood returns the draws x n matrix of log N(y_i; intercept + x_i*beta, 1/sqrt(tau))
func (p *Posterior) LogLikelihood() (*mat.Dense, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}

	draws, _ := p.Beta.Dims()
	n := len(p.Y)

	var ll mat.Dense
	ll.Mul(p.Beta, p.X.T())
	for d := 0; d < draws; d++ {
		dist := distuv.Normal{Sigma: sigma(p.Precision[d])}
		shift := 0.0
		if p.Intercept != nil {
			shift = p.Intercept[d]
		}
		for i := 0; i < n; i++ {
			dist.Mu = shift + ll.At(d, i)
			ll.Set(d, i, dist.LogProb(p.Y[i]))
		}
	}

	return &ll, nil
}

// LogPosterior returns one unnormalized log posterior per draw: the summed
// log likelihood plus the log prior density of every coefficient.
func (p *Posterior) LogPosterior() ([]float64, error) {
	ll, err := p.LogLikelihood()
	if err != nil {
		return nil, err
	}

	draws, cols := p.Beta.Dims()
	prior := distuv.Normal{Mu: 0.0, Sigma: p.PriorSD}
	lp := make([]float64, draws)
	for d := range lp {
		lp[d] = mat.Sum(ll.RowView(d))
		for j := 0; j < cols; j++ {
			lp[d] += prior.LogProb(p.Beta.At(d, j))
		}
	}

	return lp, nil
}

// sigma converts a precision to a standard deviation. A non-positive
// precision gives a non-finite density, which aggregation later drops.
func sigma(tau float64) float64 {
	return 1.0 / math.Sqrt(tau)
}

// PrecisionFromVariance converts a variance trace (e.g. tau_sq) to precisions
func PrecisionFromVariance(v []float64) []float64 {
	tau := make([]float64, len(v))
	for i, x := range v {
		tau[i] = 1.0 / x
	}
	return tau
}

// Constant returns a trace of draws copies of v, for models that fix the
// residual precision
func Constant(draws int, v float64) []float64 {
	c := make([]float64, draws)
	for i := range c {
		c[i] = v
	}
	return c
}
