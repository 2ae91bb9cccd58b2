package sampler

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/bvsel/linalg"
	"github.com/CraigKelly/bvsel/rand"
)

// MaxLogOdds bounds the inclusion log-odds before the logistic transform
const MaxLogOdds = 10.0

// SSVSConfig holds the spike-and-slab settings
type SSVSConfig struct {
	Config `mapstructure:",squash"`

	InclusionProb  float64 `mapstructure:"inclusion_prob" validate:"gt=0,lt=1"` // Prior P(delta_j = 1)
	A1             float64 `mapstructure:"a1" validate:"gt=0"`                  // Gamma prior shape for tau_e
	B1             float64 `mapstructure:"b1" validate:"gt=0"`                  // Gamma prior rate for tau_e
	PriorPrecision float64 `mapstructure:"prior_precision" validate:"gt=0"`     // Slab prior precision for alpha
	TauInit        float64 `mapstructure:"tau_init" validate:"gt=0"`            // Initial residual precision
}

// DefaultSSVSConfig returns even prior odds and a wide slab
func DefaultSSVSConfig() SSVSConfig {
	return SSVSConfig{
		Config:         DefaultConfig(),
		InclusionProb:  0.5,
		A1:             0.01,
		B1:             0.01,
		PriorPrecision: 0.1,
		TauInit:        1.0,
	}
}

// SSVS is the stochastic search variable selection Gibbs sampler. Every
// predictor j has a slab value alpha_j and an indicator delta_j in {0, 1};
// the coefficient is beta_j = delta_j * alpha_j. Indicators are updated one
// at a time in column order, each seeing the residual left by the ones
// already updated in the same sweep.
type SSVS struct {
	cfg    SSVSConfig
	gen    *rand.Generator
	kernel *linalg.Kernel
	y      []float64
	cols   [][]float64 // X by column
	n, p   int

	tauE      float64
	intercept float64
	alpha     []float64
	delta     []float64
	beta      []float64
	prior     []float64
	fitted    []float64
	resid     []float64
}

// NewSSVS creates a new sampler. Missing predictor values are rejected here.
func NewSSVS(gen *rand.Generator, x mat.Matrix, y []float64, cfg SSVSConfig) (*SSVS, error) {
	if err := checkConfig(&cfg); err != nil {
		return nil, err
	}
	if err := checkInput(gen, x, y); err != nil {
		return nil, err
	}

	kernel, err := linalg.NewKernel(x, y)
	if err != nil {
		return nil, errors.Wrap(err, "SSVS kernel could not be created")
	}

	n, p := x.Dims()
	s := &SSVS{
		cfg:    cfg,
		gen:    gen,
		kernel: kernel,
		y:      append([]float64(nil), y...),
		cols:   make([][]float64, p),
		n:      n,
		p:      p,
		alpha:  make([]float64, p),
		delta:  make([]float64, p),
		beta:   make([]float64, p),
		prior:  make([]float64, p),
		fitted: make([]float64, n),
		resid:  make([]float64, n),
	}
	for j := range s.cols {
		s.cols[j] = mat.Col(nil, j, x)
	}
	fill(s.prior, cfg.PriorPrecision)
	s.Reset()

	return s, nil
}

// Name implements Sampler
func (s *SSVS) Name() string {
	return "ssvs"
}

// Reset starts with every predictor included and all slabs at zero
func (s *SSVS) Reset() {
	fill(s.alpha, 0.0)
	fill(s.delta, 1.0)
	fill(s.beta, 0.0)
	s.tauE = s.cfg.TauInit
	s.intercept = 0.0
}

// residuals sets resid = y - intercept - X*beta
func (s *SSVS) residuals() error {
	if err := s.kernel.Fitted(s.beta, s.fitted); err != nil {
		return err
	}
	for i, f := range s.fitted {
		s.resid[i] = s.y[i] - s.intercept - f
	}
	return nil
}

// Sample performs one Gibbs sweep - implements Sampler
func (s *SSVS) Sample() error {
	var err error

	// Residual precision
	if err = s.residuals(); err != nil {
		return err
	}
	ss := floats.Dot(s.resid, s.resid)
	s.tauE, err = drawGamma(s.gen, s.cfg.A1+float64(s.n)/2.0, s.cfg.B1+ss/2.0, "tau_e")
	if err != nil {
		return err
	}

	// Intercept, flat prior: mean of y - X*beta
	mu := floats.Sum(s.resid)/float64(s.n) + s.intercept
	sd := 1.0 / math.Sqrt(float64(s.n)*s.tauE)
	s.intercept = distuv.Normal{Mu: mu, Sigma: sd, Src: s.gen}.Rand()

	// Slab values given the current indicators
	cond := linalg.Conditional{
		NoisePrecision: s.tauE,
		PriorPrecision: s.prior,
		Mask:           s.delta,
		Offset:         s.intercept,
	}
	if err = s.kernel.Draw(s.gen, cond, s.alpha); err != nil {
		return errors.Wrap(err, "SSVS alpha draw")
	}
	for j := range s.beta {
		s.beta[j] = s.alpha[j] * s.delta[j]
	}

	// Single-site indicator sweep, fixed order
	if err = s.residuals(); err != nil {
		return err
	}
	logPrior := math.Log(s.cfg.InclusionProb / (1.0 - s.cfg.InclusionProb))
	for j, col := range s.cols {
		old := s.beta[j]
		a := s.alpha[j]

		var excl, incl float64
		for i, xij := range col {
			r := s.resid[i] + xij*old
			excl += r * r
			d := r - xij*a
			incl += d * d
		}

		lo := logPrior + 0.5*s.tauE*excl - 0.5*s.tauE*incl
		prob := logistic(clip(lo, MaxLogOdds))
		s.delta[j] = distuv.Bernoulli{P: prob, Src: s.gen}.Rand()
		s.beta[j] = s.delta[j] * a

		if change := old - s.beta[j]; change != 0 {
			for i, xij := range col {
				s.resid[i] += xij * change
			}
		}
	}

	return nil
}

func clip(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

func logistic(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

// Run resets the chain and runs it. Traces: beta, intercept, tau_e, delta.
func (s *SSVS) Run() (*Result, error) {
	res, err := newResult(s.Name(), s.cfg.Retained(),
		traceShape{TraceBeta, s.p},
		traceShape{TraceIntercept, 1},
		traceShape{TraceTauE, 1},
		traceShape{TraceDelta, s.p},
	)
	if err != nil {
		return nil, err
	}

	s.Reset()
	return drive(s, &s.cfg.Config, res, s.record, s.beta)
}

func (s *SSVS) record(res *Result) error {
	if err := res.add(TraceBeta, s.beta...); err != nil {
		return err
	}
	if err := res.add(TraceIntercept, s.intercept); err != nil {
		return err
	}
	if err := res.add(TraceTauE, s.tauE); err != nil {
		return err
	}
	return res.add(TraceDelta, s.delta...)
}
