package sampler

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/linalg"
	"github.com/CraigKelly/bvsel/rand"
)

// RidgeConfig holds the Bayesian Ridge/horseshoe hyperparameters. The local
// scale of coefficient j is half-t with Nu degrees of freedom, written as a
// two-level gamma hierarchy: lambda_j^2 | gamma_j ~ Gamma(Nu/2, Nu*gamma_j)
// (a prior precision) and gamma_j ~ Gamma(1/2, 1/GlobalScale^2). Nu=1 is
// the horseshoe.
type RidgeConfig struct {
	Config `mapstructure:",squash"`

	Nu          float64 `mapstructure:"nu" validate:"gt=0"`           // Degrees of freedom of the local scales
	Lambda0     float64 `mapstructure:"lambda0" validate:"gt=0"`      // Initial prior precision lambda^2
	GammaInit   float64 `mapstructure:"gamma_init" validate:"gt=0"`   // Initial gamma
	TauShape    float64 `mapstructure:"tau_shape" validate:"gt=0"`    // Inverse gamma prior shape for tau^2
	TauRate     float64 `mapstructure:"tau_rate" validate:"gt=0"`     // Inverse gamma prior rate for tau^2
	TauInit     float64 `mapstructure:"tau_init" validate:"gt=0"`     // Initial residual variance
	GlobalScale float64 `mapstructure:"global_scale" validate:"gt=0"` // Scale A of the gamma hyperprior
}

// DefaultRidgeConfig returns the horseshoe with vague variance prior
func DefaultRidgeConfig() RidgeConfig {
	return RidgeConfig{
		Config:      DefaultConfig(),
		Nu:          1.0,
		Lambda0:     1.0,
		GammaInit:   1.0,
		TauShape:    0.001,
		TauRate:     0.001,
		TauInit:     1.0,
		GlobalScale: 1.0,
	}
}

// Ridge is the Bayesian Ridge/horseshoe Gibbs sampler. Each sweep draws, in
// order: beta, the residual variance tau^2, the local precisions lambda^2
// and then gamma. Every step reads the value drawn just before it.
type Ridge struct {
	cfg    RidgeConfig
	gen    *rand.Generator
	kernel *linalg.Kernel
	y      []float64
	n, p   int

	beta     []float64
	tauSq    float64
	lambdaSq []float64
	gamma    []float64
	fitted   []float64
}

// NewRidge creates a new sampler. Configuration and input problems are
// reported here, before any iteration runs.
func NewRidge(gen *rand.Generator, x mat.Matrix, y []float64, cfg RidgeConfig) (*Ridge, error) {
	if err := checkConfig(&cfg); err != nil {
		return nil, err
	}
	if err := checkInput(gen, x, y); err != nil {
		return nil, err
	}

	kernel, err := linalg.NewKernel(x, y)
	if err != nil {
		return nil, errors.Wrap(err, "Ridge kernel could not be created")
	}

	n, p := x.Dims()
	r := &Ridge{
		cfg:      cfg,
		gen:      gen,
		kernel:   kernel,
		y:        append([]float64(nil), y...),
		n:        n,
		p:        p,
		beta:     make([]float64, p),
		lambdaSq: make([]float64, p),
		gamma:    make([]float64, p),
		fitted:   make([]float64, n),
	}
	r.Reset()

	return r, nil
}

// Name implements Sampler
func (r *Ridge) Name() string {
	return "ridge"
}

// Reset puts the chain back at its starting values
func (r *Ridge) Reset() {
	fill(r.beta, 0.0)
	fill(r.lambdaSq, r.cfg.Lambda0)
	fill(r.gamma, r.cfg.GammaInit)
	r.tauSq = r.cfg.TauInit
}

// Sample performs one Gibbs sweep - implements Sampler
func (r *Ridge) Sample() error {
	cond := linalg.Conditional{
		NoisePrecision: 1.0 / r.tauSq,
		PriorPrecision: r.lambdaSq,
	}
	if err := r.kernel.Draw(r.gen, cond, r.beta); err != nil {
		return errors.Wrap(err, "Ridge beta draw")
	}

	if err := r.kernel.Fitted(r.beta, r.fitted); err != nil {
		return err
	}
	rss := 0.0
	for i, f := range r.fitted {
		d := r.y[i] - f
		rss += d * d
	}

	var err error
	r.tauSq, err = drawInverseGamma(r.gen, r.cfg.TauShape+float64(r.n)/2.0, r.cfg.TauRate+rss/2.0, "tau_sq")
	if err != nil {
		return err
	}

	shape := (r.cfg.Nu + 1.0) / 2.0
	for j, b := range r.beta {
		r.lambdaSq[j], err = drawGamma(r.gen, shape, r.cfg.Nu*r.gamma[j]+b*b/2.0, "lambda_sq")
		if err != nil {
			return errors.Wrapf(err, "Coefficient %d", j)
		}
	}

	invA2 := 1.0 / (r.cfg.GlobalScale * r.cfg.GlobalScale)
	for j, l := range r.lambdaSq {
		r.gamma[j], err = drawGamma(r.gen, shape, r.cfg.Nu*l+invA2, "gamma")
		if err != nil {
			return errors.Wrapf(err, "Coefficient %d", j)
		}
	}

	return nil
}

// Run resets the chain and runs it. Traces: beta, tau_sq, lambda_sq, gamma.
func (r *Ridge) Run() (*Result, error) {
	res, err := newResult(r.Name(), r.cfg.Retained(),
		traceShape{TraceBeta, r.p},
		traceShape{TraceTauSq, 1},
		traceShape{TraceLambdaSq, r.p},
		traceShape{TraceGamma, r.p},
	)
	if err != nil {
		return nil, err
	}

	r.Reset()
	return drive(r, &r.cfg.Config, res, r.record, r.beta)
}

func (r *Ridge) record(res *Result) error {
	if err := res.add(TraceBeta, r.beta...); err != nil {
		return err
	}
	if err := res.add(TraceTauSq, r.tauSq); err != nil {
		return err
	}
	if err := res.add(TraceLambdaSq, r.lambdaSq...); err != nil {
		return err
	}
	return res.add(TraceGamma, r.gamma...)
}
