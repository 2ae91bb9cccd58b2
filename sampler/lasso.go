package sampler

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/linalg"
	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
)

// LassoConfig holds the Bayesian Lasso settings. The residual precision is
// fixed at 1 (the response is standardized).
type LassoConfig struct {
	Config `mapstructure:",squash"`

	PriorScale float64 `mapstructure:"prior_scale" validate:"gt=0"` // Multiplies every prior standard deviation
	Epsilon    float64 `mapstructure:"epsilon" validate:"gte=0"`    // Floor on |beta_j| in the lambda^2 rate
	Lambda0    float64 `mapstructure:"lambda0" validate:"gt=0"`     // Initial lambda^2
}

// DefaultLassoConfig returns a unit prior scale and a tiny rate floor
func DefaultLassoConfig() LassoConfig {
	return LassoConfig{
		Config:     DefaultConfig(),
		PriorScale: 1.0,
		Epsilon:    1e-8,
		Lambda0:    1.0,
	}
}

// Lasso is the Bayesian Lasso Gibbs sampler: beta is conditionally Gaussian
// with prior variance PriorScale^2 * lambda_j^2, and each lambda_j^2 is
// exponential with rate |beta_j|.
type Lasso struct {
	cfg    LassoConfig
	gen    *rand.Generator
	kernel *linalg.Kernel
	p      int

	beta     []float64
	lambdaSq []float64
	prior    []float64
}

// NewLasso creates a new sampler
func NewLasso(gen *rand.Generator, x mat.Matrix, y []float64, cfg LassoConfig) (*Lasso, error) {
	if err := checkConfig(&cfg); err != nil {
		return nil, err
	}
	if err := checkInput(gen, x, y); err != nil {
		return nil, err
	}

	kernel, err := linalg.NewKernel(x, y)
	if err != nil {
		return nil, errors.Wrap(err, "Lasso kernel could not be created")
	}

	_, p := x.Dims()
	l := &Lasso{
		cfg:      cfg,
		gen:      gen,
		kernel:   kernel,
		p:        p,
		beta:     make([]float64, p),
		lambdaSq: make([]float64, p),
		prior:    make([]float64, p),
	}
	l.Reset()

	return l, nil
}

// Name implements Sampler
func (l *Lasso) Name() string {
	return "lasso"
}

// Reset puts the chain back at its starting values
func (l *Lasso) Reset() {
	fill(l.beta, 0.0)
	fill(l.lambdaSq, l.cfg.Lambda0)
}

// Sample performs one Gibbs sweep - implements Sampler
func (l *Lasso) Sample() error {
	s2 := l.cfg.PriorScale * l.cfg.PriorScale
	for j, lsq := range l.lambdaSq {
		l.prior[j] = 1.0 / (s2 * lsq)
	}

	cond := linalg.Conditional{
		NoisePrecision: 1.0,
		PriorPrecision: l.prior,
	}
	if err := l.kernel.Draw(l.gen, cond, l.beta); err != nil {
		return errors.Wrap(err, "Lasso beta draw")
	}

	for j, b := range l.beta {
		rate, err := lassoRate(b, l.cfg.Epsilon)
		if err != nil {
			return errors.Wrapf(err, "Coefficient %d", j)
		}
		l.lambdaSq[j], err = drawGamma(l.gen, 1.0, rate, "lambda_sq")
		if err != nil {
			return errors.Wrapf(err, "Coefficient %d", j)
		}
	}

	return nil
}

// lassoRate is the rate of the lambda^2 conditional. An exactly zero
// coefficient with no floor would make the gamma degenerate.
func lassoRate(beta float64, eps float64) (float64, error) {
	rate := math.Max(math.Abs(beta), eps)
	if !(rate > 0) {
		return math.NaN(), errors.Wrapf(model.ErrDegenerate, "Zero rate from coefficient %v with floor %v", beta, eps)
	}
	return rate, nil
}

// Run resets the chain and runs it. Traces: beta, lambda_sq.
func (l *Lasso) Run() (*Result, error) {
	res, err := newResult(l.Name(), l.cfg.Retained(),
		traceShape{TraceBeta, l.p},
		traceShape{TraceLambdaSq, l.p},
	)
	if err != nil {
		return nil, err
	}

	l.Reset()
	return drive(l, &l.cfg.Config, res, l.record, l.beta)
}

func (l *Lasso) record(res *Result) error {
	if err := res.add(TraceBeta, l.beta...); err != nil {
		return err
	}
	return res.add(TraceLambdaSq, l.lambdaSq...)
}
