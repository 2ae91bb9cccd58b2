package sampler

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CraigKelly/bvsel/buffer"
	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
)

// Trace names shared by the samplers
const (
	TraceBeta      = "beta"
	TraceTauSq     = "tau_sq"
	TraceLambdaSq  = "lambda_sq"
	TraceGamma     = "gamma"
	TraceIntercept = "intercept"
	TraceTauE      = "tau_e"
	TraceDelta     = "delta"
)

// A Sampler is a Gibbs sampler for one regression model. Sample performs one
// full sweep over every conditional; Run resets the chain and performs
// Iterations sweeps, keeping the draws after burn-in.
type Sampler interface {
	Name() string
	Sample() error
	Run() (*Result, error)
}

// Config holds the settings every sampler shares
type Config struct {
	Iterations    int          `mapstructure:"iterations" validate:"gt=0"`
	BurnIn        int          `mapstructure:"burn_in" validate:"gte=0,ltfield=Iterations"`
	ProgressEvery int          `mapstructure:"progress_every" validate:"gte=0"`
	Progress      ProgressFunc `mapstructure:"-" validate:"-"`
	Logger        *zap.Logger  `mapstructure:"-" validate:"-"`
}

// DefaultConfig is 2000 iterations with the first 500 discarded, and a
// progress report every 1000 iterations when a Progress func is set.
func DefaultConfig() Config {
	return Config{
		Iterations:    2000,
		BurnIn:        500,
		ProgressEvery: 1000,
	}
}

// Retained is the number of rows every trace of a complete run will have
func (c *Config) Retained() int {
	return c.Iterations - c.BurnIn
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Progress is handed to a ProgressFunc every ProgressEvery iterations
type Progress struct {
	Method    string
	Iteration int       // 1-based count of completed sweeps
	Total     int       // Configured iterations
	Beta      []float64 // Copy of the current coefficients
}

// ProgressFunc receives progress reports. It runs on the sampling goroutine,
// so it must return quickly.
type ProgressFunc func(Progress)

var validate = validator.New()

// checkConfig runs the struct tags and turns failures into ErrConfiguration
func checkConfig(cfg interface{}) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag()+" "+fe.Param())
		}
		return errors.Wrapf(model.ErrConfiguration, "Invalid sampler config: %s", strings.Join(msgs, "; "))
	}
	return errors.Wrapf(model.ErrConfiguration, "Invalid sampler config: %v", err)
}

// Result holds the retained draws of one run
type Result struct {
	Method     string
	Names      []string      // Trace names in the order the sampler declared them
	Iterations int           // Sweeps completed, burn-in included
	Complete   bool          // False if the run stopped early on an error
	Elapsed    time.Duration // Wall time of the run

	traces map[string]*buffer.Trace
}

func newResult(method string, rows int, shapes ...traceShape) (*Result, error) {
	res := &Result{
		Method: method,
		Names:  make([]string, 0, len(shapes)),
		traces: make(map[string]*buffer.Trace),
	}
	for _, s := range shapes {
		tr, err := buffer.NewTrace(s.name, rows, s.cols)
		if err != nil {
			return nil, err
		}
		res.Names = append(res.Names, s.name)
		res.traces[s.name] = tr
	}
	return res, nil
}

type traceShape struct {
	name string
	cols int
}

// Trace returns the named trace, or nil
func (r *Result) Trace(name string) *buffer.Trace {
	return r.traces[name]
}

// Matrix returns the named trace as a rows x cols matrix; nil when the trace
// is unknown or empty
func (r *Result) Matrix(name string) *mat.Dense {
	tr := r.traces[name]
	if tr == nil {
		return nil
	}
	return tr.Matrix()
}

// Column returns column j of the named trace (a scalar trace has only column 0)
func (r *Result) Column(name string, j int) []float64 {
	tr := r.traces[name]
	if tr == nil {
		return nil
	}
	return tr.Column(j)
}

// Len is the number of retained rows
func (r *Result) Len() int {
	if len(r.Names) < 1 {
		return 0
	}
	return r.traces[r.Names[0]].Count
}

func (r *Result) add(name string, row ...float64) error {
	return r.traces[name].Add(row...)
}

// drive is the Gibbs loop shared by every sampler: sweep, keep post burn-in
// draws, report progress. On error the partial result comes back with
// Complete=false.
func drive(s Sampler, cfg *Config, res *Result, record func(*Result) error, beta []float64) (*Result, error) {
	log := cfg.logger().With(zap.String("method", res.Method))
	log.Debug("Starting chain",
		zap.Int("iterations", cfg.Iterations),
		zap.Int("burn_in", cfg.BurnIn),
	)

	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
	}()

	for it := 0; it < cfg.Iterations; it++ {
		if err := s.Sample(); err != nil {
			log.Warn("Chain stopped early",
				zap.Int("iteration", it+1),
				zap.Int("retained", res.Len()),
				zap.Error(err),
			)
			return res, errors.Wrapf(err, "%s failed at iteration %d", res.Method, it+1)
		}
		res.Iterations = it + 1

		if it >= cfg.BurnIn {
			if err := record(res); err != nil {
				return res, errors.Wrapf(err, "%s could not record iteration %d", res.Method, it+1)
			}
		}

		if cfg.Progress != nil && cfg.ProgressEvery > 0 && (it+1)%cfg.ProgressEvery == 0 {
			cp := make([]float64, len(beta))
			copy(cp, beta)
			cfg.Progress(Progress{
				Method:    res.Method,
				Iteration: it + 1,
				Total:     cfg.Iterations,
				Beta:      cp,
			})
		}
	}

	res.Complete = true
	log.Debug("Chain complete",
		zap.Int("retained", res.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// checkScale insists that a freshly drawn scale parameter can feed the next
// step
func checkScale(what string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return errors.Wrapf(model.ErrDegenerate, "%s drew %v", what, v)
	}
	return nil
}

// drawGamma draws from Gamma(shape, rate)
func drawGamma(gen *rand.Generator, shape, rate float64, what string) (float64, error) {
	if err := checkScale(what+" shape", shape); err != nil {
		return math.NaN(), err
	}
	if err := checkScale(what+" rate", rate); err != nil {
		return math.NaN(), err
	}

	v := distuv.Gamma{Alpha: shape, Beta: rate, Src: gen}.Rand()
	return v, checkScale(what, v)
}

// drawInverseGamma draws from InverseGamma(shape, scale)
func drawInverseGamma(gen *rand.Generator, shape, scale float64, what string) (float64, error) {
	if err := checkScale(what+" shape", shape); err != nil {
		return math.NaN(), err
	}
	if err := checkScale(what+" scale", scale); err != nil {
		return math.NaN(), err
	}

	v := distuv.InverseGamma{Alpha: shape, Beta: scale, Src: gen}.Rand()
	return v, checkScale(what, v)
}

// checkInput covers what every constructor checks before a chain can start
func checkInput(gen *rand.Generator, x mat.Matrix, y []float64) error {
	if gen == nil {
		return errors.Wrapf(model.ErrConfiguration, "A generator is required")
	}
	if x == nil {
		return errors.Wrapf(model.ErrConfiguration, "No design matrix supplied")
	}
	return model.CheckFinite(x, y)
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}
