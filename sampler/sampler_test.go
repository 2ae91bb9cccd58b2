package sampler

import (
	"math"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/posterior"
	"github.com/CraigKelly/bvsel/rand"
)

// scenario is 100 x 3 standard normals with y = 2*x1 + N(0, 0.1^2)
func scenario(t *testing.T, seed int64) (*model.Dataset, *rand.Generator) {
	gen, err := rand.NewGenerator(seed)
	require.NoError(t, err)
	ds, err := model.Synthetic(gen, 100, []float64{2.0, 0.0, 0.0}, 0.1)
	require.NoError(t, err)
	return ds, gen
}

// interval95 is the equal-tailed 95% interval of a column
func interval95(col []float64) (float64, float64) {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)
	return posterior.Quantile(posterior.Interval95.Lower, sorted), posterior.Quantile(posterior.Interval95.Upper, sorted)
}

// failing counts its sweeps into beta and breaks at failAt
type failing struct {
	cfg    Config
	failAt int
	count  int
	beta   []float64
}

func (f *failing) Name() string {
	return "failing"
}

func (f *failing) Sample() error {
	f.count++
	f.beta[0] = float64(f.count)
	if f.count == f.failAt {
		return errors.Wrapf(model.ErrDegenerate, "Sweep %d", f.count)
	}
	return nil
}

func (f *failing) Run() (*Result, error) {
	res, err := newResult(f.Name(), f.cfg.Retained(), traceShape{TraceBeta, 1})
	if err != nil {
		return nil, err
	}
	f.count = 0
	record := func(r *Result) error {
		return r.add(TraceBeta, f.beta...)
	}
	return drive(f, &f.cfg, res, record, f.beta)
}

func TestConfigValidation(t *testing.T) {
	assert := assert.New(t)

	good := DefaultConfig()
	assert.NoError(checkConfig(&good))
	assert.Equal(1500, good.Retained())

	for _, cfg := range []Config{
		{Iterations: 0, BurnIn: 0},
		{Iterations: -5, BurnIn: 0},
		{Iterations: 10, BurnIn: 10},
		{Iterations: 10, BurnIn: 11},
		{Iterations: 10, BurnIn: -1},
		{Iterations: 10, BurnIn: 0, ProgressEvery: -1},
	} {
		cfg := cfg
		err := checkConfig(&cfg)
		assert.Error(err)
		assert.True(errors.Is(err, model.ErrConfiguration), "%+v", cfg)
	}

	ridge := DefaultRidgeConfig()
	ridge.Nu = 0.0
	assert.ErrorIs(checkConfig(&ridge), model.ErrConfiguration)

	ssvs := DefaultSSVSConfig()
	ssvs.InclusionProb = 1.0
	assert.ErrorIs(checkConfig(&ssvs), model.ErrConfiguration)

	lasso := DefaultLassoConfig()
	lasso.Epsilon = 0.0
	assert.NoError(checkConfig(&lasso))
}

// Every constructor rejects the same bad input before a single sweep
func TestConstructorsRejectBadInput(t *testing.T) {
	assert := assert.New(t)

	ds, gen := scenario(t, 1)

	withNaN := mat.DenseCopyOf(ds.X)
	withNaN.Set(3, 1, math.NaN())
	shortY := ds.Y[:50]

	builders := map[string]func(g *rand.Generator, x mat.Matrix, y []float64) error{
		"ridge": func(g *rand.Generator, x mat.Matrix, y []float64) error {
			_, err := NewRidge(g, x, y, DefaultRidgeConfig())
			return err
		},
		"lasso": func(g *rand.Generator, x mat.Matrix, y []float64) error {
			_, err := NewLasso(g, x, y, DefaultLassoConfig())
			return err
		},
		"ssvs": func(g *rand.Generator, x mat.Matrix, y []float64) error {
			_, err := NewSSVS(g, x, y, DefaultSSVSConfig())
			return err
		},
	}

	for name, build := range builders {
		assert.NoError(build(gen, ds.X, ds.Y), name)
		assert.ErrorIs(build(gen, withNaN, ds.Y), model.ErrInvalidInput, name)
		assert.ErrorIs(build(gen, ds.X, shortY), model.ErrConfiguration, name)
		assert.ErrorIs(build(nil, ds.X, ds.Y), model.ErrConfiguration, name)
		assert.ErrorIs(build(gen, nil, ds.Y), model.ErrConfiguration, name)
	}

	cfg := DefaultRidgeConfig()
	cfg.BurnIn = cfg.Iterations
	r, err := NewRidge(gen, ds.X, ds.Y, cfg)
	assert.Nil(r)
	assert.ErrorIs(err, model.ErrConfiguration)
}

func TestDrivePartialResult(t *testing.T) {
	assert := assert.New(t)

	f := &failing{
		cfg:    Config{Iterations: 10, BurnIn: 2},
		failAt: 6,
		beta:   make([]float64, 1),
	}
	res, err := f.Run()
	assert.Error(err)
	assert.ErrorIs(err, model.ErrDegenerate)
	require.NotNil(t, res)
	assert.False(res.Complete)
	assert.Equal(5, res.Iterations)
	assert.Equal(3, res.Len())
	assert.Equal([]float64{3.0, 4.0, 5.0}, res.Column(TraceBeta, 0))

	f.failAt = -1
	res, err = f.Run()
	assert.NoError(err)
	assert.True(res.Complete)
	assert.Equal(10, res.Iterations)
	assert.Equal(8, res.Len())
	assert.True(res.Trace(TraceBeta).Full())
}

func TestDriveProgress(t *testing.T) {
	assert := assert.New(t)

	var seen []Progress
	f := &failing{
		cfg: Config{
			Iterations:    10,
			BurnIn:        0,
			ProgressEvery: 3,
			Progress: func(p Progress) {
				seen = append(seen, p)
			},
		},
		failAt: -1,
		beta:   make([]float64, 1),
	}

	_, err := f.Run()
	assert.NoError(err)
	require.Len(t, seen, 3)
	for i, p := range seen {
		assert.Equal("failing", p.Method)
		assert.Equal(3*(i+1), p.Iteration)
		assert.Equal(10, p.Total)
		assert.Equal([]float64{float64(3 * (i + 1))}, p.Beta)
	}

	// No progress when the interval is zero
	seen = nil
	f.cfg.ProgressEvery = 0
	_, err = f.Run()
	assert.NoError(err)
	assert.Empty(seen)
}

func TestResultAccess(t *testing.T) {
	assert := assert.New(t)

	res, err := newResult("x", 2, traceShape{TraceBeta, 2}, traceShape{TraceTauSq, 1})
	require.NoError(t, err)
	assert.Equal([]string{TraceBeta, TraceTauSq}, res.Names)
	assert.Equal(0, res.Len())
	assert.Nil(res.Matrix(TraceBeta))
	assert.Nil(res.Matrix("nope"))
	assert.Nil(res.Column("nope", 0))
	assert.Nil(res.Trace("nope"))

	assert.NoError(res.add(TraceBeta, 1.0, 2.0))
	assert.NoError(res.add(TraceBeta, 3.0, 4.0))
	assert.Error(res.add(TraceBeta, 5.0, 6.0))
	assert.Error(res.add(TraceTauSq, 1.0, 2.0))

	m := res.Matrix(TraceBeta)
	r, c := m.Dims()
	assert.Equal(2, r)
	assert.Equal(2, c)
	assert.Equal(4.0, m.At(1, 1))
	assert.Equal([]float64{2.0, 4.0}, res.Column(TraceBeta, 1))
}

func TestIntervalMatchesSummary(t *testing.T) {
	assert := assert.New(t)

	ds, gen := scenario(t, 5)
	cfg := DefaultRidgeConfig()
	cfg.Iterations, cfg.BurnIn = 300, 100
	r, err := NewRidge(gen, ds.X, ds.Y, cfg)
	require.NoError(t, err)
	res, err := r.Run()
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		draws := res.Column(TraceBeta, j)
		lo, hi := interval95(draws)
		row, err := posterior.SummarizeColumn("b", draws, posterior.Interval95)
		require.NoError(t, err)
		assert.Equal(row.Lower, lo)
		assert.Equal(row.Upper, hi)
	}
}

func TestScaleDraws(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(3)
	require.NoError(t, err)

	v, err := drawGamma(gen, 2.0, 1.0, "test")
	assert.NoError(err)
	assert.True(v > 0)

	v, err = drawInverseGamma(gen, 2.0, 1.0, "test")
	assert.NoError(err)
	assert.True(v > 0)

	for _, bad := range [][2]float64{{0, 1}, {1, 0}, {-1, 1}, {1, math.Inf(1)}, {math.NaN(), 1}} {
		_, err = drawGamma(gen, bad[0], bad[1], "test")
		assert.ErrorIs(err, model.ErrDegenerate)
		_, err = drawInverseGamma(gen, bad[0], bad[1], "test")
		assert.ErrorIs(err, model.ErrDegenerate)
	}
}
