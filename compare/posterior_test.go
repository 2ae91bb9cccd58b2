package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/model"
)

const logRoot2Pi = 0.91893853320467274178 // log(sqrt(2*pi))

func logNormal(x, mu, sd float64) float64 {
	z := (x - mu) / sd
	return -0.5*z*z - math.Log(sd) - logRoot2Pi
}

func smallPosterior() *Posterior {
	return &Posterior{
		X: mat.NewDense(3, 2, []float64{
			1.0, 0.0,
			0.0, 1.0,
			1.0, 1.0,
		}),
		Y: []float64{1.0, 2.0, 2.5},
		Beta: mat.NewDense(2, 2, []float64{
			1.0, 2.0,
			0.5, 1.5,
		}),
		Precision: []float64{4.0, 1.0},
		PriorSD:   2.0,
	}
}

func TestLogLikelihood(t *testing.T) {
	assert := assert.New(t)

	p := smallPosterior()
	ll, err := p.LogLikelihood()
	require.NoError(t, err)
	r, c := ll.Dims()
	assert.Equal(2, r)
	assert.Equal(3, c)

	// Draw 0: fitted (1, 2, 3), sd 0.5
	assert.InDelta(logNormal(1.0, 1.0, 0.5), ll.At(0, 0), 1e-12)
	assert.InDelta(logNormal(2.5, 3.0, 0.5), ll.At(0, 2), 1e-12)
	// Draw 1: fitted (0.5, 1.5, 2), sd 1
	assert.InDelta(logNormal(2.0, 1.5, 1.0), ll.At(1, 1), 1e-12)

	p.Intercept = []float64{0.5, -0.5}
	ll, err = p.LogLikelihood()
	require.NoError(t, err)
	assert.InDelta(logNormal(1.0, 1.5, 0.5), ll.At(0, 0), 1e-12)
	assert.InDelta(logNormal(2.5, 1.5, 1.0), ll.At(1, 2), 1e-12)
}

func TestLogPosterior(t *testing.T) {
	assert := assert.New(t)

	p := smallPosterior()
	lp, err := p.LogPosterior()
	require.NoError(t, err)
	require.Len(t, lp, 2)

	exp0 := logNormal(1.0, 1.0, 0.5) + logNormal(2.0, 2.0, 0.5) + logNormal(2.5, 3.0, 0.5) +
		logNormal(1.0, 0.0, 2.0) + logNormal(2.0, 0.0, 2.0)
	assert.InDelta(exp0, lp[0], 1e-10)

	exp1 := logNormal(1.0, 0.5, 1.0) + logNormal(2.0, 1.5, 1.0) + logNormal(2.5, 2.0, 1.0) +
		logNormal(0.5, 0.0, 2.0) + logNormal(1.5, 0.0, 2.0)
	assert.InDelta(exp1, lp[1], 1e-10)

	// A bad precision gives a non-finite entry for DIC to drop, not an error
	p.Precision[1] = 0.0
	lp, err = p.LogPosterior()
	require.NoError(t, err)
	assert.False(math.IsNaN(lp[0]) || math.IsInf(lp[0], 0))
	assert.True(math.IsNaN(lp[1]) || math.IsInf(lp[1], 0))
	assert.InDelta(-2.0*exp0+2.0, DIC(lp, 1.0), 1e-9)
}

func TestPosteriorCheck(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(smallPosterior().Check())

	p := smallPosterior()
	p.Y = p.Y[:2]
	assert.ErrorIs(p.Check(), model.ErrConfiguration)

	p = smallPosterior()
	p.Precision = []float64{1.0}
	assert.ErrorIs(p.Check(), model.ErrConfiguration)

	p = smallPosterior()
	p.Intercept = []float64{1.0, 2.0, 3.0}
	assert.ErrorIs(p.Check(), model.ErrConfiguration)

	p = smallPosterior()
	p.Beta = mat.NewDense(2, 3, nil)
	assert.ErrorIs(p.Check(), model.ErrConfiguration)

	p = smallPosterior()
	p.PriorSD = 0.0
	_, err := p.LogPosterior()
	assert.ErrorIs(err, model.ErrConfiguration)

	p = smallPosterior()
	p.X = nil
	_, err = p.LogLikelihood()
	assert.ErrorIs(err, model.ErrConfiguration)
}

func TestPrecisionHelpers(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]float64{4.0, 0.5}, PrecisionFromVariance([]float64{0.25, 2.0}))
	assert.Equal([]float64{1.0, 1.0, 1.0}, Constant(3, 1.0))
	assert.Empty(Constant(0, 1.0))
}
