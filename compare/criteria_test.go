package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/model"
)

func TestDIC(t *testing.T) {
	assert := assert.New(t)

	x := []float64{-10.0, -12.0, -11.0}
	assert.InDelta(22.0+6.0, DIC(x, 3.0), 1e-12)

	// Strictly increasing in pEff
	prev := DIC(x, 0.0)
	for k := 1; k <= 5; k++ {
		cur := DIC(x, float64(k))
		assert.True(cur > prev)
		prev = cur
	}

	// Linear in the log posterior with slope -2
	for _, c := range []float64{-3.0, 0.5, 7.25} {
		shifted := make([]float64, len(x))
		for i, v := range x {
			shifted[i] = v + c
		}
		assert.InDelta(DIC(x, 2.0)-2.0*c, DIC(shifted, 2.0), 1e-9)
	}

	// Non-finite entries are dropped
	assert.Equal(DIC(x, 1.0), DIC([]float64{-10.0, math.NaN(), -12.0, math.Inf(-1), -11.0}, 1.0))
	assert.True(math.IsNaN(DIC([]float64{math.NaN()}, 1.0)))
	assert.True(math.IsNaN(DIC(nil, 1.0)))
}

func TestBayesFactor(t *testing.T) {
	assert := assert.New(t)

	for _, a := range [][]float64{
		{-1.5, -2.25, -3.0},
		{100.0, -7.0},
		{0.1, 0.2, 0.3, math.NaN()},
		{},
	} {
		assert.Equal(1.0, BayesFactor(a, a))
		assert.Equal(0.0, LogBayesFactor(a, a))
	}

	a := []float64{-1.0, -2.0}
	b := []float64{-2.0, -3.0}
	assert.InDelta(2.0, LogBayesFactor(a, b), 1e-12)
	assert.InDelta(math.Exp(2.0), BayesFactor(a, b), 1e-12)
	assert.InDelta(math.Exp(-2.0), BayesFactor(b, a), 1e-12)

	withJunk := []float64{-1.0, math.Inf(1), -2.0, math.NaN()}
	assert.InDelta(2.0, LogBayesFactor(withJunk, b), 1e-12)
}

func TestWAICIdenticalDraws(t *testing.T) {
	assert := assert.New(t)

	// Every draw has the same log likelihoods, so there is no posterior variance
	row := []float64{-0.5, -1.25, -2.0, -0.75}
	const draws = 8
	ll := mat.NewDense(draws, len(row), nil)
	for d := 0; d < draws; d++ {
		ll.SetRow(d, row)
	}

	w, err := NewWAIC(ll)
	require.NoError(t, err)
	assert.Equal(0.0, w.PWAIC)
	assert.Equal(-2.0*w.LPPD, w.WAIC)
	assert.InDelta(-4.5, w.LPPD, 1e-12)
	assert.Equal(4, w.Observations)
}

func TestWAIC(t *testing.T) {
	assert := assert.New(t)

	ll := mat.NewDense(2, 2, []float64{
		math.Log(0.2), math.Log(0.5),
		math.Log(0.4), math.Log(0.5),
	})

	w, err := NewWAIC(ll)
	require.NoError(t, err)

	// lppd = log(0.3) + log(0.5); only the first observation varies
	assert.InDelta(math.Log(0.3)+math.Log(0.5), w.LPPD, 1e-12)
	d := math.Log(0.4) - math.Log(0.2)
	assert.InDelta(d*d/2.0, w.PWAIC, 1e-12)
	assert.InDelta(-2.0*(w.LPPD-w.PWAIC), w.WAIC, 1e-12)
}

func TestWAICNonFinite(t *testing.T) {
	assert := assert.New(t)

	ll := mat.NewDense(3, 3, []float64{
		-1.0, math.NaN(), math.NaN(),
		-1.0, -2.0, math.Inf(-1),
		-1.0, math.NaN(), math.NaN(),
	})
	w, err := NewWAIC(ll)
	require.NoError(t, err)
	assert.Equal(2, w.Observations)
	assert.Equal(0.0, w.PWAIC)
	assert.InDelta(-3.0, w.LPPD, 1e-12)

	ll = mat.NewDense(2, 1, []float64{math.NaN(), math.Inf(1)})
	_, err = NewWAIC(ll)
	assert.ErrorIs(err, model.ErrNonFinite)

	_, err = NewWAIC(nil)
	assert.ErrorIs(err, model.ErrConfiguration)
}
