package model

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/rand"
)

// Synthetic draws an n x len(effects) design matrix of independent standard
// normals and the response y = X*effects + N(0, noiseSD^2). It is the
// workhorse for checking that the samplers recover known effects.
func Synthetic(gen *rand.Generator, n int, effects []float64, noiseSD float64) (*Dataset, error) {
	if gen == nil {
		return nil, errors.New("A generator is required")
	}
	if n < 1 || len(effects) < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "Invalid synthetic size %d x %d", n, len(effects))
	}
	if noiseSD < 0 {
		return nil, errors.Wrapf(ErrConfiguration, "Noise SD must be >= 0, got %f", noiseSD)
	}

	p := len(effects)
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			v := gen.NormFloat64()
			x.Set(i, j, v)
			y[i] += v * effects[j]
		}
		y[i] += noiseSD * gen.NormFloat64()
	}

	ds, err := NewDataset(nil, "y", x, y)
	if err != nil {
		return nil, err
	}
	ds.Name = "synthetic"
	return ds, nil
}
