package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/CraigKelly/bvsel/rand"
)

func vanillaDataset(t *testing.T) *Dataset {
	x := mat.NewDense(4, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 40.0,
		4.0, 30.0,
	})
	y := []float64{1.1, 2.2, 3.3, 4.4}

	ds, err := NewDataset([]string{"a", "b"}, "resp", x, y)
	require.NoError(t, err)
	return ds
}

func TestDatasetCreation(t *testing.T) {
	assert := assert.New(t)

	ds := vanillaDataset(t)
	assert.NoError(ds.Check())
	assert.NoError(ds.CheckFinite())
	assert.Equal([]string{"a", "b"}, ds.Names())
	assert.Equal("resp", ds.Response)

	n, p := ds.Dims()
	assert.Equal(4, n)
	assert.Equal(2, p)

	// Generated names
	gen, err := NewDataset(nil, "", mat.NewDense(1, 3, nil), []float64{0.0})
	assert.NoError(err)
	assert.Equal([]string{"x1", "x2", "x3"}, gen.Names())
	assert.Equal("y", gen.Response)

	// Name count mismatch
	_, err = NewDataset([]string{"a"}, "y", mat.NewDense(1, 2, nil), []float64{0.0})
	assert.ErrorIs(err, ErrConfiguration)

	// Row mismatch
	_, err = NewDataset(nil, "y", mat.NewDense(2, 2, nil), []float64{0.0})
	assert.ErrorIs(err, ErrConfiguration)

	// Duplicate names
	_, err = NewDataset([]string{"a", "a"}, "y", mat.NewDense(1, 2, nil), []float64{0.0})
	assert.ErrorIs(err, ErrConfiguration)

	// Predictor check
	ds = vanillaDataset(t)
	ds.Predictors[0].Scale = 0.0
	assert.Error(ds.Check())
}

func TestDatasetStandardize(t *testing.T) {
	assert := assert.New(t)

	ds := vanillaDataset(t)
	std, err := ds.Standardize()
	assert.NoError(err)

	n, p := std.Dims()
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, std.X)
		mean, sd := stat.MeanStdDev(col, nil)
		assert.InDelta(0.0, mean, 1e-12)
		assert.InDelta(1.0, sd, 1e-12)
	}
	mean, sd := stat.MeanStdDev(std.Y, nil)
	assert.InDelta(0.0, mean, 1e-12)
	assert.InDelta(1.0, sd, 1e-12)

	assert.InDelta(2.5, std.Predictors[0].Center, 1e-12)
	assert.InDelta(2.75, std.YCenter, 1e-12)

	// Original untouched
	assert.Equal(1.0, ds.X.At(0, 0))
	assert.Equal(0.0, ds.Predictors[0].Center)

	// Missing values are caught before scaling
	ds.X.Set(2, 1, math.NaN())
	_, err = ds.Standardize()
	assert.ErrorIs(err, ErrInvalidInput)

	// Constant column
	ds = vanillaDataset(t)
	for i := 0; i < 4; i++ {
		ds.X.Set(i, 0, 3.0)
	}
	_, err = ds.Standardize()
	assert.ErrorIs(err, ErrInvalidInput)
}

func TestDatasetDropMissing(t *testing.T) {
	assert := assert.New(t)

	ds := vanillaDataset(t)
	ds.X.Set(1, 0, math.NaN())
	ds.Y[3] = math.NaN()
	assert.ErrorIs(ds.CheckFinite(), ErrInvalidInput)

	clean, err := ds.DropMissing()
	assert.NoError(err)
	n, _ := clean.Dims()
	assert.Equal(2, n)
	assert.Equal([]float64{1.1, 3.3}, clean.Y)
	assert.NoError(clean.CheckFinite())

	for i := 0; i < 4; i++ {
		ds.Y[i] = math.NaN()
	}
	_, err = ds.DropMissing()
	assert.ErrorIs(err, ErrInvalidInput)
}

func TestDatasetSelectRows(t *testing.T) {
	assert := assert.New(t)

	ds := vanillaDataset(t)

	sel, err := ds.Select([]string{"b"})
	assert.NoError(err)
	assert.Equal([]string{"b"}, sel.Names())
	assert.Equal(0, sel.Predictors[0].Index)
	assert.Equal(40.0, sel.X.At(2, 0))

	_, err = ds.Select([]string{"b", "nope"})
	assert.ErrorIs(err, ErrConfiguration)

	_, err = ds.Select(nil)
	assert.ErrorIs(err, ErrConfiguration)

	sub, err := ds.Rows([]int{3, 0})
	assert.NoError(err)
	assert.Equal([]float64{4.4, 1.1}, sub.Y)
	assert.Equal(30.0, sub.X.At(0, 1))

	_, err = ds.Rows([]int{4})
	assert.Error(err)
	_, err = ds.Rows(nil)
	assert.Error(err)
}

func TestSynthetic(t *testing.T) {
	assert := assert.New(t)

	gen, err := rand.NewGenerator(42)
	assert.NoError(err)

	ds, err := Synthetic(gen, 500, []float64{2.0, 0.0}, 0.0)
	assert.NoError(err)
	n, p := ds.Dims()
	assert.Equal(500, n)
	assert.Equal(2, p)
	for i := 0; i < n; i++ {
		assert.InDelta(2.0*ds.X.At(i, 0), ds.Y[i], 1e-12)
	}

	_, err = Synthetic(gen, 0, []float64{1.0}, 0.1)
	assert.ErrorIs(err, ErrConfiguration)
	_, err = Synthetic(gen, 10, []float64{1.0}, -1.0)
	assert.ErrorIs(err, ErrConfiguration)
	_, err = Synthetic(nil, 10, []float64{1.0}, 0.1)
	assert.Error(err)
}

func TestDatasetFromFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	fn := filepath.Join(dir, "housing.csv")
	assert.NoError(os.WriteFile(fn, []byte("a,b,medv\n1,2,3\n4,5,6\n"), 0644))

	ds, err := NewDatasetFromFile(CSVReader{}, fn, "medv")
	assert.NoError(err)
	assert.Equal("housing", ds.Name)
	assert.Equal([]float64{3.0, 6.0}, ds.Y)

	_, err = NewDatasetFromFile(CSVReader{}, filepath.Join(dir, "missing.csv"), "")
	assert.Error(err)
}
