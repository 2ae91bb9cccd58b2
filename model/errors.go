package model

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// The error taxonomy shared by every package. Errors are wrapped with
// context via errors.Wrapf and tested with errors.Is.
var (
	// ErrConfiguration covers bad run settings: burn-in >= iterations,
	// name/column mismatches, unknown predictors.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput covers data problems found before sampling starts,
	// mainly missing or non-finite values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerate is a numeric failure at the point of a draw: a
	// near-singular precision matrix or a non-positive scale parameter.
	ErrDegenerate = errors.New("degenerate posterior")

	// ErrNonFinite marks a NaN or Inf produced where a finite number was
	// required.
	ErrNonFinite = errors.New("non-finite sample")
)

// CheckFinite returns ErrInvalidInput if any entry of x or y is NaN or Inf.
// It also insists that the row count of x matches len(y).
func CheckFinite(x mat.Matrix, y []float64) error {
	n, p := x.Dims()
	if n != len(y) {
		return errors.Wrapf(ErrConfiguration, "Design matrix has %d rows but response has %d", n, len(y))
	}

	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrapf(ErrInvalidInput, "Predictor column %d has missing value at row %d", j, i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return errors.Wrapf(ErrInvalidInput, "Response has missing value at row %d", i)
		}
	}

	return nil
}
