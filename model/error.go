package model

import (
	"math"

	"github.com/pkg/errors"
)

// ErrorSuite represents the loss functions we use to judge predictions
// against held out observations.
type ErrorSuite struct {
	Count        int     // Number of (finite) pairs scored
	RMSE         float64 // Root mean squared error
	MeanAbsError float64 // Mean absolute error
	MaxAbsError  float64 // Largest absolute error
}

// NewErrorSuite returns an ErrorSuite with all calculated error functions
func NewErrorSuite(pred []float64, actual []float64) (*ErrorSuite, error) {
	if len(pred) != len(actual) {
		return nil, errors.Errorf("Prediction count mismatch %d != %d", len(pred), len(actual))
	}

	es := ErrorSuite{}
	var sq float64
	for i, p := range pred {
		d := math.Abs(p - actual[i])
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, errors.Wrapf(ErrNonFinite, "Prediction %d is not finite", i)
		}
		sq += d * d
		es.MeanAbsError += d
		es.MaxAbsError = math.Max(d, es.MaxAbsError)
		es.Count++
	}

	if es.Count < 1 {
		return nil, errors.Errorf("No predictions to score")
	}

	fc := float64(es.Count)
	es.RMSE = math.Sqrt(sq / fc)
	es.MeanAbsError /= fc

	return &es, nil
}
