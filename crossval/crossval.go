package crossval

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
)

// Predictor makes predictions for the rows of a design matrix
type Predictor interface {
	Predict(x *mat.Dense) ([]float64, error)
}

// Fitter trains a Predictor on a dataset
type Fitter interface {
	Name() string
	Fit(ds *model.Dataset) (Predictor, error)
}

// Fold is one train/test split of the row indexes
type Fold struct {
	Index int
	Train []int
	Test  []int
}

// Folds shuffles 0..n-1 and deals it into k test sets whose sizes differ by
// at most one. Each fold trains on everything outside its test set.
func Folds(n int, k int, gen *rand.Generator) ([]Fold, error) {
	if gen == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "A generator is required")
	}
	if k < 2 || k > n {
		return nil, errors.Wrapf(model.ErrConfiguration, "Need 2 <= k <= n for k-fold CV, got k=%d n=%d", k, n)
	}

	perm := gen.Perm(n)
	folds := make([]Fold, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}

		test := perm[start : start+size]
		train := make([]int, 0, n-size)
		train = append(train, perm[:start]...)
		train = append(train, perm[start+size:]...)

		folds[f] = Fold{
			Index: f,
			Train: train,
			Test:  append([]int(nil), test...),
		}
		start += size
	}

	return folds, nil
}

// Report is the outcome of cross-validating one method
type Report struct {
	Method   string
	Folds    []*model.ErrorSuite
	RMSE     []float64 // Per fold
	MeanRMSE float64
	SDRMSE   float64
}

// CrossValidate fits once per fold and scores the held-out rows
func CrossValidate(ds *model.Dataset, k int, gen *rand.Generator, fitter Fitter) (*Report, error) {
	if ds == nil || fitter == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "Cross validation requires a dataset and a fitter")
	}
	if err := ds.Check(); err != nil {
		return nil, err
	}

	n, _ := ds.Dims()
	folds, err := Folds(n, k, gen)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Method: fitter.Name(),
		Folds:  make([]*model.ErrorSuite, 0, k),
		RMSE:   make([]float64, 0, k),
	}
	for _, fold := range folds {
		train, err := ds.Rows(fold.Train)
		if err != nil {
			return nil, err
		}
		test, err := ds.Rows(fold.Test)
		if err != nil {
			return nil, err
		}

		pred, err := fitter.Fit(train)
		if err != nil {
			return nil, errors.Wrapf(err, "%s fold %d", rep.Method, fold.Index)
		}
		yhat, err := pred.Predict(test.X)
		if err != nil {
			return nil, errors.Wrapf(err, "%s fold %d", rep.Method, fold.Index)
		}

		suite, err := model.NewErrorSuite(yhat, test.Y)
		if err != nil {
			return nil, errors.Wrapf(err, "%s fold %d", rep.Method, fold.Index)
		}
		rep.Folds = append(rep.Folds, suite)
		rep.RMSE = append(rep.RMSE, suite.RMSE)
	}

	rep.MeanRMSE, rep.SDRMSE = stat.MeanStdDev(rep.RMSE, nil)
	if math.IsNaN(rep.SDRMSE) {
		rep.SDRMSE = 0.0
	}
	return rep, nil
}
