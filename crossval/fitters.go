package crossval

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/posterior"
	"github.com/CraigKelly/bvsel/rand"
	"github.com/CraigKelly/bvsel/sampler"
)

// Linear predicts intercept + x*coef
type Linear struct {
	Intercept float64
	Coef      []float64
}

// Predict implements Predictor
func (l *Linear) Predict(x *mat.Dense) ([]float64, error) {
	if x == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "No rows to predict")
	}
	n, p := x.Dims()
	if p != len(l.Coef) {
		return nil, errors.Wrapf(model.ErrConfiguration, "Model has %d coefficients but the rows have %d columns", len(l.Coef), p)
	}

	yhat := mat.NewVecDense(n, nil)
	yhat.MulVec(x, mat.NewVecDense(p, l.Coef))
	out := make([]float64, n)
	for i := range out {
		out[i] = l.Intercept + yhat.AtVec(i)
	}
	return out, nil
}

// OLS is the unregularized least squares baseline, with an intercept
type OLS struct{}

// Name implements Fitter
func (OLS) Name() string {
	return "ols"
}

// Fit implements Fitter
func (OLS) Fit(ds *model.Dataset) (Predictor, error) {
	n, p := ds.Dims()
	if n <= p {
		return nil, errors.Wrapf(model.ErrConfiguration, "OLS needs more rows than columns (%d x %d)", n, p)
	}

	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1.0)
		for j := 0; j < p; j++ {
			design.Set(i, j+1, ds.X.At(i, j))
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, mat.NewVecDense(n, ds.Y)); err != nil {
		return nil, errors.Wrapf(model.ErrDegenerate, "OLS solve failed: %v", err)
	}

	lin := &Linear{
		Intercept: coef.AtVec(0),
		Coef:      make([]float64, p),
	}
	for j := range lin.Coef {
		lin.Coef[j] = coef.AtVec(j + 1)
	}
	return lin, nil
}

// Builder creates a sampler for one training set
type Builder func(gen *rand.Generator, x *mat.Dense, y []float64) (sampler.Sampler, error)

// PosteriorMean fits by running a sampler and predicting with the posterior
// mean coefficients, plus the mean intercept when the sampler draws one.
// Every fold gets a generator spawned from Gen.
type PosteriorMean struct {
	Method string
	Build  Builder
	Gen    *rand.Generator
}

// Name implements Fitter
func (pm *PosteriorMean) Name() string {
	return pm.Method
}

// Fit implements Fitter
func (pm *PosteriorMean) Fit(ds *model.Dataset) (Predictor, error) {
	if pm.Build == nil || pm.Gen == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "%s needs a builder and a generator", pm.Method)
	}

	gen, err := pm.Gen.Spawn()
	if err != nil {
		return nil, err
	}
	s, err := pm.Build(gen, ds.X, ds.Y)
	if err != nil {
		return nil, err
	}
	res, err := s.Run()
	if err != nil {
		return nil, err
	}

	beta := res.Matrix(sampler.TraceBeta)
	if beta == nil {
		return nil, errors.Errorf("%s produced no coefficient draws", pm.Method)
	}

	lin := &Linear{Coef: posterior.Means(beta)}
	if icpt := res.Matrix(sampler.TraceIntercept); icpt != nil {
		lin.Intercept = posterior.Means(icpt)[0]
	}
	return lin, nil
}
