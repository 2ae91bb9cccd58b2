// Package linalg holds the Gaussian conditional shared by every sampler: the
// coefficient vector given everything else is multivariate normal with
// precision X'X*noise + diag(prior), and each Gibbs sweep needs one draw from
// it.
package linalg

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
)

// MaxCondition is the largest condition number of the posterior precision
// matrix we will invert. Anything worse is reported as model.ErrDegenerate.
const MaxCondition = 1e14

// Conditional specifies one full conditional for the coefficients.
type Conditional struct {
	NoisePrecision float64   // Residual precision (1/variance)
	PriorPrecision []float64 // Diagonal prior precision, len p, all > 0
	Mask           []float64 // Optional column mask (X*diag(Mask)); nil means all ones
	Offset         float64   // Subtracted from y before use (an intercept)
}

// Kernel draws from N(M, V) with V = (D X'X D * noise + diag(prior))^-1 and
// M = V D X'(y - offset) * noise, D = diag(mask). X'X and X'y are computed
// once; all per-draw scratch space is owned by the kernel, so a Kernel must
// not be shared between goroutines.
type Kernel struct {
	n, p int

	x   *mat.Dense
	xtx *mat.SymDense
	xty []float64
	xt1 []float64 // column sums, for the offset

	prec *mat.SymDense
	chol mat.Cholesky
	cov  *mat.SymDense
	rhs  *mat.VecDense
	mean *mat.VecDense
	z    *mat.VecDense
	draw *mat.VecDense
	coef *mat.VecDense
	fit  *mat.VecDense
}

// NewKernel copies x and y and precomputes the sufficient statistics.
func NewKernel(x mat.Matrix, y []float64) (*Kernel, error) {
	if x == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "No design matrix")
	}
	if err := model.CheckFinite(x, y); err != nil {
		return nil, err
	}

	n, p := x.Dims()
	k := &Kernel{
		n:    n,
		p:    p,
		x:    mat.DenseCopyOf(x),
		xtx:  &mat.SymDense{},
		prec: mat.NewSymDense(p, nil),
		xty:  make([]float64, p),
		xt1:  make([]float64, p),
		cov:  mat.NewSymDense(p, nil),
		rhs:  mat.NewVecDense(p, nil),
		mean: mat.NewVecDense(p, nil),
		z:    mat.NewVecDense(p, nil),
		draw: mat.NewVecDense(p, nil),
		coef: mat.NewVecDense(p, nil),
		fit:  mat.NewVecDense(n, nil),
	}

	k.xtx.SymOuterK(1.0, k.x.T())

	for i := 0; i < n; i++ {
		row := k.x.RawRowView(i)
		for j, v := range row {
			k.xty[j] += v * y[i]
			k.xt1[j] += v
		}
	}

	return k, nil
}

// Dims returns the observation and coefficient counts
func (k *Kernel) Dims() (n, p int) {
	return k.n, k.p
}

// Draw writes one sample from the conditional into dst (len p). Failure to
// factor or invert the precision matrix is model.ErrDegenerate: the kernel
// never jitters on its own.
func (k *Kernel) Draw(gen *rand.Generator, c Conditional, dst []float64) error {
	if err := k.Solve(c); err != nil {
		return err
	}
	if len(dst) != k.p {
		return errors.Wrapf(model.ErrConfiguration, "Draw destination has len %d, need %d", len(dst), k.p)
	}

	for i := 0; i < k.p; i++ {
		k.z.SetVec(i, gen.NormFloat64())
	}

	// With A = U'U, U^-1 z has covariance A^-1 = V
	if err := k.draw.SolveVec(k.chol.RawU(), k.z); err != nil {
		return errors.Wrapf(model.ErrDegenerate, "Triangular solve failed: %v", err)
	}
	k.draw.AddVec(k.draw, k.mean)

	for i := 0; i < k.p; i++ {
		v := k.draw.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(model.ErrDegenerate, "Coefficient %d drew %v", i, v)
		}
		dst[i] = v
	}

	return nil
}

// Solve computes the conditional mean and covariance without drawing. Draw
// calls it; it is exported for callers that only need the moments.
func (k *Kernel) Solve(c Conditional) error {
	if len(c.PriorPrecision) != k.p {
		return errors.Wrapf(model.ErrConfiguration, "Prior precision has len %d, need %d", len(c.PriorPrecision), k.p)
	}
	if c.Mask != nil && len(c.Mask) != k.p {
		return errors.Wrapf(model.ErrConfiguration, "Mask has len %d, need %d", len(c.Mask), k.p)
	}
	if !positive(c.NoisePrecision) {
		return errors.Wrapf(model.ErrDegenerate, "Noise precision %v is not positive", c.NoisePrecision)
	}

	mask := func(i int) float64 {
		if c.Mask == nil {
			return 1.0
		}
		return c.Mask[i]
	}

	for i := 0; i < k.p; i++ {
		if !positive(c.PriorPrecision[i]) {
			return errors.Wrapf(model.ErrDegenerate, "Prior precision %d is %v", i, c.PriorPrecision[i])
		}

		mi := mask(i)
		for j := 0; j < i; j++ {
			k.prec.SetSym(i, j, mi*mask(j)*k.xtx.At(i, j)*c.NoisePrecision)
		}
		k.prec.SetSym(i, i, mi*mi*k.xtx.At(i, i)*c.NoisePrecision+c.PriorPrecision[i])
		k.rhs.SetVec(i, mi*(k.xty[i]-c.Offset*k.xt1[i])*c.NoisePrecision)
	}

	if ok := k.chol.Factorize(k.prec); !ok {
		return errors.Wrapf(model.ErrDegenerate, "Posterior precision is not positive definite")
	}
	if cond := k.chol.Cond(); !(cond <= MaxCondition) {
		return errors.Wrapf(model.ErrDegenerate, "Posterior precision condition number %g", cond)
	}
	if err := k.chol.InverseTo(k.cov); err != nil {
		return errors.Wrapf(model.ErrDegenerate, "Could not invert posterior precision: %v", err)
	}
	k.mean.MulVec(k.cov, k.rhs)

	return nil
}

// Mean returns a copy of the conditional mean from the last Solve/Draw
func (k *Kernel) Mean() []float64 {
	m := make([]float64, k.p)
	for i := range m {
		m[i] = k.mean.AtVec(i)
	}
	return m
}

// Covariance returns a copy of the conditional covariance from the last
// Solve/Draw
func (k *Kernel) Covariance() *mat.SymDense {
	cov := mat.NewSymDense(k.p, nil)
	cov.CopySym(k.cov)
	return cov
}

// Fitted writes X*beta into dst (len n)
func (k *Kernel) Fitted(beta []float64, dst []float64) error {
	if len(beta) != k.p || len(dst) != k.n {
		return errors.Wrapf(model.ErrConfiguration, "Fitted needs len(beta)=%d, len(dst)=%d", k.p, k.n)
	}
	for i, b := range beta {
		k.coef.SetVec(i, b)
	}
	k.fit.MulVec(k.x, k.coef)
	for i := range dst {
		dst[i] = k.fit.AtVec(i)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
