package model

import (
	"strconv"

	"github.com/pkg/errors"
)

// Predictor describes one column of a design matrix: where it came from and
// how it was scaled.
type Predictor struct {
	Index  int     // Column index in the design matrix
	Name   string  // Column name (x1, x2, ... when the source had no header)
	Center float64 // Value subtracted during standardization (0 if raw)
	Scale  float64 // Value divided out during standardization (1 if raw)
}

// NewPredictor is our standard way to create a predictor for a raw column.
func NewPredictor(index int, name string) (*Predictor, error) {
	if index < 0 {
		return nil, errors.Errorf("Invalid index %d for predictor %q", index, name)
	}

	p := &Predictor{
		Index:  index,
		Name:   name,
		Center: 0.0,
		Scale:  1.0,
	}

	if len(p.Name) < 1 {
		if err := p.CreateName(index); err != nil {
			return nil, errors.Wrapf(err, "Could not init name for predictor %d", index)
		}
	}

	return p, nil
}

// Clone returns a copy of the predictor
func (p *Predictor) Clone() *Predictor {
	cp := *p
	return &cp
}

// Check returns an error if any problem is found
func (p *Predictor) Check() error {
	if p.Index < 0 {
		return errors.Errorf("Predictor %s has negative index %d", p.Name, p.Index)
	}
	if len(p.Name) < 1 {
		return errors.Errorf("Predictor %d has no name", p.Index)
	}
	if !(p.Scale > 0) {
		return errors.Errorf("Predictor %s has non-positive scale %f", p.Name, p.Scale)
	}
	return nil
}

// CreateName just gives a name to the predictor based on a numeric index
func (p *Predictor) CreateName(i int) error {
	if i < 0 {
		return errors.Errorf("Invalid index %d for CreateName - must be >= 0", i)
	}

	// 1-based, to match what everyone expects from an R data frame
	p.Name = "x" + strconv.Itoa(i+1)
	return nil
}

// Unscale maps a coefficient fitted on the standardized column back to the
// raw column's units (response scale handled by the caller).
func (p *Predictor) Unscale(coef float64) float64 {
	return coef / p.Scale
}
