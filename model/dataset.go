package model

import (
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Reader implementors instantiate a dataset from a byte stream. The response
// names the column to use as y; empty means the last column.
type Reader interface {
	ReadDataset(data []byte, response string) (*Dataset, error)
}

// Dataset is a regression problem: an n x p design matrix and a length n
// response. Samplers never modify a Dataset.
type Dataset struct {
	Name       string       // Dataset name (file name without extension when read from disk)
	Response   string       // Name of the response column
	Predictors []*Predictor // One per column of X
	X          *mat.Dense   // Design matrix (n x p)
	Y          []float64    // Response (len n)
	YCenter    float64      // Value subtracted from Y during standardization
	YScale     float64      // Value divided out of Y during standardization
}

// NewDataset builds a dataset from raw parts and checks it. Names may be nil,
// in which case we generate x1..xp.
func NewDataset(names []string, response string, x *mat.Dense, y []float64) (*Dataset, error) {
	if x == nil {
		return nil, errors.Wrapf(ErrConfiguration, "No design matrix supplied")
	}

	_, p := x.Dims()
	if names != nil && len(names) != p {
		return nil, errors.Wrapf(ErrConfiguration, "Got %d predictor names for %d columns", len(names), p)
	}

	ds := &Dataset{
		Response:   response,
		Predictors: make([]*Predictor, p),
		X:          x,
		Y:          y,
		YCenter:    0.0,
		YScale:     1.0,
	}
	if len(ds.Response) < 1 {
		ds.Response = "y"
	}

	for j := 0; j < p; j++ {
		name := ""
		if names != nil {
			name = names[j]
		}
		pred, err := NewPredictor(j, name)
		if err != nil {
			return nil, err
		}
		ds.Predictors[j] = pred
	}

	if err := ds.Check(); err != nil {
		return nil, err
	}

	return ds, nil
}

// NewDatasetFromFile reads and parses a dataset from the specified file.
func NewDatasetFromFile(r Reader, filename string, response string) (*Dataset, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ dataset from %s", filename)
	}

	ds, err := r.ReadDataset(data, response)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE dataset %s", filename)
	}

	// Name the dataset from the file
	var ext = filepath.Ext(filename)
	ds.Name = filepath.Base(filename[0 : len(filename)-len(ext)])

	return ds, nil
}

// Dims returns the observation and predictor counts
func (d *Dataset) Dims() (n, p int) {
	return d.X.Dims()
}

// Names returns the predictor names in column order
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Predictors))
	for i, p := range d.Predictors {
		names[i] = p.Name
	}
	return names
}

// Check returns an error if there is a structural problem with the dataset.
// Missing values are allowed here; see CheckFinite.
func (d *Dataset) Check() error {
	n, p := d.X.Dims()
	if n != len(d.Y) {
		return errors.Wrapf(ErrConfiguration, "Dataset %s has %d rows but %d responses", d.Name, n, len(d.Y))
	}
	if p != len(d.Predictors) {
		return errors.Wrapf(ErrConfiguration, "Dataset %s has %d columns but %d predictors", d.Name, p, len(d.Predictors))
	}

	seen := make(map[string]bool)
	for i, pred := range d.Predictors {
		if err := pred.Check(); err != nil {
			return errors.Wrapf(err, "Dataset %s has an invalid predictor", d.Name)
		}
		if pred.Index != i {
			return errors.Errorf("Predictor %s has index %d at column %d", pred.Name, pred.Index, i)
		}
		if seen[pred.Name] {
			return errors.Wrapf(ErrConfiguration, "Duplicate predictor name %s", pred.Name)
		}
		seen[pred.Name] = true
	}

	return nil
}

// CheckFinite fails with ErrInvalidInput if any value is missing
func (d *Dataset) CheckFinite() error {
	return CheckFinite(d.X, d.Y)
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	cp := &Dataset{
		Name:       d.Name,
		Response:   d.Response,
		Predictors: make([]*Predictor, len(d.Predictors)),
		X:          mat.DenseCopyOf(d.X),
		Y:          make([]float64, len(d.Y)),
		YCenter:    d.YCenter,
		YScale:     d.YScale,
	}
	for i, p := range d.Predictors {
		cp.Predictors[i] = p.Clone()
	}
	copy(cp.Y, d.Y)
	return cp
}

// Rows returns a new dataset with only the given rows (in the given order)
func (d *Dataset) Rows(idx []int) (*Dataset, error) {
	n, p := d.X.Dims()
	if len(idx) < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "Can not select 0 rows from %s", d.Name)
	}

	x := mat.NewDense(len(idx), p, nil)
	y := make([]float64, len(idx))
	for r, i := range idx {
		if i < 0 || i >= n {
			return nil, errors.Errorf("Row %d out of range for %d observations", i, n)
		}
		x.SetRow(r, d.X.RawRowView(i))
		y[r] = d.Y[i]
	}

	cp := d.Clone()
	cp.X = x
	cp.Y = y
	return cp, nil
}

// DropMissing returns a copy without the rows holding a NaN in X or y
func (d *Dataset) DropMissing() (*Dataset, error) {
	n, _ := d.X.Dims()
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if isMissing(d.Y[i]) {
			continue
		}
		ok := true
		for _, v := range d.X.RawRowView(i) {
			if isMissing(v) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	if len(keep) < 1 {
		return nil, errors.Wrapf(ErrInvalidInput, "Every row of %s has a missing value", d.Name)
	}
	return d.Rows(keep)
}

// Standardize returns a copy with every column of X and y z-scored (sample
// standard deviation, as R's scale does). Missing values must already be
// gone: they are reported as ErrInvalidInput before anything is scaled.
func (d *Dataset) Standardize() (*Dataset, error) {
	if err := d.CheckFinite(); err != nil {
		return nil, err
	}

	n, p := d.X.Dims()
	if n < 2 {
		return nil, errors.Wrapf(ErrInvalidInput, "Need at least 2 rows to standardize, have %d", n)
	}

	cp := d.Clone()
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, cp.X)
		mean, sd := stat.MeanStdDev(col, nil)
		if !(sd > 0) {
			return nil, errors.Wrapf(ErrInvalidInput, "Predictor %s is constant", cp.Predictors[j].Name)
		}
		for i := range col {
			col[i] = (col[i] - mean) / sd
		}
		cp.X.SetCol(j, col)
		cp.Predictors[j].Center = mean
		cp.Predictors[j].Scale = sd
	}

	mean, sd := stat.MeanStdDev(cp.Y, nil)
	if !(sd > 0) {
		return nil, errors.Wrapf(ErrInvalidInput, "Response %s is constant", cp.Response)
	}
	for i := range cp.Y {
		cp.Y[i] = (cp.Y[i] - mean) / sd
	}
	cp.YCenter = mean
	cp.YScale = sd

	return cp, nil
}

// Select returns a copy restricted to the named predictors, in that order.
func (d *Dataset) Select(names []string) (*Dataset, error) {
	if len(names) < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "No predictors selected")
	}

	lookup := make(map[string]int)
	for i, p := range d.Predictors {
		lookup[p.Name] = i
	}

	n, _ := d.X.Dims()
	x := mat.NewDense(n, len(names), nil)
	preds := make([]*Predictor, len(names))
	col := make([]float64, n)
	for j, name := range names {
		src, ok := lookup[name]
		if !ok {
			return nil, errors.Wrapf(ErrConfiguration, "Unknown predictor %s", name)
		}
		mat.Col(col, src, d.X)
		x.SetCol(j, col)
		preds[j] = d.Predictors[src].Clone()
		preds[j].Index = j
	}

	cp := d.Clone()
	cp.X = x
	cp.Predictors = preds
	if err := cp.Check(); err != nil {
		return nil, err
	}
	return cp, nil
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
