package posterior

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/CraigKelly/bvsel/model"
)

// Interval gives the lower and upper quantile probabilities of a credible
// interval
type Interval struct {
	Lower float64
	Upper float64
}

// Common equal-tailed intervals
var (
	Interval95 = Interval{Lower: 0.025, Upper: 0.975}
	Interval90 = Interval{Lower: 0.05, Upper: 0.95}
)

// NewInterval returns the equal-tailed interval with the given coverage
func NewInterval(level float64) (Interval, error) {
	iv := Interval{Lower: (1.0 - level) / 2.0, Upper: 1.0 - (1.0-level)/2.0}
	return iv, iv.Check()
}

// Check insists on 0 <= Lower < Upper <= 1
func (iv Interval) Check() error {
	if !(iv.Lower >= 0.0 && iv.Lower < iv.Upper && iv.Upper <= 1.0) {
		return errors.Wrapf(model.ErrConfiguration, "Invalid interval [%v, %v]", iv.Lower, iv.Upper)
	}
	return nil
}

// Level is the nominal coverage of the interval
func (iv Interval) Level() float64 {
	return iv.Upper - iv.Lower
}

// Row summarizes the draws of one coefficient
type Row struct {
	Name        string
	Mean        float64
	Median      float64
	Lower       float64
	Upper       float64
	Significant bool // Zero lies strictly outside [Lower, Upper]
}

// Table is a posterior summary, one row per trace column
type Table struct {
	Interval Interval
	Rows     []Row
}

// Summarize computes the mean, median and interval bounds of every column of
// a draws x p trace. There must be one name per column.
func Summarize(trace mat.Matrix, names []string, iv Interval) (*Table, error) {
	if trace == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "No trace to summarize")
	}
	if err := iv.Check(); err != nil {
		return nil, err
	}

	rows, cols := trace.Dims()
	if len(names) != cols {
		return nil, errors.Wrapf(model.ErrConfiguration, "Trace has %d columns but %d names were given", cols, len(names))
	}

	tab := &Table{
		Interval: iv,
		Rows:     make([]Row, cols),
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, trace)
		row, err := SummarizeColumn(names[j], col, iv)
		if err != nil {
			return nil, err
		}
		tab.Rows[j] = row
	}

	return tab, nil
}

// SummarizeColumn summarizes a single set of draws. The slice is sorted in
// place.
func SummarizeColumn(name string, draws []float64, iv Interval) (Row, error) {
	if len(draws) < 1 {
		return Row{}, errors.Wrapf(model.ErrConfiguration, "No draws for %s", name)
	}
	if floats.HasNaN(draws) || math.IsInf(floats.Max(draws), 1) || math.IsInf(floats.Min(draws), -1) {
		return Row{}, errors.Wrapf(model.ErrNonFinite, "Non-finite draw for %s", name)
	}

	mean := stat.Mean(draws, nil)
	sort.Float64s(draws)

	row := Row{
		Name:   name,
		Mean:   mean,
		Median: Quantile(0.5, draws),
		Lower:  Quantile(iv.Lower, draws),
		Upper:  Quantile(iv.Upper, draws),
	}
	row.Significant = row.Lower > 0.0 || row.Upper < 0.0
	return row, nil
}

// Quantile is the sample quantile by linear interpolation between order
// statistics at position (n-1)p (Hyndman and Fan type 7). sorted must be in
// increasing order.
func Quantile(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n < 1 {
		return math.NaN()
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Significant returns the names of the significant rows, in table order
func (t *Table) Significant() []string {
	var names []string
	for _, r := range t.Rows {
		if r.Significant {
			names = append(names, r.Name)
		}
	}
	return names
}

// Means returns the column means of a draws x p trace
func Means(trace mat.Matrix) []float64 {
	if trace == nil {
		return nil
	}
	rows, cols := trace.Dims()
	means := make([]float64, cols)
	col := make([]float64, rows)
	for j := range means {
		mat.Col(col, j, trace)
		means[j] = stat.Mean(col, nil)
	}
	return means
}

// InclusionProbabilities is the fraction of draws in which each indicator
// was on. Every entry of the trace must be exactly 0 or 1.
func InclusionProbabilities(delta mat.Matrix) ([]float64, error) {
	if delta == nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "No indicator trace")
	}
	rows, cols := delta.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := delta.At(i, j); v != 0.0 && v != 1.0 {
				return nil, errors.Wrapf(model.ErrInvalidInput, "Indicator [%d, %d] is %v", i, j, v)
			}
		}
	}
	return Means(delta), nil
}
