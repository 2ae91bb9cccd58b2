package buffer

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Trace is a fixed-size, append-only store of sampler draws: one row per
// retained iteration, one column per component of the sampled quantity. All
// storage is allocated up front so a chain never resizes while it runs.
type Trace struct {
	Name    string    // Name of the sampled quantity (beta, tau_sq, ...)
	Cols    int       // Width of a row
	BufSize int       // BufSize is the fixed number of rows we can hold
	Count   int       // Count is the number of rows stored. Will always be <= BufSize
	buffer  []float64 // actual storage, row major
}

// NewTrace creates an empty trace able to hold rows x cols values
func NewTrace(name string, rows int, cols int) (*Trace, error) {
	if rows < 0 || cols < 1 {
		return nil, errors.Errorf("Invalid trace %s shape %d x %d", name, rows, cols)
	}

	return &Trace{
		Name:    name,
		Cols:    cols,
		BufSize: rows,
		Count:   0,
		buffer:  make([]float64, rows*cols),
	}, nil
}

// Add appends a row. The row is copied, so callers may reuse their slice.
func (t *Trace) Add(row ...float64) error {
	if len(row) != t.Cols {
		return errors.Errorf("Trace %s expects %d values per row, got %d", t.Name, t.Cols, len(row))
	}
	if t.Count >= t.BufSize {
		return errors.Errorf("Trace %s is full (%d rows)", t.Name, t.BufSize)
	}

	copy(t.buffer[t.Count*t.Cols:], row)
	t.Count++

	return nil
}

// Full is true once BufSize rows have been added
func (t *Trace) Full() bool {
	return t.Count >= t.BufSize
}

// Column copies column j of the stored rows into a new slice
func (t *Trace) Column(j int) []float64 {
	col := make([]float64, t.Count)
	for i := range col {
		col[i] = t.buffer[i*t.Cols+j]
	}
	return col
}

// Matrix returns a Count x Cols view of the stored rows, or nil when nothing
// has been stored yet (gonum has no empty matrices).
func (t *Trace) Matrix() *mat.Dense {
	if t.Count < 1 {
		return nil
	}
	return mat.NewDense(t.Count, t.Cols, t.buffer[:t.Count*t.Cols])
}
