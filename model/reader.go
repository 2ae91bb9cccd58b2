package model

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FieldReader is just a simple reader for basic file formats.
type FieldReader struct {
	Pos    int
	Fields []string
}

// NewFieldReader constructs a new field reader around the given data
func NewFieldReader(data string) *FieldReader {
	return &FieldReader{0, strings.Fields(data)}
}

// Read returns the next space-delimited field/token
func (fr *FieldReader) Read() (string, error) {
	if fr.Pos >= len(fr.Fields) {
		return "", io.EOF
	}
	p := fr.Pos
	fr.Pos++
	return fr.Fields[p], nil
}

// ReadFloat reads the next token as a float. Missing value markers come back
// as NaN.
func (fr *FieldReader) ReadFloat() (float64, error) {
	s, err := fr.Read()
	if err != nil {
		return 0, err
	}

	return parseValue(s)
}

// parseValue understands the missing value spellings R and pandas write
func parseValue(s string) (float64, error) {
	s = unquote(strings.TrimSpace(s))
	switch s {
	case "", "NA", "NaN", "nan", "null", ".":
		return math.NaN(), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidInput, "Could not parse %q as a number", s)
	}
	return v, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// TableReader reads whitespace-delimited tables with a header line, the
// format R's write.table produces. Row names (one more field than the header)
// are skipped. Lines starting with # are comments.
type TableReader struct{}

// ReadDataset implements the model.Reader interface
func (r TableReader) ReadDataset(data []byte, response string) (*Dataset, error) {
	lines := make([]string, 0, 64)
	for _, ln := range strings.Split(string(data), "\n") {
		ln = strings.TrimSpace(ln)
		if len(ln) < 1 || ln[0] == '#' {
			continue
		}
		lines = append(lines, ln)
	}
	if len(lines) < 2 {
		return nil, errors.Errorf("Need a header and at least one row, found %d lines", len(lines))
	}

	hdr := NewFieldReader(lines[0])
	header := make([]string, len(hdr.Fields))
	for i, h := range hdr.Fields {
		header[i] = unquote(h)
	}

	rows := make([][]float64, 0, len(lines)-1)
	for lineNo, ln := range lines[1:] {
		fr := NewFieldReader(ln)
		switch len(fr.Fields) {
		case len(header):
		case len(header) + 1:
			fr.Read() // row name
		default:
			return nil, errors.Errorf("Line %d has %d fields, header has %d", lineNo+2, len(fr.Fields), len(header))
		}

		row := make([]float64, len(header))
		for j := range row {
			v, err := fr.ReadFloat()
			if err != nil {
				return nil, errors.Wrapf(err, "Line %d, column %s", lineNo+2, header[j])
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	return fromRows(header, rows, response)
}

// fromRows splits parsed rows into the response and the design matrix
func fromRows(header []string, rows [][]float64, response string) (*Dataset, error) {
	if len(header) < 2 {
		return nil, errors.Wrapf(ErrConfiguration, "Need at least one predictor and a response, have %d columns", len(header))
	}

	yCol := len(header) - 1
	if len(response) > 0 {
		yCol = -1
		for i, h := range header {
			if h == response {
				yCol = i
				break
			}
		}
		if yCol < 0 {
			return nil, errors.Wrapf(ErrConfiguration, "Response column %s not found", response)
		}
	}

	p := len(header) - 1
	names := make([]string, 0, p)
	for i, h := range header {
		if i != yCol {
			names = append(names, h)
		}
	}

	x := mat.NewDense(len(rows), p, nil)
	y := make([]float64, len(rows))
	for i, row := range rows {
		col := 0
		for j, v := range row {
			if j == yCol {
				y[i] = v
				continue
			}
			x.Set(i, col, v)
			col++
		}
	}

	return NewDataset(names, header[yCol], x, y)
}
