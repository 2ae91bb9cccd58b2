package model

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// CSVReader reads comma separated files with a header row. A leading empty
// header cell (pandas/R row index) drops that column.
type CSVReader struct {
	Comma rune // Field delimiter: zero means ','
}

// ReadDataset implements the model.Reader interface
func (r CSVReader) ReadDataset(data []byte, response string) (*Dataset, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	if r.Comma != 0 {
		cr.Comma = r.Comma
	}
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "Could not read CSV header")
	}

	skipFirst := len(header) > 0 && strings.TrimSpace(header[0]) == ""
	if skipFirst {
		header = header[1:]
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([][]float64, 0, 64)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Could not read CSV row %d", len(rows)+2)
		}
		if skipFirst {
			rec = rec[1:]
		}
		if len(rec) != len(header) {
			return nil, errors.Errorf("CSV row %d has %d fields, header has %d", len(rows)+2, len(rec), len(header))
		}

		row := make([]float64, len(rec))
		for j, s := range rec {
			v, err := parseValue(s)
			if err != nil {
				return nil, errors.Wrapf(err, "CSV row %d, column %s", len(rows)+2, header[j])
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	if len(rows) < 1 {
		return nil, errors.Errorf("CSV has a header but no rows")
	}

	return fromRows(header, rows, response)
}
