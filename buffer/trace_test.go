package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrace(t *testing.T) {
	assert := assert.New(t)

	tr, err := NewTrace("beta", 3, 2)
	assert.NoError(err)
	assert.Equal(3, tr.BufSize)
	assert.Equal(0, tr.Count)
	assert.Nil(tr.Matrix())

	row := []float64{1.0, 2.0}
	assert.NoError(tr.Add(row...))
	row[0] = 3.0 // Trace must have copied
	row[1] = 4.0
	assert.NoError(tr.Add(row...))
	assert.False(tr.Full())

	assert.Equal([]float64{2.0, 4.0}, tr.Column(1))
	assert.Equal([]float64{1.0, 3.0}, tr.Column(0))

	m := tr.Matrix()
	r, c := m.Dims()
	assert.Equal(2, r)
	assert.Equal(2, c)
	assert.Equal(4.0, m.At(1, 1))

	// Wrong width
	assert.Error(tr.Add(1.0))
	assert.Equal(2, tr.Count)

	assert.NoError(tr.Add(5.0, 6.0))
	assert.True(tr.Full())

	// Full: no more rows
	assert.Error(tr.Add(7.0, 8.0))
	assert.Equal(3, tr.Count)
}

func TestTraceShapes(t *testing.T) {
	assert := assert.New(t)

	_, err := NewTrace("bad", -1, 1)
	assert.Error(err)
	_, err = NewTrace("bad", 1, 0)
	assert.Error(err)

	// Zero rows is legal, it just can't take anything
	tr, err := NewTrace("empty", 0, 1)
	assert.NoError(err)
	assert.True(tr.Full())
	assert.Error(tr.Add(1.0))
	assert.Nil(tr.Matrix())
	assert.Empty(tr.Column(0))
}
