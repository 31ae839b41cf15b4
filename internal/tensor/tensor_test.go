package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestNew_ZeroFilled(t *testing.T) {
	s, _ := NewShape(2, 3)
	x := New(s, Float32)

	assert.Equal(t, 6, x.Elements())
	assert.Equal(t, 24, x.ByteSize())
	assert.False(t, x.IsAlias())
	for _, v := range x.Float32() {
		assert.Zero(t, v)
	}
}

func TestAlias_SharesStorage(t *testing.T) {
	s, _ := NewShape(2, 3)
	src := New(s, Float32)

	viewShape, _ := NewShape(3)
	view, err := Alias(src, 3, viewShape)
	require.NoError(t, err)
	assert.True(t, view.IsAlias())

	// Writes through the source are visible through the view immediately.
	src.Float32()[4] = 7
	assert.Equal(t, float32(7), view.Float32()[1])

	// And the other way around.
	view.Float32()[0] = -1
	assert.Equal(t, float32(-1), src.Float32()[3])
}

func TestAlias_BoundsChecked(t *testing.T) {
	s, _ := NewShape(2, 3)
	src := New(s, Float32)

	viewShape, _ := NewShape(3)
	_, err := Alias(src, 4, viewShape)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Alias(src, -1, viewShape)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFloat16Accessor(t *testing.T) {
	s, _ := NewShape(4)
	h := New(s, Float16)

	h.Float16()[2] = float16.Fromfloat32(1.5)
	assert.InDelta(t, 1.5, h.Float16()[2].Float32(), 1e-3)
	assert.Equal(t, 8, h.ByteSize())
}

func TestFloat32_PanicsOnWrongDType(t *testing.T) {
	s, _ := NewShape(2)
	h := New(s, Float16)
	assert.Panics(t, func() { h.Float32() })
}
