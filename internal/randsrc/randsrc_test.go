package randsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCryptoUniformRange(t *testing.T) {
	src := NewCrypto()
	for i := 0; i < 1000; i++ {
		v := src.Uniform(20.0, 80.0)
		assert.GreaterOrEqual(t, v, 20.0)
		assert.Less(t, v, 80.0)
	}
}

func TestCryptoPickRange(t *testing.T) {
	src := NewCrypto()
	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		v := src.Pick(2)
		assert.Contains(t, []int{0, 1}, v)
		seen[v] = true
	}
	// Both outcomes of a coin flip should show up in 200 draws.
	assert.Len(t, seen, 2)

	assert.Equal(t, 0, src.Pick(0))
}

func TestSequenceUniformScaling(t *testing.T) {
	src := NewSequence([]float64{0.0, 0.5, 0.999}, nil)

	assert.InDelta(t, 20.0, src.Uniform(20, 80), 1e-9)
	assert.InDelta(t, 50.0, src.Uniform(20, 80), 1e-9)
	assert.InDelta(t, 79.94, src.Uniform(20, 80), 1e-9)

	// Cycles back to the first draw.
	assert.InDelta(t, 0.0, src.Uniform(0, 1), 1e-9)
}

func TestSequencePick(t *testing.T) {
	src := NewSequence(nil, []int{1, 0, 5})

	assert.Equal(t, 1, src.Pick(2))
	assert.Equal(t, 0, src.Pick(2))
	// Out-of-range picks clamp to n-1.
	assert.Equal(t, 1, src.Pick(2))
	// Cycles.
	assert.Equal(t, 1, src.Pick(2))
}

func TestSequenceEmpty(t *testing.T) {
	src := NewSequence(nil, nil)
	assert.Equal(t, 3.0, src.Uniform(3, 9))
	assert.Equal(t, 0, src.Pick(4))
}
