package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFormat(t *testing.T) {
	gen := New(6)
	for range 100 {
		code, err := gen.Code()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.True(t, gen.ValidFormat(code), "generated code %q must satisfy its own format", code)
	}
}

func TestValidFormat(t *testing.T) {
	gen := New(6)

	assert.True(t, gen.ValidFormat("000123"))
	assert.False(t, gen.ValidFormat("12345"))
	assert.False(t, gen.ValidFormat("1234567"))
	assert.False(t, gen.ValidFormat("12a456"))
	assert.False(t, gen.ValidFormat(""))
}

func TestCapacity(t *testing.T) {
	gen := New(6)
	assert.Equal(t, int64(100000), gen.Capacity(), "6 digits leave room for 10%% of 10^6 codes")
}

func TestMinimumLength(t *testing.T) {
	gen := New(1)
	assert.Equal(t, 4, gen.Length(), "too-short lengths are raised to the floor")
}
