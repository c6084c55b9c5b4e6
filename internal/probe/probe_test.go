package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemorySpecBasic(t *testing.T) {
	m, err := ParseMemorySpec("32;0x1000;+0x20;-4;eq;u32;1,2,3")
	require.NoError(t, err)
	assert.Equal(t, 32, m.PtrSize)
	assert.Equal(t, uint64(0x1000), m.Base)
	assert.Equal(t, []int64{0x20, -4}, m.Offsets)
	assert.Equal(t, RelEq, m.Rel)
	assert.Equal(t, U32, m.Type)
	assert.Equal(t, []uint64{1, 2, 3}, m.Values)
}

func TestParseMemorySpecErrors(t *testing.T) {
	_, err := ParseMemorySpec("16;0;eq;u32;1")
	assert.Error(t, err)

	_, err = ParseMemorySpec("32;0;+1")
	assert.Error(t, err)

	_, err = ParseMemorySpec("32;0;+1;bogus;u32;1")
	assert.Error(t, err)

	_, err = ParseMemorySpec("32;0;+1;eq;u9;1")
	assert.Error(t, err)
}

func TestMemorySpecEvaluateUnsigned(t *testing.T) {
	m, err := ParseMemorySpec("64;0;+0;eq;u8;5")
	require.NoError(t, err)
	ok, err := m.Evaluate(5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Evaluate(6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySpecEvaluateSigned(t *testing.T) {
	m, err := ParseMemorySpec("64;0;+0;lt;i8;0")
	require.NoError(t, err)
	// 0xff as i8 is -1, which is < 0
	ok, err := m.Evaluate(0xff)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateScreen(t *testing.T) {
	assert.True(t, EvaluateScreen(0.8, 0.0, 0.75, 1.0))
	assert.True(t, EvaluateScreen(0.0, 1.0, 0.75, 1.0))
	assert.False(t, EvaluateScreen(0.1, 0.1, 0.75, 1.0))
}

func TestValidateHSV(t *testing.T) {
	assert.NoError(t, ValidateHSV(HSVBounds{MinHue: 0, MaxHue: 360, MinSat: 0, MaxSat: 1, MinVal: 0, MaxVal: 1}))
	assert.Error(t, ValidateHSV(HSVBounds{MinHue: -1, MaxHue: 360}))
	assert.Error(t, ValidateHSV(HSVBounds{MinHue: 0, MaxHue: 400}))
}
