package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyIsAllZero(t *testing.T) {
	s := Empty()
	for b := Button(0); int(b) < int(buttonCount); b++ {
		assert.False(t, s.Button(b))
	}
	for a := Axis(0); int(a) < int(axisCount); a++ {
		assert.Equal(t, float32(0), s.AxisValue(a))
	}
}

func TestButtonByName(t *testing.T) {
	b, ok := ButtonByName("a")
	assert.True(t, ok)
	assert.Equal(t, A, b)

	_, ok = ButtonByName("nope")
	assert.False(t, ok)
}

func TestAxisByName(t *testing.T) {
	a, ok := AxisByName("ljoy_x")
	assert.True(t, ok)
	assert.Equal(t, AxisLJoyX, a)
}

func TestSnapshotRoundTrip(t *testing.T) {
	var s Snapshot
	s.Buttons[A] = true
	s.Axes[AxisLJoyX] = 0.5
	assert.True(t, s.Button(A))
	assert.Equal(t, float32(0.5), s.AxisValue(AxisLJoyX))
}
