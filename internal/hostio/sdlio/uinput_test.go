package sdlio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ctlmapper/internal/action"
)

func TestKeyCodesCoverEveryKey(t *testing.T) {
	for _, k := range action.AllKeys() {
		_, ok := keyCodes[k]
		assert.True(t, ok, "missing uinput code for key %s", k)
	}
}

func TestMouseButtonCodesCoverEveryButton(t *testing.T) {
	for _, b := range action.AllMouseButtons() {
		_, ok := mouseButtonCodes[b]
		assert.True(t, ok, "missing uinput code for mouse button %d", b)
	}
}

func TestKeyCodesAreDistinct(t *testing.T) {
	seen := map[uint16]action.Key{}
	for k, code := range keyCodes {
		if other, dup := seen[code]; dup {
			t.Fatalf("keys %s and %s share uinput code %d", k, other, code)
		}
		seen[code] = k
	}
}
