package sdlio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeController struct {
	name, path, serial string
	hasSerial          bool
}

func (f fakeController) Name() string             { return f.name }
func (f fakeController) Path() string              { return f.path }
func (f fakeController) Serial() (string, bool)    { return f.serial, f.hasSerial }

func TestFindEmptyQueryReturnsFirst(t *testing.T) {
	cs := []Controller{
		fakeController{name: "first"},
		fakeController{name: "second"},
	}
	got, ok := Find(cs, "")
	assert.True(t, ok)
	assert.Equal(t, "first", got.Name())
}

func TestFindMatchesBySerial(t *testing.T) {
	cs := []Controller{
		fakeController{name: "pad one", serial: "ABC123", hasSerial: true},
		fakeController{name: "pad two", serial: "XYZ789", hasSerial: true},
	}
	got, ok := Find(cs, "xyz789")
	assert.True(t, ok)
	assert.Equal(t, "pad two", got.Name())
}

func TestFindFallsBackToNameSubstring(t *testing.T) {
	cs := []Controller{
		fakeController{name: "Wireless Steam Controller", path: "//sdl/aaa"},
	}
	got, ok := Find(cs, "steam")
	assert.True(t, ok)
	assert.Equal(t, "Wireless Steam Controller", got.Name())
}

func TestFindNoMatch(t *testing.T) {
	cs := []Controller{fakeController{name: "pad"}}
	_, ok := Find(cs, "nonexistent")
	assert.False(t, ok)
}
