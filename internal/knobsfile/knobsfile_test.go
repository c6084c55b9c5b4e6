package knobsfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctlmapper/internal/config"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	values, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knobs.json")
	knobs := []config.Knob{
		{Kind: config.KnobFlag, Name: "invert_y", Flag: true},
		{Kind: config.KnobEnum, Name: "profile", EnumOpts: []string{"default", "aggressive"}, EnumIdx: 1},
		{Kind: config.KnobNumber, Name: "sensitivity", Number: 1.5, MinValue: 0, MaxValue: 4},
	}

	require.NoError(t, Save(path, knobs))

	values, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.BoolValue(true), values["invert_y"])
	assert.Equal(t, config.StringValue("aggressive"), values["profile"])
	assert.Equal(t, config.NumberValue(1.5), values["sensitivity"])
}
