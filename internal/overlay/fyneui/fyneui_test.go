package fyneui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ctlmapper/internal/overlay"
)

func TestLayerNamesForMask(t *testing.T) {
	names := []string{"default", "aim", "menu"}
	assert.Equal(t, "default", layerNamesForMask(names, 1))
	assert.Equal(t, "aim+menu", layerNamesForMask(names, 0b110))
	assert.Equal(t, "0x8", layerNamesForMask(names, 0b1000))
}

func TestKnobValueText(t *testing.T) {
	assert.Equal(t, "on", knobValueText(overlay.KnobSnapshot{Kind: 0, Flag: true}))
	assert.Equal(t, "off", knobValueText(overlay.KnobSnapshot{Kind: 0, Flag: false}))
	assert.Equal(t, "aggressive", knobValueText(overlay.KnobSnapshot{Kind: 1, EnumOptions: []string{"default", "aggressive"}, EnumIndex: 1}))
	assert.Equal(t, "1.50", knobValueText(overlay.KnobSnapshot{Kind: 2, NumberValue: 1.5}))
}
