package dbusipc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"ctlmapper/internal/overlay"
)

func TestCommandDTORoundTripsThroughJSON(t *testing.T) {
	cmd := overlay.Command{
		Kind:         overlay.CmdToggleShapes,
		ShapeStageID: 7,
		ShapeLayer:   2,
		ShapeMask:    0b101,
	}

	encoded, err := json.Marshal(toDTO(cmd))
	assert.NoError(t, err)

	var decoded commandDTO
	assert.NoError(t, json.Unmarshal(encoded, &decoded))

	got := decoded.toCommand()
	assert.Equal(t, cmd.Kind, got.Kind)
	assert.Equal(t, cmd.ShapeStageID, got.ShapeStageID)
	assert.Equal(t, cmd.ShapeLayer, got.ShapeLayer)
	assert.Equal(t, cmd.ShapeMask, got.ShapeMask)
}

func TestProbeResultDTORoundTrips(t *testing.T) {
	v := uint64(42)
	encoded, err := json.Marshal(probeResultDTO{ID: "probe-1", U64: &v})
	assert.NoError(t, err)

	var decoded probeResultDTO
	assert.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "probe-1", decoded.ID)
	assert.NotNil(t, decoded.U64)
	assert.Equal(t, uint64(42), *decoded.U64)
	assert.Nil(t, decoded.Screen)
}
