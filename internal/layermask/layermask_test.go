package layermask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlgebraInvariants(t *testing.T) {
	a, err := UserLayer(0)
	require.NoError(t, err)
	b, err := UserLayer(1)
	require.NoError(t, err)

	assert.Equal(t, a, a.Or(b).And(a))
	assert.Equal(t, a, a.Not().Not())

	u, err := UserLayer(2)
	require.NoError(t, err)
	in, err := InternalLayer(2)
	require.NoError(t, err)
	assert.Equal(t, Empty, u.And(in))
}

func TestUserLayerBounds(t *testing.T) {
	_, err := UserLayer(MaxUserLayers - 1)
	assert.NoError(t, err)

	_, err = UserLayer(MaxUserLayers)
	assert.ErrorIs(t, err, ErrLayerOutOfRange)

	_, err = UserLayer(-1)
	assert.Error(t, err)
}

func TestInternalLayerBounds(t *testing.T) {
	_, err := InternalLayer(MaxInternalLayers - 1)
	assert.NoError(t, err)

	_, err = InternalLayer(MaxInternalLayers)
	assert.ErrorIs(t, err, ErrLayerOutOfRange)
}

func TestConstants(t *testing.T) {
	assert.Equal(t, Mask(0x00FFFFFF), AllUserBits)
	assert.Equal(t, Mask(0xFF000000), AllInternalBits)
	assert.Equal(t, Mask(0xFFFFFFFF), All)
}

func TestIntersects(t *testing.T) {
	a, _ := UserLayer(0)
	b, _ := UserLayer(1)
	assert.True(t, a.Intersects(a.Or(b)))
	assert.False(t, a.Intersects(b))
}
