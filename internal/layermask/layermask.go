// Package layermask implements the 32-bit layer mask algebra: 24 low bits
// for user-declared layers, 8 high bits reserved for host-appended internal
// layers.
package layermask

import (
	"errors"
	"fmt"
)

// Mask is a 32-bit set of layer bits.
type Mask uint32

const (
	MaxLayers         = 32
	MaxUserLayers     = 24
	MaxInternalLayers = MaxLayers - MaxUserLayers

	Empty           Mask = 0
	AllUserBits     Mask = (1 << MaxUserLayers) - 1
	AllInternalBits Mask = ^Mask(0) &^ AllUserBits
	All             Mask = ^Mask(0)
)

// ErrLayerOutOfRange is returned by UserLayer/InternalLayer for an index
// that does not fit in its reserved bit range.
var ErrLayerOutOfRange = errors.New("layermask: layer index out of range")

// UserLayer returns the mask for user layer n. Valid indices are
// 0..MaxUserLayers-1; n >= MaxUserLayers is an error (see DESIGN.md Open
// Questions — a strict "shift by MAX is UB" boundary, not n <= MAX).
func UserLayer(n int) (Mask, error) {
	if n < 0 || n >= MaxUserLayers {
		return Empty, fmt.Errorf("%w: user layer %d (max %d)", ErrLayerOutOfRange, n, MaxUserLayers-1)
	}
	return Mask(1) << uint(n), nil
}

// InternalLayer returns the mask for internal layer n, indices
// 0..MaxInternalLayers-1 relative to the low end of the internal range.
func InternalLayer(n int) (Mask, error) {
	if n < 0 || n >= MaxInternalLayers {
		return Empty, fmt.Errorf("%w: internal layer %d (max %d)", ErrLayerOutOfRange, n, MaxInternalLayers-1)
	}
	return Mask(1) << uint(MaxUserLayers+n), nil
}

// Or combines masks; equivalent to the config language's `|` operator.
func (m Mask) Or(other Mask) Mask { return m | other }

// And combines masks.
func (m Mask) And(other Mask) Mask { return m & other }

// Not complements a mask.
func (m Mask) Not() Mask { return ^m }

// Intersects reports whether m shares any bit with active.
func (m Mask) Intersects(active Mask) bool { return m&active != Empty }

// Equals is strict equality, used by mode_is.
func (m Mask) Equals(other Mask) bool { return m == other }

func (m Mask) String() string { return fmt.Sprintf("%#x", uint32(m)) }
