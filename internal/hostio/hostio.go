// Package hostio declares the capability-providing collaborators the
// mapper is wired against (§4.7): a key/mouse sink, a controller sink for
// haptics, and a controller snapshot source. Concrete implementations live
// in the sdlio subpackage, plus the no-op Discard sink below.
package hostio

import (
	"ctlmapper/internal/action"
	"ctlmapper/internal/snapshot"
)

// KeyMouseSink reifies keyboard/mouse edges and motion into OS calls.
type KeyMouseSink interface {
	KeyDown(k action.Key)
	KeyUp(k action.Key)
	MouseButtonDown(b action.MouseButton)
	MouseButtonUp(b action.MouseButton)
	MouseCursorRelXY(dx, dy int32)
	MouseWheelRel(delta int32)
	Syn()
}

// ControllerSink is the non-blocking, lossy haptic command channel to the
// controller polling worker (§5: "drops on disconnect").
type ControllerSink interface {
	SendHaptic(target action.HapticTarget, effect action.HapticEffect)
}

// SnapshotSource blocks until the next controller sample is available.
type SnapshotSource interface {
	Recv() (snapshot.Snapshot, bool)
}

// Discard is a KeyMouseSink that reifies nothing, for driving a mapper
// against a config script with no virtual devices attached (fuzzing,
// dry-run checks).
type Discard struct{}

func (Discard) KeyDown(action.Key)             {}
func (Discard) KeyUp(action.Key)               {}
func (Discard) MouseButtonDown(action.MouseButton) {}
func (Discard) MouseButtonUp(action.MouseButton)   {}
func (Discard) MouseCursorRelXY(dx, dy int32)  {}
func (Discard) MouseWheelRel(delta int32)      {}
func (Discard) Syn()                           {}
