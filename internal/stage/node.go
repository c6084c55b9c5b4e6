package stage

import (
	"ctlmapper/internal/action"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
)

// Description is one entry of the graph-inspection map used by the debug
// DOT renderer and by host probe/shape registration.
type Description struct {
	ID     ID
	Name   string
	Opts   string
	Inputs []ID

	Probe    probe.Descriptor
	HasProbe bool
	Shapes   [][]overlay.Shape
}

// Node is the type-erased half of a stage's identity: every stage,
// regardless of output type, exposes these. Stage[T] below adds the typed
// Apply method.
type Node interface {
	ID() ID
	Name() string
	Opts() string
	InputIDs() []ID

	// Probe returns this stage's probe descriptor, if any.
	Probe() (probe.Descriptor, bool)

	// Shapes returns this stage's registered overlay shape layers, if any.
	Shapes() [][]overlay.Shape

	// Reset clears both the memoized output and any cross-tick state
	// (smoothing accumulator, pulse timer, button FSM, menu mode).
	Reset()

	// Inspect performs the depth-first traversal described in §4.1: insert
	// self into out (stopping if already present), then recurse into this
	// stage's own typed inputs.
	Inspect(out map[ID]Description)
}

// Stage is a node polymorphic over output type T ∈ {float32, Vec2, bool,
// OptU8, Unit}. Apply must be idempotent within one tick; see Memo.
type Stage[T any] interface {
	Node
	Apply(ctx *Context, actions *[]action.Action) T
}

// InsertDescription inserts n's description into out if not already
// present, returning whether it did (callers use this to stop recursion).
func InsertDescription(out map[ID]Description, n Node) bool {
	if _, exists := out[n.ID()]; exists {
		return false
	}
	desc, hasProbe := n.Probe()
	out[n.ID()] = Description{
		ID: n.ID(), Name: n.Name(), Opts: n.Opts(), Inputs: n.InputIDs(),
		Probe: desc, HasProbe: hasProbe, Shapes: n.Shapes(),
	}
	return true
}
