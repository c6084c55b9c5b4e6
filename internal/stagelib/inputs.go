// Package stagelib implements the built-in stage catalogue the config
// compiler wires native calls to: controller inputs, arithmetic/geometry
// transforms, edge-aware timers and gestures, action terminals, and the
// touch menu. Every stage here satisfies stage.Stage[T] for exactly one of
// the five pipeline value types.
package stagelib

import (
	"strconv"

	"ctlmapper/internal/action"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/snapshot"
	"ctlmapper/internal/stage"
)

// AxisInput reads one named controller axis directly from the tick
// snapshot.
type AxisInput struct {
	stage.Leaf
	Axis snapshot.Axis
}

func NewAxisInput(id stage.ID, axis snapshot.Axis, name string) *AxisInput {
	return &AxisInput{Leaf: stage.NewLeaf(id, "axis_input", name), Axis: axis}
}

func (s *AxisInput) Apply(ctx *stage.Context, _ *[]action.Action) float32 {
	return ctx.Snapshot.AxisValue(s.Axis)
}

// ButtonInput reads one named controller button directly from the tick
// snapshot.
type ButtonInput struct {
	stage.Leaf
	Button snapshot.Button
}

func NewButtonInput(id stage.ID, b snapshot.Button, name string) *ButtonInput {
	return &ButtonInput{Leaf: stage.NewLeaf(id, "button_input", name), Button: b}
}

func (s *ButtonInput) Apply(ctx *stage.Context, _ *[]action.Action) bool {
	return ctx.Snapshot.Button(s.Button)
}

// ConstantInput always yields the same float, configured at compile time —
// used as a fixed operand to scale/offset/rotate or as a literal in
// arithmetic expressions.
type ConstantInput struct {
	stage.Leaf
	Value float32
}

func NewConstantInput(id stage.ID, v float32) *ConstantInput {
	return &ConstantInput{Leaf: stage.NewLeaf(id, "constant_input", strconv.FormatFloat(float64(v), 'g', -1, 32)), Value: v}
}

func (s *ConstantInput) Apply(*stage.Context, *[]action.Action) float32 { return s.Value }

// DummyButtonInput always yields false — a placeholder operand for stages
// that require a button input the config didn't supply one for (e.g. an
// unused pulse_by_axis channel).
type DummyButtonInput struct {
	stage.Leaf
}

func NewDummyButtonInput(id stage.ID) *DummyButtonInput {
	return &DummyButtonInput{Leaf: stage.NewLeaf(id, "dummy_button_input", "")}
}

func (s *DummyButtonInput) Apply(*stage.Context, *[]action.Action) bool { return false }

// ScreenProbe yields the host-reported (pixelsInRange, uniformity) pair for
// a registered screen region matching its HSV bounds, each 0.0..=1.0.
type ScreenProbe struct {
	stage.Leaf
	desc probe.Descriptor
}

func NewScreenProbe(id stage.ID, area probe.ScreenArea, hsv probe.HSVBounds, name string) *ScreenProbe {
	return &ScreenProbe{
		Leaf: stage.NewLeaf(id, "screen_probe", name),
		desc: probe.Descriptor{Kind: probe.KindScreen, Area: area, HSV: hsv},
	}
}

func (s *ScreenProbe) Probe() (probe.Descriptor, bool) { return s.desc, true }

func (s *ScreenProbe) Apply(ctx *stage.Context, _ *[]action.Action) stage.Vec2 {
	v, ok := ctx.Probes[s.ID()]
	if !ok {
		return stage.Vec2{}
	}
	pixelsInRange, uniformity := v.XY()
	return stage.Vec2{X: pixelsInRange, Y: uniformity}
}

// MemoryProbe yields the host-reported boolean result of comparing a
// remote-process memory value against the configured relation/operands.
type MemoryProbe struct {
	stage.Leaf
	desc probe.Descriptor
	spec probe.MemorySpec
}

func NewMemoryProbe(id stage.ID, spec probe.MemorySpec, name string) *MemoryProbe {
	return &MemoryProbe{
		Leaf: stage.NewLeaf(id, "memory_probe", name),
		desc: probe.Descriptor{Kind: probe.KindMemory, Memory: spec},
		spec: spec,
	}
}

func (s *MemoryProbe) Probe() (probe.Descriptor, bool) { return s.desc, true }

func (s *MemoryProbe) Apply(ctx *stage.Context, _ *[]action.Action) bool {
	v, ok := ctx.Probes[s.ID()]
	if !ok {
		return false
	}
	result, err := s.spec.Evaluate(v.U64())
	if err != nil {
		return false
	}
	return result
}
