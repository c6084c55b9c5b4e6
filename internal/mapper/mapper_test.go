package mapper

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctlmapper/internal/action"
	"ctlmapper/internal/config"
	"ctlmapper/internal/diag"
	"ctlmapper/internal/hostio"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/snapshot"
	"ctlmapper/internal/stage"
	"ctlmapper/internal/stagelib"
)

func newTestLogger() *diag.Logger { return diag.New(io.Discard) }

// alwaysTrueButton is a minimal stage.Stage[bool] stub standing in for a
// controller input that never resets, used by
// TestLayerDisengagementFromStart to show the disengagement pass forces a
// key release even when the pipeline's own input hasn't changed.
type alwaysTrueButton struct{ stage.Leaf }

func newAlwaysTrueButton(id stage.ID) *alwaysTrueButton {
	return &alwaysTrueButton{Leaf: stage.NewLeaf(id, "always_true_button", "")}
}

func (s *alwaysTrueButton) Apply(*stage.Context, *[]action.Action) bool { return true }

// recordingSink is a hostio.KeyMouseSink test double that records every
// key-down/key-up edge it sees, in order.
type recordingSink struct {
	keys []keyEvent
}

type keyEvent struct {
	down bool
	key  action.Key
}

func (s *recordingSink) KeyDown(k action.Key)  { s.keys = append(s.keys, keyEvent{true, k}) }
func (s *recordingSink) KeyUp(k action.Key)    { s.keys = append(s.keys, keyEvent{false, k}) }
func (s *recordingSink) MouseButtonDown(action.MouseButton) {}
func (s *recordingSink) MouseButtonUp(action.MouseButton)   {}
func (s *recordingSink) MouseCursorRelXY(dx, dy int32)      {}
func (s *recordingSink) MouseWheelRel(delta int32)          {}
func (s *recordingSink) Syn()                               {}

var _ hostio.KeyMouseSink = (*recordingSink)(nil)

// buildDisengagementConfig wires the three-pipeline layout from
// layer_disengagement_test: layer 0b01 presses A on button A, layer 0b10
// presses B on button B, layer 0b11 switches to mode 0b10 on button X.
func buildDisengagementConfig(alloc *stage.Allocator) config.Config {
	layer01, err := layermask.UserLayer(0)
	if err != nil {
		panic(err)
	}
	layer10, err := layermask.UserLayer(1)
	if err != nil {
		panic(err)
	}
	layer11 := layer01.Or(layer10)

	pipeA := stagelib.NewKeyboardKeyPress(alloc.Next(), stagelib.NewButtonInput(alloc.Next(), snapshot.A, "a"), action.KeyA, "a")
	pipeB := stagelib.NewKeyboardKeyPress(alloc.Next(), stagelib.NewButtonInput(alloc.Next(), snapshot.B, "b"), action.KeyB, "b")
	pipeSwitch := stagelib.NewSwitchMode(alloc.Next(), stagelib.NewButtonInput(alloc.Next(), snapshot.X, "x"), layer10)

	return config.Config{
		Pipelines: []config.PipelineBinding{
			{Mask: layer01, Pipeline: pipeA},
			{Mask: layer10, Pipeline: pipeB},
			{Mask: layer11, Pipeline: pipeSwitch},
		},
	}
}

func TestLayerDisengagement(t *testing.T) {
	alloc := stage.NewAllocator()
	cfg := buildDisengagementConfig(alloc)
	out := &recordingSink{}
	m := New(cfg, alloc, nil, nil, out, newTestLogger())

	snap := snapshot.Empty()

	snap.Buttons[snapshot.A] = true
	m.Tick(&snap, time.Now())

	snap.Buttons[snapshot.X] = true
	m.Tick(&snap, time.Now())

	snap.Buttons[snapshot.B] = true
	m.Tick(&snap, time.Now())

	require.Len(t, out.keys, 3)
	assert.Equal(t, keyEvent{true, action.KeyA}, out.keys[0])
	assert.Equal(t, keyEvent{false, action.KeyA}, out.keys[1])
	assert.Equal(t, keyEvent{true, action.KeyB}, out.keys[2])
}

// TestLayerDisengagementFromStart ports layer_disengagement_test_2: A is
// wired to an always-true input rather than a button, checking the
// disengagement pass turns it off even though its own input never changes.
func TestLayerDisengagementFromStart(t *testing.T) {
	alloc := stage.NewAllocator()
	layer01, _ := layermask.UserLayer(0)
	layer10, _ := layermask.UserLayer(1)
	layer11 := layer01.Or(layer10)

	pipeA := stagelib.NewKeyboardKeyPress(alloc.Next(), newAlwaysTrueButton(alloc.Next()), action.KeyA, "a")
	pipeB := stagelib.NewKeyboardKeyPress(alloc.Next(), stagelib.NewButtonInput(alloc.Next(), snapshot.B, "b"), action.KeyB, "b")
	pipeSwitch := stagelib.NewSwitchMode(alloc.Next(), stagelib.NewButtonInput(alloc.Next(), snapshot.X, "x"), layer10)

	cfg := config.Config{
		Pipelines: []config.PipelineBinding{
			{Mask: layer01, Pipeline: pipeA},
			{Mask: layer10, Pipeline: pipeB},
			{Mask: layer11, Pipeline: pipeSwitch},
		},
	}

	out := &recordingSink{}
	m := New(cfg, alloc, nil, nil, out, newTestLogger())

	snap := snapshot.Empty()
	m.Tick(&snap, time.Now())

	snap.Buttons[snapshot.X] = true
	m.Tick(&snap, time.Now())

	snap.Buttons[snapshot.B] = true
	m.Tick(&snap, time.Now())

	require.Len(t, out.keys, 3)
	assert.Equal(t, keyEvent{true, action.KeyA}, out.keys[0])
	assert.Equal(t, keyEvent{false, action.KeyA}, out.keys[1])
	assert.Equal(t, keyEvent{true, action.KeyB}, out.keys[2])
}

// TestTickDeterminism asserts invariant 1: two independently-built Mappers
// fed the same snapshot sequence at the same timestamps emit identical
// action sequences.
func TestTickDeterminism(t *testing.T) {
	run := func() []keyEvent {
		alloc := stage.NewAllocator()
		cfg := buildDisengagementConfig(alloc)
		out := &recordingSink{}
		m := New(cfg, alloc, nil, nil, out, newTestLogger())

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		snap := snapshot.Empty()
		snap.Buttons[snapshot.A] = true
		m.Tick(&snap, base)
		snap.Buttons[snapshot.X] = true
		m.Tick(&snap, base.Add(time.Millisecond))
		snap.Buttons[snapshot.B] = true
		m.Tick(&snap, base.Add(2*time.Millisecond))
		return out.keys
	}

	assert.Equal(t, run(), run())
}
