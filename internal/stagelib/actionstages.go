package stagelib

import (
	"ctlmapper/internal/action"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/stage"
)

// terminal is the common Node implementation for stages whose output is
// stage.Unit: they have exactly one upstream stage and append to the
// action buffer instead of returning a meaningful value.
type terminal struct {
	id    stage.ID
	name  string
	opts  string
	input stage.Node
}

func (t terminal) ID() stage.ID                          { return t.id }
func (t terminal) Name() string                          { return t.name }
func (t terminal) Opts() string                          { return t.opts }
func (t terminal) InputIDs() []stage.ID                  { return []stage.ID{t.input.ID()} }
func (t terminal) Probe() (probe.Descriptor, bool)       { return probe.Descriptor{}, false }
func (t terminal) Shapes() [][]overlay.Shape             { return nil }
func (t terminal) Inspect(out map[stage.ID]stage.Description) {
	if _, exists := out[t.id]; exists {
		return
	}
	out[t.id] = stage.Description{ID: t.id, Name: t.name, Opts: t.opts, Inputs: t.InputIDs()}
	t.input.Inspect(out)
}

// KeyboardKeyPress presses a synthetic key on every tick its button input
// is held.
type KeyboardKeyPress struct {
	terminal
	input stage.Stage[bool]
	key   action.Key
}

func NewKeyboardKeyPress(id stage.ID, input stage.Stage[bool], key action.Key, name string) *KeyboardKeyPress {
	s := &KeyboardKeyPress{input: input, key: key}
	s.terminal = terminal{id: id, name: "key", opts: name, input: input}
	return s
}

func (s *KeyboardKeyPress) Reset() { s.input.Reset() }
func (s *KeyboardKeyPress) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	if s.input.Apply(ctx, actions) {
		*actions = append(*actions, action.PressKey(s.key))
	}
	return stage.Unit{}
}

// MouseButtonPress presses a synthetic mouse button on every tick its
// button input is held.
type MouseButtonPress struct {
	terminal
	input stage.Stage[bool]
	btn   action.MouseButton
}

func NewMouseButtonPress(id stage.ID, input stage.Stage[bool], btn action.MouseButton, name string) *MouseButtonPress {
	s := &MouseButtonPress{input: input, btn: btn}
	s.terminal = terminal{id: id, name: "button", opts: name, input: input}
	return s
}

func (s *MouseButtonPress) Reset() { s.input.Reset() }
func (s *MouseButtonPress) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	if s.input.Apply(ctx, actions) {
		*actions = append(*actions, action.PressMouseButton(s.btn))
	}
	return stage.Unit{}
}

// MouseMove emits a relative mouse-axis delta every tick, unconditionally.
type MouseMove struct {
	terminal
	input stage.Stage[float32]
	axis  action.MouseAxis
}

func NewMouseMove(id stage.ID, input stage.Stage[float32], axis action.MouseAxis, name string) *MouseMove {
	s := &MouseMove{input: input, axis: axis}
	s.terminal = terminal{id: id, name: "mouse_move", opts: name, input: input}
	return s
}

func (s *MouseMove) Reset() { s.input.Reset() }
func (s *MouseMove) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	v := s.input.Apply(ctx, actions)
	*actions = append(*actions, action.MoveMouse(s.axis, v))
	return stage.Unit{}
}

// SwitchMode sets the active layer mask to a fixed target on each fresh
// button press.
type SwitchMode struct {
	terminal
	input  stage.Stage[bool]
	target layermask.Mask
	fsm    stage.ButtonFSM
}

func NewSwitchMode(id stage.ID, input stage.Stage[bool], target layermask.Mask) *SwitchMode {
	s := &SwitchMode{input: input, target: target}
	s.terminal = terminal{id: id, name: "switch_mode", opts: target.String(), input: input}
	return s
}

func (s *SwitchMode) Reset() {
	s.fsm.Reset()
	s.input.Reset()
}
func (s *SwitchMode) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	if s.fsm.Next(s.input.Apply(ctx, actions)) == stage.Pressed {
		*actions = append(*actions, action.SetLayerMask(s.target))
	}
	return stage.Unit{}
}

// CycleModes advances through a fixed ordered list of layer masks each
// fresh button press, wrapping around; if the currently-active mask isn't
// in the list it cycles from the start.
type CycleModes struct {
	terminal
	input stage.Stage[bool]
	masks []layermask.Mask
	fsm   stage.ButtonFSM
}

func NewCycleModes(id stage.ID, input stage.Stage[bool], masks []layermask.Mask) *CycleModes {
	s := &CycleModes{input: input, masks: masks}
	s.terminal = terminal{id: id, name: "cycle_modes", opts: "", input: input}
	return s
}

func (s *CycleModes) Reset() {
	s.fsm.Reset()
	s.input.Reset()
}
func (s *CycleModes) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	if s.fsm.Next(s.input.Apply(ctx, actions)) == stage.Pressed && len(s.masks) > 0 {
		idx := 0
		for i, m := range s.masks {
			if m.Equals(ctx.Layers) {
				idx = i
				break
			}
		}
		next := s.masks[(idx+1)%len(s.masks)]
		*actions = append(*actions, action.SetLayerMask(next))
	}
	return stage.Unit{}
}

// FlipMode toggles between the active layer mask and a fixed target: the
// first press switches to target and remembers the mask it left, the next
// press switches back. The remembered mask is a named field, replacing the
// original's mutable-closure capture.
type FlipMode struct {
	terminal
	input  stage.Stage[bool]
	target layermask.Mask
	fsm    stage.ButtonFSM
}

func NewFlipMode(id stage.ID, input stage.Stage[bool], target layermask.Mask) *FlipMode {
	s := &FlipMode{input: input, target: target}
	s.terminal = terminal{id: id, name: "flip_mode", opts: "", input: input}
	return s
}

func (s *FlipMode) Reset() {
	s.fsm.Reset()
	s.input.Reset()
}
func (s *FlipMode) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	pressed := s.input.Apply(ctx, actions)
	if s.fsm.Next(pressed) == stage.Pressed && !ctx.Layers.Equals(s.target) {
		*actions = append(*actions, action.SetLayerMask(s.target))
		s.target = ctx.Layers
	}
	return stage.Unit{}
}

// TriggerBump fires a slight haptic bump on a trigger actuator on each
// fresh button press.
type TriggerBump struct {
	terminal
	input stage.Stage[bool]
	left  bool
	fsm   stage.ButtonFSM
}

func NewTriggerBump(id stage.ID, input stage.Stage[bool], left bool) *TriggerBump {
	s := &TriggerBump{input: input, left: left}
	s.terminal = terminal{id: id, name: "trigger_bump", opts: "", input: input}
	return s
}

func (s *TriggerBump) Reset() {
	s.fsm.Reset()
	s.input.Reset()
}
func (s *TriggerBump) Apply(ctx *stage.Context, actions *[]action.Action) stage.Unit {
	if s.fsm.Next(s.input.Apply(ctx, actions)) == stage.Pressed {
		target := action.RightTrigger
		if s.left {
			target = action.LeftTrigger
		}
		*actions = append(*actions, action.HapticFeedback(target, action.SlightBump))
	}
	return stage.Unit{}
}

// MenuItem is true exactly when a touch menu's currently-selected index
// equals item_idx.
type MenuItem struct {
	stage.Leaf
	input   stage.Stage[stage.OptU8]
	itemIdx uint8
}

func NewMenuItem(id stage.ID, input stage.Stage[stage.OptU8], itemIdx uint8) *MenuItem {
	return &MenuItem{Leaf: stage.NewLeaf(id, "menu_item", ""), input: input, itemIdx: itemIdx}
}

func (s *MenuItem) InputIDs() []stage.ID { return []stage.ID{s.input.ID()} }
func (s *MenuItem) Reset()               { s.input.Reset() }
func (s *MenuItem) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}
func (s *MenuItem) Apply(ctx *stage.Context, actions *[]action.Action) bool {
	selected := s.input.Apply(ctx, actions)
	return selected.Present && selected.Value == s.itemIdx
}
