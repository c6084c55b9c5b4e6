package stagelib

import (
	"math"
	"time"

	"ctlmapper/internal/action"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/stage"
)

// Smooth is an exponential low-pass filter: smoothed += (value - smoothed) /
// factor each tick. The accumulator is a named field, not a captured
// closure variable, so Reset clears it precisely.
//
// http://stackoverflow.com/questions/4026648 (Java low-pass filter writeup)
type Smooth struct {
	id    stage.ID
	input stage.Stage[float32]
	factor float32

	memo     stage.Memo[float32]
	smoothed float32
}

func NewSmooth(id stage.ID, input stage.Stage[float32], factor float32) *Smooth {
	return &Smooth{id: id, input: input, factor: factor}
}

func (s *Smooth) ID() stage.ID                               { return s.id }
func (s *Smooth) Name() string                               { return "smooth" }
func (s *Smooth) Opts() string                               { return fmtF32(s.factor) }
func (s *Smooth) InputIDs() []stage.ID                       { return []stage.ID{s.input.ID()} }
func (s *Smooth) Probe() (probe.Descriptor, bool)            { return probe.Descriptor{}, false }
func (s *Smooth) Shapes() [][]overlay.Shape                  { return nil }
func (s *Smooth) Reset() {
	s.memo.Reset()
	s.smoothed = 0
	s.input.Reset()
}
func (s *Smooth) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}
func (s *Smooth) Apply(ctx *stage.Context, actions *[]action.Action) float32 {
	return s.memo.Get(ctx, func() float32 {
		v := s.input.Apply(ctx, actions)
		s.smoothed += (v - s.smoothed) / s.factor
		return s.smoothed
	})
}

// Relative differentiates an axis between successive button-held ticks: the
// press tick captures a reference sample and emits zero, each repeat tick
// emits the delta since the previous sample. Used for trackball-style
// relative mouse motion driven by an absolute touchpad position.
type Relative struct {
	id     stage.ID
	axis   stage.Stage[float32]
	button stage.Stage[bool]

	memo  stage.Memo[float32]
	fsm   stage.ButtonFSM
	prev  float32
}

func NewRelative(id stage.ID, axis stage.Stage[float32], button stage.Stage[bool]) *Relative {
	return &Relative{id: id, axis: axis, button: button}
}

func (s *Relative) ID() stage.ID                    { return s.id }
func (s *Relative) Name() string                    { return "relative" }
func (s *Relative) Opts() string                    { return "" }
func (s *Relative) InputIDs() []stage.ID            { return []stage.ID{s.axis.ID(), s.button.ID()} }
func (s *Relative) Probe() (probe.Descriptor, bool) { return probe.Descriptor{}, false }
func (s *Relative) Shapes() [][]overlay.Shape       { return nil }
func (s *Relative) Reset() {
	s.memo.Reset()
	s.fsm.Reset()
	s.prev = 0
	s.axis.Reset()
	s.button.Reset()
}
func (s *Relative) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.axis.Inspect(out)
		s.button.Inspect(out)
	}
}
func (s *Relative) Apply(ctx *stage.Context, actions *[]action.Action) float32 {
	return s.memo.Get(ctx, func() float32 {
		value := s.axis.Apply(ctx, actions)
		pressed := s.button.Apply(ctx, actions)
		switch s.fsm.Next(pressed) {
		case stage.Pressed:
			s.prev = value
			return 0
		case stage.Repeat:
			diff := value - s.prev
			s.prev = value
			return diff
		default:
			return 0
		}
	})
}

// AsAxisInput turns a button into a float amount: amount while freshly
// pressed, amount again each subsequent tick only if repeat is set, zero
// once released.
type AsAxisInput struct {
	stage.Leaf
	input  stage.Stage[bool]
	amount float32
	repeat bool
	fsm    stage.ButtonFSM
}

func NewAsAxisInput(id stage.ID, input stage.Stage[bool], amount float32, repeat bool) *AsAxisInput {
	return &AsAxisInput{
		Leaf:   stage.NewLeaf(id, "as_axis_input", ""), // overridden below via Opts
		input:  input,
		amount: amount,
		repeat: repeat,
	}
}

func (s *AsAxisInput) Opts() string    { return fmtF32(s.amount) + ", repeat: " + boolStr(s.repeat) }
func (s *AsAxisInput) InputIDs() []stage.ID { return []stage.ID{s.input.ID()} }
func (s *AsAxisInput) Reset()          { s.fsm.Reset(); s.input.Reset() }
func (s *AsAxisInput) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}
func (s *AsAxisInput) Apply(ctx *stage.Context, actions *[]action.Action) float32 {
	pressed := s.input.Apply(ctx, actions)
	switch s.fsm.Next(pressed) {
	case stage.Pressed:
		return s.amount
	case stage.Repeat:
		if s.repeat {
			return s.amount
		}
		return 0
	default:
		return 0
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Pulse square-waves a held button at a fixed frequency and duty width:
// true for width*cycle, false for (1-width)*cycle, restarting high on every
// fresh press and clearing on release.
type Pulse struct {
	stage.Leaf
	input     stage.Stage[bool]
	frequency float32
	width     float32

	fsm      stage.ButtonFSM
	lastFlip time.Time
	hasFlip  bool
	value    bool
}

func NewPulse(id stage.ID, input stage.Stage[bool], frequency, width float32) *Pulse {
	return &Pulse{Leaf: stage.NewLeaf(id, "pulse", fmtF32(frequency)), input: input, frequency: frequency, width: width}
}

func (s *Pulse) InputIDs() []stage.ID { return []stage.ID{s.input.ID()} }
func (s *Pulse) Reset() {
	s.fsm.Reset()
	s.hasFlip = false
	s.value = false
	s.input.Reset()
}
func (s *Pulse) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}
func (s *Pulse) Apply(ctx *stage.Context, actions *[]action.Action) bool {
	b := s.input.Apply(ctx, actions)
	pulseStep(&s.fsm, &s.lastFlip, &s.hasFlip, &s.value, b, ctx.Time, s.frequency, clampWidth(s.width))
	return s.value
}

// PulseByAxis is Pulse with frequency and width driven by pipeline stages
// instead of compile-time constants; width is clamped to 0..=1 every tick
// since an upstream axis can feed any range.
type PulseByAxis struct {
	id        stage.ID
	button    stage.Stage[bool]
	frequency stage.Stage[float32]
	width     stage.Stage[float32]

	memo     stage.Memo[bool]
	fsm      stage.ButtonFSM
	lastFlip time.Time
	hasFlip  bool
	value    bool
}

func NewPulseByAxis(id stage.ID, button stage.Stage[bool], frequency, width stage.Stage[float32]) *PulseByAxis {
	return &PulseByAxis{id: id, button: button, frequency: frequency, width: width}
}

func (s *PulseByAxis) ID() stage.ID    { return s.id }
func (s *PulseByAxis) Name() string    { return "pulse" }
func (s *PulseByAxis) Opts() string    { return "" }
func (s *PulseByAxis) InputIDs() []stage.ID {
	return []stage.ID{s.button.ID(), s.frequency.ID(), s.width.ID()}
}
func (s *PulseByAxis) Probe() (probe.Descriptor, bool) { return probe.Descriptor{}, false }
func (s *PulseByAxis) Shapes() [][]overlay.Shape       { return nil }
func (s *PulseByAxis) Reset() {
	s.memo.Reset()
	s.fsm.Reset()
	s.hasFlip = false
	s.value = false
	s.button.Reset()
	s.frequency.Reset()
	s.width.Reset()
}
func (s *PulseByAxis) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.button.Inspect(out)
		s.frequency.Inspect(out)
		s.width.Inspect(out)
	}
}
func (s *PulseByAxis) Apply(ctx *stage.Context, actions *[]action.Action) bool {
	return s.memo.Get(ctx, func() bool {
		b := s.button.Apply(ctx, actions)
		freq := s.frequency.Apply(ctx, actions)
		width := clampWidth(s.width.Apply(ctx, actions))
		pulseStep(&s.fsm, &s.lastFlip, &s.hasFlip, &s.value, b, ctx.Time, freq, width)
		return s.value
	})
}

func clampWidth(w float32) float32 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

func pulseStep(fsm *stage.ButtonFSM, lastFlip *time.Time, hasFlip *bool, value *bool, b bool, now time.Time, frequency, width float32) {
	cycle := time.Duration(1000.0 / float64(frequency) * float64(time.Millisecond))
	pulseTime := time.Duration(float64(cycle) * float64(width))
	waitTime := time.Duration(float64(cycle) * float64(1-width))

	switch fsm.Next(b) {
	case stage.Pressed:
		*value = true
		*lastFlip = now
		*hasFlip = true
	case stage.Repeat:
		threshold := waitTime
		if *value {
			threshold = pulseTime
		}
		if *hasFlip && now.Sub(*lastFlip) >= threshold {
			*value = !*value
			*lastFlip = now
		}
	case stage.Released:
		*value = false
		*hasFlip = false
	}
}

// LineSegmentButton turns a scalar into a button with hysteresis: pressed
// once x enters [from, to], released once x leaves [from-margin,
// to+margin], holding its last state in between so small jitter near the
// boundary doesn't chatter.
type LineSegmentButton struct {
	stage.Leaf
	input          stage.Stage[float32]
	from, to, margin float32
	pressed        bool
}

func NewLineSegmentButton(id stage.ID, input stage.Stage[float32], from, to, margin float32) *LineSegmentButton {
	return &LineSegmentButton{
		Leaf:   stage.NewLeaf(id, "line_segment_button", ""),
		input:  input,
		from:   from,
		to:     to,
		margin: margin,
	}
}

func (s *LineSegmentButton) InputIDs() []stage.ID { return []stage.ID{s.input.ID()} }
func (s *LineSegmentButton) Reset() {
	s.pressed = false
	s.input.Reset()
}
func (s *LineSegmentButton) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}
func (s *LineSegmentButton) Apply(ctx *stage.Context, actions *[]action.Action) bool {
	x := s.input.Apply(ctx, actions)
	switch {
	case x >= s.from && x <= s.to:
		s.pressed = true
	case x <= s.from-s.margin || x >= s.to+s.margin:
		s.pressed = false
	}
	return s.pressed
}

// RingSectorButtonOpts bounds a wedge of an annulus the button fires within.
type RingSectorButtonOpts struct {
	Direction   float32
	Angle       float32
	InnerRadius float32
	OuterRadius float32
	Margin      float32
}

// RingSectorButton turns a (x, y) sample into a button pressed while the
// sample falls within a ring sector; four margin-offset samples must agree
// before a transition is accepted, to damp boundary jitter.
type RingSectorButton struct {
	stage.Leaf
	input   stage.Stage[stage.Vec2]
	opts    RingSectorButtonOpts
	pressed bool
}

func NewRingSectorButton(id stage.ID, input stage.Stage[stage.Vec2], opts RingSectorButtonOpts) *RingSectorButton {
	return &RingSectorButton{Leaf: stage.NewLeaf(id, "ring_sector_button", ""), input: input, opts: opts}
}

func (s *RingSectorButton) InputIDs() []stage.ID { return []stage.ID{s.input.ID()} }
func (s *RingSectorButton) Reset() {
	s.pressed = false
	s.input.Reset()
}
func (s *RingSectorButton) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}

func ringSectorCheck(o RingSectorButtonOpts, x, y float32) bool {
	dc := float32(math.Hypot(float64(x), float64(y)))
	if dc < o.InnerRadius || dc > o.OuterRadius {
		return false
	}
	angle := float32(math.Atan2(float64(y), float64(x)))
	diff := angle - o.Direction
	if diff > math.Pi {
		diff -= 2 * math.Pi
	}
	if diff < -math.Pi {
		diff += 2 * math.Pi
	}
	if diff < 0 {
		diff = -diff
	}
	return diff <= o.Angle/2
}

func (s *RingSectorButton) Apply(ctx *stage.Context, actions *[]action.Action) bool {
	v := s.input.Apply(ctx, actions)
	x, y, m := v.X, v.Y, s.opts.Margin/2
	test := ringSectorCheck(s.opts, x+m, y)
	if test != ringSectorCheck(s.opts, x-m, y) {
		return s.pressed
	}
	if test != ringSectorCheck(s.opts, x, y+m) {
		return s.pressed
	}
	if test != ringSectorCheck(s.opts, x, y-m) {
		return s.pressed
	}
	s.pressed = test
	return s.pressed
}

// ModeIs is true exactly when the active layer mask equals target — used to
// branch config-language behavior on the current mode without a runtime
// layer comparison stage per call site.
type ModeIs struct {
	stage.Leaf
	target layermask.Mask
}

func NewModeIs(id stage.ID, target layermask.Mask) *ModeIs {
	return &ModeIs{Leaf: stage.NewLeaf(id, "mode_is", target.String()), target: target}
}

func (s *ModeIs) Apply(ctx *stage.Context, _ *[]action.Action) bool {
	return ctx.Layers.Equals(s.target)
}
