package stagelib

import (
	"math"

	"ctlmapper/internal/action"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/stage"
)

// TwitchJoymouse turns an absolute joystick sample into a mouse-style
// delta: while the stick is held away from center (distance < 0.9) it
// reports the frame-to-frame position delta (so releasing the stick stops
// motion dead rather than drifting), but once pushed to the rim it instead
// reports a constant-speed vector along the current angle — preserving a
// low-pass-filtered "fling" speed built up while the stick was still
// moving, for twitch-style full-speed aim turns.
type TwitchJoymouse struct {
	stage.Leaf
	input stage.Stage[stage.Vec2]

	prevX, prevY, prevDFC, speed float32
}

func NewTwitchJoymouse(id stage.ID, input stage.Stage[stage.Vec2]) *TwitchJoymouse {
	return &TwitchJoymouse{Leaf: stage.NewLeaf(id, "twitch_joymouse", ""), input: input}
}

func (s *TwitchJoymouse) InputIDs() []stage.ID            { return []stage.ID{s.input.ID()} }
func (s *TwitchJoymouse) Probe() (probe.Descriptor, bool) { return probe.Descriptor{}, false }
func (s *TwitchJoymouse) Shapes() [][]overlay.Shape       { return nil }
func (s *TwitchJoymouse) Reset() {
	s.prevX, s.prevY, s.prevDFC, s.speed = 0, 0, 0, 0
	s.input.Reset()
}
func (s *TwitchJoymouse) Inspect(out map[stage.ID]stage.Description) {
	if stage.InsertDescription(out, s) {
		s.input.Inspect(out)
	}
}

func (s *TwitchJoymouse) Apply(ctx *stage.Context, actions *[]action.Action) stage.Vec2 {
	v := s.input.Apply(ctx, actions)
	x, y := v.X, v.Y
	dfc := float32(math.Hypot(float64(x), float64(y)))

	var out stage.Vec2
	if dfc < 0.9 {
		dfcDiff := dfc - s.prevDFC
		s.speed += (dfcDiff - s.speed) / 8
		if dfcDiff > 0 {
			out = stage.Vec2{X: x - s.prevX, Y: y - s.prevY}
		}
	} else {
		angle := math.Atan2(float64(y), float64(x))
		out = stage.Vec2{X: float32(math.Cos(angle)) * s.speed, Y: float32(math.Sin(angle)) * s.speed}
	}

	s.prevX, s.prevY, s.prevDFC = x, y, dfc
	return out
}
