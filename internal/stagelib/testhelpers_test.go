package stagelib

import (
	"ctlmapper/internal/action"
	"ctlmapper/internal/stage"
)

// constantButton is a fixed boolean leaf used only by tests that need a
// gate/button operand without driving it through the snapshot.
type constantButton struct {
	stage.Leaf
	value bool
}

func NewConstantButton(id stage.ID, v bool) *constantButton {
	return &constantButton{Leaf: stage.NewLeaf(id, "test_constant_button", ""), value: v}
}

func (s *constantButton) Apply(*stage.Context, *[]action.Action) bool { return s.value }

// boolSequenceStage replays a fixed sequence of booleans, one per
// successive Apply call, holding the last value once exhausted — lets
// tests drive FSM-based stages through a scripted button history.
type boolSequenceStage struct {
	stage.Leaf
	seq      []bool
	i        int
	lastTick uint64
	started  bool
}

func newBoolSequenceStage(id stage.ID, seq []bool) *boolSequenceStage {
	return &boolSequenceStage{Leaf: stage.NewLeaf(id, "test_bool_sequence", ""), seq: seq}
}

func (s *boolSequenceStage) Apply(ctx *stage.Context, _ *[]action.Action) bool {
	if !s.started {
		s.started = true
		s.lastTick = ctx.Tick
	} else if ctx.Tick != s.lastTick {
		s.lastTick = ctx.Tick
		if s.i < len(s.seq)-1 {
			s.i++
		}
	}
	return s.seq[s.i]
}

// floatSequenceStage is the float32 analogue of boolSequenceStage.
type floatSequenceStage struct {
	stage.Leaf
	seq      []float32
	i        int
	lastTick uint64
	started  bool
}

func newFloatSequenceStage(id stage.ID, seq []float32) *floatSequenceStage {
	return &floatSequenceStage{Leaf: stage.NewLeaf(id, "test_float_sequence", ""), seq: seq}
}

func (s *floatSequenceStage) Apply(ctx *stage.Context, _ *[]action.Action) float32 {
	if !s.started {
		s.started = true
		s.lastTick = ctx.Tick
	} else if ctx.Tick != s.lastTick {
		s.lastTick = ctx.Tick
		if s.i < len(s.seq)-1 {
			s.i++
		}
	}
	return s.seq[s.i]
}

// optU8Stage always yields a fixed OptU8, used to drive menu_item tests
// without a full touch_menu pipeline.
type optU8Stage struct {
	stage.Leaf
	value stage.OptU8
}

func newOptU8Stage(id stage.ID, v stage.OptU8) *optU8Stage {
	return &optU8Stage{Leaf: stage.NewLeaf(id, "test_optu8", ""), value: v}
}

func (s *optU8Stage) Apply(*stage.Context, *[]action.Action) stage.OptU8 { return s.value }
