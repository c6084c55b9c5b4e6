package stagelib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctlmapper/internal/action"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/snapshot"
	"ctlmapper/internal/stage"
)

func noActions() *[]action.Action {
	a := make([]action.Action, 0)
	return &a
}

func ctxAt(tick uint64, snap *snapshot.Snapshot, layers layermask.Mask, t time.Time, probes map[stage.ID]probe.Value) *stage.Context {
	if probes == nil {
		probes = map[stage.ID]probe.Value{}
	}
	return &stage.Context{Snapshot: snap, Layers: layers, Time: t, Tick: tick, Probes: probes}
}

func TestAxisAndButtonInput(t *testing.T) {
	var alloc stage.Allocator
	snap := snapshot.Empty()
	snap.Axes[snapshot.AxisLJoyX] = 0.5
	snap.Buttons[snapshot.A] = true

	axis := NewAxisInput(alloc.Next(), snapshot.AxisLJoyX, "ljoy_x")
	btn := NewButtonInput(alloc.Next(), snapshot.A, "a")

	ctx := ctxAt(1, &snap, layermask.Empty, time.Time{}, nil)
	assert.Equal(t, float32(0.5), axis.Apply(ctx, noActions()))
	assert.True(t, btn.Apply(ctx, noActions()))
}

func TestConstantAndDummyButtonInput(t *testing.T) {
	var alloc stage.Allocator
	c := NewConstantInput(alloc.Next(), 1.25)
	d := NewDummyButtonInput(alloc.Next())
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	assert.Equal(t, float32(1.25), c.Apply(ctx, noActions()))
	assert.False(t, d.Apply(ctx, noActions()))
}

func TestScreenAndMemoryProbe(t *testing.T) {
	var alloc stage.Allocator
	sp := NewScreenProbe(alloc.Next(), probe.ScreenArea{}, probe.HSVBounds{}, "green")
	spec, err := probe.ParseMemorySpec("32;1000;+4;eq;u8;1")
	require.NoError(t, err)
	mp := NewMemoryProbe(alloc.Next(), spec, "flag")

	probes := map[stage.ID]probe.Value{
		sp.ID(): probe.NewXYValue(probe.KindScreen, 0.75, 0.4),
		mp.ID(): probe.NewU64Value(probe.KindMemory, 1),
	}
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, probes)
	got := sp.Apply(ctx, noActions())
	assert.InDelta(t, 0.75, got.X, 1e-9)
	assert.InDelta(t, float32(0.4), got.Y, 1e-9)
	assert.True(t, mp.Apply(ctx, noActions()))

	ctxMiss := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	assert.Equal(t, stage.Vec2{}, sp.Apply(ctxMiss, noActions()))
	assert.False(t, mp.Apply(ctxMiss, noActions()))
}

func TestDeadzoneAndCartesianDeadzone(t *testing.T) {
	var alloc stage.Allocator
	x := NewConstantInput(alloc.Next(), 50)
	dz := Deadzone(alloc.Next(), x, 20)
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	assert.Equal(t, float32(30), dz.Apply(ctx, noActions()))

	neg := NewConstantInput(alloc.Next(), -10)
	dzNeg := Deadzone(alloc.Next(), neg, 20)
	assert.Equal(t, float32(0), dzNeg.Apply(ctx, noActions()))

	jx := NewConstantInput(alloc.Next(), 50)
	jy := NewConstantInput(alloc.Next(), 50)
	joy := Merge(alloc.Next(), jx, jy)
	cdz := CartesianDeadzone(alloc.Next(), joy, 50)
	v := cdz.Apply(ctx, noActions())
	assert.InDelta(t, 14.64, v.X, 0.1)
	assert.InDelta(t, 14.64, v.Y, 0.1)
}

func TestCutoffScaleOffset(t *testing.T) {
	var alloc stage.Allocator
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)

	v := NewConstantInput(alloc.Next(), 5)
	co := Cutoff(alloc.Next(), v, 3)
	assert.Equal(t, float32(0), co.Apply(ctx, noActions()))

	v2 := NewConstantInput(alloc.Next(), 2)
	co2 := Cutoff(alloc.Next(), v2, 3)
	assert.Equal(t, float32(2), co2.Apply(ctx, noActions()))

	sc := Scale(alloc.Next(), v2, 4)
	assert.Equal(t, float32(8), sc.Apply(ctx, noActions()))

	of := Offset(alloc.Next(), v2, 4)
	assert.Equal(t, float32(6), of.Apply(ctx, noActions()))
}

func TestCartesianPolarRoundTrip(t *testing.T) {
	var alloc stage.Allocator
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	x := NewConstantInput(alloc.Next(), 3)
	y := NewConstantInput(alloc.Next(), 4)
	xy := Merge(alloc.Next(), x, y)
	pol := Polar(alloc.Next(), xy)
	p := pol.Apply(ctx, noActions())
	assert.InDelta(t, 5, p.X, 1e-4)

	cart := Cartesian(alloc.Next(), pol)
	back := cart.Apply(ctx, noActions())
	assert.InDelta(t, 3, back.X, 1e-3)
	assert.InDelta(t, 4, back.Y, 1e-3)
}

func TestSelectAndGate(t *testing.T) {
	var alloc stage.Allocator
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	x := NewConstantInput(alloc.Next(), 7)
	y := NewConstantInput(alloc.Next(), 9)
	xy := Merge(alloc.Next(), x, y)
	assert.Equal(t, float32(7), Select0(alloc.Next(), xy).Apply(ctx, noActions()))
	assert.Equal(t, float32(9), Select1(alloc.Next(), xy).Apply(ctx, noActions()))

	open := NewConstantButton(alloc.Next(), true)
	closed := NewConstantButton(alloc.Next(), false)
	assert.Equal(t, float32(7), GateAxis(alloc.Next(), x, open).Apply(ctx, noActions()))
	assert.Equal(t, float32(0), GateAxis(alloc.Next(), x, closed).Apply(ctx, noActions()))
}

func TestInvert(t *testing.T) {
	var alloc stage.Allocator
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	b := NewConstantButton(alloc.Next(), true)
	assert.False(t, Invert(alloc.Next(), b).Apply(ctx, noActions()))
}

func TestSmoothConverges(t *testing.T) {
	var alloc stage.Allocator
	v := NewConstantInput(alloc.Next(), 100)
	sm := NewSmooth(alloc.Next(), v, 4)
	var last float32
	for tick := uint64(1); tick <= 100; tick++ {
		ctx := ctxAt(tick, nil, layermask.Empty, time.Time{}, nil)
		last = sm.Apply(ctx, noActions())
	}
	assert.InDelta(t, 100, last, 0.01)
}

func TestAsAxisInputRepeat(t *testing.T) {
	var alloc stage.Allocator
	btn := newBoolSequenceStage(alloc.Next(), []bool{true, true, false, true})
	rep := NewAsAxisInput(alloc.Next(), btn, 10, true)
	norep := NewAsAxisInput(alloc.Next(), btn, 10, false)

	var gotRep, gotNoRep []float32
	for i, tick := range []uint64{1, 2, 3, 4} {
		_ = i
		ctx := ctxAt(tick, nil, layermask.Empty, time.Time{}, nil)
		gotRep = append(gotRep, rep.Apply(ctx, noActions()))
		gotNoRep = append(gotNoRep, norep.Apply(ctx, noActions()))
	}
	assert.Equal(t, []float32{10, 10, 0, 10}, gotRep)
	assert.Equal(t, []float32{10, 0, 0, 10}, gotNoRep)
}

func TestLineSegmentButtonHysteresis(t *testing.T) {
	var alloc stage.Allocator
	x := newFloatSequenceStage(alloc.Next(), []float32{0, 10, 15, 9, 4})
	lsb := NewLineSegmentButton(alloc.Next(), x, 10, 20, 3)

	var got []bool
	for _, tick := range []uint64{1, 2, 3, 4, 5} {
		ctx := ctxAt(tick, nil, layermask.Empty, time.Time{}, nil)
		got = append(got, lsb.Apply(ctx, noActions()))
	}
	// tick4 (x=9) is inside the [from-margin, to+margin] hysteresis band but
	// outside [from, to], so the previous pressed state holds; tick5 (x=4)
	// falls outside the band and releases.
	assert.Equal(t, []bool{false, true, true, true, false}, got)
}

func TestModeIs(t *testing.T) {
	var alloc stage.Allocator
	target, err := layermask.UserLayer(2)
	require.NoError(t, err)
	mi := NewModeIs(alloc.Next(), target)

	ctxMatch := ctxAt(1, nil, target, time.Time{}, nil)
	ctxMiss := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	assert.True(t, mi.Apply(ctxMatch, noActions()))
	assert.False(t, mi.Apply(ctxMiss, noActions()))
}

func TestSwitchModeEmitsOncePerPress(t *testing.T) {
	var alloc stage.Allocator
	target, _ := layermask.UserLayer(1)
	btn := newBoolSequenceStage(alloc.Next(), []bool{true, true, false})
	sm := NewSwitchMode(alloc.Next(), btn, target)

	var count int
	for _, tick := range []uint64{1, 2, 3} {
		acts := noActions()
		ctx := ctxAt(tick, nil, layermask.Empty, time.Time{}, nil)
		sm.Apply(ctx, acts)
		count += len(*acts)
	}
	assert.Equal(t, 1, count)
}

func TestCycleModesWraps(t *testing.T) {
	var alloc stage.Allocator
	m0 := layermask.Empty
	m1, _ := layermask.UserLayer(0)
	m2, _ := layermask.UserLayer(1)
	btn := newBoolSequenceStage(alloc.Next(), []bool{true})
	cm := NewCycleModes(alloc.Next(), btn, []layermask.Mask{m0, m1, m2})

	acts := noActions()
	ctx := ctxAt(1, nil, m2, time.Time{}, nil)
	cm.Apply(ctx, acts)
	require.Len(t, *acts, 1)
	assert.Equal(t, m0, (*acts)[0].LayerMask)
}

func TestTriggerBumpFiresOnPress(t *testing.T) {
	var alloc stage.Allocator
	btn := newBoolSequenceStage(alloc.Next(), []bool{true, true})
	tb := NewTriggerBump(alloc.Next(), btn, true)

	acts1 := noActions()
	tb.Apply(ctxAt(1, nil, layermask.Empty, time.Time{}, nil), acts1)
	require.Len(t, *acts1, 1)
	assert.Equal(t, action.LeftTrigger, (*acts1)[0].HapticTarget)

	acts2 := noActions()
	tb.Apply(ctxAt(2, nil, layermask.Empty, time.Time{}, nil), acts2)
	assert.Len(t, *acts2, 0)
}

func TestMenuItem(t *testing.T) {
	var alloc stage.Allocator
	sel := newOptU8Stage(alloc.Next(), stage.SomeU8(2))
	mi := NewMenuItem(alloc.Next(), sel, 2)
	miMiss := NewMenuItem(alloc.Next(), sel, 3)
	ctx := ctxAt(1, nil, layermask.Empty, time.Time{}, nil)
	assert.True(t, mi.Apply(ctx, noActions()))
	assert.False(t, miMiss.Apply(ctx, noActions()))
}

func TestTwitchJoymouseDeltaThenFling(t *testing.T) {
	var alloc stage.Allocator
	xs := newFloatSequenceStage(alloc.Next(), []float32{0.2, 0.3, 0.95})
	ys := newFloatSequenceStage(alloc.Next(), []float32{0, 0, 0})
	joy := Merge(alloc.Next(), xs, ys)
	tw := NewTwitchJoymouse(alloc.Next(), joy)

	var out stage.Vec2
	for _, tick := range []uint64{1, 2, 3} {
		ctx := ctxAt(tick, nil, layermask.Empty, time.Time{}, nil)
		out = tw.Apply(ctx, noActions())
	}
	assert.Greater(t, out.X, float32(0))
}

func TestPulseTogglesAtFrequency(t *testing.T) {
	var alloc stage.Allocator
	btn := newBoolSequenceStage(alloc.Next(), []bool{true, true, true, true})
	p := NewPulse(alloc.Next(), btn, 10, 0.5) // 100ms cycle, 50ms high/low

	base := time.Unix(0, 0)
	ticks := []time.Duration{0, 40 * time.Millisecond, 60 * time.Millisecond, 120 * time.Millisecond}
	var got []bool
	for i, d := range ticks {
		ctx := ctxAt(uint64(i+1), nil, layermask.Empty, base.Add(d), nil)
		got = append(got, p.Apply(ctx, noActions()))
	}
	assert.Equal(t, []bool{true, true, false, true}, got)
}

func TestTouchMenuDwellLock(t *testing.T) {
	var alloc stage.Allocator
	xs := newFloatSequenceStage(alloc.Next(), []float32{0})
	ys := newFloatSequenceStage(alloc.Next(), []float32{0.5})
	pos := Merge(alloc.Next(), xs, ys)
	toggle := newBoolSequenceStage(alloc.Next(), []bool{true, true, false})
	sel := newBoolSequenceStage(alloc.Next(), []bool{false, false, true})

	menu := NewTouchMenu(alloc.Next(), pos, toggle, sel, []string{"a", "b"}, TouchMenuLayout{InnerRadius: 0.2, OuterRadius: 1.0, Margin: 0.05})

	base := time.Unix(0, 0)
	ticks := []time.Duration{0, 600 * time.Millisecond, 610 * time.Millisecond}
	var got []stage.OptU8
	for i, d := range ticks {
		ctx := ctxAt(uint64(i+1), nil, layermask.Empty, base.Add(d), nil)
		got = append(got, menu.Apply(ctx, noActions()))
	}

	assert.Equal(t, []stage.OptU8{stage.NoneU8(), stage.NoneU8(), stage.SomeU8(0)}, got)
}
