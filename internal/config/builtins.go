package config

import (
	"errors"
	"fmt"

	"ctlmapper/internal/action"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/probe"
	"ctlmapper/internal/snapshot"
	"ctlmapper/internal/stage"
	"ctlmapper/internal/stagelib"
)

// constBool is a leaf stage for a compile-time boolean literal passed to
// `input`, analogous to stagelib.ConstantInput for floats.
type constBool struct {
	stage.Leaf
	value bool
}

func newConstBool(id stage.ID, v bool) *constBool {
	return &constBool{Leaf: stage.NewLeaf(id, "constant_button", boolLit(v)), value: v}
}
func (s *constBool) Apply(*stage.Context, *[]action.Action) bool { return s.value }

func boolLit(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func numOpt(opts map[string]Value, name string, def float32) float32 {
	if v, ok := opts[name]; ok && v.Kind == KindNumber {
		return v.Number
	}
	return def
}

// RegisterDefaults wires every named controller input, the Ms/Kb lookup
// structs, and the full pipeline-stage catalogue into ctx's root scope.
// alloc mints stage IDs for every native call.
func RegisterDefaults(ctx *Context, alloc *stage.Allocator) {
	axisVar := func(name string, a snapshot.Axis) {
		ctx.InsertRootVar(name, ConstValue(Constant{Kind: ConstInputAxis, InputAxis: a}))
	}
	buttonVar := func(name string, b snapshot.Button) {
		ctx.InsertRootVar(name, ConstValue(Constant{Kind: ConstInputButton, InputButton: b}))
	}

	axisVar("LPadX", snapshot.AxisLPadX)
	axisVar("LPadY", snapshot.AxisLPadY)
	buttonVar("LPadTouch", snapshot.LPadTouch)
	buttonVar("LPadPress", snapshot.LPad)
	axisVar("RPadX", snapshot.AxisRPadX)
	axisVar("RPadY", snapshot.AxisRPadY)
	buttonVar("RPadTouch", snapshot.RPadTouch)
	buttonVar("RPadPress", snapshot.RPad)
	axisVar("LTrig", snapshot.AxisLTrig)
	axisVar("RTrig", snapshot.AxisRTrig)
	buttonVar("LTrigPress", snapshot.LTrig)
	buttonVar("RTrigPress", snapshot.RTrig)
	axisVar("JoyX", snapshot.AxisLJoyX)
	axisVar("JoyY", snapshot.AxisLJoyY)
	axisVar("LJoyX", snapshot.AxisLJoyX)
	axisVar("LJoyY", snapshot.AxisLJoyY)
	axisVar("RJoyX", snapshot.AxisRJoyX)
	axisVar("RJoyY", snapshot.AxisRJoyY)
	axisVar("Yaw", snapshot.AxisYaw)
	axisVar("Pitch", snapshot.AxisPitch)
	axisVar("Roll", snapshot.AxisRoll)
	axisVar("AbsYaw", snapshot.AxisAbsYaw)
	axisVar("AbsPitch", snapshot.AxisAbsPitch)
	axisVar("AbsRoll", snapshot.AxisAbsRoll)
	buttonVar("LBump", snapshot.LBump)
	buttonVar("RBump", snapshot.RBump)
	buttonVar("RGrip", snapshot.RGrip)
	buttonVar("LGrip", snapshot.LGrip)
	buttonVar("A", snapshot.A)
	buttonVar("B", snapshot.B)
	buttonVar("X", snapshot.X)
	buttonVar("Y", snapshot.Y)
	buttonVar("Start", snapshot.Start)
	buttonVar("Back", snapshot.Back)
	buttonVar("LStickPress", snapshot.LStick)
	buttonVar("RStickPress", snapshot.RStick)
	buttonVar("DPadUp", snapshot.DPadUp)
	buttonVar("DPadLeft", snapshot.DPadLeft)
	buttonVar("DPadDown", snapshot.DPadDown)
	buttonVar("DPadRight", snapshot.DPadRight)

	ctx.InsertRootVar("Ms", StructValue(map[string]Value{
		"X":     ConstValue(Constant{Kind: ConstMouseAxis, MouseAxis: action.MouseX}),
		"Y":     ConstValue(Constant{Kind: ConstMouseAxis, MouseAxis: action.MouseY}),
		"Wheel": ConstValue(Constant{Kind: ConstMouseAxis, MouseAxis: action.MouseWheel}),
		"LB":    ConstValue(Constant{Kind: ConstMouseButton, MouseButton: action.MouseLeft}),
		"RB":    ConstValue(Constant{Kind: ConstMouseButton, MouseButton: action.MouseRight}),
		"MB":    ConstValue(Constant{Kind: ConstMouseButton, MouseButton: action.MouseMiddle}),
	}))

	kb := map[string]Value{}
	for _, k := range action.AllKeys() {
		kb[k.String()] = ConstValue(Constant{Kind: ConstKeyboardKey, KeyboardKey: k})
	}
	ctx.InsertRootVar("Kb", StructValue(kb))

	registerFunctions(ctx, alloc)
}

func registerFunctions(ctx *Context, alloc *stage.Allocator) {
	ctx.RegisterFun("print", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, ErrNoOverload
		}
		fmt.Println(describeValue(args[0]))
		return NothingValue(), nil
	})

	ctx.RegisterFun("input", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, ErrNoOverload
		}
		switch a := args[0]; a.Kind {
		case KindNumber:
			return Pipeline1DValue(stagelib.NewConstantInput(alloc.Next(), a.Number)), nil
		case KindBoolean:
			return PipelineBValue(newConstBool(alloc.Next(), a.Bool)), nil
		case KindConstant:
			switch a.Const.Kind {
			case ConstInputAxis:
				return Pipeline1DValue(stagelib.NewAxisInput(alloc.Next(), a.Const.InputAxis, "")), nil
			case ConstInputButton:
				return PipelineBValue(stagelib.NewButtonInput(alloc.Next(), a.Const.InputButton, "")), nil
			}
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("as_axis", func(args []Value, opts map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		value, ok := opts["value"]
		if !ok || value.Kind != KindNumber {
			return Value{}, errors.New("expected named argument value: Number")
		}
		repeat := false
		if r, ok := opts["repeat"]; ok && r.Kind == KindBoolean {
			repeat = r.Bool
		}
		return Pipeline1DValue(stagelib.NewAsAxisInput(alloc.Next(), args[0].PipelineB, value.Number, repeat)), nil
	})

	ctx.RegisterFun("as_line_segment_button", func(args []Value, opts map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline1D {
			return Value{}, ErrNoOverload
		}
		from, to := numOpt(opts, "from", 0), numOpt(opts, "to", 0)
		margin := numOpt(opts, "margin", 0)
		return PipelineBValue(stagelib.NewLineSegmentButton(alloc.Next(), args[0].Pipeline1D, from, to, margin)), nil
	})

	ctx.RegisterFun("as_ring_sector_button", func(args []Value, opts map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		rsOpts := stagelib.RingSectorButtonOpts{
			Direction:   numOpt(opts, "direction", 0),
			Angle:       numOpt(opts, "angle", 0),
			InnerRadius: numOpt(opts, "inner_radius", 0),
			OuterRadius: numOpt(opts, "outer_radius", 1),
			Margin:      numOpt(opts, "margin", 0),
		}
		return PipelineBValue(stagelib.NewRingSectorButton(alloc.Next(), args[0].Pipeline2D, rsOpts)), nil
	})

	ctx.RegisterFun("bind", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, ErrNoOverload
		}
		switch {
		case args[0].Kind == KindPipeline1D && args[1].Kind == KindConstant && args[1].Const.Kind == ConstMouseAxis:
			return CompletePipelineValue(layermask.Empty,
				stagelib.NewMouseMove(alloc.Next(), args[0].Pipeline1D, args[1].Const.MouseAxis, "")), nil
		case args[0].Kind == KindPipelineB && args[1].Kind == KindConstant && args[1].Const.Kind == ConstMouseButton:
			return CompletePipelineValue(layermask.Empty,
				stagelib.NewMouseButtonPress(alloc.Next(), args[0].PipelineB, args[1].Const.MouseButton, "")), nil
		case args[0].Kind == KindPipelineB && args[1].Kind == KindConstant && args[1].Const.Kind == ConstKeyboardKey:
			return CompletePipelineValue(layermask.Empty,
				stagelib.NewKeyboardKeyPress(alloc.Next(), args[0].PipelineB, args[1].Const.KeyboardKey, "")), nil
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("cartesian", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		return Pipeline2DValue(stagelib.Cartesian(alloc.Next(), args[0].Pipeline2D)), nil
	})

	ctx.RegisterFun("polar", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		return Pipeline2DValue(stagelib.Polar(alloc.Next(), args[0].Pipeline2D)), nil
	})

	ctx.RegisterFun("distance_from_center", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		return Pipeline1DValue(stagelib.DistanceFromCenter(alloc.Next(), args[0].Pipeline2D)), nil
	})

	ctx.RegisterFun("merge", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline1D || args[1].Kind != KindPipeline1D {
			return Value{}, ErrNoOverload
		}
		return Pipeline2DValue(stagelib.Merge(alloc.Next(), args[0].Pipeline1D, args[1].Pipeline1D)), nil
	})

	ctx.RegisterFun("split", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		in := args[0].Pipeline2D
		return ListValue([]Value{
			Pipeline1DValue(stagelib.Select0(alloc.Next(), in)),
			Pipeline1DValue(stagelib.Select1(alloc.Next(), in)),
		}), nil
	})

	ctx.RegisterFun("invert", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		return PipelineBValue(stagelib.Invert(alloc.Next(), args[0].PipelineB)), nil
	})

	ctx.RegisterFun("cutoff", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline1D || args[1].Kind != KindNumber {
			return Value{}, ErrNoOverload
		}
		return Pipeline1DValue(stagelib.Cutoff(alloc.Next(), args[0].Pipeline1D, args[1].Number)), nil
	})

	ctx.RegisterFun("deadzone", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[1].Kind != KindNumber {
			return Value{}, ErrNoOverload
		}
		switch args[0].Kind {
		case KindPipeline1D:
			return Pipeline1DValue(stagelib.Deadzone(alloc.Next(), args[0].Pipeline1D, args[1].Number)), nil
		case KindPipeline2D:
			return Pipeline2DValue(stagelib.CartesianDeadzone(alloc.Next(), args[0].Pipeline2D, args[1].Number)), nil
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("scale", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline1D {
			return Value{}, ErrNoOverload
		}
		switch args[1].Kind {
		case KindNumber:
			return Pipeline1DValue(stagelib.Scale(alloc.Next(), args[0].Pipeline1D, args[1].Number)), nil
		case KindPipeline1D:
			return Pipeline1DValue(stagelib.ScaleByAxis(alloc.Next(), args[0].Pipeline1D, args[1].Pipeline1D)), nil
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("offset", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline1D {
			return Value{}, ErrNoOverload
		}
		switch args[1].Kind {
		case KindNumber:
			return Pipeline1DValue(stagelib.Offset(alloc.Next(), args[0].Pipeline1D, args[1].Number)), nil
		case KindPipeline1D:
			return Pipeline1DValue(stagelib.OffsetByAxis(alloc.Next(), args[0].Pipeline1D, args[1].Pipeline1D)), nil
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("rotate", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		switch args[1].Kind {
		case KindNumber:
			return Pipeline2DValue(stagelib.Rotate(alloc.Next(), args[0].Pipeline2D, args[1].Number)), nil
		case KindPipeline1D:
			return Pipeline2DValue(stagelib.RotateByAxis(alloc.Next(), args[0].Pipeline2D, args[1].Pipeline1D)), nil
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("gate", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[1].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		switch args[0].Kind {
		case KindPipeline1D:
			return Pipeline1DValue(stagelib.GateAxis(alloc.Next(), args[0].Pipeline1D, args[1].PipelineB)), nil
		case KindPipelineB:
			return PipelineBValue(stagelib.GateButton(alloc.Next(), args[0].PipelineB, args[1].PipelineB)), nil
		}
		return Value{}, ErrNoOverload
	})

	ctx.RegisterFun("relative", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline1D || args[1].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		return Pipeline1DValue(stagelib.NewRelative(alloc.Next(), args[0].Pipeline1D, args[1].PipelineB)), nil
	})

	ctx.RegisterFun("smooth", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipeline1D || args[1].Kind != KindNumber {
			return Value{}, ErrNoOverload
		}
		return Pipeline1DValue(stagelib.NewSmooth(alloc.Next(), args[0].Pipeline1D, args[1].Number)), nil
	})

	ctx.RegisterFun("pulse", func(args []Value, opts map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		freq, hasFreq := opts["frequency"]
		width, hasWidth := opts["width"]
		if !hasFreq || !hasWidth {
			return Value{}, errors.New("expected named arguments frequency and width")
		}
		if freq.Kind == KindNumber && width.Kind == KindNumber {
			return PipelineBValue(stagelib.NewPulse(alloc.Next(), args[0].PipelineB, freq.Number, width.Number)), nil
		}
		toAxis := func(v Value) (stage.Stage[float32], bool) {
			switch v.Kind {
			case KindNumber:
				return stagelib.NewConstantInput(alloc.Next(), v.Number), true
			case KindPipeline1D:
				return v.Pipeline1D, true
			}
			return nil, false
		}
		freqP, ok1 := toAxis(freq)
		widthP, ok2 := toAxis(width)
		if !ok1 || !ok2 {
			return Value{}, ErrNoOverload
		}
		return PipelineBValue(stagelib.NewPulseByAxis(alloc.Next(), args[0].PipelineB, freqP, widthP)), nil
	})

	ctx.RegisterFun("twitch_joymouse", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipeline2D {
			return Value{}, ErrNoOverload
		}
		return Pipeline2DValue(stagelib.NewTwitchJoymouse(alloc.Next(), args[0].Pipeline2D)), nil
	})

	ctx.RegisterFun("mode_is", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindLayerMask {
			return Value{}, ErrNoOverload
		}
		return PipelineBValue(stagelib.NewModeIs(alloc.Next(), args[0].Layer)), nil
	})

	ctx.RegisterFun("set_mode", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipelineB || args[1].Kind != KindLayerMask {
			return Value{}, ErrNoOverload
		}
		return CompletePipelineValue(layermask.Empty, stagelib.NewSwitchMode(alloc.Next(), args[0].PipelineB, args[1].Layer)), nil
	})

	ctx.RegisterFun("flip_mode", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipelineB || args[1].Kind != KindLayerMask {
			return Value{}, ErrNoOverload
		}
		return CompletePipelineValue(layermask.Empty, stagelib.NewFlipMode(alloc.Next(), args[0].PipelineB, args[1].Layer)), nil
	})

	ctx.RegisterFun("cycle_modes", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 2 || args[0].Kind != KindPipelineB || args[1].Kind != KindList {
			return Value{}, ErrNoOverload
		}
		masks := make([]layermask.Mask, len(args[1].List))
		for i, v := range args[1].List {
			if v.Kind != KindLayerMask {
				return Value{}, errors.New("expected a list of layer masks")
			}
			masks[i] = v.Layer
		}
		return CompletePipelineValue(layermask.Empty, stagelib.NewCycleModes(alloc.Next(), args[0].PipelineB, masks)), nil
	})

	ctx.RegisterFun("left_trigger_bump", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		return CompletePipelineValue(layermask.Empty, stagelib.NewTriggerBump(alloc.Next(), args[0].PipelineB, true)), nil
	})

	ctx.RegisterFun("right_trigger_bump", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		return CompletePipelineValue(layermask.Empty, stagelib.NewTriggerBump(alloc.Next(), args[0].PipelineB, false)), nil
	})

	ctx.RegisterFun("memory_probe", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) != 1 || args[0].Kind != KindString {
			return Value{}, ErrNoOverload
		}
		spec, err := probe.ParseMemorySpec(args[0].Str)
		if err != nil {
			return Value{}, err
		}
		return PipelineBValue(stagelib.NewMemoryProbe(alloc.Next(), spec, args[0].Str)), nil
	})

	ctx.RegisterFun("screen_probe", func(args []Value, opts map[string]Value) (Value, error) {
		if len(args) != 0 {
			return Value{}, ErrNoOverload
		}
		area := probe.ScreenArea{
			X1: float64(numOpt(opts, "x1", 0)), Y1: float64(numOpt(opts, "y1", 0)),
			X2: float64(numOpt(opts, "x2", 1)), Y2: float64(numOpt(opts, "y2", 1)),
		}
		hsv := probe.HSVBounds{
			MinHue: float64(numOpt(opts, "min_hue", 0)), MaxHue: float64(numOpt(opts, "max_hue", 360)),
			MinSat: float64(numOpt(opts, "min_sat", 0)), MaxSat: float64(numOpt(opts, "max_sat", 1)),
			MinVal: float64(numOpt(opts, "min_val", 0)), MaxVal: float64(numOpt(opts, "max_val", 1)),
		}
		if err := probe.ValidateHSV(hsv); err != nil {
			return Value{}, err
		}
		readout := stagelib.NewScreenProbe(alloc.Next(), area, hsv, "")
		pixelsInRange := stagelib.Select0(alloc.Next(), readout)
		uniformity := stagelib.Select1(alloc.Next(), readout)
		t1, t2 := float64(numOpt(opts, "threshold1", 0)), float64(numOpt(opts, "threshold2", 1))
		above := stage.NewBiFnStage(alloc.Next(), "screen_probe_threshold", "", pixelsInRange, uniformity,
			func(_ *stage.Context, a, b float32, _ *[]action.Action) bool {
				return probe.EvaluateScreen(float64(a), float64(b), t1, t2)
			})
		return PipelineBValue(above), nil
	})

	ctx.RegisterFun("hex_grid_menu", func(args []Value, opts map[string]Value) (Value, error) {
		return buildMenu(alloc, args, opts, stagelib.TouchMenuLayout{HexGrid: true, Margin: numOpt(opts, "margin", 0.05)})
	})

	ctx.RegisterFun("radial_menu", func(args []Value, opts map[string]Value) (Value, error) {
		return buildMenu(alloc, args, opts, stagelib.TouchMenuLayout{
			InnerRadius: numOpt(opts, "inner_radius", 0.3),
			OuterRadius: numOpt(opts, "outer_radius", 1),
			Margin:      numOpt(opts, "margin", 0.05),
		})
	})
}

func buildMenu(alloc *stage.Allocator, args []Value, _ map[string]Value, layout stagelib.TouchMenuLayout) (Value, error) {
	if (len(args) != 3 && len(args) != 4) || args[0].Kind != KindPipeline2D || args[1].Kind != KindPipelineB {
		return Value{}, ErrNoOverload
	}
	itemsIdx := len(args) - 1
	if args[itemsIdx].Kind != KindList {
		return Value{}, ErrNoOverload
	}
	items := make([]string, len(args[itemsIdx].List))
	for i, v := range args[itemsIdx].List {
		if v.Kind != KindString {
			return Value{}, errors.New("expected a list of strings")
		}
		items[i] = v.Str
	}

	toggle := args[1].PipelineB
	var selectP stage.Stage[bool] = stagelib.Invert(alloc.Next(), toggle)
	if itemsIdx == 3 {
		if args[2].Kind != KindPipelineB {
			return Value{}, ErrNoOverload
		}
		selectP = args[2].PipelineB
	}

	menu := stagelib.NewTouchMenu(alloc.Next(), args[0].Pipeline2D, toggle, selectP, items, layout)
	out := make([]Value, len(items))
	for i := range items {
		out[i] = PipelineBValue(stagelib.NewMenuItem(alloc.Next(), menu, uint8(i)))
	}
	return ListValue(out), nil
}

func describeValue(v Value) string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%v", v.Number)
	case KindBoolean:
		return fmt.Sprintf("%v", v.Bool)
	case KindString:
		return v.Str
	default:
		return v.Kind.String()
	}
}
