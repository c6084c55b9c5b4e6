package stagelib

import (
	"math"
	"strconv"

	"ctlmapper/internal/action"
	"ctlmapper/internal/stage"
)

func fmtF32(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) }

// Deadzone subtracts level from a value's magnitude, clamping to zero inside
// the dead band, so downstream stages see a continuous 0-based range rather
// than a jump at the threshold.
func Deadzone(id stage.ID, input stage.Stage[float32], level float32) stage.Stage[float32] {
	return stage.NewFnStage[float32, float32](id, "deadzone", fmtF32(level), input,
		func(_ *stage.Context, v float32, _ *[]action.Action) float32 {
			switch {
			case v > level:
				return v - level
			case v < -level:
				return v + level
			default:
				return 0
			}
		})
}

// CartesianDeadzone is the 2-D analogue of Deadzone: it shrinks the radius
// by level and re-projects along the original angle, rather than clamping
// each axis independently (which would square off a circular stick).
func CartesianDeadzone(id stage.ID, input stage.Stage[stage.Vec2], level float32) stage.Stage[stage.Vec2] {
	return stage.NewFnStage[stage.Vec2, stage.Vec2](id, "deadzone", fmtF32(level), input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) stage.Vec2 {
			dist := float32(math.Hypot(float64(v.X), float64(v.Y)))
			eff := dist - level
			if eff <= 0 {
				return stage.Vec2{}
			}
			angle := math.Atan2(float64(v.Y), float64(v.X))
			return stage.Vec2{
				X: eff * float32(math.Cos(angle)),
				Y: eff * float32(math.Sin(angle)),
			}
		})
}

// Cutoff zeroes any value whose magnitude exceeds level, used to discard
// noise spikes above a known-good range.
func Cutoff(id stage.ID, input stage.Stage[float32], level float32) stage.Stage[float32] {
	return stage.NewFnStage[float32, float32](id, "cutoff", fmtF32(level), input,
		func(_ *stage.Context, v float32, _ *[]action.Action) float32 {
			if v < -level || v > level {
				return 0
			}
			return v
		})
}

// Scale multiplies a value by a compile-time constant factor.
func Scale(id stage.ID, input stage.Stage[float32], factor float32) stage.Stage[float32] {
	return stage.NewFnStage[float32, float32](id, "scale", fmtF32(factor), input,
		func(_ *stage.Context, v float32, _ *[]action.Action) float32 { return v * factor })
}

// ScaleByAxis multiplies two pipeline-driven values, used when the factor
// is itself another axis (e.g. a trigger modulating stick sensitivity).
func ScaleByAxis(id stage.ID, v1, v2 stage.Stage[float32]) stage.Stage[float32] {
	return stage.NewBiFnStage[float32, float32, float32](id, "scale", "", v1, v2,
		func(_ *stage.Context, a, b float32, _ *[]action.Action) float32 { return a * b })
}

// Offset adds a compile-time constant to a value.
func Offset(id stage.ID, input stage.Stage[float32], addend float32) stage.Stage[float32] {
	return stage.NewFnStage[float32, float32](id, "offset", fmtF32(addend), input,
		func(_ *stage.Context, v float32, _ *[]action.Action) float32 { return v + addend })
}

// OffsetByAxis adds two pipeline-driven values.
func OffsetByAxis(id stage.ID, v1, v2 stage.Stage[float32]) stage.Stage[float32] {
	return stage.NewBiFnStage[float32, float32, float32](id, "offset", "", v1, v2,
		func(_ *stage.Context, a, b float32, _ *[]action.Action) float32 { return a + b })
}

// Cartesian converts a (distance, angle) pair into (x, y).
func Cartesian(id stage.ID, input stage.Stage[stage.Vec2]) stage.Stage[stage.Vec2] {
	return stage.NewFnStage[stage.Vec2, stage.Vec2](id, "cartesian", "", input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) stage.Vec2 {
			distance, angle := v.X, v.Y
			return stage.Vec2{X: distance * float32(math.Cos(float64(angle))), Y: distance * float32(math.Sin(float64(angle)))}
		})
}

// Polar converts an (x, y) pair into (distance, angle) in radians.
func Polar(id stage.ID, input stage.Stage[stage.Vec2]) stage.Stage[stage.Vec2] {
	return stage.NewFnStage[stage.Vec2, stage.Vec2](id, "polar", "", input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) stage.Vec2 {
			distance := float32(math.Hypot(float64(v.X), float64(v.Y)))
			angle := float32(math.Atan2(float64(v.Y), float64(v.X)))
			return stage.Vec2{X: distance, Y: angle}
		})
}

// DistanceFromCenter yields a (x, y) pair's Euclidean magnitude.
func DistanceFromCenter(id stage.ID, input stage.Stage[stage.Vec2]) stage.Stage[float32] {
	return stage.NewFnStage[stage.Vec2, float32](id, "distance_from_center", "", input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) float32 {
			return float32(math.Hypot(float64(v.X), float64(v.Y)))
		})
}

// Select0 extracts a (x, y) pair's first component.
func Select0(id stage.ID, input stage.Stage[stage.Vec2]) stage.Stage[float32] {
	return stage.NewFnStage[stage.Vec2, float32](id, "select0", "", input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) float32 { return v.X })
}

// Select1 extracts a (x, y) pair's second component.
func Select1(id stage.ID, input stage.Stage[stage.Vec2]) stage.Stage[float32] {
	return stage.NewFnStage[stage.Vec2, float32](id, "select1", "", input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) float32 { return v.Y })
}

// Merge pairs two independently-driven float stages into one Vec2 stage,
// most commonly two axis_input stages feeding a stick's x/y channels.
func Merge(id stage.ID, x, y stage.Stage[float32]) stage.Stage[stage.Vec2] {
	return stage.NewBiFnStage[float32, float32, stage.Vec2](id, "merge", "", x, y,
		func(_ *stage.Context, vx, vy float32, _ *[]action.Action) stage.Vec2 { return stage.Vec2{X: vx, Y: vy} })
}

// Rotate rotates a (x, y) pair by a compile-time constant angle in radians.
func Rotate(id stage.ID, input stage.Stage[stage.Vec2], angle float32) stage.Stage[stage.Vec2] {
	cs, sn := float32(math.Cos(float64(angle))), float32(math.Sin(float64(angle)))
	return stage.NewFnStage[stage.Vec2, stage.Vec2](id, "rotate", fmtF32(angle), input,
		func(_ *stage.Context, v stage.Vec2, _ *[]action.Action) stage.Vec2 {
			return stage.Vec2{X: v.X*cs - v.Y*sn, Y: v.X*sn + v.Y*cs}
		})
}

// RotateByAxis rotates a (x, y) pair by a pipeline-driven angle.
func RotateByAxis(id stage.ID, input stage.Stage[stage.Vec2], angle stage.Stage[float32]) stage.Stage[stage.Vec2] {
	return stage.NewBiFnStage[stage.Vec2, float32, stage.Vec2](id, "rotate", "", input, angle,
		func(_ *stage.Context, v stage.Vec2, a float32, _ *[]action.Action) stage.Vec2 {
			cs, sn := float32(math.Cos(float64(a))), float32(math.Sin(float64(a)))
			return stage.Vec2{X: v.X*cs - v.Y*sn, Y: v.X*sn + v.Y*cs}
		})
}

// Invert flips a boolean input.
func Invert(id stage.ID, input stage.Stage[bool]) stage.Stage[bool] {
	return stage.NewFnStage[bool, bool](id, "invert", "", input,
		func(_ *stage.Context, v bool, _ *[]action.Action) bool { return !v })
}

// GateAxis passes a float value through only while its button input is
// held, else zero.
func GateAxis(id stage.ID, value stage.Stage[float32], gate stage.Stage[bool]) stage.Stage[float32] {
	return stage.NewBiFnStage[float32, bool, float32](id, "gate", "", value, gate,
		func(_ *stage.Context, v float32, open bool, _ *[]action.Action) float32 {
			if open {
				return v
			}
			return 0
		})
}

// GateButton passes a boolean value through only while its gate input is
// held, else false.
func GateButton(id stage.ID, value stage.Stage[bool], gate stage.Stage[bool]) stage.Stage[bool] {
	return stage.NewBiFnStage[bool, bool, bool](id, "gate", "", value, gate,
		func(_ *stage.Context, v bool, open bool, _ *[]action.Action) bool {
			return open && v
		})
}
