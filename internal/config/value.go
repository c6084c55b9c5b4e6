package config

import (
	"ctlmapper/internal/action"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/snapshot"
	"ctlmapper/internal/stage"
)

// ValueKind discriminates the evaluator's small dynamically-typed value
// domain (§4.4).
type ValueKind int

const (
	KindList ValueKind = iota
	KindStruct
	KindConstant
	KindPipeline1D
	KindPipeline2D
	KindPipelineB
	KindCompletePipeline
	KindLayerMask
	KindNumber
	KindBoolean
	KindString
	KindNothing
)

func (k ValueKind) String() string {
	switch k {
	case KindList:
		return "List"
	case KindStruct:
		return "Struct"
	case KindConstant:
		return "Constant"
	case KindPipeline1D:
		return "Pipeline1D"
	case KindPipeline2D:
		return "Pipeline2D"
	case KindPipelineB:
		return "PipelineB"
	case KindCompletePipeline:
		return "CompletePipeline"
	case KindLayerMask:
		return "LayerMask"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	default:
		return "Nothing"
	}
}

// ConstantKind discriminates the handful of named, un-evaluated tokens the
// builtin variable table seeds the root scope with (controller inputs,
// mouse channels, keyboard keys).
type ConstantKind int

const (
	ConstInputAxis ConstantKind = iota
	ConstInputButton
	ConstMouseAxis
	ConstMouseButton
	ConstKeyboardKey
)

// Constant is one named input/output token, e.g. the `A` button or the
// `Kb.Enter` keyboard key.
type Constant struct {
	Kind         ConstantKind
	InputAxis    snapshot.Axis
	InputButton  snapshot.Button
	MouseAxis    action.MouseAxis
	MouseButton  action.MouseButton
	KeyboardKey  action.Key
}

// Value is the evaluator's dynamically-typed runtime value.
type Value struct {
	Kind ValueKind

	List   []Value
	Struct map[string]Value
	Const  Constant

	Pipeline1D stage.Stage[float32]
	Pipeline2D stage.Stage[stage.Vec2]
	PipelineB  stage.Stage[bool]

	CompleteMask layermask.Mask
	Complete     stage.Stage[stage.Unit]

	Layer  layermask.Mask
	Number float32
	Bool   bool
	Str    string
}

func ListValue(vs []Value) Value          { return Value{Kind: KindList, List: vs} }
func StructValue(m map[string]Value) Value { return Value{Kind: KindStruct, Struct: m} }
func ConstValue(c Constant) Value          { return Value{Kind: KindConstant, Const: c} }
func Pipeline1DValue(p stage.Stage[float32]) Value      { return Value{Kind: KindPipeline1D, Pipeline1D: p} }
func Pipeline2DValue(p stage.Stage[stage.Vec2]) Value   { return Value{Kind: KindPipeline2D, Pipeline2D: p} }
func PipelineBValue(p stage.Stage[bool]) Value          { return Value{Kind: KindPipelineB, PipelineB: p} }
func CompletePipelineValue(mask layermask.Mask, p stage.Stage[stage.Unit]) Value {
	return Value{Kind: KindCompletePipeline, CompleteMask: mask, Complete: p}
}
func LayerMaskValue(m layermask.Mask) Value { return Value{Kind: KindLayerMask, Layer: m} }
func NumberValue(n float32) Value           { return Value{Kind: KindNumber, Number: n} }
func BoolValue(b bool) Value                { return Value{Kind: KindBoolean, Bool: b} }
func StringValue(s string) Value            { return Value{Kind: KindString, Str: s} }
func NothingValue() Value                   { return Value{Kind: KindNothing} }

// Equal implements the value domain's narrow structural equality: numbers,
// strings, booleans, layer masks, constants compare by value; pipelines and
// complete pipelines never compare equal (matching the original's explicit
// "compare pipelines by identity?" TODO, resolved here as "never").
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number == other.Number
	case KindBoolean:
		return v.Bool == other.Bool
	case KindString:
		return v.Str == other.Str
	case KindLayerMask:
		return v.Layer.Equals(other.Layer)
	case KindNothing:
		return true
	case KindConstant:
		return v.Const == other.Const
	default:
		return false
	}
}

// KnobKind discriminates the three persisted, user-tunable knob shapes a
// config script can register via the `knob` builtin.
type KnobKind int

const (
	KnobFlag KnobKind = iota
	KnobEnum
	KnobNumber
)

// Knob is a runtime-tunable parameter registered by a config script,
// persisted in the knobs file and exposed through the overlay menu.
type Knob struct {
	Kind     KnobKind
	Name     string
	Flag     bool
	EnumOpts []string
	EnumIdx  int
	Number   float32
	MinValue float32
	MaxValue float32
}
