// Package probe defines the external-measurement descriptors (screen HSV
// region, remote-process memory check, overlay flag) and the tagged value
// union the host supplies back for them.
package probe

import "fmt"

// Kind discriminates the three probe descriptor shapes.
type Kind int

const (
	KindScreen Kind = iota
	KindMemory
	KindOverlay
)

// HSVBounds bounds a screen_probe's color classification.
type HSVBounds struct {
	MinHue, MaxHue float64
	MinSat, MaxSat float64
	MinVal, MaxVal float64
}

// ScreenArea is the normalized rectangle a screen probe samples.
type ScreenArea struct {
	X1, Y1, X2, Y2 float64
}

// Relation is a memory_probe comparison operator.
type Relation int

const (
	RelEq Relation = iota
	RelNe
	RelGt
	RelLt
	RelGe
	RelLe
)

// VarType is the integer width/signedness memory_probe reads at the final
// pointer.
type VarType int

const (
	I8 VarType = iota
	U8
	I16
	U16
	I32
	U32
	I64
	U64
)

// MemorySpec is a parsed memory_probe micro-DSL descriptor:
// ptrSize;base;(+-)off;...;rel;type;csv-values
type MemorySpec struct {
	PtrSize int // 32 or 64
	Base    uint64
	Offsets []int64
	Rel     Relation
	Type    VarType
	Values  []uint64
}

// Descriptor is a probe registration: exactly one of Screen/Memory is set
// per Kind, and the host returns a ProbeValue matching that Kind.
type Descriptor struct {
	Kind    Kind
	Area    ScreenArea // KindScreen
	HSV     HSVBounds  // KindScreen
	Memory  MemorySpec // KindMemory
	Overlay string     // KindOverlay: overlay-side flag name
}

// Value is the tagged union of values the host delivers for a probe,
// matching the kind the probe was declared with.
type Value struct {
	kind Kind
	u64  uint64
	f64  float64
	xy   [2]float32
	b    bool
}

func NewU64Value(kind Kind, v uint64) Value   { return Value{kind: kind, u64: v} }
func NewF64Value(kind Kind, v float64) Value  { return Value{kind: kind, f64: v} }
func NewXYValue(kind Kind, x, y float32) Value { return Value{kind: kind, xy: [2]float32{x, y}} }
func NewBoolValue(kind Kind, v bool) Value    { return Value{kind: kind, b: v} }

func (v Value) Kind() Kind         { return v.kind }
func (v Value) U64() uint64        { return v.u64 }
func (v Value) F64() float64       { return v.f64 }
func (v Value) XY() (float32, float32) { return v.xy[0], v.xy[1] }
func (v Value) Bool() bool         { return v.b }

func parseNumber(s string, pos int) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		var n uint64
		_, err := fmt.Sscanf(s[2:], "%x", &n)
		if err != nil {
			return 0, fmt.Errorf("unexpected input at pos %d: %w", pos, err)
		}
		return n, nil
	}
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, fmt.Errorf("unexpected input at pos %d: %w", pos, err)
	}
	return n, nil
}
