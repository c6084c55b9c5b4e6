package probe

import (
	"fmt"
	"strings"
)

type phase int

const (
	phasePointerSize phase = iota
	phaseEntryPointer
	phaseOffsets
	phaseRelation
	phaseVarType
	phaseValue
	phaseEnd
)

// ParseMemorySpec parses the memory_probe micro-DSL:
//
//	ptrSize;base;(+off|-off)...;rel;type;v1,v2,...
//
// rel in {eq,ne,gt,lt,ge,le} (or their symbolic spellings), type in
// {i8,u8,i16,u16,i32,u32,i64,u64}.
func ParseMemorySpec(spec string) (MemorySpec, error) {
	var out MemorySpec
	ph := phasePointerSize

	parts := strings.Split(spec, ";")
	for i, str := range parts {
		switch ph {
		case phasePointerSize:
			switch str {
			case "32":
				out.PtrSize = 32
			case "64":
				out.PtrSize = 64
			default:
				return MemorySpec{}, fmt.Errorf("expected either 32 or 64 at pos %d, got %s", i+1, str)
			}
			ph = phaseEntryPointer

		case phaseEntryPointer:
			n, err := parseNumber(str, i+1)
			if err != nil {
				return MemorySpec{}, err
			}
			out.Base = n
			ph = phaseOffsets

		case phaseOffsets:
			if len(str) == 0 {
				return MemorySpec{}, fmt.Errorf("expected +|- at pos %d, got empty string", i+1)
			}
			sign, rest := str[0], str[1:]
			n, err := parseNumber(rest, i+1)
			if err != nil {
				return MemorySpec{}, err
			}
			switch sign {
			case '+':
				out.Offsets = append(out.Offsets, int64(n))
			case '-':
				out.Offsets = append(out.Offsets, -int64(n))
			default:
				return MemorySpec{}, fmt.Errorf("expected +|- at pos %d, got %c", i+1, sign)
			}

			if i+1 == len(parts) {
				return MemorySpec{}, fmt.Errorf("unexpected end of input at pos %d", i+2)
			}
			next := parts[i+1]
			if !(strings.HasPrefix(next, "+") || strings.HasPrefix(next, "-")) {
				ph = phaseRelation
			}

		case phaseRelation:
			switch str {
			case "eq", "==":
				out.Rel = RelEq
			case "ne", "!=":
				out.Rel = RelNe
			case "gt", ">":
				out.Rel = RelGt
			case "lt", "<":
				out.Rel = RelLt
			case "ge", ">=":
				out.Rel = RelGe
			case "le", "<=":
				out.Rel = RelLe
			default:
				return MemorySpec{}, fmt.Errorf("expected eq|ne|gt|lt|ge|le at pos %d, got %s", i+1, str)
			}
			ph = phaseVarType

		case phaseVarType:
			switch str {
			case "i8":
				out.Type = I8
			case "u8":
				out.Type = U8
			case "i16":
				out.Type = I16
			case "u16":
				out.Type = U16
			case "i32":
				out.Type = I32
			case "u32":
				out.Type = U32
			case "i64":
				out.Type = I64
			case "u64":
				out.Type = U64
			default:
				return MemorySpec{}, fmt.Errorf("expected i8|u8|i16|u16|i32|u32|i64|u64 at pos %d, got %s", i+1, str)
			}
			ph = phaseValue

		case phaseValue:
			for _, s := range strings.Split(str, ",") {
				n, err := parseNumber(s, i+1)
				if err != nil {
					return MemorySpec{}, err
				}
				out.Values = append(out.Values, n)
			}
			ph = phaseEnd

		case phaseEnd:
			return MemorySpec{}, fmt.Errorf("unexpected input at pos %d: %s", i+1, str)
		}
	}

	if ph != phaseEnd {
		return MemorySpec{}, fmt.Errorf("unexpected end of input")
	}
	return out, nil
}

// Evaluate applies the parsed comparison to a raw integer word read at the
// resolved pointer chain's final address. Unsigned relations other than
// eq/ne require exactly one value.
func (m MemorySpec) Evaluate(raw uint64) (bool, error) {
	switch m.Type {
	case I8, I16, I32, I64:
		return compareSigned(m.Rel, signExtend(raw, m.Type), m.Values)
	default:
		return compareUnsigned(m.Rel, maskUnsigned(raw, m.Type), m.Values)
	}
}

func signExtend(raw uint64, t VarType) int64 {
	switch t {
	case I8:
		return int64(int8(raw))
	case I16:
		return int64(int16(raw))
	case I32:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

func maskUnsigned(raw uint64, t VarType) uint64 {
	switch t {
	case U8:
		return raw & 0xff
	case U16:
		return raw & 0xffff
	case U32:
		return raw & 0xffffffff
	default:
		return raw
	}
}

func compareUnsigned(rel Relation, v uint64, values []uint64) (bool, error) {
	contains := func() bool {
		for _, x := range values {
			if x == v {
				return true
			}
		}
		return false
	}
	switch rel {
	case RelEq:
		return contains(), nil
	case RelNe:
		return !contains(), nil
	case RelGt:
		if len(values) != 1 {
			return false, fmt.Errorf("gt requires exactly one value")
		}
		return v > values[0], nil
	case RelLt:
		if len(values) != 1 {
			return false, fmt.Errorf("lt requires exactly one value")
		}
		return v < values[0], nil
	case RelGe:
		if len(values) != 1 {
			return false, fmt.Errorf("ge requires exactly one value")
		}
		return v >= values[0], nil
	case RelLe:
		if len(values) != 1 {
			return false, fmt.Errorf("le requires exactly one value")
		}
		return v <= values[0], nil
	}
	return false, fmt.Errorf("unknown relation %v", rel)
}

func compareSigned(rel Relation, v int64, values []uint64) (bool, error) {
	contains := func() bool {
		for _, x := range values {
			if int64(x) == v {
				return true
			}
		}
		return false
	}
	switch rel {
	case RelEq:
		return contains(), nil
	case RelNe:
		return !contains(), nil
	case RelGt:
		if len(values) != 1 {
			return false, fmt.Errorf("gt requires exactly one value")
		}
		return v > int64(values[0]), nil
	case RelLt:
		if len(values) != 1 {
			return false, fmt.Errorf("lt requires exactly one value")
		}
		return v < int64(values[0]), nil
	case RelGe:
		if len(values) != 1 {
			return false, fmt.Errorf("ge requires exactly one value")
		}
		return v >= int64(values[0]), nil
	case RelLe:
		if len(values) != 1 {
			return false, fmt.Errorf("le requires exactly one value")
		}
		return v <= int64(values[0]), nil
	}
	return false, fmt.Errorf("unknown relation %v", rel)
}
