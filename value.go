package idlc

import (
	"fmt"
	"math"
	"math/big"
)

// DynKind tags a DynData with either one of the three evaluation-time
// promotion kinds (Bool, UInt64, Float128 — spec §4.3) or one of the
// concrete kinds a final declared constant, member, or type can carry
// (spec §3 "Constant value (DynData)").
type DynKind int

const (
	DynKindUndefined DynKind = iota

	// Promotion kinds, used on the C3 operand stack mid-evaluation.
	DynKindBool
	DynKindUInt64
	DynKindFloat128

	// Concrete kinds, used once a value is deposited into a module's
	// constant map or carried by a TypeDescriptor.
	DynKindInt8
	DynKindInt16
	DynKindInt32
	DynKindInt64
	DynKindUInt8
	DynKindUInt16
	DynKindUInt32
	DynKindFloat32
	DynKindFloat64
	DynKindChar8
	DynKindChar16
	DynKindWCharT
	DynKindByte
	DynKindString
	DynKindWString
	DynKindFixed
	DynKindEnum
)

var dynKindNames = map[DynKind]string{
	DynKindUndefined: "undefined",
	DynKindBool:      "bool",
	DynKindUInt64:    "uint64",
	DynKindFloat128:  "float128",
	DynKindInt8:      "int8",
	DynKindInt16:     "int16",
	DynKindInt32:     "int32",
	DynKindInt64:     "int64",
	DynKindUInt8:     "uint8",
	DynKindUInt16:    "uint16",
	DynKindUInt32:    "uint32",
	DynKindFloat32:   "float32",
	DynKindFloat64:   "float64",
	DynKindChar8:     "char8",
	DynKindChar16:    "char16",
	DynKindWCharT:    "wchar_t",
	DynKindByte:      "byte",
	DynKindString:    "string",
	DynKindWString:   "wstring",
	DynKindFixed:     "fixed",
	DynKindEnum:      "enum",
}

func (k DynKind) String() string {
	if s, ok := dynKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DynKind(%d)", int(k))
}

// promotionPriority implements the promotion order from spec §4.3:
// bool=0 < uint64=1 < float128=2. Non-promotion kinds return -1.
func promotionPriority(k DynKind) int {
	switch k {
	case DynKindBool:
		return 0
	case DynKindUInt64:
		return 1
	case DynKindFloat128:
		return 2
	default:
		return -1
	}
}

// DynData is the tagged value the expression evaluator and the final
// constant map carry: a value plus a DynKind.
type DynData struct {
	Kind DynKind

	B   bool
	U64 uint64     // two's-complement bit pattern for all integer kinds
	F   *big.Float // used by Float128/Float32/Float64/Fixed

	Str string // String/WString payload, and the original literal text for Fixed

	FixedDigits int // total digits, for DynKindFixed
	FixedScale  int // scale, for DynKindFixed

	Span Span
}

func NewBoolData(v bool, span Span) DynData {
	return DynData{Kind: DynKindBool, B: v, Span: span}
}

func NewUInt64Data(v uint64, span Span) DynData {
	return DynData{Kind: DynKindUInt64, U64: v, Span: span}
}

func NewFloat128Data(v *big.Float, span Span) DynData {
	return DynData{Kind: DynKindFloat128, F: v, Span: span}
}

func NewStringData(kind DynKind, s string, span Span) DynData {
	return DynData{Kind: kind, Str: s, Span: span}
}

func NewFixedData(text string, digits, scale int, span Span) DynData {
	f, _, _ := big.ParseFloat(text, 10, 200, big.ToNearestEven)
	return DynData{Kind: DynKindFixed, Str: text, F: f, FixedDigits: digits, FixedScale: scale, Span: span}
}

// AsInt64 reinterprets the stored two's-complement bit pattern as a
// signed 64-bit integer.
func (d DynData) AsInt64() int64 { return int64(d.U64) }

// negateUInt64 performs a two's-complement negate, as used by the
// unary `-` operator against a uint64-kinded operand (spec §4.3).
func negateUInt64(v uint64) uint64 { return ^v + 1 }

// ConvertTo range-checks and converts a reduced DynData to the concrete
// kind `to`, per spec §3's invariant that "numeric conversion with
// range/precision loss is an error."
func (d DynData) ConvertTo(to DynKind) (DynData, error) {
	switch to {
	case DynKindBool:
		if d.Kind != DynKindBool {
			return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "expected a boolean value"}
		}
		return DynData{Kind: DynKindBool, B: d.B, Span: d.Span}, nil

	case DynKindInt8, DynKindInt16, DynKindInt32, DynKindInt64,
		DynKindUInt8, DynKindUInt16, DynKindUInt32:
		return d.convertToInt(to)

	case DynKindChar8, DynKindChar16, DynKindWCharT, DynKindByte:
		return d.convertToInt(to)

	case DynKindFloat32, DynKindFloat64, DynKindFloat128:
		return d.convertToFloat(to)

	case DynKindString, DynKindWString:
		if d.Kind != DynKindString && d.Kind != DynKindWString {
			return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "expected a string value"}
		}
		return DynData{Kind: to, Str: d.Str, Span: d.Span}, nil

	case DynKindFixed:
		if d.Kind != DynKindFixed && d.Kind != DynKindFloat128 {
			return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "expected a fixed-point or float value"}
		}
		return DynData{Kind: DynKindFixed, Str: d.Str, F: d.F, FixedDigits: d.FixedDigits, FixedScale: d.FixedScale, Span: d.Span}, nil

	default:
		return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "unsupported target kind"}
	}
}

var intBounds = map[DynKind][2]int64{
	DynKindInt8:   {-(1 << 7), 1<<7 - 1},
	DynKindInt16:  {-(1 << 15), 1<<15 - 1},
	DynKindInt32:  {-(1 << 31), 1<<31 - 1},
	DynKindInt64:  {math.MinInt64, math.MaxInt64},
	DynKindUInt8:  {0, 1<<8 - 1},
	DynKindUInt16: {0, 1<<16 - 1},
	DynKindUInt32: {0, 1<<32 - 1},
	DynKindChar8:  {0, 1<<8 - 1},
	DynKindChar16: {0, 1<<16 - 1},
	DynKindWCharT: {0, 1<<16 - 1},
	DynKindByte:   {0, 1<<8 - 1},
}

// charLiteralKinds are the concrete kinds CharLiteral itself can yield
// (spec §4.2.2 char/wchar literals), before any declared type narrows
// them further. Their bit pattern lives in U64 same as DynKindUInt64,
// so they're accepted here alongside it.
func isCharLiteralKind(k DynKind) bool {
	switch k {
	case DynKindChar8, DynKindChar16, DynKindWCharT, DynKindByte:
		return true
	default:
		return false
	}
}

func (d DynData) convertToInt(to DynKind) (DynData, error) {
	if d.Kind != DynKindUInt64 && !isCharLiteralKind(d.Kind) {
		return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "expected an integer value"}
	}
	bounds := intBounds[to]
	signed := bounds[0] < 0
	var sv int64
	if signed {
		sv = d.AsInt64()
	} else {
		// unsigned target: reject values that came from a negation
		// (top bit set beyond the target width is already caught by
		// the range check below using the raw bit pattern).
		sv = int64(d.U64)
	}
	if sv < bounds[0] || sv > bounds[1] {
		if !signed && d.U64 > uint64(bounds[1]) {
			return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "value out of range"}
		}
		if signed {
			return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "value out of range"}
		}
	}
	return DynData{Kind: to, U64: uint64(sv) & maskFor(to), Span: d.Span}, nil
}

func maskFor(k DynKind) uint64 {
	switch k {
	case DynKindInt8, DynKindUInt8, DynKindChar8, DynKindByte:
		return 0xFF
	case DynKindInt16, DynKindUInt16, DynKindChar16, DynKindWCharT:
		return 0xFFFF
	case DynKindInt32, DynKindUInt32:
		return 0xFFFFFFFF
	default:
		return math.MaxUint64
	}
}

func (d DynData) convertToFloat(to DynKind) (DynData, error) {
	if d.Kind != DynKindFloat128 && d.Kind != DynKindUInt64 {
		return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "expected a numeric value"}
	}
	f := d.F
	if d.Kind == DynKindUInt64 {
		f = new(big.Float).SetUint64(d.U64)
	}
	if to == DynKindFloat32 {
		f32, _ := f.Float32()
		if math.IsInf(float64(f32), 0) {
			return DynData{}, &EvalRangeError{Value: d.describe(), ToKind: to, Span: d.Span, Message: "value out of range for float32"}
		}
	}
	return DynData{Kind: to, F: f, Span: d.Span}, nil
}

func (d DynData) describe() string {
	switch d.Kind {
	case DynKindBool:
		return fmt.Sprintf("%v", d.B)
	case DynKindUInt64:
		return fmt.Sprintf("%d", d.U64)
	case DynKindFloat128, DynKindFloat32, DynKindFloat64, DynKindFixed:
		if d.F != nil {
			return d.F.Text('g', 10)
		}
		return d.Str
	case DynKindString, DynKindWString:
		return fmt.Sprintf("%q", d.Str)
	default:
		return fmt.Sprintf("%d", d.U64)
	}
}
