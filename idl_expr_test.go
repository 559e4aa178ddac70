package idlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newExprParser(src string, consts map[string]DynData) *IdlExprParser {
	cfg := NewConfig()
	resolve := func(name string) (DynData, bool) {
		v, ok := consts[name]
		return v, ok
	}
	return NewIdlExprParser([]rune(src), "<test>", cfg, NewTypeRegistry(cfg), resolve)
}

func TestConstExpr_Precedence(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want uint64
	}{
		{"mul before add", "2 + 3 * 4", 14},
		{"parens override", "(2 + 3) * 4", 20},
		{"shift before and", "1 << 2 & 4", 4},
		{"or lowest", "1 | 2 & 3", 3},
		{"sub left assoc", "10 - 3 - 2", 5},
		{"div left assoc", "100 / 10 / 2", 5},
		{"modulo", "10 % 3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newExprParser(tt.src, nil)
			v, err := p.ConstExpr()
			assert.NoError(t, err)
			assert.Equal(t, DynKindUInt64, v.Kind)
			assert.Equal(t, tt.want, v.U64)
		})
	}
}

func TestConstExpr_UnaryOperators(t *testing.T) {
	p := newExprParser("-5", nil)
	v, err := p.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, int64(-5), v.AsInt64())

	p2 := newExprParser("~0", nil)
	v2, err := p2.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, ^uint64(0), v2.U64)

	p3 := newExprParser("+7", nil)
	v3, err := p3.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), v3.U64)
}

func TestConstExpr_FloatArithmetic(t *testing.T) {
	p := newExprParser("1.5 + 2.5", nil)
	v, err := p.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, DynKindFloat128, v.Kind)
	got, _ := v.F.Float64()
	assert.InDelta(t, 4.0, got, 0.0001)
}

func TestConstExpr_MixedPromotionToFloat(t *testing.T) {
	p := newExprParser("2 + 1.5", nil)
	v, err := p.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, DynKindFloat128, v.Kind)
	got, _ := v.F.Float64()
	assert.InDelta(t, 3.5, got, 0.0001)
}

func TestConstExpr_DivisionByZero(t *testing.T) {
	p := newExprParser("1 / 0", nil)
	_, err := p.ConstExpr()
	assert.Error(t, err)
	var rangeErr *EvalRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestConstExpr_ModOnFloat_IsTypeError(t *testing.T) {
	p := newExprParser("1.5 % 2", nil)
	_, err := p.ConstExpr()
	assert.Error(t, err)
	var typeErr *EvalTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestConstExpr_BitwiseOnBool(t *testing.T) {
	p := newExprParser("TRUE & FALSE", nil)
	v, err := p.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, DynKindBool, v.Kind)
	assert.False(t, v.B)
}

func TestConstExpr_ShiftRejectsFloat(t *testing.T) {
	p := newExprParser("1.0 << 2", nil)
	_, err := p.ConstExpr()
	assert.Error(t, err)
}

func TestConstExpr_ResolvesNamedConstant(t *testing.T) {
	consts := map[string]DynData{"MAX": NewUInt64Data(100, Span{})}
	p := newExprParser("MAX + 1", consts)
	v, err := p.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, uint64(101), v.U64)
}

func TestConstExpr_UnresolvedNameErrors(t *testing.T) {
	p := newExprParser("UNKNOWN", nil)
	_, err := p.ConstExpr()
	assert.Error(t, err)
	var resolveErr *ResolveError
	assert.ErrorAs(t, err, &resolveErr)
}

func TestConstExpr_StringLiteral(t *testing.T) {
	p := newExprParser(`"hello"`, nil)
	v, err := p.ConstExpr()
	assert.NoError(t, err)
	assert.Equal(t, DynKindString, v.Kind)
	assert.Equal(t, "hello", v.Str)
}

func TestPromote(t *testing.T) {
	k, err := promote(DynKindBool, DynKindUInt64)
	assert.NoError(t, err)
	assert.Equal(t, DynKindUInt64, k)

	k2, err := promote(DynKindUInt64, DynKindFloat128)
	assert.NoError(t, err)
	assert.Equal(t, DynKindFloat128, k2)

	_, err = promote(DynKindString, DynKindUInt64)
	assert.Error(t, err)
}
