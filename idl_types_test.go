package idlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTypeParser(src string, cfg *Config) *IdlTypeParser {
	if cfg == nil {
		cfg = NewConfig()
	}
	return NewIdlTypeParser([]rune(src), "<test>", cfg, NewTypeRegistry(cfg))
}

func TestIdlTypeParser_PrimitiveType_LongFormsPreferLongerMatch(t *testing.T) {
	tests := []struct {
		src  string
		kind DynKind
	}{
		{"unsigned long long", DynKindUInt64},
		{"unsigned long", DynKindUInt32},
		{"unsigned short", DynKindUInt16},
		{"long long", DynKindInt64},
		{"long double", DynKindFloat128},
		{"long", DynKindInt32},
		{"short", DynKindInt16},
		{"boolean", DynKindBool},
		{"octet", DynKindByte},
		{"int8", DynKindInt8},
		{"uint64", DynKindUInt64},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := newTypeParser(tt.src, nil)
			td, err := p.PrimitiveType()
			assert.NoError(t, err)
			assert.Equal(t, CategoryPrimitive, td.Category)
			assert.Equal(t, tt.kind, td.PrimitiveKind)
		})
	}
}

func TestIdlTypeParser_PrimitiveType_CharHonorsTranslation(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("char_translation", int(CharTranslationUint8))
	p := newTypeParser("char", cfg)
	td, err := p.PrimitiveType()
	assert.NoError(t, err)
	assert.Equal(t, DynKindUInt8, td.PrimitiveKind)
}

func TestIdlTypeParser_PrimitiveType_WcharHonorsWideCharType(t *testing.T) {
	p := newTypeParser("wchar", nil)
	td, err := p.PrimitiveType()
	assert.NoError(t, err)
	assert.Equal(t, DynKindWCharT, td.PrimitiveKind)

	cfg := NewConfig()
	cfg.SetInt("wchar_type", int(WideCharTypeChar16T))
	p2 := newTypeParser("wchar", cfg)
	td2, err := p2.PrimitiveType()
	assert.NoError(t, err)
	assert.Equal(t, DynKindChar16, td2.PrimitiveKind)
}

func TestIdlTypeParser_PrimitiveType_Unmatched(t *testing.T) {
	p := newTypeParser("struct", nil)
	_, err := p.PrimitiveType()
	assert.Error(t, err)
	assert.True(t, isBacktracking(err))
}

func constExprOf(p *IdlTypeParser, v uint64) func() (DynData, error) {
	return func() (DynData, error) {
		// Consume the literal in the source, as ConstExprWrapper would.
		if _, err := p.IntLiteral(); err != nil {
			return DynData{}, err
		}
		return NewUInt64Data(v, Span{}), nil
	}
}

func TestIdlTypeParser_TemplateType_BoundedString(t *testing.T) {
	p := newTypeParser("string<10>", nil)
	td, err := p.TemplateType(constExprOf(p, 10))
	assert.NoError(t, err)
	assert.Equal(t, CategoryString, td.Category)
	assert.Equal(t, 10, td.Bound)
}

func TestIdlTypeParser_TemplateType_UnboundedString(t *testing.T) {
	p := newTypeParser("string", nil)
	td, err := p.TemplateType(constExprOf(p, 0))
	assert.NoError(t, err)
	assert.Equal(t, 0, td.Bound)
}

func TestIdlTypeParser_TemplateType_Sequence(t *testing.T) {
	p := newTypeParser("sequence<long,5>", nil)
	td, err := p.TemplateType(constExprOf(p, 5))
	assert.NoError(t, err)
	assert.Equal(t, CategorySequence, td.Category)
	assert.Equal(t, 5, td.Bound)
}

func TestIdlTypeParser_TemplateType_Map(t *testing.T) {
	p := newTypeParser("map<long,short>", nil)
	td, err := p.TemplateType(constExprOf(p, 0))
	assert.NoError(t, err)
	assert.Equal(t, CategoryMap, td.Category)
}

func TestIdlTypeParser_TemplateType_Fixed(t *testing.T) {
	p := newTypeParser("fixed<5,2>", nil)
	td, err := p.TemplateType(constExprOf(p, 0))
	assert.NoError(t, err)
	assert.Equal(t, CategoryFixed, td.Category)
}

func TestIdlTypeParser_FullType_PrimitiveFallback(t *testing.T) {
	p := newTypeParser("long", nil)
	td, err := p.FullType(constExprOf(p, 0))
	assert.NoError(t, err)
	assert.Equal(t, DynKindInt32, td.PrimitiveKind)
}

func TestIdlTypeParser_FullType_RejectsUnknownName(t *testing.T) {
	p := newTypeParser("Foo", nil)
	_, err := p.FullType(constExprOf(p, 0))
	assert.Error(t, err)
	assert.True(t, isBacktracking(err))
}
