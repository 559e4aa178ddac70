package idlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newDeclParser(src string) *IdlDeclParser {
	cfg := NewConfig()
	return NewIdlDeclParser([]rune(src), "<test>", cfg, NewTypeRegistry(cfg))
}

func TestAnnotationApplications_PositionalShorthand(t *testing.T) {
	p := newDeclParser("@id(3) rest")
	err := p.AnnotationApplications(AnnotationTargetMember)
	assert.NoError(t, err)

	p.pending.BindMemberName("k")
	err = p.pending.DrainMember("k", func(desc *AnnotationDescriptor, args map[string]DynData) error {
		assert.Equal(t, "id", desc.Name)
		assert.Equal(t, uint64(3), args["value"].U64)
		return nil
	})
	assert.NoError(t, err)
}

func TestAnnotationApplications_BareNoParams(t *testing.T) {
	p := newDeclParser("@key rest")
	err := p.AnnotationApplications(AnnotationTargetMember)
	assert.NoError(t, err)

	called := false
	p.pending.BindMemberName("k")
	err = p.pending.DrainMember("k", func(desc *AnnotationDescriptor, args map[string]DynData) error {
		called = true
		assert.Equal(t, "key", desc.Name)
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestAnnotationApplications_MultipleStack(t *testing.T) {
	p := newDeclParser("@id(3) @key rest")
	err := p.AnnotationApplications(AnnotationTargetMember)
	assert.NoError(t, err)

	count := 0
	p.pending.BindMemberName("k")
	err = p.pending.DrainMember("k", func(desc *AnnotationDescriptor, args map[string]DynData) error {
		count++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAnnotationApplications_NoAtSign_NoOp(t *testing.T) {
	p := newDeclParser("long x;")
	pos := p.Location()
	err := p.AnnotationApplications(AnnotationTargetType)
	assert.NoError(t, err)
	assert.Equal(t, pos, p.Location())
}

func TestAnnotationApplications_UnknownAnnotation_SkippedNotFatal(t *testing.T) {
	p := newDeclParser("@totally_unknown_thing(1) rest")
	err := p.AnnotationApplications(AnnotationTargetType)
	assert.NoError(t, err)
	assert.Equal(t, 'r', p.Peek())
}

func TestAnnotationApplications_LeavesAnnotationDclForDefinition(t *testing.T) {
	p := newDeclParser("@annotation Foo { long v; };")
	pos := p.Location()
	err := p.AnnotationApplications(AnnotationTargetType)
	assert.NoError(t, err)
	assert.Equal(t, pos, p.Location(), "must not consume @annotation declarations")
}

func TestAnnotationParams_KeywordForm(t *testing.T) {
	p := newDeclParser("(a=1, b=2) rest")
	app, err := p.annotationParams()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), app.Keyword["a"].U64)
	assert.Equal(t, uint64(2), app.Keyword["b"].U64)
}

func TestAnnotationParams_NoParens_Empty(t *testing.T) {
	p := newDeclParser("rest")
	app, err := p.annotationParams()
	assert.NoError(t, err)
	assert.Nil(t, app.Positional)
	assert.Empty(t, app.Keyword)
}

func TestAnnotationParams_PositionalSingleValue(t *testing.T) {
	p := newDeclParser("(42) rest")
	app, err := p.annotationParams()
	assert.NoError(t, err)
	assert.Len(t, app.Positional, 1)
	assert.Equal(t, uint64(42), app.Positional[0].U64)
}

func TestAnnotationParams_UnclosedParen_Errors(t *testing.T) {
	p := newDeclParser("(42 rest")
	_, err := p.annotationParams()
	assert.Error(t, err)
}
