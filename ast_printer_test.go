package idlc

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestAstPrinter_Print_StructWithMember(t *testing.T) {
	cfg := NewConfig()
	reg := NewTypeRegistry(cfg)
	p := NewIdlParser([]rune(`struct Point { long x; };`), "<test>", cfg, reg, nil)
	assert.NoError(t, p.ParseAll())

	out := NewAstPrinter(false).Print(reg.Root)
	assert.True(t, strings.Contains(out, "struct Point"))
	assert.True(t, strings.Contains(out, "x"))
}

func TestAstPrinter_Print_NoColorWhenDisabled(t *testing.T) {
	cfg := NewConfig()
	reg := NewTypeRegistry(cfg)
	p := NewIdlParser([]rune(`struct S { long x; };`), "<test>", cfg, reg, nil)
	assert.NoError(t, p.ParseAll())

	out := NewAstPrinter(false).Print(reg.Root)
	assert.False(t, strings.Contains(out, "\x1b["), "colorize=false must not emit ANSI escapes")
}

func TestAstPrinter_Print_RootModuleLabel(t *testing.T) {
	reg := NewTypeRegistry(NewConfig())
	out := NewAstPrinter(false).Print(reg.Root)
	assert.True(t, strings.Contains(out, "<root>"))
}

// TypeDescriptor trees built by two independent paths (hand-assembled vs.
// builder-assembled) should be structurally identical once the unexported
// freeze flag is ignored.
func TestBuilderOutput_MatchesHandAssembledDescriptor(t *testing.T) {
	b := NewStructBuilder("Point")
	longType := &TypeDescriptor{Name: "long", Category: CategoryPrimitive, PrimitiveKind: DynKindInt32}
	assert.NoError(t, b.AddMember(&MemberDescriptor{Name: "x", Type: longType}))
	assert.NoError(t, b.AddMember(&MemberDescriptor{Name: "y", Type: longType}))
	got, err := b.Build()
	assert.NoError(t, err)

	want := &TypeDescriptor{
		Name:          "Point",
		Category:      CategoryStruct,
		Extensibility: ExtensibilityAppendable,
		Members: []*MemberDescriptor{
			{Name: "x", Type: longType},
			{Name: "y", Type: longType},
		},
	}

	diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(TypeDescriptor{}))
	assert.Empty(t, diff)
}

func TestUnionBuilderOutput_MatchesHandAssembledDescriptor(t *testing.T) {
	disc := &TypeDescriptor{Name: "long", Category: CategoryPrimitive, PrimitiveKind: DynKindInt32}
	longType := disc
	b := NewUnionBuilder("U", disc)
	assert.NoError(t, b.AddMember(&MemberDescriptor{Name: "a", Type: longType}, []DynData{NewUInt64Data(1, Span{})}, false))
	assert.NoError(t, b.AddMember(&MemberDescriptor{Name: "c", Type: longType}, nil, true))
	got, err := b.Build()
	assert.NoError(t, err)

	want := &TypeDescriptor{
		Name:          "U",
		Category:      CategoryUnion,
		Discriminant:  disc,
		Extensibility: ExtensibilityAppendable,
		Cases: []*UnionCase{
			{Labels: []DynData{NewUInt64Data(1, Span{})}, Member: &MemberDescriptor{Name: "a", Type: longType}},
			{IsDefault: true, Member: &MemberDescriptor{Name: "c", Type: longType}},
		},
	}

	diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(TypeDescriptor{}))
	assert.Empty(t, diff)
}
