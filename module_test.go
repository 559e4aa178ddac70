package idlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModule_ScopeAndSubmodule(t *testing.T) {
	root := NewRootModule(NewConfig())
	assert.Equal(t, "", root.Scope())

	a := root.Submodule("A")
	assert.Equal(t, "A", a.Scope())

	b := a.Submodule("B")
	assert.Equal(t, "A::B", b.Scope())

	// Submodule is idempotent: asking twice returns the same instance.
	again := a.Submodule("B")
	assert.Same(t, b, again)
}

func TestModule_InsertStructAndLookup(t *testing.T) {
	root := NewRootModule(NewConfig())
	td := &TypeDescriptor{Category: CategoryStruct}

	assert.NoError(t, root.InsertStruct("Point", td, false))
	assert.True(t, root.HasStructure("Point"))
	got, ok := root.Structure("Point")
	assert.True(t, ok)
	assert.Equal(t, "Point", got.Name)
}

func TestModule_InsertStruct_QualifiedNameRejected(t *testing.T) {
	root := NewRootModule(NewConfig())
	err := root.InsertStruct("A::Point", &TypeDescriptor{}, false)
	assert.Error(t, err)
}

func TestModule_Redefinition_ErrorsByDefault(t *testing.T) {
	root := NewRootModule(NewConfig())
	assert.NoError(t, root.InsertStruct("S", &TypeDescriptor{}, false))
	err := root.InsertStruct("S", &TypeDescriptor{}, false)
	assert.Error(t, err)
	var redef *RedefinitionError
	assert.ErrorAs(t, err, &redef)
}

func TestModule_Redefinition_ReplaceSucceeds(t *testing.T) {
	root := NewRootModule(NewConfig())
	assert.NoError(t, root.InsertStruct("S", &TypeDescriptor{}, false))
	assert.NoError(t, root.InsertStruct("S", &TypeDescriptor{}, true))
}

func TestModule_Redefinition_IgnoreRedefinitionWarnsNotErrors(t *testing.T) {
	cfg := NewConfig()
	cfg.SetBool("ignore_redefinition", true)
	root := NewRootModule(cfg)

	assert.NoError(t, root.InsertStruct("S", &TypeDescriptor{}, false))
	assert.NoError(t, root.InsertStruct("S", &TypeDescriptor{}, false))
}

func TestModule_ResolveScope_NestedAndAbsolute(t *testing.T) {
	root := NewRootModule(NewConfig())
	a := root.Submodule("A")
	td := &TypeDescriptor{Category: CategoryStruct}
	assert.NoError(t, a.InsertStruct("Inner", td, false))

	// From root, a qualified lookup resolves down into A.
	found, ok := root.GetBuilder("A::Inner")
	assert.True(t, ok)
	assert.Equal(t, "A::Inner", found.Name)

	// From within A, an unqualified lookup resolves locally.
	found2, ok := a.GetBuilder("Inner")
	assert.True(t, ok)
	assert.Equal(t, "A::Inner", found2.Name)

	// Absolute form from a nested scope still finds it and rewrites Name.
	found3, ok := a.GetBuilder("::A::Inner")
	assert.True(t, ok)
	assert.Equal(t, "::A::Inner", found3.Name)
}

func TestModule_ConstantLookupThroughScope(t *testing.T) {
	root := NewRootModule(NewConfig())
	a := root.Submodule("A")
	val := NewUInt64Data(42, Span{})
	assert.NoError(t, a.InsertConstant("MAX", val, false, false))

	got, ok := root.Constant("A::MAX")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), got.U64)
	assert.False(t, root.IsFromEnum("A::MAX"))
}

func TestModule_InsertConstant_FromEnumTracking(t *testing.T) {
	root := NewRootModule(NewConfig())
	val := NewUInt64Data(0, Span{})
	assert.NoError(t, root.InsertConstant("RED", val, false, true))
	assert.True(t, root.IsFromEnum("RED"))
}

func TestModule_IgnoreCaseFolding(t *testing.T) {
	cfg := NewConfig()
	cfg.SetBool("ignore_case", true)
	root := NewRootModule(cfg)

	assert.NoError(t, root.InsertStruct("Point", &TypeDescriptor{}, false))
	assert.True(t, root.HasStructure("POINT"))
	assert.True(t, root.HasStructure("point"))
}

func TestModule_Annotations_BuiltinsPreloaded(t *testing.T) {
	root := NewRootModule(NewConfig())
	desc, ok := root.LookupAnnotation("key")
	assert.True(t, ok)
	assert.True(t, desc.Builtin)
}

func TestModule_InsertAnnotation_DuplicateWarnsKeepsFirst(t *testing.T) {
	root := NewRootModule(NewConfig())
	first := &AnnotationDescriptor{Name: "custom"}
	second := &AnnotationDescriptor{Name: "custom", Members: []AnnotationMember{{Name: "x"}}}

	root.InsertAnnotation("custom", first)
	root.InsertAnnotation("custom", second)

	got, ok := root.LookupAnnotation("custom")
	assert.True(t, ok)
	assert.Same(t, first, got)
}

func TestModule_HasSymbol_ExtendsToOuter(t *testing.T) {
	root := NewRootModule(NewConfig())
	assert.NoError(t, root.InsertStruct("Outer", &TypeDescriptor{}, false))
	inner := root.Submodule("Inner")

	assert.False(t, inner.HasSymbol("Outer", false))
	assert.True(t, inner.HasSymbol("Outer", true))
}
