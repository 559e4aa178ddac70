package idlc

import "fmt"

// TypeCategory tags the structural shape of a TypeDescriptor. Primitive
// and string/fixed shapes additionally carry a DynKind in PrimitiveKind;
// this mirrors IdlModule.hpp's separate per-category builder maps
// (structs_/unions_/aliases_/enumerations_32_/...) collapsed into one
// tagged variant, since Go has no shared_ptr-to-base-class idiom to lean on.
type TypeCategory int

const (
	CategoryPrimitive TypeCategory = iota
	CategoryString
	CategorySequence
	CategoryArray
	CategoryMap
	CategoryStruct
	CategoryUnion
	CategoryEnum
	CategoryBitset
	CategoryBitmask
	CategoryAlias
	CategoryFixed
)

func (c TypeCategory) String() string {
	return [...]string{
		"primitive", "string", "sequence", "array", "map",
		"struct", "union", "enum", "bitset", "bitmask", "alias", "fixed",
	}[c]
}

type ExtensibilityKind int

const (
	ExtensibilityFinal ExtensibilityKind = iota
	ExtensibilityAppendable
	ExtensibilityMutable
)

type TryConstructKind int

const (
	TryConstructDiscard TryConstructKind = iota
	TryConstructUseDefault
	TryConstructTrim
)

// TypeDescriptor is the tagged variant described in spec §3 "Type
// descriptor". It stands in for the DynamicType runtime the parser
// treats as an external sink (§2, footnote on DynamicType ABI).
type TypeDescriptor struct {
	Name     string
	Category TypeCategory

	PrimitiveKind DynKind // Category == Primitive, String, or Fixed

	Bound int // String/Sequence bound; 0 means unbounded

	ElementType *TypeDescriptor // Sequence/Array/Map value type
	KeyType     *TypeDescriptor // Map key type
	Dimensions  []int           // Array dimensions

	BaseType *TypeDescriptor // Struct single-base inheritance
	Members  []*MemberDescriptor

	Discriminant *TypeDescriptor // Union
	Cases        []*UnionCase

	EnumLiterals []EnumLiteral
	BitBound     int

	Bitfields []BitfieldDescriptor // Bitset
	Flags     []FlagDescriptor     // Bitmask

	AliasOf *TypeDescriptor

	FixedDigits int
	FixedScale  int

	Extensibility ExtensibilityKind
	Nested        bool

	Annotations []AppliedAnnotation

	built bool
}

// MemberDescriptor is spec §3's "Member descriptor", shared by struct
// members, union cases, annotation members, and enumerators.
type MemberDescriptor struct {
	Name    string
	Type    *TypeDescriptor
	Default *DynData

	HasID          bool
	ID             uint32
	Optional       bool
	Key            bool
	External       bool
	MustUnderstand bool

	TryConstruct    TryConstructKind
	HasTryConstruct bool

	Annotations []AppliedAnnotation
}

// UnionCase binds a member to the set of discriminant labels that
// select it, or marks it the default case.
type UnionCase struct {
	Labels    []DynData
	IsDefault bool
	Member    *MemberDescriptor
}

// EnumLiteral is one enumerator: its ordinal value (0..N-1 unless
// overridden by @value) and whether @default_literal marked it.
type EnumLiteral struct {
	Name      string
	Value     int32
	IsDefault bool
}

// BitfieldDescriptor is one named, width-bounded field of a bitset.
type BitfieldDescriptor struct {
	Name            string
	Width           uint16
	Position        uint16
	HasPosition     bool
	DestinationType *TypeDescriptor
}

// FlagDescriptor is one named single-bit flag of a bitmask.
type FlagDescriptor struct {
	Name        string
	Position    uint16
	HasPosition bool
}

// AppliedAnnotation pairs a resolved AnnotationDescriptor with the
// argument values supplied at the application site.
type AppliedAnnotation struct {
	Descriptor *AnnotationDescriptor
	Args       map[string]DynData
}

func errBuilderFrozen(what string) error {
	return fmt.Errorf("cannot mutate %s builder after Build()", what)
}

// StructBuilder accumulates members for a struct under construction,
// mirroring IdlModule.hpp's structure(builder, replace) call site —
// the driver owns one of these per struct_def in progress and calls
// Build() once the closing brace is matched.
type StructBuilder struct{ td *TypeDescriptor }

func NewStructBuilder(name string) *StructBuilder {
	return &StructBuilder{td: &TypeDescriptor{Name: name, Category: CategoryStruct, Extensibility: ExtensibilityAppendable}}
}

func (b *StructBuilder) SetBase(base *TypeDescriptor) error {
	if b.td.built {
		return errBuilderFrozen("struct")
	}
	b.td.BaseType = base
	return nil
}

func (b *StructBuilder) AddMember(m *MemberDescriptor) error {
	if b.td.built {
		return errBuilderFrozen("struct")
	}
	b.td.Members = append(b.td.Members, m)
	return nil
}

func (b *StructBuilder) Descriptor() *TypeDescriptor { return b.td }

func (b *StructBuilder) Build() (*TypeDescriptor, error) {
	b.td.built = true
	return b.td, nil
}

// UnionBuilder accumulates cases for a union under construction.
type UnionBuilder struct{ td *TypeDescriptor }

func NewUnionBuilder(name string, discriminant *TypeDescriptor) *UnionBuilder {
	return &UnionBuilder{td: &TypeDescriptor{Name: name, Category: CategoryUnion, Discriminant: discriminant, Extensibility: ExtensibilityAppendable}}
}

func (b *UnionBuilder) AddMember(m *MemberDescriptor, labels []DynData, isDefault bool) error {
	if b.td.built {
		return errBuilderFrozen("union")
	}
	b.td.Cases = append(b.td.Cases, &UnionCase{Labels: labels, IsDefault: isDefault, Member: m})
	return nil
}

func (b *UnionBuilder) Descriptor() *TypeDescriptor { return b.td }

func (b *UnionBuilder) Build() (*TypeDescriptor, error) {
	b.td.built = true
	return b.td, nil
}

// EnumBuilder accumulates literals for an enum under construction.
type EnumBuilder struct{ td *TypeDescriptor }

func NewEnumBuilder(name string) *EnumBuilder {
	return &EnumBuilder{td: &TypeDescriptor{Name: name, Category: CategoryEnum, BitBound: 32}}
}

func (b *EnumBuilder) AddLiteral(name string, value int32, isDefault bool) error {
	if b.td.built {
		return errBuilderFrozen("enum")
	}
	b.td.EnumLiterals = append(b.td.EnumLiterals, EnumLiteral{Name: name, Value: value, IsDefault: isDefault})
	return nil
}

func (b *EnumBuilder) SetBitBound(v uint16) error {
	if b.td.built {
		return errBuilderFrozen("enum")
	}
	b.td.BitBound = int(v)
	return nil
}

func (b *EnumBuilder) Descriptor() *TypeDescriptor { return b.td }

func (b *EnumBuilder) Build() (*TypeDescriptor, error) {
	b.td.built = true
	return b.td, nil
}

// BitsetBuilder accumulates bitfields for a bitset under construction.
type BitsetBuilder struct{ td *TypeDescriptor }

func NewBitsetBuilder(name string) *BitsetBuilder {
	return &BitsetBuilder{td: &TypeDescriptor{Name: name, Category: CategoryBitset}}
}

func (b *BitsetBuilder) AddBitfield(f BitfieldDescriptor) error {
	if b.td.built {
		return errBuilderFrozen("bitset")
	}
	b.td.Bitfields = append(b.td.Bitfields, f)
	return nil
}

func (b *BitsetBuilder) Descriptor() *TypeDescriptor { return b.td }

func (b *BitsetBuilder) Build() (*TypeDescriptor, error) {
	b.td.built = true
	return b.td, nil
}

// BitmaskBuilder accumulates flags for a bitmask under construction.
type BitmaskBuilder struct{ td *TypeDescriptor }

func NewBitmaskBuilder(name string) *BitmaskBuilder {
	return &BitmaskBuilder{td: &TypeDescriptor{Name: name, Category: CategoryBitmask, BitBound: 32}}
}

func (b *BitmaskBuilder) AddFlag(f FlagDescriptor) error {
	if b.td.built {
		return errBuilderFrozen("bitmask")
	}
	b.td.Flags = append(b.td.Flags, f)
	return nil
}

func (b *BitmaskBuilder) SetBitBound(v uint16) error {
	if b.td.built {
		return errBuilderFrozen("bitmask")
	}
	b.td.BitBound = int(v)
	return nil
}

func (b *BitmaskBuilder) Descriptor() *TypeDescriptor { return b.td }

func (b *BitmaskBuilder) Build() (*TypeDescriptor, error) {
	b.td.built = true
	return b.td, nil
}

// AliasBuilder wraps a typedef's referent; it never accumulates state
// beyond construction but is kept as a builder for symmetry with the
// rest of the C6.2 sink contract.
type AliasBuilder struct{ td *TypeDescriptor }

func NewAliasBuilder(name string, referent *TypeDescriptor) *AliasBuilder {
	return &AliasBuilder{td: &TypeDescriptor{Name: name, Category: CategoryAlias, AliasOf: referent}}
}

func (b *AliasBuilder) Descriptor() *TypeDescriptor { return b.td }

func (b *AliasBuilder) Build() (*TypeDescriptor, error) {
	b.td.built = true
	return b.td, nil
}

// TypeRegistry implements the §6.2 sink contract for shapes that need
// no multi-step accumulation (primitives, strings, sequences, arrays,
// maps, fixed-point); the accumulating shapes (struct/union/enum/
// bitset/bitmask/alias) go through the *Builder types above.
type TypeRegistry struct {
	Root *Module
}

func NewTypeRegistry(cfg *Config) *TypeRegistry {
	return &TypeRegistry{Root: NewRootModule(cfg)}
}

func (r *TypeRegistry) Primitive(kind DynKind) *TypeDescriptor {
	return &TypeDescriptor{Name: kind.String(), Category: CategoryPrimitive, PrimitiveKind: kind, built: true}
}

func (r *TypeRegistry) StringType(kind DynKind, bound int) *TypeDescriptor {
	name := "string"
	if kind == DynKindChar16 {
		name = "wstring"
	}
	return &TypeDescriptor{Name: name, Category: CategoryString, PrimitiveKind: kind, Bound: bound, built: true}
}

func (r *TypeRegistry) SequenceType(elem *TypeDescriptor, bound int) *TypeDescriptor {
	return &TypeDescriptor{Name: "sequence", Category: CategorySequence, ElementType: elem, Bound: bound, built: true}
}

func (r *TypeRegistry) ArrayType(elem *TypeDescriptor, dims []int) *TypeDescriptor {
	return &TypeDescriptor{Name: "array", Category: CategoryArray, ElementType: elem, Dimensions: dims, built: true}
}

func (r *TypeRegistry) MapType(key, val *TypeDescriptor, bound int) *TypeDescriptor {
	return &TypeDescriptor{Name: "map", Category: CategoryMap, KeyType: key, ElementType: val, Bound: bound, built: true}
}

func (r *TypeRegistry) FixedType(digits, scale int) *TypeDescriptor {
	return &TypeDescriptor{Name: "fixed", Category: CategoryFixed, PrimitiveKind: DynKindFixed, FixedDigits: digits, FixedScale: scale, built: true}
}

// ApplyAnnotationToType attaches a resolved annotation application to a
// not-yet-frozen type descriptor.
func (r *TypeRegistry) ApplyAnnotationToType(td *TypeDescriptor, ann AppliedAnnotation) error {
	if td.built {
		return errBuilderFrozen(td.Category.String())
	}
	td.Annotations = append(td.Annotations, ann)
	return nil
}

// ApplyAnnotationToMember attaches a resolved annotation application to
// a member descriptor still owned by an in-progress builder.
func (r *TypeRegistry) ApplyAnnotationToMember(m *MemberDescriptor, ann AppliedAnnotation) error {
	m.Annotations = append(m.Annotations, ann)
	return nil
}
