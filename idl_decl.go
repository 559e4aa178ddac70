package idlc

import "fmt"

// IdlDeclParser embeds IdlExprParser and adds layer-4 rules from spec
// §4.2.4: const/typedef/enum/struct/union/bitset/bitmask/native/module
// declarations. Unlike the original's string-keyed scratch map (spec §9
// Design Notes: "replace with a strongly-typed struct"), each production
// here returns its own typed result directly — the call tree itself is
// the typed scratch state, so there is nothing left to thread through a
// shared map.
type IdlDeclParser struct {
	*IdlExprParser
	mod     *Module
	pending *PendingAnnotations
}

func NewIdlDeclParser(input []rune, file string, cfg *Config, reg *TypeRegistry) *IdlDeclParser {
	resolveConst := func(name string) (DynData, bool) { return reg.Root.Constant(name) }
	p := &IdlDeclParser{
		IdlExprParser: NewIdlExprParser(input, file, cfg, reg, resolveConst),
		mod:           reg.Root,
		pending:       NewPendingAnnotations(),
	}
	// resolveConst must track the active module as it descends, so it's
	// rebound every time p.mod changes (see withModule).
	p.IdlExprParser.resolveConst = func(name string) (DynData, bool) { return p.mod.Constant(name) }
	return p
}

// withModule runs fn with mod as the active scope, restoring the
// previous scope afterward; the Go analogue of the original's module
// stack push/pop around a nested `module { ... }` body.
func (p *IdlDeclParser) withModule(mod *Module, fn func() error) error {
	prev := p.mod
	p.mod = mod
	err := fn()
	p.mod = prev
	return err
}

// resolveNamedType looks up a scoped name against the active module's
// struct/alias/enum/bitset/bitmask tables, closing the gap flagged in
// idl_types.go: FullType alone cannot see previously-declared names
// because IdlTypeParser has no Module reference.
func (p *IdlDeclParser) resolveNamedType() (*TypeDescriptor, error) {
	pos := p.Location()
	name, err := p.ScopedName()
	if err != nil {
		return nil, p.NewError("expected a type name")
	}
	td, ok := p.mod.GetBuilder(name)
	if !ok {
		p.Backtrack(pos)
		return nil, p.NewError(fmt.Sprintf("unresolved type name %q", name))
	}
	return td, nil
}

// declType matches FullType first (template/primitive), falling back to
// a scoped-name reference for a previously-declared type.
func (p *IdlDeclParser) declType() (*TypeDescriptor, error) {
	if td, err := p.FullType(p.ConstExprWrapper); err == nil {
		return td, nil
	} else if !isBacktracking(err) {
		return nil, err
	}
	return p.resolveNamedType()
}

// ConstExprWrapper adapts ConstExpr to the `func() (DynData, error)`
// shape idl_types.go's template-type grammar expects.
func (p *IdlDeclParser) ConstExprWrapper() (DynData, error) {
	return p.ConstExpr()
}

// drainPendingType applies every staged type-level annotation to td,
// then clears the queue, per spec §4.5's "Annotation inheritance on
// insertion".
func (p *IdlDeclParser) drainPendingType(td *TypeDescriptor) error {
	return p.pending.DrainType(func(desc *AnnotationDescriptor, args map[string]DynData) error {
		return applyBuiltinOrGeneric(p.reg(), td, nil, desc, args)
	})
}

func (p *IdlDeclParser) drainPendingMember(name string, m *MemberDescriptor) error {
	return p.pending.DrainMember(name, func(desc *AnnotationDescriptor, args map[string]DynData) error {
		return applyBuiltinOrGeneric(p.reg(), nil, m, desc, args)
	})
}

func (p *IdlDeclParser) reg() *TypeRegistry { return &TypeRegistry{Root: p.mod} }

// applyBuiltinOrGeneric mutates a not-yet-frozen descriptor field for
// the built-in annotations whose effect is a concrete field (spec
// §4.4's table), or attaches the application generically otherwise.
func applyBuiltinOrGeneric(reg *TypeRegistry, td *TypeDescriptor, m *MemberDescriptor, desc *AnnotationDescriptor, args map[string]DynData) error {
	if !desc.Builtin {
		if td != nil {
			return reg.ApplyAnnotationToType(td, AppliedAnnotation{Descriptor: desc, Args: args})
		}
		return reg.ApplyAnnotationToMember(m, AppliedAnnotation{Descriptor: desc, Args: args})
	}
	switch desc.Name {
	case "id":
		m.HasID = true
		m.ID = uint32(args["value"].U64)
	case "optional":
		m.Optional = args["value"].B
	case "position":
		// bitfield position; handled by the bitset caller inspecting args directly.
	case "extensibility":
		td.Extensibility = ExtensibilityKind(args["value"].U64)
	case "final":
		td.Extensibility = ExtensibilityFinal
	case "appendable":
		td.Extensibility = ExtensibilityAppendable
	case "mutable":
		td.Extensibility = ExtensibilityMutable
	case "key":
		m.Key = args["value"].B
	case "external":
		m.External = true
	case "nested":
		td.Nested = args["value"].B
	case "try_construct":
		m.HasTryConstruct = true
		m.TryConstruct = TryConstructKind(args["value"].U64)
	case "default":
		v := args["value"]
		m.Default = &v
	case "bit_bound":
		td.BitBound = int(args["value"].U64)
	case "default_literal", "value":
		// handled by the enum literal caller directly, not via a descriptor field.
	}
	return nil
}

// constTargetKind maps a const declaration's type to the DynKind its
// value must end up as. For string/wstring, TypeDescriptor.PrimitiveKind
// holds the *element* char kind (see StringType), not DynKindString/
// WString, so it can't be fed straight into ConvertTo.
func constTargetKind(td *TypeDescriptor) DynKind {
	if td.Category == CategoryString {
		if td.Name == "wstring" {
			return DynKindWString
		}
		return DynKindString
	}
	return td.PrimitiveKind
}

// ConstDcl matches `const <type> <identifier> = <const_expr> ;`.
func (p *IdlDeclParser) ConstDcl() error {
	if err := p.Keyword("const"); err != nil {
		return err
	}
	td, err := p.declType()
	if err != nil {
		return p.Throw("expected a const type")
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected const identifier")
	}
	if err := p.Punct("="); err != nil {
		return p.Throw("expected '=' in const declaration")
	}
	val, err := p.ConstExpr()
	if err != nil {
		return err
	}
	converted, err := val.ConvertTo(constTargetKind(td))
	if err != nil {
		return err
	}
	if err := p.mod.InsertConstant(name, converted, false, false); err != nil {
		return err
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after const declaration")
	}
	return p.drainPendingType(td)
}

// TypedefDcl matches `typedef <type> <identifier> ;` (array declarators
// are handled via a trailing `[N]...` suffix turning the referent into
// an array type).
func (p *IdlDeclParser) TypedefDcl() error {
	if err := p.Keyword("typedef"); err != nil {
		return err
	}
	referent, err := p.declType()
	if err != nil {
		return p.Throw("expected a type in typedef")
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected typedef identifier")
	}
	referent, err = p.arrayDeclaratorSuffix(referent)
	if err != nil {
		return err
	}
	b := NewAliasBuilder(name, referent)
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after typedef declaration")
	}
	td := b.Descriptor()
	if err := p.drainPendingType(td); err != nil {
		return err
	}
	b.Build()
	return p.mod.InsertAlias(name, td, false)
}

// arrayDeclaratorSuffix consumes zero or more `[N]` dimensions following
// a declarator, wrapping elem in an array type when any are present.
func (p *IdlDeclParser) arrayDeclaratorSuffix(elem *TypeDescriptor) (*TypeDescriptor, error) {
	var dims []int
	for {
		pos := p.Location()
		if err := p.Punct("["); err != nil {
			p.Backtrack(pos)
			break
		}
		v, err := p.ConstExpr()
		if err != nil {
			return nil, err
		}
		if err := p.Punct("]"); err != nil {
			return nil, p.Throw("expected ']' to close array dimension")
		}
		dims = append(dims, int(v.AsInt64()))
	}
	if len(dims) == 0 {
		return elem, nil
	}
	return p.reg().ArrayType(elem, dims), nil
}

// EnumDcl matches `enum <identifier> { literal (, literal)* } ;`,
// assigning each literal 0..N-1 unless @value overrides it, and
// synthesizing one from-enum constant per literal (spec §8 scenario 3).
func (p *IdlDeclParser) EnumDcl() error {
	if err := p.Keyword("enum"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected enum identifier")
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in enum body")
	}
	b := NewEnumBuilder(name)
	next := int32(0)
	defaultSeen := false
	for {
		if err := p.AnnotationApplications(AnnotationTargetMember); err != nil {
			return err
		}
		litName, err := p.Identifier()
		if err != nil {
			return p.Throw("expected enumerator name")
		}
		p.pending.BindMemberName(litName)
		value := next
		isDefault := false
		for _, e := range p.pending.Member[litName] {
			args, err := ResolveParameters(e.Descriptor, e.App)
			if err != nil {
				return err
			}
			switch e.Descriptor.Name {
			case "value":
				value = int32(args["value"].U64)
			case "default_literal":
				if defaultSeen {
					return &AnnotationParamError{Annotation: "default_literal", Message: "only one enumerator may be the default", Span: e.App.Span}
				}
				isDefault = true
				defaultSeen = true
			}
		}
		delete(p.pending.Member, litName)
		if err := b.AddLiteral(litName, value, isDefault); err != nil {
			return err
		}
		if err := p.mod.InsertConstant(litName, NewUInt64Data(uint64(uint32(value)), Span{}), false, true); err != nil {
			return err
		}
		next = value + 1
		if p.Punct(",") != nil {
			break
		}
	}
	if err := p.Punct("}"); err != nil {
		return p.Throw("expected '}' to close enum body")
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after enum declaration")
	}
	td := b.Descriptor()
	if err := p.drainPendingType(td); err != nil {
		return err
	}
	b.Build()
	return p.mod.InsertEnum(name, td, false)
}

// structMembers matches one `<type> <identifier>(, <identifier>)* ;` line
// inside a struct body, expanded to one MemberDescriptor per declarator.
func (p *IdlDeclParser) structMembers(b *StructBuilder) error {
	if err := p.AnnotationApplications(AnnotationTargetMember); err != nil {
		return err
	}
	memberType, err := p.declType()
	if err != nil {
		return p.Throw("expected a member type")
	}
	for {
		name, err := p.Identifier()
		if err != nil {
			return p.Throw("expected member identifier")
		}
		fullType, err := p.arrayDeclaratorSuffix(memberType)
		if err != nil {
			return err
		}
		p.pending.BindMemberName(name)
		m := &MemberDescriptor{Name: name, Type: fullType}
		if err := p.drainPendingMember(name, m); err != nil {
			return err
		}
		if err := b.AddMember(m); err != nil {
			return err
		}
		if p.Punct(",") != nil {
			break
		}
	}
	return p.Punct(";")
}

// StructDcl matches `struct <identifier> [: <base>] { member* } ;` as
// well as the bare forward form `struct <identifier> ;`.
func (p *IdlDeclParser) StructDcl() error {
	if err := p.Keyword("struct"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected struct identifier")
	}

	pos := p.Location()
	if err := p.Punct(";"); err == nil {
		// Forward declaration: register an empty, not-yet-built shape so
		// later scoped-name lookups (e.g. `:Base`) succeed; the later
		// full definition replaces it (spec §13.4 replace semantics).
		fwd := NewStructBuilder(name)
		return p.mod.InsertStruct(name, fwd.Descriptor(), true)
	}
	p.Backtrack(pos)

	b := NewStructBuilder(name)
	if p.Punct(":") == nil {
		base, err := p.resolveNamedType()
		if err != nil {
			return err
		}
		if base.Category != CategoryStruct {
			return p.Throw(fmt.Sprintf("base %q of struct %q is not a struct", base.Name, name))
		}
		if err := b.SetBase(base); err != nil {
			return err
		}
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in struct body")
	}
	for {
		pos := p.Location()
		if p.Punct("}") == nil {
			break
		}
		p.Backtrack(pos)
		if err := p.structMembers(b); err != nil {
			return err
		}
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after struct declaration")
	}
	td := b.Descriptor()
	if err := p.drainPendingType(td); err != nil {
		return err
	}
	b.Build()
	// Only a forward declaration (registered unbuilt) is replaced.
	prev, ok := p.mod.structs[foldName(p.mod.cfg, name)]
	return p.mod.InsertStruct(name, td, ok && !prev.built)
}

// unionCaseLabels matches one or more `case <const_expr> :` prefixes,
// or a single `default :`.
func (p *IdlDeclParser) unionCaseLabels() ([]DynData, bool, error) {
	var labels []DynData
	isDefault := false
	matched := false
	for {
		pos := p.Location()
		if p.Keyword("case") == nil {
			v, err := p.ConstExpr()
			if err != nil {
				return nil, false, err
			}
			if err := p.Punct(":"); err != nil {
				return nil, false, p.Throw("expected ':' after case label")
			}
			labels = append(labels, v)
			matched = true
			continue
		}
		p.Backtrack(pos)
		if p.Keyword("default") == nil {
			if err := p.Punct(":"); err != nil {
				return nil, false, p.Throw("expected ':' after default")
			}
			isDefault = true
			matched = true
			continue
		}
		p.Backtrack(pos)
		break
	}
	if !matched {
		return nil, false, p.NewError("expected case or default label")
	}
	return labels, isDefault, nil
}

// UnionDcl matches `union <identifier> switch(<type>) { case* } ;` and
// the bare forward form.
func (p *IdlDeclParser) UnionDcl() error {
	if err := p.Keyword("union"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected union identifier")
	}

	pos := p.Location()
	if err := p.Punct(";"); err == nil {
		fwd := NewUnionBuilder(name, nil)
		return p.mod.InsertUnion(name, fwd.Descriptor(), true)
	}
	p.Backtrack(pos)

	if err := p.Keyword("switch"); err != nil {
		return p.Throw("expected 'switch' in union declaration")
	}
	if err := p.Punct("("); err != nil {
		return p.Throw("expected '(' after switch")
	}
	if err := p.AnnotationApplications(AnnotationTargetDiscriminator); err != nil {
		return err
	}
	discriminant, err := p.declType()
	if err != nil {
		return p.Throw("expected a discriminant type")
	}
	if err := p.drainPendingDiscriminator(discriminant); err != nil {
		return err
	}
	if err := p.Punct(")"); err != nil {
		return p.Throw("expected ')' after switch discriminant")
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in union body")
	}

	b := NewUnionBuilder(name, discriminant)
	seenDefault := false
	for {
		pos := p.Location()
		if p.Punct("}") == nil {
			break
		}
		p.Backtrack(pos)

		labels, isDefault, err := p.unionCaseLabels()
		if err != nil {
			return err
		}
		if isDefault {
			if seenDefault {
				return p.Throw("union may have at most one default case")
			}
			seenDefault = true
		}
		if err := p.AnnotationApplications(AnnotationTargetMember); err != nil {
			return err
		}
		memberType, err := p.declType()
		if err != nil {
			return p.Throw("expected a case member type")
		}
		memberName, err := p.Identifier()
		if err != nil {
			return p.Throw("expected case member identifier")
		}
		fullType, err := p.arrayDeclaratorSuffix(memberType)
		if err != nil {
			return err
		}
		p.pending.BindMemberName(memberName)
		m := &MemberDescriptor{Name: memberName, Type: fullType}
		if err := p.drainPendingMember(memberName, m); err != nil {
			return err
		}
		if err := b.AddMember(m, labels, isDefault); err != nil {
			return err
		}
		if err := p.Punct(";"); err != nil {
			return p.Throw("expected ';' after union case")
		}
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after union declaration")
	}
	td := b.Descriptor()
	if err := p.drainPendingType(td); err != nil {
		return err
	}
	b.Build()
	// Only a forward declaration (registered unbuilt) is replaced.
	prev, ok := p.mod.unions[foldName(p.mod.cfg, name)]
	return p.mod.InsertUnion(name, td, ok && !prev.built)
}

func (p *IdlDeclParser) drainPendingDiscriminator(td *TypeDescriptor) error {
	return p.pending.DrainDiscriminator(func(desc *AnnotationDescriptor, args map[string]DynData) error {
		return applyBuiltinOrGeneric(p.reg(), td, nil, desc, args)
	})
}

// BitsetDcl matches `bitset <identifier> { bitfield* } ;`, where each
// bitfield is `bitfield<width[, type]> [name] ;`.
func (p *IdlDeclParser) BitsetDcl() error {
	if err := p.Keyword("bitset"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected bitset identifier")
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in bitset body")
	}
	b := NewBitsetBuilder(name)
	for {
		pos := p.Location()
		if p.Punct("}") == nil {
			break
		}
		p.Backtrack(pos)

		if err := p.AnnotationApplications(AnnotationTargetMember); err != nil {
			return err
		}
		if err := p.Keyword("bitfield"); err != nil {
			return p.Throw("expected 'bitfield'")
		}
		if err := p.Punct("<"); err != nil {
			return p.Throw("expected '<' after bitfield")
		}
		width, err := p.ConstExpr()
		if err != nil {
			return err
		}
		var destType *TypeDescriptor
		if p.Punct(",") == nil {
			destType, err = p.PrimitiveType()
			if err != nil {
				return err
			}
		}
		if err := p.Punct(">"); err != nil {
			return p.Throw("expected '>' to close bitfield")
		}
		if err := p.AnnotationApplications(AnnotationTargetMember); err != nil {
			return err
		}
		fieldName := ""
		pos2 := p.Location()
		if n, err := p.Identifier(); err == nil {
			fieldName = n
		} else {
			p.Backtrack(pos2)
		}
		p.pending.BindMemberName(fieldName)
		if err := p.Punct(";"); err != nil {
			return p.Throw("expected ';' after bitfield")
		}
		bf := BitfieldDescriptor{Name: fieldName, Width: uint16(width.AsInt64()), DestinationType: destType}
		for _, e := range p.pending.Member[fieldName] {
			args, err := ResolveParameters(e.Descriptor, e.App)
			if err != nil {
				return err
			}
			if e.Descriptor.Name == "position" {
				bf.Position = uint16(args["value"].U64)
				bf.HasPosition = true
			}
		}
		delete(p.pending.Member, fieldName)
		if err := b.AddBitfield(bf); err != nil {
			return err
		}
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after bitset declaration")
	}
	td := b.Descriptor()
	if err := p.drainPendingType(td); err != nil {
		return err
	}
	b.Build()
	return p.mod.InsertBitset(name, td, false)
}

// BitmaskDcl matches `bitmask <identifier> { flag (, flag)* } ;`.
func (p *IdlDeclParser) BitmaskDcl() error {
	if err := p.Keyword("bitmask"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected bitmask identifier")
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in bitmask body")
	}
	b := NewBitmaskBuilder(name)
	for {
		if err := p.AnnotationApplications(AnnotationTargetMember); err != nil {
			return err
		}
		flagName, err := p.Identifier()
		if err != nil {
			return p.Throw("expected flag name")
		}
		p.pending.BindMemberName(flagName)
		fd := FlagDescriptor{Name: flagName}
		for _, e := range p.pending.Member[flagName] {
			args, err := ResolveParameters(e.Descriptor, e.App)
			if err != nil {
				return err
			}
			if e.Descriptor.Name == "position" {
				fd.Position = uint16(args["value"].U64)
				fd.HasPosition = true
			}
		}
		delete(p.pending.Member, flagName)
		if err := b.AddFlag(fd); err != nil {
			return err
		}
		if p.Punct(",") != nil {
			break
		}
	}
	if err := p.Punct("}"); err != nil {
		return p.Throw("expected '}' to close bitmask body")
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after bitmask declaration")
	}
	td := b.Descriptor()
	if err := p.drainPendingType(td); err != nil {
		return err
	}
	b.Build()
	return p.mod.InsertBitmask(name, td, false)
}

// NativeDcl matches `native <identifier> ;`, registering an opaque
// alias-of-itself placeholder the way the original treats native types
// as host-supplied, uninterpreted leaves.
func (p *IdlDeclParser) NativeDcl() error {
	if err := p.Keyword("native"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected native identifier")
	}
	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after native declaration")
	}
	opaque := &TypeDescriptor{Name: name, Category: CategoryPrimitive, PrimitiveKind: DynKindUndefined}
	b := NewAliasBuilder(name, opaque)
	td, _ := b.Build()
	return p.mod.InsertAlias(name, td, false)
}

// AnnotationDcl matches `@annotation <identifier> { member* } ;`,
// registering the resulting AnnotationDescriptor in the active module
// and giving its body a nested Module scope for internal enum/const/
// typedef declarations (spec §3 "Annotation bodies").
func (p *IdlDeclParser) AnnotationDcl() error {
	if err := p.Punct("@"); err != nil {
		return err
	}
	if err := p.Keyword("annotation"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected annotation identifier")
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in annotation body")
	}

	body := p.mod.Submodule("@" + name)
	desc := &AnnotationDescriptor{Name: name, Body: body}

	if err := p.withModule(body, func() error {
		for {
			pos := p.Location()
			if p.Punct("}") == nil {
				break
			}
			p.Backtrack(pos)

			if m, ok, err := p.annotationMember(); err != nil {
				return err
			} else if ok {
				desc.Members = append(desc.Members, m)
				continue
			}

			if err := p.nestedAnnotationBodyDecl(); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := p.Punct(";"); err != nil {
		return p.Throw("expected ';' after annotation declaration")
	}
	p.mod.InsertAnnotation(name, desc)
	return nil
}

// annotationMember tries `<type> <identifier> [default <const_expr>] ;`.
// ok is false (with the parser backtracked) when the body element ahead
// is instead a nested enum/const/typedef declaration.
func (p *IdlDeclParser) annotationMember() (AnnotationMember, bool, error) {
	pos := p.Location()
	memberType, err := p.declType()
	if err != nil {
		p.Backtrack(pos)
		return AnnotationMember{}, false, nil
	}
	name, err := p.Identifier()
	if err != nil {
		p.Backtrack(pos)
		return AnnotationMember{}, false, nil
	}
	m := AnnotationMember{Name: name, Type: memberType}
	if p.Keyword("default") == nil {
		v, err := p.ConstExpr()
		if err != nil {
			return AnnotationMember{}, false, err
		}
		converted, err := v.ConvertTo(memberType.PrimitiveKind)
		if err != nil {
			converted = v
		}
		m.Default = &converted
		m.HasDefault = true
	}
	if err := p.Punct(";"); err != nil {
		return AnnotationMember{}, false, p.Throw("expected ';' after annotation member")
	}
	return m, true, nil
}

func (p *IdlDeclParser) nestedAnnotationBodyDecl() error {
	pos := p.Location()
	if p.Keyword("const") == nil {
		p.Backtrack(pos)
		return p.ConstDcl()
	}
	p.Backtrack(pos)
	if p.Keyword("typedef") == nil {
		p.Backtrack(pos)
		return p.TypedefDcl()
	}
	p.Backtrack(pos)
	if p.Keyword("enum") == nil {
		p.Backtrack(pos)
		return p.EnumDcl()
	}
	p.Backtrack(pos)
	return p.NewError("expected a nested enum/const/typedef declaration")
}

// ModuleDcl matches `module <identifier> { definition+ } ;`, re-entrant
// per spec §4.2's requirement that repeated `module Foo { ... }` bodies
// accumulate into the same child scope.
func (p *IdlDeclParser) ModuleDcl() error {
	if err := p.Keyword("module"); err != nil {
		return err
	}
	name, err := p.Identifier()
	if err != nil {
		return p.Throw("expected module identifier")
	}
	if err := p.Punct("{"); err != nil {
		return p.Throw("expected '{' in module body")
	}
	child := p.mod.Submodule(name)
	if err := p.withModule(child, func() error {
		for {
			if err := p.Definition(); err != nil {
				return err
			}
			pos := p.Location()
			if p.Punct("}") == nil {
				return nil
			}
			p.Backtrack(pos)
		}
	}); err != nil {
		return err
	}
	return p.Punct(";")
}

// Definition dispatches to the right declaration production by trying
// each keyword in turn, ordered-choice PEG style.
func (p *IdlDeclParser) Definition() error {
	if err := p.AnnotationApplications(AnnotationTargetType); err != nil {
		return err
	}

	p.Skip()
	pos := p.Location()

	type alt struct {
		kw string
		fn func() error
	}
	alts := []alt{
		{"module", p.ModuleDcl},
		{"const", p.ConstDcl},
		{"typedef", p.TypedefDcl},
		{"enum", p.EnumDcl},
		{"struct", p.StructDcl},
		{"union", p.UnionDcl},
		{"bitset", p.BitsetDcl},
		{"bitmask", p.BitmaskDcl},
		{"native", p.NativeDcl},
	}
	for _, a := range alts {
		if k := p.Keyword(a.kw); k == nil {
			p.Backtrack(pos)
			return a.fn()
		}
		p.Backtrack(pos)
	}
	if p.Punct("@") == nil {
		if p.Keyword("annotation") == nil {
			p.Backtrack(pos)
			return p.AnnotationDcl()
		}
	}
	p.Backtrack(pos)
	return p.Throw("expected a definition")
}
