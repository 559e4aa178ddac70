package idlc

// IdlTypeParser embeds IdlLexer and adds layer-2 rules from spec
// §4.2.2: primitive keyword synonyms and template (parametric) types.
type IdlTypeParser struct {
	*IdlLexer
	reg *TypeRegistry
}

func NewIdlTypeParser(input []rune, file string, cfg *Config, reg *TypeRegistry) *IdlTypeParser {
	return &IdlTypeParser{IdlLexer: NewIdlLexer(input, file, cfg), reg: reg}
}

// primitiveKeywordOrder lists every primitive spelling in match order, longest
// multi-word forms first so `long double`/`long long`/`unsigned long
// long` aren't shadowed by their shorter prefixes.
var primitiveKeywordOrder = []struct {
	kw   string
	kind DynKind
}{
	{"unsigned long long", DynKindUInt64},
	{"unsigned long", DynKindUInt32},
	{"unsigned short", DynKindUInt16},
	{"long long", DynKindInt64},
	{"long double", DynKindFloat128},
	{"long", DynKindInt32},
	{"short", DynKindInt16},
	{"float", DynKindFloat32},
	{"double", DynKindFloat64},
	{"boolean", DynKindBool},
	{"octet", DynKindByte},
	{"int8", DynKindInt8},
	{"uint8", DynKindUInt8},
	{"int16", DynKindInt16},
	{"uint16", DynKindUInt16},
	{"int32", DynKindInt32},
	{"uint32", DynKindUInt32},
	{"int64", DynKindInt64},
	{"uint64", DynKindUInt64},
}

// PrimitiveType matches one of the primitive keyword spellings from
// spec §4.2.2, resolving `char`/`wchar` through Config's translation
// options (SPEC_FULL.md §13.1: honor the setting cleanly, a deliberate
// deviation from the original's fall-through switch).
func (p *IdlTypeParser) PrimitiveType() (*TypeDescriptor, error) {
	p.Skip()
	pos := p.Location()

	if err := p.Keyword("char"); err == nil {
		return p.reg.Primitive(charKind(p.cfg)), nil
	}
	p.Backtrack(pos)

	if err := p.Keyword("wchar"); err == nil {
		return p.reg.Primitive(wcharKind(p.cfg)), nil
	}
	p.Backtrack(pos)

	for _, pk := range primitiveKeywordOrder {
		if err := p.Keyword(pk.kw); err == nil {
			return p.reg.Primitive(pk.kind), nil
		}
		p.Backtrack(pos)
	}

	return nil, p.NewError("expected a primitive type")
}

func charKind(cfg *Config) DynKind {
	switch cfg.CharTranslation() {
	case CharTranslationUint8:
		return DynKindUInt8
	case CharTranslationInt8:
		return DynKindInt8
	default:
		return DynKindChar8
	}
}

// wcharKind resolves `wchar` through Config's wchar_type setting, each
// producing a distinct primitive kind (SPEC_FULL.md §13.1), unlike the
// original's fall-through switch that always honors its last case.
func wcharKind(cfg *Config) DynKind {
	switch cfg.WideCharType() {
	case WideCharTypeChar16T:
		return DynKindChar16
	default:
		return DynKindWCharT
	}
}

// TemplateType matches string<N>, wstring<N>, sequence<T[,N]>,
// map<K,V[,N]>, fixed<digits,scale> (spec §4.2.2).
func (p *IdlTypeParser) TemplateType(evalConstExpr func() (DynData, error)) (*TypeDescriptor, error) {
	p.Skip()
	pos := p.Location()

	if err := p.Keyword("string"); err == nil {
		bound, hasBound, err := p.optionalBound(evalConstExpr)
		if err != nil {
			return nil, err
		}
		_ = hasBound
		return p.reg.StringType(charKind(p.cfg), bound), nil
	}
	p.Backtrack(pos)

	if err := p.Keyword("wstring"); err == nil {
		bound, _, err := p.optionalBound(evalConstExpr)
		if err != nil {
			return nil, err
		}
		return p.reg.StringType(DynKindChar16, bound), nil
	}
	p.Backtrack(pos)

	if err := p.Keyword("sequence"); err == nil {
		if err := p.Punct("<"); err != nil {
			return nil, p.Throw("expected '<' after sequence")
		}
		elem, err := p.FullType(evalConstExpr)
		if err != nil {
			return nil, err
		}
		bound := 0
		if p.Punct(",") == nil {
			v, err := evalConstExpr()
			if err != nil {
				return nil, err
			}
			bound = int(v.AsInt64())
		}
		if err := p.Punct(">"); err != nil {
			return nil, p.Throw("expected '>' to close sequence")
		}
		return p.reg.SequenceType(elem, bound), nil
	}
	p.Backtrack(pos)

	if err := p.Keyword("map"); err == nil {
		if err := p.Punct("<"); err != nil {
			return nil, p.Throw("expected '<' after map")
		}
		key, err := p.FullType(evalConstExpr)
		if err != nil {
			return nil, err
		}
		if err := p.Punct(","); err != nil {
			return nil, p.Throw("expected ',' between map key and value types")
		}
		val, err := p.FullType(evalConstExpr)
		if err != nil {
			return nil, err
		}
		bound := 0
		if p.Punct(",") == nil {
			v, err := evalConstExpr()
			if err != nil {
				return nil, err
			}
			bound = int(v.AsInt64())
		}
		if err := p.Punct(">"); err != nil {
			return nil, p.Throw("expected '>' to close map")
		}
		return p.reg.MapType(key, val, bound), nil
	}
	p.Backtrack(pos)

	if err := p.Keyword("fixed"); err == nil {
		if err := p.Punct("<"); err != nil {
			return nil, p.Throw("expected '<' after fixed")
		}
		digits, err := evalConstExpr()
		if err != nil {
			return nil, err
		}
		if err := p.Punct(","); err != nil {
			return nil, p.Throw("expected ',' between fixed digits and scale")
		}
		scale, err := evalConstExpr()
		if err != nil {
			return nil, err
		}
		if err := p.Punct(">"); err != nil {
			return nil, p.Throw("expected '>' to close fixed")
		}
		return p.reg.FixedType(int(digits.AsInt64()), int(scale.AsInt64())), nil
	}
	p.Backtrack(pos)

	return nil, p.NewError("expected a template type")
}

func (p *IdlTypeParser) optionalBound(evalConstExpr func() (DynData, error)) (int, bool, error) {
	pos := p.Location()
	if err := p.Punct("<"); err != nil {
		p.Backtrack(pos)
		return 0, false, nil
	}
	v, err := evalConstExpr()
	if err != nil {
		return 0, false, err
	}
	if err := p.Punct(">"); err != nil {
		return 0, false, p.Throw("expected '>' to close bound")
	}
	return int(v.AsInt64()), true, nil
}

// FullType matches a template type or a primitive. Scoped names of
// declared types are not matched here; idl_decl.go's declType, which owns
// the active Module, falls back to resolving them.
func (p *IdlTypeParser) FullType(evalConstExpr func() (DynData, error)) (*TypeDescriptor, error) {
	if td, err := p.TemplateType(evalConstExpr); err == nil {
		return td, nil
	} else if !isBacktracking(err) {
		return nil, err
	}
	if td, err := p.PrimitiveType(); err == nil {
		return td, nil
	} else if !isBacktracking(err) {
		return nil, err
	}
	return nil, p.NewError("expected a type")
}
