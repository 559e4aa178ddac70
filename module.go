package idlc

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser implements Unicode-aware case folding for the und (locale
// independent) case mapping, used for ignore_case identifier lookups.
var foldCaser = cases.Fold()

// foldName applies ignore_case folding (spec §6.4's `ignore_case`
// option) when cfg requests it; otherwise the name passes through
// unchanged, keeping default lookups case-sensitive as required.
func foldName(cfg *Config, name string) string {
	if cfg != nil && cfg.GetBool("ignore_case") {
		return foldCaser.String(name)
	}
	return name
}

// Module is a named scope in the rooted tree described in spec §3/§4.5.
// Ownership is arena-style, per the spec's Design Notes: every Module is
// owned by exactly one parent (the root module has none), there is no
// reference counting, and cross-references are name-based lookups —
// not shared_ptr, as IdlModule.hpp uses.
type Module struct {
	cfg  *Config
	name string

	outer *Module
	inner map[string]*Module

	structs   map[string]*TypeDescriptor
	unions    map[string]*TypeDescriptor
	aliases   map[string]*TypeDescriptor
	enums     map[string]*TypeDescriptor
	bitsets   map[string]*TypeDescriptor
	bitmasks  map[string]*TypeDescriptor
	constants map[string]DynData
	fromEnum  map[string]bool

	annotations map[string]*AnnotationDescriptor
}

// NewRootModule creates the unnamed root module, seeded with the
// built-in annotation table (spec §3 "Annotation descriptor": "Built-in
// annotations ... are constructed on module creation").
func NewRootModule(cfg *Config) *Module {
	m := newModule(cfg, nil, "")
	for name, desc := range BuiltinAnnotations() {
		m.annotations[name] = desc
	}
	for name, value := range builtinEnumConstants() {
		m.constants[name] = NewUInt64Data(value, Span{})
	}
	return m
}

// builtinEnumConstants seeds the literal names the @extensibility and
// @try_construct built-in annotations accept as arguments (spec §4.4),
// e.g. `@extensibility(MUTABLE)`. The original IdlParser resolves these
// against its own ExtensibilityKind/TryConstructKind enums; here they're
// ordinary root-module constants matching those enums' iota order.
func builtinEnumConstants() map[string]uint64 {
	return map[string]uint64{
		"FINAL":       uint64(ExtensibilityFinal),
		"APPENDABLE":  uint64(ExtensibilityAppendable),
		"MUTABLE":     uint64(ExtensibilityMutable),
		"DISCARD":     uint64(TryConstructDiscard),
		"USE_DEFAULT": uint64(TryConstructUseDefault),
		"TRIM":        uint64(TryConstructTrim),
	}
}

func newModule(cfg *Config, outer *Module, name string) *Module {
	return &Module{
		cfg:         cfg,
		name:        name,
		outer:       outer,
		inner:       make(map[string]*Module),
		structs:     make(map[string]*TypeDescriptor),
		unions:      make(map[string]*TypeDescriptor),
		aliases:     make(map[string]*TypeDescriptor),
		enums:       make(map[string]*TypeDescriptor),
		bitsets:     make(map[string]*TypeDescriptor),
		bitmasks:    make(map[string]*TypeDescriptor),
		constants:   make(map[string]DynData),
		fromEnum:    make(map[string]bool),
		annotations: make(map[string]*AnnotationDescriptor),
	}
}

// Scope returns the module's fully-qualified `::`-separated name, per
// IdlModule.hpp's `scope()`.
func (m *Module) Scope() string {
	if m.outer != nil && m.outer.Scope() != "" {
		return m.outer.Scope() + "::" + m.name
	}
	return m.name
}

func (m *Module) Name() string  { return m.name }
func (m *Module) Outer() *Module { return m.outer }

// Submodule returns (creating if absent) the named nested module, the
// Go port's stand-in for IdlModule.hpp's commented-out
// create_submodule/submodule pair (reinstated here since module_dcl
// re-entrance is required by spec §4.2).
func (m *Module) Submodule(name string) *Module {
	key := foldName(m.cfg, name)
	if child, ok := m.inner[key]; ok {
		return child
	}
	child := newModule(m.cfg, m, name)
	m.inner[key] = child
	return child
}

// HasSymbol reports whether ident names an entity in this module, or
// (when extend is true) any enclosing module. Ports has_symbol exactly.
func (m *Module) HasSymbol(ident string, extend bool) bool {
	key := foldName(m.cfg, ident)
	hasIt := false
	if _, ok := m.structs[key]; ok {
		hasIt = true
	} else if _, ok := m.unions[key]; ok {
		hasIt = true
	} else if _, ok := m.aliases[key]; ok {
		hasIt = true
	} else if _, ok := m.constants[key]; ok {
		hasIt = true
	} else if _, ok := m.enums[key]; ok {
		hasIt = true
	} else if _, ok := m.bitsets[key]; ok {
		hasIt = true
	} else if _, ok := m.bitmasks[key]; ok {
		hasIt = true
	} else if _, ok := m.inner[key]; ok {
		hasIt = true
	}

	if hasIt {
		return true
	}
	if extend && m.outer != nil {
		return m.outer.HasSymbol(ident, extend)
	}
	return false
}

// resolved is the Go analogue of IdlModule.hpp's PairModuleSymbol.
type resolved struct {
	module *Module
	name   string
}

// ResolveScope implements spec §4.5's scoped-name resolution algorithm,
// replicating resolve_scope from IdlModule.hpp verbatim, including the
// first-segment-only self-qualification check the Open Question in
// spec §9 asks implementers to either fix or replicate faithfully —
// this replicates it faithfully (see SPEC_FULL.md §13.2).
func (m *Module) ResolveScope(name string) (*Module, string, bool) {
	r := m.resolveScope(name, name, true)
	if r.module == nil {
		return nil, r.name, false
	}
	return r.module, r.name, true
}

func (m *Module) resolveScope(symbolName, originalName string, first bool) resolved {
	if !first && symbolName == originalName {
		// Revisit guard: the recursion looped back without progress.
		return resolved{nil, originalName}
	}

	name := symbolName
	if strings.Contains(symbolName, "::") {
		if strings.HasPrefix(symbolName, "::") {
			if m.outer == nil {
				return m.resolveScope(symbolName[2:], originalName, false)
			}
			return m.outer.resolveScope(originalName, originalName, true)
		}

		sepIdx := strings.Index(symbolName, "::")
		innerScope := symbolName[:sepIdx]

		if innerScope == m.name {
			innestScope := innerScope
			if idx := strings.Index(innerScope, "::"); idx >= 0 {
				innestScope = innerScope[:idx]
			}
			if child, ok := m.inner[foldName(m.cfg, innestScope)]; ok {
				innerName := symbolName[sepIdx+2:]
				if result := child.resolveScope(innerName, originalName, false); result.module != nil {
					return result
				}
			}
		}

		if child, ok := m.inner[foldName(m.cfg, innerScope)]; ok {
			innerName := symbolName[sepIdx+2:]
			return child.resolveScope(innerName, originalName, false)
		}

		if m.outer != nil && first {
			return m.outer.resolveScope(originalName, originalName, true)
		}

		return resolved{nil, originalName}
	}

	if m.HasSymbol(name, false) {
		return resolved{m, name}
	}

	if m.outer != nil {
		return m.outer.resolveScope(symbolName, originalName, true)
	}

	return resolved{nil, originalName}
}

func checkInsertableName(name string) error {
	if strings.Contains(name, "::") {
		return fmt.Errorf("cannot insert scoped name %q directly into a module", name)
	}
	return nil
}

// redefinitionOutcome centralizes the orthogonal ignore_redefinition /
// replace semantics described in SPEC_FULL.md §13.4: replace is only
// ever passed explicitly by forward-declaration resolution, never
// implied by ignore_redefinition.
func (m *Module) redefinitionOutcome(name string, exists bool, replace bool) (proceed bool, warn bool, err error) {
	if !exists {
		return true, false, nil
	}
	if replace {
		return true, false, nil
	}
	if m.cfg != nil && m.cfg.GetBool("ignore_redefinition") {
		log.Warnf("%q already declared in module %q, ignoring redefinition", name, m.Scope())
		return false, true, nil
	}
	return false, false, &RedefinitionError{Name: name, Module: m.Scope()}
}

// InsertStruct registers a struct builder under name, honoring
// replace/ignore_redefinition exactly like IdlModule.hpp's structure().
func (m *Module) InsertStruct(name string, td *TypeDescriptor, replace bool) error {
	return m.insertType(m.structs, name, td, replace, "struct")
}

func (m *Module) InsertUnion(name string, td *TypeDescriptor, replace bool) error {
	return m.insertType(m.unions, name, td, replace, "union")
}

func (m *Module) InsertAlias(name string, td *TypeDescriptor, replace bool) error {
	return m.insertType(m.aliases, name, td, replace, "alias")
}

func (m *Module) InsertEnum(name string, td *TypeDescriptor, replace bool) error {
	return m.insertType(m.enums, name, td, replace, "enum")
}

func (m *Module) InsertBitset(name string, td *TypeDescriptor, replace bool) error {
	return m.insertType(m.bitsets, name, td, replace, "bitset")
}

func (m *Module) InsertBitmask(name string, td *TypeDescriptor, replace bool) error {
	return m.insertType(m.bitmasks, name, td, replace, "bitmask")
}

func (m *Module) insertType(table map[string]*TypeDescriptor, name string, td *TypeDescriptor, replace bool, kind string) error {
	if err := checkInsertableName(name); err != nil {
		return err
	}
	key := foldName(m.cfg, name)
	_, exists := table[key]
	proceed, _, err := m.redefinitionOutcome(name, exists, replace)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}
	namespace := m.Scope()
	if namespace != "" {
		td.Name = namespace + "::" + name
	} else {
		td.Name = name
	}
	table[key] = td
	log.Tracef("registered %s %q", kind, td.Name)
	return nil
}

// InsertConstant registers a constant, tracking whether it was
// synthesized by an enum declaration (the from_enum_ bookkeeping from
// spec §12 SUPPLEMENTED FEATURES).
func (m *Module) InsertConstant(name string, value DynData, replace bool, fromEnumeration bool) error {
	if err := checkInsertableName(name); err != nil {
		return err
	}
	key := foldName(m.cfg, name)
	_, exists := m.constants[key]
	proceed, _, err := m.redefinitionOutcome(name, exists, replace)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}
	m.constants[key] = value
	if fromEnumeration {
		m.fromEnum[key] = true
	}
	return nil
}

// IsFromEnum reports whether a constant was created as a side effect
// of an enum declaration rather than a direct const-dcl.
func (m *Module) IsFromEnum(name string) bool {
	return m.fromEnum[foldName(m.cfg, name)]
}

// InsertAnnotation registers a user-declared annotation, warning (not
// erroring) on a duplicate name per spec §12's "AnnotationList seeds
// and duplicate-declaration warning".
func (m *Module) InsertAnnotation(name string, desc *AnnotationDescriptor) {
	key := foldName(m.cfg, name)
	if _, exists := m.annotations[key]; exists {
		log.Warnf("annotation %q already declared, ignoring redeclaration", name)
		return
	}
	m.annotations[key] = desc
}

func (m *Module) LookupAnnotation(name string) (*AnnotationDescriptor, bool) {
	d, ok := m.annotations[foldName(m.cfg, name)]
	return d, ok
}

func (m *Module) HasStructure(name string) bool { _, ok := m.lookup(m.structs, name); return ok }
func (m *Module) HasUnion(name string) bool     { _, ok := m.lookup(m.unions, name); return ok }
func (m *Module) HasAlias(name string) bool     { _, ok := m.lookup(m.aliases, name); return ok }
func (m *Module) HasEnum(name string) bool      { _, ok := m.lookup(m.enums, name); return ok }
func (m *Module) HasBitset(name string) bool    { _, ok := m.lookup(m.bitsets, name); return ok }
func (m *Module) HasBitmask(name string) bool   { _, ok := m.lookup(m.bitmasks, name); return ok }

func (m *Module) Structure(name string) (*TypeDescriptor, bool) { return m.lookup(m.structs, name) }
func (m *Module) Union(name string) (*TypeDescriptor, bool)     { return m.lookup(m.unions, name) }
func (m *Module) Alias(name string) (*TypeDescriptor, bool)     { return m.lookup(m.aliases, name) }
func (m *Module) Enum(name string) (*TypeDescriptor, bool)      { return m.lookup(m.enums, name) }
func (m *Module) Bitset(name string) (*TypeDescriptor, bool)    { return m.lookup(m.bitsets, name) }
func (m *Module) Bitmask(name string) (*TypeDescriptor, bool)   { return m.lookup(m.bitmasks, name) }

func (m *Module) lookup(table map[string]*TypeDescriptor, name string) (*TypeDescriptor, bool) {
	mod, local, ok := m.ResolveScope(name)
	if !ok {
		return nil, false
	}
	td, ok := table[foldName(mod.cfg, local)]
	return td, ok
}

// HasConstant and Constant resolve through scope first, like
// has_constant/constant in IdlModule.hpp.
func (m *Module) HasConstant(name string) bool {
	_, ok := m.Constant(name)
	return ok
}

func (m *Module) Constant(name string) (DynData, bool) {
	mod, local, ok := m.ResolveScope(name)
	if !ok {
		return DynData{}, false
	}
	v, ok := mod.constants[foldName(mod.cfg, local)]
	return v, ok
}

// GetBuilder returns a tagged view across every per-category table,
// porting IdlModule.hpp's get_builder. When name is absolute (leading
// `::`), the returned descriptor's Name is rewritten to the absolute
// form, matching the original's scope-ambiguity-solver rename.
func (m *Module) GetBuilder(name string) (*TypeDescriptor, bool) {
	mod, local, ok := m.ResolveScope(name)
	if !ok {
		return nil, false
	}

	var td *TypeDescriptor
	if v, ok := mod.enums[foldName(mod.cfg, local)]; ok {
		td = v
	}
	if v, ok := mod.structs[foldName(mod.cfg, local)]; ok {
		td = v
	}
	if v, ok := mod.unions[foldName(mod.cfg, local)]; ok {
		td = v
	}
	if v, ok := mod.aliases[foldName(mod.cfg, local)]; ok {
		td = v
	}
	if v, ok := mod.bitsets[foldName(mod.cfg, local)]; ok {
		td = v
	}
	if v, ok := mod.bitmasks[foldName(mod.cfg, local)]; ok {
		td = v
	}
	if td == nil {
		return nil, false
	}

	if strings.HasPrefix(name, "::") {
		td.Name = name
	}
	return td, true
}
