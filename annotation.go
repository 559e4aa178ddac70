package idlc

import "fmt"

// AnnotationTargetKind classifies what a pending `@name(...)` application
// will eventually attach to, ported from AnnotationTargetKind in
// IdlParserContext.hpp.
type AnnotationTargetKind int

const (
	AnnotationTargetType AnnotationTargetKind = iota
	AnnotationTargetMember
	AnnotationTargetDiscriminator
)

func (k AnnotationTargetKind) String() string {
	switch k {
	case AnnotationTargetType:
		return "type"
	case AnnotationTargetMember:
		return "member"
	case AnnotationTargetDiscriminator:
		return "discriminator"
	default:
		return "unknown"
	}
}

// AnnotationMember is one typed, possibly-defaulted parameter slot of
// an AnnotationDescriptor (spec §3 "Annotation descriptor").
type AnnotationMember struct {
	Name       string
	Type       *TypeDescriptor
	Default    *DynData
	HasDefault bool
}

// AnnotationDescriptor is a named record of ordered typed parameters,
// ported from the Annotation class in IdlAnnotations.hpp (minus the
// enum/constant/alias body registration, which the parser handles by
// giving an annotation's body its own child Module).
type AnnotationDescriptor struct {
	Name      string
	Members   []AnnotationMember
	Builtin   bool
	Body      *Module // nested module for @annotation { enum/const/typedef ... } bodies
}

func (a *AnnotationDescriptor) member(name string) (*AnnotationMember, int) {
	for i := range a.Members {
		if a.Members[i].Name == name {
			return &a.Members[i], i
		}
	}
	return nil, -1
}

// AnnotationApplication is one `@name(args)` occurrence as matched by
// idl_annotation_syntax.go, before its parameters are resolved against
// the declared annotation's members.
type AnnotationApplication struct {
	Name          string
	Positional    []DynData
	Keyword       map[string]DynData
	Span          Span
}

// ResolveParameters implements spec §4.4's "Parameter-value resolution":
// single bare positional → the annotation's one member; otherwise
// keyword-only, filling missing members from their defaults.
func ResolveParameters(desc *AnnotationDescriptor, app AnnotationApplication) (map[string]DynData, error) {
	resolved := make(map[string]DynData)

	if len(app.Positional) > 0 {
		if len(app.Positional) > 1 || len(app.Keyword) > 0 {
			return nil, &AnnotationParamError{Annotation: desc.Name, Message: "positional arguments only allowed as single-member shorthand", Span: app.Span}
		}
		if len(desc.Members) != 1 {
			return nil, &AnnotationParamError{Annotation: desc.Name, Message: "positional shorthand requires exactly one member", Span: app.Span}
		}
		resolved[desc.Members[0].Name] = app.Positional[0]
	} else {
		for name, val := range app.Keyword {
			m, _ := desc.member(name)
			if m == nil {
				return nil, &AnnotationParamError{Annotation: desc.Name, Message: fmt.Sprintf("unknown member %q", name), Span: app.Span}
			}
			if _, dup := resolved[name]; dup {
				return nil, &AnnotationParamError{Annotation: desc.Name, Message: fmt.Sprintf("duplicate member %q", name), Span: app.Span}
			}
			resolved[name] = val
		}
	}

	for _, m := range desc.Members {
		if _, ok := resolved[m.Name]; ok {
			continue
		}
		if m.HasDefault {
			resolved[m.Name] = *m.Default
			continue
		}
		return nil, &AnnotationParamError{Annotation: desc.Name, Message: fmt.Sprintf("missing required member %q", m.Name), Span: app.Span}
	}

	return resolved, nil
}

// PendingAnnotations is the parser-scoped staging area from spec §3
// "Pending-annotation queue": a type-level slot, a discriminator-level
// slot, and a member-level slot keyed by pending member name. Ported
// from AnnotationsManager's pending_type_annotations_/
// pending_discriminator_annotations_/pending_member_annotations_.
type PendingAnnotations struct {
	Type          []pendingEntry
	Discriminator []pendingEntry
	Member        map[string][]pendingEntry

	// awaitingName holds member-targeted applications staged before the
	// declarator that will own them has been parsed (the common case:
	// `@id(7) @key long k;` sees both annotations before the identifier
	// `k`). BindMemberName moves them into Member once the name is known.
	awaitingName []pendingEntry
}

type pendingEntry struct {
	Descriptor *AnnotationDescriptor
	App        AnnotationApplication
}

func NewPendingAnnotations() *PendingAnnotations {
	return &PendingAnnotations{Member: make(map[string][]pendingEntry)}
}

func (p *PendingAnnotations) Reset() {
	p.Type = nil
	p.Discriminator = nil
	p.Member = make(map[string][]pendingEntry)
	p.awaitingName = nil
}

// Stage records one application under the given target, porting
// update_pending_annotations's three-way switch. A member-targeted
// application with memberName == "" is held in awaitingName until
// BindMemberName supplies the declarator identifier.
func (p *PendingAnnotations) Stage(target AnnotationTargetKind, memberName string, desc *AnnotationDescriptor, app AnnotationApplication) error {
	entry := pendingEntry{Descriptor: desc, App: app}
	switch target {
	case AnnotationTargetType:
		p.Type = append(p.Type, entry)
	case AnnotationTargetDiscriminator:
		p.Discriminator = append(p.Discriminator, entry)
	case AnnotationTargetMember:
		if memberName == "" {
			p.awaitingName = append(p.awaitingName, entry)
			return nil
		}
		p.Member[memberName] = append(p.Member[memberName], entry)
	}
	return nil
}

// BindMemberName moves every member-targeted application staged since
// the last bind into Member[name], ready for DrainMember.
func (p *PendingAnnotations) BindMemberName(name string) {
	if len(p.awaitingName) == 0 {
		return
	}
	p.Member[name] = append(p.Member[name], p.awaitingName...)
	p.awaitingName = nil
}

// DrainType returns and clears the type-level queue, applying each
// entry's resolved parameters via apply.
func (p *PendingAnnotations) DrainType(apply func(desc *AnnotationDescriptor, args map[string]DynData) error) error {
	for _, e := range p.Type {
		args, err := ResolveParameters(e.Descriptor, e.App)
		if err != nil {
			return err
		}
		if err := apply(e.Descriptor, args); err != nil {
			return err
		}
	}
	p.Type = nil
	return nil
}

func (p *PendingAnnotations) DrainDiscriminator(apply func(desc *AnnotationDescriptor, args map[string]DynData) error) error {
	for _, e := range p.Discriminator {
		args, err := ResolveParameters(e.Descriptor, e.App)
		if err != nil {
			return err
		}
		if err := apply(e.Descriptor, args); err != nil {
			return err
		}
	}
	p.Discriminator = nil
	return nil
}

func (p *PendingAnnotations) DrainMember(name string, apply func(desc *AnnotationDescriptor, args map[string]DynData) error) error {
	for _, e := range p.Member[name] {
		args, err := ResolveParameters(e.Descriptor, e.App)
		if err != nil {
			return err
		}
		if err := apply(e.Descriptor, args); err != nil {
			return err
		}
	}
	delete(p.Member, name)
	return nil
}

// BuiltinAnnotations returns the table from spec §4.4, constructed
// fresh for every root module (spec §3: "Built-in annotations ... are
// constructed on module creation and cannot be deleted").
func BuiltinAnnotations() map[string]*AnnotationDescriptor {
	boolType := &TypeDescriptor{Name: "bool", Category: CategoryPrimitive, PrimitiveKind: DynKindBool}
	uint32Type := &TypeDescriptor{Name: "uint32", Category: CategoryPrimitive, PrimitiveKind: DynKindUInt32}
	uint16Type := &TypeDescriptor{Name: "uint16", Category: CategoryPrimitive, PrimitiveKind: DynKindUInt16}
	anyType := &TypeDescriptor{Name: "any", Category: CategoryPrimitive, PrimitiveKind: DynKindUndefined}
	extKind := &TypeDescriptor{Name: "ExtensibilityKind", Category: CategoryEnum}
	tryConstructKind := &TypeDescriptor{Name: "TryConstructKind", Category: CategoryEnum}

	trueDefault := NewBoolData(true, Span{})

	table := map[string]*AnnotationDescriptor{
		"id":            {Name: "id", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: uint32Type}}},
		"optional":      {Name: "optional", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: boolType, Default: &trueDefault, HasDefault: true}}},
		"position":      {Name: "position", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: uint16Type}}},
		"extensibility": {Name: "extensibility", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: extKind}}},
		"final":         {Name: "final", Builtin: true},
		"appendable":    {Name: "appendable", Builtin: true},
		"mutable":       {Name: "mutable", Builtin: true},
		"key":           {Name: "key", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: boolType, Default: &trueDefault, HasDefault: true}}},
		"default_literal": {Name: "default_literal", Builtin: true},
		"default":       {Name: "default", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: anyType}}},
		"bit_bound":     {Name: "bit_bound", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: uint16Type}}},
		"external":      {Name: "external", Builtin: true},
		"nested":        {Name: "nested", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: boolType, Default: &trueDefault, HasDefault: true}}},
		"try_construct": {Name: "try_construct", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: tryConstructKind}}},
		"value":         {Name: "value", Builtin: true, Members: []AnnotationMember{{Name: "value", Type: anyType}}},
	}
	return table
}
