package idlc

// AnnotationApplications matches zero or more `@name(params)` forms
// (spec §4.2.5), staging each into the pending-annotation queue under
// target. Unknown annotation names are a non-fatal warning (spec §7)
// and are skipped rather than aborting the parse.
func (p *IdlDeclParser) AnnotationApplications(target AnnotationTargetKind) error {
	for {
		p.Skip()
		pos := p.Location()
		if err := p.Punct("@"); err != nil {
			p.Backtrack(pos)
			return nil
		}
		// `@annotation Name { ... }` declares a new annotation type, not
		// an application of one; leave it for Definition's AnnotationDcl.
		namePos := p.Location()
		if p.Keyword("annotation") == nil {
			p.Backtrack(pos)
			return nil
		}
		p.Backtrack(namePos)

		name, err := p.ScopedName()
		if err != nil {
			return p.Throw("expected annotation name after '@'")
		}
		app, err := p.annotationParams()
		if err != nil {
			return err
		}
		app.Name = name
		app.Span = spanOf(p.IdlLexer, pos)

		desc, ok := p.mod.LookupAnnotation(name)
		if !ok {
			log.Warnf("unknown annotation %q, ignoring application @ %s", name, app.Span)
			continue
		}
		if err := p.pending.Stage(target, "", desc, app); err != nil {
			return err
		}
	}
}

// annotationParams matches an optional `(...)` parameter list: either a
// single bare const_expr (positional shorthand) or one-or-more
// `name = const_expr` pairs (spec §4.4 "Parameter-value resolution").
func (p *IdlDeclParser) annotationParams() (AnnotationApplication, error) {
	app := AnnotationApplication{Keyword: make(map[string]DynData)}

	pos := p.Location()
	if err := p.Punct("("); err != nil {
		p.Backtrack(pos)
		return app, nil
	}

	kwPos := p.Location()
	if first, err := p.Identifier(); err == nil {
		if p.Punct("=") == nil {
			v, err := p.ConstExpr()
			if err != nil {
				return app, err
			}
			app.Keyword[first] = v
			for p.Punct(",") == nil {
				name, err := p.Identifier()
				if err != nil {
					return app, p.Throw("expected parameter name")
				}
				if err := p.Punct("="); err != nil {
					return app, p.Throw("expected '=' in annotation parameter")
				}
				val, err := p.ConstExpr()
				if err != nil {
					return app, err
				}
				app.Keyword[name] = val
			}
			if err := p.Punct(")"); err != nil {
				return app, p.Throw("expected ')' to close annotation parameters")
			}
			return app, nil
		}
	}
	p.Backtrack(kwPos)

	v, err := p.ConstExpr()
	if err != nil {
		return app, err
	}
	app.Positional = []DynData{v}
	if err := p.Punct(")"); err != nil {
		return app, p.Throw("expected ')' to close annotation parameters")
	}
	return app, nil
}
