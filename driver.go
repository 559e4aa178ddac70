package idlc

import (
	"fmt"
	"os"
)

// ParseContext is the public result of a parse invocation (spec §6.1):
// a success flag, the root module of the registry, and the diagnostic
// list accumulated along the way.
type ParseContext struct {
	Success     bool
	Root        *Module
	Diagnostics []Diagnostic
	cfg         *Config
	reg         *TypeRegistry
}

func (c *ParseContext) addError(err error, span Span) {
	c.Success = false
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Severity: SeverityError, Err: err, Span: span})
}

func (c *ParseContext) addWarning(err error, span Span) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{Severity: SeverityWarning, Err: err, Span: span})
}

// ParserDriver owns a Config and preprocessor bridge, and exposes the
// public API from spec §6.1. Unlike the original's process-wide
// singleton factories, a ParserDriver is ordinary value the caller
// constructs and passes around explicitly (spec §9 Design Notes).
type ParserDriver struct {
	cfg *Config
	pre *Preprocessor
}

func NewParserDriver(cfg *Config) *ParserDriver {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &ParserDriver{cfg: cfg, pre: NewPreprocessor(cfg)}
}

// Parse implements spec §6.1.1/6.1.2: parse text into a fresh registry,
// or append into an existing ParseContext's registry when ctx is given.
func (d *ParserDriver) Parse(text string, ctx *ParseContext) *ParseContext {
	if ctx == nil {
		ctx = &ParseContext{cfg: d.cfg, reg: NewTypeRegistry(d.cfg)}
		ctx.Root = ctx.reg.Root
	}
	ctx.Success = true

	parser := NewIdlParser([]rune(text), "<input>", d.cfg, ctx.reg, nil)
	if err := parser.ParseAll(); err != nil {
		span := spanFromError(err)
		ctx.addError(err, span)
		log.Warnf("parse aborted: %v", err)
		return ctx
	}

	if d.cfg.GetBool("clear") {
		parser.pending.Reset()
	}
	return ctx
}

// ParseFile implements spec §6.1.3: read (and, if preprocess is on,
// preprocess) the file at path, then parse it.
func (d *ParserDriver) ParseFile(path string, ctx *ParseContext) (*ParseContext, error) {
	text, err := d.readAndPreprocess(path)
	if err != nil {
		return nil, err
	}
	return d.Parse(text, ctx), nil
}

func (d *ParserDriver) readAndPreprocess(path string) (string, error) {
	if !d.cfg.GetBool("preprocess") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return d.pre.PreprocessFile(path)
}

// Preprocess implements spec §6.1.4, exposing C1 alone.
func (d *ParserDriver) Preprocess(path string, includePaths []string) (string, error) {
	d.cfg.SetStringSlice("include_paths", includePaths)
	return d.pre.PreprocessFile(path)
}

// ParseFileNamed implements spec §6.1's fifth, targeted form: parse
// until fullyQualifiedTypeName has been registered, then stop
// cooperatively, per spec §4.2's "Cooperative-stop check".
func (d *ParserDriver) ParseFileNamed(path, fullyQualifiedTypeName string, includePaths []string, preprocessorCommand string) (*ParseContext, error) {
	if len(includePaths) > 0 {
		d.cfg.SetStringSlice("include_paths", includePaths)
	}
	if preprocessorCommand != "" {
		d.cfg.SetString("preprocessor_exec", preprocessorCommand)
	}

	text, err := d.readAndPreprocess(path)
	if err != nil {
		return nil, err
	}

	ctx := &ParseContext{cfg: d.cfg, reg: NewTypeRegistry(d.cfg)}
	ctx.Root = ctx.reg.Root
	ctx.Success = true

	found := false
	shouldContinue := func() bool {
		if found {
			return false
		}
		_, ok := ctx.Root.GetBuilder(fullyQualifiedTypeName)
		if ok {
			found = true
			return false
		}
		return true
	}

	parser := NewIdlParser([]rune(text), path, d.cfg, ctx.reg, shouldContinue)
	if err := parser.ParseAll(); err != nil {
		ctx.addError(err, spanFromError(err))
		return ctx, nil
	}
	if !found {
		ctx.addWarning(fmt.Errorf("type %q was never declared", fullyQualifiedTypeName), Span{})
	}
	return ctx, nil
}

func spanFromError(err error) Span {
	switch e := err.(type) {
	case *SyntaxError:
		return e.Span
	case *ResolveError:
		return e.Span
	case *RedefinitionError:
		return e.Span
	case *EvalTypeError:
		return e.Span
	case *EvalRangeError:
		return e.Span
	case *AnnotationParamError:
		return e.Span
	case *UnsupportedError:
		return e.Span
	default:
		return Span{}
	}
}
