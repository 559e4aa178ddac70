package idlc

// IdlParser glues every grammar layer together and implements spec
// §4.2.6's top-level rule: one or more `definition ;` forms, with the
// cooperative-stop check from spec §4.2/§5 consulted after each one.
type IdlParser struct {
	*IdlDeclParser
	shouldContinue func() bool
}

// NewIdlParser builds a parser over input that registers declarations
// into reg.Root. shouldContinue is consulted after every top-level
// definition; a nil value always continues.
func NewIdlParser(input []rune, file string, cfg *Config, reg *TypeRegistry, shouldContinue func() bool) *IdlParser {
	if shouldContinue == nil {
		shouldContinue = func() bool { return true }
	}
	return &IdlParser{
		IdlDeclParser:  NewIdlDeclParser(input, file, cfg, reg),
		shouldContinue: shouldContinue,
	}
}

// ParseAll drives the parser to completion or to the first fatal error,
// honoring the cooperative-stop flag: once it flips false, remaining
// input is left unconsumed and ParseAll returns successfully with the
// partial registry (spec §5 "Cancellation"). A grammar mismatch that
// reaches this level is returned as a *SyntaxError.
func (p *IdlParser) ParseAll() error {
	p.Skip()
	for {
		p.Skip()
		if p.Peek() == eof {
			return nil
		}
		if err := p.Definition(); err != nil {
			if bt, ok := err.(*backtrackingError); ok {
				return &SyntaxError{Expected: bt.Expected, Message: bt.Message, Span: bt.Span}
			}
			return err
		}
		p.pending.Reset()
		if !p.shouldContinue() {
			return nil
		}
	}
}
