package idlc

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// IdlLexer embeds BaseParser and adds layer-1 lexical rules from spec
// §4.2.1: whitespace/comments, literals, identifiers. Every other
// grammar layer embeds IdlLexer (directly or transitively).
type IdlLexer struct {
	*BaseParser
	cfg *Config
}

func NewIdlLexer(input []rune, file string, cfg *Config) *IdlLexer {
	return &IdlLexer{BaseParser: NewBaseParser(input, file), cfg: cfg}
}

// Skip consumes whitespace, line comments (`//`), block comments
// (`/* */`), and preprocessor line directives (`#...` to end of line,
// left behind by a preprocess=false pass-through or a `#line` marker
// surviving cpp).
func (l *IdlLexer) Skip() {
	for {
		switch l.Peek() {
		case ' ', '\t', '\r', '\n':
			l.Any()
		case '/':
			pos := l.Location()
			l.Any()
			switch l.Peek() {
			case '/':
				for l.Peek() != '\n' && l.Peek() != eof {
					l.Any()
				}
			case '*':
				l.Any()
				for {
					if l.Peek() == eof {
						break
					}
					if l.Peek() == '*' {
						l.Any()
						if l.Peek() == '/' {
							l.Any()
							break
						}
						continue
					}
					l.Any()
				}
			default:
				l.Backtrack(pos)
				return
			}
		case '#':
			for l.Peek() != '\n' && l.Peek() != eof {
				l.Any()
			}
		default:
			return
		}
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c rune) bool    { return c >= '0' && c <= '9' }
func isOctDigit(c rune) bool { return c >= '0' && c <= '7' }
func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

var idlKeywords = map[string]bool{
	"module": true, "const": true, "typedef": true, "struct": true, "union": true,
	"enum": true, "bitset": true, "bitmask": true, "native": true, "switch": true,
	"case": true, "default": true, "sequence": true, "string": true, "wstring": true,
	"fixed": true, "map": true, "boolean": true, "char": true, "wchar": true,
	"octet": true, "short": true, "long": true, "unsigned": true, "float": true,
	"double": true, "int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true, "TRUE": true,
	"FALSE": true, "in": true, "out": true, "inout": true, "interface": true,
	"exception": true, "valuetype": true, "local": true, "abstract": true,
	"custom": true, "public": true, "private": true, "readonly": true,
	"attribute": true, "oneway": true, "raises": true, "context": true,
	"factory": true, "supports": true, "truncatable": true, "import": true,
	"annotation": true,
}

// Identifier matches a plain (unscoped) IDL identifier. It rejects IDL
// keywords unless allow_keyword_identifiers (spec §6.3) is set, which it
// checks itself.
func (l *IdlLexer) Identifier() (string, error) {
	l.Skip()
	pos := l.Location()
	if !isIdentStart(l.Peek()) {
		return "", l.NewError("expected identifier")
	}
	var b strings.Builder
	c, _ := l.Any()
	b.WriteRune(c)
	for isIdentCont(l.Peek()) {
		c, _ := l.Any()
		b.WriteRune(c)
	}
	name := b.String()
	if idlKeywords[name] && !l.cfg.GetBool("allow_keyword_identifiers") {
		l.Backtrack(pos)
		return "", l.NewError(fmt.Sprintf("%q is a reserved keyword", name))
	}
	return name, nil
}

// ScopedName matches `[::]ident(::ident)*`.
func (l *IdlLexer) ScopedName() (string, error) {
	l.Skip()
	var b strings.Builder
	if l.Peek() == ':' {
		pos := l.Location()
		l.Any()
		if l.Peek() != ':' {
			l.Backtrack(pos)
		} else {
			l.Any()
			b.WriteString("::")
		}
	}
	first, err := l.Identifier()
	if err != nil {
		return "", err
	}
	b.WriteString(first)
	for {
		pos := l.Location()
		l.Skip()
		if l.Peek() != ':' {
			l.Backtrack(pos)
			break
		}
		l.Any()
		if l.Peek() != ':' {
			l.Backtrack(pos)
			break
		}
		l.Any()
		next, err := l.Identifier()
		if err != nil {
			l.Backtrack(pos)
			break
		}
		b.WriteString("::")
		b.WriteString(next)
	}
	return b.String(), nil
}

// Keyword matches an exact identifier-shaped keyword, ensuring it is
// not just a prefix of a longer identifier.
func (l *IdlLexer) Keyword(kw string) error {
	l.Skip()
	pos := l.Location()
	for _, want := range kw {
		if _, err := l.ExpectRune(want); err != nil {
			l.Backtrack(pos)
			return l.NewError(fmt.Sprintf("expected keyword %q", kw))
		}
	}
	if isIdentCont(l.Peek()) {
		l.Backtrack(pos)
		return l.NewError(fmt.Sprintf("expected keyword %q", kw))
	}
	return nil
}

// Punct matches exact punctuation/operator text (`::`, `<<`, `;`, ...).
func (l *IdlLexer) Punct(s string) error {
	l.Skip()
	pos := l.Location()
	if _, err := l.ExpectLiteral(s); err != nil {
		l.Backtrack(pos)
		return l.NewError(fmt.Sprintf("expected %q", s))
	}
	return nil
}

// BoolLiteral matches TRUE/FALSE.
func (l *IdlLexer) BoolLiteral() (DynData, error) {
	l.Skip()
	pos := l.Location()
	if err := l.Keyword("TRUE"); err == nil {
		return NewBoolData(true, spanOf(l, pos)), nil
	}
	l.Backtrack(pos)
	if err := l.Keyword("FALSE"); err == nil {
		return NewBoolData(false, spanOf(l, pos)), nil
	}
	l.Backtrack(pos)
	return DynData{}, l.NewError("expected boolean literal")
}

func spanOf(l *IdlLexer, start Location) Span {
	return Span{Start: start, End: l.Location()}
}

// IntLiteral matches decimal, octal, or hex integer literals (spec
// §4.2.1), accumulating as uint64 per §4.3's "Numeric literal parsing":
// the literal's sign is never consumed here, only unary `-` later.
func (l *IdlLexer) IntLiteral() (DynData, error) {
	l.Skip()
	start := l.Location()

	if l.Peek() == '0' {
		pos := l.Location()
		l.Any()
		if l.Peek() == 'x' || l.Peek() == 'X' {
			l.Any()
			digitsStart := l.Location().Cursor
			var b strings.Builder
			for isHexDigit(l.Peek()) {
				c, _ := l.Any()
				b.WriteRune(c)
			}
			if b.Len() == 0 {
				l.Backtrack(pos)
				return DynData{}, l.NewError("expected hex digits")
			}
			_ = digitsStart
			v, _ := strconv.ParseUint(b.String(), 16, 64)
			return NewUInt64Data(v, spanOf(l, start)), nil
		}
		var b strings.Builder
		for isOctDigit(l.Peek()) {
			c, _ := l.Any()
			b.WriteRune(c)
		}
		if b.Len() == 0 {
			// bare "0"
			return NewUInt64Data(0, spanOf(l, start)), nil
		}
		v, _ := strconv.ParseUint(b.String(), 8, 64)
		return NewUInt64Data(v, spanOf(l, start)), nil
	}

	if !isDigit(l.Peek()) {
		return DynData{}, l.NewError("expected integer literal")
	}
	var b strings.Builder
	for isDigit(l.Peek()) {
		c, _ := l.Any()
		b.WriteRune(c)
	}
	v, err := strconv.ParseUint(b.String(), 10, 64)
	if err != nil {
		return DynData{}, l.NewError("integer literal out of range")
	}
	return NewUInt64Data(v, spanOf(l, start)), nil
}

// FloatLiteral matches float and fixed-point literals (spec §4.2.1):
// digits, a decimal point (possibly bare-leading-dot), optional
// exponent, and an optional `d`/`D` fixed-point suffix. Per spec §9's
// Open Question on fixed/float tagging, both forms accumulate as the
// same float128-kind operand here (SPEC_FULL.md §13.3).
func (l *IdlLexer) FloatLiteral() (DynData, error) {
	l.Skip()
	start := l.Location()
	pos := l.Location()

	var b strings.Builder
	for isDigit(l.Peek()) {
		c, _ := l.Any()
		b.WriteRune(c)
	}
	hasIntPart := b.Len() > 0

	hasDot := false
	if l.Peek() == '.' {
		hasDot = true
		c, _ := l.Any()
		b.WriteRune(c)
		for isDigit(l.Peek()) {
			c, _ := l.Any()
			b.WriteRune(c)
		}
	}

	if !hasDot && !hasIntPart {
		l.Backtrack(pos)
		return DynData{}, l.NewError("expected float literal")
	}

	hasExp := false
	if l.Peek() == 'e' || l.Peek() == 'E' {
		expPos := l.Location()
		var eb strings.Builder
		c, _ := l.Any()
		eb.WriteRune(c)
		if l.Peek() == '+' || l.Peek() == '-' {
			c, _ := l.Any()
			eb.WriteRune(c)
		}
		digits := 0
		for isDigit(l.Peek()) {
			c, _ := l.Any()
			eb.WriteRune(c)
			digits++
		}
		if digits == 0 {
			l.Backtrack(expPos)
		} else {
			b.WriteString(eb.String())
			hasExp = true
		}
	}

	isFixed := false
	if l.Peek() == 'd' || l.Peek() == 'D' {
		l.Any()
		isFixed = true
	}

	if !hasDot && !hasExp && !isFixed {
		l.Backtrack(pos)
		return DynData{}, l.NewError("expected float literal")
	}

	text := b.String()
	f, _, err := big.ParseFloat(text, 10, 128, big.ToNearestEven)
	if err != nil {
		return DynData{}, l.NewError("malformed float literal")
	}
	return NewFloat128Data(f, spanOf(l, start)), nil
}

var escapeMap = map[rune]rune{
	'n': '\n', 't': '\t', 'v': '\v', 'b': '\b', 'r': '\r', 'f': '\f', 'a': '\a',
	'\\': '\\', '?': '?', '\'': '\'', '"': '"',
}

func (l *IdlLexer) escapeSequence() (rune, error) {
	if _, err := l.ExpectRune('\\'); err != nil {
		return 0, err
	}
	c := l.Peek()
	if r, ok := escapeMap[c]; ok {
		l.Any()
		return r, nil
	}
	switch {
	case isOctDigit(c):
		var b strings.Builder
		for i := 0; i < 3 && isOctDigit(l.Peek()); i++ {
			r, _ := l.Any()
			b.WriteRune(r)
		}
		v, _ := strconv.ParseInt(b.String(), 8, 32)
		return rune(v), nil
	case c == 'x':
		l.Any()
		var b strings.Builder
		for i := 0; i < 2 && isHexDigit(l.Peek()); i++ {
			r, _ := l.Any()
			b.WriteRune(r)
		}
		v, _ := strconv.ParseInt(b.String(), 16, 32)
		return rune(v), nil
	case c == 'u':
		l.Any()
		var b strings.Builder
		for i := 0; i < 4 && isHexDigit(l.Peek()); i++ {
			r, _ := l.Any()
			b.WriteRune(r)
		}
		v, _ := strconv.ParseInt(b.String(), 16, 32)
		return rune(v), nil
	}
	return 0, l.NewError(fmt.Sprintf("unknown escape sequence \\%c", c))
}

// StringLiteral matches a `"..."` literal, with an optional `L` prefix
// selecting the wide variant (char16).
func (l *IdlLexer) StringLiteral() (DynData, error) {
	l.Skip()
	start := l.Location()
	pos := l.Location()
	wide := false
	if l.Peek() == 'L' {
		l.Any()
		wide = true
	}
	if _, err := l.ExpectRune('"'); err != nil {
		l.Backtrack(pos)
		return DynData{}, l.NewError("expected string literal")
	}
	var b strings.Builder
	for l.Peek() != '"' {
		if l.Peek() == eof {
			return DynData{}, l.Throw("unterminated string literal")
		}
		if l.Peek() == '\\' {
			r, err := l.escapeSequence()
			if err != nil {
				return DynData{}, err
			}
			b.WriteRune(r)
			continue
		}
		c, _ := l.Any()
		b.WriteRune(c)
	}
	l.Any()
	kind := DynKindString
	if wide {
		kind = DynKindWString
	}
	return NewStringData(kind, b.String(), spanOf(l, start)), nil
}

// CharLiteral matches a `'c'` literal, optionally `L`-prefixed.
func (l *IdlLexer) CharLiteral() (DynData, error) {
	l.Skip()
	start := l.Location()
	pos := l.Location()
	wide := false
	if l.Peek() == 'L' {
		l.Any()
		wide = true
	}
	if _, err := l.ExpectRune('\''); err != nil {
		l.Backtrack(pos)
		return DynData{}, l.NewError("expected char literal")
	}
	var r rune
	if l.Peek() == '\\' {
		v, err := l.escapeSequence()
		if err != nil {
			return DynData{}, err
		}
		r = v
	} else {
		v, err := l.Any()
		if err != nil {
			return DynData{}, err
		}
		r = v
	}
	if _, err := l.ExpectRune('\''); err != nil {
		return DynData{}, l.Throw("unterminated char literal")
	}
	kind := DynKindChar8
	if wide {
		kind = wcharKind(l.cfg)
	}
	return DynData{Kind: kind, U64: uint64(r), Span: spanOf(l, start)}, nil
}
