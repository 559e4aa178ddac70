package idlc

import "math/big"

// IdlExprParser embeds IdlTypeParser and adds layer-3 rules from spec
// §4.2.3/§4.3: the constant-expression precedence tower and the C3
// evaluator's operand stack, promotion table, and operator matrix.
type IdlExprParser struct {
	*IdlTypeParser
	resolveConst func(name string) (DynData, bool)
}

func NewIdlExprParser(input []rune, file string, cfg *Config, reg *TypeRegistry, resolveConst func(string) (DynData, bool)) *IdlExprParser {
	return &IdlExprParser{
		IdlTypeParser: NewIdlTypeParser(input, file, cfg, reg),
		resolveConst:  resolveConst,
	}
}

// promote implements spec §4.3's promotion rule: the result kind is
// the higher-priority of the two operand kinds.
func promote(a, b DynKind) (DynKind, error) {
	pa, pb := promotionPriority(a), promotionPriority(b)
	if pa < 0 || pb < 0 {
		return 0, &EvalTypeError{Op: "promote", Kind: a}
	}
	if pa >= pb {
		return a, nil
	}
	return b, nil
}

func toBig(d DynData) *big.Float {
	if d.Kind == DynKindFloat128 {
		return d.F
	}
	return new(big.Float).SetPrec(128).SetUint64(d.U64)
}

// ConstExpr is the entry point for spec §4.2.3's `const_expr`, covering
// the full precedence tower `or < xor < and < shift < add < mul < unary <
// primary`. Binary operators of one level associate to the left.
func (p *IdlExprParser) ConstExpr() (DynData, error) {
	return p.orExpr()
}

type binOp struct {
	text string
	fn   func(a, b DynData) (DynData, error)
}

func (p *IdlExprParser) leftAssoc(next func() (DynData, error), ops []binOp) (DynData, error) {
	left, err := next()
	if err != nil {
		return DynData{}, err
	}
	for {
		pos := p.Location()
		p.Skip()
		matched := false
		var op binOp
		for _, candidate := range ops {
			if perr := p.Punct(candidate.text); perr == nil {
				op = candidate
				matched = true
				break
			}
			p.Backtrack(pos)
		}
		if !matched {
			p.Backtrack(pos)
			return left, nil
		}
		right, err := next()
		if err != nil {
			return DynData{}, err
		}
		left, err = op.fn(left, right)
		if err != nil {
			return DynData{}, err
		}
	}
}

func (p *IdlExprParser) orExpr() (DynData, error) {
	return p.leftAssoc(p.xorExpr, []binOp{{"|", evalOr}})
}

func (p *IdlExprParser) xorExpr() (DynData, error) {
	return p.leftAssoc(p.andExpr, []binOp{{"^", evalXor}})
}

func (p *IdlExprParser) andExpr() (DynData, error) {
	return p.leftAssoc(p.shiftExpr, []binOp{{"&", evalAnd}})
}

func (p *IdlExprParser) shiftExpr() (DynData, error) {
	return p.leftAssoc(p.addExpr, []binOp{{"<<", evalShl}, {">>", evalShr}})
}

func (p *IdlExprParser) addExpr() (DynData, error) {
	return p.leftAssoc(p.mulExpr, []binOp{{"+", evalAdd}, {"-", evalSub}})
}

func (p *IdlExprParser) mulExpr() (DynData, error) {
	return p.leftAssoc(p.unaryExpr, []binOp{{"*", evalMul}, {"/", evalDiv}, {"%", evalMod}})
}

func (p *IdlExprParser) unaryExpr() (DynData, error) {
	p.Skip()
	pos := p.Location()
	if p.Punct("-") == nil {
		v, err := p.unaryExpr()
		if err != nil {
			return DynData{}, err
		}
		return evalNeg(v)
	}
	p.Backtrack(pos)
	if p.Punct("+") == nil {
		return p.unaryExpr()
	}
	p.Backtrack(pos)
	if p.Punct("~") == nil {
		v, err := p.unaryExpr()
		if err != nil {
			return DynData{}, err
		}
		return evalNot(v)
	}
	p.Backtrack(pos)
	return p.primary()
}

func (p *IdlExprParser) primary() (DynData, error) {
	p.Skip()
	pos := p.Location()

	if p.Punct("(") == nil {
		v, err := p.ConstExpr()
		if err != nil {
			return DynData{}, err
		}
		if err := p.Punct(")"); err != nil {
			return DynData{}, p.Throw("expected ')'")
		}
		return v, nil
	}
	p.Backtrack(pos)

	if v, err := p.FloatLiteral(); err == nil {
		return v, nil
	} else if !isBacktracking(err) {
		return DynData{}, err
	}
	p.Backtrack(pos)

	if v, err := p.IntLiteral(); err == nil {
		return v, nil
	} else if !isBacktracking(err) {
		return DynData{}, err
	}
	p.Backtrack(pos)

	if v, err := p.StringLiteral(); err == nil {
		return v, nil
	} else if !isBacktracking(err) {
		return DynData{}, err
	}
	p.Backtrack(pos)

	if v, err := p.CharLiteral(); err == nil {
		return v, nil
	} else if !isBacktracking(err) {
		return DynData{}, err
	}
	p.Backtrack(pos)

	if v, err := p.BoolLiteral(); err == nil {
		return v, nil
	} else if !isBacktracking(err) {
		return DynData{}, err
	}
	p.Backtrack(pos)

	name, err := p.ScopedName()
	if err != nil {
		return DynData{}, p.NewError("expected a constant expression")
	}
	v, ok := p.resolveConst(name)
	if !ok {
		return DynData{}, &ResolveError{Name: name, Span: spanOf(p.IdlLexer, pos)}
	}
	return v, nil
}

// -- operator-to-kind matrix (spec §4.3) --

func evalAdd(a, b DynData) (DynData, error) { return arith(a, b, "+") }
func evalSub(a, b DynData) (DynData, error) { return arith(a, b, "-") }
func evalMul(a, b DynData) (DynData, error) { return arith(a, b, "*") }
func evalDiv(a, b DynData) (DynData, error) { return arith(a, b, "/") }

func arith(a, b DynData, op string) (DynData, error) {
	kind, err := promote(a.Kind, b.Kind)
	if err != nil || (kind != DynKindUInt64 && kind != DynKindFloat128) {
		return DynData{}, &EvalTypeError{Op: op, Kind: kind, Span: a.Span}
	}
	if kind == DynKindFloat128 {
		af, bf := toBig(a), toBig(b)
		var r big.Float
		switch op {
		case "+":
			r.Add(af, bf)
		case "-":
			r.Sub(af, bf)
		case "*":
			r.Mul(af, bf)
		case "/":
			if bf.Sign() == 0 {
				return DynData{}, &EvalRangeError{Value: "0", ToKind: DynKindFloat128, Span: a.Span, Message: "division by zero"}
			}
			r.Quo(af, bf)
		}
		return NewFloat128Data(&r, a.Span), nil
	}
	switch op {
	case "+":
		return NewUInt64Data(a.U64+b.U64, a.Span), nil
	case "-":
		return NewUInt64Data(a.U64-b.U64, a.Span), nil
	case "*":
		return NewUInt64Data(a.U64*b.U64, a.Span), nil
	case "/":
		if b.U64 == 0 {
			return DynData{}, &EvalRangeError{Value: "0", ToKind: DynKindUInt64, Span: a.Span, Message: "division by zero"}
		}
		return NewUInt64Data(a.U64/b.U64, a.Span), nil
	}
	return DynData{}, &EvalTypeError{Op: op, Kind: kind, Span: a.Span}
}

func evalMod(a, b DynData) (DynData, error) {
	if a.Kind != DynKindUInt64 || b.Kind != DynKindUInt64 {
		return DynData{}, &EvalTypeError{Op: "%", Kind: a.Kind, Span: a.Span}
	}
	if b.U64 == 0 {
		return DynData{}, &EvalRangeError{Value: "0", ToKind: DynKindUInt64, Span: a.Span, Message: "modulo by zero"}
	}
	return NewUInt64Data(a.U64%b.U64, a.Span), nil
}

func evalShl(a, b DynData) (DynData, error) { return shift(a, b, true) }
func evalShr(a, b DynData) (DynData, error) { return shift(a, b, false) }

func shift(a, b DynData, left bool) (DynData, error) {
	if a.Kind != DynKindUInt64 || b.Kind != DynKindUInt64 {
		op := "<<"
		if !left {
			op = ">>"
		}
		return DynData{}, &EvalTypeError{Op: op, Kind: a.Kind, Span: a.Span}
	}
	if left {
		return NewUInt64Data(a.U64<<b.U64, a.Span), nil
	}
	return NewUInt64Data(a.U64>>b.U64, a.Span), nil
}

func evalAnd(a, b DynData) (DynData, error) { return bitwise(a, b, "&") }
func evalOr(a, b DynData) (DynData, error)  { return bitwise(a, b, "|") }
func evalXor(a, b DynData) (DynData, error) { return bitwise(a, b, "^") }

func bitwise(a, b DynData, op string) (DynData, error) {
	kind, err := promote(a.Kind, b.Kind)
	if err != nil || (kind != DynKindUInt64 && kind != DynKindBool) {
		return DynData{}, &EvalTypeError{Op: op, Kind: kind, Span: a.Span}
	}
	if kind == DynKindBool {
		switch op {
		case "&":
			return NewBoolData(a.B && b.B, a.Span), nil
		case "|":
			return NewBoolData(a.B || b.B, a.Span), nil
		case "^":
			return NewBoolData(a.B != b.B, a.Span), nil
		}
	}
	switch op {
	case "&":
		return NewUInt64Data(a.U64&b.U64, a.Span), nil
	case "|":
		return NewUInt64Data(a.U64|b.U64, a.Span), nil
	case "^":
		return NewUInt64Data(a.U64^b.U64, a.Span), nil
	}
	return DynData{}, &EvalTypeError{Op: op, Kind: kind, Span: a.Span}
}

func evalNeg(v DynData) (DynData, error) {
	switch v.Kind {
	case DynKindUInt64:
		return NewUInt64Data(negateUInt64(v.U64), v.Span), nil
	case DynKindFloat128:
		r := new(big.Float).Neg(v.F)
		return NewFloat128Data(r, v.Span), nil
	default:
		return DynData{}, &EvalTypeError{Op: "unary -", Kind: v.Kind, Span: v.Span}
	}
}

func evalNot(v DynData) (DynData, error) {
	switch v.Kind {
	case DynKindUInt64:
		return NewUInt64Data(^v.U64, v.Span), nil
	case DynKindBool:
		return NewBoolData(!v.B, v.Span), nil
	default:
		return DynData{}, &EvalTypeError{Op: "unary ~", Kind: v.Kind, Span: v.Span}
	}
}
