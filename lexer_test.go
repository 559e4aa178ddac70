package idlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseParser_PeekAndAny(t *testing.T) {
	p := NewBaseParser([]rune("ab"), "<test>")
	assert.Equal(t, 'a', p.Peek())

	r, err := p.Any()
	assert.NoError(t, err)
	assert.Equal(t, 'a', r)
	assert.Equal(t, 'b', p.Peek())

	_, err = p.Any()
	assert.NoError(t, err)
	assert.Equal(t, eof, p.Peek())

	_, err = p.Any()
	assert.Error(t, err)
}

func TestBaseParser_BacktrackRestoresPosition(t *testing.T) {
	p := NewBaseParser([]rune("hello"), "<test>")
	pos := p.Location()
	p.Any()
	p.Any()
	assert.NotEqual(t, pos.Cursor, p.Location().Cursor)

	p.Backtrack(pos)
	assert.Equal(t, pos, p.Location())
	assert.Equal(t, 'h', p.Peek())
}

func TestBaseParser_LineColumnTracking(t *testing.T) {
	p := NewBaseParser([]rune("a\nb"), "<test>")
	p.Any() // 'a'
	assert.Equal(t, int32(1), p.Location().Line)
	p.Any() // '\n'
	assert.Equal(t, int32(2), p.Location().Line)
	assert.Equal(t, int32(1), p.Location().Column)
}

func TestBaseParser_ExpectRune(t *testing.T) {
	p := NewBaseParser([]rune("x"), "<test>")
	r, err := p.ExpectRune('x')
	assert.NoError(t, err)
	assert.Equal(t, 'x', r)

	p2 := NewBaseParser([]rune("y"), "<test>")
	_, err = p2.ExpectRune('x')
	assert.Error(t, err)
	assert.True(t, isBacktracking(err))
}

func TestBaseParser_ExpectRange(t *testing.T) {
	p := NewBaseParser([]rune("5"), "<test>")
	r, err := p.ExpectRange('0', '9')
	assert.NoError(t, err)
	assert.Equal(t, '5', r)

	p2 := NewBaseParser([]rune("a"), "<test>")
	_, err = p2.ExpectRange('0', '9')
	assert.Error(t, err)
}

func TestBaseParser_ExpectLiteral(t *testing.T) {
	p := NewBaseParser([]rune("typedef foo"), "<test>")
	s, err := p.ExpectLiteral("typedef")
	assert.NoError(t, err)
	assert.Equal(t, "typedef", s)

	p2 := NewBaseParser([]rune("type foo"), "<test>")
	pos := p2.Location()
	_, err = p2.ExpectLiteral("typedef")
	assert.Error(t, err)
	assert.Equal(t, pos, p2.Location(), "ExpectLiteral must backtrack fully on partial match")
}

func TestBaseParser_Throw_IsNotBacktracking(t *testing.T) {
	p := NewBaseParser([]rune(""), "<test>")
	err := p.Throw("fatal")
	assert.False(t, isBacktracking(err))
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)
}

func TestBaseParser_Labels(t *testing.T) {
	p := NewBaseParser([]rune("z"), "<test>")
	assert.Equal(t, "", p.Label())
	p.PushLabel("outer")
	p.PushLabel("inner")
	assert.Equal(t, "inner", p.Label())
	p.PopLabel()
	assert.Equal(t, "outer", p.Label())
	p.PopLabel()
	assert.Equal(t, "", p.Label())
}

func digit(p Parser) (rune, error) { return p.ExpectRange('0', '9') }

func TestZeroOrMore(t *testing.T) {
	p := NewBaseParser([]rune("123a"), "<test>")
	out, err := ZeroOrMore[rune](p, digit)
	assert.NoError(t, err)
	assert.Equal(t, []rune{'1', '2', '3'}, out)
	assert.Equal(t, 'a', p.Peek())
}

func TestZeroOrMore_NoMatches(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	out, err := ZeroOrMore[rune](p, digit)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestOneOrMore_RequiresAtLeastOne(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	_, err := OneOrMore[rune](p, digit)
	assert.Error(t, err)
}

func TestOneOrMore_Succeeds(t *testing.T) {
	p := NewBaseParser([]rune("9x"), "<test>")
	out, err := OneOrMore[rune](p, digit)
	assert.NoError(t, err)
	assert.Equal(t, []rune{'9'}, out)
}

func TestChoice_FirstMatchWins(t *testing.T) {
	p := NewBaseParser([]rune("b"), "<test>")
	fns := []ParserFn[rune]{
		p.ExpectRuneFn('a'),
		p.ExpectRuneFn('b'),
	}
	r, err := Choice(p, fns)
	assert.NoError(t, err)
	assert.Equal(t, 'b', r)
}

func TestChoice_AllFail(t *testing.T) {
	p := NewBaseParser([]rune("c"), "<test>")
	fns := []ParserFn[rune]{
		p.ExpectRuneFn('a'),
		p.ExpectRuneFn('b'),
	}
	pos := p.Location()
	_, err := Choice(p, fns)
	assert.Error(t, err)
	assert.Equal(t, pos, p.Location())
}

func TestOptional_NoMatchLeavesCursor(t *testing.T) {
	p := NewBaseParser([]rune("z"), "<test>")
	r, err := Optional[rune](p, p.ExpectRuneFn('a'))
	assert.NoError(t, err)
	assert.Equal(t, rune(0), r)
	assert.Equal(t, 'z', p.Peek())
}

func TestAnd_LookaheadDoesNotConsume(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	_, err := And[rune](p, p.ExpectRuneFn('a'))
	assert.NoError(t, err)
	assert.Equal(t, 'a', p.Peek())
}

func TestAnd_FailsWhenPredicateFails(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	_, err := And[rune](p, p.ExpectRuneFn('z'))
	assert.Error(t, err)
}

func TestNot_SucceedsWhenPredicateFails(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	_, err := Not[rune](p, p.ExpectRuneFn('z'))
	assert.NoError(t, err)
	assert.Equal(t, 'a', p.Peek())
}

func TestNot_FailsWhenPredicateSucceeds(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	_, err := Not[rune](p, p.ExpectRuneFn('a'))
	assert.Error(t, err)
}

func TestInPredicate_TracksDepth(t *testing.T) {
	p := NewBaseParser([]rune("abc"), "<test>")
	assert.False(t, InPredicate(p))
	And[rune](p, func(pp Parser) (rune, error) {
		assert.True(t, InPredicate(pp))
		return 0, nil
	})
	assert.False(t, InPredicate(p))
}
