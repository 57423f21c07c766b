package rpncalc

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

// Compile compiles an expression to postfix form using the operators and
// functions in r. Whitespace in expr is ignored and letters are folded to
// lower case. Names in consts are case-insensitive and are replaced by their
// values during compilation; pi is always defined and overrides any pi in
// consts.
func (r *Registry) Compile(expr string, consts map[string]float64) (*Program, error) {
	src := normalize(expr)
	if src.text == "" {
		return nil, &EmptyExpressionError{Col: src.end}
	}
	return compile(&src, foldConsts(consts), r)
}

// Compile compiles an expression using the default registry.
func Compile(expr string, consts map[string]float64) (*Program, error) {
	return Default().Compile(expr, consts)
}

// stacked is an operator stack entry along with the position of the text
// that pushed it.
type stacked struct {
	operator
	pos int
}

type compiler struct {
	src    *source
	reg    *Registry
	consts map[string]float64
	ops    []stacked
	out    []token
}

// compile converts normalized text to postfix using the shunting-yard
// algorithm. consts must already be folded.
func compile(src *source, consts map[string]float64, reg *Registry) (*Program, error) {
	c := compiler{
		src:    src,
		reg:    reg,
		consts: consts,
		out:    make([]token, 0, len(src.text)),
	}
	text := src.text
	// term is whether the parser expects an operand next, which decides
	// whether + and - are signs or binary operators.
	term := true
	for pos := 0; pos < len(text); {
		ch := text[pos]
		switch {
		case term && (ch == '+' || ch == '-'):
			if ch == '-' {
				c.push(reg.neg, pos)
			}
			pos++
		case isdigit(ch) || ch == '.':
			n := scanNum(text[pos:])
			lit := text[pos : pos+n]
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				var ne *strconv.NumError
				if errors.As(err, &ne) {
					err = ne.Err
				}
				return nil, &NumberError{Col: src.col(pos), Text: lit, Err: err}
			}
			c.out = append(c.out, token{kind: tokenNum, num: v, col: src.col(pos)})
			pos += n
			term = false
		case isletter(ch):
			n := scanIdent(text[pos:])
			name := text[pos : pos+n]
			if pos+n < len(text) && text[pos+n] == '(' {
				fn, ok := reg.function(name)
				if !ok {
					return nil, &NameError{Col: src.col(pos), Name: name, Func: true}
				}
				c.push(fn, pos)
				c.push(parenMarker, pos+n)
				pos += n + 1
				term = true
				break
			}
			v, ok := consts[name]
			if !ok {
				return nil, &NameError{Col: src.col(pos), Name: name}
			}
			c.out = append(c.out, token{kind: tokenNum, num: v, col: src.col(pos)})
			pos += n
			term = false
		case ch == '(':
			c.push(parenMarker, pos)
			pos++
			term = true
		case ch == ')':
			if err := c.closeParen(pos); err != nil {
				return nil, err
			}
			pos++
			term = false
		case ch == '?':
			for len(c.ops) > 0 && c.top().prec > precIf {
				c.emit(c.pop())
			}
			c.push(ifMarker, pos)
			pos++
			term = true
		case ch == ':':
			if err := c.openElse(pos); err != nil {
				return nil, err
			}
			pos++
			term = true
		default:
			o, n := reg.binary(text[pos:])
			if n == 0 {
				_, sz := utf8.DecodeRuneInString(text[pos:])
				return nil, &OperatorError{Col: src.col(pos), Operator: text[pos : pos+sz]}
			}
			for len(c.ops) > 0 && o.yields(c.top().operator) {
				c.emit(c.pop())
			}
			c.push(o, pos)
			pos += n
			term = true
		}
	}
	for len(c.ops) > 0 {
		s := c.pop()
		switch {
		case s.kind == operParen:
			if len(c.ops) > 0 && c.top().isFunc() {
				f := c.top()
				return nil, &BracketError{Col: src.col(f.pos), Left: "(", Func: f.op.String()}
			}
			return nil, &BracketError{Col: src.col(s.pos), Left: "("}
		case s.isFunc():
			return nil, &BracketError{Col: src.col(s.pos), Left: "(", Func: s.op.String()}
		case s.kind == operIf:
			return nil, &TernaryError{Col: src.col(s.pos), Op: "?"}
		}
		c.emit(s)
	}
	p := Program{
		toks: c.out,
		src:  text,
		end:  src.end,
	}
	return &p, nil
}

func (c *compiler) push(o operator, pos int) {
	c.ops = append(c.ops, stacked{o, pos})
}

func (c *compiler) top() stacked {
	return c.ops[len(c.ops)-1]
}

func (c *compiler) pop() stacked {
	s := c.ops[len(c.ops)-1]
	c.ops = c.ops[:len(c.ops)-1]
	return s
}

// emit appends the token for an operator stack entry to the output.
func (c *compiler) emit(s stacked) {
	c.out = append(c.out, s.token(c.src.col(s.pos)))
}

// closeParen handles a ) at pos. It pops operators to the output until the
// matching parenthesis marker, then finishes a function call if the marker
// opened an argument list.
func (c *compiler) closeParen(pos int) error {
	for len(c.ops) > 0 {
		s := c.pop()
		switch {
		case s.kind == operParen:
			if len(c.ops) > 0 && c.top().isFunc() {
				c.emit(c.pop())
			}
			return nil
		case s.isFunc():
			return &BracketError{Col: c.src.col(s.pos), Left: "(", Func: s.op.String()}
		case s.kind == operIf:
			return &TernaryError{Col: c.src.col(s.pos), Op: "?"}
		}
		c.emit(s)
	}
	return &BracketError{Col: c.src.col(pos)}
}

// openElse handles a : at pos. It pops operators to the output until the
// matching ternary marker, which it replaces with the ternary-close
// descriptor. The : must be in the same parenthesized group as its ?.
func (c *compiler) openElse(pos int) error {
	for len(c.ops) > 0 {
		switch c.top().kind {
		case operIf:
			c.pop()
			c.push(elseMarker, pos)
			return nil
		case operParen:
			return &TernaryError{Col: c.src.col(pos), Op: ":"}
		}
		c.emit(c.pop())
	}
	return &TernaryError{Col: c.src.col(pos), Op: ":"}
}
