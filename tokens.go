package rpncalc

import (
	"strconv"
	"strings"
)

// token is one element of a compiled expression in postfix order.
type token struct {
	kind tokenKind
	op   opcode
	num  float64
	// col is the original column of the lexeme that produced the token.
	col int
}

type tokenKind int8

const (
	tokenNone tokenKind = iota

	tokenNum    // push num
	tokenUnary  // pop x, push op(x)
	tokenBinary // pop r, pop l, push op(l, r)
	tokenCond   // pop else, pop then, pop cond, push then if cond else else
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenNum:
		return "Num"
	case tokenUnary:
		return "Unary"
	case tokenBinary:
		return "Binary"
	case tokenCond:
		return "Cond"
	default:
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (t token) String() string {
	if t.kind == tokenNum {
		return fmtnum(t.num)
	}
	return t.op.String()
}

// Program is a compiled expression. A Program is immutable and may be
// evaluated any number of times, including concurrently.
type Program struct {
	toks []token
	// src is the normalized expression text.
	src string
	// end is the column just past the original expression.
	end int
}

// Len returns the number of tokens in the compiled expression.
func (p *Program) Len() int {
	return len(p.toks)
}

// Source returns the expression the program was compiled from, with
// whitespace removed and letters folded to lower case.
func (p *Program) Source() string {
	return p.src
}

// String renders the program in postfix notation, with tokens separated by
// spaces. Constants appear as their values, prefix minus as "neg", and the
// conditional operator as "?:".
func (p *Program) String() string {
	var b strings.Builder
	for i, t := range p.toks {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	return b.String()
}
