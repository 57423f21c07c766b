package rpncalc

import (
	"math"
)

// condEpsilon is the magnitude above which a condition counts as true. The
// comparison operators produce exact 0 or 1, but arithmetic on their results
// may not.
const condEpsilon = 1e-8

// Eval evaluates the program. A NaN operand, or an operation or result that
// is infinite or NaN, fails with a *DomainError; an operator without enough
// operands, or a program leaving other than exactly one value, fails with a
// *StackError. Infinite constants may be operands as long as every result
// they feed is finite.
func (p *Program) Eval() (float64, error) {
	stack := make([]float64, 0, len(p.toks)/2+1)
	for _, t := range p.toks {
		switch t.kind {
		case tokenNum:
			if math.IsNaN(t.num) {
				return 0, nanOperand(t)
			}
			stack = append(stack, t.num)
		case tokenUnary:
			if len(stack) < 1 {
				return 0, &StackError{Col: t.col, Op: t.op.String(), Need: 1, Have: len(stack)}
			}
			x := stack[len(stack)-1]
			r := t.op.apply1(x)
			if !finite(r) {
				return 0, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{x}}
			}
			stack[len(stack)-1] = r
		case tokenBinary:
			if len(stack) < 2 {
				return 0, &StackError{Col: t.col, Op: t.op.String(), Need: 2, Have: len(stack)}
			}
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := stack[len(stack)-1]
			v := t.op.apply2(l, r)
			if !finite(v) {
				return 0, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{l, r}}
			}
			stack[len(stack)-1] = v
		case tokenCond:
			if len(stack) < 3 {
				return 0, &StackError{Col: t.col, Op: t.op.String(), Need: 3, Have: len(stack)}
			}
			k := len(stack) - 3
			cond, then, els := stack[k], stack[k+1], stack[k+2]
			stack = stack[:k+1]
			v := els
			if math.Abs(cond) > condEpsilon {
				v = then
			}
			if !finite(v) {
				return 0, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{cond, then, els}}
			}
			stack[k] = v
		default:
			panic("rpncalc: invalid token " + t.kind.String())
		}
	}
	if len(stack) != 1 {
		return 0, &StackError{Col: p.end, Need: 1, Have: len(stack)}
	}
	if !finite(stack[0]) {
		return 0, p.nonfinite(stack[0])
	}
	return stack[0], nil
}

func nanOperand(t token) error {
	return &DomainError{Col: t.col, Op: "NaN"}
}

// nonfinite is the error for a program whose only value is an infinite
// constant.
func (p *Program) nonfinite(x float64) error {
	return &DomainError{Col: p.toks[len(p.toks)-1].col, Op: "result", Args: []float64{x}}
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
