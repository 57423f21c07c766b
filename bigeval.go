package rpncalc

import (
	"errors"
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// DefaultPrec is the precision EvalBig uses when asked for zero bits.
const DefaultPrec = 64

// EvalBig evaluates the program in arbitrary precision with prec bits of
// mantissa. Numeric literals and constants enter the computation as their
// float64 values. Trigonometric functions are computed in float64.
//
// Each operation is checked in float64 before it is computed in full
// precision, so EvalBig fails with a *DomainError for exactly the operations
// where Eval would, apart from results at the edge of float64 rounding. As
// with Eval, NaN operands fail, and so does a conditional or final result
// that is infinite.
func (p *Program) EvalBig(prec uint) (*big.Float, error) {
	if prec == 0 {
		prec = DefaultPrec
	}
	b := bigeval{prec: prec}
	stack := make([]*big.Float, 0, len(p.toks)/2+1)
	for _, t := range p.toks {
		switch t.kind {
		case tokenNum:
			if math.IsNaN(t.num) {
				return nil, nanOperand(t)
			}
			stack = append(stack, b.new().SetFloat64(t.num))
		case tokenUnary:
			if len(stack) < 1 {
				return nil, &StackError{Col: t.col, Op: t.op.String(), Need: 1, Have: len(stack)}
			}
			x := stack[len(stack)-1]
			xf, _ := x.Float64()
			approx := t.op.apply1(xf)
			if !finite(approx) {
				return nil, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{xf}}
			}
			r, err := b.unary(t.op, x, approx)
			if err != nil {
				return nil, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{xf}}
			}
			stack[len(stack)-1] = r
		case tokenBinary:
			if len(stack) < 2 {
				return nil, &StackError{Col: t.col, Op: t.op.String(), Need: 2, Have: len(stack)}
			}
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := stack[len(stack)-1]
			lf, _ := l.Float64()
			rf, _ := r.Float64()
			approx := t.op.apply2(lf, rf)
			if !finite(approx) {
				return nil, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{lf, rf}}
			}
			v, err := b.binary(t.op, l, r, approx)
			if err != nil {
				return nil, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{lf, rf}}
			}
			stack[len(stack)-1] = v
		case tokenCond:
			if len(stack) < 3 {
				return nil, &StackError{Col: t.col, Op: t.op.String(), Need: 3, Have: len(stack)}
			}
			k := len(stack) - 3
			cond, then, els := stack[k], stack[k+1], stack[k+2]
			stack = stack[:k+1]
			v := els
			if new(big.Float).Abs(cond).Cmp(big.NewFloat(condEpsilon)) > 0 {
				v = then
			}
			if v.IsInf() {
				cf, _ := cond.Float64()
				tf, _ := then.Float64()
				ef, _ := els.Float64()
				return nil, &DomainError{Col: t.col, Op: t.op.String(), Args: []float64{cf, tf, ef}}
			}
			stack[k] = v
		default:
			panic("rpncalc: invalid token " + t.kind.String())
		}
	}
	if len(stack) != 1 {
		return nil, &StackError{Col: p.end, Need: 1, Have: len(stack)}
	}
	if stack[0].IsInf() {
		x, _ := stack[0].Float64()
		return nil, p.nonfinite(x)
	}
	return stack[0], nil
}

// bigeval holds the state for one EvalBig call.
type bigeval struct {
	prec uint
	pi   *big.Float
}

func (b *bigeval) new() *big.Float {
	return new(big.Float).SetPrec(b.prec)
}

func (b *bigeval) num(x int64) *big.Float {
	return b.new().SetInt64(x)
}

// getpi computes pi to the evaluation precision once.
func (b *bigeval) getpi() *big.Float {
	if b.pi == nil {
		b.pi = bigfloat.Pi(b.new())
	}
	return b.pi
}

// unary computes op(x). approx is the float64 result, already known to be
// finite; it is used for the functions computed in float64 and whenever x is
// infinite.
func (b *bigeval) unary(op opcode, x *big.Float, approx float64) (r *big.Float, err error) {
	defer catchNaN(&err)
	r = b.new()
	if x.IsInf() {
		return r.SetFloat64(approx), nil
	}
	switch op {
	case opNeg:
		r.Neg(x)
	case opAbs:
		r.Abs(x)
	case opSqrt:
		r.Sqrt(x)
	case opExp:
		bigfloat.Exp(r, x)
	case opLog:
		bigfloat.Log(r, x)
	case opCeil:
		i, acc := x.Int(nil)
		if acc == big.Below {
			i.Add(i, big.NewInt(1))
		}
		r.SetInt(i)
	case opFloor:
		i, acc := x.Int(nil)
		if acc == big.Above {
			i.Sub(i, big.NewInt(1))
		}
		r.SetInt(i)
	case opDeg:
		r.Mul(x, b.num(180))
		r.Quo(r, b.getpi())
	case opRad:
		r.Mul(x, b.getpi())
		r.Quo(r, b.num(180))
	case opSin, opCos, opTan, opAsin, opAcos, opAtan:
		// Not available in arbitrary precision.
		r.SetFloat64(approx)
	default:
		panic("rpncalc: " + op.String() + " is not unary")
	}
	return r, nil
}

// binary computes op(l, r). approx is the float64 result, already known to
// be finite.
func (b *bigeval) binary(op opcode, l, r *big.Float, approx float64) (z *big.Float, err error) {
	defer catchNaN(&err)
	z = b.new()
	switch op {
	case opOr:
		z.SetFloat64(truth(l.Sign() != 0 || r.Sign() != 0))
	case opAnd:
		z.SetFloat64(truth(l.Sign() != 0 && r.Sign() != 0))
	case opEq:
		z.SetFloat64(truth(l.Cmp(r) == 0))
	case opNe:
		z.SetFloat64(truth(l.Cmp(r) != 0))
	case opLt:
		z.SetFloat64(truth(l.Cmp(r) < 0))
	case opLe:
		z.SetFloat64(truth(l.Cmp(r) <= 0))
	case opGt:
		z.SetFloat64(truth(l.Cmp(r) > 0))
	case opGe:
		z.SetFloat64(truth(l.Cmp(r) >= 0))
	case opAdd:
		z.Add(l, r)
	case opSub:
		z.Sub(l, r)
	case opMul:
		z.Mul(l, r)
	case opDiv:
		z.Quo(l, r)
	case opMod:
		if r.IsInf() {
			return z.Set(l), nil
		}
		b.mod(z, l, r)
	case opPow:
		if l.IsInf() || r.IsInf() {
			return z.SetFloat64(approx), nil
		}
		if err := b.pow(z, l, r); err != nil {
			return nil, err
		}
	default:
		panic("rpncalc: " + op.String() + " is not binary")
	}
	return z, nil
}

// mod sets z to l - r*trunc(l/r), which has the sign of l. r must be finite
// and nonzero. Both operands are scaled to integers sharing one binary
// exponent, so the remainder is exact before it is rounded into z.
func (b *bigeval) mod(z, l, r *big.Float) {
	lm, le := intmant(l)
	rm, re := intmant(r)
	e := min(le, re)
	lm.Lsh(lm, uint(le-e))
	rm.Lsh(rm, uint(re-e))
	lm.Rem(lm, rm)
	z.SetInt(lm)
	z.SetMantExp(z, e)
}

// intmant returns m and e such that x = m * 2^e with m an integer. x must be
// finite.
func intmant(x *big.Float) (*big.Int, int) {
	if x.Sign() == 0 {
		return new(big.Int), 0
	}
	n := int(x.MinPrec())
	exp := x.MantExp(nil)
	m, _ := new(big.Float).SetMantExp(x, n-exp).Int(nil)
	return m, exp - n
}

// pow sets z to l^r. A negative l requires an integer r.
func (b *bigeval) pow(z, l, r *big.Float) error {
	switch {
	case r.Sign() == 0:
		z.SetInt64(1)
	case l.Sign() == 0:
		z.SetInt64(0)
	case r.IsInt():
		if n, acc := r.Int64(); acc == big.Exact && n != math.MinInt64 {
			b.powint(z, l, n)
			return nil
		}
		bigfloat.Pow(z, b.new().Abs(l), r)
		i, _ := r.Int(nil)
		if l.Signbit() && i.Abs(i).Bit(0) == 1 {
			z.Neg(z)
		}
	case l.Signbit():
		return errNegBase
	default:
		bigfloat.Pow(z, l, r)
	}
	return nil
}

// powint sets z to x^n by repeated squaring with guard bits, so that exact
// powers such as 2^200 stay exact.
func (b *bigeval) powint(z, x *big.Float, n int64) {
	prec := b.prec + 64
	p := new(big.Float).SetPrec(prec).Set(x)
	acc := new(big.Float).SetPrec(prec).SetInt64(1)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		if n&1 == 1 {
			acc.Mul(acc, p)
		}
		n >>= 1
		if n > 0 {
			p.Mul(p, p)
		}
	}
	if neg {
		acc.Quo(new(big.Float).SetPrec(prec).SetInt64(1), acc)
	}
	z.Set(acc)
}

var errNegBase = errors.New("negative base with non-integer exponent")

// catchNaN recovers a panic with an error wrapping big.ErrNaN into *err.
// Other panics continue.
func catchNaN(err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if !ok || !errors.As(e, new(big.ErrNaN)) {
		panic(r)
	}
	*err = e
}
