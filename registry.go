package rpncalc

import (
	"math"
	"sort"
	"strconv"
	"sync"
)

// opcode names a numeric operation. Binary, unary, and ternary operations
// share one space so that tokens can carry a single small value.
type opcode int8

const (
	opNone opcode = iota

	// binary
	opOr
	opAnd
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opPow

	// unary
	opNeg
	opAbs
	opSin
	opCos
	opTan
	opAsin
	opAcos
	opAtan
	opExp
	opLog
	opCeil
	opFloor
	opSqrt
	opDeg
	opRad

	// ternary
	opCond

	opMax
)

var opnames = [opMax]string{
	opNone:  "<none>",
	opOr:    "||",
	opAnd:   "&&",
	opEq:    "==",
	opNe:    "!=",
	opLt:    "<",
	opLe:    "<=",
	opGt:    ">",
	opGe:    ">=",
	opAdd:   "+",
	opSub:   "-",
	opMul:   "*",
	opDiv:   "/",
	opMod:   "%",
	opPow:   "^",
	opNeg:   "neg",
	opAbs:   "abs",
	opSin:   "sin",
	opCos:   "cos",
	opTan:   "tan",
	opAsin:  "asin",
	opAcos:  "acos",
	opAtan:  "atan",
	opExp:   "exp",
	opLog:   "log",
	opCeil:  "ceil",
	opFloor: "floor",
	opSqrt:  "sqrt",
	opDeg:   "deg",
	opRad:   "rad",
	opCond:  "?:",
}

func (op opcode) String() string {
	if op < 0 || op >= opMax {
		return "opcode(" + strconv.Itoa(int(op)) + ")"
	}
	return opnames[op]
}

// apply1 evaluates a unary operation in float64.
func (op opcode) apply1(x float64) float64 {
	switch op {
	case opNeg:
		return -x
	case opAbs:
		return math.Abs(x)
	case opSin:
		return math.Sin(x)
	case opCos:
		return math.Cos(x)
	case opTan:
		return math.Tan(x)
	case opAsin:
		return math.Asin(x)
	case opAcos:
		return math.Acos(x)
	case opAtan:
		return math.Atan(x)
	case opExp:
		return math.Exp(x)
	case opLog:
		return math.Log(x)
	case opCeil:
		return math.Ceil(x)
	case opFloor:
		return math.Floor(x)
	case opSqrt:
		return math.Sqrt(x)
	case opDeg:
		return x * 180 / math.Pi
	case opRad:
		return x * math.Pi / 180
	default:
		panic("rpncalc: " + op.String() + " is not unary")
	}
}

// apply2 evaluates a binary operation in float64.
func (op opcode) apply2(l, r float64) float64 {
	switch op {
	case opOr:
		return truth(l != 0 || r != 0)
	case opAnd:
		return truth(l != 0 && r != 0)
	case opEq:
		return truth(l == r)
	case opNe:
		return truth(l != r)
	case opLt:
		return truth(l < r)
	case opLe:
		return truth(l <= r)
	case opGt:
		return truth(l > r)
	case opGe:
		return truth(l >= r)
	case opAdd:
		return l + r
	case opSub:
		return l - r
	case opMul:
		return l * r
	case opDiv:
		return l / r
	case opMod:
		// The result takes the sign of the dividend.
		return math.Mod(l, r)
	case opPow:
		return math.Pow(l, r)
	default:
		panic("rpncalc: " + op.String() + " is not binary")
	}
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// operKind tags the entries that can sit on the operator stack.
type operKind int8

const (
	operNone operKind = iota
	// operBinary is a binary operator.
	operBinary
	// operUnary is a function or prefix minus.
	operUnary
	// operParen marks an open parenthesis.
	operParen
	// operIf marks an open ternary, i.e. a ? without its :.
	operIf
	// operElse is the : of a ternary and emits the selection.
	operElse
)

// Sentinel precedences for structural stack entries. Every real operator has
// a greater precedence, so ordinary precedence comparisons never pop these.
const (
	precFunc  = -2
	precParen = -1
	precElse  = 0
	precIf    = 1
)

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	kind  operKind
	op    opcode
}

// yields reports whether top must be popped from the operator stack before
// pushing o.
func (o operator) yields(top operator) bool {
	if o.right {
		return top.prec > o.prec
	}
	return top.prec >= o.prec
}

// isFunc reports whether o is a function descriptor, which doubles as the
// function-call marker.
func (o operator) isFunc() bool {
	return o.kind == operUnary && o.prec == precFunc
}

// token creates the RPN token o emits when it is popped to the output.
func (o operator) token(col int) token {
	switch o.kind {
	case operBinary:
		return token{kind: tokenBinary, op: o.op, col: col}
	case operUnary:
		return token{kind: tokenUnary, op: o.op, col: col}
	case operElse:
		return token{kind: tokenCond, op: opCond, col: col}
	default:
		panic("rpncalc: structural marker emitted to output")
	}
}

var (
	parenMarker = operator{prec: precParen, kind: operParen}
	ifMarker    = operator{prec: precIf, right: true, kind: operIf}
	elseMarker  = operator{prec: precElse, right: true, kind: operElse}
)

// Registry holds the operators and functions the compiler understands. A
// Registry is immutable once created and is safe for concurrent use.
type Registry struct {
	binops map[string]operator
	funcs  map[string]operator
	neg    operator
	// longest is the length of the longest binary operator lexeme.
	longest int
}

// NewRegistry creates a registry with the standard operators and functions.
func NewRegistry() *Registry {
	r := Registry{
		binops: map[string]operator{
			"||": {2, false, operBinary, opOr},
			"&&": {3, false, operBinary, opAnd},
			"==": {4, false, operBinary, opEq},
			"!=": {4, false, operBinary, opNe},
			"<":  {5, false, operBinary, opLt},
			"<=": {5, false, operBinary, opLe},
			">":  {5, false, operBinary, opGt},
			">=": {5, false, operBinary, opGe},
			"+":  {6, false, operBinary, opAdd},
			"-":  {6, false, operBinary, opSub},
			"*":  {7, false, operBinary, opMul},
			"/":  {7, false, operBinary, opDiv},
			"%":  {7, false, operBinary, opMod},
			"^":  {8, true, operBinary, opPow},
		},
		funcs: make(map[string]operator, opRad-opAbs+1),
		neg:   operator{9, true, operUnary, opNeg},
	}
	for op := opAbs; op <= opRad; op++ {
		r.funcs[op.String()] = operator{precFunc, false, operUnary, op}
	}
	for k := range r.binops {
		if len(k) > r.longest {
			r.longest = len(k)
		}
	}
	return &r
}

// binary finds the longest binary operator that prefixes s. The second result
// is the length of the match, or 0 if there is none.
func (r *Registry) binary(s string) (operator, int) {
	n := r.longest
	if n > len(s) {
		n = len(s)
	}
	for ; n > 0; n-- {
		if o, ok := r.binops[s[:n]]; ok {
			return o, n
		}
	}
	return operator{}, 0
}

// function looks up a function by its lowercase name.
func (r *Registry) function(name string) (operator, bool) {
	o, ok := r.funcs[name]
	return o, ok
}

// Operators returns the binary operator lexemes in sorted order.
func (r *Registry) Operators() []string {
	return sortedKeys(r.binops)
}

// Functions returns the function names in sorted order.
func (r *Registry) Functions() []string {
	return sortedKeys(r.funcs)
}

func sortedKeys(m map[string]operator) []string {
	v := make([]string, 0, len(m))
	for k := range m {
		v = append(v, k)
	}
	sort.Strings(v)
	return v
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg == nil {
		defaultReg = NewRegistry()
	}
	return defaultReg
}

// Teardown releases the process-wide registry. It is safe to call any number
// of times, including before Default. A later Default creates a new registry.
// Compilations already holding the old registry finish with it.
func Teardown() {
	defaultMu.Lock()
	defaultReg = nil
	defaultMu.Unlock()
}
