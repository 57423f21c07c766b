package rpncalc_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/zephyrtronium/rpncalc"
)

// near reports whether got is within a few ulps of want.
func near(got, want float64) bool {
	if got == want {
		return true
	}
	return math.Abs(got-want) <= 1e-12*math.Max(1, math.Abs(want))
}

func TestEval(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		consts map[string]float64
		r      float64
	}{
		{"num", "1", nil, 1},
		{"frac", ".5", nil, 0.5},
		{"exp-literal", "1e3", nil, 1000},
		{"exp-literal-neg", "1.5e-1", nil, 0.15},
		{"prec", "2+3*4", nil, 14},
		{"paren", "(2+3)*4", nil, 20},
		{"pow-right", "2^3^2", nil, 512},
		{"sub", "3-2", nil, 1},
		{"sub-left", "1-2-3", nil, -4},
		{"div-left", "8/4/2", nil, 1},
		{"div", "10/4", nil, 2.5},
		{"mul-neg", "3*-2", nil, -6},
		{"pow-neg", "2^-1", nil, 0.5},
		{"neg-pow", "-2^2", nil, 4},
		{"neg-neg", "--2", nil, 2},
		{"neg-plus", "-+2", nil, -2},
		{"plus", "+3", nil, 3},
		{"neg-paren", "-(2+3)", nil, -5},
		{"neg-call", "-sqrt(4)", nil, -2},
		{"mod", "7%3", nil, 1},
		{"mod-neg-dividend", "-7%3", nil, -1},
		{"mod-neg-divisor", "7%-3", nil, 1},
		{"mod-frac", "5.5%2", nil, 1.5},
		{"lt", "1<2", nil, 1},
		{"le", "2<=2", nil, 1},
		{"gt", "3>4", nil, 0},
		{"ge", "3>=4", nil, 0},
		{"eq", "1==2", nil, 0},
		{"ne", "1!=2", nil, 1},
		{"and", "1&&0", nil, 0},
		{"or", "0||2", nil, 1},
		{"logic-prec", "1||0&&0", nil, 1},
		{"compound", "1+1==2&&3>2", nil, 1},
		{"cond-true", "1?2:3", nil, 2},
		{"cond-false", "0?2:3", nil, 3},
		{"cond-compare", "(1==1)?10:20", nil, 10},
		{"cond-low-prec", "1+2?3:4", nil, 3},
		{"cond-branch-expr", "1?2+3:4", nil, 5},
		{"cond-nested-then", "1?0?5:6:7", nil, 6},
		{"cond-nested-else", "0?1:0?2:3", nil, 3},
		{"cond-epsilon", "1e-9?1:2", nil, 2},
		{"cond-above-epsilon", "1e-7?1:2", nil, 1},
		{"cond-negative", "-1?1:2", nil, 1},
		{"cond-paren", "(1?2:3)*2", nil, 4},
		{"sqrt", "sqrt(16)", nil, 4},
		{"nested-call", "sqrt(abs(-16))", nil, 4},
		{"abs", "abs(-3)", nil, 3},
		{"ceil", "ceil(1.2)", nil, 2},
		{"floor", "floor(-1.2)", nil, -2},
		{"exp", "exp(0)", nil, 1},
		{"log", "log(1)", nil, 0},
		{"sin", "sin(0)", nil, 0},
		{"cos", "cos(pi)", nil, -1},
		{"tan", "tan(0)", nil, 0},
		{"asin", "asin(1)", nil, math.Pi / 2},
		{"acos", "acos(1)", nil, 0},
		{"atan", "atan(0)", nil, 0},
		{"deg", "deg(pi)", nil, 180},
		{"rad", "rad(180)", nil, math.Pi},
		{"pi", "pi", nil, math.Pi},
		{"two-pi", "2*pi", nil, 2 * math.Pi},
		{"const", "x*2", map[string]float64{"x": 5}, 10},
		{"const-upper-key", "x*2", map[string]float64{"X": 5}, 10},
		{"const-upper-ref", "X*2", map[string]float64{"x": 5}, 10},
		{"const-underscore", "a_1+1", map[string]float64{"a_1": 1}, 2},
		{"pi-override", "pi", map[string]float64{"pi": 3}, math.Pi},
		{"pi-override-upper", "pi", map[string]float64{"PI": 3}, math.Pi},
		{"upper-func", "SIN(0)", nil, 0},
		{"spaced", " s i n ( 0 ) ", nil, 0},
		{"tabs", "1\t+\n2", nil, 3},
		{"spaced-operator", "2 < = 2", nil, 1},
		{"paren-only", "(2)", nil, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := rpncalc.Eval(c.src, c.consts)
			if err != nil {
				t.Fatalf("%q failed: %v", c.src, err)
			}
			if !near(r, c.r) {
				t.Errorf("%q: want %g, got %g", c.src, c.r, r)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		col  int
		err  error
	}{
		{"div-zero", "1/0", 2, &rpncalc.DomainError{Op: "/", Args: []float64{1, 0}}},
		{"zero-div-zero", "0/0", 2, &rpncalc.DomainError{Op: "/", Args: []float64{0, 0}}},
		{"mod-zero", "1%0", 2, &rpncalc.DomainError{Op: "%", Args: []float64{1, 0}}},
		{"log-neg", "log(-1)", 1, &rpncalc.DomainError{Op: "log", Args: []float64{-1}}},
		{"log-zero", "log(0)", 1, &rpncalc.DomainError{Op: "log", Args: []float64{0}}},
		{"sqrt-neg", "1+sqrt(-4)", 3, &rpncalc.DomainError{Op: "sqrt", Args: []float64{-4}}},
		{"asin-range", "asin(2)", 1, &rpncalc.DomainError{Op: "asin", Args: []float64{2}}},
		{"exp-overflow", "exp(1000)", 1, &rpncalc.DomainError{Op: "exp", Args: []float64{1000}}},
		{"pow-overflow", "10^400", 3, &rpncalc.DomainError{Op: "^", Args: []float64{10, 400}}},
		{"pow-neg-frac", "(-1)^0.5", 5, &rpncalc.DomainError{Op: "^", Args: []float64{-1, 0.5}}},
		{"mul-overflow", "1e300*1e300", 6, &rpncalc.DomainError{Op: "*", Args: []float64{1e300, 1e300}}},
		{"juxtaposed", "2(3)", 5, &rpncalc.StackError{Need: 1, Have: 2}},
		{"juxtaposed-const", "2e", 3, &rpncalc.StackError{Need: 1, Have: 2}},
		{"empty-parens", "()", 3, &rpncalc.StackError{Need: 1, Have: 0}},
		{"leading-binary", "*3", 1, &rpncalc.StackError{Op: "*", Need: 2, Have: 1}},
		{"lone-minus", "-", 1, &rpncalc.StackError{Op: "neg", Need: 1, Have: 0}},
		{"empty-call", "sqrt()", 1, &rpncalc.StackError{Op: "sqrt", Need: 1, Have: 0}},
		{"missing-else", "1?2:", 4, &rpncalc.StackError{Op: "?:", Need: 3, Have: 2}},
		{"unknown-func", "foo(1)", 1, &rpncalc.NameError{Name: "foo", Func: true}},
		{"unknown-var", "1 + y", 5, &rpncalc.NameError{Name: "y"}},
		{"unclosed", "(1+2", 1, &rpncalc.BracketError{Left: "("}},
		{"unopened", "1+2)", 4, &rpncalc.BracketError{}},
		{"unclosed-call", "sqrt(4", 1, &rpncalc.BracketError{Left: "(", Func: "sqrt"}},
		{"missing-colon", "1?2", 2, &rpncalc.TernaryError{Op: "?"}},
		{"missing-question", "1:2", 2, &rpncalc.TernaryError{Op: ":"}},
		{"empty", "", 1, &rpncalc.EmptyExpressionError{}},
		{"blank", "  ", 3, &rpncalc.EmptyExpressionError{}},
		{"bad-char", "1#2", 2, &rpncalc.OperatorError{Operator: "#"}},
		{"bad-number", "1+.", 3, &rpncalc.NumberError{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := rpncalc.Eval(c.src, map[string]float64{"e": math.E})
			if err == nil {
				t.Fatalf("%q succeeded with %g", c.src, r)
			}
			if r != 0 {
				t.Errorf("%q gave nonzero result %g with error", c.src, r)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Fatalf("%q: want %T, got %#v", c.src, c.err, err)
			}
			var ie rpncalc.InputError
			if !errors.As(err, &ie) {
				t.Fatalf("%q: %#v is not an InputError", c.src, err)
			}
			if ie.Pos() != c.col {
				t.Errorf("%q: want column %d, got %d (%v)", c.src, c.col, ie.Pos(), err)
			}
			switch want := c.err.(type) {
			case *rpncalc.DomainError:
				got := err.(*rpncalc.DomainError)
				want.Col = got.Col
				if !reflect.DeepEqual(got, want) {
					t.Errorf("%q: want %+v, got %+v", c.src, want, got)
				}
			case *rpncalc.StackError:
				got := err.(*rpncalc.StackError)
				want.Col = got.Col
				if *got != *want {
					t.Errorf("%q: want %+v, got %+v", c.src, want, got)
				}
			}
		})
	}
}

func TestEvalErrorMessages(t *testing.T) {
	cases := []struct {
		src string
		msg string
	}{
		{"1/0", "2: invalid operation: 1 / 0"},
		{"log(-1)", "1: invalid operation: log(-1)"},
		{"foo(1)", `1: unknown function: "foo"`},
		{"y", `1: undefined variable: "y"`},
		{"(1", "1: open bracket ( with no close bracket"},
		{"1)", "2: close bracket ) with no open bracket"},
		{"abs(1", "1: call to abs with no close bracket"},
		{"1?2", "2: ? with no matching :"},
		{"1:2", "2: : with no matching ?"},
		{"", "1: no expression"},
		{"2(3)", "5: expression leaves 2 values instead of 1"},
		{"*3", "1: * needs 2 operands but has 1"},
		{"1@", `2: invalid operator or unknown character "@"`},
		{"1e400", "1: number out of range: 1e400"},
	}
	for _, c := range cases {
		_, err := rpncalc.Eval(c.src, nil)
		if err == nil {
			t.Errorf("%q succeeded", c.src)
			continue
		}
		if err.Error() != c.msg {
			t.Errorf("%q: want message %q, got %q", c.src, c.msg, err.Error())
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		src string
		ok  bool
		r   float64
	}{
		{"2+3*4", true, 14},
		{"x*2", true, 10},
		{"1/0", false, 0},
		{"foo(1)", false, 0},
		{"(1+2", false, 0},
		{"1?2", false, 0},
		{"", false, 0},
		{"log(-1)", false, 0},
		{"y", false, 0},
	}
	for _, c := range cases {
		r, ok := rpncalc.Parse(c.src, map[string]float64{"x": 5})
		if ok != c.ok || r != c.r {
			t.Errorf("%q: want (%g, %t), got (%g, %t)", c.src, c.r, c.ok, r, ok)
		}
	}
}

func TestEvalIdempotent(t *testing.T) {
	srcs := []string{"2+3*4", "deg(pi)", "1?0?5:6:7", "sqrt(2)", "x^x", "1/0"}
	consts := map[string]float64{"x": 1.5}
	for _, src := range srcs {
		p, err := rpncalc.Compile(src, consts)
		if err != nil {
			t.Fatalf("%q failed to compile: %v", src, err)
		}
		a, aerr := p.Eval()
		b, berr := p.Eval()
		if a != b || !reflect.DeepEqual(aerr, berr) {
			t.Errorf("%q: first evaluation gave (%g, %v), second (%g, %v)", src, a, aerr, b, berr)
		}
		c, cok := rpncalc.Parse(src, consts)
		d, dok := rpncalc.Parse(src, consts)
		if c != d || cok != dok {
			t.Errorf("%q: first parse gave (%g, %t), second (%g, %t)", src, c, cok, d, dok)
		}
		if cok && c != a {
			t.Errorf("%q: Parse gave %g but Eval gave %g", src, c, a)
		}
	}
}

func TestCompileCopiesConstants(t *testing.T) {
	consts := map[string]float64{"x": 1}
	p, err := rpncalc.Compile("x+1", consts)
	if err != nil {
		t.Fatal(err)
	}
	consts["x"] = 100
	delete(consts, "x")
	r, err := p.Eval()
	if err != nil {
		t.Fatal(err)
	}
	if r != 2 {
		t.Errorf("want 2, got %g", r)
	}
}

func TestCompileDoesNotModifyConstants(t *testing.T) {
	consts := map[string]float64{"X": 1}
	if _, err := rpncalc.Compile("x", consts); err != nil {
		t.Fatal(err)
	}
	if want := map[string]float64{"X": 1}; !reflect.DeepEqual(consts, want) {
		t.Errorf("constants changed: want %v, got %v", want, consts)
	}
}

func TestEvalConcurrent(t *testing.T) {
	p, err := rpncalc.Compile("sqrt(x*x+1)?x^2:0", map[string]float64{"x": 3})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan float64)
	for i := 0; i < 8; i++ {
		go func() {
			r, _ := p.Eval()
			done <- r
		}()
	}
	for i := 0; i < 8; i++ {
		if r := <-done; r != 9 {
			t.Errorf("want 9, got %g", r)
		}
	}
}

func TestProgramSource(t *testing.T) {
	p, err := rpncalc.Compile(" SQRT( X ) ", map[string]float64{"x": 4})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Source(); got != "sqrt(x)" {
		t.Errorf("want source %q, got %q", "sqrt(x)", got)
	}
	if got := p.String(); got != "4 sqrt" {
		t.Errorf("want program %q, got %q", "4 sqrt", got)
	}
	if p.Len() != 2 {
		t.Errorf("want 2 tokens, got %d", p.Len())
	}
}

func TestEvalNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	cases := []struct {
		name string
		src  string
		x    float64
		col  int
		msg  string
	}{
		{"nan-branch", "1?x:2", nan, 3, "3: invalid operation: NaN"},
		{"nan-compared", "x>1", nan, 1, "1: invalid operation: NaN"},
		{"nan-alone", "x", nan, 1, "1: invalid operation: NaN"},
		{"inf-then", "1?x:2", inf, 4, "4: invalid operation: 1 ? +Inf : 2"},
		{"inf-else", "0?2:x", inf, 4, "4: invalid operation: 0 ? 2 : +Inf"},
		{"inf-alone", "x", inf, 1, "1: invalid operation: result(+Inf)"},
		{"inf-negated", "-x", inf, 1, "1: invalid operation: neg(+Inf)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := rpncalc.Compile(c.src, map[string]float64{"x": c.x})
			if err != nil {
				t.Fatalf("%q failed to compile: %v", c.src, err)
			}
			r, err := p.Eval()
			if err == nil {
				t.Fatalf("%q succeeded with %g", c.src, r)
			}
			var de *rpncalc.DomainError
			if !errors.As(err, &de) {
				t.Fatalf("%q: want *DomainError, got %#v", c.src, err)
			}
			if de.Col != c.col {
				t.Errorf("%q: want column %d, got %d", c.src, c.col, de.Col)
			}
			if err.Error() != c.msg {
				t.Errorf("%q: want message %q, got %q", c.src, c.msg, err.Error())
			}
			if r, ok := rpncalc.Parse(c.src, map[string]float64{"x": c.x}); ok || r != 0 {
				t.Errorf("%q: Parse gave (%g, %t)", c.src, r, ok)
			}
			b, err := p.EvalBig(0)
			if err == nil {
				t.Fatalf("%q succeeded in big precision with %v", c.src, b)
			}
			if !errors.As(err, &de) || de.Col != c.col {
				t.Errorf("%q: big precision gave %#v, want *DomainError at column %d", c.src, err, c.col)
			}
		})
	}
}

func TestEvalInfiniteOperand(t *testing.T) {
	consts := map[string]float64{"x": math.Inf(1)}
	cases := []struct {
		src string
		r   float64
	}{
		{"1/x", 0},
		{"0?x:2", 2},
		{"1?2:x", 2},
		{"x>1", 1},
	}
	for _, c := range cases {
		r, err := rpncalc.Eval(c.src, consts)
		if err != nil {
			t.Errorf("%q failed: %v", c.src, err)
			continue
		}
		if r != c.r {
			t.Errorf("%q: want %g, got %g", c.src, c.r, r)
		}
	}
}
