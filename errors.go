package rpncalc

import (
	"errors"
	"strconv"
)

// NumberError indicates a numeric literal that could not be converted. It
// unwraps to strconv.ErrSyntax for malformed text or strconv.ErrRange for a
// magnitude too large for a float64. It implements InputError.
type NumberError struct {
	// Col is the position of the literal.
	Col int
	// Text is the literal.
	Text string
	// Err is the reason for the failure.
	Err error
}

func (err *NumberError) Error() string {
	if errors.Is(err.Err, strconv.ErrRange) {
		return errpos(err.Col, "number out of range: "+err.Text)
	}
	return errpos(err.Col, "invalid number: "+strconv.Quote(err.Text))
}

func (err *NumberError) Unwrap() error {
	return err.Err
}

func (err *NumberError) Pos() int {
	return err.Col
}

// OperatorError is an error indicating text that is not an operator or any
// other recognized token. It implements InputError.
type OperatorError struct {
	// Col is the position of the text.
	Col int
	// Operator is the first character that was not understood.
	Operator string
}

func (err *OperatorError) Error() string {
	return errpos(err.Col, "invalid operator or unknown character "+strconv.Quote(err.Operator))
}

func (err *OperatorError) Pos() int {
	return err.Col
}

// NameError is an error indicating a name that is neither a constant nor,
// when called, a function. It implements InputError.
type NameError struct {
	// Col is the position of the name.
	Col int
	// Name is the name that was missing, folded to lower case.
	Name string
	// Func is whether the name was used as a function.
	Func bool
}

func (err *NameError) Error() string {
	if err.Func {
		return errpos(err.Col, "unknown function: "+strconv.Quote(err.Name))
	}
	return errpos(err.Col, "undefined variable: "+strconv.Quote(err.Name))
}

func (err *NameError) Pos() int {
	return err.Col
}

// BracketError is an error indicating unbalanced parentheses. It implements
// InputError.
type BracketError struct {
	// Col is the position of the unmatched parenthesis.
	Col int
	// Left is the unclosed opening bracket, or empty if a closing bracket had
	// no opening bracket.
	Left string
	// Func is the name of the function whose argument list was unclosed, if
	// any.
	Func string
}

func (err *BracketError) Error() string {
	switch {
	case err.Left == "":
		return errpos(err.Col, "close bracket ) with no open bracket")
	case err.Func != "":
		return errpos(err.Col, "call to "+err.Func+" with no close bracket")
	default:
		return errpos(err.Col, "open bracket "+err.Left+" with no close bracket")
	}
}

func (err *BracketError) Pos() int {
	return err.Col
}

// TernaryError is an error indicating a ? without a matching : or vice
// versa. It implements InputError.
type TernaryError struct {
	// Col is the position of the unmatched operator.
	Col int
	// Op is the unmatched operator, either "?" or ":".
	Op string
}

func (err *TernaryError) Error() string {
	if err.Op == "?" {
		return errpos(err.Col, "? with no matching :")
	}
	return errpos(err.Col, ": with no matching ?")
}

func (err *TernaryError) Pos() int {
	return err.Col
}

// EmptyExpressionError is an error indicating an expression with nothing but
// whitespace. It implements InputError.
type EmptyExpressionError struct {
	// Col is the position just past the input.
	Col int
}

func (err *EmptyExpressionError) Error() string {
	return errpos(err.Col, "no expression")
}

func (err *EmptyExpressionError) Pos() int {
	return err.Col
}

// DomainError is an error returned when an operation produces an infinite or
// NaN result, e.g. division by zero or the logarithm of a negative number.
// It implements InputError.
type DomainError struct {
	// Col is the position of the operator or function.
	Col int
	// Op names the operation.
	Op string
	// Args are the operands, in source order.
	Args []float64
}

func (err *DomainError) Error() string {
	var s string
	switch len(err.Args) {
	case 1:
		s = err.Op + "(" + fmtnum(err.Args[0]) + ")"
	case 2:
		s = fmtnum(err.Args[0]) + " " + err.Op + " " + fmtnum(err.Args[1])
	case 3:
		s = fmtnum(err.Args[0]) + " ? " + fmtnum(err.Args[1]) + " : " + fmtnum(err.Args[2])
	default:
		s = err.Op
	}
	return errpos(err.Col, "invalid operation: "+s)
}

func (err *DomainError) Pos() int {
	return err.Col
}

// StackError is an error indicating an operator with too few operands, or an
// expression that leaves other than exactly one value. It implements
// InputError.
type StackError struct {
	// Col is the position of the operator, or the end of the input if the
	// whole expression left the wrong number of values.
	Col int
	// Op is the operator that lacked operands, or empty for the final check.
	Op string
	// Need is the number of values required.
	Need int
	// Have is the number of values that were available.
	Have int
}

func (err *StackError) Error() string {
	if err.Op == "" {
		return errpos(err.Col, "expression leaves "+strconv.Itoa(err.Have)+" values instead of 1")
	}
	return errpos(err.Col, err.Op+" needs "+strconv.Itoa(err.Need)+" operands but has "+strconv.Itoa(err.Have))
}

func (err *StackError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

func fmtnum(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based rune column in the original expression of the
	// token that caused the error.
	Pos() int
}

var (
	_ InputError = (*NumberError)(nil)
	_ InputError = (*OperatorError)(nil)
	_ InputError = (*NameError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*TernaryError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*DomainError)(nil)
	_ InputError = (*StackError)(nil)
)

// errclass names the broad category of an error for logs and metrics.
func errclass(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.As(err, new(*NumberError)), errors.As(err, new(*OperatorError)):
		return "lexical"
	case errors.As(err, new(*NameError)):
		return "semantic"
	case errors.As(err, new(*BracketError)),
		errors.As(err, new(*TernaryError)),
		errors.As(err, new(*EmptyExpressionError)):
		return "structural"
	case errors.As(err, new(*DomainError)):
		return "arithmetic"
	case errors.As(err, new(*StackError)):
		return "stack"
	default:
		return "other"
	}
}
