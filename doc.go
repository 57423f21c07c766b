// Package rpncalc implements a floating-point calculator for infix expressions.
//
// Expressions are compiled to reverse Polish notation with the shunting-yard
// algorithm and then evaluated on a stack. Whitespace is ignored everywhere,
// even inside names and numbers, and letters are case-insensitive, so
// " S I N ( 0 ) " is the same as "sin(0)".
//
// From loosest to tightest binding, the operators are
//
//	?:                    conditional, right-associative
//	||                    logical or
//	&&                    logical and
//	==  !=                equality
//	<  <=  >  >=          comparison
//	+  -                  addition, subtraction
//	*  /  %               multiplication, division, remainder
//	^                     exponentiation, right-associative
//	-                     negation, prefix
//
// Logical and comparison operators produce 1 or 0. A condition is true when
// its magnitude exceeds 1e-8. Both branches of a conditional are evaluated.
// The remainder has the sign of the dividend. Negation binds tighter than
// exponentiation, so "-2^2" is 4.
//
// The functions are abs, sin, cos, tan, asin, acos, atan, exp, log (natural),
// ceil, floor, sqrt, deg (radians to degrees), and rad (degrees to radians).
// Every function takes one argument in parentheses.
//
// Names other than functions refer to constants supplied by the caller, plus
// pi, which is always defined. Constants are replaced by their values when an
// expression is compiled, so a Program does not observe later changes to
// the map it was compiled with.
//
// Any operation whose result is infinite or NaN makes the whole expression
// fail; there are no partial results. A NaN constant fails wherever it is
// used. An infinite constant is allowed only where the values it feeds are
// finite, as in 1/x.
package rpncalc
