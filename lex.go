package rpncalc

import (
	"math"
	"strings"
	"unicode"
)

// source is an expression with whitespace removed and letters folded to
// lower case. It remembers where each byte came from so that errors can
// report positions in the text the caller wrote.
type source struct {
	text string
	// cols holds the 1-based rune column in the original input of each byte
	// of text.
	cols []int
	// end is the column just past the end of the original input.
	end int
}

func normalize(s string) source {
	var b strings.Builder
	b.Grow(len(s))
	cols := make([]int, 0, len(s))
	col := 0
	for _, r := range s {
		col++
		if unicode.IsSpace(r) {
			continue
		}
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for i := n; i < b.Len(); i++ {
			cols = append(cols, col)
		}
	}
	return source{text: b.String(), cols: cols, end: col + 1}
}

// col returns the original column of the byte at position i of the
// normalized text. Positions at or past the end map to the end of the input.
func (s *source) col(i int) int {
	if i < len(s.cols) {
		return s.cols[i]
	}
	return s.end
}

func isdigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isletter(c byte) bool {
	return 'a' <= c && c <= 'z'
}

func isident(c byte) bool {
	return isletter(c) || isdigit(c) || c == '_'
}

// scanNum returns the length of the longest numeric literal prefixing s. The
// literal may still be invalid, e.g. a lone ".". An exponent is only part of
// the literal when at least one digit follows the marker and optional sign.
func scanNum(s string) int {
	i := 0
	for i < len(s) && isdigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isdigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isdigit(s[j]) {
			for j < len(s) && isdigit(s[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

// scanIdent returns the length of the identifier prefixing s.
func scanIdent(s string) int {
	i := 0
	for i < len(s) && isident(s[i]) {
		i++
	}
	return i
}

// foldConsts copies a constant map with its names folded to lower case and
// pi added.
func foldConsts(consts map[string]float64) map[string]float64 {
	m := make(map[string]float64, len(consts)+1)
	for k, v := range consts {
		m[strings.ToLower(k)] = v
	}
	m["pi"] = math.Pi
	return m
}
