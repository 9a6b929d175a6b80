package domain

import (
	"math"
	"strconv"
	"strings"
)

// roundHalfUp rounds to the nearest integer, with halves rounding towards
// positive infinity.
func roundHalfUp(x float64) float64 {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

// toFixed formats x with the given number of decimals. Exact ties round away
// from zero rather than to even, so 1.25 renders as "1.3".
func toFixed(x float64, digits int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	s := strconv.FormatFloat(x, 'f', digits, 64)
	if !isDecimalTie(math.Abs(x), digits) {
		return s
	}
	step := math.Pow(10, -float64(digits))
	if x < 0 {
		step = -step
	}
	// The tie was rounded to even; move one step away from zero if it went down.
	if math.Abs(mustParse(s)) < math.Abs(x) {
		return strconv.FormatFloat(mustParse(s)+step, 'f', digits, 64)
	}
	return s
}

// isDecimalTie reports whether the exact decimal expansion of x ends in a
// single 5 directly after the given number of decimals.
func isDecimalTie(x float64, digits int) bool {
	exact := strconv.FormatFloat(x, 'f', 1100, 64)
	dot := strings.IndexByte(exact, '.')
	frac := exact[dot+1:]
	if len(frac) <= digits || frac[digits] != '5' {
		return false
	}
	return strings.Trim(frac[digits+1:], "0") == ""
}

func mustParse(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// roundTo rounds x to the given number of decimals using toFixed semantics.
func roundTo(x float64, digits int) float64 {
	return mustParse(toFixed(x, digits))
}
