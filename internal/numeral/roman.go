// Package numeral formats event ordinals as Roman numerals.
package numeral

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brandenc40/romannumeral"
)

// MaxRoman is the largest value expressible without overline notation.
const MaxRoman = 3999

var ErrOutOfRange = errors.New("numeral: value out of range")

// Roman formats n (1..3999) in canonical Roman numerals.
func Roman(n int) (string, error) {
	if n < 1 || n > MaxRoman {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}
	s, err := romannumeral.IntToString(n)
	if err != nil {
		return "", fmt.Errorf("numeral: %d: %w", n, err)
	}
	return s, nil
}

// ParseRoman reads a canonical Roman numeral, case-insensitively.
// Non-canonical forms such as "IIII" or "IC" are rejected.
func ParseRoman(s string) (int, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "" {
		return 0, errors.New("numeral: empty numeral")
	}
	n, err := romannumeral.StringToInt(up)
	if err != nil {
		return 0, fmt.Errorf("numeral: invalid numeral %q: %w", s, err)
	}
	// The parser is additive; only the canonical spelling names n.
	if canonical, err := Roman(n); err != nil || canonical != up {
		return 0, fmt.Errorf("numeral: invalid numeral %q", s)
	}
	return n, nil
}
