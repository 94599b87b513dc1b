// Package cnj handles CNJ unified process numbers
// (NNNNNNN-DD.AAAA.J.TR.OOOO).
package cnj

import (
	"errors"
	"fmt"
	"strings"
)

// Length is the number of digits in a normalized CNJ number.
const Length = 20

// ErrInvalid is returned when a number does not normalize to 20 digits.
var ErrInvalid = errors.New("invalid CNJ number")

// Normalize strips every non-digit character.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse normalizes s and checks its length.
func Parse(s string) (string, error) {
	n := Normalize(s)
	if len(n) != Length {
		return "", fmt.Errorf("%w: %q has %d digits", ErrInvalid, s, len(n))
	}
	return n, nil
}

// Valid reports whether s normalizes to a 20-digit number.
func Valid(s string) bool {
	return len(Normalize(s)) == Length
}

// Format renders a number with CNJ punctuation. Input that does not
// normalize to 20 digits is returned unchanged.
func Format(s string) string {
	n := Normalize(s)
	if len(n) != Length {
		return s
	}
	return n[0:7] + "-" + n[7:9] + "." + n[9:13] + "." + n[13:14] + "." + n[14:16] + "." + n[16:20]
}

// Segments is the decomposition of a normalized number.
type Segments struct {
	Sequence string // NNNNNNN
	Check    string // DD
	Year     string // AAAA
	Justice  string // J
	Court    string // TR
	Origin   string // OOOO
}

// Split decomposes a number into its segments.
func Split(s string) (Segments, error) {
	n, err := Parse(s)
	if err != nil {
		return Segments{}, err
	}
	return Segments{
		Sequence: n[0:7],
		Check:    n[7:9],
		Year:     n[9:13],
		Justice:  n[13:14],
		Court:    n[14:16],
		Origin:   n[16:20],
	}, nil
}
