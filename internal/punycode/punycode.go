// Package punycode decodes the Punycode dialect used for non-ASCII
// identifiers in mangled Swift names. It differs from RFC 3492 in its digit
// alphabet (a-z then A-J), its delimiter ('_') and its escape of ASCII
// non-identifier characters into the 0xD800 block.
package punycode

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	base        = 36
	tMin        = 1
	tMax        = 26
	skew        = 38
	damp        = 700
	initialBias = 72
	initialN    = 128
	delimiter   = '_'

	// Code points in [escapeBase, escapeBase+0x80) stand for ASCII bytes.
	escapeBase = 0xD800
)

// ErrMalformed is the sentinel wrapped by every decode failure.
var ErrMalformed = errors.New("punycode: malformed input")

// Error reports where decoding failed.
type Error struct {
	Pos    int
	Char   byte
	Reason string
}

func (e *Error) Error() string {
	if e.Char != 0 {
		return fmt.Sprintf("punycode: %s %q at offset %d", e.Reason, e.Char, e.Pos)
	}
	return fmt.Sprintf("punycode: %s at offset %d", e.Reason, e.Pos)
}

func (e *Error) Unwrap() error { return ErrMalformed }

func digitValue(c byte) (int64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return int64(c - 'a'), true
	case c >= 'A' && c <= 'J':
		return int64(c-'A') + 26, true
	}
	return 0, false
}

func threshold(k, bias int64) int64 {
	switch {
	case k <= bias:
		return tMin
	case k >= bias+tMax:
		return tMax
	}
	return k - bias
}

func adapt(delta, numPoints int64, first bool) int64 {
	if first {
		delta /= damp
	} else {
		delta /= 2
	}
	delta += delta / numPoints
	k := int64(0)
	for delta > ((base-tMin)*tMax)/2 {
		delta /= base - tMin
		k += base
	}
	return k + (base-tMin+1)*delta/(delta+skew)
}

// Decode expands an encoded identifier into its Unicode text.
func Decode(encoded string) (string, error) {
	var out []rune
	pos := 0
	if idx := strings.LastIndexByte(encoded, delimiter); idx >= 0 {
		for i := 0; i < idx; i++ {
			c := encoded[i]
			if c >= utf8.RuneSelf {
				return "", &Error{Pos: i, Char: c, Reason: "non-ASCII byte in basic prefix"}
			}
			out = append(out, rune(c))
		}
		pos = idx + 1
	}

	n := int64(initialN)
	bias := int64(initialBias)
	i := int64(0)

	for pos < len(encoded) {
		oldi := i
		w := int64(1)
		for k := int64(base); ; k += base {
			if pos >= len(encoded) {
				return "", &Error{Pos: pos, Reason: "truncated digit group"}
			}
			c := encoded[pos]
			digit, ok := digitValue(c)
			if !ok {
				return "", &Error{Pos: pos, Char: c, Reason: "invalid digit"}
			}
			pos++
			if digit > (math.MaxInt32-i)/w {
				return "", &Error{Pos: pos - 1, Char: c, Reason: "delta overflow"}
			}
			i += digit * w
			t := threshold(k, bias)
			if digit < t {
				break
			}
			if w > math.MaxInt32/(base-t) {
				return "", &Error{Pos: pos - 1, Char: c, Reason: "weight overflow"}
			}
			w *= base - t
		}

		length := int64(len(out)) + 1
		bias = adapt(i-oldi, length, oldi == 0)
		if i/length > utf8.MaxRune-n {
			return "", &Error{Pos: pos, Reason: "code point overflow"}
		}
		n += i / length
		i %= length
		if n < initialN {
			return "", &Error{Pos: pos, Reason: "basic code point in encoded group"}
		}

		r := rune(n)
		switch {
		case n >= escapeBase && n < escapeBase+0x80:
			r = rune(n - escapeBase)
		case n >= escapeBase+0x80 && n < 0xE000:
			return "", &Error{Pos: pos, Reason: "surrogate code point"}
		}
		out = append(out, 0)
		copy(out[i+1:], out[i:])
		out[i] = r
		i++
	}

	return string(out), nil
}
