package punycode

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "SingleNonASCII", in: "tda", out: "ü"},
		{name: "BasicPrefix", in: "ber_goa", out: "über"},
		{name: "TrailingAccent", in: "caf_dma", out: "café"},
		{name: "CJK", in: "wgvHBaBBJe", out: "日本語"},
		{name: "Greek", in: "mxacd", out: "αβγ"},
		{name: "Interleaved", in: "ab_GtHd", out: "a日b"},
		{name: "LeadingInsert", in: "t_Jfab", out: "été"},
		{name: "EscapedASCII", in: "ab_uhJk", out: "a-b"},
		{name: "EscapeAndLatin", in: "x_ehaEHDGn", out: "x+ü"},
		{name: "OnlyBasic", in: "abc_", out: "abc"},
		{name: "Empty", in: "", out: ""},
	}

	for _, tc := range cases {
		got, err := Decode(tc.in)
		if err != nil {
			t.Fatalf("%s: Decode(%q) failed: %v", tc.name, tc.in, err)
		}
		if got != tc.out {
			t.Fatalf("%s: Decode(%q) = %q, want %q", tc.name, tc.in, got, tc.out)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		pos  int
	}{
		{name: "DigitOutsideAlphabet", in: "abc_K", pos: 4},
		{name: "DecimalDigit", in: "ab_9", pos: 3},
		{name: "Truncated", in: "ab_z", pos: 4},
		{name: "NonASCIIPrefix", in: "\xc3\xbc_a", pos: 0},
	}

	for _, tc := range cases {
		_, err := Decode(tc.in)
		if err == nil {
			t.Fatalf("%s: Decode(%q) succeeded, want error", tc.name, tc.in)
		}
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: Decode(%q) error %v does not wrap ErrMalformed", tc.name, tc.in, err)
		}
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%s: Decode(%q) error %T is not *Error", tc.name, tc.in, err)
		}
		if perr.Pos != tc.pos {
			t.Fatalf("%s: Decode(%q) error at %d, want %d", tc.name, tc.in, perr.Pos, tc.pos)
		}
	}
}

func TestDecodeOverflow(t *testing.T) {
	// A long run of maximal digits never terminates a group and keeps
	// multiplying the weight.
	in := "JJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJJ"
	if _, err := Decode(in); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Decode(%q) = %v, want ErrMalformed", in, err)
	}
}

func TestThreshold(t *testing.T) {
	cases := []struct {
		k, bias, want int64
	}{
		{k: 36, bias: 72, want: tMin},
		{k: 72, bias: 72, want: tMin},
		{k: 80, bias: 72, want: 8},
		{k: 98, bias: 72, want: tMax},
		{k: 200, bias: 72, want: tMax},
	}
	for _, tc := range cases {
		if got := threshold(tc.k, tc.bias); got != tc.want {
			t.Fatalf("threshold(%d, %d) = %d, want %d", tc.k, tc.bias, got, tc.want)
		}
	}
}
