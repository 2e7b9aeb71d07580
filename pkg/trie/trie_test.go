package trie

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testTrie exports "_TF4main3fooFT_T_" at 0x10 and re-exports "_b" as "_c"
// from ordinal 1.
var testTrie = []byte{
	0x00, 0x02, // root: no terminal, two edges
	'_', 'T', 'F', '4', 'm', 'a', 'i', 'n', '3', 'f', 'o', 'o', 'F', 'T', '_', 'T', '_', 0x00, 25,
	'_', 'b', 0x00, 29,
	0x02, 0x00, 0x10, 0x00, // @25: regular export at 0x10
	0x05, 0x08, 0x01, '_', 'c', 0x00, 0x00, // @29: re-export
}

func TestParse(t *testing.T) {
	entries, err := Parse(testTrie, 0x100000000)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return bytes.Compare([]byte(a.Name), []byte(b.Name)) })
	want := []Entry{
		{Name: "_TF4main3fooFT_T_", Address: 0x100000010},
		{Name: "_b", ReExport: "_c", Flags: ExportReExport, Other: 1},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
	if !entries[0].Flags.Regular() || !entries[1].Flags.ReExport() {
		t.Fatalf("flags = %s, %s", entries[0].Flags, entries[1].Flags)
	}
}

func TestLookup(t *testing.T) {
	e, err := Lookup(testTrie, "_TF4main3fooFT_T_", 0x1000)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e.Address != 0x1010 {
		t.Fatalf("Lookup address = %#x, want 0x1010", e.Address)
	}
	for _, missing := range []string{"_TF4main3barFT_T_", "_", "_bb"} {
		if _, err := Lookup(testTrie, missing, 0); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup(%q) = %v, want ErrNotFound", missing, err)
		}
	}
}

func TestParseLoops(t *testing.T) {
	loop := []byte{0x00, 0x01, 'a', 0x00, 0x00}
	if _, err := Parse(loop, 0); err == nil {
		t.Fatalf("Parse accepted a trie whose edge points back at the root")
	}
}

func TestReadUleb128(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, tt := range tests {
		got, err := ReadUleb128(bytes.NewReader(tt.in))
		if err != nil || got != tt.want {
			t.Fatalf("ReadUleb128(% x) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
	if _, err := ReadUleb128(bytes.NewReader([]byte{0x80})); err == nil {
		t.Fatalf("truncated ULEB128 accepted")
	}
}
