// Package trie reads the dyld export trie: a prefix tree whose terminal nodes
// carry the flags and address of each exported symbol.
package trie

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned by Lookup when the trie has no terminal for a name.
var ErrNotFound = errors.New("trie: symbol not in trie")

type Entry struct {
	Name     string
	ReExport string
	Flags    ExportFlag
	Other    uint64
	Address  uint64
}

func (e Entry) String() string {
	switch {
	case e.Flags.ReExport():
		return fmt.Sprintf("%s (re-exported as %q from ordinal %d)", e.Name, e.ReExport, e.Other)
	case e.Flags.StubAndResolver():
		return fmt.Sprintf("%#016x: %s\t(resolver %#x)", e.Address, e.Name, e.Other)
	}
	return fmt.Sprintf("%#016x: %s", e.Address, e.Name)
}

type node struct {
	offset uint64
	prefix []byte
}

// ReadUleb128 reads one unsigned LEB128 value.
func ReadUleb128(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, fmt.Errorf("could not parse ULEB128 value: %w", err)
		}
		if shift >= 64 {
			return 0, fmt.Errorf("ULEB128 value overflows 64 bits")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func readCString(r *bytes.Reader) []byte {
	var out []byte
	for {
		c, err := r.ReadByte()
		if err != nil || c == 0 {
			return out
		}
		out = append(out, c)
	}
}

// Parse walks every terminal in the trie. Addresses of regular and
// thread-local exports are rebased onto loadAddress.
func Parse(data []byte, loadAddress uint64) ([]Entry, error) {
	var entries []Entry

	r := bytes.NewReader(data)
	stack := []node{{}}
	seen := make(map[uint64]bool)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.offset >= uint64(len(data)) {
			return nil, fmt.Errorf("trie node offset %#x out of range", n.offset)
		}
		if seen[n.offset] {
			return nil, fmt.Errorf("trie node %#x visited twice", n.offset)
		}
		seen[n.offset] = true

		r.Seek(int64(n.offset), io.SeekStart)
		terminalSize, err := ReadUleb128(r)
		if err != nil {
			return nil, err
		}
		childrenAt := int64(len(data)) - int64(r.Len()) + int64(terminalSize)

		if terminalSize != 0 {
			e, err := readTerminal(r, n.prefix, loadAddress)
			if err != nil {
				return nil, fmt.Errorf("failed to read terminal for %q: %w", n.prefix, err)
			}
			entries = append(entries, e)
		}

		if childrenAt >= int64(len(data)) {
			continue
		}
		r.Seek(childrenAt, io.SeekStart)
		count, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			edge := readCString(r)
			child, err := ReadUleb128(r)
			if err != nil {
				return nil, err
			}
			prefix := make([]byte, 0, len(n.prefix)+len(edge))
			prefix = append(append(prefix, n.prefix...), edge...)
			stack = append(stack, node{offset: child, prefix: prefix})
		}
	}

	return entries, nil
}

func readTerminal(r *bytes.Reader, name []byte, loadAddress uint64) (Entry, error) {
	e := Entry{Name: string(name)}

	flags, err := ReadUleb128(r)
	if err != nil {
		return e, err
	}
	e.Flags = ExportFlag(flags)

	switch {
	case e.Flags.ReExport():
		if e.Other, err = ReadUleb128(r); err != nil {
			return e, err
		}
		e.ReExport = string(readCString(r))
		if e.ReExport == "" {
			e.ReExport = e.Name
		}
		return e, nil
	case e.Flags.StubAndResolver():
		if e.Address, err = ReadUleb128(r); err != nil {
			return e, err
		}
		if e.Other, err = ReadUleb128(r); err != nil {
			return e, err
		}
		e.Address += loadAddress
		e.Other += loadAddress
		return e, nil
	}

	if e.Address, err = ReadUleb128(r); err != nil {
		return e, err
	}
	if !e.Flags.Absolute() {
		e.Address += loadAddress
	}
	return e, nil
}

// Lookup follows the edges matching symbol and returns its terminal entry.
func Lookup(data []byte, symbol string, loadAddress uint64) (Entry, error) {
	r := bytes.NewReader(data)
	var offset uint64
	matched := 0

	for {
		if offset >= uint64(len(data)) {
			return Entry{}, ErrNotFound
		}
		r.Seek(int64(offset), io.SeekStart)
		terminalSize, err := ReadUleb128(r)
		if err != nil {
			return Entry{}, err
		}
		if matched == len(symbol) {
			if terminalSize == 0 {
				return Entry{}, ErrNotFound
			}
			return readTerminal(r, []byte(symbol), loadAddress)
		}

		r.Seek(int64(terminalSize), io.SeekCurrent)
		count, err := r.ReadByte()
		if err != nil {
			return Entry{}, ErrNotFound
		}

		next := uint64(0)
		for i := 0; i < int(count); i++ {
			edge := readCString(r)
			child, err := ReadUleb128(r)
			if err != nil {
				return Entry{}, err
			}
			if bytes.HasPrefix([]byte(symbol[matched:]), edge) && len(edge) > 0 {
				matched += len(edge)
				next = child
				break
			}
		}
		if next == 0 {
			return Entry{}, ErrNotFound
		}
		offset = next
	}
}
