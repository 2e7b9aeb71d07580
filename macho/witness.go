package macho

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/appsworld/swiftbind/types"
)

// ValueWitnessTable decodes the value witness table stored at a file
// offset, using the image's pointer width and byte order.
func (f *File) ValueWitnessTable(offset int64) (*types.ValueWitnessTable, error) {
	size := types.ValueWitnessTable32Size
	if f.Is64() {
		size = types.ValueWitnessTable64Size
	}
	dat := make([]byte, size)
	if _, err := f.sr.ReadAt(dat, offset); err != nil {
		return nil, &FormatError{offset, "value witness table extends past end of file", nil}
	}

	var vwt types.ValueWitnessTable
	r := bytes.NewReader(dat)
	if f.Is64() {
		var v types.ValueWitnessTable64
		if err := binary.Read(r, f.ByteOrder, &v); err != nil {
			return nil, fmt.Errorf("failed to read value witness table: %w", err)
		}
		vwt = v.Widen()
	} else {
		var v types.ValueWitnessTable32
		if err := binary.Read(r, f.ByteOrder, &v); err != nil {
			return nil, fmt.Errorf("failed to read value witness table: %w", err)
		}
		vwt = v.Widen()
	}
	return &vwt, nil
}

// ValueWitnessTableAt is ValueWitnessTable for a virtual address, such as
// the value of a _TWV symbol.
func (f *File) ValueWitnessTableAt(addr uint64) (*types.ValueWitnessTable, error) {
	off, err := f.GetOffset(addr)
	if err != nil {
		return nil, err
	}
	return f.ValueWitnessTable(int64(off))
}
