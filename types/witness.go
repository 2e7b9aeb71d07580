package types

import (
	"fmt"
	"strings"
)

// NumValueWitnesses is the count of function witnesses at the head of a
// value witness table.
const NumValueWitnesses = 16

var valueWitnessNames = [NumValueWitnesses]string{
	"destroyBuffer",
	"initializeBufferWithCopyOfBuffer",
	"projectBuffer",
	"deallocateBuffer",
	"destroy",
	"initializeBufferWithCopy",
	"initializeWithCopy",
	"assignWithCopy",
	"initializeBufferWithTake",
	"initializeWithTake",
	"assignWithTake",
	"allocateBuffer",
	"initializeBufferWithTakeOfBuffer",
	"destroyArray",
	"initializeArrayWithCopy",
	"initializeArrayWithTakeFrontToBack",
}

// ValueWitnessName names witness slot i.
func ValueWitnessName(i int) string {
	if i < 0 || i >= NumValueWitnesses {
		return fmt.Sprintf("witness%d", i)
	}
	return valueWitnessNames[i]
}

// ValueWitnessTable32 is the on-disk layout for 32-bit images.
type ValueWitnessTable32 struct {
	Witnesses  [NumValueWitnesses]uint32
	Size       uint32
	Flags      uint16
	Log2Stride uint16
	Stride     uint32
}

// ValueWitnessTable64 is the on-disk layout for 64-bit images. Four bytes of
// padding separate size from flags.
type ValueWitnessTable64 struct {
	Witnesses  [NumValueWitnesses]uint64
	Size       uint64
	_          uint32
	Flags      uint16
	Log2Stride uint16
	Stride     uint64
}

const (
	ValueWitnessTable32Size = NumValueWitnesses*4 + 4 + 2 + 2 + 4
	ValueWitnessTable64Size = NumValueWitnesses*8 + 8 + 4 + 2 + 2 + 8
)

// ValueWitnessTable is the width-independent view of either layout.
type ValueWitnessTable struct {
	Witnesses  [NumValueWitnesses]uint64
	Size       uint64
	Flags      ValueWitnessFlags
	Log2Stride uint16
	Stride     uint64
}

func (v ValueWitnessTable32) Widen() ValueWitnessTable {
	out := ValueWitnessTable{
		Size:       uint64(v.Size),
		Flags:      ValueWitnessFlags(v.Flags),
		Log2Stride: v.Log2Stride,
		Stride:     uint64(v.Stride),
	}
	for i, w := range v.Witnesses {
		out.Witnesses[i] = uint64(w)
	}
	return out
}

func (v ValueWitnessTable64) Widen() ValueWitnessTable {
	return ValueWitnessTable{
		Witnesses:  v.Witnesses,
		Size:       v.Size,
		Flags:      ValueWitnessFlags(v.Flags),
		Log2Stride: v.Log2Stride,
		Stride:     v.Stride,
	}
}

// ValueWitnessFlags holds the alignment mask and per-type traits.
type ValueWitnessFlags uint16

const (
	VWAlignmentMask    ValueWitnessFlags = 0x00ff
	VWIsNonPOD         ValueWitnessFlags = 0x0100
	VWIsNonInline      ValueWitnessFlags = 0x0200
	VWHasExtraInhabits ValueWitnessFlags = 0x0400
	VWHasSpareBits     ValueWitnessFlags = 0x0800
	VWIsNonBitwiseTake ValueWitnessFlags = 0x1000
	VWHasEnumWitnesses ValueWitnessFlags = 0x2000
)

func (f ValueWitnessFlags) Alignment() uint64 { return uint64(f&VWAlignmentMask) + 1 }
func (f ValueWitnessFlags) IsPOD() bool       { return f&VWIsNonPOD == 0 }
func (f ValueWitnessFlags) IsInline() bool    { return f&VWIsNonInline == 0 }

func (f ValueWitnessFlags) String() string {
	parts := []string{fmt.Sprintf("align=%d", f.Alignment())}
	if !f.IsPOD() {
		parts = append(parts, "non-pod")
	}
	if !f.IsInline() {
		parts = append(parts, "non-inline")
	}
	if f&VWHasExtraInhabits != 0 {
		parts = append(parts, "extra-inhabitants")
	}
	if f&VWHasEnumWitnesses != 0 {
		parts = append(parts, "enum-witnesses")
	}
	return strings.Join(parts, ",")
}
