// Package machotest assembles small Mach-O and fat images in memory for
// tests.
package machotest

import (
	"bytes"
	"encoding/binary"

	"github.com/appsworld/swiftbind/types"
)

// Symbol is one nlist entry. A zero Type means an exported symbol defined
// in section 1.
type Symbol struct {
	Name  string
	Type  types.NType
	Sect  uint8
	Desc  types.NDesc
	Value uint64
}

// Command is a raw load command placed ahead of the generated ones.
type Command struct {
	Cmd     types.LoadCmd
	Payload []byte
}

// Image describes a thin Mach-O image. The generated image carries one
// __TEXT segment mapping the whole file at Base (rounded up to 16KiB in
// memory), then an LC_SYMTAB.
type Image struct {
	Is32      bool
	BigEndian bool
	CPU       types.CPU
	SubCPU    types.CPUSubtype
	Type      types.HeaderFileType
	Base      uint64
	Commands  []Command
	Symbols   []Symbol
	// NoSymtab omits the LC_SYMTAB command.
	NoSymtab bool
}

func (im Image) order() binary.ByteOrder {
	if im.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (im Image) cpu() types.CPU {
	switch {
	case im.CPU != 0:
		return im.CPU
	case im.Is32:
		return types.CPUArm
	}
	return types.CPUArm64
}

// Addr returns the address the image maps file offset off at.
func (im Image) Addr(off uint64) uint64 { return im.base() + off }

func (im Image) base() uint64 {
	if im.Base != 0 {
		return im.Base
	}
	if im.Is32 {
		return 0x1000
	}
	return 0x100000000
}

// Bytes lays the image out.
func (im Image) Bytes() []byte {
	bo := im.order()
	ftype := im.Type
	if ftype == 0 {
		ftype = types.MH_DYLIB
	}

	hdrSize, segSize, nlistSize := 32, 72, types.Nlist64Size
	if im.Is32 {
		hdrSize, segSize, nlistSize = 28, 56, types.Nlist32Size
	}
	const symtabSize = 24

	var extra int
	for _, c := range im.Commands {
		extra += 8 + len(c.Payload)
	}
	ncmds := uint32(len(im.Commands) + 1)
	sizeCmds := extra + segSize
	if !im.NoSymtab {
		ncmds++
		sizeCmds += symtabSize
	}

	var strtab bytes.Buffer
	strtab.WriteByte(0)
	strx := make([]uint32, len(im.Symbols))
	for i, s := range im.Symbols {
		strx[i] = uint32(strtab.Len())
		strtab.WriteString(s.Name)
		strtab.WriteByte(0)
	}
	symoff := hdrSize + sizeCmds
	stroff := symoff + len(im.Symbols)*nlistSize
	total := stroff + strtab.Len()
	vmsize := (total + 0x3fff) &^ 0x3fff

	var b bytes.Buffer
	w := func(v any) { binary.Write(&b, bo, v) }

	if im.Is32 {
		w(uint32(types.Magic32))
	} else {
		w(uint32(types.Magic64))
	}
	w(uint32(im.cpu()))
	w(uint32(im.SubCPU))
	w(uint32(ftype))
	w(ncmds)
	w(uint32(sizeCmds))
	w(uint32(0))
	if !im.Is32 {
		w(uint32(0))
	}

	for _, c := range im.Commands {
		w(uint32(c.Cmd))
		w(uint32(8 + len(c.Payload)))
		b.Write(c.Payload)
	}

	var name [16]byte
	copy(name[:], "__TEXT")
	if im.Is32 {
		w(uint32(types.LC_SEGMENT))
		w(uint32(segSize))
		b.Write(name[:])
		w(uint32(im.base()))
		w(uint32(vmsize))
		w(uint32(0))
		w(uint32(total))
	} else {
		w(uint32(types.LC_SEGMENT_64))
		w(uint32(segSize))
		b.Write(name[:])
		w(im.base())
		w(uint64(vmsize))
		w(uint64(0))
		w(uint64(total))
	}
	w(uint32(5)) // maxprot r-x
	w(uint32(5))
	w(uint32(0)) // nsects
	w(uint32(0))

	if !im.NoSymtab {
		w(uint32(types.LC_SYMTAB))
		w(uint32(symtabSize))
		w(uint32(symoff))
		w(uint32(len(im.Symbols)))
		w(uint32(stroff))
		w(uint32(strtab.Len()))
	}

	for i, s := range im.Symbols {
		typ, sect := s.Type, s.Sect
		if typ == 0 {
			typ, sect = types.N_SECT|types.N_EXT, 1
		}
		w(strx[i])
		b.WriteByte(byte(typ))
		b.WriteByte(sect)
		w(uint16(s.Desc))
		if im.Is32 {
			w(uint32(s.Value))
		} else {
			w(s.Value)
		}
	}
	b.Write(strtab.Bytes())
	return b.Bytes()
}

// Fat wraps images in a fat container. Slices are page aligned; swapped
// writes the header in little-endian order.
func Fat(swapped bool, images ...Image) []byte {
	const align = 0x1000
	var bo binary.ByteOrder = binary.BigEndian
	if swapped {
		bo = binary.LittleEndian
	}

	slices := make([][]byte, len(images))
	for i, im := range images {
		slices[i] = im.Bytes()
	}

	var b bytes.Buffer
	w := func(v any) { binary.Write(&b, bo, v) }
	w(uint32(types.MagicFat))
	w(uint32(len(images)))

	off := uint32(align)
	offsets := make([]uint32, len(images))
	for i, im := range images {
		offsets[i] = off
		w(uint32(im.cpu()))
		w(uint32(im.SubCPU))
		w(off)
		w(uint32(len(slices[i])))
		w(uint32(12))
		off += (uint32(len(slices[i])) + align - 1) &^ (align - 1)
	}
	for i, s := range slices {
		b.Write(make([]byte, int(offsets[i])-b.Len()))
		b.Write(s)
	}
	return b.Bytes()
}
