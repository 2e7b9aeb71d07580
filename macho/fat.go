package macho

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/appsworld/swiftbind/types"
)

// A FatFile is a Mach-O universal binary that contains at least one architecture.
type FatFile struct {
	types.FatHeader
	ByteOrder binary.ByteOrder
	Arches    []FatArch

	closer io.Closer
}

// A FatArch is a Mach-O File inside a FatFile.
type FatArch struct {
	types.FatArchHeader
	*File
}

// NewFatFile creates a new FatFile for accessing all the Mach-O images in a
// universal binary. The Mach-O binary is expected to start at position 0 in
// the ReaderAt.
func NewFatFile(r io.ReaderAt, config ...FileConfig) (*FatFile, error) {
	var ff FatFile

	var ident [types.FatHeaderSize]byte
	if _, err := r.ReadAt(ident[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read fat header: %w", err)
	}
	switch types.Magic(binary.BigEndian.Uint32(ident[0:])) {
	case types.MagicFat:
		ff.ByteOrder = binary.BigEndian
	case types.CigamFat:
		ff.ByteOrder = binary.LittleEndian
	default:
		return nil, ErrNotFat
	}
	ff.Magic = types.MagicFat
	ff.NArch = ff.ByteOrder.Uint32(ident[4:])
	if ff.NArch < 1 {
		return nil, &FormatError{0, "file contains no images", nil}
	}

	dat, err := readRange(r, types.FatHeaderSize, int64(ff.NArch)*types.FatArchHeaderSize)
	if err != nil {
		return nil, &FormatError{types.FatHeaderSize, "fat arch table extends past end of file", ff.NArch}
	}
	b := bytes.NewReader(dat)

	type archKey struct {
		cpu types.CPU
		sub types.CPUSubtype
	}
	seen := make(map[archKey]bool, ff.NArch)
	ff.Arches = make([]FatArch, 0, ff.NArch)
	for i := uint32(0); i < ff.NArch; i++ {
		off := int64(types.FatHeaderSize) + int64(i)*types.FatArchHeaderSize

		var fa FatArch
		if err := binary.Read(b, ff.ByteOrder, &fa.FatArchHeader); err != nil {
			return nil, &FormatError{off, "invalid fat_arch header", nil}
		}
		key := archKey{fa.CPU, fa.SubCPU & types.CpuSubtypeMask}
		if seen[key] {
			return nil, &FormatError{off, "duplicate architecture", fa.CPU}
		}
		seen[key] = true

		start := int64(fa.FatArchHeader.Offset)
		sr := io.NewSectionReader(r, start, int64(fa.FatArchHeader.Size))
		f, err := NewFile(sr, config...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s slice at %#x: %w", fa.CPU, start, err)
		}
		f.Offset = start
		fa.File = f

		if fa.CPU != f.CPU {
			return nil, &FormatError{off, "architecture does not match embedded image", fa.CPU}
		}
		ff.Arches = append(ff.Arches, fa)
	}

	return &ff, nil
}

// OpenFat opens the named file using os.Open and prepares it for use as a Mach-O
// universal binary.
func OpenFat(name string, config ...FileConfig) (*FatFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	ff, err := NewFatFile(f, config...)
	if err != nil {
		f.Close()
		return nil, err
	}
	ff.closer = f
	return ff, nil
}

// Close with close the Mach-O universal binary file.
func (ff *FatFile) Close() error {
	var err error
	if ff.closer != nil {
		err = ff.closer.Close()
		ff.closer = nil
	}
	return err
}

// Files returns every architecture image in table order.
func (ff *FatFile) Files() []*File {
	files := make([]*File, 0, len(ff.Arches))
	for _, a := range ff.Arches {
		files = append(files, a.File)
	}
	return files
}

// Read detects the container format at the start of r and returns every image
// it holds: one for a thin Mach-O, one per architecture for a fat container.
func Read(r io.ReaderAt, config ...FileConfig) ([]*File, error) {
	var ident [4]byte
	if _, err := r.ReadAt(ident[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	switch types.Magic(binary.BigEndian.Uint32(ident[:])) {
	case types.MagicFat, types.CigamFat:
		ff, err := NewFatFile(r, config...)
		if err != nil {
			return nil, err
		}
		return ff.Files(), nil
	}
	f, err := NewFile(r, config...)
	if err != nil {
		return nil, err
	}
	return []*File{f}, nil
}

// ReadFile reads the whole named file into memory and parses it with Read.
// The returned images do not keep the file open.
func ReadFile(name string, config ...FileConfig) ([]*File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), config...)
}
