package macho

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/go-dwarf"
)

// ErrNoDWARF is returned by DWARF when the image carries no __debug_info.
var ErrNoDWARF = errors.New("macho: no DWARF debug info")

func dwarfSuffix(s *Section) string {
	switch {
	case strings.HasPrefix(s.Name, "__debug_"):
		return s.Name[8:]
	case strings.HasPrefix(s.Name, "__zdebug_"):
		return s.Name[9:]
	default:
		return ""
	}
}

func dwarfSectionData(s *Section) ([]byte, error) {
	b, err := s.Data()
	if err != nil && uint64(len(b)) < s.Size {
		return nil, err
	}
	if len(b) >= 12 && string(b[:4]) == "ZLIB" {
		dlen := binary.BigEndian.Uint64(b[4:12])
		if dlen > 1<<62 {
			return nil, &FormatError{int64(s.Offset), "invalid compressed section size", dlen}
		}
		r, err := zlib.NewReader(bytes.NewBuffer(b[12:]))
		if err != nil {
			return nil, err
		}
		dbuf, err := io.ReadAll(io.LimitReader(r, int64(dlen)))
		if err != nil {
			return nil, err
		}
		if uint64(len(dbuf)) < dlen {
			return nil, io.ErrUnexpectedEOF
		}
		if err := r.Close(); err != nil {
			return nil, err
		}
		b = dbuf
	}
	return b, nil
}

// DWARF returns the DWARF debug information for the Mach-O file.
func (f *File) DWARF() (*dwarf.Data, error) {
	// There are many other DWARF sections, but these
	// are the ones the dwarf package uses.
	var dat = map[string][]byte{"abbrev": nil, "info": nil, "str": nil, "line": nil, "ranges": nil}
	for _, s := range f.Sections {
		suffix := dwarfSuffix(s)
		if _, ok := dat[suffix]; !ok {
			continue
		}
		b, err := dwarfSectionData(s)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s.%s: %w", s.Seg, s.Name, err)
		}
		dat[suffix] = b
	}
	if dat["info"] == nil {
		return nil, ErrNoDWARF
	}

	d, err := dwarf.New(dat["abbrev"], nil, nil, dat["info"], dat["line"], nil, dat["ranges"], dat["str"])
	if err != nil {
		return nil, err
	}

	// Look for DWARF4 .debug_types sections.
	for i, s := range f.Sections {
		if dwarfSuffix(s) != "types" {
			continue
		}
		b, err := dwarfSectionData(s)
		if err != nil {
			return nil, err
		}
		if err := d.AddTypes(fmt.Sprintf("types-%d", i), b); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// CompileUnits lists the names of the compile units in the image's DWARF.
func (f *File) CompileUnits() ([]string, error) {
	d, err := f.DWARF()
	if err != nil {
		return nil, err
	}
	var names []string
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			return names, nil
		}
		if e.Tag == dwarf.TagCompileUnit {
			if name, ok := e.Val(dwarf.AttrName).(string); ok {
				names = append(names, name)
			}
		}
		r.SkipChildren()
	}
}
