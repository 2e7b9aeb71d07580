package macho

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/appsworld/swiftbind/types"
)

// A Symbol is a Mach-O 32-bit or 64-bit symbol table entry.
type Symbol struct {
	Name  string
	Strx  int32
	Type  types.NType
	Sect  uint8
	Desc  types.NDesc
	Value uint64
}

// IsPublic reports whether the entry is visible outside the image.
func (s Symbol) IsPublic() bool { return s.Type.IsExternal() }

// IsDebug reports whether the entry is a debugger-only stab.
func (s Symbol) IsDebug() bool { return s.Type.IsDebugSym() }

// IsImport reports whether the entry refers to a definition in another image.
func (s Symbol) IsImport() bool { return s.Type.IsUndefined() }

// IsDefined reports whether the entry is defined in one of the image's sections.
func (s Symbol) IsDefined() bool { return s.Type.IsDefined() }

// IsWeak reports whether the entry is a weak definition or a weak import.
func (s Symbol) IsWeak() bool { return s.Desc.IsWeakDefinition() || s.Desc.IsWeakReference() }

// IsCandidate reports whether the entry is worth decoding for binding:
// public and not a debugger record.
func (s Symbol) IsCandidate() bool { return s.IsPublic() && !s.IsDebug() }

func (s Symbol) String() string {
	return fmt.Sprintf("0x%016x %-28s %s", s.Value, s.Type, s.Name)
}

type symbolTable struct {
	sr   io.ReaderAt
	bo   binary.ByteOrder
	is64 bool
	hdr  types.SymtabCmd

	once sync.Once
	syms []Symbol
	err  error
	done atomic.Bool
}

func (t *symbolTable) loaded() bool { return t.done.Load() }

func (t *symbolTable) load() ([]Symbol, error) {
	t.once.Do(func() {
		t.syms, t.err = t.read()
		t.done.Store(true)
	})
	return t.syms, t.err
}

func (t *symbolTable) read() ([]Symbol, error) {
	strtab, err := readRange(t.sr, int64(t.hdr.Stroff), int64(t.hdr.Strsize))
	if err != nil {
		return nil, &FormatError{int64(t.hdr.Stroff), "string table extends past end of file", t.hdr.Strsize}
	}

	symsz := types.Nlist32Size
	if t.is64 {
		symsz = types.Nlist64Size
	}
	symdat, err := readRange(t.sr, int64(t.hdr.Symoff), int64(t.hdr.Nsyms)*int64(symsz))
	if err != nil {
		return nil, &FormatError{int64(t.hdr.Symoff), "symbol table extends past end of file", t.hdr.Nsyms}
	}

	syms := make([]Symbol, t.hdr.Nsyms)
	b := bytes.NewReader(symdat)
	for i := range syms {
		var n types.Nlist64
		if t.is64 {
			if err := binary.Read(b, t.bo, &n); err != nil {
				return nil, fmt.Errorf("failed to read nlist64 %d: %w", i, err)
			}
		} else {
			var n32 types.Nlist32
			if err := binary.Read(b, t.bo, &n32); err != nil {
				return nil, fmt.Errorf("failed to read nlist32 %d: %w", i, err)
			}
			n = types.Nlist64{Name: n32.Name, Type: n32.Type, Sect: n32.Sect, Desc: n32.Desc, Value: uint64(n32.Value)}
		}
		if n.Name < 0 || int64(n.Name) >= int64(len(strtab)) {
			return nil, &FormatError{int64(t.hdr.Symoff) + int64(i*symsz), "invalid name in symbol table", n.Name}
		}
		syms[i] = Symbol{
			Name:  cstring(strtab[n.Name:]),
			Strx:  n.Name,
			Type:  n.Type,
			Sect:  n.Sect,
			Desc:  n.Desc,
			Value: n.Value,
		}
	}
	return syms, nil
}

func (f *File) parseSymtab(cmddat []byte, hdr types.SymtabCmd, lazy bool) (*Symtab, error) {
	st := &Symtab{
		LoadBytes: LoadBytes(cmddat),
		SymtabCmd: hdr,
		table: &symbolTable{
			sr:   f.sr,
			bo:   f.ByteOrder,
			is64: f.Is64(),
			hdr:  hdr,
		},
	}
	if !lazy {
		if _, err := st.table.load(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Symbols returns the symbol table entries, or nil when the image has no
// LC_SYMTAB.
func (f *File) Symbols() ([]Symbol, error) {
	if f.Symtab == nil {
		return nil, nil
	}
	return f.Symtab.Symbols()
}
