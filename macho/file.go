// Package macho reads Mach-O images and fat containers far enough to
// recover exported symbol names and the metadata needed to bind them.
package macho

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/appsworld/swiftbind/types"
)

var (
	// ErrStaticArchive is returned for ar(1) archives, which hold object
	// files rather than a linked image.
	ErrStaticArchive = errors.New("macho: static archives are not supported")
	// ErrNotFat is returned by NewFatFile when the input is a thin image.
	ErrNotFat = errors.New("macho: not a fat container")
)

// A File represents an open Mach-O file.
type File struct {
	FileTOC

	// Offset is where this image starts inside its container.
	Offset int64
	Symtab *Symtab

	sr     *io.SectionReader
	closer io.Closer
}

type FileTOC struct {
	types.FileHeader
	ByteOrder binary.ByteOrder
	Loads     []Load
	Sections  []*Section
}

// LoadsString returns a string representation of all the MachO's load commands
func (t *FileTOC) LoadsString() string {
	var s string
	for i, l := range t.Loads {
		s += fmt.Sprintf("%03d: %-24s %v\n", i, l.Command(), l)
	}
	return s
}

// FormatError is returned by some operations if the data does
// not have the correct format for an object file.
type FormatError struct {
	Off int64
	Msg string
	Val any
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if e.Val != nil {
		msg += fmt.Sprintf(" '%v'", e.Val)
	}
	msg += fmt.Sprintf(" in record at byte %#x", e.Off)
	return msg
}

// FileConfig is a MachO file config object
type FileConfig struct {
	// LazySymbols defers decoding the symbol table until Symtab.Symbols is called.
	LazySymbols bool
	Logger      *slog.Logger
}

func (c FileConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Open opens the named file using os.Open and prepares it for use as a Mach-O binary.
func Open(name string, config ...FileConfig) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	ff, err := NewFile(f, config...)
	if err != nil {
		f.Close()
		return nil, err
	}
	ff.closer = f
	return ff, nil
}

// Close closes the File.
// If the File was created using NewFile directly instead of Open,
// Close has no effect.
func (f *File) Close() error {
	var err error
	if f.closer != nil {
		err = f.closer.Close()
		f.closer = nil
	}
	return err
}

// NewFile creates a new File for accessing a Mach-O binary in an underlying reader.
// The Mach-O binary is expected to start at position 0 in the ReaderAt.
func NewFile(r io.ReaderAt, config ...FileConfig) (*File, error) {
	var cfg FileConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	log := cfg.logger()

	f := new(File)
	size := readerSize(r)
	if size < 0 {
		size = 1<<63 - 1
	}
	f.sr = io.NewSectionReader(r, 0, size)

	// Read and decode Mach magic to determine byte order, size.
	// Magic32 and Magic64 differ only in the bottom bit.
	var ident [8]byte
	n, err := r.ReadAt(ident[:], 0)
	if n < 4 {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if n == len(ident) && string(ident[:]) == types.ArchiveMagic {
		return nil, ErrStaticArchive
	}
	be := binary.BigEndian.Uint32(ident[0:])
	le := binary.LittleEndian.Uint32(ident[0:])
	switch types.Magic32.Int() &^ 1 {
	case be &^ 1:
		f.ByteOrder = binary.BigEndian
		f.Magic = types.Magic(be)
	case le &^ 1:
		f.ByteOrder = binary.LittleEndian
		f.Magic = types.Magic(le)
	default:
		if types.Magic(be) == types.MagicFat || types.Magic(be) == types.CigamFat {
			return nil, &FormatError{0, "fat container where a single image was expected", types.Magic(be)}
		}
		return nil, &FormatError{0, "invalid magic number", be}
	}

	// Read entire file header.
	hdrSize := f.FileHeader.Size()
	hdr := make([]byte, hdrSize)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	hb := bytes.NewReader(hdr)
	if f.Is64() {
		err = binary.Read(hb, f.ByteOrder, &f.FileHeader)
	} else {
		var h32 fileHeader32
		err = binary.Read(hb, f.ByteOrder, &h32)
		f.FileHeader = types.FileHeader{
			Magic:        h32.Magic,
			CPU:          h32.CPU,
			SubCPU:       h32.SubCPU,
			Type:         h32.Type,
			NCommands:    h32.NCommands,
			SizeCommands: h32.SizeCommands,
			Flags:        h32.Flags,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Then load commands. Every command is at least 8 bytes.
	offset := hdrSize
	if f.NCommands > f.SizeCommands/8 {
		return nil, &FormatError{offset, "command count exceeds command size", f.NCommands}
	}
	dat, err := readRange(f.sr, offset, int64(f.SizeCommands))
	if err != nil {
		return nil, &FormatError{offset, "load commands extend past end of file", f.SizeCommands}
	}
	f.Loads = make([]Load, 0, f.NCommands)
	bo := f.ByteOrder
	for i := uint32(0); i < f.NCommands; i++ {
		// Each load command begins with uint32 command and length.
		if len(dat) < 8 {
			return nil, &FormatError{offset, "command block too small", nil}
		}
		cmd, siz := types.LoadCmd(bo.Uint32(dat[0:4])), bo.Uint32(dat[4:8])
		if siz < 8 || siz > uint32(len(dat)) {
			return nil, &FormatError{offset, "invalid command block size", siz}
		}

		var cmddat []byte
		cmddat, dat = dat[0:siz], dat[siz:]
		l, err := f.parseLoad(cmd, cmddat, offset, cfg)
		if err != nil {
			return nil, err
		}
		if l == nil {
			log.Debug("unhandled load command", "cmd", cmd, "size", siz, "offset", offset)
			l = LoadCmdBytes{cmd, LoadBytes(cmddat)}
		}
		f.Loads = append(f.Loads, l)
		offset += int64(siz)
	}

	return f, nil
}

// readerSize returns how many bytes r holds, or -1 when r cannot say.
func readerSize(r io.ReaderAt) int64 {
	switch v := r.(type) {
	case interface{ Size() int64 }:
		return v.Size()
	case *os.File:
		if fi, err := v.Stat(); err == nil && fi.Mode().IsRegular() {
			return fi.Size()
		}
	}
	return -1
}

// readRange reads n bytes at off. Lengths taken from the file are checked
// against the reader size before anything is allocated.
func readRange(r io.ReaderAt, off, n int64) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if size := readerSize(r); size >= 0 && (off > size || n > size-off) {
		return nil, io.ErrUnexpectedEOF
	}
	dat, err := io.ReadAll(io.NewSectionReader(r, off, n))
	if err != nil {
		return nil, err
	}
	if int64(len(dat)) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return dat, nil
}

// fileHeader32 is FileHeader without the trailing reserved word.
type fileHeader32 struct {
	Magic        types.Magic
	CPU          types.CPU
	SubCPU       types.CPUSubtype
	Type         types.HeaderFileType
	NCommands    uint32
	SizeCommands uint32
	Flags        types.HeaderFlag
}

// parseLoad decodes one command. It returns a nil Load for commands it does
// not interpret.
func (f *File) parseLoad(cmd types.LoadCmd, cmddat []byte, offset int64, cfg FileConfig) (Load, error) {
	bo := f.ByteOrder
	b := bytes.NewReader(cmddat)

	switch cmd {
	case types.LC_SEGMENT:
		var seg32 types.Segment32
		if err := binary.Read(b, bo, &seg32); err != nil {
			return nil, fmt.Errorf("failed to read LC_SEGMENT: %w", err)
		}
		s := &Segment{LoadBytes: cmddat}
		s.LoadCmd = cmd
		s.Len = seg32.Len
		s.Name = cstring(seg32.Name[0:])
		s.Addr = uint64(seg32.Addr)
		s.Memsz = uint64(seg32.Memsz)
		s.Offset = uint64(seg32.Offset)
		s.Filesz = uint64(seg32.Filesz)
		s.Maxprot = seg32.Maxprot
		s.Prot = seg32.Prot
		s.Nsect = seg32.Nsect
		s.Flag = seg32.Flag
		s.Firstsect = uint32(len(f.Sections))
		s.sr = io.NewSectionReader(f.sr, int64(s.Offset), int64(s.Filesz))
		for i := 0; i < int(s.Nsect); i++ {
			var sh32 types.Section32
			if err := binary.Read(b, bo, &sh32); err != nil {
				return nil, fmt.Errorf("failed to read Section32: %w", err)
			}
			f.pushSection(SectionHeader{
				Name:   cstring(sh32.Name[0:]),
				Seg:    cstring(sh32.Seg[0:]),
				Addr:   uint64(sh32.Addr),
				Size:   uint64(sh32.Size),
				Offset: sh32.Offset,
				Align:  sh32.Align,
				Flags:  sh32.Flags,
			})
		}
		return s, nil
	case types.LC_SEGMENT_64:
		var seg64 types.Segment64
		if err := binary.Read(b, bo, &seg64); err != nil {
			return nil, fmt.Errorf("failed to read LC_SEGMENT_64: %w", err)
		}
		s := &Segment{LoadBytes: cmddat}
		s.LoadCmd = cmd
		s.Len = seg64.Len
		s.Name = cstring(seg64.Name[0:])
		s.Addr = seg64.Addr
		s.Memsz = seg64.Memsz
		s.Offset = seg64.Offset
		s.Filesz = seg64.Filesz
		s.Maxprot = seg64.Maxprot
		s.Prot = seg64.Prot
		s.Nsect = seg64.Nsect
		s.Flag = seg64.Flag
		s.Firstsect = uint32(len(f.Sections))
		s.sr = io.NewSectionReader(f.sr, int64(s.Offset), int64(s.Filesz))
		for i := 0; i < int(s.Nsect); i++ {
			var sh64 types.Section64
			if err := binary.Read(b, bo, &sh64); err != nil {
				return nil, fmt.Errorf("failed to read Section64: %w", err)
			}
			f.pushSection(SectionHeader{
				Name:   cstring(sh64.Name[0:]),
				Seg:    cstring(sh64.Seg[0:]),
				Addr:   sh64.Addr,
				Size:   sh64.Size,
				Offset: sh64.Offset,
				Align:  sh64.Align,
				Flags:  sh64.Flags,
			})
		}
		return s, nil
	case types.LC_SYMTAB:
		var hdr types.SymtabCmd
		if err := binary.Read(b, bo, &hdr); err != nil {
			return nil, fmt.Errorf("failed to read LC_SYMTAB: %w", err)
		}
		st, err := f.parseSymtab(cmddat, hdr, cfg.LazySymbols)
		if err != nil {
			return nil, fmt.Errorf("failed to parse symbol table: %w", err)
		}
		f.Symtab = st
		return st, nil
	case types.LC_LOAD_DYLIB, types.LC_ID_DYLIB, types.LC_LOAD_WEAK_DYLIB, types.LC_REEXPORT_DYLIB:
		var hdr types.DylibCmd
		if err := binary.Read(b, bo, &hdr); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cmd, err)
		}
		if hdr.Name >= uint32(len(cmddat)) {
			return nil, &FormatError{offset, "invalid name in dynamic library command", hdr.Name}
		}
		d := Dylib{
			LoadBytes:      LoadBytes(cmddat),
			DylibCmd:       hdr,
			Name:           cstring(cmddat[hdr.Name:]),
			Time:           hdr.Time,
			CurrentVersion: hdr.CurrentVersion.String(),
			CompatVersion:  hdr.CompatVersion.String(),
		}
		switch cmd {
		case types.LC_ID_DYLIB:
			return &DylibID{d}, nil
		case types.LC_LOAD_WEAK_DYLIB:
			return &WeakDylib{d}, nil
		case types.LC_REEXPORT_DYLIB:
			return &ReExportDylib{d}, nil
		}
		return &d, nil
	case types.LC_UUID:
		u := &UUID{LoadBytes: cmddat}
		if err := binary.Read(b, bo, &u.UUIDCmd); err != nil {
			return nil, fmt.Errorf("failed to read LC_UUID: %w", err)
		}
		return u, nil
	case types.LC_VERSION_MIN_MACOSX, types.LC_VERSION_MIN_IPHONEOS, types.LC_VERSION_MIN_TVOS, types.LC_VERSION_MIN_WATCHOS:
		v := &VersionMin{LoadBytes: cmddat, Platform: versionMinPlatform[cmd]}
		if err := binary.Read(b, bo, &v.VersionMinCmd); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cmd, err)
		}
		return v, nil
	case types.LC_BUILD_VERSION:
		bv := &BuildVersion{LoadBytes: cmddat}
		if err := binary.Read(b, bo, &bv.BuildVersionCmd); err != nil {
			return nil, fmt.Errorf("failed to read LC_BUILD_VERSION: %w", err)
		}
		if int64(bv.NumTools)*8 > int64(b.Len()) {
			return nil, &FormatError{offset, "build tool count exceeds command size", bv.NumTools}
		}
		bv.Tools = make([]types.BuildToolVersion, bv.NumTools)
		if err := binary.Read(b, bo, bv.Tools); err != nil {
			return nil, fmt.Errorf("failed to read LC_BUILD_VERSION tools: %w", err)
		}
		return bv, nil
	case types.LC_DYLD_INFO, types.LC_DYLD_INFO_ONLY:
		di := &DyldInfo{LoadBytes: cmddat}
		if err := binary.Read(b, bo, &di.DyldInfoCmd); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", cmd, err)
		}
		return di, nil
	case types.LC_DYLD_EXPORTS_TRIE:
		et := &DyldExportsTrie{LoadBytes: cmddat}
		if err := binary.Read(b, bo, &et.LinkEditDataCmd); err != nil {
			return nil, fmt.Errorf("failed to read LC_DYLD_EXPORTS_TRIE: %w", err)
		}
		return et, nil
	}
	return nil, nil
}

var versionMinPlatform = map[types.LoadCmd]types.Platform{
	types.LC_VERSION_MIN_MACOSX:   types.PlatformMacOS,
	types.LC_VERSION_MIN_IPHONEOS: types.PlatformIOS,
	types.LC_VERSION_MIN_TVOS:     types.PlatformTvOS,
	types.LC_VERSION_MIN_WATCHOS:  types.PlatformWatchOS,
}

func (f *File) pushSection(sh SectionHeader) {
	s := &Section{SectionHeader: sh}
	s.sr = io.NewSectionReader(f.sr, int64(sh.Offset), int64(sh.Size))
	f.Sections = append(f.Sections, s)
}

func cstring(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		i = len(b)
	}
	return string(b[0:i])
}

// Is64 reports whether the image uses the 64-bit layout.
func (f *File) Is64() bool { return f.Magic == types.Magic64 }

// PointerSize is the width in bytes of an address in the image.
func (f *File) PointerSize() int {
	if f.Is64() {
		return 8
	}
	return 4
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	return f.sr.ReadAt(p, off)
}

// GetOffset returns the file offset for a given virtual address
func (f *File) GetOffset(address uint64) (uint64, error) {
	for _, seg := range f.Segments() {
		if seg.Addr <= address && address < seg.Addr+seg.Memsz {
			return (address - seg.Addr) + seg.Offset, nil
		}
	}
	return 0, fmt.Errorf("address 0x%x not within any segments adress range", address)
}

// GetVMAddress returns the virtal address for a given file offset
func (f *File) GetVMAddress(offset uint64) (uint64, error) {
	for _, seg := range f.Segments() {
		if seg.Offset <= offset && offset < seg.Offset+seg.Filesz {
			return (offset - seg.Offset) + seg.Addr, nil
		}
	}
	return 0, fmt.Errorf("offset 0x%x not within any segments file offset range", offset)
}

// GetBaseAddress returns the MachO's preferred load address: the address of
// the first segment mapped from file offset zero.
func (f *File) GetBaseAddress() uint64 {
	for _, s := range f.Segments() {
		if s.Offset == 0 && s.Filesz != 0 {
			return s.Addr
		}
	}
	return 0
}

// Segment returns the first Segment with the given name, or nil if no such segment exists.
func (f *File) Segment(name string) *Segment {
	for _, s := range f.Segments() {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Segments returns all Segments.
func (f *File) Segments() []*Segment {
	var segs []*Segment
	for _, l := range f.Loads {
		if s, ok := l.(*Segment); ok {
			segs = append(segs, s)
		}
	}
	return segs
}

// Section returns the section with the given name in the given segment,
// or nil if no such section exists.
func (f *File) Section(segment, section string) *Section {
	for _, s := range f.Sections {
		if s.Seg == segment && s.Name == section {
			return s
		}
	}
	return nil
}

// UUID returns the LC_UUID load command, or nil.
func (f *File) UUID() *UUID {
	for _, l := range f.Loads {
		if u, ok := l.(*UUID); ok {
			return u
		}
	}
	return nil
}

// DylibID returns the LC_ID_DYLIB load command, or nil.
func (f *File) DylibID() *DylibID {
	for _, l := range f.Loads {
		if d, ok := l.(*DylibID); ok {
			return d
		}
	}
	return nil
}

// BuildVersion returns the LC_BUILD_VERSION load command, or nil.
func (f *File) BuildVersion() *BuildVersion {
	for _, l := range f.Loads {
		if b, ok := l.(*BuildVersion); ok {
			return b
		}
	}
	return nil
}

// VersionMin returns the first LC_VERSION_MIN_* load command, or nil.
func (f *File) VersionMin() *VersionMin {
	for _, l := range f.Loads {
		if v, ok := l.(*VersionMin); ok {
			return v
		}
	}
	return nil
}

// ImportedLibraries returns the paths of all libraries
// referred to by the binary f that are expected to be
// linked with the binary at dynamic link time.
func (f *File) ImportedLibraries() []string {
	var all []string
	for _, l := range f.Loads {
		switch lib := l.(type) {
		case *Dylib:
			all = append(all, lib.Name)
		case *WeakDylib:
			all = append(all, lib.Name)
		case *ReExportDylib:
			all = append(all, lib.Name)
		}
	}
	return all
}

// GetCStringAtOffset reads a zero terminated string at a file offset.
func (f *File) GetCStringAtOffset(strOffset int64) (string, error) {
	var out []byte
	buf := make([]byte, 64)
	for {
		n, err := f.sr.ReadAt(buf, strOffset)
		if i := bytes.IndexByte(buf[:n], 0); i >= 0 {
			return string(append(out, buf[:i]...)), nil
		}
		out = append(out, buf[:n]...)
		if err != nil {
			return "", fmt.Errorf("failed to read string at offset %#x: %w", strOffset, err)
		}
		strOffset += int64(n)
	}
}
