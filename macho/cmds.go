package macho

import (
	"fmt"
	"io"
	"strings"

	"github.com/appsworld/swiftbind/types"
)

// A Load represents any Mach-O load command.
type Load interface {
	Raw() []byte
	String() string
	Command() types.LoadCmd
}

// LoadBytes is the uninterpreted bytes of a Mach-O load command.
type LoadBytes []byte

func (b LoadBytes) Raw() []byte { return b }
func (b LoadBytes) String() string {
	s := "["
	for i, a := range b {
		if i > 0 {
			s += " "
			if len(b) > 48 && i >= 16 {
				s += fmt.Sprintf("... (%d bytes)", len(b))
				break
			}
		}
		s += fmt.Sprintf("%x", a)
	}
	s += "]"
	return s
}

// LoadCmdBytes is a command we do not interpret; its bytes are kept so the
// command sequence stays intact.
type LoadCmdBytes struct {
	types.LoadCmd
	LoadBytes
}

func (s LoadCmdBytes) String() string {
	return s.LoadCmd.String() + ": " + s.LoadBytes.String()
}

/*******************************************************************************
 * SEGMENT
 *******************************************************************************/

// A SegmentHeader is the header for a Mach-O 32-bit or 64-bit load segment command.
type SegmentHeader struct {
	types.LoadCmd
	Len       uint32
	Name      string
	Addr      uint64
	Memsz     uint64
	Offset    uint64
	Filesz    uint64
	Maxprot   types.VmProtection
	Prot      types.VmProtection
	Nsect     uint32
	Flag      types.SegFlag
	Firstsect uint32
}

// A Segment represents a Mach-O 32-bit or 64-bit load segment command.
type Segment struct {
	SegmentHeader
	LoadBytes

	sr *io.SectionReader
}

// Data reads and returns the contents of the segment.
func (s *Segment) Data() ([]byte, error) {
	return readRange(s.sr, 0, int64(s.Filesz))
}

func (s *Segment) String() string {
	return fmt.Sprintf("%s sz=0x%08x off=0x%08x-0x%08x addr=0x%09x-0x%09x %s/%s %s",
		s.Name, s.Filesz, s.Offset, s.Offset+s.Filesz, s.Addr, s.Addr+s.Memsz, s.Prot, s.Maxprot, s.LoadCmd)
}

type SectionHeader struct {
	Name   string
	Seg    string
	Addr   uint64
	Size   uint64
	Offset uint32
	Align  uint32
	Flags  uint32
}

type Section struct {
	SectionHeader

	sr *io.SectionReader
}

// Data reads and returns the contents of the Mach-O section.
func (s *Section) Data() ([]byte, error) {
	return readRange(s.sr, 0, int64(s.Size))
}

// Open returns a new ReadSeeker reading the Mach-O section.
func (s *Section) Open() io.ReadSeeker { return io.NewSectionReader(s.sr, 0, 1<<63-1) }

/*******************************************************************************
 * LC_SYMTAB
 *******************************************************************************/

// A Symtab represents a Mach-O LC_SYMTAB command. Entries are decoded
// either while the file is parsed or on the first call to Symbols.
type Symtab struct {
	LoadBytes
	types.SymtabCmd

	table *symbolTable
}

func (s *Symtab) String() string {
	return fmt.Sprintf("Symbol offset=0x%08X, Num Syms: %d, String offset=0x%08X-0x%08X",
		s.Symoff, s.Nsyms, s.Stroff, s.Stroff+s.Strsize)
}

// Symbols returns every entry of the table, reading it on first use.
func (s *Symtab) Symbols() ([]Symbol, error) {
	return s.table.load()
}

// Loaded reports whether the entries have been decoded.
func (s *Symtab) Loaded() bool {
	return s.table.loaded()
}

/*******************************************************************************
 * LC_LOAD_DYLIB, LC_ID_DYLIB, LC_LOAD_WEAK_DYLIB, LC_REEXPORT_DYLIB
 *******************************************************************************/

// A Dylib represents a Mach-O load dynamic library command.
type Dylib struct {
	LoadBytes
	types.DylibCmd
	Name           string
	Time           uint32
	CurrentVersion string
	CompatVersion  string
}

func (d *Dylib) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.CurrentVersion)
}

// A DylibID represents a Mach-O LC_ID_DYLIB command: the install name the
// image was linked with.
type DylibID struct{ Dylib }

// A WeakDylib represents a Mach-O LC_LOAD_WEAK_DYLIB command.
type WeakDylib struct{ Dylib }

// A ReExportDylib represents a Mach-O LC_REEXPORT_DYLIB command.
type ReExportDylib struct{ Dylib }

/*******************************************************************************
 * LC_UUID
 *******************************************************************************/

type UUID struct {
	LoadBytes
	types.UUIDCmd
}

func (u *UUID) String() string { return u.UUID.String() }

/*******************************************************************************
 * LC_VERSION_MIN_*
 *******************************************************************************/

// VersionMin covers the four LC_VERSION_MIN_* commands; Platform tells them apart.
type VersionMin struct {
	LoadBytes
	types.VersionMinCmd
	Platform types.Platform
}

func (v *VersionMin) String() string {
	return fmt.Sprintf("%s %s (sdk %s)", v.Platform, v.Version, v.Sdk)
}

/*******************************************************************************
 * LC_BUILD_VERSION
 *******************************************************************************/

type BuildVersion struct {
	LoadBytes
	types.BuildVersionCmd
	Tools []types.BuildToolVersion
}

func (b *BuildVersion) String() string {
	var tools []string
	for _, t := range b.Tools {
		tools = append(tools, fmt.Sprintf("%s %s", t.Tool, t.Version))
	}
	s := fmt.Sprintf("Platform: %s, MinOS: %s, SDK: %s", b.Platform, b.Minos, b.Sdk)
	if len(tools) > 0 {
		s += ", Tools: " + strings.Join(tools, "; ")
	}
	return s
}

/*******************************************************************************
 * LC_DYLD_INFO, LC_DYLD_INFO_ONLY
 *******************************************************************************/

type DyldInfo struct {
	LoadBytes
	types.DyldInfoCmd
}

func (d *DyldInfo) String() string {
	return fmt.Sprintf("Exports off=0x%08x size=%d", d.ExportOff, d.ExportSize)
}

/*******************************************************************************
 * LC_DYLD_EXPORTS_TRIE
 *******************************************************************************/

type DyldExportsTrie struct {
	LoadBytes
	types.LinkEditDataCmd
}

func (t *DyldExportsTrie) String() string {
	return fmt.Sprintf("offset=0x%08x size=%d", t.Offset, t.Size)
}
