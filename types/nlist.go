package types

// An Nlist32 is a Mach-O 32-bit symbol table entry.
type Nlist32 struct {
	Name  int32
	Type  NType
	Sect  uint8
	Desc  NDesc
	Value uint32
}

// An Nlist64 is a Mach-O 64-bit symbol table entry.
type Nlist64 struct {
	Name  int32
	Type  NType
	Sect  uint8
	Desc  NDesc
	Value uint64
}

const (
	Nlist32Size = 12
	Nlist64Size = 16
)

// NType is the n_type byte of a symbol table entry.
type NType uint8

const (
	N_STAB NType = 0xe0 /* if any of these bits set, a symbolic debugging entry */
	N_PEXT NType = 0x10 /* private external symbol bit */
	N_TYPE NType = 0x0e /* mask for the type bits */
	N_EXT  NType = 0x01 /* external symbol bit, set for external symbols */
)

/*
 * Values for N_TYPE bits of the n_type field.
 */
const (
	N_UNDF NType = 0x0 /* undefined, n_sect == NO_SECT */
	N_ABS  NType = 0x2 /* absolute, n_sect == NO_SECT */
	N_SECT NType = 0xe /* defined in section number n_sect */
	N_PBUD NType = 0xc /* prebound undefined (defined in a dylib) */
	N_INDR NType = 0xa /* indirect */
)

// IsExternal reports whether the symbol is visible outside its image.
func (t NType) IsExternal() bool { return t&N_EXT != 0 }

// IsPrivateExternal reports whether the symbol was external before
// being scoped to its linkage unit.
func (t NType) IsPrivateExternal() bool { return t&N_PEXT != 0 }

// IsDebugSym reports whether the entry is a stab emitted for debuggers.
func (t NType) IsDebugSym() bool { return t&N_STAB != 0 }

// Kind returns the N_TYPE bits.
func (t NType) Kind() NType { return t & N_TYPE }

func (t NType) IsUndefined() bool { return !t.IsDebugSym() && t.Kind() == N_UNDF }
func (t NType) IsDefined() bool   { return !t.IsDebugSym() && t.Kind() == N_SECT }

var nTypeStrings = []intName{
	{uint32(N_UNDF), "undefined"},
	{uint32(N_ABS), "absolute"},
	{uint32(N_SECT), "section"},
	{uint32(N_PBUD), "prebound"},
	{uint32(N_INDR), "indirect"},
}

func (t NType) String() string {
	if t.IsDebugSym() {
		return "stab"
	}
	s := stringName(uint32(t.Kind()), nTypeStrings, false)
	switch {
	case t.IsPrivateExternal():
		s += "|private_external"
	case t.IsExternal():
		s += "|external"
	}
	return s
}

// NDesc is the n_desc field of a symbol table entry.
type NDesc uint16

const (
	N_WEAK_REF      NDesc = 0x0040 /* symbol is weak referenced */
	N_WEAK_DEF      NDesc = 0x0080 /* coalesced symbol is a weak definition */
	N_ARM_THUMB_DEF NDesc = 0x0008 /* symbol is a Thumb function (ARM) */
	N_ALT_ENTRY     NDesc = 0x0200 /* symbol is pinned to the previous content */
)

func (d NDesc) IsWeakReference() bool  { return d&N_WEAK_REF != 0 }
func (d NDesc) IsWeakDefinition() bool { return d&N_WEAK_DEF != 0 }

// LibraryOrdinal is the two-level namespace ordinal of an undefined symbol.
func (d NDesc) LibraryOrdinal() uint8 { return uint8(d >> 8) }
