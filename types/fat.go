package types

// FatHeader opens a multi-architecture container. Every field is big-endian
// on disk unless the magic reads back as CigamFat.
type FatHeader struct {
	Magic Magic
	NArch uint32
}

// FatArchHeader locates one architecture slice inside a fat container.
type FatArchHeader struct {
	CPU    CPU
	SubCPU CPUSubtype
	Offset uint32
	Size   uint32
	Align  uint32
}

const (
	FatHeaderSize     = 8
	FatArchHeaderSize = 20
)
