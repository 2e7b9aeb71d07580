package trie

import "strings"

// ExportFlag is the flags word of a terminal export-trie node.
type ExportFlag uint64

const (
	ExportKindMask        ExportFlag = 0x03
	ExportKindRegular     ExportFlag = 0x00
	ExportKindThreadLocal ExportFlag = 0x01
	ExportKindAbsolute    ExportFlag = 0x02
	ExportWeakDefinition  ExportFlag = 0x04
	ExportReExport        ExportFlag = 0x08
	ExportStubAndResolver ExportFlag = 0x10
)

func (f ExportFlag) Regular() bool {
	return (f & ExportKindMask) == ExportKindRegular
}
func (f ExportFlag) ThreadLocal() bool {
	return (f & ExportKindMask) == ExportKindThreadLocal
}
func (f ExportFlag) Absolute() bool {
	return (f & ExportKindMask) == ExportKindAbsolute
}
func (f ExportFlag) WeakDefinition() bool {
	return (f & ExportWeakDefinition) != 0
}
func (f ExportFlag) ReExport() bool {
	return (f & ExportReExport) != 0
}
func (f ExportFlag) StubAndResolver() bool {
	return (f & ExportStubAndResolver) != 0
}

func (f ExportFlag) String() string {
	var parts []string
	switch {
	case f.ThreadLocal():
		parts = append(parts, "Thread Local")
	case f.Absolute():
		parts = append(parts, "Absolute")
	default:
		parts = append(parts, "Regular")
	}
	if f.StubAndResolver() {
		parts = append(parts, "(Has Resolver Function)")
	}
	if f.WeakDefinition() {
		parts = append(parts, "(Weak Definition)")
	}
	if f.ReExport() {
		parts = append(parts, "(Re-export)")
	}
	return strings.Join(parts, " ")
}
