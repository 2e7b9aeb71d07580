package types

// A CPU is a Mach-O cpu type.
type CPU uint32

const (
	cpuArchMask = 0xff000000 //  mask for architecture bits
	cpuArch64   = 0x01000000 // 64 bit ABI
	cpuArch6432 = 0x02000000 // ABI for 64-bit hardware with 32-bit types; LP32
)

const (
	CPU386     CPU = 7
	CPUAmd64   CPU = CPU386 | cpuArch64
	CPUArm     CPU = 12
	CPUArm64   CPU = CPUArm | cpuArch64
	CPUArm6432 CPU = CPUArm | cpuArch6432
	CPUPpc     CPU = 18
	CPUPpc64   CPU = CPUPpc | cpuArch64
)

var cpuStrings = []intName{
	{uint32(CPU386), "i386"},
	{uint32(CPUAmd64), "x86_64"},
	{uint32(CPUArm), "arm"},
	{uint32(CPUArm64), "arm64"},
	{uint32(CPUArm6432), "arm64_32"},
	{uint32(CPUPpc), "ppc"},
	{uint32(CPUPpc64), "ppc64"},
}

func (i CPU) String() string   { return stringName(uint32(i), cpuStrings, false) }
func (i CPU) GoString() string { return stringName(uint32(i), cpuStrings, true) }

// Is64 reports whether the cpu type uses the LP64 ABI.
func (i CPU) Is64() bool { return i&cpuArchMask == cpuArch64 }

type CPUSubtype uint32

// X86 subtypes
const (
	CPUSubtypeX86All   CPUSubtype = 3
	CPUSubtypeX86_64H  CPUSubtype = 8
	CPUSubtypeArmAll   CPUSubtype = 0
	CPUSubtypeArmV7    CPUSubtype = 9
	CPUSubtypeArmV7S   CPUSubtype = 11
	CPUSubtypeArmV7K   CPUSubtype = 12
	CPUSubtypeArm64All CPUSubtype = 0
	CPUSubtypeArm64V8  CPUSubtype = 1
	CPUSubtypeArm64E   CPUSubtype = 2
)

const (
	CpuSubtypeFeatureMask CPUSubtype = 0xff000000
	CpuSubtypeMask                   = ^CpuSubtypeFeatureMask
)

var cpuSubtypeX86Strings = []intName{
	{uint32(CPUSubtypeX86All), "x86_64"},
	{uint32(CPUSubtypeX86_64H), "x86_64h"},
}
var cpuSubtypeArmStrings = []intName{
	{uint32(CPUSubtypeArmAll), "arm"},
	{uint32(CPUSubtypeArmV7), "armv7"},
	{uint32(CPUSubtypeArmV7S), "armv7s"},
	{uint32(CPUSubtypeArmV7K), "armv7k"},
}
var cpuSubtypeArm64Strings = []intName{
	{uint32(CPUSubtypeArm64All), "arm64"},
	{uint32(CPUSubtypeArm64V8), "arm64v8"},
	{uint32(CPUSubtypeArm64E), "arm64e"},
}

// String names the subtype in the context of its cpu type.
func (st CPUSubtype) String(cpu CPU) string {
	sub := uint32(st & CpuSubtypeMask)
	switch cpu {
	case CPU386, CPUAmd64:
		return stringName(sub, cpuSubtypeX86Strings, false)
	case CPUArm:
		return stringName(sub, cpuSubtypeArmStrings, false)
	case CPUArm64, CPUArm6432:
		return stringName(sub, cpuSubtypeArm64Strings, false)
	}
	return "UNKNOWN"
}
