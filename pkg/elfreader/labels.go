package elfreader

import (
	"fmt"
	"strings"
)

// Class is the file class stored at e_ident[EI_CLASS].
type Class byte

const (
	ClassNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

func (c Class) String() string {
	switch c {
	case Class32:
		return "ELF32"
	case Class64:
		return "ELF64"
	case ClassNone:
		return "none"
	}
	return unknown(uint64(c))
}

// DataEncoding is the byte order stored at e_ident[EI_DATA].
type DataEncoding byte

const (
	EncodingNone DataEncoding = 0
	LittleEndian DataEncoding = 1
	BigEndian    DataEncoding = 2
)

func (d DataEncoding) String() string {
	switch d {
	case LittleEndian:
		return "2's complement, little endian"
	case BigEndian:
		return "2's complement, big endian"
	case EncodingNone:
		return "none"
	}
	return unknown(uint64(d))
}

// OSABI is the operating system ABI stored at e_ident[EI_OSABI].
type OSABI byte

var osabiNames = map[OSABI]string{
	0:   "UNIX - System V",
	1:   "UNIX - HP-UX",
	2:   "UNIX - NetBSD",
	3:   "UNIX - GNU",
	6:   "UNIX - Solaris",
	7:   "UNIX - AIX",
	8:   "UNIX - IRIX",
	9:   "UNIX - FreeBSD",
	10:  "UNIX - TRU64",
	11:  "Novell - Modesto",
	12:  "UNIX - OpenBSD",
	13:  "VMS - OpenVMS",
	14:  "HP - Non-Stop Kernel",
	15:  "AROS",
	16:  "FenixOS",
	17:  "Nuxi CloudABI",
	97:  "ARM",
	255: "Standalone App",
}

func (o OSABI) String() string {
	if s, ok := osabiNames[o]; ok {
		return s
	}
	return unknown(uint64(o))
}

// FileType is the object file type stored in e_type.
type FileType uint16

var fileTypeNames = map[FileType]string{
	0: "NONE (No file type)",
	1: "REL (Relocatable file)",
	2: "EXEC (Executable file)",
	3: "DYN (Shared object file)",
	4: "CORE (Core file)",
}

var fileTypeRanges = []reservedRange{
	{lo: 0xfe00, hi: 0xfeff, name: "LOOS"},
	{lo: 0xff00, hi: 0xffff, name: "LOPROC"},
}

func (t FileType) String() string {
	return label(uint64(t), fileTypeNames[t], fileTypeRanges)
}

// Machine is the target architecture stored in e_machine.
type Machine uint16

var machineNames = map[Machine]string{
	0:   "None",
	1:   "WE32100",
	2:   "Sparc",
	3:   "Intel 80386",
	4:   "MC68000",
	5:   "MC88000",
	7:   "Intel 80860",
	8:   "MIPS R3000",
	9:   "IBM System/370",
	10:  "MIPS R4000 big-endian",
	15:  "HPPA",
	18:  "Sparc v8+",
	20:  "PowerPC",
	21:  "PowerPC64",
	22:  "IBM S/390",
	40:  "ARM",
	42:  "Renesas / SuperH SH",
	43:  "Sparc v9",
	50:  "Intel IA-64",
	62:  "Advanced Micro Devices X86-64",
	183: "AArch64",
	243: "RISC-V",
	247: "Linux BPF",
	258: "LoongArch",
}

func (m Machine) String() string {
	if s, ok := machineNames[m]; ok {
		return s
	}
	return unknown(uint64(m))
}

// SectionType is the section type stored in sh_type.
type SectionType uint32

const (
	SHT_NULL     SectionType = 0
	SHT_PROGBITS SectionType = 1
	SHT_SYMTAB   SectionType = 2
	SHT_STRTAB   SectionType = 3
	SHT_NOTE     SectionType = 7
	SHT_NOBITS   SectionType = 8
)

var sectionTypeNames = map[SectionType]string{
	0:          "NULL",
	1:          "PROGBITS",
	2:          "SYMTAB",
	3:          "STRTAB",
	4:          "RELA",
	5:          "HASH",
	6:          "DYNAMIC",
	7:          "NOTE",
	8:          "NOBITS",
	9:          "REL",
	10:         "SHLIB",
	11:         "DYNSYM",
	14:         "INIT_ARRAY",
	15:         "FINI_ARRAY",
	16:         "PREINIT_ARRAY",
	17:         "GROUP",
	18:         "SYMTAB_SHNDX",
	19:         "RELR",
	0x6ffffff5: "GNU_ATTRIBUTES",
	0x6ffffff6: "GNU_HASH",
	0x6ffffff7: "GNU_LIBLIST",
	0x6ffffffd: "VERDEF",
	0x6ffffffe: "VERNEED",
	0x6fffffff: "VERSYM",
	0x70000001: "X86_64_UNWIND",
	0x70000003: "ARM_ATTRIBUTES",
}

var sectionTypeRanges = []reservedRange{
	{lo: 0x60000000, hi: 0x6fffffff, name: "LOOS"},
	{lo: 0x70000000, hi: 0x7fffffff, name: "LOPROC"},
	{lo: 0x80000000, hi: 0xffffffff, name: "LOUSER"},
}

func (t SectionType) String() string {
	return label(uint64(t), sectionTypeNames[t], sectionTypeRanges)
}

// SectionFlag is the sh_flags bitmask.
type SectionFlag uint64

const (
	SHF_WRITE            SectionFlag = 0x1
	SHF_ALLOC            SectionFlag = 0x2
	SHF_EXECINSTR        SectionFlag = 0x4
	SHF_MERGE            SectionFlag = 0x10
	SHF_STRINGS          SectionFlag = 0x20
	SHF_INFO_LINK        SectionFlag = 0x40
	SHF_LINK_ORDER       SectionFlag = 0x80
	SHF_OS_NONCONFORMING SectionFlag = 0x100
	SHF_GROUP            SectionFlag = 0x200
	SHF_TLS              SectionFlag = 0x400
	SHF_COMPRESSED       SectionFlag = 0x800
	SHF_MASKOS           SectionFlag = 0x0ff00000
	SHF_EXCLUDE          SectionFlag = 0x80000000
	SHF_MASKPROC         SectionFlag = 0xf0000000
)

// sectionFlagKeys follows the key letters printed by binutils readelf.
var sectionFlagKeys = []struct {
	flag SectionFlag
	key  byte
}{
	{SHF_WRITE, 'W'},
	{SHF_ALLOC, 'A'},
	{SHF_EXECINSTR, 'X'},
	{SHF_MERGE, 'M'},
	{SHF_STRINGS, 'S'},
	{SHF_INFO_LINK, 'I'},
	{SHF_LINK_ORDER, 'L'},
	{SHF_OS_NONCONFORMING, 'O'},
	{SHF_GROUP, 'G'},
	{SHF_TLS, 'T'},
	{SHF_COMPRESSED, 'C'},
	{SHF_EXCLUDE, 'E'},
}

// String returns the flag key letters, e.g. "WA" or "AX". Bits in the OS or
// processor masks without a key print as 'o' and 'p'.
func (f SectionFlag) String() string {
	var sb strings.Builder
	rest := f
	for _, k := range sectionFlagKeys {
		if f&k.flag != 0 {
			sb.WriteByte(k.key)
			rest &^= k.flag
		}
	}
	if rest&SHF_MASKOS != 0 {
		sb.WriteByte('o')
		rest &^= SHF_MASKOS
	}
	if rest&SHF_MASKPROC != 0 {
		sb.WriteByte('p')
		rest &^= SHF_MASKPROC
	}
	if rest != 0 {
		sb.WriteByte('x')
	}
	return sb.String()
}

// ProgType is the segment type stored in p_type.
type ProgType uint32

const (
	PT_NULL ProgType = 0
	PT_LOAD ProgType = 1
	PT_NOTE ProgType = 4
	PT_PHDR ProgType = 6
)

var progTypeNames = map[ProgType]string{
	0:          "NULL",
	1:          "LOAD",
	2:          "DYNAMIC",
	3:          "INTERP",
	4:          "NOTE",
	5:          "SHLIB",
	6:          "PHDR",
	7:          "TLS",
	0x6474e550: "GNU_EH_FRAME",
	0x6474e551: "GNU_STACK",
	0x6474e552: "GNU_RELRO",
	0x6474e553: "GNU_PROPERTY",
	0x70000001: "EXIDX",
}

var progTypeRanges = []reservedRange{
	{lo: 0x60000000, hi: 0x6fffffff, name: "LOOS"},
	{lo: 0x70000000, hi: 0x7fffffff, name: "LOPROC"},
}

func (t ProgType) String() string {
	return label(uint64(t), progTypeNames[t], progTypeRanges)
}

// ProgFlag is the p_flags bitmask.
type ProgFlag uint32

const (
	PF_X ProgFlag = 0x1
	PF_W ProgFlag = 0x2
	PF_R ProgFlag = 0x4
)

// String renders the flags the way readelf does: "R E", "RW ".
func (f ProgFlag) String() string {
	b := []byte("   ")
	if f&PF_R != 0 {
		b[0] = 'R'
	}
	if f&PF_W != 0 {
		b[1] = 'W'
	}
	if f&PF_X != 0 {
		b[2] = 'E'
	}
	return string(b)
}

type reservedRange struct {
	lo, hi uint64
	name   string
}

// label returns known if set, the offset into a reserved range if v falls in
// one, and an unknown marker otherwise.
func label(v uint64, known string, ranges []reservedRange) string {
	if known != "" {
		return known
	}
	for _, r := range ranges {
		if v >= r.lo && v <= r.hi {
			return fmt.Sprintf("%s+0x%x", r.name, v-r.lo)
		}
	}
	return unknown(v)
}

func unknown(v uint64) string {
	return fmt.Sprintf("<unknown: 0x%x>", v)
}
