// Package elftest synthesizes small ELF files for tests.
package elftest

import (
	"encoding/binary"
)

const (
	Class32 = 1
	Class64 = 2

	LSB = 1
	MSB = 2

	SHT_PROGBITS = 1
	SHT_STRTAB   = 3
	SHT_NOTE     = 7
	SHT_NOBITS   = 8

	PT_LOAD = 1
	PT_NOTE = 4

	SHF_WRITE     = 0x1
	SHF_ALLOC     = 0x2
	SHF_EXECINSTR = 0x4

	PF_X = 0x1
	PF_W = 0x2
	PF_R = 0x4
)

// Section describes a section to place in the file. Data is written to the
// file unless Type is SHT_NOBITS, in which case Size is used.
type Section struct {
	Name      string
	Type      uint32
	Flags     uint64
	Addr      uint64
	Data      []byte
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// Prog describes a program header. When Cover is set the segment spans the
// named sections; when WholeFile is set it spans the complete file;
// otherwise Offset and Filesz are used as given. Memsz defaults to Filesz.
type Prog struct {
	Type      uint32
	Flags     uint32
	Vaddr     uint64
	Paddr     uint64
	Align     uint64
	Offset    uint64
	Filesz    uint64
	Memsz     uint64
	WholeFile bool
	Cover     []string
}

// Spec is the description of a whole file. A NULL section is always placed
// at index 0 and ".shstrtab" last, unless NoSections is set.
type Spec struct {
	Class      byte
	Data       byte
	Type       uint16
	Machine    uint16
	Entry      uint64
	Flags      uint32
	Sections   []Section
	Progs      []Prog
	NoSections bool
}

// Layout reports where Build placed things.
type Layout struct {
	Size           int
	Phoff          uint64
	Shoff          uint64
	Shnum          int
	Shstrndx       int
	ShstrtabOffset uint64
	ShstrtabSize   uint64
	SectionOffsets []uint64
	NameOffsets    []uint32
	// Offsets of the e_shnum, e_shstrndx and e_phnum fields in the header.
	ShnumField    int
	ShstrndxField int
	PhnumField    int
	ShoffField    int
}

// Minimal64 is a little-endian 64-bit executable with the sections NULL,
// ".text" and ".shstrtab" and one LOAD segment spanning the whole file.
func Minimal64() Spec {
	return Spec{
		Class:   Class64,
		Data:    LSB,
		Type:    2,
		Machine: 62,
		Entry:   0x401000,
		Sections: []Section{
			{Name: ".text", Type: SHT_PROGBITS, Flags: SHF_ALLOC | SHF_EXECINSTR, Addr: 0x401000, Data: []byte{0x90, 0x90, 0x90, 0xc3}, Addralign: 16},
		},
		Progs: []Prog{
			{Type: PT_LOAD, Flags: PF_R | PF_X, Vaddr: 0x400000, Paddr: 0x400000, Align: 0x1000, WholeFile: true},
		},
	}
}

// Build lays out and encodes spec.
func Build(spec Spec) ([]byte, Layout) {
	var bo binary.ByteOrder = binary.LittleEndian
	if spec.Data == MSB {
		bo = binary.BigEndian
	}
	is64 := spec.Class != Class32

	ehsize, phentsize, shentsize := 52, 32, 40
	if is64 {
		ehsize, phentsize, shentsize = 64, 56, 64
	}

	var sections []Section
	if !spec.NoSections {
		sections = append(sections, Section{})
		sections = append(sections, spec.Sections...)
		sections = append(sections, Section{Name: ".shstrtab", Type: SHT_STRTAB, Addralign: 1})
	}

	var lay Layout
	lay.Shnum = len(sections)
	lay.NameOffsets = make([]uint32, len(sections))
	if len(sections) > 0 {
		strtab := []byte{0}
		for i := 1; i < len(sections); i++ {
			lay.NameOffsets[i] = uint32(len(strtab))
			strtab = append(strtab, sections[i].Name...)
			strtab = append(strtab, 0)
		}
		last := len(sections) - 1
		sections[last].Data = strtab
		lay.Shstrndx = last
	}

	cursor := uint64(ehsize)
	if len(spec.Progs) > 0 {
		lay.Phoff = cursor
		cursor += uint64(len(spec.Progs) * phentsize)
	}
	lay.SectionOffsets = make([]uint64, len(sections))
	for i := 1; i < len(sections); i++ {
		s := &sections[i]
		cursor = alignUp(cursor, s.Addralign)
		lay.SectionOffsets[i] = cursor
		if s.Type != SHT_NOBITS {
			s.Size = uint64(len(s.Data))
			cursor += s.Size
		}
	}
	if len(sections) > 0 {
		lay.ShstrtabOffset = lay.SectionOffsets[lay.Shstrndx]
		lay.ShstrtabSize = sections[lay.Shstrndx].Size
		cursor = alignUp(cursor, 8)
		lay.Shoff = cursor
		cursor += uint64(len(sections) * shentsize)
	}
	lay.Size = int(cursor)

	buf := make([]byte, lay.Size)
	w := &writer{buf: buf, bo: bo}

	// e_ident
	copy(buf, []byte{0x7f, 'E', 'L', 'F', spec.Class, spec.Data, 1})
	w.off = 16
	w.u16(spec.Type)
	w.u16(spec.Machine)
	w.u32(1)
	w.addr(is64, spec.Entry)
	w.addr(is64, lay.Phoff)
	lay.ShoffField = w.off
	w.addr(is64, lay.Shoff)
	w.u32(spec.Flags)
	w.u16(uint16(ehsize))
	w.u16(uint16(phentsize))
	lay.PhnumField = w.off
	w.u16(uint16(len(spec.Progs)))
	w.u16(uint16(shentsize))
	lay.ShnumField = w.off
	w.u16(uint16(len(sections)))
	lay.ShstrndxField = w.off
	w.u16(uint16(lay.Shstrndx))

	w.off = int(lay.Phoff)
	for _, p := range spec.Progs {
		off, filesz := p.Offset, p.Filesz
		switch {
		case p.WholeFile:
			off, filesz = 0, uint64(lay.Size)
		case len(p.Cover) > 0:
			off, filesz = cover(p.Cover, sections, lay.SectionOffsets)
		}
		memsz := p.Memsz
		if memsz < filesz {
			memsz = filesz
		}
		if is64 {
			w.u32(p.Type)
			w.u32(p.Flags)
			w.u64(off)
			w.u64(p.Vaddr)
			w.u64(p.Paddr)
			w.u64(filesz)
			w.u64(memsz)
			w.u64(p.Align)
		} else {
			w.u32(p.Type)
			w.u32(uint32(off))
			w.u32(uint32(p.Vaddr))
			w.u32(uint32(p.Paddr))
			w.u32(uint32(filesz))
			w.u32(uint32(memsz))
			w.u32(p.Flags)
			w.u32(uint32(p.Align))
		}
	}

	for i := range sections {
		if sections[i].Type != SHT_NOBITS {
			copy(buf[lay.SectionOffsets[i]:], sections[i].Data)
		}
	}

	w.off = int(lay.Shoff)
	for i, s := range sections {
		w.u32(lay.NameOffsets[i])
		w.u32(s.Type)
		w.addr(is64, s.Flags)
		w.addr(is64, s.Addr)
		w.addr(is64, lay.SectionOffsets[i])
		w.addr(is64, s.Size)
		w.u32(s.Link)
		w.u32(s.Info)
		w.addr(is64, s.Addralign)
		w.addr(is64, s.Entsize)
	}

	return buf, lay
}

// GNUBuildIDNote encodes a .note.gnu.build-id payload.
func GNUBuildIDNote(bo binary.ByteOrder, id []byte) []byte {
	return note(bo, "GNU\x00", 3, id)
}

// GoBuildIDNote encodes a .note.go.buildid payload.
func GoBuildIDNote(bo binary.ByteOrder, id string) []byte {
	return note(bo, "Go\x00\x00", 4, []byte(id))
}

func note(bo binary.ByteOrder, name string, typ uint32, desc []byte) []byte {
	b := make([]byte, 12, 12+len(name)+len(desc)+3)
	bo.PutUint32(b[0:], uint32(len(name)))
	bo.PutUint32(b[4:], uint32(len(desc)))
	bo.PutUint32(b[8:], typ)
	b = append(b, name...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	b = append(b, desc...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func cover(names []string, sections []Section, offsets []uint64) (uint64, uint64) {
	var lo, hi uint64
	first := true
	for _, n := range names {
		for i := range sections {
			if sections[i].Name != n || i == 0 {
				continue
			}
			start, end := offsets[i], offsets[i]+sections[i].Size
			if first || start < lo {
				lo = start
			}
			if first || end > hi {
				hi = end
			}
			first = false
		}
	}
	return lo, hi - lo
}

func alignUp(v, a uint64) uint64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

type writer struct {
	buf []byte
	off int
	bo  binary.ByteOrder
}

func (w *writer) u16(v uint16) {
	w.bo.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *writer) u32(v uint32) {
	w.bo.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) u64(v uint64) {
	w.bo.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *writer) addr(is64 bool, v uint64) {
	if is64 {
		w.u64(v)
		return
	}
	w.u32(uint32(v))
}
