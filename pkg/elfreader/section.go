package elfreader

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// section32 is the on-disk Elf32_Shdr.
type section32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Off       uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

// section64 is the on-disk Elf64_Shdr.
type section64 struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

const (
	Section32Size = 40
	Section64Size = 64

	// SHN_UNDEF marks a missing section reference.
	SHN_UNDEF = 0
	// SHN_XINDEX in e_shstrndx means the real index is in section 0's sh_link.
	SHN_XINDEX = 0xffff
)

// SectionHeader is one section header table entry, widened to 64 bits.
type SectionHeader struct {
	// Name is resolved from the section name string table; NameOffset is
	// the raw sh_name value.
	Name       string
	NameOffset uint32
	Type       SectionType
	Flags      SectionFlag
	Addr       uint64
	Offset     uint64
	Size       uint64
	Link       uint32
	Info       uint32
	Addralign  uint64
	Entsize    uint64
}

// FileSize is the number of bytes the section occupies in the file.
func (s *SectionHeader) FileSize() uint64 {
	if s.Type == SHT_NOBITS {
		return 0
	}
	return s.Size
}

// ReadSectionHeaders reads e_shnum entries of e_shentsize bytes starting at
// e_shoff. A count of zero yields an empty table.
func ReadSectionHeaders(src Source, hdr *FileHeader) ([]SectionHeader, error) {
	bo, err := hdr.Ident.validate()
	if err != nil {
		return nil, err
	}
	minSize := Section64Size
	if hdr.Class() == Class32 {
		minSize = Section32Size
	}
	entries, err := readTable(src, tableSpec{
		what:    "section header table",
		offset:  hdr.Shoff,
		count:   int(hdr.Shnum),
		entsize: hdr.Shentsize,
		minSize: minSize,
	})
	if err != nil {
		return nil, err
	}
	sections := make([]SectionHeader, len(entries))
	for i, b := range entries {
		if sections[i], err = decodeSection(hdr.Class(), bo, b); err != nil {
			return nil, errors.Wrapf(err, "decoding section header %d", i)
		}
	}
	return sections, nil
}

func decodeSection(class Class, bo binary.ByteOrder, b []byte) (SectionHeader, error) {
	rd := bytes.NewReader(b)
	if class == Class32 {
		var raw section32
		if err := binary.Read(rd, bo, &raw); err != nil {
			return SectionHeader{}, ErrTruncated
		}
		return SectionHeader{
			NameOffset: raw.Name,
			Type:       SectionType(raw.Type),
			Flags:      SectionFlag(raw.Flags),
			Addr:       uint64(raw.Addr),
			Offset:     uint64(raw.Off),
			Size:       uint64(raw.Size),
			Link:       raw.Link,
			Info:       raw.Info,
			Addralign:  uint64(raw.Addralign),
			Entsize:    uint64(raw.Entsize),
		}, nil
	}
	var raw section64
	if err := binary.Read(rd, bo, &raw); err != nil {
		return SectionHeader{}, ErrTruncated
	}
	return SectionHeader{
		NameOffset: raw.Name,
		Type:       SectionType(raw.Type),
		Flags:      SectionFlag(raw.Flags),
		Addr:       raw.Addr,
		Offset:     raw.Off,
		Size:       raw.Size,
		Link:       raw.Link,
		Info:       raw.Info,
		Addralign:  raw.Addralign,
		Entsize:    raw.Entsize,
	}, nil
}
