package elfreader

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// prog32 is the on-disk Elf32_Phdr. Unlike the 64-bit layout, p_flags
// follows the size fields instead of p_type.
type prog32 struct {
	Type   uint32
	Off    uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

// prog64 is the on-disk Elf64_Phdr.
type prog64 struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

const (
	Prog32Size = 32
	Prog64Size = 56

	// PN_XNUM in e_phnum means the real count is in section 0's sh_info.
	PN_XNUM = 0xffff
)

// ProgramHeader is one program header table entry, widened to 64 bits.
type ProgramHeader struct {
	Type   ProgType
	Flags  ProgFlag
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64

	// Sections lists the names of the sections mapped to this segment. It is
	// only filled in on headers returned by File.
	Sections []string
}

// ReadProgramHeaders reads e_phnum entries of e_phentsize bytes starting at
// e_phoff. A count of zero yields an empty table.
func ReadProgramHeaders(src Source, hdr *FileHeader) ([]ProgramHeader, error) {
	return readProgramHeaders(src, hdr, int(hdr.Phnum))
}

func readProgramHeaders(src Source, hdr *FileHeader, count int) ([]ProgramHeader, error) {
	bo, err := hdr.Ident.validate()
	if err != nil {
		return nil, err
	}
	minSize := Prog64Size
	if hdr.Class() == Class32 {
		minSize = Prog32Size
	}
	entries, err := readTable(src, tableSpec{
		what:    "program header table",
		offset:  hdr.Phoff,
		count:   count,
		entsize: hdr.Phentsize,
		minSize: minSize,
	})
	if err != nil {
		return nil, err
	}
	progs := make([]ProgramHeader, len(entries))
	for i, b := range entries {
		if progs[i], err = decodeProg(hdr.Class(), bo, b); err != nil {
			return nil, errors.Wrapf(err, "decoding program header %d", i)
		}
	}
	return progs, nil
}

func decodeProg(class Class, bo binary.ByteOrder, b []byte) (ProgramHeader, error) {
	rd := bytes.NewReader(b)
	if class == Class32 {
		var raw prog32
		if err := binary.Read(rd, bo, &raw); err != nil {
			return ProgramHeader{}, ErrTruncated
		}
		return ProgramHeader{
			Type:   ProgType(raw.Type),
			Flags:  ProgFlag(raw.Flags),
			Offset: uint64(raw.Off),
			Vaddr:  uint64(raw.Vaddr),
			Paddr:  uint64(raw.Paddr),
			Filesz: uint64(raw.Filesz),
			Memsz:  uint64(raw.Memsz),
			Align:  uint64(raw.Align),
		}, nil
	}
	var raw prog64
	if err := binary.Read(rd, bo, &raw); err != nil {
		return ProgramHeader{}, ErrTruncated
	}
	return ProgramHeader{
		Type:   ProgType(raw.Type),
		Flags:  ProgFlag(raw.Flags),
		Offset: raw.Off,
		Vaddr:  raw.Vaddr,
		Paddr:  raw.Paddr,
		Filesz: raw.Filesz,
		Memsz:  raw.Memsz,
		Align:  raw.Align,
	}, nil
}
