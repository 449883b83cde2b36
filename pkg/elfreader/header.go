package elfreader

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// header32 is the on-disk Elf32_Ehdr.
type header32 struct {
	Ident     [IdentSize]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// header64 is the on-disk Elf64_Ehdr.
type header64 struct {
	Ident     [IdentSize]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

const (
	Header32Size = 52
	Header64Size = 64
)

// FileHeader is the ELF file header with address and offset fields widened
// to 64 bits regardless of class.
type FileHeader struct {
	Ident     Ident
	Type      FileType
	Machine   Machine
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

func (h *FileHeader) Class() Class           { return h.Ident.Class() }
func (h *FileHeader) Encoding() DataEncoding { return h.Ident.Encoding() }

// ByteOrder returns the byte order selected by the data encoding, or nil if
// the encoding is not recognized.
func (h *FileHeader) ByteOrder() binary.ByteOrder {
	bo, _ := h.Ident.validate()
	return bo
}

// ReadHeader reads the file header at offset 0. The identification bytes are
// read and checked first; nothing else is read when they are invalid.
func ReadHeader(r io.ReaderAt) (*FileHeader, error) {
	id, err := ReadIdentification(r)
	if err != nil {
		return nil, err
	}
	bo, err := id.validate()
	if err != nil {
		return nil, err
	}

	size := Header64Size
	if id.Class() == Class32 {
		size = Header32Size
	}
	b, err := readAt(r, 0, size, "file header")
	if err != nil {
		return nil, err
	}
	return decodeHeader(id.Class(), bo, b)
}

func decodeHeader(class Class, bo binary.ByteOrder, b []byte) (*FileHeader, error) {
	rd := bytes.NewReader(b)
	switch class {
	case Class32:
		var raw header32
		if err := binary.Read(rd, bo, &raw); err != nil {
			return nil, errors.Wrap(ErrTruncated, "decoding 32-bit file header")
		}
		return &FileHeader{
			Ident:     raw.Ident,
			Type:      FileType(raw.Type),
			Machine:   Machine(raw.Machine),
			Version:   raw.Version,
			Entry:     uint64(raw.Entry),
			Phoff:     uint64(raw.Phoff),
			Shoff:     uint64(raw.Shoff),
			Flags:     raw.Flags,
			Ehsize:    raw.Ehsize,
			Phentsize: raw.Phentsize,
			Phnum:     raw.Phnum,
			Shentsize: raw.Shentsize,
			Shnum:     raw.Shnum,
			Shstrndx:  raw.Shstrndx,
		}, nil
	case Class64:
		var raw header64
		if err := binary.Read(rd, bo, &raw); err != nil {
			return nil, errors.Wrap(ErrTruncated, "decoding 64-bit file header")
		}
		return &FileHeader{
			Ident:     raw.Ident,
			Type:      FileType(raw.Type),
			Machine:   Machine(raw.Machine),
			Version:   raw.Version,
			Entry:     raw.Entry,
			Phoff:     raw.Phoff,
			Shoff:     raw.Shoff,
			Flags:     raw.Flags,
			Ehsize:    raw.Ehsize,
			Phentsize: raw.Phentsize,
			Phnum:     raw.Phnum,
			Shentsize: raw.Shentsize,
			Shnum:     raw.Shnum,
			Shstrndx:  raw.Shstrndx,
		}, nil
	}
	return nil, ErrUnknownClass
}

// MarshalBinary encodes the header back into its class-specific on-disk
// layout. A header read by ReadHeader encodes to the exact bytes it was read
// from.
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	bo, err := h.Ident.validate()
	if err != nil {
		return nil, err
	}
	var (
		buf bytes.Buffer
		raw interface{}
	)
	switch h.Class() {
	case Class32:
		if h.Entry > 0xffffffff || h.Phoff > 0xffffffff || h.Shoff > 0xffffffff {
			return nil, errors.Wrap(ErrRangeOverflow, "address does not fit a 32-bit header")
		}
		raw = &header32{
			Ident: h.Ident, Type: uint16(h.Type), Machine: uint16(h.Machine), Version: h.Version,
			Entry: uint32(h.Entry), Phoff: uint32(h.Phoff), Shoff: uint32(h.Shoff), Flags: h.Flags,
			Ehsize: h.Ehsize, Phentsize: h.Phentsize, Phnum: h.Phnum,
			Shentsize: h.Shentsize, Shnum: h.Shnum, Shstrndx: h.Shstrndx,
		}
	default:
		raw = &header64{
			Ident: h.Ident, Type: uint16(h.Type), Machine: uint16(h.Machine), Version: h.Version,
			Entry: h.Entry, Phoff: h.Phoff, Shoff: h.Shoff, Flags: h.Flags,
			Ehsize: h.Ehsize, Phentsize: h.Phentsize, Phnum: h.Phnum,
			Shentsize: h.Shentsize, Shnum: h.Shnum, Shstrndx: h.Shstrndx,
		}
	}
	if err := binary.Write(&buf, bo, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
