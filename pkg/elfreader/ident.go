package elfreader

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// IdentSize is the length of e_ident.
	IdentSize = 16

	identClass      = 4
	identData       = 5
	identVersion    = 6
	identOSABI      = 7
	identABIVersion = 8
)

var magic = [4]byte{0x7f, 'E', 'L', 'F'}

// Ident is the identification block at the start of every ELF file.
type Ident [IdentSize]byte

// ReadIdentification reads the 16 identification bytes at offset 0.
// A short input whose first four bytes are not the ELF magic fails with
// ErrBadMagic rather than ErrTruncated.
func ReadIdentification(r io.ReaderAt) (Ident, error) {
	var id Ident
	b, err := readAt(r, 0, IdentSize, "identification")
	if err != nil {
		if errors.Is(err, ErrTruncated) {
			var head [len(magic)]byte
			if n, _ := r.ReadAt(head[:], 0); n == len(head) && head != magic {
				return id, errors.Wrapf(ErrBadMagic, "got % x", head[:])
			}
		}
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// HasMagic reports whether the first four bytes are 0x7f 'E' 'L' 'F'.
func (id Ident) HasMagic() bool {
	return id[0] == magic[0] && id[1] == magic[1] && id[2] == magic[2] && id[3] == magic[3]
}

// Class returns the file class. Unrecognized values map to ClassNone.
func (id Ident) Class() Class {
	switch c := Class(id[identClass]); c {
	case Class32, Class64:
		return c
	}
	return ClassNone
}

// Encoding returns the data encoding. Unrecognized values map to
// EncodingNone.
func (id Ident) Encoding() DataEncoding {
	switch d := DataEncoding(id[identData]); d {
	case LittleEndian, BigEndian:
		return d
	}
	return EncodingNone
}

func (id Ident) Version() byte    { return id[identVersion] }
func (id Ident) OSABI() OSABI     { return OSABI(id[identOSABI]) }
func (id Ident) ABIVersion() byte { return id[identABIVersion] }

// validate checks magic, class and encoding in that order and returns the
// byte order all later fields are decoded with.
func (id Ident) validate() (binary.ByteOrder, error) {
	if !id.HasMagic() {
		return nil, errors.Wrapf(ErrBadMagic, "got % x", id[:4])
	}
	if id.Class() == ClassNone {
		return nil, errors.Wrapf(ErrUnknownClass, "class byte %d", id[identClass])
	}
	switch id.Encoding() {
	case LittleEndian:
		return binary.LittleEndian, nil
	case BigEndian:
		return binary.BigEndian, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedEncoding, "encoding byte %d", id[identData])
}
