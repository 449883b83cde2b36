package elfreader

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when the input ends before a fixed-size read
	// could be satisfied.
	ErrTruncated = errors.New("elf: truncated input")
	// ErrBadMagic is returned when the first four identification bytes are
	// not 0x7f 'E' 'L' 'F'.
	ErrBadMagic = errors.New("elf: bad magic number")
	// ErrUnknownClass is returned when the class byte is neither ELFCLASS32
	// nor ELFCLASS64.
	ErrUnknownClass = errors.New("elf: unknown file class")
	// ErrUnsupportedEncoding is returned when the data encoding byte is
	// neither ELFDATA2LSB nor ELFDATA2MSB.
	ErrUnsupportedEncoding = errors.New("elf: unsupported data encoding")
	// ErrInvalidStringTableIndex is returned when e_shstrndx does not name an
	// entry of the section header table.
	ErrInvalidStringTableIndex = errors.New("elf: invalid section name string table index")
	// ErrInvalidNameOffset is returned when a section name offset points
	// outside of the section name string table.
	ErrInvalidNameOffset = errors.New("elf: invalid section name offset")
	// ErrRangeOverflow is returned when an offset+size pair overflows or
	// extends past the end of the file.
	ErrRangeOverflow = errors.New("elf: range out of file bounds")
	// ErrInvalidEntrySize is returned when a table entry size is smaller than
	// the fixed layout of its class.
	ErrInvalidEntrySize = errors.New("elf: invalid table entry size")
	// ErrInvalidSegment is returned when a program header's memory size is
	// smaller than its file size.
	ErrInvalidSegment = errors.New("elf: segment memory size smaller than file size")
	// ErrLimitExceeded is returned when a table is larger than the configured
	// limits allow.
	ErrLimitExceeded = errors.New("elf: limit exceeded")
)

// NameOffsetError reports a section whose name offset does not fall inside
// the section name string table.
type NameOffsetError struct {
	Section   int
	Offset    uint32
	TableSize int
}

func (e *NameOffsetError) Error() string {
	return fmt.Sprintf("section %d: name offset %d outside string table of %d bytes", e.Section, e.Offset, e.TableSize)
}

func (e *NameOffsetError) Unwrap() error { return ErrInvalidNameOffset }

// RangeError reports a file range that does not fit inside the input.
type RangeError struct {
	What     string
	Offset   uint64
	Size     uint64
	FileSize int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: range [0x%x, +0x%x) exceeds file size 0x%x", e.What, e.Offset, e.Size, e.FileSize)
}

func (e *RangeError) Unwrap() error { return ErrRangeOverflow }

// checkRange verifies that [off, off+size) lies inside a file of fileSize bytes.
func checkRange(what string, off, size uint64, fileSize int64) error {
	end := off + size
	if end < off || fileSize < 0 || end > uint64(fileSize) {
		return &RangeError{What: what, Offset: off, Size: size, FileSize: fileSize}
	}
	return nil
}
