package elfreader

import (
	"github.com/pkg/errors"
)

// tableSpec describes one of the fixed-stride header tables.
type tableSpec struct {
	what    string
	offset  uint64
	count   int
	entsize uint16
	minSize int
}

// readTable reads count entries of entsize bytes starting at offset and
// returns each entry's first minSize bytes. The full table extent is checked
// against the input size before anything is allocated.
func readTable(src Source, t tableSpec) ([][]byte, error) {
	if t.count == 0 {
		return nil, nil
	}
	if int(t.entsize) < t.minSize {
		return nil, errors.Wrapf(ErrInvalidEntrySize, "%s: entry size %d, need at least %d", t.what, t.entsize, t.minSize)
	}
	total := uint64(t.count) * uint64(t.entsize)
	end := t.offset + total
	if end < t.offset {
		return nil, errors.Wrapf(ErrRangeOverflow, "%s: offset 0x%x + size 0x%x overflows", t.what, t.offset, total)
	}
	if size := src.Size(); size < 0 || end > uint64(size) {
		return nil, errors.Wrapf(ErrTruncated, "%s: %d entries of %d bytes at 0x%x need 0x%x bytes, file has 0x%x",
			t.what, t.count, t.entsize, t.offset, end, size)
	}

	raw, err := readAt(src, t.offset, int(total), t.what)
	if err != nil {
		return nil, err
	}
	entries := make([][]byte, t.count)
	for i := range entries {
		start := i * int(t.entsize)
		entries[i] = raw[start : start+t.minSize]
	}
	return entries, nil
}
