package elfreader

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Source is the random-access input an ELF model is read from. Every read
// names an absolute offset, so no operation depends on a cursor left behind
// by a previous one.
//
// *bytes.Reader, *io.SectionReader and the sources returned by NewSource and
// FromReadSeeker all satisfy it.
type Source interface {
	io.ReaderAt
	Size() int64
}

type sizedReaderAt struct {
	io.ReaderAt
	size int64
}

func (s sizedReaderAt) Size() int64 { return s.size }

// NewSource wraps r as a Source of the given size.
func NewSource(r io.ReaderAt, size int64) Source {
	return sizedReaderAt{ReaderAt: r, size: size}
}

// seekReaderAt turns a ReadSeeker into a ReaderAt by seeking to an absolute
// offset before every read.
type seekReaderAt struct {
	mu   sync.Mutex
	rs   io.ReadSeeker
	size int64
}

// FromReadSeeker adapts a seekable stream positioned anywhere into a Source.
func FromReadSeeker(rs io.ReadSeeker) (Source, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "determining input size")
	}
	return &seekReaderAt{rs: rs, size: size}, nil
}

func (s *seekReaderAt) Size() int64 { return s.size }

func (s *seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.rs, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

// readAt reads exactly n bytes at off. A short read is reported as
// ErrTruncated.
func readAt(r io.ReaderAt, off uint64, n int, what string) ([]byte, error) {
	if off > uint64(maxInt64) {
		return nil, errors.Wrapf(ErrRangeOverflow, "%s: offset 0x%x", what, off)
	}
	buf := make([]byte, n)
	got, err := r.ReadAt(buf, int64(off))
	if got < n {
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrTruncated, "%s: read %d of %d bytes at offset 0x%x", what, got, n, off)
		}
		return nil, errors.Wrapf(err, "%s", what)
	}
	return buf, nil
}

const maxInt64 = 1<<63 - 1
