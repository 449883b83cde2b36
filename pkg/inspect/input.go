package inspect

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/grafana/readelf/pkg/elfreader"
)

type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// Input is the content of one file, decompressed.
type Input struct {
	Path        string
	Compression Compression
	Data        []byte
	// Fingerprint is the xxhash of Data.
	Fingerprint uint64
}

// Open reads the file at path into memory, decompressing gzip and zstd
// content on the way. Inputs that are larger than maxSize once decompressed
// fail with elfreader.ErrLimitExceeded. Zero means no limit.
func Open(fs afero.Fs, path string, maxSize uint64) (*Input, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, compression, err := readAll(f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Input{
		Path:        path,
		Compression: compression,
		Data:        data,
		Fingerprint: xxhash.Sum64(data),
	}, nil
}

// Source returns a random-access view of the input.
func (in *Input) Source() elfreader.Source {
	return bytes.NewReader(in.Data)
}

// readAll reads the beginning of the input to determine if it's compressed,
// and returns the decompressed data.
func readAll(r io.Reader, maxSize uint64) ([]byte, Compression, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek header: %w", err)
	}

	var buf bytes.Buffer
	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, "", fmt.Errorf("create gzip reader: %w", err)
		}
		defer gr.Close()
		if err := readLimited(&buf, gr, maxSize); err != nil {
			return nil, "", fmt.Errorf("decompress gzip data: %w", err)
		}
		return buf.Bytes(), CompressionGzip, nil

	case len(header) >= 4 && header[0] == 0x28 && header[1] == 0xb5 && header[2] == 0x2f && header[3] == 0xfd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, "", fmt.Errorf("create zstd reader: %w", err)
		}
		defer zr.Close()
		if err := readLimited(&buf, zr, maxSize); err != nil {
			return nil, "", fmt.Errorf("decompress zstd data: %w", err)
		}
		return buf.Bytes(), CompressionZstd, nil
	}

	if err := readLimited(&buf, br, maxSize); err != nil {
		return nil, "", fmt.Errorf("read data: %w", err)
	}
	return buf.Bytes(), CompressionNone, nil
}

// readLimited reads r into buf, stopping one byte past maxSize.
func readLimited(buf *bytes.Buffer, r io.Reader, maxSize uint64) error {
	if maxSize > 0 && maxSize < math.MaxInt64 {
		r = io.LimitReader(r, int64(maxSize)+1)
	}
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	if maxSize > 0 && uint64(buf.Len()) > maxSize {
		return fmt.Errorf("input exceeds %d bytes: %w", maxSize, elfreader.ErrLimitExceeded)
	}
	return nil
}
