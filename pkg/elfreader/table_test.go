package elfreader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/readelf/pkg/elfreader/elftest"
)

func readHeaderT(t *testing.T, data []byte) (Source, *FileHeader) {
	t.Helper()
	src := bytes.NewReader(data)
	hdr, err := ReadHeader(src)
	require.NoError(t, err)
	return src, hdr
}

func TestReadSectionHeaders(t *testing.T) {
	for _, class := range []byte{elftest.Class32, elftest.Class64} {
		for _, enc := range []byte{elftest.LSB, elftest.MSB} {
			spec := elftest.Minimal64()
			spec.Class, spec.Data = class, enc
			spec.Sections = append(spec.Sections, elftest.Section{
				Name: ".bss", Type: elftest.SHT_NOBITS, Flags: elftest.SHF_ALLOC | elftest.SHF_WRITE,
				Addr: 0x402000, Size: 0x100, Addralign: 8,
			})
			data, lay := elftest.Build(spec)
			src, hdr := readHeaderT(t, data)

			sections, err := ReadSectionHeaders(src, hdr)
			require.NoError(t, err)
			require.Len(t, sections, 4)

			assert.Equal(t, SHT_NULL, sections[0].Type)
			text := sections[1]
			assert.Equal(t, SHT_PROGBITS, text.Type)
			assert.Equal(t, SHF_ALLOC|SHF_EXECINSTR, text.Flags)
			assert.Equal(t, uint64(0x401000), text.Addr)
			assert.Equal(t, lay.SectionOffsets[1], text.Offset)
			assert.Equal(t, uint64(4), text.Size)
			assert.Equal(t, uint64(16), text.Addralign)
			assert.Equal(t, lay.NameOffsets[1], text.NameOffset)
			assert.Empty(t, text.Name)

			bss := sections[2]
			assert.Equal(t, SHT_NOBITS, bss.Type)
			assert.Equal(t, uint64(0x100), bss.Size)
			assert.Equal(t, uint64(0), bss.FileSize())

			assert.Equal(t, SHT_STRTAB, sections[3].Type)
			assert.Equal(t, lay.ShstrtabSize, sections[3].Size)
		}
	}
}

func TestReadSectionHeadersEmptyTable(t *testing.T) {
	spec := elftest.Minimal64()
	spec.NoSections = true
	data, _ := elftest.Build(spec)
	src, hdr := readHeaderT(t, data)
	require.Zero(t, hdr.Shnum)

	sections, err := ReadSectionHeaders(src, hdr)
	require.NoError(t, err)
	require.Empty(t, sections)
}

func TestReadSectionHeadersUntrustedCounts(t *testing.T) {
	data, lay := elftest.Build(elftest.Minimal64())
	bo := binary.LittleEndian

	t.Run("count far past the end of the file", func(t *testing.T) {
		b := bytes.Clone(data)
		bo.PutUint16(b[lay.ShnumField:], 0xfff0)
		src, hdr := readHeaderT(t, b)
		_, err := ReadSectionHeaders(src, hdr)
		require.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("entry size below the layout", func(t *testing.T) {
		b := bytes.Clone(data)
		bo.PutUint16(b[lay.ShnumField-2:], 10)
		src, hdr := readHeaderT(t, b)
		_, err := ReadSectionHeaders(src, hdr)
		require.ErrorIs(t, err, ErrInvalidEntrySize)
	})

	t.Run("offset overflows", func(t *testing.T) {
		b := bytes.Clone(data)
		bo.PutUint64(b[lay.ShoffField:], ^uint64(0))
		src, hdr := readHeaderT(t, b)
		_, err := ReadSectionHeaders(src, hdr)
		require.ErrorIs(t, err, ErrRangeOverflow)
	})
}

func TestReadProgramHeaders(t *testing.T) {
	testcases := []struct {
		name  string
		class byte
		data  byte
	}{
		{"elf32 lsb", elftest.Class32, elftest.LSB},
		{"elf32 msb", elftest.Class32, elftest.MSB},
		{"elf64 lsb", elftest.Class64, elftest.LSB},
		{"elf64 msb", elftest.Class64, elftest.MSB},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			spec := elftest.Minimal64()
			spec.Class, spec.Data = tc.class, tc.data
			spec.Progs = append(spec.Progs, elftest.Prog{
				Type: elftest.PT_LOAD, Flags: elftest.PF_R | elftest.PF_W,
				Vaddr: 0x600000, Paddr: 0x600000, Align: 0x200000,
				Cover: []string{".text"}, Memsz: 0x1000,
			})
			data, lay := elftest.Build(spec)
			src, hdr := readHeaderT(t, data)

			progs, err := ReadProgramHeaders(src, hdr)
			require.NoError(t, err)
			require.Len(t, progs, 2)

			assert.Equal(t, PT_LOAD, progs[0].Type)
			assert.Equal(t, PF_R|PF_X, progs[0].Flags)
			assert.Equal(t, uint64(0), progs[0].Offset)
			assert.Equal(t, uint64(lay.Size), progs[0].Filesz)
			assert.Equal(t, uint64(0x1000), progs[0].Align)

			assert.Equal(t, PF_R|PF_W, progs[1].Flags)
			assert.Equal(t, lay.SectionOffsets[1], progs[1].Offset)
			assert.Equal(t, uint64(4), progs[1].Filesz)
			assert.Equal(t, uint64(0x1000), progs[1].Memsz)
			assert.Equal(t, uint64(0x600000), progs[1].Vaddr)
			assert.Equal(t, uint64(0x600000), progs[1].Paddr)
			assert.Equal(t, uint64(0x200000), progs[1].Align)
		})
	}
}

func TestReadProgramHeadersEmptyTable(t *testing.T) {
	spec := elftest.Minimal64()
	spec.Progs = nil
	data, _ := elftest.Build(spec)
	src, hdr := readHeaderT(t, data)

	progs, err := ReadProgramHeaders(src, hdr)
	require.NoError(t, err)
	require.Empty(t, progs)
}

func TestReadProgramHeadersTruncated(t *testing.T) {
	data, lay := elftest.Build(elftest.Minimal64())
	binary.LittleEndian.PutUint16(data[lay.PhnumField:], 0x8000)
	src, hdr := readHeaderT(t, data)

	_, err := ReadProgramHeaders(src, hdr)
	require.ErrorIs(t, err, ErrTruncated)
}
