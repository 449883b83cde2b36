package elfreader

import (
	"bytes"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// StringTable is the raw content of an ELF string table section.
type StringTable []byte

// Lookup returns the NUL-terminated string starting at off. A string running
// into the end of the table without a terminator is cut at the table end.
func (t StringTable) Lookup(off uint32) (string, bool) {
	if uint64(off) >= uint64(len(t)) {
		return "", false
	}
	b := t[off:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), true
}

// ResolveSectionNames reads the section name string table designated by
// e_shstrndx and returns the name of every section, by index.
//
// Each section whose name offset falls outside the table contributes a
// *NameOffsetError to the returned error; the names slice is still returned
// with empty strings in those positions.
func ResolveSectionNames(src Source, hdr *FileHeader, sections []SectionHeader) ([]string, error) {
	return resolveSectionNames(src, hdr, sections, DefaultLimits)
}

func resolveSectionNames(src Source, hdr *FileHeader, sections []SectionHeader, limits Limits) ([]string, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	idx := stringTableIndex(hdr, sections)
	names := make([]string, len(sections))
	if idx == SHN_UNDEF {
		// A file without a name table is only consistent when no section
		// refers to a name.
		for i := range sections {
			if sections[i].NameOffset != 0 {
				return nil, errors.Wrapf(ErrInvalidStringTableIndex,
					"index 0 with %d sections, section %d has name offset %d", len(sections), i, sections[i].NameOffset)
			}
		}
		return names, nil
	}
	if idx >= len(sections) {
		return nil, errors.Wrapf(ErrInvalidStringTableIndex, "index %d, %d sections", idx, len(sections))
	}

	table, err := readStringTable(src, &sections[idx], limits)
	if err != nil {
		return nil, errors.Wrapf(err, "reading section name table (section %d)", idx)
	}

	var merr *multierror.Error
	for i := range sections {
		name, ok := table.Lookup(sections[i].NameOffset)
		if !ok {
			merr = multierror.Append(merr, &NameOffsetError{
				Section:   i,
				Offset:    sections[i].NameOffset,
				TableSize: len(table),
			})
			continue
		}
		names[i] = name
	}
	return names, merr.ErrorOrNil()
}

// stringTableIndex resolves e_shstrndx, following SHN_XINDEX into section 0.
func stringTableIndex(hdr *FileHeader, sections []SectionHeader) int {
	if hdr.Shstrndx == SHN_XINDEX && len(sections) > 0 {
		return int(sections[0].Link)
	}
	return int(hdr.Shstrndx)
}

func readStringTable(src Source, s *SectionHeader, limits Limits) (StringTable, error) {
	size := s.FileSize()
	if size == 0 {
		return StringTable{}, nil
	}
	if limits.MaxStringTableSize > 0 && size > limits.MaxStringTableSize {
		return nil, errors.Wrapf(ErrLimitExceeded, "string table of %d bytes, limit %d", size, limits.MaxStringTableSize)
	}
	if err := checkRange("string table", s.Offset, size, src.Size()); err != nil {
		return nil, err
	}
	b, err := readAt(src, s.Offset, int(size), "string table")
	if err != nil {
		return nil, err
	}
	return StringTable(b), nil
}
