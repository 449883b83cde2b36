// Package elfreader reads the structure of 32-bit and 64-bit ELF object files
// from raw bytes: the file header, the section and program header tables,
// the section name string table and the section to segment mapping.
//
// All multi-byte fields are decoded with the byte order named in the
// identification block, independent of the host.
package elfreader

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/pkg/errors"
)

// File is a fully loaded and validated ELF model. It is immutable; the
// accessors return copies.
type File struct {
	src      Source
	hdr      FileHeader
	sections []SectionHeader
	progs    []ProgramHeader
	mapping  [][]int
	strndx   int
}

// NewFile loads an ELF model from r, which holds size bytes.
func NewFile(r io.ReaderAt, size int64, opts ...Option) (*File, error) {
	return Load(NewSource(r, size), opts...)
}

// Load reads and validates every table of the ELF file in src. It returns
// either a model whose tables are mutually consistent or the first error,
// wrapped with the stage that produced it.
func Load(src Source, opts ...Option) (f *File, err error) {
	o := options{limits: DefaultLimits}
	for _, opt := range opts {
		opt(&o)
	}

	stage := "file_header"
	if o.metrics != nil {
		start := time.Now()
		src = countingSource{Source: src, m: o.metrics}
		defer func() {
			o.metrics.LoadDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				o.metrics.Loads.WithLabelValues(statusError).Inc()
				o.metrics.LoadErrors.WithLabelValues(stage).Inc()
				return
			}
			o.metrics.Loads.WithLabelValues(statusSuccess).Inc()
		}()
	}

	hdr, err := ReadHeader(src)
	if err != nil {
		return nil, errors.Wrap(err, "reading file header")
	}

	stage = "section_headers"
	if int(hdr.Shnum) > o.limits.MaxSectionHeaders {
		return nil, errors.Wrapf(ErrLimitExceeded, "%d section headers, limit %d", hdr.Shnum, o.limits.MaxSectionHeaders)
	}
	sections, err := ReadSectionHeaders(src, hdr)
	if err != nil {
		return nil, errors.Wrap(err, "reading section headers")
	}

	stage = "program_headers"
	phnum := int(hdr.Phnum)
	if hdr.Phnum == PN_XNUM && len(sections) > 0 {
		phnum = int(sections[0].Info)
	}
	if phnum > o.limits.MaxProgramHeaders {
		return nil, errors.Wrapf(ErrLimitExceeded, "%d program headers, limit %d", phnum, o.limits.MaxProgramHeaders)
	}
	progs, err := readProgramHeaders(src, hdr, phnum)
	if err != nil {
		return nil, errors.Wrap(err, "reading program headers")
	}

	stage = "validation"
	if err := validate(src.Size(), sections, progs); err != nil {
		return nil, errors.Wrap(err, "validating tables")
	}

	stage = "section_names"
	names, err := resolveSectionNames(src, hdr, sections, o.limits)
	if err != nil {
		return nil, errors.Wrap(err, "resolving section names")
	}
	for i := range sections {
		sections[i].Name = names[i]
	}

	mapping := MapSectionsToSegments(sections, progs)
	for pi, segNames := range SegmentSectionNames(mapping, names) {
		progs[pi].Sections = segNames
	}

	return &File{
		src:      src,
		hdr:      *hdr,
		sections: sections,
		progs:    progs,
		mapping:  mapping,
		strndx:   stringTableIndex(hdr, sections),
	}, nil
}

func validate(fileSize int64, sections []SectionHeader, progs []ProgramHeader) error {
	for i := range sections {
		s := &sections[i]
		if s.Type == SHT_NOBITS {
			continue
		}
		if err := checkRange(fmt.Sprintf("section %d", i), s.Offset, s.Size, fileSize); err != nil {
			return err
		}
	}
	for i := range progs {
		p := &progs[i]
		if err := checkRange(fmt.Sprintf("segment %d", i), p.Offset, p.Filesz, fileSize); err != nil {
			return err
		}
		if p.Memsz < p.Filesz {
			return errors.Wrapf(ErrInvalidSegment, "segment %d: memsz 0x%x < filesz 0x%x", i, p.Memsz, p.Filesz)
		}
	}
	return nil
}

func (f *File) Class() Class           { return f.hdr.Class() }
func (f *File) Encoding() DataEncoding { return f.hdr.Encoding() }

// Header returns a copy of the file header.
func (f *File) Header() FileHeader { return f.hdr }

// Size is the size of the underlying input in bytes.
func (f *File) Size() int64 { return f.src.Size() }

// StringTableIndex is the resolved index of the section name string table.
func (f *File) StringTableIndex() int { return f.strndx }

func (f *File) NumSections() int { return len(f.sections) }
func (f *File) NumPrograms() int { return len(f.progs) }

// Section returns the section header at index i, with its resolved name.
func (f *File) Section(i int) (SectionHeader, bool) {
	if i < 0 || i >= len(f.sections) {
		return SectionHeader{}, false
	}
	return f.sections[i], true
}

// Sections returns a copy of the section header table.
func (f *File) Sections() []SectionHeader {
	return slices.Clone(f.sections)
}

// SectionByName returns the index and header of the first section called
// name.
func (f *File) SectionByName(name string) (int, SectionHeader, bool) {
	for i := range f.sections {
		if f.sections[i].Name == name {
			return i, f.sections[i], true
		}
	}
	return -1, SectionHeader{}, false
}

// Program returns the program header at index i, with the names of the
// sections mapped to it.
func (f *File) Program(i int) (ProgramHeader, bool) {
	if i < 0 || i >= len(f.progs) {
		return ProgramHeader{}, false
	}
	return cloneProg(f.progs[i]), true
}

// Programs returns a copy of the program header table.
func (f *File) Programs() []ProgramHeader {
	out := make([]ProgramHeader, len(f.progs))
	for i := range f.progs {
		out[i] = cloneProg(f.progs[i])
	}
	return out
}

// Mapping returns, per program header, the indices of the sections mapped to
// it.
func (f *File) Mapping() [][]int {
	out := make([][]int, len(f.mapping))
	for i := range f.mapping {
		out[i] = slices.Clone(f.mapping[i])
	}
	return out
}

// SectionData reads the file content of section i. SHT_NOBITS sections have
// no content.
func (f *File) SectionData(i int) ([]byte, error) {
	s, ok := f.Section(i)
	if !ok {
		return nil, fmt.Errorf("section index %d out of range [0, %d)", i, len(f.sections))
	}
	size := s.FileSize()
	if size == 0 {
		return []byte{}, nil
	}
	if err := checkRange(fmt.Sprintf("section %d", i), s.Offset, size, f.src.Size()); err != nil {
		return nil, err
	}
	return readAt(f.src, s.Offset, int(size), fmt.Sprintf("section %d data", i))
}

func cloneProg(p ProgramHeader) ProgramHeader {
	p.Sections = slices.Clone(p.Sections)
	return p
}
