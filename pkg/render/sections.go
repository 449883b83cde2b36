package render

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/grafana/readelf/pkg/elfreader"
)

const maxNameWidth = 17

type sectionView struct {
	Index     int    `json:"index" yaml:"index"`
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Flags     string `json:"flags" yaml:"flags"`
	Address   string `json:"address" yaml:"address"`
	Offset    uint64 `json:"offset" yaml:"offset"`
	Size      uint64 `json:"size" yaml:"size"`
	EntSize   uint64 `json:"entry_size" yaml:"entry_size"`
	Link      uint32 `json:"link" yaml:"link"`
	Info      uint32 `json:"info" yaml:"info"`
	Alignment uint64 `json:"alignment" yaml:"alignment"`
}

func newSectionViews(f *elfreader.File) []sectionView {
	return lo.Map(f.Sections(), func(s elfreader.SectionHeader, i int) sectionView {
		return sectionView{
			Index:     i,
			Name:      s.Name,
			Type:      s.Type.String(),
			Flags:     s.Flags.String(),
			Address:   hex(s.Addr),
			Offset:    s.Offset,
			Size:      s.Size,
			EntSize:   s.Entsize,
			Link:      s.Link,
			Info:      s.Info,
			Alignment: s.Addralign,
		}
	})
}

type sectionsDoc struct {
	File     string        `json:"file,omitempty" yaml:"file,omitempty"`
	Sections []sectionView `json:"sections" yaml:"sections"`
}

// SectionHeaders prints the section header table.
func (p *Printer) SectionHeaders(path string, f *elfreader.File) error {
	if p.structured() {
		return p.encode(sectionsDoc{File: path, Sections: newSectionViews(f)})
	}
	p.fileName(path)
	p.writeSectionHeaders(f)
	return nil
}

func (p *Printer) writeSectionHeaders(f *elfreader.File) {
	if f.NumSections() == 0 {
		fmt.Fprintln(p.w, "\nThere are no sections in this file.")
		return
	}
	h := f.Header()
	fmt.Fprintf(p.w, "There are %d section headers, starting at offset 0x%x:\n\n", f.NumSections(), h.Shoff)
	p.title("Section Headers:")

	is64 := f.Class() == elfreader.Class64
	table := p.newTable([]string{"[Nr]", "Name", "Type", "Address", "Off", "Size", "ES", "Flg", "Lk", "Inf", "Al"})
	for i, s := range f.Sections() {
		table.Append([]string{
			fmt.Sprintf("[%2d]", i),
			p.sectionName(s.Name),
			s.Type.String(),
			address(s.Addr, is64),
			fmt.Sprintf("%06x", s.Offset),
			fmt.Sprintf("%06x", s.Size),
			fmt.Sprintf("%02x", s.Entsize),
			s.Flags.String(),
			fmt.Sprintf("%d", s.Link),
			fmt.Sprintf("%d", s.Info),
			fmt.Sprintf("%d", s.Addralign),
		})
	}
	table.Render()
	fmt.Fprint(p.w, flagKey)
}

// sectionName escapes control bytes and, unless wide output is requested,
// shortens names longer than maxNameWidth runes.
func (p *Printer) sectionName(name string) string {
	name = printable([]byte(name))
	if p.opts.Wide {
		return name
	}
	runes := []rune(name)
	if len(runes) <= maxNameWidth {
		return name
	}
	return string(runes[:maxNameWidth-5]) + "[...]"
}

const flagKey = `Key to Flags:
  W (write), A (alloc), X (execute), M (merge), S (strings), I (info),
  L (link order), O (extra OS processing required), G (group), T (TLS),
  C (compressed), x (unknown), o (OS specific), E (exclude),
  p (processor specific)
`
